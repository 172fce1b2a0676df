package handlers

import "github.com/gofiber/fiber/v2"

func Register(app *fiber.App, post *PostHandler, platform *PlatformHandler) {
	api := app.Group("/api")

	api.Post("/posts", post.CreatePost)
	api.Get("/posts/scheduled", post.ListScheduled)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts/:id/cancel", post.CancelPost)
	api.Post("/posts/:id/publish", post.PublishPost)
	api.Post("/media", post.UploadMedia)
	api.Post("/content/generate", post.GenerateContent)
	api.Get("/schedule/optimal-times", post.OptimalTimes)

	api.Get("/platforms", platform.ListPlatforms)
	api.Post("/platforms/:platform/connect", platform.Connect)
	api.Delete("/platforms/:platform", platform.Revoke)
}
