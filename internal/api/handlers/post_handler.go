package handlers

import (
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/queue"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/service"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	AsynqClient queue.Enqueuer
}

func NewPostHandler(service service.PostService, asynqClient queue.Enqueuer) *PostHandler {
	return &PostHandler{s: service, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	post, job, err := h.s.CreatePost(c.UserContext(), &pc)
	if err != nil {
		return errorResponse(c, err)
	}

	if job != nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"post":   post,
			"job_id": job.ID,
		})
	}

	err = queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, 0)
	if err != nil {
		slog.Error("enqueue publish", "post_id", post.ID, "error", err)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"post":  post,
			"error": "Error queueing post for publishing",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post": post,
	})
}

// PublishPost queues a ready post for publishing, for example after the
// initial enqueue in CreatePost failed.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	post, err := h.s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	if post.Status != models.PostStatusReady {
		return errorResponse(c, service.ErrPostNotReady)
	}

	err = queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, 0)
	if err != nil {
		slog.Error("enqueue publish", "post_id", post.ID, "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Error queueing post for publishing",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Post queued for publishing",
	})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// ListScheduled accepts optional ?platform= and ?date=YYYY-MM-DD filters.
func (h *PostHandler) ListScheduled(c *fiber.Ctx) error {
	filter := models.ScheduledPostFilter{Platform: c.Query("platform")}
	if d := c.Query("date"); d != "" {
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be YYYY-MM-DD",
			})
		}
		filter.Date = &day
	}

	posts, err := h.s.ListScheduled(c.UserContext(), filter)
	if err != nil {
		return errorResponse(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	if err := h.s.Cancel(c.UserContext(), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post cancelled",
	})
}

func (h *PostHandler) GenerateContent(c *fiber.Ctx) error {
	var req transfer.ContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse body",
		})
	}

	generated, err := h.s.GenerateContent(c.UserContext(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(generated)
}

// UploadMedia stores the multipart "media" file and returns its key for use in CreatePost.
func (h *PostHandler) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("media")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}
	if file.Size > service.MaxVideoSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File too large",
		})
	}

	f, err := file.Open()
	if err != nil {
		return errorResponse(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errorResponse(c, err)
	}

	key, err := h.s.UploadMedia(c.UserContext(), data)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"media_key": key,
	})
}

// OptimalTimes suggests posting slots for ?platform= and ?category=.
func (h *PostHandler) OptimalTimes(c *fiber.Ctx) error {
	platform := c.Query("platform")
	if platform == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "platform is required",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"platform": platform,
		"times":    scheduler.OptimalPostingTimes(platform, c.Query("category")),
	})
}
