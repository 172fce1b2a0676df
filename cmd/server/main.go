package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/maheshrc27/viralflow/configs"
	"github.com/maheshrc27/viralflow/internal/api/handlers"
	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/content"
	job "github.com/maheshrc27/viralflow/internal/jobs"
	"github.com/maheshrc27/viralflow/internal/platform"
	"github.com/maheshrc27/viralflow/internal/queue"
	"github.com/maheshrc27/viralflow/internal/repository"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/service"
	"github.com/maheshrc27/viralflow/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	rules := caption.Default()
	if cfg.PlatformRulesPath != "" {
		rules, err = caption.Load(cfg.PlatformRulesPath)
		if err != nil {
			log.Fatalf("Failed to load platform rules: %v", err)
		}
	}

	media, err := storage.NewR2MediaStore(ctx, cfg.R2)
	if err != nil {
		log.Fatalf("Failed to configure media storage: %v", err)
	}

	dispatcher := platform.NewDispatcher(cfg.PlatformPostTimeout, buildAdapters(cfg, rules, media)...)
	generator := content.NewGenerator(buildProvider(cfg), rules, generatorOptions(cfg))

	postRepo := repository.NewPostRepository(db)
	jobRepo := repository.NewScheduledJobRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	store := repository.NewScheduleStore(db, postRepo, jobRepo)

	sched := scheduler.New(store, dispatcher,
		scheduler.WithInterval(cfg.SchedulerTick),
		scheduler.WithGenerator(generator),
	)

	if cfg.SecretKey == "" {
		slog.Warn("SECRET_KEY is empty, stored platform credentials use a weak key")
	}
	validationService := service.NewValidationService(rules)
	postService := service.NewPostService(postRepo, validationService, generator, sched, dispatcher, media)
	platformService := service.NewPlatformService(dispatcher, credentialRepo, cfg.SecretKey)

	if n, err := platformService.Restore(ctx); err != nil {
		slog.Error("restore platform connections", "error", err)
	} else {
		slog.Info("platform connections restored", "count", n)
	}

	if n, err := postService.RecoverInterrupted(ctx); err != nil {
		log.Fatalf("Failed to recover interrupted posts: %v", err)
	} else if n > 0 {
		slog.Info("interrupted posts marked failed", "count", n)
	}
	if _, err := sched.Recover(ctx); err != nil {
		log.Fatalf("Failed to recover scheduled jobs: %v", err)
	}
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    service.MaxVideoSize + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	handlers.Register(app,
		handlers.NewPostHandler(postService, client),
		handlers.NewPlatformHandler(platformService, validationService),
	)

	// cron jobs
	reconnectJob := job.NewReconnectJob(platformService, time.Minute)

	c := cron.New()
	if err := c.AddFunc("@every "+cfg.ReconnectInterval.String(), reconnectJob.Reconnect); err != nil {
		log.Fatalf("Failed to schedule reconnect job: %v", err)
	}
	c.Start()

	//queue
	queueW := queue.NewQueue(postService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})

	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, sched, server, c)
}

func buildAdapters(cfg *config.Config, rules *caption.Rules, media platform.MediaSource) []platform.Adapter {
	base := platform.Options{Media: media, Rules: rules}

	youtubeOpts := platform.YouTubeOptions{
		Options:      base,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
	}

	instagramOpts := base
	instagramOpts.BaseURL = cfg.InstagramAPIURL

	tiktokOpts := platform.TikTokOptions{Options: base}
	tiktokOpts.BaseURL = cfg.TiktokAPIURL

	kawaiOpts := base
	kawaiOpts.BaseURL = cfg.KawaiAPIURL

	return []platform.Adapter{
		platform.NewYouTubeAdapter(youtubeOpts),
		platform.NewInstagramAdapter(instagramOpts),
		platform.NewTikTokAdapter(tiktokOpts),
		platform.NewKawaiAdapter(kawaiOpts),
	}
}

// buildProvider returns nil when no API key is set; the generator then serves fallback content only.
func buildProvider(cfg *config.Config) content.Provider {
	provider, err := content.NewOpenAIProvider(content.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if errors.Is(err, content.ErrProviderUnavailable) {
		slog.Warn("OPENAI_API_KEY is not set, content generation uses fallback content")
		return nil
	}
	if err != nil {
		slog.Error("configure text provider", "error", err)
		return nil
	}
	return provider
}

func generatorOptions(cfg *config.Config) content.Options {
	opts := content.DefaultOptions()
	opts.Model = cfg.OpenAI.Model
	opts.MaxTokens = cfg.OpenAI.MaxTokens
	opts.Temperature = cfg.OpenAI.Temperature
	opts.Timeout = cfg.Content.Timeout
	opts.Retry = content.RetryPolicy{
		MaxRetries: cfg.Content.MaxRetries,
		Backoff:    content.FixedDelay(cfg.Content.RetryDelay),
	}
	return opts
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, sched *scheduler.Scheduler, server *asynq.Server, c *cron.Cron) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	c.Stop()
	sched.Stop()
	server.Shutdown()

	closeDB(db)
	log.Println("Server shutdown complete.")
}
