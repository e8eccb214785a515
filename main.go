package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hrms/config"
	"hrms/database"
	"hrms/metrics"
	"hrms/middleware"
	"hrms/routers"
	"hrms/services"
	"hrms/services/dispatch"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logOutput tees the log to a rotating file when LOG_FILE is set
func logOutput(cfg *config.Config) io.Writer {
	if cfg.LogFile == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	})
}

func main() {
	config.LoadConfig()
	out := logOutput(config.AppConfig)
	log.SetOutput(out)

	database.ConnectDb()
	db := database.Database.Db

	if err := services.EnsureSuperAdmin(db, config.AppConfig.SuperAdminEmail, config.AppConfig.SuperAdminPassword, config.AppConfig.SaltRound); err != nil {
		log.Fatalf("Failed to bootstrap super admin: %v", err)
	}
	services.Init(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go services.App.Dispatcher.Run(ctx)
	scheduler, err := dispatch.StartScheduler(ctx, services.App.Jobs()...)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    config.AppConfig.MaxUploadBytes + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		Output: out,
	}))
	app.Use(metrics.Middleware())

	// Uploaded documents are served read-only
	app.Static("/uploads", config.AppConfig.UploadDir, fiber.Static{Browse: false})

	routers.SetupRoutes(app)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	if err := app.Listen(":" + config.AppConfig.Port); err != nil {
		log.Printf("Server stopped: %v", err)
	}

	<-scheduler.Stop().Done()
	services.App.Close()
}
