package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	pathwise "github.com/pathwise-edu/pathwise"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := pathwise.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := pathwise.NewZapLogger("pathwise", *debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := pathwise.CreateSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	repo := pathwise.NewRepositoryManager(db)
	repo.MustValidate()

	provider := pathwise.NewUserProvider(repo.Users()).WithLogger(logger)
	auther := pathwise.NewAuthenticator(provider, cfg).WithLogger(logger)

	gdpr := pathwise.NewGDPRService(pathwise.NewSubjectStore(repo)).WithLogger(logger)

	opts := []pathwise.APIControllerOption{
		pathwise.WithRepository(repo),
		pathwise.WithAuthenticator(auther),
		pathwise.WithConfig(cfg),
		pathwise.WithGDPRService(gdpr),
		pathwise.WithControllerLogger(logger),
		pathwise.WithDebug(*debug),
	}

	if cfg.CDN.Bucket != "" {
		uploader, err := pathwise.NewCDNUploader(ctx, cfg.CDN)
		if err != nil {
			log.Fatalf("uploader: %v", err)
		}
		opts = append(opts, pathwise.WithUploader(uploader.WithLogger(logger)))
	}

	controller := pathwise.NewAPIController(opts...)

	app := fiber.New(fiber.Config{
		AppName:      "pathwise",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	controller.RegisterRoutes(app)

	go func() {
		if err := app.Listen(cfg.Server.Address); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	logger.Info("listening on %s", cfg.Server.Address)

	waitExitSignal()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close: %v", err)
	}
}

func waitExitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
