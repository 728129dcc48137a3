package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tryon-platform/server/internal/http/handlers"
	"github.com/tryon-platform/server/internal/http/httpapi"
	"github.com/tryon-platform/server/internal/infra"
	"github.com/tryon-platform/server/internal/providers/cloudinary"
	"github.com/tryon-platform/server/internal/providers/genai"
	"github.com/tryon-platform/server/internal/providers/masterpiece"
	"github.com/tryon-platform/server/internal/providers/pixelcut"
	"github.com/tryon-platform/server/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	db, closeDB, err := infra.NewMongoDatabase(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}

	mp, err := masterpiece.NewClient(masterpiece.Options{
		BaseURL:          cfg.MasterpieceAPIURL,
		APIKey:           cfg.MasterpieceAPIKey,
		AppID:            cfg.MasterpieceAppID,
		Enabled:          cfg.Enable3DGeneration,
		PollInterval:     cfg.MasterpiecePollInterval,
		MaxPollAttempts:  cfg.MasterpieceMaxPollTries,
		RequestTimeout:   cfg.MasterpieceRequestTimeout,
		GeneratePaths:    cfg.MasterpieceGeneratePaths,
		StatusPaths:      cfg.MasterpieceStatusPaths,
		AssetPaths:       cfg.MasterpieceAssetPaths,
		TryAssetUpload:   cfg.MasterpieceTryUpload,
		ForceAssetUpload: cfg.MasterpieceForceUpload,
		Logger:           &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build masterpiece client")
	}
	px, err := pixelcut.NewClient(pixelcut.Options{
		APIKey: cfg.PixelcutAPIKey,
		APIURL: cfg.PixelcutAPIURL,
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pixelcut client")
	}
	cld, err := cloudinary.NewClient(cloudinary.Options{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryFolder,
		Logger:    &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build cloudinary client")
	}
	assistant, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build assistant client")
	}

	app := &handlers.App{
		Config:      cfg,
		Logger:      logger,
		Users:       store.NewUserStore(db),
		Products:    store.NewProductStore(db),
		Categories:  store.NewCategoryStore(db),
		Orders:      store.NewOrderStore(db),
		Coupons:     store.NewCouponStore(db),
		Masterpiece: mp,
		Pixelcut:    px,
		Cloudinary:  cld,
		Assistant:   assistant,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, logger, router)
	server.OnShutdown(closeDB)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
