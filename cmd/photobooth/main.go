package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/booth"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/configuration"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/gallery"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/home"
	"github.com/adampresley/photostrip/cmd/photobooth/internal/thumbnails"
	"github.com/adampresley/photostrip/pkg/capture"
	"github.com/adampresley/photostrip/pkg/catalog"
	"github.com/adampresley/photostrip/pkg/compositor"
	"github.com/adampresley/photostrip/pkg/models"
	"github.com/adampresley/photostrip/pkg/photobooth"
	"github.com/adampresley/photostrip/pkg/services"
	"github.com/rfberaldo/sqlz"
)

var (
	Version string = "development"
	appName string = "photostrip"

	//go:embed app
	appFS embed.FS

	config configuration.Config

	/* Services */
	blobService      services.BlobServicer
	catalogs         catalog.Catalogs
	db               *sqlz.DB
	photoBooth       *photobooth.Booth
	renderer         rendering.TemplateRenderer
	storageService   services.StorageService
	stripService     services.StripServicer
	thumbnailCreator thumbnails.ThumbnailCreator

	/* Controllers */
	boothController   booth.BoothHandlers
	galleryController gallery.GalleryHandlers
	homeController    home.HomeHandlers
)

func main() {
	var (
		err error
	)

	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("camera", config.CameraKind),
		slog.String("awsEndpointUrl", config.AwsEndpointUrl),
		slog.String("awsRegion", config.AwsRegion),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	if db, err = services.Connect(config.DSN); err != nil {
		panic(err)
	}

	if err = services.MigrateDatabase(db); err != nil {
		panic(err)
	}

	if catalogs, err = catalog.Load(config.CatalogFile); err != nil {
		panic(err)
	}

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	s3Client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	renderer, err = rendering.NewGoTemplateRenderer(rendering.GoTemplateRendererConfig{
		TemplateDir:       "app",
		TemplateExtension: ".html",
		TemplateFS:        appFS,
		PagesDir:          "pages",
	})

	if err != nil {
		panic(err)
	}

	blobService = services.NewBlobService(services.BlobServiceConfig{
		Bucket:   config.AwsBucket,
		Region:   config.AwsRegion,
		S3Client: s3Client,
	})

	retrier.Retry(func() error {
		if err = blobService.EnsureBucket(); err != nil {
			slog.Error("failed to ensure bucket exists. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		panic(err)
	}

	stripService = services.NewStripService(services.StripServiceConfig{
		DB: db,
	})

	storageService = services.NewStorageService(services.StorageServiceConfig{
		BlobService:   blobService,
		Folder:        config.StripsFolder,
		RetentionDays: config.RetentionDays,
		StripService:  stripService,
	})

	thumbnailCreator = thumbnails.NewThumbnailCreatorService(thumbnails.ThumbnailCreatorConfig{
		BlobService:  blobService,
		KeyFunc:      storageService.ThumbnailKey,
		MaxWorkers:   config.MaxThumbnailWorkers,
		ShutdownCtx:  shutdownCtx,
		StripService: stripService,
	})

	photoBooth = photobooth.NewBooth(photobooth.BoothConfig{
		Catalogs: catalogs,
		Composer: compositor.NewStripCompositor(compositor.CompositorConfig{
			Format:  compositor.Format(config.OutputFormat),
			Logger:  slog.Default(),
			Quality: config.OutputQuality,
		}),
		Logger:  slog.Default(),
		OnSaved: thumbnailCreator.CreateFor,
		Session: capture.SessionConfig{
			Countdown:      config.CountdownSeconds,
			Device:         setupCamera(&config),
			DeviceID:       config.DeviceID,
			FacingMode:     models.FacingMode(config.FacingMode),
			InterShotPause: time.Duration(config.InterShotPauseMs) * time.Millisecond,
			TickInterval:   time.Duration(config.TickIntervalMs) * time.Millisecond,
		},
		Storage: storageService,
	})

	/*
	 * Setup controllers
	 */
	boothController = booth.NewBoothController(booth.BoothControllerConfig{
		Booth:          photoBooth,
		DownloadPrefix: config.DownloadPrefix,
	})

	galleryController = gallery.NewGalleryController(gallery.GalleryControllerConfig{
		DownloadPrefix: config.DownloadPrefix,
		StorageService: storageService,
	})

	homeController = home.NewHomeController(home.HomeControllerConfig{
		Booth:          photoBooth,
		Catalogs:       catalogs,
		Renderer:       renderer,
		StorageService: storageService,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	operatorMiddleware := newOperatorTokenMiddleware(config.OperatorToken)

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "GET /", HandlerFunc: homeController.BoothPage},
		{Path: "GET /gallery", HandlerFunc: homeController.GalleryPage},
		{Path: "GET /api/catalog", HandlerFunc: boothController.Catalog},
		{Path: "GET /api/session", HandlerFunc: boothController.Status},
		{Path: "POST /api/session/start", HandlerFunc: boothController.Start},
		{Path: "POST /api/session/cancel", HandlerFunc: boothController.Cancel},
		{Path: "POST /api/session/retake", HandlerFunc: boothController.Retake},
		{Path: "PUT /api/session/facing", HandlerFunc: boothController.SetFacingMode},
		{Path: "POST /api/session/recompose", HandlerFunc: boothController.Recompose},
		{Path: "GET /api/session/strip", HandlerFunc: boothController.Strip},
		{Path: "POST /api/session/save", HandlerFunc: boothController.Save},
		{Path: "GET /api/strips", HandlerFunc: galleryController.List},
		{Path: "GET /api/strips/stats", HandlerFunc: galleryController.Stats},
		{Path: "GET /api/strips/export", HandlerFunc: galleryController.Export, Middlewares: []mux.MiddlewareFunc{operatorMiddleware}},
		{Path: "GET /api/strips/{id}/download", HandlerFunc: galleryController.Download},
		{Path: "GET /api/strips/{id}/thumbnail", HandlerFunc: galleryController.Thumbnail},
		{Path: "PUT /api/strips/{id}/title", HandlerFunc: galleryController.UpdateTitle, Middlewares: []mux.MiddlewareFunc{operatorMiddleware}},
		{Path: "DELETE /api/strips/{id}", HandlerFunc: galleryController.Delete, Middlewares: []mux.MiddlewareFunc{operatorMiddleware}},
	}

	routerConfig := mux.RouterConfig{
		Address:              config.Host,
		Debug:                Version == "development",
		ServeStaticContent:   true,
		StaticContentRootDir: "app",
		StaticContentPrefix:  "/static/",
		StaticFS:             appFS,
		HttpWriteTimeout:     60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the strip retention job
	 */
	storageService.StartCleanupRoutine(24 * time.Hour)
	defer storageService.StopCleanupRoutine()

	/*
	 * Start the thumbnail job
	 */
	setupThumbnailCreator(shutdownCtx)

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)

	if err = photoBooth.Close(); err != nil {
		slog.Error("error closing booth", "error", err)
	}

	thumbnailCreator.Shutdown()
	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

func setupThumbnailCreator(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		running := true

		runner := func() {
			defer func() {
				running = false
			}()

			thumbnailCreator.CreateThumbnails()
		}

		runner()

		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return

			case <-ticker.C:
				if running {
					slog.Info("thumbnail creator already running. skipping...")
					continue
				}

				running = true
				runner()
			}
		}
	}()
}
