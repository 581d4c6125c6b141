package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"muzmates/internal/adapter/api"
	"muzmates/internal/adapter/api/handler"
	apimiddleware "muzmates/internal/adapter/api/middleware"
	"muzmates/internal/adapter/api/router"
	"muzmates/internal/adapter/repository"
	"muzmates/internal/domain/entity"
	"muzmates/internal/domain/service"
	"muzmates/internal/infrastructure/cache"
	"muzmates/internal/infrastructure/firebase"
	"muzmates/internal/infrastructure/places"
	"muzmates/internal/infrastructure/ratelimit"
	"muzmates/internal/infrastructure/realtime"
	"muzmates/internal/infrastructure/storage"
	"muzmates/internal/infrastructure/websocket"
	"muzmates/internal/usecase"
	"muzmates/pkg/config"
	"muzmates/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Set(zl)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt, err := credentials(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	firebaseAuthClient, err := firebase.NewFirebaseAuthClient(ctx, authClient, cfg.FirebaseApiKey)
	if err != nil {
		log.Fatalf("Failed to initialize Identity Toolkit: %v", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("Continuing without place cache: %v", err)
		}
	}
	defer cache.DisconnectRedis(rdb)

	var placeService service.PlaceLookupService
	if cfg.GooglePlacesKey != "" {
		placeOpts := []places.Option{}
		if rdb != nil {
			placeOpts = append(placeOpts, places.WithCache(cache.NewJSONCache(rdb, "muzmates:places:")))
		}
		placeService = places.NewClient(cfg.GooglePlacesKey, placeOpts...)
	} else {
		logger.Warn("GOOGLE_PLACES_KEY is not set, place search is disabled")
	}

	userRepo := repository.NewFirestoreUserProfileRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	drafts := usecase.NewDraftStore()
	drafts.OnChange(func(uid string, draft entity.ListingDraft) {
		wsManager.SendToUser(uid, websocket.MessageDraft, draft)
	})
	drafts.OnProgress(func(uid string, pct float64) {
		wsManager.SendToUser(uid, websocket.MessageUploadProgress, websocket.UploadProgress{Target: "listingImages", Progress: pct})
	})

	catalog := usecase.NewCatalogStore(
		repository.NewListingsFeed(firestoreClient),
		repository.NewUsersFeed(firestoreClient),
	)
	catalog.OnChange(func(listings []entity.JoinedListing) {
		wsManager.Broadcast(websocket.MessageListings, listings)
	})

	sessions := usecase.NewSessionManager(drafts, func(uid string) realtime.Source[*entity.UserProfile] {
		return repository.NewProfileFeed(firestoreClient, uid)
	})

	userUseCase := usecase.NewUserUseCase(userRepo, storageClient, cfg.RemoteTimeout, cfg.MaxUploadBytes)
	listingUseCase := usecase.NewListingUseCase(listingRepo, userRepo, storageClient, cfg.RemoteTimeout)
	draftUseCase := usecase.NewDraftUseCase(drafts, storageClient, placeService, cfg.RemoteTimeout, cfg.MaxUploadBytes)
	authUseCase := usecase.NewAuthUseCase(firebaseAuthClient, userUseCase, userRepo, listingRepo, sessions, cfg.RemoteTimeout)

	handler.Setup(authUseCase, userUseCase, listingUseCase, draftUseCase, catalog, func(uid, target string, pct float64) {
		wsManager.SendToUser(uid, websocket.MessageUploadProgress, websocket.UploadProgress{Target: target, Progress: pct})
	})
	handler.SetupHealthHandler(firebaseAuthClient, catalog)
	wsHandler := handler.NewWebSocketHandler(ctx, wsManager, sessions, authUseCase, draftUseCase, catalog)

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultLimits)
	limiter.StartCleanupRoutine(ctx, 10*time.Minute)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	router.Setup(e, authMiddleware, limiter, wsHandler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return catalog.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		catalog.Stop()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped: %v", err)
	}
}

// credentials prefers the service account JSON from the environment and falls back to a file.
func credentials(cfg *config.Config) (option.ClientOption, error) {
	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON)), nil
	}

	path := cfg.FirebaseServiceAccountPath
	if path == "" {
		path = "./serviceAccountKey.json"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New("service account file does not exist: " + path)
	}

	logger.Info("Using Firebase service account from file: %s", path)
	return option.WithCredentialsFile(path), nil
}

// bodyLimit leaves room for five listing images plus form overhead.
func bodyLimit(maxUploadBytes int64) string {
	mb := maxUploadBytes*int64(entity.MaxListingImages)/(1024*1024) + 1
	return strconv.FormatInt(mb, 10) + "M"
}
