package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillswap-backend/internal/config"
	"skillswap-backend/internal/handlers"
	"skillswap-backend/internal/push"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/services"
	"skillswap-backend/internal/store"
	"skillswap-backend/internal/usercache"

	"github.com/docopt/docopt-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

const usage = `SkillSwap sync backend.

Usage:
    skillswap [--config=<path>]
    skillswap -h | --help
    skillswap --version

Options:
    -h --help          Show this screen.
    --version          Show version.
    --config=<path>    Configuration file [default: config.yaml].`

func Run() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse arguments")
	}
	configPath, _ := opts.String("--config")

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Open document store
	st, err := openStore(context.Background(), cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}
	defer st.Close()
	log.Info().Str("backend", cfg.Store.Backend).Msg("Store ready")

	// Initialize repositories
	userRepo := repository.NewUserRepository(st)
	credRepo := repository.NewCredentialRepository(st)
	skillRepo := repository.NewSkillRepository(st)
	requestRepo := repository.NewRequestRepository(st)
	chatRepo := repository.NewChatRepository(st)
	ratingRepo := repository.NewRatingRepository(st)

	names := usercache.New(userRepo)
	notifier := newNotifier(cfg.Push, userRepo)

	// Initialize services
	userService := services.NewUserService(userRepo, credRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)
	skillService := services.NewSkillService(st, skillRepo)
	requestService := services.NewRequestService(st, requestRepo, notifier)
	chatService := services.NewChatService(st, chatRepo, names, notifier)
	ratingService := services.NewRatingService(st, ratingRepo)
	mediaService, err := services.NewMediaService(context.Background(), services.MediaConfig{
		Region:     cfg.AWS.Region,
		Bucket:     cfg.AWS.S3Bucket,
		AccessKey:  cfg.AWS.AccessKey,
		SecretKey:  cfg.AWS.SecretKey,
		Endpoint:   cfg.AWS.Endpoint,
		PublicURL:  cfg.AWS.PublicURL,
		DisableSSL: cfg.AWS.DisableSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}
	wsHub := services.NewWSHub()

	// Initialize handlers
	router := handlers.NewRouter(handlers.Handlers{
		User:      handlers.NewUserHandler(userService),
		Skill:     handlers.NewSkillHandler(skillService),
		Request:   handlers.NewRequestHandler(requestService),
		Chat:      handlers.NewChatHandler(chatService),
		Rating:    handlers.NewRatingHandler(ratingService),
		Media:     handlers.NewMediaHandler(mediaService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, userService, skillService, requestService, chatService, ratingService),
	}, userService)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown
	wsHub.Close()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore connects the configured document store backend
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := pgxpool.New(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case config.BackendFirestore:
		return store.NewFirestore(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	default:
		return store.NewMemory(), nil
	}
}

// newNotifier builds the push dispatcher from the enabled providers
func newNotifier(cfg config.PushConfig, users push.UserGetter) push.Notifier {
	var expoSender, apnsSender push.Sender
	if cfg.Expo.Enabled {
		expoSender = push.NewExpoSender(cfg.Expo.Host)
	}
	if cfg.APNs.CertificateFile != "" {
		sender, err := push.NewAPNsSender(cfg.APNs.CertificateFile, cfg.APNs.Password, cfg.APNs.Topic, cfg.APNs.Production)
		if err != nil {
			log.Warn().Err(err).Msg("APNs disabled")
		} else {
			apnsSender = sender
		}
	}

	if expoSender == nil && apnsSender == nil {
		log.Info().Msg("Push notifications disabled")
		return push.Nop{}
	}
	return push.NewDispatcher(users, expoSender, apnsSender)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
