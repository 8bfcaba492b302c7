package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"saadSocialAPI/handlers"
	"saadSocialAPI/internal/ai"
	"saadSocialAPI/internal/auth"
	"saadSocialAPI/internal/cache"
	"saadSocialAPI/internal/config"
	"saadSocialAPI/internal/environment"
	"saadSocialAPI/internal/firebaseapp"
	"saadSocialAPI/internal/logger"
	"saadSocialAPI/internal/store"
	"saadSocialAPI/internal/store/firestore"
	"saadSocialAPI/internal/store/memory"
	"saadSocialAPI/internal/store/postgres"
	"saadSocialAPI/middleware"
	"saadSocialAPI/services"

	_ "net/http/pprof"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is not built yet.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.L().Fatal("Server exited", zap.Error(err))
	}
}

// deps is everything the router needs, built once at startup.
type deps struct {
	backend     store.Backend
	provider    auth.Provider
	verifier    auth.Verifier
	advisor     *ai.Advisor
	cache       cache.Cache
	closers     []func()
	firebaseApp *firebase.App
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := &deps{}
	defer d.close()

	if err := d.openBackend(ctx, cfg); err != nil {
		return err
	}
	if err := d.openAuth(ctx, cfg); err != nil {
		return err
	}
	d.openAdvisor(ctx, cfg)
	d.openCache(ctx, cfg)

	dataService := services.NewDataService(d.backend, d.provider)
	liveHub := services.NewLiveHub(dataService, d.advisor)
	d.closers = append(d.closers, liveHub.Close)
	envService := environment.NewService(
		environment.NewClient(environment.DefaultEndpoints(), 10*time.Second),
		d.cache, d.advisor, cfg.EnvironmentCacheTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.InitPrometheus(reg, middleware.LiveGauges{
		Connections: func() float64 { return float64(liveHub.Connections()) },
		Listeners:   func() float64 { return float64(dataService.ActiveListeners()) },
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	if err := limiter.TrustProxies(cfg.TrustedProxies); err != nil {
		return err
	}
	go limiter.CleanupVisitors(ctx)

	r := newRouter(cfg, routerDeps{
		dataService: dataService,
		verifier:    d.verifier,
		advisor:     d.advisor,
		environment: envService,
		liveHub:     liveHub,
		backend:     d.backend,
		limiter:     limiter,
		metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Accept-Language", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port
	server := http.Server{
		Addr:              port,
		Handler:           corsHandler(r),
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: websockets and AI calls are long-lived. Handlers
		// bound their own work with contexts.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("Starting server", zap.String("port", port), zap.String("backend", cfg.Backend), zap.String("auth", cfg.AuthProvider))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "error starting server")
	case <-ctx.Done():
		logger.L().Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	liveHub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("Server shutdown error", zap.Error(err))
	}

	logger.L().Info("Server shutdown complete")
	return nil
}

func (d *deps) app(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	if d.firebaseApp != nil {
		return d.firebaseApp, nil
	}
	app, err := firebaseapp.New(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON, cfg.FirebaseCredentialsFile)
	if err != nil {
		return nil, err
	}
	d.firebaseApp = app
	return app, nil
}

func (d *deps) openBackend(ctx context.Context, cfg *config.Config) error {
	switch cfg.Backend {
	case config.BackendFirestore:
		app, err := d.app(ctx, cfg)
		if err != nil {
			return err
		}
		backend, err := firestore.New(ctx, app)
		if err != nil {
			return err
		}
		d.backend = backend

	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return err
		}
		d.backend = postgres.New(context.Background(), pool)
		logger.L().Info("Successfully connected to Postgres")

	default:
		d.backend = memory.New()
		logger.L().Warn("Using the in-memory backend; data is lost on restart")
	}

	backend := d.backend
	d.closers = append(d.closers, func() {
		logger.L().Info("Closing backend")
		if err := backend.Close(); err != nil {
			logger.L().Warn("Backend close failed", zap.Error(err))
		}
	})
	return nil
}

func openPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return pool, nil
}

func (d *deps) openAuth(ctx context.Context, cfg *config.Config) error {
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		app, err := d.app(ctx, cfg)
		if err != nil {
			return err
		}
		provider, err := auth.NewFirebase(ctx, app, cfg.FirebaseAPIKey)
		if err != nil {
			return err
		}
		d.provider = provider
	default:
		d.provider = auth.NewLocal(cfg.JWTSecret, cfg.TokenTTL)
	}

	d.verifier = d.provider
	if cfg.ClerkSecretKey != "" {
		users := d.backend.Users()
		d.verifier = auth.Chain{d.provider, auth.Provisioned{
			Verifier: auth.NewClerk(cfg.ClerkSecretKey),
			Exists: func(ctx context.Context, id string) (bool, error) {
				_, err := users.Get(ctx, id)
				if errors.Is(err, store.ErrNotFound) {
					return false, nil
				}
				return err == nil, err
			},
		}}
		logger.L().Info("Clerk session tokens accepted")
	}
	return nil
}

func (d *deps) openAdvisor(ctx context.Context, cfg *config.Config) {
	var gen ai.Generator = ai.Disabled{}
	if cfg.GeminiAPIKey != "" {
		g, err := ai.NewGenAI(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.L().Warn("AI client unavailable, advisory features use fallbacks", zap.Error(err))
		} else {
			gen = g
		}
	} else {
		logger.L().Info("GEMINI_API_KEY not set, advisory features use fallbacks")
	}
	d.advisor = ai.NewAdvisor(gen, cfg.AIModel, cfg.AIAssistantModel)
}

func (d *deps) openCache(ctx context.Context, cfg *config.Config) {
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, "saad:")
		if err == nil {
			d.cache = rc
			d.closers = append(d.closers, func() { _ = rc.Close() })
			return
		}
		logger.L().Warn("Redis unavailable, using the in-process cache", zap.Error(err))
	}
	d.cache = cache.NewMemory()
}

type routerDeps struct {
	dataService *services.DataService
	verifier    auth.Verifier
	advisor     *ai.Advisor
	environment *environment.Service
	liveHub     *services.LiveHub
	backend     store.Backend
	limiter     *middleware.RateLimiter
	metrics     http.Handler
}

func newRouter(cfg *config.Config, d routerDeps) *mux.Router {
	authHandler := handlers.NewAuthHandler(d.dataService)
	userHandler := handlers.NewUserHandler(d.dataService)
	feedHandler := handlers.NewFeedHandler(d.dataService, d.advisor)
	messageHandler := handlers.NewMessageHandler(d.dataService, d.advisor)
	assistantHandler := handlers.NewAssistantHandler(d.dataService, d.advisor)
	homeHandler := handlers.NewHomeHandler(d.environment)
	liveHandler := handlers.NewLiveHandler(d.liveHub, cfg.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(d.backend)

	r := mux.NewRouter()
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.MonitorMiddleware)

	// The websocket route skips the rate limiter; a long-lived socket is
	// one request.
	r.Handle("/api/v1/live", middleware.AuthMiddleware(d.verifier)(http.HandlerFunc(liveHandler.Connect))).Methods("GET")

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(d.limiter.Middleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(d.metrics))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))
	standardRouter.HandleFunc("/health", healthHandler.Health).Methods("GET")

	public := standardRouter.PathPrefix("/api/v1").Subrouter()
	public.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	public.HandleFunc("/locale/{lang}", handlers.GetLocale).Methods("GET")

	protected := standardRouter.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.AuthMiddleware(d.verifier))

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/user/friend-requests", userHandler.SendFriendRequest).Methods("POST")
	protected.HandleFunc("/user/friend-requests/{id}/accept", userHandler.AcceptFriendRequest).Methods("POST")
	protected.HandleFunc("/user/friend-requests/{id}/reject", userHandler.RejectFriendRequest).Methods("POST")

	protected.HandleFunc("/posts", feedHandler.CreatePost).Methods("POST")
	protected.HandleFunc("/posts/caption", feedHandler.SuggestCaption).Methods("POST")
	protected.HandleFunc("/posts/{id}/reactions", feedHandler.AddReaction).Methods("POST")
	protected.HandleFunc("/posts/{id}/comments", feedHandler.AddComment).Methods("POST")

	protected.HandleFunc("/messages", messageHandler.SendMessage).Methods("POST")
	protected.HandleFunc("/messages/{peer}/read", messageHandler.MarkRead).Methods("POST")
	protected.HandleFunc("/messages/{peer}/suggestions", messageHandler.Suggestions).Methods("GET")
	protected.HandleFunc("/messages/{peer}/summary", messageHandler.Summary).Methods("GET")

	protected.HandleFunc("/assistant", assistantHandler.Reply).Methods("POST")
	protected.HandleFunc("/assistant/greeting", assistantHandler.Greeting).Methods("GET")

	protected.HandleFunc("/home", homeHandler.GetHome).Methods("GET")

	return r
}
