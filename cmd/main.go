package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/kleverbot/kleverbot-api/internal/auth"
	"github.com/kleverbot/kleverbot-api/internal/config"
	"github.com/kleverbot/kleverbot-api/internal/database"
	"github.com/kleverbot/kleverbot-api/internal/jobs"
	"github.com/kleverbot/kleverbot-api/internal/mailer"
	appmw "github.com/kleverbot/kleverbot-api/internal/middleware"
	"github.com/kleverbot/kleverbot-api/internal/passwordreset"
	"github.com/kleverbot/kleverbot-api/internal/role"
	"github.com/kleverbot/kleverbot-api/internal/user"
)

const (
	tokenIssuer   = "kleverbot-api"
	tokenAudience = "kleverbot-client"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("database: ", err)
	}

	if err := db.AutoMigrate(
		&user.User{},
		&role.Role{},
		&auth.RefreshTokenRecord{},
		&passwordreset.ResetToken{},
	); err != nil {
		log.Fatal("migrate: ", err)
	}

	// Repositories
	userRepo := user.NewRepository(db)
	roleRepo := role.NewRepository(db)
	sessionRepo := auth.NewSessionRepository(db)
	resetRepo := passwordreset.NewRepository(db)

	if err := roleRepo.Seed(); err != nil {
		log.Fatal("seed roles: ", err)
	}

	tokens := auth.NewTokenManager(auth.TokenManagerConfig{
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        tokenIssuer,
		Audience:      tokenAudience,
		Leeway:        cfg.JWTLeeway,
	})

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}

	// Services and handlers
	authService := auth.NewService(userRepo, sessionRepo, tokens, cfg.BcryptCost, cfg.RefreshTTL, cfg.RefreshShortTTL)
	authHandler := auth.NewHandler(authService)
	resetService := passwordreset.NewService(userRepo, resetRepo, sessionRepo, mail, cfg.ResetTokenTTL, cfg.BcryptCost, cfg.FrontendURL)
	resetHandler := passwordreset.NewHandler(resetService)
	userHandler := user.NewHandler(userRepo, roleRepo)

	mw := auth.NewMiddleware(tokens, userRepo)
	limiter := appmw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	appmw.RegisterMetrics()

	identity := func(r *http.Request) (uint, bool) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			return 0, false
		}
		return u.ID, true
	}

	// Router
	r := mux.NewRouter()
	r.Use(appmw.Instrument)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", appmw.MetricsHandler()).Methods("GET")

	// Public auth endpoints, rate limited
	public := r.PathPrefix("/auth").Subrouter()
	public.Use(limiter.Limit)
	public.HandleFunc("/register", authHandler.Register).Methods("POST")
	public.HandleFunc("/login", authHandler.Login).Methods("POST")
	public.HandleFunc("/refresh", authHandler.Refresh).Methods("POST")
	public.HandleFunc("/password-reset/request", resetHandler.Request).Methods("POST")
	public.HandleFunc("/password-reset/confirm", resetHandler.Confirm).Methods("POST")

	// Protected auth endpoints
	protected := r.PathPrefix("/auth").Subrouter()
	protected.Use(mw.Authenticate)
	protected.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/logout-all", authHandler.LogoutAll).Methods("POST")
	protected.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	protected.Handle("/profile", userHandler.UpdateOwnProfile(identity)).Methods("PUT")
	protected.HandleFunc("/sessions", authHandler.Sessions).Methods("GET")

	// Administrative endpoints
	admin := r.PathPrefix("/users").Subrouter()
	admin.Use(mw.Authenticate)
	admin.Handle("", mw.RequireRoles(role.NameAdmin, role.NameSuperAdmin)(http.HandlerFunc(userHandler.List))).Methods("GET")
	admin.Handle("/{id:[0-9]+}", mw.RequireRoles(role.NameAdmin, role.NameSuperAdmin)(http.HandlerFunc(userHandler.Get))).Methods("GET")
	admin.Handle("/{id:[0-9]+}/roles", mw.RequireRoles(role.NameSuperAdmin)(http.HandlerFunc(userHandler.UpdateRoles))).Methods("PUT")

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)

	// Background token cleanup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cleanup := jobs.NewTokenCleanup(sessionRepo, resetRepo, cfg.CleanupInterval)
	go cleanup.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
