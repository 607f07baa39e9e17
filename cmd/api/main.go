package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"teamtasks/config"
	_ "teamtasks/docs"
	"teamtasks/internal/adapters/auth"
	"teamtasks/internal/adapters/email"
	delivery "teamtasks/internal/delivery/http"
	"teamtasks/internal/delivery/http/controllers"
	"teamtasks/internal/delivery/http/middleware"
	"teamtasks/internal/repository/postgres"
	"teamtasks/internal/services"
)

// @title TeamTasks API
// @version 1.0
// @description Task tracking with personal and team scopes, email invitations, and membership management.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger("development").Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	teamMemberRepo := postgres.NewTeamMemberRepository(db)
	invitationRepo := postgres.NewTeamInvitationRepository(db)
	taskRepo := postgres.NewTaskRepository(db)

	// Adapters
	hasher := auth.NewBcryptHasher(0)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		logger.Error("failed to parse email templates", "err", err)
		os.Exit(1)
	}

	// Services
	emailService := services.NewEmailService(mailer, renderer)
	authService := services.NewAuthService(userRepo, hasher, issuer, cfg.JWTExpiry)
	teamService := services.NewTeamService(teamRepo, teamMemberRepo, logger, cfg.RequestTimeout)
	invitationService := services.NewInvitationService(invitationRepo, teamRepo, teamMemberRepo, userRepo, emailService, logger, cfg.AtomicInviteAccept, cfg.RequestTimeout)
	taskService := services.NewTaskService(taskRepo, teamService, cfg.RequestTimeout)

	// HTTP
	requireAuth := middleware.RequireAuth(verifier, logger)
	mux := delivery.NewRouter(
		controllers.NewAuthController(logger, authService),
		controllers.NewTeamController(logger, teamService),
		controllers.NewInvitationController(logger, invitationService),
		controllers.NewTaskController(logger, taskService),
		requireAuth,
	)
	handler := middleware.CORS(cfg.CORSOrigins, middleware.LoggingMiddleware(logger, mux))

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
