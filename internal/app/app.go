package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toban/contribhub/internal/config"
	"github.com/toban/contribhub/internal/domain"
	"github.com/toban/contribhub/internal/handler"
	"github.com/toban/contribhub/internal/middleware"
	"github.com/toban/contribhub/internal/repository/postgres"
	"github.com/toban/contribhub/internal/service"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config *config.Config
	db     *pgxpool.Pool
	server *http.Server
	logger *slog.Logger
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	// Инициализируем структурированный логгер (JSON формат)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	app := &App{
		config: cfg,
		logger: logger,
	}

	return app, nil
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настраиваем HTTP сервер и роутинг
	a.setupServer()

	a.logger.Info("Application initialized successfully")
	return nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer() {
	// Инициализируем слой репозиториев (работа с БД)
	teamRepo := postgres.NewTeamRepository(a.db)
	memberRepo := postgres.NewMemberRepository(a.db)
	integrationRepo := postgres.NewIntegrationRepository(a.db)

	// Инициализируем слой сервисов (бизнес-логика)
	gate := service.NewPermissionGate()
	guard := service.NewTeamGuard(memberRepo)
	inviter := service.NewLogInvitationSender(a.logger)
	authService := service.NewAuthService(a.config.JWT.Secret, a.config.JWT.GetExpiration())
	teamService := service.NewTeamService(teamRepo, memberRepo, guard, a.logger)
	memberService := service.NewMemberService(teamRepo, memberRepo, gate, guard, inviter, a.logger)

	slackOAuth := service.NewSlackOAuthClient(a.config.Slack.ClientID, a.config.Slack.ClientSecret)
	listers := map[domain.IntegrationType]service.ResourceLister{
		domain.IntegrationSlack: service.NewSlackResourceClient(),
	}
	integrationService := service.NewIntegrationService(integrationRepo, teamRepo, guard, slackOAuth, listers, a.logger)
	statsService := service.NewStatsService(a.db)

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService)
	teamHandler := handler.NewTeamHandler(teamService)
	memberHandler := handler.NewMemberHandler(memberService)
	integrationHandler := handler.NewIntegrationHandler(integrationService)
	statsHandler := handler.NewStatsHandler(statsService)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(authService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Публичные эндпоинты (без авторизации)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
	})

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			a.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		// Эндпоинты команд и участников
		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)
			r.Get("/", teamHandler.ListTeams)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", teamHandler.GetTeam)
				r.Patch("/", teamHandler.UpdateTeam)
				r.Get("/stats", statsHandler.GetTeamStats)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", memberHandler.ListMembers)
					r.Post("/", memberHandler.AddMember)
					r.Get("/{memberID}", memberHandler.GetMember)
					r.Patch("/{memberID}", memberHandler.UpdateMember)
					r.Delete("/{memberID}", memberHandler.RemoveMember)
					r.Post("/{memberID}/resend-invitation", memberHandler.ResendInvitation)
				})

				r.Route("/integrations", func(r chi.Router) {
					r.Post("/", integrationHandler.CreateIntegration)
					r.Get("/", integrationHandler.ListIntegrations)
				})
			})
		})

		// Эндпоинты интеграций
		r.Route("/integrations/{integrationID}", func(r chi.Router) {
			r.Get("/", integrationHandler.GetIntegration)
			r.Patch("/", integrationHandler.UpdateIntegration)
			r.Get("/shares", integrationHandler.ListShares)
			r.Post("/shares", integrationHandler.ShareIntegration)
			r.Delete("/shares/{teamID}", integrationHandler.UnshareIntegration)
			r.Get("/resources", integrationHandler.ListResources)
			r.Post("/resources/sync", integrationHandler.SyncResources)
			r.Post("/resources/{resourceID}/access", integrationHandler.GrantResourceAccess)
			r.Get("/events", integrationHandler.ListEvents)
		})

		// Эндпоинты статистики
		r.Get("/stats", statsHandler.GetStats)
	})

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	// Закрываем подключения к базе данных
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}
