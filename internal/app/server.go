// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"neusentra-service/internal/config"
	"neusentra-service/internal/db"
	authHandler "neusentra-service/internal/handlers/auth"
	eventsHandler "neusentra-service/internal/handlers/events"
	"neusentra-service/internal/middleware"
	"neusentra-service/internal/pkg/session"
	"neusentra-service/internal/pkg/token"
	"neusentra-service/internal/repository/postgres"
	auditUsecase "neusentra-service/internal/service/audit"
	authUsecase "neusentra-service/internal/service/auth"
	"neusentra-service/internal/sse"
	"neusentra-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	gateway *sse.Gateway
	emitter *sse.Emitter
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisCfg := db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	}

	redisClient, err := db.NewRedisClient(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- Token Service -----
	tokenService := token.NewService(
		s.cfg.JWT.Issuer,
		token.AccessPolicy(s.cfg.JWT.AccessSecret, s.cfg.JWT.AccessExpiry),
		token.RefreshPolicy(s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshExpiry),
	)

	// ----- Session Cache -----
	sessionStore := session.NewStore(redisClient)

	// ----- Repositories -----
	authRepo := postgres.NewAuthRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// ----- Event Gateway -----
	gateway := sse.NewGateway(logger)
	emitter := sse.NewEmitter(gateway, logger)
	s.gateway = gateway
	s.emitter = emitter

	bridge := websocket.NewBridge(gateway, logger)

	// ----- Services -----
	auditService := auditUsecase.NewService(auditRepo, logger)
	authService := authUsecase.NewService(
		authRepo,
		tokenService,
		sessionStore,
		auditService,
		emitter,
		logger,
		s.cfg.BcryptCost,
	)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, s.cfg.JWT.RefreshExpiry, logger)
	eventsHandlerInst := eventsHandler.NewEventsHandler(gateway, emitter, bridge, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:    authHandlerInst,
		EventsHandler:  eventsHandlerInst,
		AuthMiddleware: authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown stops the background event machinery. The HTTP listener dies
// with the process.
func (s *Server) Shutdown() {
	if s.emitter != nil {
		s.emitter.Close()
	}
	if s.gateway != nil {
		s.gateway.Shutdown()
	}
	if s.logger != nil {
		s.logger.Sync()
	}
}
