package api

import (
	"time"

	"github.com/terraincognita07/rehab360/internal/db"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultStreamTimeout = 2 * time.Minute

type Options struct {
	SecretKey          string
	TokenTTL           time.Duration
	LoginAttemptLimit  int
	LoginAttemptWindow time.Duration
	StreamTimeout      time.Duration
	// Gateway clients; nil means the functions answer 500.
	ChatStreamer services.ChatStreamer
	Completer    services.Completer
	Now          func() time.Time
	Logger       *zap.Logger
}

type Handler struct {
	db            *gorm.DB
	secretKey     []byte
	tokenTTL      time.Duration
	streamTimeout time.Duration
	now           func() time.Time
	logger        *zap.Logger
	loginLimiter  *attemptLimiter

	repositories      *db.Repositories
	authService       *services.AuthService
	logService        *services.LogService
	chatService       *services.ChatService
	predictionService *services.PredictionService
}

func NewHandler(database *gorm.DB, options Options) *Handler {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	tokenTTL := options.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = services.DefaultSessionTokenTTL
	}
	streamTimeout := options.StreamTimeout
	if streamTimeout <= 0 {
		streamTimeout = defaultStreamTimeout
	}

	handler := &Handler{
		db:            database,
		secretKey:     []byte(options.SecretKey),
		tokenTTL:      tokenTTL,
		streamTimeout: streamTimeout,
		now:           now,
		logger:        logger.Named("api"),
		loginLimiter:  newAttemptLimiter(options.LoginAttemptLimit, options.LoginAttemptWindow),
	}
	return handler.withDependencies(database, options)
}

func (handler *Handler) withDependencies(database *gorm.DB, options Options) *Handler {
	handler.repositories = db.NewRepositories(database)
	handler.authService = services.NewAuthService(handler.repositories.Users)
	handler.logService = services.NewLogService(handler.repositories.DailyLogs)
	handler.chatService = services.NewChatService(options.ChatStreamer)
	handler.predictionService = services.NewPredictionService(options.Completer, handler.logger)
	return handler
}
