package bootstrap

import (
	"context"
	"log"

	"bi-ops-be/internal/config"
	"bi-ops-be/internal/constant"
	"bi-ops-be/internal/controller"
	"bi-ops-be/internal/pkg/logger"
	"bi-ops-be/internal/pkg/mailer"
	"bi-ops-be/internal/repository/memory"
	"bi-ops-be/internal/repository/unitofwork"
	"bi-ops-be/internal/service"
	"bi-ops-be/internal/websocket"
	"bi-ops-be/pkg/analyst/gemini"
	"bi-ops-be/pkg/ingest"

	pktNats "bi-ops-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	ChatController      controller.IChatController
	WorkspaceController controller.IWorkspaceController

	// Background Services (Exposed for main.go to run)
	FeedService service.IFeedService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/feed.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Domain components
	collaborator := gemini.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.GeminiModel)
	log.Printf("[INFO] Using analyst collaborator: GEMINI (%s)", cfg.Ai.GeminiModel)

	stateRepo := memory.NewStateRepository()
	normalizer := ingest.NewNormalizer(func(format string, args ...interface{}) {
		log.Printf(format, args...)
	})

	publisherService := service.NewPublisherService(constant.FeedTopic, pubSub)
	feedService := service.NewFeedService(pubSub, constant.FeedTopic, wsHub, wsLogger)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	workspaceService := service.NewWorkspaceService(uowFactory, normalizer, stateRepo, publisherService, natsPub, sysLogger)
	analystService := service.NewAnalystService(uowFactory, collaborator, stateRepo, publisherService, natsPub, sysLogger)

	// 4. Controllers
	return &Container{
		AuthController:      controller.NewAuthController(authService),
		ChatController:      controller.NewChatController(analystService, wsHub, sysLogger),
		WorkspaceController: controller.NewWorkspaceController(workspaceService),

		FeedService:  feedService,
		WebSocketHub: wsHub,
	}
}
