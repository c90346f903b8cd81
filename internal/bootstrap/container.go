package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"studyroom-be/internal/config"
	"studyroom-be/internal/controller"
	"studyroom-be/internal/handler"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/internal/pkg/metrics"
	"studyroom-be/internal/repository/contract"
	"studyroom-be/internal/repository/implementation"
	"studyroom-be/internal/repository/memory"
	"studyroom-be/internal/repository/unitofwork"
	"studyroom-be/internal/service"
	"studyroom-be/internal/websocket"

	pktNats "studyroom-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	SystemController controller.ISystemController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService // nil without NATS

	// WebSockets & Realtime
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub

	AuthService     service.IAuthService
	MetricsRegistry *prometheus.Registry
	Logger          logger.ILogger

	closers []func()
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)

	store, err := implementation.NewJSONDocumentStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	if err := implementation.InitializeCollections(context.Background(), store); err != nil {
		return nil, fmt.Errorf("initialize collections: %w", err)
	}
	uowFactory := unitofwork.NewRepositoryFactory(store, cfg.Realtime.SerializeMutations)
	if !uowFactory.UnitOfWork().Serialized() {
		sysLogger.Warn("Bootstrap", "Mutation serialization disabled, concurrent writes to one collection may lose updates", nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	realtimeMetrics := metrics.NewRealtime(registry)

	c := &Container{
		MetricsRegistry: registry,
		Logger:          sysLogger,
	}
	c.closers = append(c.closers, func() {
		sysLogger.Sync()
		wsLogger.Sync()
	})

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 2.5 Infrastructure
	// NATS (optional)
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.Messaging.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.Messaging.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.Messaging.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// Login attempts: Redis when configured, process memory otherwise
	var attempts contract.LoginAttemptRepository = memory.NewLoginAttemptRepository()
	if cfg.Messaging.RedisURL != "" {
		if rdb := connectRedis(cfg.Messaging.RedisURL); rdb != nil {
			attempts = implementation.NewLoginAttemptRedisRepository(rdb, "")
			c.closers = append(c.closers, func() { rdb.Close() })
		}
	}

	// 3. Services
	snapshotService := service.NewSnapshotService(uowFactory)
	systemInfoService := service.NewSystemInfoService()
	authService := service.NewAuthService(cfg.Security, attempts, sysLogger)

	// WebSocket Hub
	wsHub := websocket.NewHub(websocket.HubConfig{
		PingInterval:    cfg.Realtime.PingInterval,
		MaxMissedPings:  cfg.Realtime.MaxMissedPings,
		StatusInterval:  cfg.Realtime.StatusInterval,
		MaxPayloadBytes: cfg.Realtime.MaxPayloadBytes,
		MaxConnections:  cfg.Realtime.MaxConnections,
		SendBufferSize:  cfg.Realtime.SendBufferSize,
		MessageRate:     cfg.Realtime.MessageRate,
		MessageBurst:    cfg.Realtime.MessageBurst,
	}, snapshotService, systemInfoService, wsLogger, realtimeMetrics)

	publisherService := service.NewPublisherService(cfg.Messaging.EventTopic, pubSub)

	var outlet service.EventPublisher
	if natsPub != nil {
		outlet = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, cfg.Messaging.EventTopic, outlet, sysLogger)

	syncService := service.NewSyncService(uowFactory, wsHub, publisherService, wsLogger, realtimeMetrics, service.SyncServiceConfig{
		MaxPayloadBytes:  cfg.Realtime.MaxPayloadBytes,
		ChatHistoryLimit: cfg.Realtime.ChatHistoryLimit,
	})

	// 3.5 Announcements
	if natsSub != nil {
		c.NotificationService = service.NewNotificationService(natsSub, wsHub, wsLogger)
	}

	// 4. Handlers & Controllers
	c.RealtimeHandler = handler.NewRealtimeHandler(wsHub, syncService, authService, cfg.Security.CookieName, outlet, wsLogger)
	c.WebSocketHub = wsHub
	c.AuthService = authService
	c.AuthController = controller.NewAuthController(authService, cfg, sysLogger)
	c.SystemController = controller.NewSystemController(cfg, wsHub, systemInfoService)
	c.ConsumerService = consumerService

	return c, nil
}

func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Using in-memory login attempts", err)
		rdb.Close()
		return nil
	}
	return rdb
}

// Start runs the background workers: the hub's periodic tasks, the event
// consumer and, with NATS, the announcement relay.
func (c *Container) Start(ctx context.Context) error {
	c.WebSocketHub.Start(ctx)

	if err := c.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start event consumer: %w", err)
	}
	if c.NotificationService != nil {
		if err := c.NotificationService.Start(ctx); err != nil {
			c.Logger.Warn("Bootstrap", "Announcements disabled", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close stops the hub and releases external connections.
func (c *Container) Close() {
	c.WebSocketHub.Stop()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
