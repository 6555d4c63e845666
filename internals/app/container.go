package app

import (
	"context"

	"pulsemon/config"
	middle "pulsemon/internals/middleware"
	"pulsemon/internals/modules/alert"
	"pulsemon/internals/modules/auth"
	"pulsemon/internals/modules/evaluator"
	"pulsemon/internals/modules/events"
	"pulsemon/internals/modules/heartbeat"
	"pulsemon/internals/modules/monitor"
	"pulsemon/internals/modules/notifier"
	"pulsemon/internals/security"
	"pulsemon/pkg/rabbitmq"
	"pulsemon/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	Logger      *zerolog.Logger
	RedisClient *redisstore.Client
	AMQPConn    *amqp091.Connection

	Evaluator *evaluator.Evaluator
	AlertSvc  *alert.AlertService

	eventsPub        *events.Publisher
	monitorHandler   *monitor.Handler
	heartbeatHandler *heartbeat.Handler
	authHandler      *auth.Handler
	authMW           *middle.AuthMiddleware
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	validate := validator.New()

	// optional status overview cache
	var redisClient *redisstore.Client
	var cache monitor.Cache
	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		rc, err := redisstore.New(cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = rc
		cache = rc
		logger.Info().Msg("status overview cache enabled")
	}

	// optional transition event publishing
	var amqpConn *amqp091.Connection
	var eventsPub *events.Publisher
	var eventsSink alert.Events
	if cfg.RabbitMQ != nil && cfg.RabbitMQ.BrokerLink != "" {
		conn, err := rabbitmq.NewConnection(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		if err := rabbitmq.SetupTopology(conn, cfg.RabbitMQ); err != nil {
			return nil, err
		}
		pub, err := events.NewPublisher(conn, cfg.RabbitMQ, logger)
		if err != nil {
			return nil, err
		}
		amqpConn = conn
		eventsPub = pub
		eventsSink = pub
		logger.Info().Msg("transition event publishing enabled")
	}

	monitorRepo := monitor.NewRepository(db, logger)
	webhook := notifier.NewWebhookNotifier(cfg.Notifier, logger)

	alertChan := make(chan monitor.Transition, cfg.Notifier.ChannelSize)
	alertSvc := alert.NewAlertService(ctx, cfg.Notifier.WorkerCount, alertChan, webhook, eventsSink, cache, logger)

	heartbeatSvc := heartbeat.NewService(monitorRepo, alertSvc, logger)
	eval := evaluator.New(ctx, cfg.Worker, monitorRepo, alertSvc, logger)

	monitorSvc := monitor.NewService(monitorRepo, cache, logger)
	tokenSvc := security.NewTokenService(cfg.Auth)

	monitorHandler := monitor.NewHandler(monitorSvc, validate)
	heartbeatHandler := heartbeat.NewHandler(heartbeatSvc, logger)
	authHandler := auth.NewHandler(cfg.Auth, tokenSvc, validate, logger)

	authMW := middle.NewAuthMiddleware(tokenSvc)

	return &Container{
		DB:               db,
		Logger:           logger,
		RedisClient:      redisClient,
		AMQPConn:         amqpConn,
		Evaluator:        eval,
		AlertSvc:         alertSvc,
		eventsPub:        eventsPub,
		monitorHandler:   monitorHandler,
		heartbeatHandler: heartbeatHandler,
		authHandler:      authHandler,
		authMW:           authMW,
	}, nil
}

// Shutdown drains the alert workers and closes the optional infra. Call
// only after the HTTP server and the evaluator have stopped, they are
// the only producers of alert events.
func (c *Container) Shutdown() error {
	c.AlertSvc.Stop()

	if c.eventsPub != nil {
		if err := c.eventsPub.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}
	if c.AMQPConn != nil {
		if err := c.AMQPConn.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("failed to close rabbitmq connection")
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}

	return nil
}
