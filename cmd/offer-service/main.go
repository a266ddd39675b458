// cmd/offer-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"

	"haggle/internal/pkg/bootstrap"
	"haggle/internal/pkg/logger"
	"haggle/internal/pkg/mq"
	"haggle/internal/pkg/redis"
	"haggle/internal/service/negotiation/application"
	"haggle/internal/service/negotiation/infrastructure"
	"haggle/internal/service/negotiation/infrastructure/adapter"
	"haggle/internal/service/negotiation/interfaces"
)

const serviceName = "offer-service"

// main is the composition root: build every dependency, wire the engine,
// hand lifecycle to bootstrap.
func main() {
	if err := bootstrap.Init(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.OpenMysql(cfg.Infra.Mysql.DSN)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	store := infrastructure.NewGormOfferStore(db)

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	cache := adapter.NewCacheRedisAdapter(redisClient)

	writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.NotificationTopic)
	notifier := adapter.NewNotificationKafkaAdapter(writer)

	activity, err := adapter.NewActivityMongoAdapter(cfg.Infra.Mongo.URI, cfg.Infra.Mongo.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mongo")
	}

	service := application.NewNegotiationService(
		store, notifier, cache, cache, activity, otel.Tracer(serviceName),
	)
	handler := interfaces.NewNegotiationHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: []func(ctx context.Context){
			func(context.Context) {
				if err := notifier.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing kafka writer")
				}
			},
			func(ctx context.Context) {
				if err := activity.Close(ctx); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing mongo client")
				}
			},
			func(context.Context) {
				if err := redisClient.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing redis client")
				}
			},
		},
	})
}
