package wire

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/casino-engine/cards"
	"github.com/Digital-Creators-Team/casino-engine/coin"
	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/db/redis"
	"github.com/Digital-Creators-Team/casino-engine/events/kafka"
	"github.com/Digital-Creators-Team/casino-engine/game"
	"github.com/Digital-Creators-Team/casino-engine/logging"
	"github.com/Digital-Creators-Team/casino-engine/missions"
	"github.com/Digital-Creators-Team/casino-engine/pkg/feed"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/provider"
	"github.com/Digital-Creators-Team/casino-engine/reconcile"
	"github.com/Digital-Creators-Team/casino-engine/server"
	"github.com/Digital-Creators-Team/casino-engine/session"
	"github.com/Digital-Creators-Team/casino-engine/slot"
	"github.com/Digital-Creators-Team/casino-engine/wheel"
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DevHouseBalance funds the in-memory house wallet when no payment service is configured.
var DevHouseBalance = decimal.NewFromInt(1000)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRegistry registers every single-player game.
func ProvideRegistry() *game.Registry {
	r := game.NewRegistry()
	r.Register(game.KindSlots, slot.New)
	r.Register(game.KindCoinFlip, coin.New)
	r.Register(game.KindWheel, wheel.New)
	r.Register(game.KindCardDuel, cards.New)
	return r
}

// ProvideModules builds the registered modules from config.
func ProvideModules(r *game.Registry, cfg *config.Config) (map[game.Kind]game.Module, error) {
	return r.Build(cfg)
}

// ProvideRedisClient provides a Redis client, or nil when no address is configured.
func ProvideRedisClient(cfg *config.Config, logger zerolog.Logger) (*redis.Client, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Warn().Msg("redis not configured, keeping state in memory")
		return nil, func() {}, nil
	}
	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func ProvideStateProvider(cfg *config.Config, rc *redis.Client, logger zerolog.Logger) providers.StateProvider {
	if rc == nil {
		return provider.NewMemoryStateProvider()
	}
	return provider.NewRedisStateProvider(rc, cfg.Redis.StateTTL, logger)
}

func ProvideRoundLocker(rc *redis.Client, logger zerolog.Logger) providers.RoundLocker {
	if rc == nil {
		return provider.NewMemoryLocker()
	}
	return provider.NewRedisLocker(rc, logger)
}

func ProvideLeaderboard(rc *redis.Client, logger zerolog.Logger) providers.Leaderboard {
	if rc == nil {
		return provider.NewMemoryLeaderboard()
	}
	return provider.NewRedisLeaderboard(rc, logger)
}

func ProvideMissionStore(cfg *config.Config, rc *redis.Client) missions.Store {
	if rc == nil {
		return missions.NewMemoryStore()
	}
	return provider.NewRedisMissionStore(rc, cfg.Redis.StateTTL)
}

// ProvideKafkaProducer returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config, logger zerolog.Logger) (*kafka.Producer, func()) {
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Logger:  logger,
	})
	if producer == nil {
		return nil, func() {}
	}
	return producer, func() { _ = producer.Close() }
}

func ProvideLogProvider(cfg *config.Config, producer *kafka.Producer, logger zerolog.Logger) providers.LogProvider {
	if producer == nil && cfg.LogService.BaseURL == "" {
		return provider.NewMemoryLogProvider()
	}
	return provider.NewKafkaLogProvider(cfg, producer, logger)
}

// ProvidePayment talks to the payment service, or keeps an in-memory ledger
// outside production when none is configured.
func ProvidePayment(cfg *config.Config, logger zerolog.Logger) (providers.PaymentProvider, error) {
	if cfg.Payment.BaseURL != "" {
		return provider.NewHTTPPaymentProvider(cfg.Payment, logger), nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("payment.base_url is required in production")
	}
	logger.Warn().Msg("payment service not configured, using in-memory wallets")
	return provider.NewMemoryPaymentProvider(cfg.Payment.HouseAccount, DevHouseBalance), nil
}

// ProvideFeed provides the live results feed.
func ProvideFeed(logger zerolog.Logger) (*feed.Service, func()) {
	svc := feed.NewService(feed.Config{Logger: logger})
	return svc, svc.Stop
}

// ProvideResultPublisher publishes to Kafka and consumes the topic back into
// the feed, so every replica's feed sees every result. Without brokers the
// feed is the publisher.
func ProvideResultPublisher(cfg *config.Config, producer *kafka.Producer, f *feed.Service, logger zerolog.Logger) (providers.ResultPublisher, func()) {
	if producer == nil {
		return f, func() {}
	}
	topic := cfg.Kafka.Topic("results", "casino.results")
	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         topic,
		ConsumerGroup: cfg.Kafka.ConsumerGroup + "-feed",
		Logger:        logger,
	}, f.Handle)
	consumer.Start()
	return provider.NewKafkaResultPublisher(producer, topic), func() { _ = consumer.Stop() }
}

// ProvideUnpaidStore uses Postgres when a DSN is configured.
func ProvideUnpaidStore(cfg *config.Config, logger zerolog.Logger) (reconcile.Store, func(), error) {
	if cfg.Postgres.DSN == "" {
		return reconcile.NewMemoryStore(), func() {}, nil
	}
	store, err := reconcile.NewPostgresStore(context.Background(), cfg.Postgres.DSN, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func ProvideTracker(cfg *config.Config, store missions.Store, payment providers.PaymentProvider, logger zerolog.Logger) (*missions.Tracker, error) {
	ms, err := missions.FromConfig(cfg.Missions)
	if err != nil {
		return nil, err
	}
	return missions.NewTracker(ms, store, payment, cfg.Payment.HouseAccount, logger), nil
}

func ProvideSession(
	cfg *config.Config,
	modules map[game.Kind]game.Module,
	states providers.StateProvider,
	payment providers.PaymentProvider,
	locker providers.RoundLocker,
	logs providers.LogProvider,
	publisher providers.ResultPublisher,
	board providers.Leaderboard,
	tracker *missions.Tracker,
	unpaid reconcile.Store,
	logger zerolog.Logger,
) *session.Service {
	return session.NewService(cfg, modules, states, payment, locker, logs, publisher, board, tracker, unpaid, logger)
}

// ProvideRecovery builds a session that only clears stranded rounds. It
// never moves money, so payments and events stay unwired.
func ProvideRecovery(
	cfg *config.Config,
	modules map[game.Kind]game.Module,
	states providers.StateProvider,
	locker providers.RoundLocker,
	unpaid reconcile.Store,
	logger zerolog.Logger,
) *session.Service {
	return session.NewService(cfg, modules, states, nil, locker, nil, nil, nil, nil, unpaid, logger)
}

// ProvideServerOptions provides server options
func ProvideServerOptions(
	cfg *config.Config,
	logger zerolog.Logger,
	svc *session.Service,
	f *feed.Service,
	payment providers.PaymentProvider,
	unpaid reconcile.Store,
) server.Options {
	return server.Options{
		Config:  cfg,
		Logger:  logger,
		Session: svc,
		Feed:    f,
		Payment: payment,
		Unpaid:  unpaid,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// GameSet builds the game modules
var GameSet = wire.NewSet(
	ProvideRegistry,
	ProvideModules,
)

// RedisSet is the wire provider set for Redis-backed (or in-memory) stores
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideStateProvider,
	ProvideRoundLocker,
	ProvideLeaderboard,
	ProvideMissionStore,
)

// EventsSet wires Kafka auditing and the results feed
var EventsSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideLogProvider,
	ProvideFeed,
	ProvideResultPublisher,
)

// SessionSet wires payments, missions, reconciliation and the session
var SessionSet = wire.NewSet(
	ProvidePayment,
	ProvideUnpaidStore,
	ProvideTracker,
	ProvideSession,
)

// RecoverySet wires the operator round recovery
var RecoverySet = wire.NewSet(
	LoggingSet,
	GameSet,
	ProvideRedisClient,
	ProvideStateProvider,
	ProvideRoundLocker,
	ProvideUnpaidStore,
	ProvideRecovery,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// FullSet includes every provider the HTTP service needs
var FullSet = wire.NewSet(
	LoggingSet,
	GameSet,
	RedisSet,
	EventsSet,
	SessionSet,
	ServerSet,
)
