// Package app wires configuration into the stores, providers and services
// shared by the api and worker processes.
package app

import (
	"context"
	"fmt"
	"strings"

	"asset-ledger/config"
	httpHandler "asset-ledger/internal/adapter/http/handler"
	"asset-ledger/internal/adapter/http/middleware"
	"asset-ledger/internal/adapter/messaging/kafka"
	"asset-ledger/internal/adapter/provider/custody"
	"asset-ledger/internal/adapter/provider/exchange"
	"asset-ledger/internal/adapter/provider/fiatrail"
	"asset-ledger/internal/adapter/provider/rates"
	"asset-ledger/internal/adapter/provider/restapi"
	"asset-ledger/internal/adapter/storage/memory"
	pgStorage "asset-ledger/internal/adapter/storage/postgres"
	redisStorage "asset-ledger/internal/adapter/storage/redis"
	"asset-ledger/internal/core/ports"
	"asset-ledger/internal/service"
	"asset-ledger/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type repositories struct {
	wallets    ports.WalletRepository
	txns       ports.TransactionRepository
	points     ports.PointsRepository
	gasRefills ports.GasRefillRepository
	accounts   ports.VirtualAccountRepository
	transfers  ports.RailTransferRepository
	transactor ports.DBTransactor
	health     ports.HealthChecker
}

// App holds the wired dependency graph of one process.
type App struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	redis    *goredis.Client
	queue    *redisStorage.Queue
	events   *redisStorage.BalanceEvents
	health   []ports.HealthChecker

	Ledger     *service.LedgerServiceImpl
	Settlement *service.SettlementServiceImpl
	Exchange   *service.ExchangeServiceImpl
	Points     *service.PointsServiceImpl
	Tokens     *service.JWTTokenService

	closers []func()
}

// New connects to Redis and the configured store and builds every service.
// Close releases what New opened, also when New fails halfway.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(a.registry)

	a.redis, err = redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.redis.Close() })

	repos, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.health = []ports.HealthChecker{repos.health, redisStorage.NewHealthCheck(a.redis)}

	a.queue = redisStorage.NewQueue(a.redis, redisStorage.QueueOptions{
		DequeueTimeout:    cfg.Queue.DequeueTimeout,
		EnqueueTimeout:    cfg.Queue.EnqueueTimeout,
		PollInterval:      cfg.Queue.PollInterval,
		VisibilityTimeout: cfg.Queue.VisibilityTimeout,
	}, log)
	a.events = redisStorage.NewBalanceEvents(a.redis, cfg.Events.RedisChannel, log)

	publishers := []ports.BalancePublisher{a.events}
	if len(cfg.Events.KafkaBrokers) > 0 {
		kp, kErr := kafka.NewBalancePublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, log, kafka.NewPublisherMetrics(a.registry))
		if kErr != nil {
			log.Warn().Err(kErr).Msg("kafka unavailable, balance events go to redis only")
		} else {
			publishers = append(publishers, kp)
			a.closers = append(a.closers, func() { _ = kp.Close() })
		}
	}

	locker := redisStorage.NewLocker(a.redis, log)
	lockOpts := ports.LockOptions{
		TTL:        cfg.Lock.TTL,
		RetryCount: cfg.Lock.RetryCount,
		RetryDelay: cfg.Lock.RetryDelay,
	}
	notifier := service.NewLogNotifier(log)

	a.Ledger = service.NewLedgerService(
		repos.wallets,
		repos.txns,
		repos.transactor,
		locker,
		redisStorage.NewIdempotencyCache(a.redis),
		service.NewBalanceFanout(publishers...),
		notifier,
		lockOpts,
		metrics,
		log,
	)
	a.Settlement = service.NewSettlementService(repos.wallets, repos.txns, repos.gasRefills, a.Ledger, metrics, log)

	timeout := cfg.Providers.Timeout
	a.Exchange = service.NewExchangeService(
		repos.wallets,
		repos.accounts,
		repos.transfers,
		a.Ledger,
		rates.NewClient(restapi.Options{BaseURL: cfg.Providers.RatesBaseURL, Timeout: timeout}, log),
		exchange.NewClient(restapi.Options{
			BaseURL: cfg.Providers.ExchangeBaseURL,
			APIKey:  cfg.Providers.ExchangeAPIKey,
			Timeout: timeout,
		}, log),
		fiatrail.NewRegistryFromConfig(cfg.Providers, log),
		a.queue,
		service.ExchangeOptions{
			RateSide:     cfg.Exchange.RateSide,
			CleanupGrace: cfg.Exchange.CleanupGrace,
			AllowedBanks: cfg.Providers.AllowedBanks,
			Job:          a.jobOptions(),
			Reconcile: ports.JobOptions{
				Attempts: cfg.Exchange.ReconcileAttempts,
				Backoff:  cfg.Exchange.ReconcileInterval,
				Delay:    cfg.Exchange.ReconcileInterval,
			},
		},
		metrics,
		log,
	)
	a.Points = service.NewPointsService(repos.points, repos.transactor, locker, notifier, lockOpts, metrics, log)
	a.Tokens = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	return a, nil
}

func (a *App) openStore(ctx context.Context) (*repositories, error) {
	switch strings.ToLower(a.cfg.Storage.Driver) {
	case "memory":
		a.log.Warn().Msg("using in-memory ledger store; data is lost on restart")
		s := memory.NewStore()
		return &repositories{
			wallets:    memory.NewWalletRepo(s),
			txns:       memory.NewTransactionRepo(s),
			points:     memory.NewPointsRepo(s),
			gasRefills: memory.NewGasRefillRepo(s),
			accounts:   memory.NewVirtualAccountRepo(s),
			transfers:  memory.NewRailTransferRepo(s),
			transactor: s,
			health:     s,
		}, nil
	default:
		pool, err := pgStorage.NewPool(ctx, a.cfg.Database, a.log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if a.cfg.Database.AutoMigrate {
			if err := pgStorage.Migrate(ctx, pool); err != nil {
				return nil, err
			}
		}
		return &repositories{
			wallets:    pgStorage.NewWalletRepo(pool),
			txns:       pgStorage.NewTransactionRepo(pool),
			points:     pgStorage.NewPointsRepo(pool),
			gasRefills: pgStorage.NewGasRefillRepo(pool),
			accounts:   pgStorage.NewVirtualAccountRepo(pool),
			transfers:  pgStorage.NewRailTransferRepo(pool),
			transactor: pgStorage.NewTransactor(pool, a.cfg.Lock.TTL),
			health:     pgStorage.NewHealthCheck(pool),
		}, nil
	}
}

func (a *App) jobOptions() ports.JobOptions {
	return ports.JobOptions{Attempts: a.cfg.Queue.Attempts, Backoff: a.cfg.Queue.Backoff}
}

// Router builds the HTTP surface.
func (a *App) Router() *gin.Engine {
	return httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      a.Ledger,
		ExchangeSvc:    a.Exchange,
		PointsSvc:      a.Points,
		TokenSvc:       a.Tokens,
		WebhookParser:  custody.NewWebhookParser(a.cfg.Webhook.CustodySecret, a.cfg.Webhook.MaxDrift),
		ReplayGuard:    redisStorage.NewReplayGuard(a.redis),
		Queue:          a.queue,
		BalanceEvents:  a.events,
		ReplayTTL:      a.cfg.Webhook.ReplayTTL,
		EventJobOpts:   a.jobOptions(),
		RateLimitStore: redisStorage.NewRateLimitStore(a.redis),
		RateLimit: middleware.RateLimitRule{
			Limit:  int64(a.cfg.RateLimit.Requests),
			Window: a.cfg.RateLimit.Window,
		},
		HealthCheckers: a.health,
		Gatherer:       a.registry,
		Logger:         a.log,
	})
}

// Worker builds the queue consumers.
func (a *App) Worker() *worker.Worker {
	return worker.New(a.queue, a.Settlement, a.Exchange, worker.Concurrency{
		Settlement:  a.cfg.Queue.SettlementConcurrency,
		Exchange:    a.cfg.Queue.ExchangeConcurrency,
		Maintenance: a.cfg.Queue.MaintenanceConcurrency,
	}, a.log)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
