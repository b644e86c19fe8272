package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
	"github.com/vladislavdragonenkov/printshop/internal/health"
	"github.com/vladislavdragonenkov/printshop/internal/storage/firestore"
	"github.com/vladislavdragonenkov/printshop/internal/storage/memory"
	"github.com/vladislavdragonenkov/printshop/internal/storage/postgres"
)

// runtimeDependencies: хранилища, выбранные конфигурацией.
type runtimeDependencies struct {
	repo            domain.OrderRepository
	outboxRepo      domain.OutboxRepository
	timelineRepo    domain.TimelineRepository
	idempotencyRepo domain.IdempotencyRepository
	cartRepo        domain.CartRepository

	// checkers регистрируются в /healthz и /readyz.
	checkers map[string]health.Checker
	closers  []func() error
}

// initRuntimeDependencies открывает хранилища. При ошибке уже открытые ресурсы закрываются.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (_ *runtimeDependencies, err error) {
	deps := &runtimeDependencies{checkers: make(map[string]health.Checker)}
	defer func() {
		if err != nil {
			deps.close(logger)
		}
	}()

	var store *postgres.Store
	openStore := func() (*postgres.Store, error) {
		if store != nil {
			return store, nil
		}
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres DSN is required")
		}
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		store = s
		deps.closers = append(deps.closers, s.Close)
		deps.checkers["postgres"] = health.NewPingChecker("postgres", s)
		return s, nil
	}

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		deps.repo = memory.NewOrderRepository()
		deps.outboxRepo = memory.NewOutboxRepository()
		deps.timelineRepo = memory.NewTimelineRepository()
		deps.idempotencyRepo = memory.NewIdempotencyRepository()
		logger.Info("using in-memory storage")
	case StorageDriverPostgres:
		s, err := openStore()
		if err != nil {
			return nil, err
		}
		deps.repo = postgres.NewOrderRepository(s)
		deps.outboxRepo = postgres.NewOutboxRepository(s)
		deps.timelineRepo = postgres.NewTimelineRepository(s)
		deps.idempotencyRepo = postgres.NewIdempotencyRepository(s)
		logger.Info("using postgres storage")
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	switch cfg.cartStore() {
	case CartStoreMemory:
		deps.cartRepo = memory.NewCartRepository()
	case CartStorePostgres:
		s, err := openStore()
		if err != nil {
			return nil, err
		}
		deps.cartRepo = postgres.NewCartRepository(s)
	case CartStoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		repo := firestore.NewCartRepository(client, cfg.CartTTL, logger.WithField("component", "firestore-carts"))
		deps.cartRepo = repo
		deps.checkers["firestore"] = health.NewPingChecker("firestore", repo)
	default:
		return nil, fmt.Errorf("unsupported cart store %q", cfg.CartStore)
	}
	logger.WithField("cart_store", cfg.cartStore()).Info("cart store initialized")

	deps.checkers["outbox"] = newOutboxBacklogChecker(deps.outboxRepo, cfg.OutboxMaxPending)
	return deps, nil
}

// close закрывает ресурсы в обратном порядке открытия.
func (d *runtimeDependencies) close(logger *log.Entry) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}
	d.closers = nil
}

// newOutboxBacklogChecker сообщает degraded, когда backlog outbox превышает maxPending.
// Заказы при этом принимаются, поэтому готовность не снимается.
func newOutboxBacklogChecker(repo domain.OutboxRepository, maxPending int) health.Checker {
	return health.NewOptionalPingChecker("outbox", outboxBacklog{repo: repo, maxPending: maxPending})
}

type outboxBacklog struct {
	repo       domain.OutboxRepository
	maxPending int
}

func (b outboxBacklog) Ping(ctx context.Context) error {
	stats, err := b.repo.Stats(ctx)
	if err != nil {
		return err
	}
	if b.maxPending > 0 && stats.PendingCount > b.maxPending {
		return fmt.Errorf("outbox backlog %d exceeds %d", stats.PendingCount, b.maxPending)
	}
	return nil
}
