package container

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/config"
	"github.com/oksasatya/account-service/internal/infrastructure/memory"
	mongoinfra "github.com/oksasatya/account-service/internal/infrastructure/mongo"
	pginfra "github.com/oksasatya/account-service/internal/infrastructure/postgres"
)

// OpenStore selects the storage backend from STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Store, func(), error) {
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		s, err := mongoinfra.Open(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTransactions)
		if err != nil {
			return Store{}, nil, err
		}
		logger.WithField("db", cfg.MongoDB).Info("connected to mongodb")
		closeFn := func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Close(c)
		}
		return Store{Accounts: s.Accounts, Verifications: s.Verifications, Tx: s.Tx}, closeFn, nil

	case "postgres":
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return Store{}, nil, err
		}
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return Store{}, nil, fmt.Errorf("migration failed: %w", err)
		}
		return Store{
			Accounts:      pginfra.NewAccountRepository(pool),
			Verifications: pginfra.NewVerificationRepository(pool),
			Tx:            pginfra.NewTransactor(pool),
		}, pool.Close, nil

	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return Store{Accounts: s.Accounts(), Verifications: s.Verifications(), Tx: s}, func() {}, nil

	default:
		return Store{}, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
