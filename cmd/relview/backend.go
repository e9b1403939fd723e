package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/relview/internal/config"
	"github.com/aretw0/relview/pkg/adapters/file"
	"github.com/aretw0/relview/pkg/adapters/memory"
	"github.com/aretw0/relview/pkg/adapters/redis"
	"github.com/aretw0/relview/pkg/adapters/sqlstore"
	"github.com/aretw0/relview/pkg/persistence/middleware"
	"github.com/aretw0/relview/pkg/ports"
	"github.com/aretw0/relview/pkg/session"
	backend "github.com/redis/go-redis/v9"

	// SQL drivers for the sql session backend.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// storage bundles the session store, the memo cache and what must be closed on exit.
type storage struct {
	store   ports.SessionStore
	cache   ports.Cache
	locker  ports.DistributedLocker
	closers []func() error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	st := &storage{cache: memory.NewCache()}

	switch cfg.Session.Backend {
	case "memory":
		st.store = memory.NewStore(memory.WithTTL(cfg.Session.TTL))
	case "file":
		st.store = file.New(cfg.Session.Dir)
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		st.closers = append(st.closers, client.Close)
		st.store = redis.NewFromClient(client,
			redis.WithPrefix(cfg.Redis.Prefix+"session:"),
			redis.WithTTL(cfg.Session.TTL),
		)
		st.cache = redis.NewCache(client, cfg.Redis.Prefix+"memo:")
		if cfg.Redis.Lock {
			st.locker = redis.NewLocker(client, cfg.Redis.Prefix)
		}
	case "sql":
		s, err := sqlstore.Open(ctx, cfg.SQL.Driver, cfg.SQL.DSN, sqlstore.WithTTL(cfg.Session.TTL))
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, s.Close)
		st.store = s
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	key, err := cfg.Session.Key()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		st.store = middleware.Chain(st.store, enc)
	}

	logger.Info("session storage ready",
		"backend", cfg.Session.Backend,
		"encrypted", key != nil,
		"distributed_lock", st.locker != nil,
	)
	return st, nil
}

func (st *storage) manager(logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if st.locker != nil {
		opts = append(opts, session.WithLocker(st.locker))
	}
	return session.NewManager(st.store, opts...)
}

// Close releases every connection in reverse order of opening.
func (st *storage) Close() error {
	var errs []error
	for i := len(st.closers) - 1; i >= 0; i-- {
		errs = append(errs, st.closers[i]())
	}
	return errors.Join(errs...)
}
