package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/config"
	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/logging"
	"github.com/obichijioke/eventapp/internal/server"
)

var errOperatorRequired = errors.New("this command needs --as <admin email>")

// commandContext opens the configuration, database and services on first use
// so that help and argument errors never touch the database.
type commandContext struct {
	operator *string

	once      sync.Once
	cfg       *config.Config
	pool      *pgxpool.Pool
	container *server.Container
	err       error
}

func newCommandContext(operator *string) *commandContext {
	return &commandContext{operator: operator}
}

func (c *commandContext) open(ctx context.Context) error {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		logging.Init(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := pgxpool.New(dialCtx, cfg.DatabaseURL)
		if err != nil {
			c.err = fmt.Errorf("connect to database: %w", err)
			return
		}
		if err := pool.Ping(dialCtx); err != nil {
			pool.Close()
			c.err = fmt.Errorf("ping database: %w", err)
			return
		}

		c.cfg = cfg
		c.pool = pool
		c.container = server.NewContainer(pool, server.Options{
			HoldTTL:       cfg.HoldTTL,
			SessionTTL:    cfg.SessionTTL,
			WebhookSecret: cfg.PaymentWebhookSecret,
			FeeBPS:        cfg.PlatformFeeBPS,
		})
	})
	return c.err
}

func (c *commandContext) services(ctx context.Context) (*server.Container, error) {
	if err := c.open(ctx); err != nil {
		return nil, err
	}
	return c.container, nil
}

func (c *commandContext) database(ctx context.Context) (*pgxpool.Pool, error) {
	if err := c.open(ctx); err != nil {
		return nil, err
	}
	return c.pool, nil
}

// actor resolves --as to an admin actor.
func (c *commandContext) actor(ctx context.Context) (domain.Actor, error) {
	email := ""
	if c.operator != nil {
		email = strings.TrimSpace(*c.operator)
	}
	if email == "" {
		return domain.Actor{}, errOperatorRequired
	}
	svc, err := c.services(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	actor, err := svc.Auth.ActorByEmail(ctx, email)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("resolve operator %s: %w", email, err)
	}
	if !actor.IsAdmin {
		return domain.Actor{}, fmt.Errorf("%s is not an admin; run `eventctl user promote %s` first", email, email)
	}
	return actor, nil
}

func (c *commandContext) close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
