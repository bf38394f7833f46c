// Package server assembles repositories and services into the running API.
package server

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/storage/postgres"
	transporthttp "github.com/obichijioke/eventapp/internal/transport/http"
)

type Options struct {
	Clock         clock.Clock
	HoldTTL       time.Duration
	SessionTTL    time.Duration
	SessionCache  app.SessionCache
	WebhookSecret string
	FeeBPS        int
	// BcryptCost overrides the password hashing cost; tests lower it.
	BcryptCost int
}

// Container holds every application service, wired to Postgres.
type Container struct {
	Auth          *app.AuthService
	Organizations *app.OrganizationService
	Events        *app.EventService
	Seatmaps      *app.SeatmapService
	Holds         *app.HoldService
	Orders        *app.OrderService
	Tickets       *app.TicketService
	CheckIns      *app.CheckInService
	Payouts       *app.PayoutService
	Disputes      *app.DisputeService
	Notifications *app.NotificationService
	Audit         *app.AuditService
	Admin         *app.AdminService
}

func NewContainer(pool *pgxpool.Pool, opts Options) *Container {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}

	authRepo := postgres.NewAuthRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)
	authz := app.NewAuthorizer(orgRepo)

	notifications := app.NewNotificationService(postgres.NewNotificationRepository(pool), clk)
	audit := app.NewAuditService(postgres.NewAuditRepository(pool), authz, clk)

	authOpts := []app.AuthServiceOption{
		app.WithSessionTTL(opts.SessionTTL),
		app.WithSessionCache(opts.SessionCache),
	}
	if opts.BcryptCost > 0 {
		authOpts = append(authOpts, app.WithBcryptCost(opts.BcryptCost))
	}

	tickets := app.NewTicketService(postgres.NewTicketRepository(pool), clk)
	orders := app.NewOrderService(postgres.NewOrderRepository(pool), tickets, authz, clk,
		app.WithWebhookSecret(opts.WebhookSecret),
		app.WithOrderSideEffects(notifications, audit),
	)

	return &Container{
		Auth:          app.NewAuthService(authRepo, clk, authOpts...),
		Organizations: app.NewOrganizationService(orgRepo, authRepo, authz, notifications, audit, clk),
		Events:        app.NewEventService(postgres.NewEventRepository(pool), authz, notifications, audit, clk),
		Seatmaps:      app.NewSeatmapService(postgres.NewSeatmapRepository(pool), authz, audit, clk),
		Holds:         app.NewHoldService(postgres.NewHoldRepository(pool), clk, app.WithHoldTTL(opts.HoldTTL)),
		Orders:        orders,
		Tickets:       tickets,
		CheckIns:      app.NewCheckInService(postgres.NewCheckInRepository(pool), authz, clk),
		Payouts:       app.NewPayoutService(postgres.NewPayoutRepository(pool), authz, notifications, audit, clk, opts.FeeBPS),
		Disputes:      app.NewDisputeService(postgres.NewDisputeRepository(pool), orders, authz, notifications, audit, clk),
		Notifications: notifications,
		Audit:         audit,
		Admin:         app.NewAdminService(postgres.NewAdminRepository(pool)),
	}
}

// Services exposes the container to the HTTP router.
func (c *Container) Services() transporthttp.Services {
	return transporthttp.Services{
		Auth:          c.Auth,
		Organizations: c.Organizations,
		Events:        c.Events,
		Seatmaps:      c.Seatmaps,
		Holds:         c.Holds,
		Orders:        c.Orders,
		Tickets:       c.Tickets,
		CheckIns:      c.CheckIns,
		Payouts:       c.Payouts,
		Disputes:      c.Disputes,
		Notifications: c.Notifications,
		Audit:         c.Audit,
		Admin:         c.Admin,
	}
}
