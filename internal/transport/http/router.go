package http

import (
	"log/slog"
	"net/http"

	"github.com/obichijioke/eventapp/internal/metrics"
)

// Services bundles the application services behind the API.
type Services struct {
	Auth          AuthService
	Organizations OrganizationService
	Events        EventService
	Seatmaps      SeatmapService
	Holds         HoldCreator
	Orders        OrderService
	Tickets       TicketService
	CheckIns      CheckInService
	Payouts       PayoutService
	Disputes      DisputeService
	Notifications NotificationService
	Audit         AuditService
	Admin         AdminService
}

type RouterOptions struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	MetricsPath  http.Handler
	CORSOrigins  []string
	AuthLimiter  *RateLimiter
	HealthChecks []HealthCheck
}

// NewRouter registers every route and wraps the mux in the middleware chain:
// correlation, request logging, metrics, CORS, then authentication.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	public := func(pattern string, h http.Handler) {
		mux.Handle(pattern, withRoute(h))
	}
	private := func(pattern string, h http.Handler) {
		mux.Handle(pattern, withRoute(RequireActor(h)))
	}
	limited := func(h http.Handler) http.Handler {
		if opts.AuthLimiter == nil {
			return h
		}
		return opts.AuthLimiter.Middleware(h)
	}

	public("GET /health", http.HandlerFunc(HealthHandler))
	public("GET /health/ready", ReadyHandler(opts.HealthChecks...))
	if opts.MetricsPath != nil {
		public("GET /metrics", opts.MetricsPath)
	}

	public("POST /auth/register", limited(HandleRegister(svc.Auth)))
	public("POST /auth/login", limited(HandleLogin(svc.Auth)))
	private("POST /auth/logout", HandleLogout(svc.Auth))
	private("GET /auth/me", HandleMe(svc.Auth))

	private("POST /orgs", HandleCreateOrganization(svc.Organizations))
	private("GET /orgs", HandleListMyOrganizations(svc.Organizations))
	private("GET /orgs/{orgID}/members", HandleListMembers(svc.Organizations))
	private("POST /orgs/{orgID}/members", HandleAddMember(svc.Organizations))
	private("GET /orgs/{orgID}/events", HandleListOrgEvents(svc.Events))
	private("POST /orgs/{orgID}/events", HandleCreateEvent(svc.Events))
	private("GET /orgs/{orgID}/balance", HandleBalance(svc.Payouts))
	private("GET /orgs/{orgID}/payouts", HandleListPayouts(svc.Payouts))
	private("POST /orgs/{orgID}/payouts", HandleRequestPayout(svc.Payouts))
	private("GET /orgs/{orgID}/disputes", HandleListOrgDisputes(svc.Disputes))
	private("GET /orgs/{orgID}/audit", HandleQueryAudit(svc.Audit))

	public("GET /events", HandleListPublishedEvents(svc.Events))
	public("GET /events/{eventID}", HandleGetEvent(svc.Events))
	private("PATCH /events/{eventID}", HandleUpdateEvent(svc.Events))
	private("POST /events/{eventID}/publish", HandlePublishEvent(svc.Events))
	private("POST /events/{eventID}/cancel", HandleCancelEvent(svc.Events))
	public("GET /events/{eventID}/zones", HandleListZones(svc.Events))
	private("POST /events/{eventID}/zones", HandleCreateZone(svc.Events))
	public("GET /events/{eventID}/seatmap", HandleGetSeatmap(svc.Seatmaps))
	private("PUT /events/{eventID}/seatmap", HandleReplaceSeatmap(svc.Seatmaps))
	private("POST /events/{eventID}/checkins", HandleScan(svc.CheckIns, opts.Metrics))
	private("GET /events/{eventID}/checkins", HandleListScans(svc.CheckIns))
	private("GET /events/{eventID}/checkins/stats", HandleCheckInStats(svc.CheckIns))

	private("POST /holds", HandleCreateHold(svc.Holds))
	private("POST /holds/{holdID}/confirm", HandleConfirmHold(svc.Orders, opts.Metrics))

	private("GET /orders", HandleListMyOrders(svc.Orders))
	private("GET /orders/{orderID}", HandleGetOrder(svc.Orders))
	private("POST /orders/{orderID}/payments", HandleStartPayment(svc.Orders))
	private("POST /orders/{orderID}/refund", HandleRefundOrder(svc.Orders))
	private("POST /orders/{orderID}/disputes", HandleOpenDispute(svc.Disputes))
	private("POST /disputes/{disputeID}/resolve", HandleResolveDispute(svc.Disputes))

	private("GET /tickets", HandleListMyTickets(svc.Tickets))
	private("GET /tickets/{ticketID}", HandleGetTicket(svc.Tickets))
	private("GET /tickets/{ticketID}/qr", HandleTicketQR(svc.Tickets))

	private("GET /notifications", HandleListNotifications(svc.Notifications))
	private("GET /notifications/unread-count", HandleUnreadCount(svc.Notifications))
	private("POST /notifications/read-all", HandleMarkAllNotificationsRead(svc.Notifications))
	private("POST /notifications/{id}/read", HandleMarkNotificationRead(svc.Notifications))

	public("POST /webhooks/payments", HandlePaymentWebhook(svc.Orders, opts.Metrics))

	private("GET /admin/events", HandleAdminEvents(svc.Admin))
	private("GET /admin/stats", HandleAdminStats(svc.Admin))
	private("POST /admin/payouts/{payoutID}/approve", HandleApprovePayout(svc.Payouts))
	private("POST /admin/payouts/{payoutID}/reject", HandleRejectPayout(svc.Payouts))
	private("POST /admin/payouts/{payoutID}/paid", HandleMarkPayoutPaid(svc.Payouts))

	mux.Handle("/", NotFoundHandler())

	var h http.Handler = mux
	h = Authenticate(h, svc.Auth)
	h = CORS(opts.CORSOrigins, h)
	h = Metrics(h, opts.Metrics)
	h = RequestLogger(h, opts.Logger)
	h = Correlation(h)
	return h
}
