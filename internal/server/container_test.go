package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/metrics"
	"github.com/obichijioke/eventapp/internal/testutil"
	transporthttp "github.com/obichijioke/eventapp/internal/transport/http"
)

const testWebhookSecret = "whsec_test"

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func (c apiClient) do(method, path, token string, body any, headers map[string]string) (int, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case []byte:
			buf.Write(b)
		default:
			require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	out := map[string]any{}
	if res.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(res.Body).Decode(&out)
	}
	return res.StatusCode, out
}

func (c apiClient) register(email string) string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "correct horse", "name": email,
	}, nil)
	require.Equal(c.t, http.StatusCreated, status, body)
	return body["token"].(string)
}

func authed(t *testing.T, url, token string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAPI_PurchaseAndCheckIn(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	m := metrics.New(prometheus.NewRegistry())
	c := NewContainer(pool, Options{
		HoldTTL:       10 * time.Minute,
		SessionTTL:    time.Hour,
		WebhookSecret: testWebhookSecret,
		FeeBPS:        250,
		BcryptCost:    bcrypt.MinCost,
	})
	srv := httptest.NewServer(transporthttp.NewRouter(c.Services(), transporthttp.RouterOptions{Metrics: m}))
	t.Cleanup(srv.Close)
	api := apiClient{t: t, srv: srv}

	organizer := api.register("organizer@example.com")
	buyer := api.register("buyer@example.com")

	status, org := api.do(http.MethodPost, "/orgs", organizer, map[string]string{"name": "Night Owls", "slug": "night-owls"}, nil)
	require.Equal(t, http.StatusCreated, status, org)
	orgID := org["id"].(string)

	status, event := api.do(http.MethodPost, "/orgs/"+orgID+"/events", organizer, map[string]string{
		"name":      "Warehouse Show",
		"starts_at": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
		"currency":  "EUR",
	}, nil)
	require.Equal(t, http.StatusCreated, status, event)
	eventID := event["id"].(string)

	status, body := api.do(http.MethodPost, "/events/"+eventID+"/publish", organizer, nil, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "event_has_no_zones", body["code"])

	status, zone := api.do(http.MethodPost, "/events/"+eventID+"/zones", organizer, map[string]any{
		"name": "Floor", "capacity": 100, "price_cents": 2500,
	}, nil)
	require.Equal(t, http.StatusCreated, status, zone)
	zoneID := zone["id"].(string)

	status, body = api.do(http.MethodPost, "/events/"+eventID+"/publish", organizer, nil, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["changed"])
	status, body = api.do(http.MethodPost, "/events/"+eventID+"/publish", organizer, nil, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, false, body["changed"])

	status, body = api.do(http.MethodGet, "/events", "", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, hold := api.do(http.MethodPost, "/holds", buyer, map[string]any{
		"event_id": eventID, "zone_id": zoneID, "quantity": 2, "idempotency_key": "hold-1",
	}, nil)
	require.Equal(t, http.StatusCreated, status, hold)
	holdID := hold["id"].(string)

	confirmPath := "/holds/" + holdID + "/confirm"
	status, order := api.do(http.MethodPost, confirmPath, buyer, nil, map[string]string{"Idempotency-Key": "confirm-1"})
	require.Equal(t, http.StatusCreated, status, order)
	assert.Equal(t, "pending", order["status"])
	assert.EqualValues(t, 5000, order["amount_cents"])
	assert.Equal(t, "EUR", order["currency"])
	orderID := order["id"].(string)

	status, replay := api.do(http.MethodPost, confirmPath, buyer, nil, map[string]string{"Idempotency-Key": "confirm-1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, orderID, replay["id"])

	status, payment := api.do(http.MethodPost, "/orders/"+orderID+"/payments", buyer, nil, nil)
	require.Equal(t, http.StatusCreated, status, payment)

	webhook, err := json.Marshal(map[string]string{"provider_ref": payment["provider_ref"].(string), "status": "succeeded"})
	require.NoError(t, err)

	status, _ = api.do(http.MethodPost, "/webhooks/payments", "", webhook, map[string]string{"X-Signature": "00"})
	assert.Equal(t, http.StatusUnauthorized, status)

	sig := map[string]string{"X-Signature": app.SignWebhook(testWebhookSecret, webhook)}
	status, body = api.do(http.MethodPost, "/webhooks/payments", "", webhook, sig)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 2, body["tickets_issued"])

	status, body = api.do(http.MethodPost, "/webhooks/payments", "", webhook, sig)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["duplicate"])

	status, tickets := api.do(http.MethodGet, "/tickets", buyer, nil, nil)
	require.Equal(t, http.StatusOK, status)
	items := tickets["items"].([]any)
	require.Len(t, items, 2)
	code := items[0].(map[string]any)["barcode"].(string)

	status, scan := api.do(http.MethodPost, "/events/"+eventID+"/checkins", organizer, map[string]string{"code": code}, nil)
	require.Equal(t, http.StatusOK, status, scan)
	assert.Equal(t, "accepted", scan["result"])

	status, scan = api.do(http.MethodPost, "/events/"+eventID+"/checkins", organizer, map[string]string{"code": code}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "duplicate", scan["result"])
	assert.NotEmpty(t, scan["first_checked_in_at"])

	status, _ = api.do(http.MethodPost, "/events/"+eventID+"/checkins", buyer, map[string]string{"code": code}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Unreadable input is rejected at the door and still lands in the scan log.
	status, scan = api.do(http.MethodPost, "/events/"+eventID+"/checkins", organizer, map[string]string{"code": "garbage"}, nil)
	require.Equal(t, http.StatusOK, status, scan)
	assert.Equal(t, "invalid", scan["result"])

	status, scans := api.do(http.MethodGet, "/events/"+eventID+"/checkins", organizer, nil, nil)
	require.Equal(t, http.StatusOK, status, scans)
	assert.EqualValues(t, 3, scans["total"])
	var logged []string
	for _, it := range scans["items"].([]any) {
		logged = append(logged, it.(map[string]any)["code"].(string))
	}
	assert.Contains(t, logged, "garbage")

	res, err := srv.Client().Do(authed(t, srv.URL+"/orgs/"+orgID+"/balance", organizer))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var balances []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&balances))
	require.Len(t, balances, 1)
	assert.Equal(t, "EUR", balances[0]["currency"])
	assert.EqualValues(t, 5000, balances[0]["gross_cents"])
	assert.EqualValues(t, 125, balances[0]["fee_cents"])
	assert.EqualValues(t, 4875, balances[0]["available_cents"])

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.TicketsIssued))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.CheckIns.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.CheckIns.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.CheckIns.WithLabelValues("invalid")))
}

func TestAPI_AuthRequired(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	c := NewContainer(pool, Options{BcryptCost: bcrypt.MinCost})
	srv := httptest.NewServer(transporthttp.NewRouter(c.Services(), transporthttp.RouterOptions{}))
	t.Cleanup(srv.Close)
	api := apiClient{t: t, srv: srv}

	status, body := api.do(http.MethodGet, "/orders", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthenticated", body["code"])

	status, _ = api.do(http.MethodGet, "/orders", "not-a-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := api.register("someone@example.com")
	status, me := api.do(http.MethodGet, "/auth/me", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "someone@example.com", me["email"])

	status, _ = api.do(http.MethodPost, "/auth/logout", token, nil, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, "/auth/me", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodGet, "/admin/stats", api.register("plain@example.com"), nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
