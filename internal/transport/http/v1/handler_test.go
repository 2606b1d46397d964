package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/adapter/llm"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/auth"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/config"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/confirmation"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/ratelimit"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/service"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/tools"
	"github.com/cvlhofrederic-art/fixit-production-sub002/policy"
	"github.com/cvlhofrederic-art/fixit-production-sub002/tests/helpers"
)

func newTestHandler(t *testing.T, rateLimit int, replies ...string) (*Handler, *repository.SQLiteStore) {
	t.Helper()
	cfg := &config.Config{
		RateLimitMax:    rateLimit,
		RateLimitWindow: time.Minute,
		ConfirmationTTL: time.Minute,
		HistoryWindow:   10,
		MaxMessageChars: 5000,
		TurnTimeout:     5 * time.Second,
		Timezone:        "UTC",
	}
	store := helpers.NewSeededStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	svc := service.New(
		tools.NewBuiltinRegistry(store, tools.Options{}),
		repository.NewContextLoader(store, time.UTC),
		ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimitMax, cfg.RateLimitWindow, nil),
		confirmation.NewManager(confirmation.NewMemoryStore(), cfg.ConfirmationTTL),
		llm.NewMockClient(replies...),
		engine,
		cfg,
		nil,
	)
	return NewHandler(svc, store, nil), store
}

func newJSONContext(e *echo.Echo, method, path string, body any, userID string) (echo.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(principalKey, &auth.Principal{UserID: userID})
	}
	return c, rec
}

func TestTurn(t *testing.T) {
	e := echo.New()
	handler, store := newTestHandler(t, 30, `{
		"actions": [{"tool": "confirm_booking", "params": {"booking_id": "tenant-a-bk-1"}}],
		"response": "Booking confirmed.",
		"client_actions": [],
		"pending_confirmation": null
	}`)

	c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/turn", domain.TurnRequest{
		TenantID: helpers.TenantA,
		Message:  "confirm the booking",
	}, helpers.UserA)

	require.NoError(t, handler.Turn(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.ActionsExecuted, 1)
	assert.Equal(t, domain.ActionResultSuccess, resp.ActionsExecuted[0].Result)

	b, err := store.GetBooking(context.Background(), helpers.TenantA, "tenant-a-bk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
}

func TestTurnRejectsForeignTenant(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, 30)

	c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/turn", domain.TurnRequest{
		TenantID: helpers.TenantB,
		Message:  "list my bookings",
	}, helpers.UserA)
	require.NoError(t, handler.Turn(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newJSONContext(e, http.MethodPost, "/v1/assistant/turn", domain.TurnRequest{
		TenantID: helpers.TenantA,
		Message:  "list my bookings",
	}, "")
	require.NoError(t, handler.Turn(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTurnBadRequest(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, 30)

	t.Run("missing tenant", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/turn", domain.TurnRequest{Message: "hi"}, helpers.UserA)
		require.NoError(t, handler.Turn(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/turn", domain.TurnRequest{TenantID: helpers.TenantA, Message: "  "}, helpers.UserA)
		require.NoError(t, handler.Turn(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/assistant/turn", bytes.NewReader([]byte(`{"tenant_id":`)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(principalKey, &auth.Principal{UserID: helpers.UserA})

		require.NoError(t, handler.Turn(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTurnRateLimited(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, 1)
	body := domain.TurnRequest{TenantID: helpers.TenantA, Message: "hello"}

	c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/turn", body, helpers.UserA)
	require.NoError(t, handler.Turn(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newJSONContext(e, http.MethodPost, "/v1/assistant/turn", body, helpers.UserA)
	require.NoError(t, handler.Turn(c))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var resp domain.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, service.RateLimitedReply, resp.Response)
}

func TestConfirm(t *testing.T) {
	e := echo.New()
	handler, store := newTestHandler(t, 30, `{
		"actions": [],
		"response": "Do you want me to delete Plumbing?",
		"pending_confirmation": {"tool": "delete_service", "params": {"service_id": "tenant-a-svc-2"}}
	}`)
	helpers.SeedService(t, store, helpers.TenantA, "tenant-a-svc-2", "Plumbing", false)
	ctx := context.Background()

	c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/turn", domain.TurnRequest{
		TenantID: helpers.TenantA,
		Message:  "delete Plumbing",
	}, helpers.UserA)
	require.NoError(t, handler.Turn(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var turn domain.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	require.NotNil(t, turn.PendingConfirmation)
	token := turn.PendingConfirmation.ConfirmToken

	t.Run("other owner is forbidden", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/confirm", domain.ConfirmRequest{
			TenantID:     helpers.TenantA,
			ConfirmToken: token,
			Confirmed:    true,
		}, helpers.UserB)
		require.NoError(t, handler.Confirm(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner confirms", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/confirm", domain.ConfirmRequest{
			TenantID:     helpers.TenantA,
			ConfirmToken: token,
			Confirmed:    true,
		}, helpers.UserA)
		require.NoError(t, handler.Confirm(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp domain.ConfirmResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, tools.DeleteService, resp.Tool)

		services, err := store.ListServices(ctx, helpers.TenantA)
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "tenant-a-svc-1", services[0].ID)
	})

	t.Run("second redemption has expired", func(t *testing.T) {
		c, rec := newJSONContext(e, http.MethodPost, "/v1/assistant/confirm", domain.ConfirmRequest{
			TenantID:     helpers.TenantA,
			ConfirmToken: token,
			Confirmed:    true,
		}, helpers.UserA)
		require.NoError(t, handler.Confirm(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp domain.ConfirmResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, service.ExpiredDetail, resp.Detail)
	})
}

func TestListTools(t *testing.T) {
	e := echo.New()
	handler, _ := newTestHandler(t, 30)

	c, rec := newJSONContext(e, http.MethodGet, "/v1/tools", nil, helpers.UserA)
	require.NoError(t, handler.ListTools(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tools []domain.ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Tools)

	names := make(map[string]bool)
	for _, info := range resp.Tools {
		names[info.Name] = info.RequiresConfirmation
	}
	assert.Contains(t, names, tools.ListServices)
	assert.True(t, names[tools.DeleteService])
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	mw := RequireAuth(auth.NewStaticAuthenticator(map[string]string{"dev-token": helpers.UserA}))
	var seen *auth.Principal
	next := mw(func(c echo.Context) error {
		seen = principalFrom(c)
		return c.NoContent(http.StatusNoContent)
	})

	for _, tc := range []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic dev-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer dev-token", http.StatusNoContent},
	} {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/v1/tools", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, next(e.NewContext(req, rec)))
			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, helpers.UserA, seen.UserID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}
