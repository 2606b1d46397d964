package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/adapter/llm"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/auth"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/config"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/confirmation"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/ratelimit"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/service"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/tools"
	server "github.com/cvlhofrederic-art/fixit-production-sub002/internal/transport/http"
	"github.com/cvlhofrederic-art/fixit-production-sub002/policy"
	"github.com/cvlhofrederic-art/fixit-production-sub002/tests/helpers"
)

const deletePlumbing = `{
	"actions": [],
	"response": "Do you want me to delete Plumbing?",
	"pending_confirmation": {"tool": "delete_service", "params": {"service_id": "tenant-a-svc-2"}}
}`

func newTestAPI(t *testing.T, mock *llm.MockClient) (*httptest.Server, *repository.SQLiteStore) {
	t.Helper()
	cfg := &config.Config{
		RateLimitMax:    30,
		RateLimitWindow: time.Minute,
		ConfirmationTTL: time.Minute,
		HistoryWindow:   10,
		MaxMessageChars: 5000,
		TurnTimeout:     5 * time.Second,
	}
	store := helpers.NewSeededStore(t)
	helpers.SeedService(t, store, helpers.TenantA, "tenant-a-svc-2", "Plumbing", false)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	svc := service.New(
		tools.NewBuiltinRegistry(store, tools.Options{}),
		repository.NewContextLoader(store, time.UTC),
		ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimitMax, cfg.RateLimitWindow, nil),
		confirmation.NewManager(confirmation.NewMemoryStore(), cfg.ConfirmationTTL),
		mock,
		engine,
		cfg,
		nil,
	)
	authn := auth.NewStaticAuthenticator(map[string]string{"token-a": helpers.UserA})
	srv := httptest.NewServer(server.NewServer(svc, authn, store, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestChatConfirmsPendingAction(t *testing.T) {
	srv, store := newTestAPI(t, llm.NewMockClient(deletePlumbing))

	var out bytes.Buffer
	chat := NewChat(NewClient(srv.URL, "token-a"), helpers.TenantA, strings.NewReader("delete plumbing\ny\n/quit\n"), &out)
	require.NoError(t, chat.Run(context.Background()))

	assert.Contains(t, out.String(), "Nothing was changed yet.")
	assert.Contains(t, out.String(), "ok: ")
	assert.Contains(t, out.String(), "Bye!")
	require.Len(t, chat.history, 2)
	assert.Equal(t, domain.ChatRoleUser, chat.history[0].Role)

	services, err := store.ListServices(context.Background(), helpers.TenantA)
	require.NoError(t, err)
	assert.Len(t, services, 1)
}

func TestChatDeclinesByDefault(t *testing.T) {
	srv, store := newTestAPI(t, llm.NewMockClient(deletePlumbing))

	var out bytes.Buffer
	chat := NewChat(NewClient(srv.URL, "token-a"), helpers.TenantA, strings.NewReader("delete plumbing\n\n"), &out)
	require.NoError(t, chat.Run(context.Background()))

	assert.Contains(t, out.String(), service.DeclinedDetail)

	services, err := store.ListServices(context.Background(), helpers.TenantA)
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestChatResetAndTools(t *testing.T) {
	srv, _ := newTestAPI(t, llm.NewMockClient())

	var out bytes.Buffer
	chat := NewChat(NewClient(srv.URL, "token-a"), helpers.TenantA, strings.NewReader("hello\n/reset\n/tools\n"), &out)
	require.NoError(t, chat.Run(context.Background()))

	assert.Empty(t, chat.history)
	assert.Contains(t, out.String(), "[MOCK] Received your message")
	assert.Contains(t, out.String(), "Conversation cleared.")
	assert.Contains(t, out.String(), tools.DeleteService)
}

func TestClientErrors(t *testing.T) {
	srv, _ := newTestAPI(t, llm.NewMockClient())
	ctx := context.Background()

	_, err := NewClient(srv.URL, "bad-token").Tools(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = NewClient(srv.URL, "token-a").Turn(ctx, domain.TurnRequest{TenantID: helpers.TenantB, Message: "hi"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}
