package tools

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/repository"
)

// Options configures the builtin catalog.
type Options struct {
	// Location resolves "today" for date-relative tools. Defaults to UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// toolset carries the dependencies shared by the builtin executors.
type toolset struct {
	store  repository.Store
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewBuiltinRegistry returns the full assistant catalog backed by store.
func NewBuiltinRegistry(store repository.Store, opts Options) *Registry {
	ts := &toolset{store: store, loc: opts.Location, now: opts.Now, logger: opts.Logger}
	if ts.loc == nil {
		ts.loc = time.UTC
	}
	if ts.now == nil {
		ts.now = time.Now
	}
	if ts.logger == nil {
		ts.logger = zap.NewNop()
	}

	r := NewRegistry()
	ts.registerAvailability(r)
	ts.registerServices(r)
	ts.registerBookings(r)
	ts.registerClients(r)
	ts.registerMessages(r)
	ts.registerProfile(r)
	ts.registerAccounting(r)
	registerNavigation(r)
	registerDocuments(r)
	return r
}

func (ts *toolset) today() time.Time {
	return ts.now().In(ts.loc)
}

func ok(detail string, data any) domain.ToolResult {
	return domain.ToolResult{Success: true, Detail: detail, Data: data}
}

func fail(format string, args ...any) domain.ToolResult {
	return domain.ToolResult{Success: false, Detail: fmt.Sprintf(format, args...)}
}

// storeFailure logs err and returns a failure that does not leak store internals.
// repository.ErrNotFound becomes notFound.
func (ts *toolset) storeFailure(tool string, err error, notFound string) domain.ToolResult {
	if errors.Is(err, repository.ErrNotFound) && notFound != "" {
		return fail("%s", notFound)
	}
	ts.logger.Warn("tool store error", zap.String("tool", tool), zap.Error(err))
	return fail("Could not complete %s right now. Please try again.", tool)
}
