package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name   string
		input  Input
		want   Decision
		reason string
	}{
		{
			name:  "plain write executes",
			input: Input{Tool: "set_day_availability", TenantID: "t1", Params: map[string]any{"day_of_week": 6, "is_available": false}},
			want:  DecisionExecute,
		},
		{
			name:   "gated tool confirms",
			input:  Input{Tool: "delete_service", TenantID: "t1", RequiresConfirmation: true},
			want:   DecisionConfirm,
			reason: "tool requires confirmation",
		},
		{
			name:   "closing every day confirms",
			input:  Input{Tool: "set_day_availability", TenantID: "t1", Params: map[string]any{"day_of_week": "all", "is_available": false}},
			want:   DecisionConfirm,
			reason: "bulk deactivation requires confirmation",
		},
		{
			name:  "opening every day executes",
			input: Input{Tool: "set_day_availability", TenantID: "t1", Params: map[string]any{"day_of_week": "all", "is_available": true}},
			want:  DecisionExecute,
		},
		{
			name:  "deactivating every service confirms",
			input: Input{Tool: "toggle_service_active", TenantID: "t1", Params: map[string]any{"service_id": "ALL", "active": "false"}},
			want:  DecisionConfirm,
		},
		{
			name:   "missing tenant blocks",
			input:  Input{Tool: "list_services"},
			want:   DecisionBlock,
			reason: "tenant is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason, err := engine.Evaluate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, reason)
			}
		})
	}
}

func TestPolicyCannotLowerConfirmation(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package fixy.confirmation

import rego.v1

result := {"decision": "execute", "reason": "permissive"}
`)
	require.NoError(t, err)

	got, _, err := engine.Evaluate(ctx, Input{Tool: "cancel_booking", TenantID: "t1", RequiresConfirmation: true})
	require.NoError(t, err)
	assert.Equal(t, DecisionConfirm, got)
}

func TestPolicyUnknownDecision(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package fixy.confirmation

import rego.v1

result := {"decision": "maybe"}
`)
	require.NoError(t, err)

	_, _, err = engine.Evaluate(ctx, Input{Tool: "list_services", TenantID: "t1"})
	assert.Error(t, err)
}

func TestLoadEngine(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(path, []byte(`
package fixy.confirmation

import rego.v1

result := {"decision": "block", "reason": "maintenance"}
`), 0o600))

	engine, err := LoadEngine(ctx, path)
	require.NoError(t, err)
	got, reason, err := engine.Evaluate(ctx, Input{Tool: "list_services", TenantID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, got)
	assert.Equal(t, "maintenance", reason)

	_, err = LoadEngine(ctx, filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)

	_, err = NewEngine(ctx, "package broken\n\nthis is not rego")
	assert.Error(t, err)
}
