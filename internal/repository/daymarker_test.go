package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

func TestDayMarkerRoundTripKeepsVisibleBio(t *testing.T) {
	bio := joinDayMarker("Plumber since 2004", domain.DayServices{1: {"s1", "s2"}, 3: {"s1"}})
	assert.Equal(t, `Plumber since 2004 <!--DS:{"1":["s1","s2"],"3":["s1"]}-->`, bio)

	clean, ds, err := splitDayMarker(bio)
	require.NoError(t, err)
	assert.Equal(t, "Plumber since 2004", clean)
	assert.Equal(t, []string{"s1", "s2"}, ds[1])
	assert.Equal(t, []string{"s1"}, ds[3])
}

func TestDayMarkerEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		bio       string
		wantClean string
		wantDays  int
		wantErr   bool
	}{
		{name: "no marker", bio: "  hello ", wantClean: "hello"},
		{name: "only marker", bio: `<!--DS:{"2":["a"]}-->`, wantClean: "", wantDays: 1},
		{name: "corrupted", bio: "hi <!--DS:{broken-->", wantClean: "hi", wantErr: true},
		{name: "out of range day ignored", bio: `x <!--DS:{"9":["a"],"0":["b"]}-->`, wantClean: "x", wantDays: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, ds, err := splitDayMarker(tt.bio)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantClean, clean)
			assert.Len(t, ds, tt.wantDays)
		})
	}
}

func TestJoinDayMarkerOmitsEmptyLinks(t *testing.T) {
	assert.Equal(t, "bio", joinDayMarker("bio", domain.DayServices{1: {}}))
	assert.Equal(t, "bio", joinDayMarker("bio", nil))
}
