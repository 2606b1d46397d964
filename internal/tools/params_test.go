package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsDay(t *testing.T) {
	tests := []struct {
		raw     any
		want    int
		wantErr bool
	}{
		{raw: float64(1), want: 1},
		{raw: "3", want: 3},
		{raw: "Saturday", want: 6},
		{raw: "lundi", want: 1},
		{raw: float64(7), wantErr: true},
		{raw: float64(-1), wantErr: true},
		{raw: "someday", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Params{"d": tt.raw}.Day("d")
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.raw)
			continue
		}
		require.NoError(t, err, "%v", tt.raw)
		assert.Equal(t, tt.want, got)
	}

	_, err := Params{}.Day("d")
	assert.Error(t, err)

	days, err := Params{"d": "ALL"}.Days("d")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, days)
}

func TestClockAndDate(t *testing.T) {
	for raw, want := range map[string]string{
		"09:30":    "09:30",
		"9:30":     "09:30",
		"9h":       "09:00",
		"14h15":    "14:15",
		"08:00:00": "08:00",
	} {
		got, err := Clock(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"24:00", "12:60", "noon", ""} {
		_, err := Clock(raw)
		assert.Error(t, err, raw)
	}

	d, err := Date("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", d)
	for _, raw := range []string{"2026-02-30", "2026-13-01", "tomorrow", "26-01-01"} {
		_, err := Date(raw)
		assert.Error(t, err, raw)
	}
}

func TestParamsCoercion(t *testing.T) {
	var p Params
	require.NoError(t, json.Unmarshal([]byte(`{
		"price": "12,5", "n": 3, "flag": "yes", "off": 0, "bad": {"x": 1},
		"ids": ["a", " b ", ""], "csv": "x, y", "name": "  Repair  ", "nothing": null
	}`), &p))

	f, present, err := p.Float("price")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 12.5, f)

	n, _, err := p.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, present, err = p.Float("bad")
	assert.True(t, present)
	assert.Error(t, err)

	_, present, err = p.Float("nothing")
	assert.False(t, present)
	assert.NoError(t, err)

	b, _, err := p.Bool("flag")
	require.NoError(t, err)
	assert.True(t, b)
	b, _, err = p.Bool("off")
	require.NoError(t, err)
	assert.False(t, b)

	assert.Equal(t, []string{"a", "b"}, p.Strings("ids"))
	assert.Equal(t, []string{"x", "y"}, p.Strings("csv"))
	assert.Equal(t, "Repair", p.String("name"))
	assert.Nil(t, p.OptString("missing"))
	assert.False(t, p.IsAll("name"))
}
