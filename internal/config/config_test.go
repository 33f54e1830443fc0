package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercentages(t *testing.T) {
	got, err := ParsePercentages("10,4,3,2,1")
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 4, 3, 2, 1}, got)
}

func TestParsePercentagesWithSpaces(t *testing.T) {
	got, err := ParsePercentages(" 10, 5 ,4 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 5, 4}, got)
}

func TestParsePercentagesRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not_a_number", "10,abc"},
		{"zero", "10,0"},
		{"negative", "-5"},
		{"above_hundred", "101"},
		{"sum_above_hundred", "60,50"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePercentages(tc.raw)
			require.Error(t, err)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GATEWAY_MOCK", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 4, 3, 2, 1}, cfg.CommissionPercentages)
	assert.Equal(t, "8080", cfg.OpsPort)
	assert.Positive(t, cfg.DepositCheckInterval)
	assert.Positive(t, cfg.DepositExpiry)
}

func TestLoadRequiresGatewayCredentials(t *testing.T) {
	t.Setenv("GATEWAY_MOCK", "false")
	t.Setenv("GATEWAY_CLIENT_ID", "")
	t.Setenv("GATEWAY_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
