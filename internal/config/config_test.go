package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, EngineLocal, cfg.EngineMode)
	require.Equal(t, 2500*time.Millisecond, cfg.CaptureSettle)
	require.Equal(t, 4500*time.Millisecond, cfg.PopoverTimeout)
	require.Equal(t, 24, cfg.MaxScrollSweeps)
	require.Equal(t, DefaultProbeTemplates, cfg.ProbeTemplates)
	require.Equal(t, "#__next", cfg.Locators.AppRoot.CSS)
}

func TestProbeTemplatesFromEnvString(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PROBE_TEMPLATES", "{base}/a?d={date}; {base}/b?d={date}")

	cfg, err := decode(v)
	require.NoError(t, err)
	require.Equal(t, []string{"{base}/a?d={date}", "{base}/b?d={date}"}, cfg.ProbeTemplates)
}

func TestLocatorOverrideKeepsOtherDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("locators", map[string]any{
		"calendar_header": map[string]any{"css": "h2.month"},
	})

	cfg, err := decode(v)
	require.NoError(t, err)
	require.Equal(t, "h2.month", cfg.Locators.CalendarHeader.CSS)
	require.Equal(t, "#__next", cfg.Locators.AppRoot.CSS)
}

func TestValidateRejectsRemoteWithoutURL(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ENGINE_MODE", EngineRemote)

	_, err := decode(v)
	require.Error(t, err)
}
