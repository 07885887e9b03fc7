package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvSimulatorJWTSecret, "secret")
	t.Setenv(EnvDataDir, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "he", cfg.Bot.DefaultLanguage)
	assert.InDelta(t, 18.0, cfg.Bot.VATPercent, 0.0001)
	assert.Equal(t, WebhookProcessing, cfg.Bot.WebhookTimeout)
	assert.True(t, cfg.SimulatorEnabled())
	assert.False(t, cfg.WhatsAppEnabled())
	assert.False(t, cfg.LineEnabled())
	assert.False(t, cfg.R2Enabled())
	assert.Equal(t, 6*time.Hour, cfg.R2.SnapshotInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvWhatsAppToken, "wa-token")
	t.Setenv(EnvWhatsAppPhoneNumberID, "1234")
	t.Setenv(EnvWhatsAppVerifyToken, "verify")
	t.Setenv(EnvDefaultLanguage, "EN")
	t.Setenv(EnvVATPercent, "17")
	t.Setenv(EnvWebhookTimeout, "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.WhatsAppEnabled())
	assert.Equal(t, "en", cfg.Bot.DefaultLanguage)
	assert.InDelta(t, 17.0, cfg.Bot.VATPercent, 0.0001)
	assert.Equal(t, 5*time.Second, cfg.Bot.WebhookTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:             "10000",
			DataDir:          "/tmp",
			SentrySampleRate: 1,
			Bot: BotConfig{
				DefaultLanguage: "en",
				VATPercent:      18,
				WebhookTimeout:  time.Second,
				UserRateBurst:   5,
				UserRateRefill:  1,
			},
			Simulator: SimulatorConfig{JWTSecret: "s"},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:        "no channel",
			mutate:      func(c *Config) { c.Simulator.JWTSecret = "" },
			errContains: "at least one channel",
		},
		{
			name:        "whatsapp without phone number id",
			mutate:      func(c *Config) { c.WhatsApp = WhatsAppConfig{Token: "t", VerifyToken: "v"} },
			errContains: EnvWhatsAppPhoneNumberID,
		},
		{
			name:        "line without secret",
			mutate:      func(c *Config) { c.Line.ChannelToken = "t" },
			errContains: EnvLineChannelSecret,
		},
		{
			name:        "unsupported language",
			mutate:      func(c *Config) { c.Bot.DefaultLanguage = "fr" },
			errContains: EnvDefaultLanguage,
		},
		{
			name:        "vat out of range",
			mutate:      func(c *Config) { c.Bot.VATPercent = 120 },
			errContains: EnvVATPercent,
		},
		{
			name: "r2 without public url",
			mutate: func(c *Config) {
				c.R2 = R2Config{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"}
			},
			errContains: EnvR2PublicBaseURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadForMode_AdminWithoutChannels(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	for _, key := range []string{EnvSimulatorJWTSecret, EnvWhatsAppToken, EnvLineChannelAccessToken} {
		t.Setenv(key, "")
	}

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one channel")

	cfg, err := LoadForMode(AdminMode)
	require.NoError(t, err)
	assert.False(t, cfg.SimulatorEnabled())
}

func TestLoad_ZeroVAT(t *testing.T) {
	t.Setenv(EnvSimulatorJWTSecret, "secret")
	t.Setenv(EnvDataDir, t.TempDir())
	t.Setenv(EnvVATPercent, "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Bot.VATPercent)
}
