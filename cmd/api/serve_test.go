package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/meditrack-api/internal/auth"
	"github.com/redmonkez12/meditrack-api/internal/config"
)

func TestNewTokenCodec(t *testing.T) {
	secret := []byte(strings.Repeat("s", 32))

	codec, err := newTokenCodec(config.AuthConfig{TokenFormat: config.TokenFormatJWT, TokenSecret: secret})
	require.NoError(t, err)
	assert.IsType(t, &auth.JWTCodec{}, codec)

	codec, err = newTokenCodec(config.AuthConfig{TokenFormat: config.TokenFormatPaseto, TokenSecret: secret})
	require.NoError(t, err)
	assert.IsType(t, &auth.PasetoCodec{}, codec)

	_, err = newTokenCodec(config.AuthConfig{TokenFormat: config.TokenFormatPaseto, TokenSecret: []byte("short")})
	assert.Error(t, err)

	_, err = newTokenCodec(config.AuthConfig{TokenFormat: "saml", TokenSecret: secret})
	assert.Error(t, err)
}

func TestNeedsRedis(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, needsRedis(cfg))

	cfg.RateLimit.Enabled = true
	assert.True(t, needsRedis(cfg))

	cfg = &config.Config{}
	cfg.Auth.RevocationEnabled = true
	assert.True(t, needsRedis(cfg))
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())

	for _, name := range []string{"up", "down", "status"} {
		cmd, _, err := root.Find([]string{"migrate", name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}

	assert.NotNil(t, root.RunE)
}
