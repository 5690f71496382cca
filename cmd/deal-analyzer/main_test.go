// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deal-analyzer/pkg/types"
)

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	assert.Equal(t, "Zürich ...", clip("Zürich Fintech AG", 10))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "", redact(""))
	assert.Equal(t, "", redact("unused"))
	assert.Equal(t, "********", redact("sk-ant-123"))
}

func TestLinksCommand(t *testing.T) {
	var out bytes.Buffer
	linksCmd.SetOut(&out)
	linksCmd.SetIn(strings.NewReader("Deck: https://docsend.com/view/abc123 and again https://docsend.com/view/abc123"))
	t.Cleanup(func() { linksCmd.SetIn(nil); linksCmd.SetOut(nil) })

	require.NoError(t, linksCmd.RunE(linksCmd, nil))
	assert.Equal(t, "https://docsend.com/view/abc123\n", out.String())
}

func TestLinksCommandNoLinks(t *testing.T) {
	linksCmd.SetIn(strings.NewReader("no links here"))
	t.Cleanup(func() { linksCmd.SetIn(nil) })

	assert.Error(t, linksCmd.RunE(linksCmd, nil))
}

func TestSetDefaultsRoundTrip(t *testing.T) {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())

	var cfg types.Config
	require.NoError(t, v.Unmarshal(&cfg))
	d := types.DefaultConfig()
	assert.Equal(t, d.Completion.Provider, cfg.Completion.Provider)
	assert.Equal(t, d.Checkpoint.FreshnessWindow, cfg.Checkpoint.FreshnessWindow)
	assert.Equal(t, d.Source.AllowedDomains, cfg.Source.AllowedDomains)
	assert.Equal(t, d.Notify.Attempts, cfg.Notify.Attempts)
}

func TestLoadConfigWithoutCompletionKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	loadedSecrets = nil
	viper.Reset()
	setDefaults(viper.GetViper(), types.DefaultConfig())
	t.Cleanup(viper.Reset)

	cfg, err := loadConfig(false)
	require.NoError(t, err)
	assert.Equal(t, "unused", cfg.Completion.APIKey)

	_, err = loadConfig(true)
	assert.Error(t, err)
}
