package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/svc/premium"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestRootCommandListsSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCommand().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["version"])
}

func TestLoadTiers(t *testing.T) {
	tiers, err := loadTiers("")
	require.NoError(t, err)
	assert.Equal(t, premium.DefaultTiers(), tiers)

	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
free: {max_streams_per_pack: 2, max_packs: 1, vod_sync: false, private_packs: false, adaptive_quality: false}
premium: {max_streams_per_pack: 9, max_packs: 50, vod_sync: true, private_packs: true, adaptive_quality: true}
`), 0o600))
	tiers, err = loadTiers(path)
	require.NoError(t, err)
	assert.Equal(t, 9, tiers.Premium.MaxStreamsPerPack)

	_, err = loadTiers(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
