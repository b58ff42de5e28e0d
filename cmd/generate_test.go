package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGenerateConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blueprint: post_and_beam\nscenes: 4\nperturbation: 0.1\n"), 0o644))

	cmd := generateCmd
	t.Cleanup(func() {
		genConfigFile = ""
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	})
	genConfigFile = path
	require.NoError(t, cmd.Flags().Set("scenes", "7"))
	require.NoError(t, cmd.Flags().Set("hard", "true"))
	require.NoError(t, cmd.Flags().Set("timeout", "2s"))

	cfg, err := loadGenerateConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "post_and_beam", cfg.Blueprint)
	assert.Equal(t, 7, cfg.Scenes)
	assert.Equal(t, 0.1, cfg.Perturbation)
	assert.Equal(t, "hard", cfg.Solver.Mode)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}
