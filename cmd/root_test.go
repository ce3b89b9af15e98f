package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmb-scraper/storage"
	"gmb-scraper/utils"
)

// parsedCmd returns a root command with args parsed and no env file.
func parsedCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := newRootCmd()
	missing := filepath.Join(t.TempDir(), "missing.env")
	require.NoError(t, cmd.Flags().Parse(append([]string{"--env-file", missing}, args...)))
	return cmd
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("GMB_SPREADSHEET_ID", "sheet-123")
	t.Setenv("GMB_MAX_PAGES", "4")
	t.Setenv("GMB_OUTPUT", "from-env.xlsx")

	cmd := parsedCmd(t, "--keywords-file", "keywords.txt", "--max-pages", "2", "--headless")

	cfg, err := loadConfig(cmd)

	require.NoError(t, err)
	assert.Equal(t, "keywords.txt", cfg.KeywordsFile)
	assert.Empty(t, cfg.SpreadsheetID, "an explicit keywords file replaces the sheet")
	assert.Equal(t, 2, cfg.MaxPages)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "from-env.xlsx", cfg.OutputPath)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	cmd := parsedCmd(t, "--keywords-file", "keywords.txt", "--output", "results.json")

	_, err := loadConfig(cmd)

	assert.ErrorContains(t, err, ".xlsx or .csv")
}

func TestKeywordSourceFallsBackToFile(t *testing.T) {
	cfg, err := loadConfig(parsedCmd(t, "--keywords-file", "keywords.txt"))
	require.NoError(t, err)

	source, err := keywordSource(context.Background(), cfg, utils.Discard())

	require.NoError(t, err)
	assert.IsType(t, &storage.FileSource{}, source)
}
