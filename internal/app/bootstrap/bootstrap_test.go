package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/cura-ai/scheduling-assistant/internal/config"
	"github.com/cura-ai/scheduling-assistant/internal/conversation"
	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

func testConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	cfg := appconfig.Load()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestBuildExtractorFallsBackToHeuristic(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKey = ""

	ex, closer, err := BuildExtractor(t.Context(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer closer()

	assert.IsType(t, &extract.HeuristicExtractor{}, ex)
}

func TestBuildRephraserAbsentWithoutKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeminiAPIKey = ""

	rp, closer, err := BuildRephraser(t.Context(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer closer()

	assert.Nil(t, rp)
}

func TestBuildSessionStoreDefaultsToMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionBackend = "memory"

	st, closer, err := BuildSessionStore(cfg, logging.New("error"))
	require.NoError(t, err)
	defer closer()

	assert.IsType(t, &conversation.MemorySessionStore{}, st)
}

func TestBuildDriverWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.New("error")

	st, err := BuildStore(cfg, logger)
	require.NoError(t, err)

	driver, closer, err := BuildDriver(t.Context(), cfg, st, nil, logger)
	require.NoError(t, err)
	defer closer()

	assert.NotNil(t, driver)
}

func TestBuildReminderAgent(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.New("error")

	st, err := BuildStore(cfg, logger)
	require.NoError(t, err)

	assert.NotNil(t, BuildReminderAgent(cfg, st, nil, logger))
}
