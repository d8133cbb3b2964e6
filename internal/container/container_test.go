package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecocausal/adapters/memory"
	"ecocausal/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Analysis: config.AnalysisConfig{
			Solver:        config.SolverGradient,
			PValueMode:    config.PValueApproximate,
			DefaultMaxLag: 12,
			Workers:       2,
		},
	}
}

func TestNew_RejectsNilConfig(t *testing.T) {
	c, err := New(nil)
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_WiresEverything(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	assert.NotNil(t, c.Correlator)
	assert.NotNil(t, c.LagEngine)
	assert.NotNil(t, c.Granger)
	assert.NotNil(t, c.Regression)
	assert.NotNil(t, c.Aggregator)
	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Reader)
	assert.NotNil(t, c.Service)
	assert.NotNil(t, c.Server)

	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestNew_MemoryStoreWithoutDatabaseURL(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	assert.IsType(t, &memory.AnalysisStoreImpl{}, c.Store)
	assert.Nil(t, c.DB)
}

func TestNew_ExactModes(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.Solver = config.SolverExact
	cfg.Analysis.PValueMode = config.PValueExact

	c, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, c.Granger)
	assert.NotNil(t, c.Regression)
}

func TestNew_MissingMechanismsFile(t *testing.T) {
	cfg := testConfig()
	cfg.Paths.MechanismsFile = "/nonexistent/mechanisms.yaml"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engines")
}
