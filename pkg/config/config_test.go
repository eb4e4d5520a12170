package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/towline/pkg/config"
)

type testConfig struct {
	Port  string       `env:"PORT" envDefault:"8080"`
	Neo4j config.Neo4j `envPrefix:"NEO4J_"`
	Redis config.Redis `envPrefix:"REDIS_"`
	VPIC  config.VPIC  `envPrefix:"VPIC_"`
}

type prefixed struct {
	Inner testConfig `envPrefix:"TOWLINE_TEST_"`
}

type requiredConfig struct {
	Secret string `env:"TOWLINE_TEST_REQUIRED_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load[testConfig]("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 5.0, cfg.VPIC.Rate)
	assert.Equal(t, 15*time.Second, cfg.VPIC.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("TOWLINE_TEST_PORT", "7000")
	for _, k := range []string{"TOWLINE_TEST_NEO4J_USER", "TOWLINE_TEST_REDIS_TTL"} {
		os.Unsetenv(k)
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	cfg, err := config.Load[prefixed]("testdata/test.env")
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Inner.Port, "environment wins over the file")
	assert.Equal(t, "yard", cfg.Inner.Neo4j.User)
	assert.Equal(t, 90*time.Second, cfg.Inner.Redis.TTL)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Inner.Neo4j.URL)
}

func TestLoad_Required(t *testing.T) {
	_, err := config.Load[requiredConfig]("testdata/missing.env")
	require.ErrorIs(t, err, config.ErrParsing)
}
