package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("service", "ProgressService")

	log.Warn("write failed", "trainer_id", "ash_ketchum_10")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "write failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "ProgressService", fields["service"])
	assert.Equal(t, "ash_ketchum_10", fields["trainer_id"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", ""} {
		t.Run(mode, func(t *testing.T) {
			log, err := New(mode)
			require.NoError(t, err)
			log.Info("hello")
		})
	}
}

func TestNopDiscards(t *testing.T) {
	log := NewNop()
	log.Error("ignored", "k", "v")
}
