package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testKnown = []string{StrategyGradient, StrategyForest, StrategyLinear}

func TestNewModelVersion(t *testing.T) {
	t.Run("accepts weights summing to one", func(t *testing.T) {
		mv, err := NewModelVersion("v1", map[string]float64{
			StrategyGradient: 0.4,
			StrategyForest:   0.35,
			StrategyLinear:   0.25,
		}, testKnown)

		require.NoError(t, err)
		assert.Equal(t, "v1", mv.Version)
		assert.Len(t, mv.Weights, 3)
	})

	t.Run("accepts sums within tolerance", func(t *testing.T) {
		_, err := NewModelVersion("v1", map[string]float64{
			StrategyGradient: 0.5,
			StrategyLinear:   0.5 + 5e-7,
		}, testKnown)

		assert.NoError(t, err)
	})

	t.Run("rejects weights not summing to one", func(t *testing.T) {
		_, err := NewModelVersion("bad", map[string]float64{
			StrategyGradient: 0.5,
			StrategyLinear:   0.6,
		}, testKnown)

		var loadErr ModelLoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "bad", loadErr.Version)
	})

	t.Run("rejects unknown strategy names", func(t *testing.T) {
		_, err := NewModelVersion("bad", map[string]float64{"psychic": 1.0}, testKnown)

		var loadErr ModelLoadError
		assert.ErrorAs(t, err, &loadErr)
	})

	t.Run("rejects negative weights", func(t *testing.T) {
		_, err := NewModelVersion("bad", map[string]float64{
			StrategyGradient: 1.5,
			StrategyLinear:   -0.5,
		}, testKnown)

		var loadErr ModelLoadError
		assert.ErrorAs(t, err, &loadErr)
	})

	t.Run("copies the weights map", func(t *testing.T) {
		weights := map[string]float64{StrategyGradient: 1.0}
		mv, err := NewModelVersion("v1", weights, testKnown)
		require.NoError(t, err)

		weights[StrategyGradient] = 0.1

		assert.Equal(t, 1.0, mv.Weights[StrategyGradient])
	})
}

func TestRegistry(t *testing.T) {
	t.Run("first registered version becomes active", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())

		_, err := reg.Register("v1", map[string]float64{StrategyLinear: 1.0})
		require.NoError(t, err)

		active, err := reg.Active()
		require.NoError(t, err)
		assert.Equal(t, "v1", active.Version)
	})

	t.Run("no active model before registration", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())

		_, err := reg.Active()

		assert.ErrorIs(t, err, ErrNoActiveModel)
	})

	t.Run("activate swaps versions atomically", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())
		_, err := reg.Register("v1", map[string]float64{StrategyLinear: 1.0})
		require.NoError(t, err)
		_, err = reg.Register("v2", map[string]float64{StrategyGradient: 1.0})
		require.NoError(t, err)

		_, err = reg.Activate("v2")
		require.NoError(t, err)

		active, err := reg.Active()
		require.NoError(t, err)
		assert.Equal(t, "v2", active.Version)

		// Old version stays addressable for rollback
		old, err := reg.Get("v1")
		require.NoError(t, err)
		assert.Equal(t, 1.0, old.Weights[StrategyLinear])
	})

	t.Run("duplicate version names rejected", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())
		_, err := reg.Register("v1", map[string]float64{StrategyLinear: 1.0})
		require.NoError(t, err)

		_, err = reg.Register("v1", map[string]float64{StrategyLinear: 1.0})

		assert.ErrorIs(t, err, ErrDuplicateModel)
	})

	t.Run("invalid weights never become active", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())

		_, err := reg.Register("bad", map[string]float64{StrategyLinear: 0.7})
		require.Error(t, err)

		_, err = reg.Active()
		assert.ErrorIs(t, err, ErrNoActiveModel)
	})

	t.Run("versions preserve registration order", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())
		_, _ = reg.Register("v1", map[string]float64{StrategyLinear: 1.0})
		_, _ = reg.Register("v2", map[string]float64{StrategyForest: 1.0})
		_, _ = reg.Register("v3", map[string]float64{StrategyGradient: 1.0})

		assert.Equal(t, []string{"v1", "v2", "v3"}, reg.Versions())
	})

	t.Run("activating an unknown version fails", func(t *testing.T) {
		reg := NewRegistry(testKnown, zap.NewNop())

		_, err := reg.Activate("ghost")

		assert.ErrorIs(t, err, ErrUnknownVersion)
	})
}
