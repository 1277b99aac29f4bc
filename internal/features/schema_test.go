package features

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureNamesOrder(t *testing.T) {
	names := FeatureNames()
	require.Len(t, names, FeatureCount)
	assert.Equal(t, "recent_form", names[FeatRecentForm])
	assert.Equal(t, "usage_rate", names[FeatUsageRate])
	assert.Equal(t, "time_decay_weight", names[FeatTimeDecayWeight])

	names[0] = "mutated"
	assert.Equal(t, "recent_form", FeatureName(0))
}

func TestMatchesSchema(t *testing.T) {
	assert.True(t, MatchesSchema(FeatureNames(), SchemaVersion))
	assert.False(t, MatchesSchema(FeatureNames(), "player-form-v0"))
	assert.False(t, MatchesSchema(FeatureNames()[:25], SchemaVersion))

	swapped := FeatureNames()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.False(t, MatchesSchema(swapped, SchemaVersion))
}

func TestFeatureVectorValidate(t *testing.T) {
	fv := NewFeatureVector()
	require.NoError(t, fv.Validate())

	fv.Values[FeatUsageRate] = math.NaN()
	err := fv.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFeature))

	var invalid *InvalidFeatureError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "usage_rate", invalid.Feature)
}

func TestFeatureVectorMap(t *testing.T) {
	fv := NewFeatureVector()
	fv.Values[FeatIsHome] = 1
	m := fv.Map()
	assert.Len(t, m, FeatureCount)
	assert.Equal(t, 1.0, m["is_home"])
}
