package engagement

import (
	"testing"

	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSeedMappings(t *testing.T) {
	seed := SeedMappings()
	require.Len(t, seed, 20)
	assert.Equal(t, "20006", seed[0].ID)
	assert.Equal(t, domain.DirectionRight, seed[0].Direction)

	seed[0].Description = "changed"
	assert.NotEqual(t, "changed", SeedMappings()[0].Description)
}

func TestMergeMappings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	seed := SeedMappings()
	discovered := []domain.DiscoveredTopic{
		{ID: "6679", Description: "Increased spending on the NHS"},
		{ID: "982", Description: "more social housing"},
		{ID: "5555", Description: "a new policy"},
		{ID: "5555", Description: "a new policy"},
	}

	merged := MergeMappings(seed, discovered, zap.New(core))
	require.Len(t, merged, 21)
	assert.Equal(t, seed, merged[:20])

	added := merged[20]
	assert.Equal(t, "5555", added.ID)
	assert.Equal(t, UnknownCategory, added.Category)
	assert.Equal(t, domain.DirectionLeft, added.Direction)

	for _, m := range merged {
		if m.ID == "6679" {
			assert.Equal(t, "increased NHS funding", m.Description)
		}
	}

	// one mismatch warning, one unknown-id warning
	assert.Equal(t, 2, logs.Len())
	assert.Len(t, SeedMappings(), 20)
}

func TestMergeMappingsNoDiscovery(t *testing.T) {
	merged := MergeMappings(SeedMappings(), nil, zap.NewNop())
	assert.Equal(t, SeedMappings(), merged)
}
