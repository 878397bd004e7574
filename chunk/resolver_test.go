package chunk

import (
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
)

func TestResolveStrategy_RequestOverrideWins(t *testing.T) {
	req := &core.IngestionRequest{StrategySize: "500", StrategyOverlap: "50"}
	configured := core.FixedStrategy(2000, 400)
	collection := &core.Collection{
		Id:                    "col-1",
		AllowStrategyOverride: true,
		Strategy:              &configured,
	}

	got := ResolveStrategy(req, collection, nil)
	assert.Equal(t, core.FixedStrategy(500, 50), got)
}

func TestResolveStrategy_OverrideDisallowed(t *testing.T) {
	req := &core.IngestionRequest{StrategySize: "500", StrategyOverlap: "50"}
	configured := core.FixedStrategy(2000, 400)
	collection := &core.Collection{
		Id:       "col-1",
		Strategy: &configured,
	}

	got := ResolveStrategy(req, collection, nil)
	assert.Equal(t, configured, got, "collection config should win when overrides are disallowed")
}

func TestResolveStrategy_MalformedOverrideFallsBack(t *testing.T) {
	configured := core.FixedStrategy(2000, 400)
	collection := &core.Collection{
		Id:                    "col-1",
		AllowStrategyOverride: true,
		Strategy:              &configured,
	}

	tests := []struct {
		name string
		req  *core.IngestionRequest
	}{
		{"non-numeric size", &core.IngestionRequest{StrategySize: "big", StrategyOverlap: "50"}},
		{"negative overlap", &core.IngestionRequest{StrategySize: "500", StrategyOverlap: "-1"}},
		{"overlap >= size", &core.IngestionRequest{StrategySize: "100", StrategyOverlap: "100"}},
		{"missing overlap", &core.IngestionRequest{StrategySize: "500"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStrategy(tt.req, collection, nil)
			assert.Equal(t, configured, got, "should fall back to collection strategy")
		})
	}
}

func TestResolveStrategy_CollectionConfig(t *testing.T) {
	configured := core.FixedStrategy(800, 100)
	collection := &core.Collection{Id: "col-1", Strategy: &configured}

	got := ResolveStrategy(&core.IngestionRequest{}, collection, nil)
	assert.Equal(t, configured, got)
}

func TestResolveStrategy_Defaults(t *testing.T) {
	got := ResolveStrategy(&core.IngestionRequest{}, nil, nil)
	assert.Equal(t, core.FixedStrategy(core.DefaultChunkSize, core.DefaultChunkOverlap), got)
}

func TestResolveStrategy_AdHocOverrides(t *testing.T) {
	req := &core.IngestionRequest{ChunkSize: "600", ChunkOverlap: "60"}
	got := ResolveStrategy(req, nil, nil)
	assert.Equal(t, core.FixedStrategy(600, 60), got)
}

func TestResolveStrategy_AdHocInvalidCombination(t *testing.T) {
	// Parsing succeeds but overlap >= size; resolution falls back to defaults.
	req := &core.IngestionRequest{ChunkSize: "100", ChunkOverlap: "200"}
	got := ResolveStrategy(req, nil, nil)
	assert.Equal(t, core.FixedStrategy(core.DefaultChunkSize, core.DefaultChunkOverlap), got)
}

func TestResolveStrategy_NeverInvalid(t *testing.T) {
	reqs := []*core.IngestionRequest{
		{},
		{ChunkSize: "abc", ChunkOverlap: "-5"},
		{StrategySize: "0", StrategyOverlap: "0"},
		{ChunkSize: "1", ChunkOverlap: "0"},
	}
	for _, req := range reqs {
		got := ResolveStrategy(req, nil, nil)
		assert.NoError(t, core.ValidateStrategy(got), "resolved strategy must always validate")
	}
}
