// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chunk

import (
	"log/slog"
	"strconv"

	"github.com/poiesic/corpus/core"
)

// ResolveStrategy resolves the chunking strategy for a job from the request,
// the target collection and the defaults. It never fails: malformed input
// falls back to the next candidate in precedence order.
//
// collection may be nil when the request targets the repository default.
func ResolveStrategy(req *core.IngestionRequest, collection *core.Collection, logger *slog.Logger) core.ChunkingStrategy {
	if logger == nil {
		logger = slog.Default()
	}

	// Request-level explicit strategy, gated by the collection's override flag.
	if collection != nil && collection.AllowStrategyOverride {
		if s, ok := parseFixed(req.StrategySize, req.StrategyOverlap); ok {
			return s
		}
		if req.StrategySize != "" || req.StrategyOverlap != "" {
			logger.Warn("ignoring malformed request strategy, falling back",
				"size", req.StrategySize, "overlap", req.StrategyOverlap)
		}
	}

	// Collection-configured strategy.
	if collection != nil && collection.Strategy != nil {
		if err := core.ValidateStrategy(*collection.Strategy); err == nil {
			return *collection.Strategy
		}
		logger.Warn("collection strategy invalid, falling back to default",
			"collection", collection.Id)
	}

	// Default, with ad hoc size/overlap overrides from the request.
	size := core.DefaultChunkSize
	if v, ok := parsePositive(req.ChunkSize); ok {
		size = v
	}
	overlap := core.DefaultChunkOverlap
	if v, ok := parseNonNegative(req.ChunkOverlap); ok {
		overlap = v
	}

	s := core.FixedStrategy(size, overlap)
	if err := core.ValidateStrategy(s); err != nil {
		logger.Warn("ad hoc chunk parameters invalid, using defaults",
			"size", size, "overlap", overlap)
		return core.FixedStrategy(core.DefaultChunkSize, core.DefaultChunkOverlap)
	}
	return s
}

// parseFixed parses an explicit Fixed strategy from string parameters.
// Both values must be present, parse as integers and satisfy overlap < size.
func parseFixed(sizeStr, overlapStr string) (core.ChunkingStrategy, bool) {
	size, ok := parsePositive(sizeStr)
	if !ok {
		return core.ChunkingStrategy{}, false
	}
	overlap, ok := parseNonNegative(overlapStr)
	if !ok {
		return core.ChunkingStrategy{}, false
	}

	s := core.FixedStrategy(size, overlap)
	if err := core.ValidateStrategy(s); err != nil {
		return core.ChunkingStrategy{}, false
	}
	return s, true
}

func parsePositive(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseNonNegative(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
