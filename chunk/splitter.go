package chunk

import (
	"fmt"

	"github.com/poiesic/corpus/core"
)

// Split divides text into chunks according to the strategy. Chunks are
// produced in document order; consecutive chunks share Overlap characters.
// The final chunk may be shorter than Size. Empty text yields no chunks.
func Split(text string, strategy core.ChunkingStrategy) ([]string, error) {
	if err := core.ValidateStrategy(strategy); err != nil {
		return nil, err
	}
	if strategy.Kind != core.StrategyFixed {
		return nil, fmt.Errorf("%w: unsupported kind %d", core.ErrInvalidStrategy, strategy.Kind)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := strategy.Size - strategy.Overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)

	for start := 0; start < len(runes); start += step {
		end := start + strategy.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
