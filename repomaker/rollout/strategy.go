package rollout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/repoforge/repomaker/repomaker/storage"
)

type Strategy struct {
	Parallelism int
}

// ParseStrategy parses a parallelism string and returns a Strategy
// Supports:
// - Empty string: all storages in parallel
// - "1": serial publishing
// - "5": 5 storages at a time
// - "40%": 40% of storages at a time
func ParseStrategy(parallelism string, storageCount int) (*Strategy, error) {
	strategy := &Strategy{}

	// If empty, default to all storages in parallel
	if parallelism == "" {
		strategy.Parallelism = storageCount
		return strategy, nil
	}

	// Check for percentage
	if strings.HasSuffix(parallelism, "%") {
		percentStr := strings.TrimSuffix(parallelism, "%")
		percent, err := strconv.ParseFloat(percentStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percentage format: %s", parallelism)
		}

		if percent <= 0 || percent > 100 {
			return nil, fmt.Errorf("percentage must be between 0 and 100, got: %.2f", percent)
		}

		// Calculate number of storages (at least 1)
		count := int(float64(storageCount) * (percent / 100.0))
		if count < 1 {
			count = 1
		}
		strategy.Parallelism = count
		return strategy, nil
	}

	// Parse as integer
	count, err := strconv.Atoi(parallelism)
	if err != nil {
		return nil, fmt.Errorf("invalid parallelism format: %s (expected number or percentage)", parallelism)
	}

	if count < 1 {
		return nil, fmt.Errorf("parallelism must be at least 1, got: %d", count)
	}

	strategy.Parallelism = count
	return strategy, nil
}

// CreateBatches splits storages into batches based on the strategy
func (s *Strategy) CreateBatches(storages []storage.Storage) [][]storage.Storage {
	if len(storages) == 0 {
		return nil
	}

	// If parallelism >= storage count, single batch
	if s.Parallelism >= len(storages) {
		return [][]storage.Storage{storages}
	}

	// Split into batches
	var batches [][]storage.Storage
	for i := 0; i < len(storages); i += s.Parallelism {
		end := i + s.Parallelism
		if end > len(storages) {
			end = len(storages)
		}
		batches = append(batches, storages[i:end])
	}

	return batches
}
