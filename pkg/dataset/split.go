package dataset

import (
	"math/rand"

	"github.com/perioscan/perioscan/pkg/annotation"
)

// Split defaults.
const (
	DefaultValSplit = 0.2
	DefaultSeed     = 42
)

// Split deterministically partitions the trainable records into train and
// validation subsets. The shuffle is an explicit Fisher-Yates over
// math/rand's seeded source, so the same input list, seed and fraction
// produce the same partition on every run and machine; the cut falls at
// floor(n*(1-valSplit)). The input slice is not modified.
func Split(records []*annotation.Record, valSplit float64, seed int64) (train, val []*annotation.Record) {
	shuffled := make([]*annotation.Record, len(records))
	copy(shuffled, records)

	rng := rand.New(rand.NewSource(seed))
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	cut := int(float64(len(shuffled)) * (1 - valSplit))
	return shuffled[:cut], shuffled[cut:]
}
