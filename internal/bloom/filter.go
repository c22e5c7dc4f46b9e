// Package bloom provides a probabilistic membership filter over dimension
// attribute values. It is built once during snapshot load and read-only
// afterwards, so lookups need no locking. A miss is definitive: a filter
// value that is not in the set cannot match any fact row, which lets the
// query path skip the dimension scan entirely.
package bloom

import (
	"math"

	"github.com/spaolacci/murmur3"
)

// Filter is a bloom filter with a configurable false positive rate.
// It guarantees no false negatives: if a value was added, Contains always
// returns true.
type Filter struct {
	bits      []uint64
	numBits   uint64
	numHashes uint64
	count     uint64
}

// New creates a Filter with the specified number of bits and hash functions.
func New(numBits, numHashes int) *Filter {
	if numBits <= 0 {
		numBits = 1024
	}
	if numHashes <= 0 {
		numHashes = 7
	}

	// Round up to a whole number of 64-bit words.
	numWords := (numBits + 63) / 64
	return &Filter{
		bits:      make([]uint64, numWords),
		numBits:   uint64(numWords * 64),
		numHashes: uint64(numHashes),
	}
}

// NewWithEstimates creates a Filter sized for the expected number of
// distinct values and target false positive rate.
func NewWithEstimates(expectedItems int, targetFPR float64) *Filter {
	numBits, numHashes := OptimalParameters(expectedItems, targetFPR)
	return New(numBits, numHashes)
}

// OptimalParameters calculates the optimal number of bits and hash
// functions for a given expected item count and false positive rate.
//
// The formulas are:
//   - m = -n * ln(p) / (ln(2)^2)  where m = bits, n = items, p = FPR
//   - k = (m/n) * ln(2)           where k = hash functions
func OptimalParameters(expectedItems int, targetFPR float64) (numBits, numHashes int) {
	if expectedItems <= 0 {
		expectedItems = 1000
	}
	if targetFPR <= 0 || targetFPR >= 1 {
		targetFPR = 0.01
	}

	n := float64(expectedItems)
	ln2 := math.Ln2

	m := -n * math.Log(targetFPR) / (ln2 * ln2)
	numBits = int(math.Ceil(m))

	k := (m / n) * ln2
	numHashes = int(math.Ceil(k))

	if numBits < 64 {
		numBits = 64
	}
	if numHashes < 1 {
		numHashes = 1
	}

	return numBits, numHashes
}

// Add adds a value to the filter. Add must not be called concurrently
// with Contains; the dataset loader finishes all Adds before the filter
// is published.
func (f *Filter) Add(value string) {
	h1, h2 := hash128(value)
	for i := uint64(0); i < f.numHashes; i++ {
		// Double hashing: h(i) = h1 + i*h2
		f.setBit((h1 + i*h2) % f.numBits)
	}
	f.count++
}

// Contains tests whether a value might be in the filter. True may be a
// false positive; false is definitive.
func (f *Filter) Contains(value string) bool {
	h1, h2 := hash128(value)
	for i := uint64(0); i < f.numHashes; i++ {
		if !f.getBit((h1 + i*h2) % f.numBits) {
			return false
		}
	}
	return true
}

// Count returns the number of values added to the filter.
func (f *Filter) Count() uint64 {
	return f.count
}

// NumBits returns the number of bits in the filter.
func (f *Filter) NumBits() int {
	return int(f.numBits)
}

// NumHashes returns the number of hash functions used.
func (f *Filter) NumHashes() int {
	return int(f.numHashes)
}

// FalsePositiveRate returns the estimated false positive rate based on
// the current fill ratio: (1 - e^(-k*n/m))^k.
func (f *Filter) FalsePositiveRate() float64 {
	if f.count == 0 {
		return 0
	}
	k := float64(f.numHashes)
	n := float64(f.count)
	m := float64(f.numBits)
	return math.Pow(1-math.Exp(-k*n/m), k)
}

func hash128(value string) (uint64, uint64) {
	h := murmur3.New128()
	h.Write([]byte(value))
	return h.Sum128()
}

func (f *Filter) setBit(pos uint64) {
	f.bits[pos/64] |= 1 << (pos % 64)
}

func (f *Filter) getBit(pos uint64) bool {
	return f.bits[pos/64]&(1<<(pos%64)) != 0
}
