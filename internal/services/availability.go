package services

import (
	"encoding/binary"
	"hash/fnv"
)

// AvailabilityRule decides a slot's nominal availability when it is generated.
type AvailabilityRule interface {
	Available(slotID string) bool
}

// AlwaysAvailable marks every generated slot as bookable.
type AlwaysAvailable struct{}

// Available always reports true.
func (AlwaysAvailable) Available(string) bool { return true }

// SeededAvailability marks roughly Ratio of all slots as bookable. The
// decision for a slot depends only on Seed and the slot id, so regenerating
// a window always yields the same flags.
type SeededAvailability struct {
	Seed  int64
	Ratio float64
}

// Available hashes the seed and slot id into [0,1) and compares with Ratio.
func (r SeededAvailability) Available(slotID string) bool {
	if r.Ratio >= 1 {
		return true
	}
	if r.Ratio <= 0 {
		return false
	}

	h := fnv.New64a()
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(r.Seed))
	h.Write(seed[:])
	h.Write([]byte(slotID))

	// top 53 bits -> uniform float in [0, 1)
	v := float64(h.Sum64()>>11) / (1 << 53)
	return v < r.Ratio
}

// NewAvailabilityRule returns AlwaysAvailable for a ratio of 1 or more and a
// SeededAvailability otherwise.
func NewAvailabilityRule(seed int64, ratio float64) AvailabilityRule {
	if ratio >= 1 {
		return AlwaysAvailable{}
	}
	return SeededAvailability{Seed: seed, Ratio: ratio}
}
