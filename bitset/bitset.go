/*
Package bitset implements the dense bit-array universe representation
used by synthetic test-set generation. It mirrors
BitArray.cpp's operations, with hardware popcount provided by
math/bits instead of a compiler intrinsic.
*/
package bitset

import (
	"math/bits"
	"math/rand/v2"
)

// BitArray is a dense bit-array over [0, U). Two bit-arrays may only
// be combined with the set operations below if they share the same U.
type BitArray struct {
	u    uint32
	bits []uint64
}

func words(u uint32) int {
	return int(u)/64 + 1
}

// New returns an empty BitArray over the universe [0, U).
func New(u uint32) *BitArray {
	return &BitArray{u: u, bits: make([]uint64, words(u))}
}

// U returns the universe size this bit-array was constructed with.
func (b *BitArray) U() uint32 { return b.u }

// Flip toggles the bit at index i.
func (b *BitArray) Flip(i uint32) {
	b.bits[i/64] ^= 1 << (i % 64)
}

// Get returns whether the bit at index i is set.
func (b *BitArray) Get(i uint32) bool {
	return b.bits[i/64]&(1<<(i%64)) != 0
}

// Create returns a fresh BitArray over [0, U) with each bit set
// independently with probability p (Bernoulli sampling).
func Create(u uint32, p float64, rng *rand.Rand) *BitArray {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	b := New(u)
	for i := uint32(0); i < u; i++ {
		if rng.Float64() <= p {
			b.Flip(i)
		}
	}
	return b
}

// Perturbate returns a new BitArray derived from b: each set bit is
// flipped (cleared) with probability p1, and each clear bit is
// flipped (set) with probability p2. The receiver is left unmodified.
func (b *BitArray) Perturbate(p1, p2 float64, rng *rand.Rand) *BitArray {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	out := &BitArray{u: b.u, bits: append([]uint64(nil), b.bits...)}
	for i := uint32(0); i < b.u; i++ {
		x := rng.Float64()
		set := b.Get(i)
		if (set && x <= p1) || (!set && x <= p2) {
			out.Flip(i)
		}
	}
	return out
}

// CountOne returns the number of set bits.
func (b *BitArray) CountOne() uint32 {
	var count uint32
	for _, w := range b.bits {
		count += uint32(bits.OnesCount64(w))
	}
	return count
}

// SizeIntersection returns |A ∩ B|. A and B must share the same U.
func SizeIntersection(a, b *BitArray) uint32 {
	var count uint32
	for i := range a.bits {
		count += uint32(bits.OnesCount64(a.bits[i] & b.bits[i]))
	}
	return count
}

// SizeUnion returns |A ∪ B|. A and B must share the same U.
func SizeUnion(a, b *BitArray) uint32 {
	var count uint32
	for i := range a.bits {
		count += uint32(bits.OnesCount64(a.bits[i] | b.bits[i]))
	}
	return count
}

// JaccardSim returns |A ∩ B| / |A ∪ B|. A and B must share the same U.
func JaccardSim(a, b *BitArray) float64 {
	u := SizeUnion(a, b)
	if u == 0 {
		return 0
	}
	return float64(SizeIntersection(a, b)) / float64(u)
}
