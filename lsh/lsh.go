/*
Package lsh implements the LSH banding post-processor: it groups a
corpus of signatures into b bands of r rows and emits candidate pairs
that share a band key.

The band key is built by packing the r signature values into a byte
string with encoding/binary, the way
other_examples/omorillo-minhash-lsh's hashKeyFuncGen packs a []uint64
signature into a lookup key, rather than the comma-joined string the
original LSH.cpp builds with ostringstream.
*/
package lsh

import (
	"encoding/binary"
)

// Pair is an unordered candidate pair (A, B) with A < B.
type Pair struct {
	A, B int
}

func bandKey(sig []uint32, band, r int) string {
	buf := make([]byte, r*4)
	for i := 0; i < r; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], sig[band*r+i])
	}
	return string(buf)
}

// ComputeLSH partitions each of n signatures (each of length b*r) into
// b bands of r rows, and returns the set of unordered candidate pairs
// that co-occur in at least one band. A pair appears at most once
// regardless of how many bands collide; a signature never pairs with
// itself.
func ComputeLSH(sigs [][]uint32, r, b int) map[Pair]struct{} {
	candidates := make(map[Pair]struct{})

	for band := 0; band < b; band++ {
		buckets := make(map[string][]int)
		for i, sig := range sigs {
			key := bandKey(sig, band, r)
			buckets[key] = append(buckets[key], i)
		}
		for _, members := range buckets {
			if len(members) < 2 {
				continue
			}
			for x := 0; x < len(members); x++ {
				for y := x + 1; y < len(members); y++ {
					a, c := members[x], members[y]
					if a > c {
						a, c = c, a
					}
					candidates[Pair{A: a, B: c}] = struct{}{}
				}
			}
		}
	}

	return candidates
}
