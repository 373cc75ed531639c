/*
Package dss implements the Dynamic Similarity Sketch: a logarithmic
two-dimensional counting-array sketch sized to the universe that
supports deletion natively and exposes a size-sensitive MinHash
signature, following Alg. 1 of "Similarity Search for
Dynamic Data Streams".

Update does NOT double-count when i == 0 — T[0][j] is written exactly
once per call, so row 0 is the column aggregate of every update:
T[0][j] equals the updates with lsb 0 in column j plus
sum_{i>=1} T[i][j], and the size equals sum_j T[0][j].
*/
package dss

import (
	"errors"
	"math"

	"github.com/alessandrostr/dynsketch/hashfam"
	"github.com/alessandrostr/dynsketch/sketch"
)

// Absent is the distinguished "no value" hash.
const Absent = hashfam.Absent

// Dss is a logarithmic counting-array similarity sketch. Not safe for
// concurrent use: single writer, single reader. Signature reads write
// into a caller-visible scratch buffer; callers must copy it before
// issuing another query if the prior result is still needed.
type Dss struct {
	universe uint32
	c        uint32
	kRows    int

	h1 hashfam.Hash // pairwise, U -> U
	h2 hashfam.Hash // pairwise, U -> [0, c)

	gs        []hashfam.Hash // t independent minhashes
	ownHashes bool

	t   int
	T   [][]int64
	sz  int64
	sig []uint32
}

// New constructs a Dss over universe size universe with c columns and
// t independent MinHash functions, generating its own pairwise hash
// instances.
func New(universe, c uint32, t int) (*Dss, error) {
	if universe == 0 {
		return nil, errors.New("dss: universe must be > 0")
	}
	if c == 0 {
		return nil, errors.New("dss: c must be > 0")
	}
	if t <= 0 {
		return nil, errors.New("dss: t must be > 0")
	}
	h1, err := hashfam.NewPairwise(universe, nil)
	if err != nil {
		return nil, err
	}
	h2, err := hashfam.NewPairwise(c, nil)
	if err != nil {
		return nil, err
	}
	gs := make([]hashfam.Hash, t)
	for i := range gs {
		g, err := hashfam.NewPairwise(universe, nil)
		if err != nil {
			return nil, err
		}
		gs[i] = g
	}
	return NewWithHashes(universe, c, h1, h2, gs, true)
}

// NewWithHashes constructs a Dss sharing externally-owned hash
// instances. Two sketches compared with Similarity must share h1, h2
// and every g.
func NewWithHashes(universe, c uint32, h1, h2 hashfam.Hash, gs []hashfam.Hash, ownHashes bool) (*Dss, error) {
	if universe == 0 {
		return nil, errors.New("dss: universe must be > 0")
	}
	if c == 0 {
		return nil, errors.New("dss: c must be > 0")
	}
	if len(gs) == 0 {
		return nil, errors.New("dss: need at least one minhash function")
	}
	kRows := int(math.Floor(math.Log2(float64(universe)))) + 1
	T := make([][]int64, kRows)
	for i := range T {
		T[i] = make([]int64, c)
	}
	d := &Dss{
		universe:  universe,
		c:         c,
		kRows:     kRows,
		h1:        h1,
		h2:        h2,
		gs:        gs,
		ownHashes: ownHashes,
		t:         len(gs),
		T:         T,
		sig:       make([]uint32, len(gs)),
	}
	return d, nil
}

// lsb returns the 0-based index of the least-significant set bit of
// y, and kRows-1 (== floor(log2(U))) when y == 0.
func (d *Dss) lsb(y uint32) int {
	if y == 0 {
		return d.kRows - 1
	}
	return trailingZeros32(y)
}

func trailingZeros32(y uint32) int {
	n := 0
	for y&1 == 0 {
		y >>= 1
		n++
	}
	return n
}

// Size returns the current represented cardinality (sum of inserts
// minus removes).
func (d *Dss) Size() int64 { return d.sz }

// Reset restores every counter to zero.
func (d *Dss) Reset() {
	for i := range d.T {
		for j := range d.T[i] {
			d.T[i][j] = 0
		}
	}
	d.sz = 0
}

// Insert streams element x into the sketch.
func (d *Dss) Insert(x uint32) { d.update(x, 1) }

// Remove removes element x from the sketch. DSS never faults: the
// return value is always false.
func (d *Dss) Remove(x uint32) bool {
	d.update(x, -1)
	return false
}

func (d *Dss) update(x uint32, op int64) {
	i := d.lsb(d.h1.Hash(x))
	j := d.h2.Hash(x) % d.c

	d.T[i][j] += op
	if i != 0 {
		d.T[0][j] += op
	}
	d.sz += op
}

// minHashOne returns the MinHash of row under the t_idx-th independent
// hash function: the minimum hash of (j + row*c) over every nonzero
// column j, or Absent if the row is entirely zero.
func (d *Dss) minHashOne(tIdx, row int) uint32 {
	minh := Absent
	base := uint32(row) * d.c
	for j, v := range d.T[row] {
		if v == 0 {
			continue
		}
		h := d.gs[tIdx].Hash(base + uint32(j))
		if h < minh {
			minh = h
		}
	}
	return minh
}

// MinHash fills and returns the t-valued MinHash signature of row.
// The returned slice aliases the sketch's scratch buffer.
func (d *Dss) MinHash(row int) []uint32 {
	for i := 0; i < d.t; i++ {
		d.sig[i] = d.minHashOne(i, row)
	}
	return d.sig
}

// Signature returns MinHash(row) where row is chosen from alpha, r and
// the current size. Defaults alpha = r = 1.
func (d *Dss) Signature(alpha, r float64) []uint32 {
	row := int(math.Floor(math.Log2(alpha * r * float64(d.sz))))
	if row < 0 {
		row = 0
	}
	if row >= d.kRows {
		row = d.kRows - 1
	}
	return d.MinHash(row)
}

// Mem returns a diagnostic memory-accounting figure: c*kRows + t.
func (d *Dss) Mem() int {
	return int(d.c)*d.kRows + d.t
}

func sizeRange(alpha, r float64, size int64) (sx, dx int) {
	sx = int(math.Floor(math.Log2(alpha * r * float64(size))))
	dx = int(math.Floor(math.Log2(alpha * float64(size))))
	return
}

// Similarity estimates the Jaccard similarity of the sets represented
// by a and b, tuned by alpha and r. Both must share h1, h2 and every
// g. When the two sketches' viable row ranges don't
// intersect, falls back to min(|a|,|b|)/max(|a|,|b|).
func Similarity(a, b *Dss, alpha, r float64) float64 {
	sxA, dxA := sizeRange(alpha, r, a.sz)
	sxB, dxB := sizeRange(alpha, r, b.sz)

	if dxA < sxB || sxA > dxB {
		sa, sb := float64(a.sz), float64(b.sz)
		if sa == 0 && sb == 0 {
			return 1
		}
		lo, hi := sa, sb
		if hi < lo {
			lo, hi = hi, lo
		}
		if hi == 0 {
			return 0
		}
		return lo / hi
	}

	row := dxA
	if dxB < row {
		row = dxB
	}
	if row < 0 {
		row = 0
	}
	if row >= a.kRows {
		row = a.kRows - 1
	}
	if row >= b.kRows {
		row = b.kRows - 1
	}

	sigA := append([]uint32(nil), a.MinHash(row)...)
	sigB := b.MinHash(row)

	var k float64
	for i := range sigA {
		if sigA[i] == sigB[i] {
			k++
		}
	}
	return k / float64(a.t)
}

// Adapter exposes a Dss through the shared sketch.Sketch capability,
// using the default alpha = r = 1 tuning for Signature().
type Adapter struct{ *Dss }

// Kind implements sketch.Sketch.
func (Adapter) Kind() sketch.Kind { return sketch.KindDSS }

// Signature implements sketch.Sketch using alpha = r = 1.
func (a Adapter) Signature() []uint32 { return a.Dss.Signature(1, 1) }
