/*
Package dmh implements the Dynamic MinHash sketch: a k x l buffered
bottom-l MinHash that tolerates deletions up to an l-deep shadow of
dominated hash values, after which a row empties and the sketch
signals a fault.

Each of the k rows keeps up to l hash values in a flat array, scanning
linearly for the row's current max/min.
*/
package dmh

import (
	"errors"

	"github.com/alessandrostr/dynsketch/hashfam"
	"github.com/alessandrostr/dynsketch/sketch"
)

// Absent is the distinguished "no value" hash.
const Absent = hashfam.Absent

// Dmh is a k-row, l-deep buffered bottom-l MinHash sketch. Not safe
// for concurrent use: single writer, single reader.
type Dmh struct {
	k, l int

	hashes    []hashfam.Hash
	ownHashes bool

	// buffer[i*l : i*l+size[i]] holds row i's current values.
	buffer []uint32
	size   []int
	delta  []uint32
	sig    []uint32

	trackElements bool
	elements      map[uint32]struct{}
}

// elemHintCap bounds how large a capacity hint New will pass when
// pre-sizing the element-tracking map; universe can be as large as
// 2^32-1, and a streaming sketch rarely tracks anywhere near that many
// distinct elements at once.
const elemHintCap = 1 << 20

// New constructs a Dmh with k rows of depth l, each row driven by its
// own freshly-constructed Tabulation hash (the default family per
// original_source's ArrayKLMinhash constructor). universe sizes the
// element-tracking map's initial capacity hint when trackElements is
// set; hashing itself always covers the full uint32 domain regardless
// of universe.
func New(k, l int, universe uint32, trackElements bool) (*Dmh, error) {
	if k <= 0 {
		return nil, errors.New("dmh: k must be > 0")
	}
	if l <= 0 {
		return nil, errors.New("dmh: l must be > 0")
	}
	hashes := make([]hashfam.Hash, k)
	for i := range hashes {
		hashes[i] = hashfam.NewTabulation(nil)
	}
	hint := elemHintCap
	if universe < elemHintCap {
		hint = int(universe)
	}
	return newDmh(k, l, hashes, true, trackElements, hint)
}

// NewWithHashes constructs a Dmh sharing externally-owned hash
// instances. ownHashes records whether this sketch is considered the
// owner for documentation purposes; Go's GC makes no functional use of
// the flag.
func NewWithHashes(k, l int, hashes []hashfam.Hash, ownHashes bool, trackElements bool) (*Dmh, error) {
	return newDmh(k, l, hashes, ownHashes, trackElements, 0)
}

func newDmh(k, l int, hashes []hashfam.Hash, ownHashes bool, trackElements bool, elemHint int) (*Dmh, error) {
	if k <= 0 {
		return nil, errors.New("dmh: k must be > 0")
	}
	if l <= 0 {
		return nil, errors.New("dmh: l must be > 0")
	}
	if len(hashes) != k {
		return nil, errors.New("dmh: need exactly k hash instances")
	}
	d := &Dmh{
		k:             k,
		l:             l,
		hashes:        hashes,
		ownHashes:     ownHashes,
		buffer:        make([]uint32, k*l),
		size:          make([]int, k),
		delta:         make([]uint32, k),
		sig:           make([]uint32, k),
		trackElements: trackElements,
	}
	if trackElements {
		d.elements = make(map[uint32]struct{}, elemHint)
	}
	d.Reset()
	return d, nil
}

// Kind implements sketch.Sketch.
func (d *Dmh) Kind() sketch.Kind { return sketch.KindDMH }

// Reset restores every row to its empty state.
func (d *Dmh) Reset() {
	for i := 0; i < d.k; i++ {
		d.delta[i] = Absent
		d.size[i] = 0
		d.sig[i] = Absent
	}
}

// row returns the slice view of row i's currently occupied values.
func (d *Dmh) row(i int) []uint32 {
	return d.buffer[i*d.l : i*d.l+d.size[i]]
}

// Insert streams element x into the sketch.
func (d *Dmh) Insert(x uint32) {
	d.insert(x, true)
}

func (d *Dmh) insert(x uint32, recordElement bool) {
	if recordElement && d.trackElements {
		d.elements[x] = struct{}{}
	}
	for i := 0; i < d.k; i++ {
		h := d.hashes[i].Hash(x)
		if h > d.delta[i] {
			continue
		}

		if d.size[i] < d.l {
			d.buffer[i*d.l+d.size[i]] = h
			d.size[i]++
		} else {
			// replace one occurrence of the current max.
			for j := 0; j < d.l; j++ {
				if d.buffer[i*d.l+j] == d.delta[i] {
					d.buffer[i*d.l+j] = h
					break
				}
			}
		}

		if d.size[i] == d.l {
			var max uint32
			for _, v := range d.row(i) {
				if v > max {
					max = v
				}
			}
			d.delta[i] = max
		}

		if h < d.sig[i] {
			d.sig[i] = h
		}
	}
}

// Remove removes element x from the sketch. It returns true if a row
// emptied (a fault): the sketch resets every row and the caller is
// responsible for replaying the underlying set, unless trackElements
// was enabled at construction, in which case the sketch replays the
// elements it has mirrored itself.
func (d *Dmh) Remove(x uint32) bool {
	if d.trackElements {
		delete(d.elements, x)
	}
	for i := 0; i < d.k; i++ {
		h := d.hashes[i].Hash(x)
		if h > d.delta[i] {
			continue
		}

		idx := -1
		for j := 0; j < d.size[i]; j++ {
			if d.buffer[i*d.l+j] == h {
				idx = j
				break
			}
		}
		if idx == -1 {
			continue
		}

		// swap-remove within the occupied prefix of the row.
		last := d.size[i] - 1
		d.buffer[i*d.l+idx] = d.buffer[i*d.l+last]
		d.size[i]--

		if d.size[i] == 0 {
			// a row emptied: reset every row and signal a fault,
			// without inspecting the remaining rows (mirrors
			// ArrayKLMinhash::remove's immediate return).
			d.Reset()
			if d.trackElements {
				d.replay()
			}
			return true
		}

		if d.sig[i] == h {
			min := Absent
			for _, v := range d.row(i) {
				if v < min {
					min = v
				}
			}
			d.sig[i] = min
		}
		// delta[i] is intentionally NOT recomputed on remove:
		// it becomes a safe over-approximation.
	}

	return false
}

// replay reinserts every tracked element after a fault, without
// re-adding them to the element mirror a second time.
func (d *Dmh) replay() {
	for x := range d.elements {
		d.insert(x, false)
	}
}

// Signature returns the current k-valued MinHash signature. The
// returned slice aliases internal state; callers must not mutate it.
func (d *Dmh) Signature() []uint32 {
	return d.sig
}

// Similarity estimates the Jaccard similarity of the sets represented
// by a and b. Both must have been built from identical hash families.
func Similarity(a, b *Dmh) float64 {
	sigA, sigB := a.Signature(), b.Signature()
	var c float64
	for i := range sigA {
		if sigA[i] == sigB[i] {
			c++
		}
	}
	return c / float64(len(sigA))
}
