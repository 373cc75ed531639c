package dmh

import (
	"testing"

	"github.com/alessandrostr/dynsketch/hashfam"
)

func sharedHashes(k int) []hashfam.Hash {
	seed := uint64(99)
	hashes := make([]hashfam.Hash, k)
	for i := range hashes {
		s := seed + uint64(i)
		hashes[i] = hashfam.NewTabulation(&s)
	}
	return hashes
}

// Scenario 1: identity. Two sketches sharing the same hash
// family, fed the same elements, must agree everywhere.
func TestIdentity(t *testing.T) {
	hashes := sharedHashes(4)
	a, err := NewWithHashes(4, 2, hashes, false, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewWithHashes(4, 2, hashes, false, false)
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range []uint32{1, 2, 3, 4, 5} {
		a.Insert(x)
		b.Insert(x)
	}

	if got := Similarity(a, b); got != 1.0 {
		t.Fatalf("expected similarity 1.0 for identical streams, got %f", got)
	}
}

func TestInvariantsHoldAfterInsert(t *testing.T) {
	d, err := New(4, 3, 1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	for x := uint32(0); x < 50; x++ {
		d.Insert(x)
		for i := 0; i < d.k; i++ {
			if d.size[i] > d.l {
				t.Fatalf("row %d size %d exceeds l=%d", i, d.size[i], d.l)
			}
			if d.size[i] == d.l {
				var max uint32
				for _, v := range d.row(i) {
					if v > max {
						max = v
					}
				}
				if d.delta[i] != max {
					t.Fatalf("row %d: delta=%d want max=%d", i, d.delta[i], max)
				}
			} else if d.delta[i] != Absent {
				t.Fatalf("row %d: expected delta=Absent while not full, got %d", i, d.delta[i])
			}
			if d.size[i] > 0 {
				var min uint32 = Absent
				for _, v := range d.row(i) {
					if v < min {
						min = v
					}
				}
				if d.sig[i] != min {
					t.Fatalf("row %d: signature=%d want min=%d", i, d.sig[i], min)
				}
			}
		}
	}
}

func TestInsertThenRemoveRestoresEmptySignature(t *testing.T) {
	d, err := New(4, 2, 1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	d.Insert(42)
	d.Remove(42)
	for _, s := range d.Signature() {
		if s != Absent {
			t.Fatalf("expected empty signature after insert+remove, got %v", d.Signature())
		}
	}
}

// Scenario 3: DMH fault. k=1, l=1; inserting then removing
// in insertion order must eventually fault.
func TestFaultOccurs(t *testing.T) {
	d, err := New(1, 1, 1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	elems := make([]uint32, 10)
	for i := range elems {
		elems[i] = uint32(i) * 997
	}
	for _, x := range elems {
		d.Insert(x)
	}
	faulted := false
	for _, x := range elems {
		if d.Remove(x) {
			faulted = true
		}
	}
	if !faulted {
		t.Fatal("expected at least one fault with k=1,l=1 over 10 inserts/removes")
	}
}

func TestDuplicateInsertIdempotentOnSignature(t *testing.T) {
	d1, err := New(8, 4, 1<<20, false)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := NewWithHashes(8, 4, d1.hashes, false, false)
	if err != nil {
		t.Fatal(err)
	}
	d1.Insert(123)
	d2.Insert(123)
	d2.Insert(123)

	sig1, sig2 := d1.Signature(), d2.Signature()
	for i := range sig1 {
		if sig1[i] != sig2[i] {
			t.Fatalf("signature mismatch at row %d: %d vs %d", i, sig1[i], sig2[i])
		}
	}
}

func TestConstructorRejectsBadParams(t *testing.T) {
	if _, err := New(0, 1, 100, false); err == nil {
		t.Fatal("expected error for k=0")
	}
	if _, err := New(1, 0, 100, false); err == nil {
		t.Fatal("expected error for l=0")
	}
}

// Scenario 2: disjoint sets produce low similarity.
func TestDisjointSetsLowSimilarity(t *testing.T) {
	hashes := sharedHashes(64)
	a, err := NewWithHashes(64, 4, hashes, false, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewWithHashes(64, 4, hashes, false, false)
	if err != nil {
		t.Fatal(err)
	}
	for x := uint32(1); x <= 100; x++ {
		a.Insert(x)
	}
	for x := uint32(101); x <= 200; x++ {
		b.Insert(x)
	}
	if got := Similarity(a, b); got > 0.3 {
		t.Fatalf("expected low similarity for disjoint sets, got %f", got)
	}
}

func TestExplicitSetAutoRecoversOnFault(t *testing.T) {
	d, err := New(1, 1, 1<<20, true)
	if err != nil {
		t.Fatal(err)
	}
	d.Insert(10)
	d.Insert(20) // replaces 10 in the single slot only if its hash is not larger

	faulted := d.Remove(10)
	if faulted {
		// after auto-recovery, 20 must still be tracked and must have
		// been replayed into the reset row.
		if _, ok := d.elements[20]; !ok {
			t.Fatal("expected 20 to remain tracked after fault recovery")
		}
		if got, want := d.Signature()[0], d.hashes[0].Hash(20); got != want {
			t.Fatalf("signature after fault recovery = %d, want hash of 20 = %d", got, want)
		}
	}
}
