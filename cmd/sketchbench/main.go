/*
Command sketchbench is the experiment harness for the dynsketch
library: it is explicitly out of scope for the hard
core, a thin driver that exercises a sketch through an operation
sequence and prints one CSV row per run, translating the timed
experiments of original_source/test.cpp (singleSetImplicit,
slidingWindowMinHash, and their DSS analogues) into Go using
time.Now/time.Since in place of std::chrono::high_resolution_clock.
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/alessandrostr/dynsketch/dmh"
	"github.com/alessandrostr/dynsketch/dss"
)

func main() {
	experiment := flag.String("experiment", "dmh-ops", "dmh-ops | dss-ops | dss-queries | dmh-query | dss-query")
	k := flag.Int("k", 64, "DMH rows / DSS minhash count depending on experiment")
	l := flag.Int("l", 4, "DMH buffer depth")
	c := flag.Uint("c", 1024, "DSS column count")
	n := flag.Uint("n", 10000, "sample size N; ops = 2*N")
	p := flag.Float64("p", 0.5, "query mix probability (update vs. query experiments)")
	nQuery := flag.Uint("nquery", 1000, "number of queries (dss-queries experiment)")
	verbose := flag.Bool("verbose", false, "log progress to stderr")
	flag.Parse()

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	switch *experiment {
	case "dmh-ops":
		runDMHOps(*k, *l, uint32(*n), rng, *verbose)
	case "dss-ops":
		runDSSOps(*c, uint32(*n), rng, *verbose)
	case "dss-queries":
		runDSSQueries(*c, *k, uint32(*n), uint32(*nQuery), rng, *verbose)
	case "dmh-query":
		runDMHQuery(*k, *l, uint32(*n), *p, rng, *verbose)
	case "dss-query":
		runDSSQuery(*c, *k, uint32(*n), *p, rng, *verbose)
	default:
		fmt.Fprintf(os.Stderr, "unknown experiment %q\n", *experiment)
		os.Exit(1)
	}
}

// generateSample mirrors original_source/test.cpp's
// generate_random_sample: N distinct values drawn uniformly from the
// uint32 universe.
func generateSample(rng *rand.Rand, n uint32) []uint32 {
	seen := make(map[uint32]struct{}, n)
	sample := make([]uint32, n)
	var i uint32
	for i < n {
		x := rng.Uint32()
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		sample[i] = x
		i++
	}
	return sample
}

// runDMHOps is the Go translation of singleSetImplicit: insert N
// elements then remove them in insertion order, counting faults.
func runDMHOps(k, l int, n uint32, rng *rand.Rand, verbose bool) {
	s, err := dmh.New(k, l, ^uint32(0), false)
	if err != nil {
		log.Fatal(err)
	}
	sample := generateSample(rng, n)

	start := time.Now()
	for _, x := range sample {
		s.Insert(x)
	}
	nFaults := 0
	for _, x := range sample {
		if s.Remove(x) {
			nFaults++
			if verbose {
				log.Printf("dmh-ops: fault, total=%d", nFaults)
			}
		}
	}
	elapsed := time.Since(start).Seconds()

	fmt.Printf("DMH, %d, %d, %d, %d, %f\n", k, l, 2*n, nFaults, elapsed)
}

// runDSSOps is the Go translation of the DSS analogue of
// singleSetImplicit: insert N elements then remove them.
func runDSSOps(c uint, n uint32, rng *rand.Rand, verbose bool) {
	universe := ^uint32(0)
	s, err := dss.New(universe, uint32(c), 1)
	if err != nil {
		log.Fatal(err)
	}
	sample := generateSample(rng, n)

	start := time.Now()
	for _, x := range sample {
		s.Insert(x)
	}
	for _, x := range sample {
		s.Remove(x)
	}
	elapsed := time.Since(start).Seconds()

	kRows := kRowsFor(universe)
	fmt.Printf("DSS, %d, %d, %d, %f\n", c, kRows, 2*n, elapsed)
}

// runDSSQueries exercises a DSS sketch of fixed size with a burst of
// pure signature queries (no further mutation): the "DSS queries only"
// row shape.
func runDSSQueries(c uint, t int, n, nQuery uint32, rng *rand.Rand, verbose bool) {
	universe := ^uint32(0)
	s, err := dss.New(universe, uint32(c), t)
	if err != nil {
		log.Fatal(err)
	}
	sample := generateSample(rng, n)
	for _, x := range sample {
		s.Insert(x)
	}

	start := time.Now()
	for i := uint32(0); i < nQuery; i++ {
		_ = s.Signature(1, 1)
	}
	elapsed := time.Since(start).Seconds()

	kRows := kRowsFor(universe)
	fmt.Printf("DSS, %d, %d, %d, %d, %d, %f\n", c, kRows, n, nQuery, t, elapsed)
}

// runDMHQuery interleaves updates and queries: with probability p a
// step is a query (Signature extraction), otherwise an
// insert-then-remove pair, mirroring the C++ harness's mixed
// update/query experiments.
func runDMHQuery(k, l int, n uint32, p float64, rng *rand.Rand, verbose bool) {
	s, err := dmh.New(k, l, ^uint32(0), false)
	if err != nil {
		log.Fatal(err)
	}
	sample := generateSample(rng, n)
	nFaults := 0

	start := time.Now()
	for _, x := range sample {
		if rng.Float64() < p {
			_ = s.Signature()
		} else {
			s.Insert(x)
			if s.Remove(x) {
				nFaults++
			}
		}
	}
	elapsed := time.Since(start).Seconds()

	fmt.Printf("DMH, %d, %d, %d, %d, %d, %f, %f\n", k, l, 2*n, k, nFaults, p, elapsed)
}

// runDSSQuery is the DSS analogue of runDMHQuery; DSS never faults,
// so the fault column is always 0.
func runDSSQuery(c uint, t int, n uint32, p float64, rng *rand.Rand, verbose bool) {
	universe := ^uint32(0)
	s, err := dss.New(universe, uint32(c), t)
	if err != nil {
		log.Fatal(err)
	}
	sample := generateSample(rng, n)

	start := time.Now()
	for _, x := range sample {
		if rng.Float64() < p {
			_ = s.Signature(1, 1)
		} else {
			s.Insert(x)
			s.Remove(x)
		}
	}
	elapsed := time.Since(start).Seconds()

	kRows := kRowsFor(universe)
	fmt.Printf("DSS, %d, %d, %d, %d, %d, %f, %f\n", c, kRows, 2*n, t, 0, p, elapsed)
}

func kRowsFor(universe uint32) int {
	n := 0
	for u := universe; u > 0; u >>= 1 {
		n++
	}
	return n
}
