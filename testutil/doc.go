// Package testutil provides testing utilities for gramsearch.
//
// This package is intended for use in tests and benchmarks only.
// It generates reproducible message corpora and computes the exact set of
// messages containing a query by brute force, which is the ground truth a
// search must reproduce.
//
// # Random Corpora
//
//	rng := testutil.NewRNG(seed)
//	msgs := rng.Messages(1000, 4, testutil.MixedAlphabet, 40)
//
// # Ground Truth
//
//	want := testutil.ExactMatches(msgs, "ab")
//	missing, extra := testutil.Diff(got, want)
package testutil
