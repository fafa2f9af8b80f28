// Package grouping partitions a time-ordered run of exposures into bracket
// stacks.
//
// Two passes cooperate: a temporal clusterer merges shots whose spacing stays
// inside an exposure-aware gap bound and whose aperture/focal setup matches,
// then an exposure sweep splitter cuts oversized clusters at the point where
// the exposure direction reverses back toward its start, the signature of
// one finished stack followed by the next.
//
// Both passes are pure functions of their input and the Params they receive;
// the package holds no mutable state.
package grouping
