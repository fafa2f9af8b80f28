// Package exposure defines the normalized per-shot record that the grouping
// pipeline consumes and the parsing rules that build one from loose exiftool
// output.
//
// A Record carries the capture timestamp plus optional exposure parameters;
// absent metadata degrades to nil rather than failing, since omission must
// never break an otherwise valid bracket stack. Records without a derivable
// timestamp are unusable and are dropped by the caller before clustering.
package exposure
