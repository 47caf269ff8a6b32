// Package conv provides safe integer type conversion utilities.
//
// Buffer lengths are Go ints but kernel interfaces often take fixed-width
// fields. Converting without a bounds check silently truncates.
package conv
