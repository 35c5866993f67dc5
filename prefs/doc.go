// Package prefs is a typed preference store layered over a string-keyed
// key-value engine.
//
// Engines natively hold five kinds of value (32-bit int, 64-bit int, 32-bit
// float, bool and string). Store encodes richer Go values into those kinds on
// write and applies a fixed coercion matrix on read:
//
//	stored    String    Double   Integer    Bool          URL        Data
//	number    text      value    truncated  != 0          -          -
//	bool      YES/NO    1/0      1/0        verbatim      -          -
//	string    verbatim  parsed   parsed     true/yes/1    url.Parse  base64
//	url       -         -        -          -             verbatim   -
//	data      -         -        -          -             -          verbatim
//
// Reads never fail: a missing key, an engine error or a kind with no
// coercion yields ok == false. Unset keys fall back to the registration
// mapping supplied to Register; registered values may be Rule expressions
// evaluated against the current preference dictionary.
//
// Engines live in sub-packages (file, sqlite, redis); an in-memory engine is
// built in and backs Standard and Suite.
package prefs
