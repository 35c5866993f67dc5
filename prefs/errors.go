package prefs

import "errors"

// ErrUnsupportedValue is returned by Set when a value has no storable
// encoding. The enclosing commit still applies.
var ErrUnsupportedValue = errors.New("prefs: unsupported value type")
