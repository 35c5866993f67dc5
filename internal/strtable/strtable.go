// Package strtable parses .strings localization tables.
package strtable

import (
	"fmt"

	"howett.net/plist"
)

// Parse decodes a property list (OpenStep, GNUstep, XML or binary) whose
// root is a dictionary. Entries whose values are not strings are dropped.
func Parse(data []byte) (map[string]string, error) {
	var root map[string]any
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("strtable: %w", err)
	}
	table := make(map[string]string, len(root))
	for key, value := range root {
		if s, ok := value.(string); ok {
			table[key] = s
		}
	}
	return table, nil
}
