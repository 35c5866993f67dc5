package bundle

import (
	"github.com/pnewell/skip-foundation/internal/strtable"
	"go.uber.org/zap"
)

// DefaultTable is the table LocalizedString reads when none is named.
const DefaultTable = "Localizable"

// LocalizedString looks key up in "<table>.strings". It returns value when
// the table or key is missing, and key when value is empty as well. A table
// that fails to load is remembered so it is not read again.
func (b *Bundle) LocalizedString(key, value, table string) string {
	if table == "" {
		table = DefaultTable
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entries, cached := b.tables[table]
	if !cached {
		entries = b.loadTable(table)
		b.tables[table] = entries
	}
	if s, ok := entries[key]; ok {
		return s
	}
	if value != "" {
		return value
	}
	return key
}

func (b *Bundle) loadTable(table string) map[string]string {
	u, ok := b.URL(table, "strings")
	if !ok {
		b.metrics.observeTable(resultMiss)
		return nil
	}
	data, err := b.read(u)
	if err != nil {
		b.logger.Debug("bundle: table unreadable", zap.String("table", table), zap.Error(err))
		b.metrics.observeTable(resultMiss)
		return nil
	}
	parsed, err := strtable.Parse(data)
	if err != nil {
		b.logger.Debug("bundle: table unparsable", zap.String("table", table), zap.Error(err))
		b.metrics.observeTable(resultMiss)
		return nil
	}
	b.metrics.observeTable(resultHit)
	return parsed
}
