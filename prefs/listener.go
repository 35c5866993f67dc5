package prefs

import (
	"sync"

	"github.com/google/uuid"
)

// Listener is the handle returned by RegisterChangeListener. The callback
// stays registered until Close.
type Listener struct {
	id     uuid.UUID
	key    string
	once   sync.Once
	cancel func()
}

// ID identifies the listener in logs.
func (l *Listener) ID() string {
	return l.id.String()
}

// Key is the preference key the listener watches.
func (l *Listener) Key() string {
	return l.key
}

// Close deregisters the listener. It is safe to call more than once.
func (l *Listener) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
	})
}
