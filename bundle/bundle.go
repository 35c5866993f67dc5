package bundle

import (
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/pnewell/skip-foundation/internal/typeid"
	"go.uber.org/zap"
)

// Bundle resolves resources for one Location. The manifest index and
// localizations are computed at most once; localized tables are cached for
// the life of the Bundle.
type Bundle struct {
	loc      Location
	registry *Registry
	logger   *zap.Logger
	metrics  *Metrics

	indexOnce sync.Once
	index     []string

	localizationsOnce sync.Once
	localizations     []string

	mu     sync.Mutex
	tables map[string]map[string]string
}

// Option configures a Bundle.
type Option func(*Bundle)

// WithRegistry resolves type bundles against r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(b *Bundle) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithLogger sets the logger for degraded lookups.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bundle) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records lookups and table loads on m.
func WithMetrics(m *Metrics) Option {
	return func(b *Bundle) {
		b.metrics = m
	}
}

// New returns a Bundle over loc.
func New(loc Location, opts ...Option) *Bundle {
	b := &Bundle{
		loc:      loc,
		registry: DefaultRegistry,
		logger:   zap.NewNop(),
		tables:   map[string]map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Main returns the main application bundle. Resolving anything through it
// panics with ErrMainBundleUnsupported.
func Main(opts ...Option) *Bundle {
	return New(MainLocation{}, opts...)
}

// NewWithPath returns a bundle rooted at the directory path.
func NewWithPath(path string, opts ...Option) (*Bundle, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidLocation)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return New(URLLocation{URL: fileURL(abs)}, opts...), nil
}

// NewWithURL returns a bundle rooted at raw, which must be absolute.
func NewWithURL(raw string, opts ...Option) (*Bundle, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidLocation, raw)
	}
	return New(URLLocation{URL: u}, opts...), nil
}

// NewForType returns the bundle of the package declaring the nearest named
// type inside t.
func NewForType(t reflect.Type, opts ...Option) (*Bundle, error) {
	named, err := typeid.Normalize(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	if named.PkgPath() == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, typeid.ErrNoPackage)
	}
	return New(TypeLocation{Type: named}, opts...), nil
}

// For is NewForType for the type parameter T.
func For[T any](opts ...Option) (*Bundle, error) {
	return NewForType(reflect.TypeOf((*T)(nil)).Elem(), opts...)
}

// Location returns the bundle's location.
func (b *Bundle) Location() Location {
	return b.loc
}

func (b *Bundle) String() string {
	return b.loc.String()
}
