package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/pnewell/skip-foundation/internal/typeid"
)

// Provider serves the resources of one package.
type Provider interface {
	// Lookup returns the URL of the file name. Missing entries and
	// directories return an error wrapping ErrNotFound.
	Lookup(name string) (*url.URL, error)
	// ReadURL returns the contents of a URL produced by Lookup.
	ReadURL(u *url.URL) ([]byte, error)
}

// FSProvider serves resources from an fs.FS, such as an embed.FS or
// os.DirFS, and names them with URLs under base.
type FSProvider struct {
	fsys fs.FS
	base *url.URL
}

var _ Provider = (*FSProvider)(nil)

// NewFSProvider returns a provider over fsys whose URLs live under base.
func NewFSProvider(fsys fs.FS, base *url.URL) *FSProvider {
	root := *base
	if !strings.HasSuffix(root.Path, "/") {
		root.Path += "/"
	}
	return &FSProvider{fsys: fsys, base: &root}
}

// DirProvider serves the directory dir with file:// URLs.
func DirProvider(dir string) (*FSProvider, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("bundle: resolve %s: %w", dir, err)
	}
	return NewFSProvider(os.DirFS(abs), fileURL(abs)), nil
}

func (p *FSProvider) Lookup(name string) (*url.URL, error) {
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	info, err := fs.Stat(p.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	return p.base.JoinPath(name), nil
}

func (p *FSProvider) ReadURL(u *url.URL) ([]byte, error) {
	if u == nil || u.Scheme != p.base.Scheme || u.Host != p.base.Host ||
		!strings.HasPrefix(u.Path, p.base.Path) {
		return nil, fmt.Errorf("%w: %v is outside %s", ErrNotFound, u, p.base)
	}
	return fs.ReadFile(p.fsys, strings.TrimPrefix(u.Path, p.base.Path))
}

func fileURL(abs string) *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
}

// Registry maps package import paths to providers.
type Registry struct {
	mu        sync.Mutex
	providers sync.Map // map[string]Provider
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry backs RegisterProvider and bundles built without
// WithRegistry.
var DefaultRegistry = NewRegistry()

// RegisterProvider registers p for the package declaring t on
// DefaultRegistry.
func RegisterProvider(t reflect.Type, p Provider) error {
	return DefaultRegistry.RegisterType(t, p)
}

// Register associates p with pkgPath. Registering the same pair again is a
// no-op; a different provider for a registered package is an error.
func (r *Registry) Register(pkgPath string, p Provider) error {
	if p == nil {
		return ErrNilProvider
	}
	if pkgPath == "" {
		return fmt.Errorf("%w: empty package path", ErrInvalidLocation)
	}
	if old, ok := r.providers.Load(pkgPath); ok {
		return sameProvider(old.(Provider), p, pkgPath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.providers.Load(pkgPath); ok {
		return sameProvider(old.(Provider), p, pkgPath)
	}
	r.providers.Store(pkgPath, p)
	return nil
}

// RegisterType registers p for the package declaring the nearest named type
// inside t.
func (r *Registry) RegisterType(t reflect.Type, p Provider) error {
	pkgPath, err := typeid.PackagePath(t)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return r.Register(pkgPath, p)
}

// Lookup returns the provider registered for pkgPath.
func (r *Registry) Lookup(pkgPath string) (Provider, bool) {
	p, ok := r.providers.Load(pkgPath)
	if !ok {
		return nil, false
	}
	return p.(Provider), true
}

func sameProvider(old, p Provider, pkgPath string) error {
	if reflect.TypeOf(old) == reflect.TypeOf(p) && reflect.TypeOf(p).Comparable() && old == p {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrConflictingRegistration, pkgPath)
}
