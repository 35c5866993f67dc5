package bundle

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/pnewell/skip-foundation/internal/typeid"
	"go.uber.org/zap"
)

const (
	indexName     = "resources.lst"
	resourcesRoot = "Resources/"
)

// LookupOption narrows a URL or Path lookup.
type LookupOption func(*lookup)

type lookup struct {
	subdirectory string
	localization string
}

// InSubdirectory resolves the resource under dir.
func InSubdirectory(dir string) LookupOption {
	return func(l *lookup) {
		l.subdirectory = dir
	}
}

// ForLocalization resolves the resource inside "<loc>.lproj".
func ForLocalization(loc string) LookupOption {
	return func(l *lookup) {
		l.localization = loc
	}
}

// URL resolves the resource name.ext. At least one of name and ext must be
// non-empty. The result is "<subdir>/<loc>.lproj/<name>.<ext>" relative to
// the bundle when both options are given.
func (b *Bundle) URL(name, ext string, opts ...LookupOption) (*url.URL, bool) {
	var l lookup
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}
	rel := name
	if ext != "" {
		rel += "." + ext
	} else if rel == "" {
		return nil, false
	}
	if l.localization != "" {
		rel = l.localization + ".lproj/" + rel
	}
	if l.subdirectory != "" {
		rel = l.subdirectory + "/" + rel
	}
	return b.relativeURL(rel, true)
}

// Path is URL reduced to its path.
func (b *Bundle) Path(name, ext string, opts ...LookupOption) (string, bool) {
	u, ok := b.URL(name, ext, opts...)
	if !ok {
		return "", false
	}
	return u.Path, true
}

// BundleURL is the bundle's root: the URL of a URL bundle, or the directory
// holding resources.lst for a type bundle.
func (b *Bundle) BundleURL() (*url.URL, bool) {
	switch loc := b.loc.(type) {
	case MainLocation:
		panic(ErrMainBundleUnsupported)
	case URLLocation:
		if loc.URL == nil {
			return nil, false
		}
		u := *loc.URL
		return &u, true
	case TypeLocation:
		return b.resourceFolderURL()
	default:
		unknownLocation(loc)
		return nil, false
	}
}

// ResourceURL is the same as BundleURL.
func (b *Bundle) ResourceURL() (*url.URL, bool) {
	return b.BundleURL()
}

// BundlePath is BundleURL reduced to its path.
func (b *Bundle) BundlePath() (string, bool) {
	u, ok := b.BundleURL()
	if !ok {
		return "", false
	}
	return u.Path, true
}

// relativeURL maps rel onto the bundle's location. withIndex enables the
// manifest directory fallback; it is off while resolving the manifest
// itself.
func (b *Bundle) relativeURL(rel string, withIndex bool) (*url.URL, bool) {
	switch loc := b.loc.(type) {
	case MainLocation:
		panic(ErrMainBundleUnsupported)
	case URLLocation:
		if loc.URL == nil {
			return nil, false
		}
		b.metrics.observeLookup("url", resultHit)
		return loc.URL.JoinPath(rel), true
	case TypeLocation:
		return b.typeURL(loc, rel, withIndex)
	default:
		unknownLocation(loc)
		return nil, false
	}
}

func (b *Bundle) typeURL(loc TypeLocation, rel string, withIndex bool) (*url.URL, bool) {
	provider, err := b.provider(loc)
	if err != nil {
		b.logger.Debug("bundle: provider unavailable", zap.Stringer("location", loc), zap.Error(err))
		b.metrics.observeLookup("type", resultMiss)
		return nil, false
	}
	u, err := provider.Lookup(resourcesRoot + rel)
	if err == nil {
		b.metrics.observeLookup("type", resultHit)
		return u, true
	}
	if !errors.Is(err, ErrNotFound) {
		b.logger.Debug("bundle: provider lookup failed", zap.String("resource", rel), zap.Error(err))
	}
	if !withIndex || !errors.Is(err, ErrNotFound) {
		b.metrics.observeLookup("type", resultMiss)
		return nil, false
	}

	// Providers cannot report directories; trust the manifest for them.
	prefix := rel + "/"
	for _, entry := range b.ResourceIndex() {
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		folder, ok := b.resourceFolderURL()
		if !ok {
			break
		}
		dir := folder.JoinPath(rel)
		if !strings.HasSuffix(dir.Path, "/") {
			dir.Path += "/"
		}
		b.metrics.observeLookup("type", resultDirectory)
		return dir, true
	}
	b.metrics.observeLookup("type", resultMiss)
	return nil, false
}

func (b *Bundle) provider(loc TypeLocation) (Provider, error) {
	pkgPath, err := typeid.PackagePath(loc.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	provider, ok := b.registry.Lookup(pkgPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, pkgPath)
	}
	return provider, nil
}

func (b *Bundle) indexURL() (*url.URL, bool) {
	return b.relativeURL(indexName, false)
}

func (b *Bundle) resourceFolderURL() (*url.URL, bool) {
	u, ok := b.indexURL()
	if !ok {
		return nil, false
	}
	dir := *u
	dir.Path = path.Dir(dir.Path)
	if !strings.HasSuffix(dir.Path, "/") {
		dir.Path += "/"
	}
	return &dir, true
}

// read loads a URL produced by this bundle.
func (b *Bundle) read(u *url.URL) ([]byte, error) {
	switch loc := b.loc.(type) {
	case MainLocation:
		panic(ErrMainBundleUnsupported)
	case URLLocation:
		if u.Scheme != "file" {
			return nil, fmt.Errorf("bundle: cannot read %s URLs", u.Scheme)
		}
		return os.ReadFile(u.Path)
	case TypeLocation:
		provider, err := b.provider(loc)
		if err != nil {
			return nil, err
		}
		return provider.ReadURL(u)
	default:
		unknownLocation(loc)
		return nil, nil
	}
}
