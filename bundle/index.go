package bundle

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// DevelopmentLocalization is the localization resources are authored in.
const DevelopmentLocalization = "en"

// ResourceIndex returns the entries of the bundle's resources.lst, or an
// empty slice when the manifest is missing or unreadable.
func (b *Bundle) ResourceIndex() []string {
	b.indexOnce.Do(func() {
		b.index = b.loadIndex()
	})
	return append([]string(nil), b.index...)
}

func (b *Bundle) loadIndex() []string {
	u, ok := b.indexURL()
	if !ok {
		b.logger.Debug("bundle: no resource index", zap.Stringer("bundle", b))
		return nil
	}
	data, err := b.read(u)
	if err != nil {
		b.logger.Debug("bundle: resource index unreadable", zap.Stringer("url", u), zap.Error(err))
		return nil
	}
	if !utf8.Valid(data) {
		b.logger.Debug("bundle: resource index is not UTF-8", zap.Stringer("url", u))
		return nil
	}
	return strings.Split(string(data), "\n")
}

// Localizations lists the "<name>.lproj" folders at the root of the
// resource index, without the suffix, in manifest order and without
// duplicates.
func (b *Bundle) Localizations() []string {
	b.localizationsOnce.Do(func() {
		seen := map[string]bool{}
		for _, entry := range b.ResourceIndex() {
			first, _, _ := strings.Cut(entry, "/")
			name, ok := strings.CutSuffix(first, ".lproj")
			if !ok || name == "" || seen[name] {
				continue
			}
			seen[name] = true
			b.localizations = append(b.localizations, name)
		}
	})
	return append([]string(nil), b.localizations...)
}

// DevelopmentLocalization reports the bundle's development localization.
func (b *Bundle) DevelopmentLocalization() string {
	return DevelopmentLocalization
}

// PreferredLocalizations picks the bundle localization that best matches
// the caller's BCP 47 preferences. It falls back to the development
// localization, or to the first available one when the bundle has no
// development localization.
func (b *Bundle) PreferredLocalizations(preferred ...string) []string {
	available := b.Localizations()
	if len(available) == 0 {
		return []string{DevelopmentLocalization}
	}

	fallback := available[0]
	tags := make([]language.Tag, 0, len(available))
	names := make([]string, 0, len(available))
	for _, name := range available {
		if name == DevelopmentLocalization {
			fallback = name
		}
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, name)
	}

	wanted := make([]language.Tag, 0, len(preferred))
	for _, p := range preferred {
		if tag, err := language.Parse(p); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if len(tags) == 0 || len(wanted) == 0 {
		return []string{fallback}
	}

	_, index, confidence := language.NewMatcher(tags).Match(wanted...)
	if confidence == language.No {
		return []string{fallback}
	}
	return []string{names[index]}
}
