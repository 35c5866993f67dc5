// Package bundle locates resource files packaged alongside Go code.
//
// A Bundle is bound to one Location: the main application (unsupported),
// a base URL, or the package that declares a Go type. URL bundles resolve
// names by joining paths onto the base URL. Type bundles ask the Provider
// registered for the type's package, rooted at "Resources/", and consult
// the bundle's resources.lst manifest to recognise directories the provider
// cannot report.
//
// Lookups never fail loudly: a missing manifest, table or resource yields
// an empty result.
package bundle
