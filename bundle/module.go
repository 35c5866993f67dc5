package bundle

import (
	"embed"
	"net/url"
	"reflect"
)

//go:embed Resources
var moduleResources embed.FS

var bundleType = reflect.TypeOf((*Bundle)(nil)).Elem()

func init() {
	base := &url.URL{Scheme: "embed", Path: "/" + bundleType.PkgPath() + "/"}
	if err := RegisterProvider(bundleType, NewFSProvider(moduleResources, base)); err != nil {
		panic(err)
	}
}

// Module returns the bundle of this package's own resources.
func Module(opts ...Option) *Bundle {
	return New(TypeLocation{Type: bundleType}, opts...)
}
