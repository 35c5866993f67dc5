package bundle

import (
	"fmt"
	"net/url"
	"reflect"
)

// Location says where a Bundle's resources live. The set of variants is
// closed: MainLocation, URLLocation and TypeLocation.
type Location interface {
	fmt.Stringer
	isLocation()
}

// MainLocation is the main application bundle.
type MainLocation struct{}

// URLLocation is a bundle rooted at URL.
type URLLocation struct {
	URL *url.URL
}

// TypeLocation is the bundle of the package that declares Type.
type TypeLocation struct {
	Type reflect.Type
}

func (MainLocation) isLocation() {}
func (URLLocation) isLocation()  {}
func (TypeLocation) isLocation() {}

func (MainLocation) String() string {
	return "main"
}

func (l URLLocation) String() string {
	if l.URL == nil {
		return "url:<nil>"
	}
	return l.URL.String()
}

func (l TypeLocation) String() string {
	if l.Type == nil {
		return "type:<nil>"
	}
	return "type:" + l.Type.String()
}

// unknownLocation panics for a Location outside the closed set.
func unknownLocation(loc Location) {
	panic(fmt.Sprintf("bundle: unknown location %T", loc))
}
