// Package typeid resolves the package a Go type was declared in.
package typeid

import (
	"errors"
	"reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("typeid: nil reflect.Type provided")
	// ErrNotNamed is returned when unwrapping finds no named type.
	ErrNotNamed = errors.New("typeid: type has no name")
	// ErrNoPackage is returned for predeclared types such as int.
	ErrNoPackage = errors.New("typeid: type has no package path")
)

const maxUnwrap = 8

// Normalize unwraps pointers, slices, arrays, channels and maps (element
// side first, then key) and returns the nearest named type.
func Normalize(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrNilType
	}
	for i := 0; t != nil && i < maxUnwrap; i++ {
		if t.Name() != "" {
			return t, nil
		}
		switch t.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Chan:
			t = t.Elem()
		case reflect.Map:
			if elem := t.Elem(); elem.Name() != "" {
				return elem, nil
			}
			if key := t.Key(); key.Name() != "" {
				return key, nil
			}
			t = t.Elem()
		default:
			return nil, ErrNotNamed
		}
	}
	if t != nil && t.Name() != "" {
		return t, nil
	}
	return nil, ErrNotNamed
}

// PackagePath returns the import path of the package declaring the nearest
// named type inside t.
func PackagePath(t reflect.Type) (string, error) {
	named, err := Normalize(t)
	if err != nil {
		return "", err
	}
	if named.PkgPath() == "" {
		return "", ErrNoPackage
	}
	return named.PkgPath(), nil
}
