package typeid

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{}

func TestNormalizeUnwrapsContainers(t *testing.T) {
	want := reflect.TypeOf(widget{})
	for _, in := range []any{
		widget{},
		&widget{},
		[]*widget{},
		[2]widget{},
		map[string]*widget{},
		map[widget][]int{},
		make(chan widget),
	} {
		got, err := Normalize(reflect.TypeOf(in))
		require.NoError(t, err, "%T", in)
		assert.Equal(t, want, got, "%T", in)
	}
}

func TestNormalizeErrors(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrNilType)

	_, err = Normalize(reflect.TypeOf(struct{}{}))
	assert.ErrorIs(t, err, ErrNotNamed)

	_, err = Normalize(reflect.TypeOf(func() {}))
	assert.ErrorIs(t, err, ErrNotNamed)
}

func TestPackagePath(t *testing.T) {
	path, err := PackagePath(reflect.TypeOf(&widget{}))
	require.NoError(t, err)
	assert.Equal(t, "github.com/pnewell/skip-foundation/internal/typeid", path)

	_, err = PackagePath(reflect.TypeOf(0))
	assert.ErrorIs(t, err, ErrNoPackage)
}
