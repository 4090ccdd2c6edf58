package module

import (
	"reflect"

	perr "timejar/internal/platform/errors"
)

// Lookup finds the first port in m's bundle that implements T.
// The bundle itself is tried first, then its exported struct fields in order
func Lookup[T any](m Module) (T, error) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, perr.NotFoundf("module %s: no ports", m.Name())
	}
	if v, ok := p.(T); ok {
		return v, nil
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return zero, perr.NotFoundf("module %s: no ports", m.Name())
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		for i := range rv.NumField() {
			f := rv.Field(i)
			if !f.CanInterface() {
				continue
			}
			if v, ok := f.Interface().(T); ok {
				return v, nil
			}
		}
	}
	return zero, perr.NotFoundf("module %s: no port of type %s", m.Name(), reflect.TypeFor[T]())
}

// MustLookup is Lookup for wiring code where a missing port is a programming error
func MustLookup[T any](m Module) T {
	v, err := Lookup[T](m)
	if err != nil {
		panic(err.Error())
	}
	return v
}
