package util

import (
	"fmt"
	"reflect"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// Assert panics with a formatted message if the condition is false.
// Reserved for programming errors inside a package, never for input validation.
// Usage: util.Assert(n <= len(buf), "varint overruns buffer")
func Assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("Assertion failed: "+format, args...))
	}
}

// Check is the non-panicking form of Assert: it returns a FLINT_INTERNAL
// assertion error when the condition is false.
func Check(condition bool, format string, args ...interface{}) error {
	if condition {
		return nil
	}
	return errors.AssertionFailedf(format, args...)
}

// IsNil reports whether value is nil or a typed nil pointer, map, slice,
// func, chan or interface.
func IsNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
