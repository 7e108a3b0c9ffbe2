//go:build FLINT_EXT_VECTOR || FLINT_EXT_ALL

package flint

import "github.com/cyw0ng95/flint/ext/vector"

func init() {
	addModule(vector.Module{})
}
