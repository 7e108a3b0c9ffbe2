//go:build FLINT_EXT_MATH || FLINT_EXT_ALL

package flint

import "github.com/cyw0ng95/flint/ext/math"

func init() {
	addModule(math.Module{})
}
