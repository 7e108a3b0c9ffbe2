//go:build FLINT_EXT_DOCUMENT || FLINT_EXT_ALL

package flint

import "github.com/cyw0ng95/flint/ext/document"

func init() {
	addModule(document.Module{})
}
