//go:build FLINT_EXT_FULLTEXT || FLINT_EXT_ALL

package flint

import "github.com/cyw0ng95/flint/ext/fulltext"

func init() {
	addModule(fulltext.Module{})
}
