// Command flint inspects an engine's catalog and evaluates operators and
// functions against it.
//
// Extension modules are compiled in with build tags:
//
//	go build -tags FLINT_EXT_ALL ./cmd/flint
//	flint catalog functions
//	flint eval 'vector:[1,0,0]' '<->' 'vector:[0,1,0]'
//	flint call sqrt 2
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
