package flint

import "github.com/cyw0ng95/flint/ext"

// Extension modules are compiled in with build tags:
//
//	go build -tags FLINT_EXT_VECTOR
//	go build -tags "FLINT_EXT_DOCUMENT FLINT_EXT_FULLTEXT"
//	go build -tags FLINT_EXT_ALL
//
// moduleOrder is the closed list of modules an engine can carry and the
// order they register in.
var moduleOrder = []string{"vector", "document", "fulltext", "math"}

var compiledModules = map[string]ext.Module{}

// addModule is called from the init of each tagged modules_*.go file.
func addModule(m ext.Module) {
	compiledModules[m.Name()] = m
}

// BuildModules returns the modules compiled into this binary in
// registration order.
func BuildModules() []ext.Module {
	out := make([]ext.Module, 0, len(compiledModules))
	for _, name := range moduleOrder {
		if m, ok := compiledModules[name]; ok {
			out = append(out, m)
		}
	}
	return out
}

// ModuleInfo describes a module registered into an engine.
type ModuleInfo struct {
	Name        string
	Description string
}
