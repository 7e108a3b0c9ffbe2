package vector

import "github.com/cyw0ng95/flint/ext"

// Module registers the vector type, its operators and functions, and the
// hnsw index.
type Module struct{}

func (Module) Name() string        { return "vector" }
func (Module) Description() string { return "float32 vectors, distance operators and HNSW k-NN index" }

func (Module) Register(r *ext.Registries) error {
	if err := r.Types.Register(vectorType{}); err != nil {
		return err
	}
	for _, op := range operators() {
		if err := r.Operators.Register(op); err != nil {
			return err
		}
	}
	for _, fn := range functions() {
		if err := r.Functions.Register(fn); err != nil {
			return err
		}
	}
	return r.Indexes.Register(Structure, ext.IndexBuilderFunc(buildHNSW))
}
