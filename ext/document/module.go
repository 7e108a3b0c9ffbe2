package document

import "github.com/cyw0ng95/flint/ext"

// Module registers the document type with its functions and operators.
type Module struct{}

func (Module) Name() string        { return "document" }
func (Module) Description() string { return "JSON documents with path functions and containment" }

func (Module) Register(r *ext.Registries) error {
	if err := r.Types.Register(documentType{}); err != nil {
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
	return nil
}
