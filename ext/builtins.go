package ext

// RegisterBuiltins populates r with the built-in scalar types, operators
// and functions. It must run before any extension module so that built-in
// operators take priority in OperatorRegistry.Find.
func RegisterBuiltins(r *Registries) error {
	for _, t := range builtinTypes {
		if err := r.Types.register(t); err != nil {
			return err
		}
	}
	for _, op := range builtinOperators() {
		if err := r.Operators.Register(op); err != nil {
			return err
		}
	}
	for _, fn := range builtinFunctions(r.Types) {
		if err := r.Functions.Register(fn); err != nil {
			return err
		}
	}
	return nil
}
