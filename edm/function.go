package edm

// ParameterMode is the direction of a function parameter.
type ParameterMode int

// Parameter modes.
const (
	In ParameterMode = iota
	Out
	InOut
)

// String returns the mode name.
func (m ParameterMode) String() string {
	switch m {
	case Out:
		return "Out"
	case InOut:
		return "InOut"
	default:
		return "In"
	}
}

// FunctionParameter is a parameter of a store function.
type FunctionParameter struct {
	Name      string
	Kind      PrimitiveKind
	StoreType string
	MaxLength int
	Mode      ParameterMode
}

// EdmFunction is a stored procedure of the store model.
type EdmFunction struct {
	// Name of the procedure.
	Name string
	// Schema of the procedure.
	Schema string
	// Parameters in declaration order.
	Parameters []*FunctionParameter
}

// FullName returns the schema qualified name of the function.
func (f *EdmFunction) FullName() string {
	if f.Schema == "" {
		return f.Name
	}
	return f.Schema + "." + f.Name
}

// Parameter returns the parameter with the given name.
func (f *EdmFunction) Parameter(name string) (*FunctionParameter, bool) {
	for _, p := range f.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// AddParameter appends a parameter and returns it. An existing parameter
// with the same name is returned unchanged.
func (f *EdmFunction) AddParameter(name string, kind PrimitiveKind, mode ParameterMode) *FunctionParameter {
	if p, ok := f.Parameter(name); ok {
		return p
	}
	p := &FunctionParameter{Name: name, Kind: kind, Mode: mode}
	f.Parameters = append(f.Parameters, p)
	return p
}
