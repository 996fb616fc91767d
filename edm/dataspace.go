package edm

// DataSpace identifies whether a model element belongs to the conceptual
// or the store schema.
type DataSpace int

// Data spaces.
const (
	CSpace DataSpace = iota // Conceptual (object) space.
	SSpace                  // Store (relational) space.
)

// String returns the data space name.
func (s DataSpace) String() string {
	switch s {
	case CSpace:
		return "CSpace"
	case SSpace:
		return "SSpace"
	default:
		return "Unknown"
	}
}

// Default container and namespace names.
const (
	DefaultConceptualNamespace = "CodeFirstNamespace"
	DefaultStoreNamespace      = "CodeFirstDatabaseSchema"
	DefaultSchema              = "dbo"
)
