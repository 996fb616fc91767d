package edm

import (
	"github.com/syssam/edmx"
)

// ProviderInfo identifies the store provider a model was built for.
type ProviderInfo struct {
	// Provider is the provider invariant name, e.g. "postgres".
	Provider string
	// ManifestToken is the provider version string.
	ManifestToken string
}

// DbModel is the unit produced by the model builder: the conceptual model,
// the store model and the mapping between them.
type DbModel struct {
	Conceptual   *EdmModel
	Store        *EdmModel
	Mapping      *Mapping
	ProviderInfo ProviderInfo
}

// NewDbModel returns an empty model with default namespaces.
func NewDbModel(info ProviderInfo) *DbModel {
	return &DbModel{
		Conceptual:   NewModel(CSpace, DefaultConceptualNamespace),
		Store:        NewModel(SSpace, DefaultStoreNamespace),
		Mapping:      NewMapping(),
		ProviderInfo: info,
	}
}

// Model returns the model of the given space.
func (m *DbModel) Model(space DataSpace) *EdmModel {
	if space == SSpace {
		return m.Store
	}
	return m.Conceptual
}

// Freeze makes the model read-only. Freezing twice is a no-op.
func (m *DbModel) Freeze() {
	m.Conceptual.freeze()
	m.Store.freeze()
	m.Mapping.frozen = true
}

// Frozen reports whether the model was frozen.
func (m *DbModel) Frozen() bool {
	return m.Conceptual.Frozen() && m.Store.Frozen()
}

// CheckMutable returns a LockedError naming op if the model is frozen.
func (m *DbModel) CheckMutable(op string) error {
	if m.Frozen() {
		return edmx.NewLockedError(op)
	}
	return nil
}
