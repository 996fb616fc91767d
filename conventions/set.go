package conventions

import (
	"fmt"
	"slices"
	"sync"

	"github.com/syssam/edmx"
)

// Set is an ordered list of conventions keyed by convention name. A Set is
// locked when a model builder starts building with it; mutating a locked
// Set returns an edmx.LockedError.
type Set struct {
	mu     sync.RWMutex
	items  []Convention
	locked bool
}

// NewSet returns a set of the given conventions in order.
func NewSet(cs ...Convention) (*Set, error) {
	s := &Set{}
	for _, c := range cs {
		if err := s.Add(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Names returns the convention names in order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.items))
	for i, c := range s.items {
		names[i] = c.Name()
	}
	return names
}

// Len returns the number of conventions.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the convention with the given name.
func (s *Set) Get(name string) (Convention, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(name); i >= 0 {
		return s.items[i], true
	}
	return nil, false
}

// Add appends c to the set.
func (s *Set) Add(c Convention) error {
	return s.insert("Add", c, "", 0)
}

// AddBefore inserts c before the convention with the given name.
func (s *Set) AddBefore(name string, c Convention) error {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		return err
	}
	return s.insert("AddBefore", c, name, 0)
}

// AddAfter inserts c after the convention with the given name.
func (s *Set) AddAfter(name string, c Convention) error {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		return err
	}
	return s.insert("AddAfter", c, name, 1)
}

// Remove removes the convention with the given name.
func (s *Set) Remove(name string) error {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return edmx.NewLockedError("Remove")
	}
	i := s.index(name)
	if i < 0 {
		return unknown(name)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Replace replaces the convention with the given name by c, keeping its
// position. The new convention may have a different name.
func (s *Set) Replace(name string, c Convention) error {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		return err
	}
	if c == nil {
		return edmx.Nil("convention")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return edmx.NewLockedError("Replace")
	}
	i := s.index(name)
	if i < 0 {
		return unknown(name)
	}
	if j := s.index(c.Name()); j >= 0 && j != i {
		return duplicate(c.Name())
	}
	s.items[i] = c
	return nil
}

// Clone returns an unlocked copy of the set.
func (s *Set) Clone() *Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Set{items: slices.Clone(s.items)}
}

// Lock locks the set. Locking is terminal.
func (s *Set) Lock() {
	s.mu.Lock()
	s.locked = true
	s.mu.Unlock()
}

// Locked reports whether the set is locked.
func (s *Set) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

// insert inserts c relative to the convention named ref. Add passes an
// empty ref to append.
func (s *Set) insert(op string, c Convention, ref string, offset int) error {
	if c == nil {
		return edmx.Nil("convention")
	}
	if err := edmx.CheckNotEmpty("convention.Name", c.Name()); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return edmx.NewLockedError(op)
	}
	if s.index(c.Name()) >= 0 {
		return duplicate(c.Name())
	}
	i := len(s.items)
	if ref != "" {
		if i = s.index(ref); i < 0 {
			return unknown(ref)
		}
		i += offset
	}
	s.items = slices.Insert(s.items, i, c)
	return nil
}

// list returns a copy of the conventions for iteration.
func (s *Set) list() []Convention {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Set) index(name string) int {
	return slices.IndexFunc(s.items, func(c Convention) bool { return c.Name() == name })
}

func unknown(name string) error {
	return edmx.NewConfigError("Convention", name, "unknown convention")
}

func duplicate(name string) error {
	return edmx.NewConfigError("Convention", name, fmt.Sprintf("convention %q already registered", name))
}
