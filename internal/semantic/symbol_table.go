// Package semantic implements symbol resolution and type checking for
// MiniJava programs.
package semantic

import "github.com/cwbudde/go-mjc/internal/types"

// Entry is a symbol table value: a variable or field type, or a method
// signature (*types.MethodType, which is itself a types.Type).
type Entry = types.Type

// SymbolTable maps identifiers to entries, preserving declaration order.
type SymbolTable struct {
	names   []string
	entries map[string]Entry
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]Entry)}
}

// Define adds a symbol to the table, overwriting any previous entry.
func (st *SymbolTable) Define(name string, entry Entry) {
	if _, ok := st.entries[name]; !ok {
		st.names = append(st.names, name)
	}
	st.entries[name] = entry
}

// Lookup returns the entry for name, or nil when absent.
func (st *SymbolTable) Lookup(name string) Entry {
	return st.entries[name]
}

// Has reports whether the table holds an entry for name.
func (st *SymbolTable) Has(name string) bool {
	_, ok := st.entries[name]
	return ok
}

// Names returns the declared names in declaration order.
func (st *SymbolTable) Names() []string {
	return st.names
}

// ClassScope holds the fields and methods of one class, with a link to
// its superclass scope when the class extends another.
type ClassScope struct {
	Name       string
	Superclass *ClassScope
	members    *SymbolTable
}

// NewClassScope creates an empty scope for the named class.
func NewClassScope(name string) *ClassScope {
	return &ClassScope{Name: name, members: NewSymbolTable()}
}

// Define records a field or method on the class.
func (c *ClassScope) Define(name string, entry Entry) {
	c.members.Define(name, entry)
}

// LookupLocal resolves a member in this class only.
func (c *ClassScope) LookupLocal(name string) Entry {
	return c.members.Lookup(name)
}

// Lookup resolves a member in this class or any superclass.
func (c *ClassScope) Lookup(name string) Entry {
	for scope := c; scope != nil; scope = scope.Superclass {
		if entry := scope.members.Lookup(name); entry != nil {
			return entry
		}
	}
	return nil
}

// Members returns the class's own member table.
func (c *ClassScope) Members() *SymbolTable {
	return c.members
}

// Registry is the global class registry filled by the symbol table
// builder, preserving declaration order.
type Registry struct {
	order   []string
	classes map[string]*ClassScope
}

// NewRegistry creates an empty class registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*ClassScope)}
}

// Register adds a class scope under its name.
func (r *Registry) Register(scope *ClassScope) {
	if _, ok := r.classes[scope.Name]; !ok {
		r.order = append(r.order, scope.Name)
	}
	r.classes[scope.Name] = scope
}

// Lookup returns the scope of the named class, or nil.
func (r *Registry) Lookup(name string) *ClassScope {
	return r.classes[name]
}

// Names returns the registered class names in declaration order.
func (r *Registry) Names() []string {
	return r.order
}

// IsSubclassOf reports whether class sub is the same as or a subclass
// of class super, walking the superclass chain.
func (r *Registry) IsSubclassOf(sub, super string) bool {
	for scope := r.Lookup(sub); scope != nil; scope = scope.Superclass {
		if scope.Name == super {
			return true
		}
	}
	return false
}

// ScopedSymbolTable is an ordered stack of symbol tables forming the
// lexical chain of the method body under analysis.
type ScopedSymbolTable struct {
	stack []*SymbolTable
}

// NewScopedSymbolTable creates a scope stack with one initial scope.
func NewScopedSymbolTable() *ScopedSymbolTable {
	return &ScopedSymbolTable{stack: []*SymbolTable{NewSymbolTable()}}
}

// PushScope opens a new innermost scope.
func (s *ScopedSymbolTable) PushScope() {
	s.stack = append(s.stack, NewSymbolTable())
}

// PopScope closes the innermost scope.
func (s *ScopedSymbolTable) PopScope() {
	s.stack = s.stack[:len(s.stack)-1]
}

// Define adds a symbol to the innermost scope.
func (s *ScopedSymbolTable) Define(name string, entry Entry) {
	s.stack[len(s.stack)-1].Define(name, entry)
}

// Lookup walks the scope stack from innermost outward.
func (s *ScopedSymbolTable) Lookup(name string) Entry {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if entry := s.stack[i].Lookup(name); entry != nil {
			return entry
		}
	}
	return nil
}

// DeclaredInCurrentScope reports whether name is bound in the
// innermost scope, for redeclaration checks.
func (s *ScopedSymbolTable) DeclaredInCurrentScope(name string) bool {
	return s.stack[len(s.stack)-1].Has(name)
}
