package segment

// SymbolMap is a name to address mapping that preserves first definition
// order, later writes to an existing name update the address but keep the
// original position. Iteration order determines the layout of the generated
// address header.
type SymbolMap struct {
	names     []string
	addresses map[string]uint32
}

// NewSymbolMap returns an empty symbol map.
func NewSymbolMap() *SymbolMap {
	return &SymbolMap{
		addresses: map[string]uint32{},
	}
}

// Set sets the address of a symbol.
func (m *SymbolMap) Set(name string, address uint32) {
	if _, ok := m.addresses[name]; !ok {
		m.names = append(m.names, name)
	}
	m.addresses[name] = address
}

// Get returns the address of a symbol.
func (m *SymbolMap) Get(name string) (uint32, bool) {
	address, ok := m.addresses[name]
	return address, ok
}

// Names returns all symbol names in first definition order.
func (m *SymbolMap) Names() []string {
	return m.names
}

// Len returns the number of symbols.
func (m *SymbolMap) Len() int {
	return len(m.names)
}
