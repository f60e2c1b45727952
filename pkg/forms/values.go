package forms

// Values maps field names to string values. Iteration follows the order the
// names were declared in, which is document order for a wizard definition.
type Values struct {
	order []string
	data  map[string]string
}

// NewValues creates a value set holding the given names, all empty.
func NewValues(names ...string) *Values {
	v := &Values{
		order: make([]string, 0, len(names)),
		data:  make(map[string]string, len(names)),
	}
	for _, name := range names {
		if _, dup := v.data[name]; dup {
			continue
		}
		v.order = append(v.order, name)
		v.data[name] = ""
	}
	return v
}

// Has reports whether name is a declared field.
func (v *Values) Has(name string) bool {
	_, ok := v.data[name]
	return ok
}

// Get returns the value of name, or "" for unknown names.
func (v *Values) Get(name string) string {
	return v.data[name]
}

// Set stores value under name. Unknown names are ignored and reported false.
func (v *Values) Set(name, value string) bool {
	if !v.Has(name) {
		return false
	}
	v.data[name] = value
	return true
}

// Names returns the declared names in order.
func (v *Values) Names() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// Map returns a copy of all values.
func (v *Values) Map() map[string]string {
	out := make(map[string]string, len(v.data))
	for k, val := range v.data {
		out[k] = val
	}
	return out
}

// Apply sets every known key from m and returns how many were applied.
func (v *Values) Apply(m map[string]string) int {
	applied := 0
	for k, val := range m {
		if v.Set(k, val) {
			applied++
		}
	}
	return applied
}
