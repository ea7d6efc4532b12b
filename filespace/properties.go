package filespace

// PropertyKey defines an externally-owned property slot on a Filespace.
//
// Keys are identified by pointer identity, not by name or shape: two keys
// created with identical arguments are distinct slots. Modules define
// their keys as package-level variables and access values through
// Property and SetProperty, which recover the static type at each call
// site.
type PropertyKey[T any] struct {
	name     string
	defaults func() T
}

// NewPropertyKey creates a property key. The defaults factory is invoked
// at most once per Filespace, on the first Property call with no stored
// value. A nil factory yields the zero value of T.
func NewPropertyKey[T any](name string, defaults func() T) *PropertyKey[T] {
	return &PropertyKey[T]{name: name, defaults: defaults}
}

// Name returns the key's diagnostic name.
func (k *PropertyKey[T]) Name() string {
	return k.name
}

// Property returns the value stored for key on fs.
//
// If no value has been stored, the key's default is materialized, stored,
// and returned; later calls return that same stored value rather than a
// fresh default. Materialization happens under the filespace's lock, so
// concurrent first access creates exactly one default.
func Property[T any](fs *Filespace, key *PropertyKey[T]) T {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if v, ok := fs.props[key]; ok {
		return v.(T)
	}

	var v T
	if key.defaults != nil {
		v = key.defaults()
	}
	fs.props[key] = v
	return v
}

// SetProperty stores a value for key on fs, replacing any prior value or
// materialized default.
func SetProperty[T any](fs *Filespace, key *PropertyKey[T], value T) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.props[key] = value
}
