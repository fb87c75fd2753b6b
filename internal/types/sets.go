package types

// Dependency records that an item needs another entity present at the
// destination before it can be installed.
type Dependency struct {
	Key      StableKey `json:"key"`
	Provider Kind      `json:"provider"`
}

// Resource references an external file-like asset that must travel with the
// package.
type Resource struct {
	Kind Kind      `json:"kind"`
	Key  StableKey `json:"key"`
}

// DependencySet is an append-only, insertion-ordered set of dependencies.
// Adding a record already present is a no-op.
type DependencySet []Dependency

// Add appends d unless an equal record is already present.
func (s *DependencySet) Add(d Dependency) {
	for _, existing := range *s {
		if existing == d {
			return
		}
	}
	*s = append(*s, d)
}

// AddAll adds every record of other.
func (s *DependencySet) AddAll(other DependencySet) {
	for _, d := range other {
		s.Add(d)
	}
}

// Contains reports whether d is in the set.
func (s DependencySet) Contains(d Dependency) bool {
	for _, existing := range s {
		if existing == d {
			return true
		}
	}
	return false
}

// ResourceSet is an append-only, insertion-ordered set of resources.
type ResourceSet []Resource

// Add appends r unless an equal record is already present.
func (s *ResourceSet) Add(r Resource) {
	for _, existing := range *s {
		if existing == r {
			return
		}
	}
	*s = append(*s, r)
}

// AddAll adds every record of other.
func (s *ResourceSet) AddAll(other ResourceSet) {
	for _, r := range other {
		s.Add(r)
	}
}

// Contains reports whether r is in the set.
func (s ResourceSet) Contains(r Resource) bool {
	for _, existing := range s {
		if existing == r {
			return true
		}
	}
	return false
}
