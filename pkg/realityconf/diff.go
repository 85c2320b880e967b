package realityconf

import "encoding/json"

// DiffResult records the top-level section differences between two
// documents. It backs the CLI's change report before an existing config is
// overwritten.
type DiffResult struct {
	Added   map[string]any
	Removed map[string]any
	Changed map[string][2]any
}

// Empty reports whether the two documents were identical section-wise.
func (r *DiffResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Sections returns the names of every differing section.
func (r *DiffResult) Sections() []string {
	var names []string
	for name := range r.Added {
		names = append(names, name)
	}
	for name := range r.Removed {
		names = append(names, name)
	}
	for name := range r.Changed {
		names = append(names, name)
	}
	return names
}

// DiffDocuments compares base against target section by section. Values are
// compared by JSON serialization, the same equality the merge layer uses.
func DiffDocuments(base, target *Document) *DiffResult {
	result := &DiffResult{
		Added:   make(map[string]any),
		Removed: make(map[string]any),
		Changed: make(map[string][2]any),
	}
	baseMap := base.AsMap()
	targetMap := target.AsMap()

	for name, baseVal := range baseMap {
		targetVal, ok := targetMap[name]
		if !ok {
			result.Removed[name] = baseVal
			continue
		}
		if !jsonEqual(baseVal, targetVal) {
			result.Changed[name] = [2]any{baseVal, targetVal}
		}
	}
	for name, targetVal := range targetMap {
		if _, ok := baseMap[name]; !ok {
			result.Added[name] = targetVal
		}
	}
	return result
}

func jsonEqual(a, b any) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
