package input

import "wirepath/internal/location"

// includeTable maps a dependency ID to the archive entries it contributes.
// Registering the same ID twice keeps the last include list.
type includeTable map[string][]string

func (t includeTable) set(id string, includes []string) {
	t[id] = append([]string(nil), includes...)
}

func (t includeTable) get(id string) []string {
	return t[id]
}

// expand turns one resolved file into locations. No includes means the whole file
// is a single opaque location.
func expand(file string, includes []string) []location.Location {
	if len(includes) == 0 {
		return []location.Location{{Base: file}}
	}
	out := make([]location.Location, len(includes))
	for i, inc := range includes {
		out[i] = location.Within(file, inc)
	}
	return out
}
