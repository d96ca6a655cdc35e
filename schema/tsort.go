package schema

// topologicalSort orders items so that every dependency precedes its
// dependents, using depth-first search with three-color marking (unvisited,
// visiting, visited). Dependencies naming ids outside the item set are
// ignored. On a cycle the sort is abandoned and an empty slice is returned;
// the caller decides how to degrade.
func topologicalSort[T any](items []T, dependencies map[string][]string, idOf func(T) string) []T {
	var sorted []T
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemByID := make(map[string]T, len(items))

	for _, item := range items {
		itemByID[idOf(item)] = item
	}

	var visit func(string) bool
	visit = func(id string) bool {
		if visiting[id] {
			// Cycle: id is already on the current DFS path.
			return false
		}
		if visited[id] {
			return true
		}

		visiting[id] = true
		for _, dep := range dependencies[id] {
			if _, exists := itemByID[dep]; exists {
				if !visit(dep) {
					return false
				}
			}
		}
		visiting[id] = false
		visited[id] = true

		sorted = append(sorted, itemByID[id])
		return true
	}

	for _, item := range items {
		if !visited[idOf(item)] {
			if !visit(idOf(item)) {
				return []T{}
			}
		}
	}

	return sorted
}
