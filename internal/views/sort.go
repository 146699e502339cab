package views

import (
	"cmp"
	"slices"

	"notecraft/internal/markdown"
)

// SortByPriority returns a copy of tasks ordered A to Z. Tasks with the same
// priority keep their relative order.
func SortByPriority(tasks []markdown.Task) []markdown.Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b markdown.Task) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return sorted
}

// SortIndex returns the index entries ordered by mode. SortAlphabetic orders
// by name; SortCount orders by occurrence count, highest first. Ties keep
// insertion order. Unknown modes return insertion order.
func SortIndex(index *markdown.Index, mode string) []markdown.Entry {
	entries := index.Entries()
	switch mode {
	case SortAlphabetic:
		slices.SortStableFunc(entries, func(a, b markdown.Entry) int {
			return cmp.Compare(a.Name, b.Name)
		})
	case SortCount:
		slices.SortStableFunc(entries, func(a, b markdown.Entry) int {
			return cmp.Compare(b.Count, a.Count)
		})
	}
	return entries
}

// ApplyView filters tasks with the view's query and applies its ordering.
func ApplyView(tasks []markdown.Task, v *View) []markdown.Task {
	result := Filter(tasks, v.Query)
	if v.SortByPriority {
		result = SortByPriority(result)
	}
	return result
}
