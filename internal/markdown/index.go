package markdown

import "encoding/json"

// Occurrence is one task carrying an indexed name.
type Occurrence struct {
	LineNumber int    `json:"lineNumber"`
	Title      string `json:"title"`
}

// Index maps tag, project or context names to their occurrences.
// Names keep the order in which they were first seen.
type Index struct {
	names []string
	items map[string][]Occurrence
}

func newIndex() *Index {
	return &Index{items: make(map[string][]Occurrence)}
}

func (i *Index) add(name string, o Occurrence) {
	if _, ok := i.items[name]; !ok {
		i.names = append(i.names, name)
	}
	i.items[name] = append(i.items[name], o)
}

// Names returns the indexed names in insertion order.
func (i *Index) Names() []string {
	out := make([]string, len(i.names))
	copy(out, i.names)
	return out
}

// Occurrences returns the tasks carrying name, in line order.
func (i *Index) Occurrences(name string) []Occurrence {
	return i.items[name]
}

// Count returns how many times name occurs in the document.
func (i *Index) Count(name string) int {
	return len(i.items[name])
}

// Len returns the number of distinct names.
func (i *Index) Len() int {
	return len(i.names)
}

// Entry is one name of an Index with its occurrences.
type Entry struct {
	Name        string       `json:"name"`
	Count       int          `json:"count"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Entries returns the index as a list in insertion order.
func (i *Index) Entries() []Entry {
	entries := make([]Entry, 0, len(i.names))
	for _, name := range i.names {
		entries = append(entries, Entry{Name: name, Count: len(i.items[name]), Occurrences: i.items[name]})
	}
	return entries
}

// MarshalJSON encodes the index as an ordered list of entries.
func (i *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Entries())
}
