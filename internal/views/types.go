package views

// Term fields.
const (
	FieldTag     = "tag"
	FieldContext = "context"
	FieldProject = "project"
	FieldStatus  = "status"
	FieldTitle   = "title"
)

// Status keywords accepted after '$'.
const (
	StatusDone      = "done"
	StatusDue       = "due"
	StatusOverdue   = "overdue"
	StatusRecurring = "recurring"
)

// Index sort modes.
const (
	SortAlphabetic = "alphabetic"
	SortCount      = "count"
)

// Term is one whitespace-separated predicate of a query.
type Term struct {
	Field  string `yaml:"field" json:"field"`
	Value  string `yaml:"value" json:"value"`
	Negate bool   `yaml:"negate,omitempty" json:"negate,omitempty"`
}

// Query is a conjunction of terms. The zero Query matches every task.
type Query struct {
	Raw   string `json:"raw"`
	Terms []Term `json:"terms"`
}

// View is a named query with an ordering, as configured under "views".
type View struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Query       string `yaml:"query"`
	// SortByPriority orders matches A to Z instead of line order.
	SortByPriority bool `yaml:"sort_by_priority,omitempty"`
}

// DefaultView hides completed tasks.
func DefaultView() *View {
	return &View{
		Name:        "default",
		Description: "Open tasks in line order",
		Query:       "-$done",
	}
}

// AllView shows every task.
func AllView() *View {
	return &View{
		Name:        "all",
		Description: "Every task in line order",
	}
}

// DueView shows open tasks that are due or overdue, most important first.
func DueView() *View {
	return &View{
		Name:           "due",
		Description:    "Open tasks due today or earlier",
		Query:          "$due -$done",
		SortByPriority: true,
	}
}

// BuiltinViews returns the views available without configuration.
func BuiltinViews() []*View {
	return []*View{DefaultView(), AllView(), DueView()}
}
