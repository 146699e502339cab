package views

import (
	"fmt"
	"io"
	"strings"

	"notecraft/internal/dateexpr"
	"notecraft/internal/markdown"
)

// Renderer writes tasks as an indented tree with line numbers.
type Renderer struct {
	view   *View
	writer io.Writer
}

// NewRenderer creates a new view renderer
func NewRenderer(view *View, writer io.Writer) *Renderer {
	if view == nil {
		view = AllView()
	}
	return &Renderer{view: view, writer: writer}
}

// Render filters tasks through the view and writes them. Tasks whose parent
// was filtered out are shown at the root.
func (r *Renderer) Render(tasks []markdown.Task) {
	if len(tasks) == 0 {
		return
	}

	selected := ApplyView(tasks, r.view)
	if r.view.SortByPriority {
		for _, t := range selected {
			r.writeLine(&t, "", "  ")
		}
		return
	}
	r.renderWithHierarchy(selected)
}

type taskNode struct {
	task     markdown.Task
	children []*taskNode
}

// renderWithHierarchy renders tasks preserving parent-child relationships
func (r *Renderer) renderWithHierarchy(tasks []markdown.Task) {
	nodeMap := make(map[int]*taskNode)
	var rootNodes []*taskNode

	for i := range tasks {
		nodeMap[tasks[i].LineNumber] = &taskNode{task: tasks[i]}
	}

	for i := range tasks {
		node := nodeMap[tasks[i].LineNumber]
		parent := tasks[i].ParentLineNumber
		if parent == nil {
			rootNodes = append(rootNodes, node)
		} else if parentNode, ok := nodeMap[*parent]; ok {
			parentNode.children = append(parentNode.children, node)
		} else {
			rootNodes = append(rootNodes, node)
		}
	}

	for i, node := range rootNodes {
		r.renderNode(node, "", i == len(rootNodes)-1)
	}
}

// renderNode renders a task node with tree visualization
func (r *Renderer) renderNode(node *taskNode, prefix string, isLast bool) {
	var treeChar string
	if prefix == "" {
		treeChar = "  "
	} else if isLast {
		treeChar = "└─ "
	} else {
		treeChar = "├─ "
	}
	r.writeLine(&node.task, prefix, treeChar)

	var childPrefix string
	if prefix == "" {
		childPrefix = "  "
	} else if isLast {
		childPrefix = prefix + "   "
	} else {
		childPrefix = prefix + "│  "
	}

	for i, child := range node.children {
		r.renderNode(child, childPrefix, i == len(node.children)-1)
	}
}

func (r *Renderer) writeLine(t *markdown.Task, prefix, treeChar string) {
	_, _ = fmt.Fprintf(r.writer, "%4d %s%s%s\n", t.LineNumber+1, prefix, treeChar, FormatTask(t))
}

// FormatTask renders the display form of a task: status, priority, title
// and its tags, contexts, projects and due information.
func FormatTask(t *markdown.Task) string {
	parts := []string{formatStatus(t)}
	if t.PriorityRange != nil {
		parts = append(parts, "("+t.Priority.String()+")")
	}
	if t.Title != "" {
		parts = append(parts, t.Title)
	}
	for _, tag := range t.Tags {
		parts = append(parts, "#"+tag)
	}
	for _, c := range t.Contexts {
		parts = append(parts, "@"+c)
	}
	for _, p := range t.Projects {
		parts = append(parts, "+"+p)
	}
	if t.Count != nil {
		parts = append(parts, fmt.Sprintf("[%d/%d]", t.Count.Current, t.Count.Needed))
	}
	if due := formatDue(t.Due); due != "" {
		parts = append(parts, due)
	}
	if t.Overdue != "" {
		parts = append(parts, "overdue since "+t.Overdue)
	}
	return strings.Join(parts, " ")
}

// formatStatus formats a task status for display
func formatStatus(t *markdown.Task) string {
	switch {
	case t.Done:
		return "[x]"
	case t.StartRange != nil:
		return "[~]"
	default:
		return "[ ]"
	}
}

func formatDue(d *dateexpr.DueInfo) string {
	if d == nil {
		return ""
	}
	switch d.State {
	case dateexpr.Invalid:
		return "due:invalid(" + d.Raw + ")"
	case dateexpr.Overdue:
		return "overdue:" + dateexpr.FormatDate(d.Date, false)
	case dateexpr.Due:
		return "due:today"
	default:
		s := "due:" + dateexpr.FormatDate(d.Date, false)
		if d.Recurring && d.Recurrence != nil {
			s += " (" + d.Recurrence.String() + ")"
		}
		return s
	}
}

// RenderTasksWithView is a convenience function for rendering tasks with a view
func RenderTasksWithView(tasks []markdown.Task, view *View, writer io.Writer) {
	NewRenderer(view, writer).Render(tasks)
}
