package markdown

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterFence = "---"

// Document is the parse result of a whole text.
type Document struct {
	// Tasks is the flat list in line order; Subtasks are not populated here.
	Tasks []Task `json:"tasks"`
	// Tree holds the root tasks with Subtasks populated.
	Tree         []*Task `json:"tree"`
	CommentLines []Range `json:"commentLines"`
	Tags         *Index  `json:"tags"`
	Projects     *Index  `json:"projects"`
	Contexts     *Index  `json:"contexts"`
	// FrontMatter is the decoded header block, nil when absent or malformed.
	FrontMatter map[string]any `json:"frontMatter,omitempty"`
	// StartLine is the first line after the front matter block.
	StartLine int `json:"startLine"`
	LineCount int `json:"lineCount"`
	// Lines holds the raw text of every line without line breaks.
	Lines []string `json:"-"`

	byLine map[int]*Task
}

// SplitLines splits text into lines on "\n".
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// ParseDocument parses every line of text. It never fails; malformed lines
// degrade to best-effort tasks.
func ParseDocument(text string, opts Options) *Document {
	lines := SplitLines(text)
	doc := &Document{
		Tags:      newIndex(),
		Projects:  newIndex(),
		Contexts:  newIndex(),
		LineCount: len(lines),
		Lines:     make([]string, len(lines)),
		byLine:    make(map[int]*Task),
	}
	for i, l := range lines {
		doc.Lines[i] = strings.TrimSuffix(l, "\r")
	}
	doc.StartLine, doc.FrontMatter = parseFrontMatter(doc.Lines)

	// Stack of open ancestors; popped while the top is not shallower than
	// the incoming task.
	var stack []*Task
	var nodes []*Task
	for n := doc.StartLine; n < len(lines); n++ {
		res := ParseLine(doc.Lines[n], n, opts)
		switch res.Kind {
		case LineComment:
			doc.CommentLines = append(doc.CommentLines, res.Range)
			continue
		case LineBlank:
			continue
		}

		task := res.Task
		for len(stack) > 0 && stack[len(stack)-1].IndentLvl >= task.IndentLvl {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			doc.Tree = append(doc.Tree, task)
		} else {
			parent := stack[len(stack)-1]
			lineNumber := parent.LineNumber
			task.ParentLineNumber = &lineNumber
			parent.Subtasks = append(parent.Subtasks, task)
		}
		stack = append(stack, task)
		nodes = append(nodes, task)
		doc.byLine[task.LineNumber] = task

		occ := Occurrence{LineNumber: task.LineNumber, Title: task.Title}
		for _, tag := range task.Tags {
			doc.Tags.add(tag, occ)
		}
		for _, project := range task.Projects {
			doc.Projects.add(project, occ)
		}
		for _, context := range task.Contexts {
			doc.Contexts.add(context, occ)
		}
	}

	doc.Tasks = make([]Task, len(nodes))
	for i, node := range nodes {
		flat := *node
		flat.Subtasks = nil
		doc.Tasks[i] = flat
	}
	return doc
}

// parseFrontMatter detects a leading "---" ... "---" block and decodes it as YAML.
func parseFrontMatter(lines []string) (int, map[string]any) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterFence {
		return 0, nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != frontMatterFence {
			continue
		}
		var fm map[string]any
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "\n")), &fm); err != nil {
			fm = nil
		}
		return i + 1, fm
	}
	return 0, nil
}

// Line returns the raw text of line n, or "" when out of range.
func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.Lines) {
		return ""
	}
	return d.Lines[n]
}

// TaskAt returns the tree node at the 0-based line number, or nil.
func (d *Document) TaskAt(line int) *Task {
	return d.byLine[line]
}

// Walk visits every task of the tree in pre-order.
func (d *Document) Walk(fn func(t *Task)) {
	walk(d.Tree, fn)
}

// WalkTasks visits tasks and all their descendants in pre-order.
func WalkTasks(tasks []*Task, fn func(t *Task)) {
	walk(tasks, fn)
}

func walk(tasks []*Task, fn func(t *Task)) {
	for _, t := range tasks {
		fn(t)
		walk(t.Subtasks, fn)
	}
}

// NestedLineNumbers returns the line numbers of all descendants of t in pre-order.
func NestedLineNumbers(t *Task) []int {
	var lines []int
	walk(t.Subtasks, func(sub *Task) {
		lines = append(lines, sub.LineNumber)
	})
	return lines
}

// Stats counts completed tasks.
type Stats struct {
	Total   int     `json:"total"`
	Done    int     `json:"done"`
	Percent float64 `json:"percent"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", s.Done, s.Total, s.Percent)
}

// Stats returns completion statistics over all tasks.
func (d *Document) Stats() Stats {
	s := Stats{Total: len(d.Tasks)}
	for i := range d.Tasks {
		if d.Tasks[i].Done {
			s.Done++
		}
	}
	if s.Total > 0 {
		s.Percent = float64(s.Done) * 100 / float64(s.Total)
	}
	return s
}
