package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"notecraft/backend/file"
	"notecraft/internal/actions"
	"notecraft/internal/cli/prompt"
	"notecraft/internal/config"
	"notecraft/internal/dateexpr"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
	"notecraft/internal/utils"
)

type lineAction func(doc *markdown.Document, line int) (*edit.Batch, error)

// newLineCmd builds a command running one action on the task at [line].
// Without a line the task is chosen interactively.
func newLineCmd(use, short, action string, stdout, stderr io.Writer, cfg *Config, pick func(a *actions.Actions) lineAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [line]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var line int
			if len(args) == 1 {
				var err error
				if line, err = parseLine(args[0]); err != nil {
					return err
				}
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				selected, ok, err := a.selectLine(cmd, action)
				if err != nil || !ok {
					return err
				}
				line = selected
			}
			return a.editLine(cmd.Context(), action, line, pick(a.actions))
		},
	}
}

func newToggleCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return newLineCmd("toggle", "Toggle a task done, or count up a counted task", "toggle", stdout, stderr, cfg,
		func(a *actions.Actions) lineAction { return a.ToggleDoneOrIncrementCount })
}

func newStartCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return newLineCmd("start", "Record the start time of a task", "start", stdout, stderr, cfg,
		func(a *actions.Actions) lineAction { return a.StartTask })
}

func newHideCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return newLineCmd("hide", "Mark a task hidden", "hide", stdout, stderr, cfg,
		func(a *actions.Actions) lineAction { return a.HideTask })
}

func newCommentCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return newLineCmd("comment", "Comment out a line, or uncomment it", "comment", stdout, stderr, cfg,
		func(a *actions.Actions) lineAction { return a.ToggleComment })
}

func newUndueCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return newLineCmd("undue", "Remove the overdue marker of a task", "undue", stdout, stderr, cfg,
		func(a *actions.Actions) lineAction {
			return func(doc *markdown.Document, line int) (*edit.Batch, error) {
				if doc.TaskAt(line) == nil {
					return nil, actions.ErrNoTask
				}
				return a.RemoveOverdue(doc, line)
			}
		})
}

func newCollapseCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collapse <line>",
		Short: "Collapse or expand a task with subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			fn := a.actions.ToggleCollapse
			if recursive, _ := cmd.Flags().GetBool("recursive"); recursive {
				fn = a.actions.ToggleCollapseRecursive
			}
			return a.editLine(cmd.Context(), "collapse", line, fn)
		},
	}
	cmd.Flags().BoolP("recursive", "r", false, "Also toggle nested tasks with subtasks")
	return cmd
}

func newCountCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:       "count <line> inc|dec",
		Short:     "Step the {count:current/needed} counter of a task",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"inc", "dec"},
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			var fn lineAction
			switch strings.ToLower(args[1]) {
			case "inc", "+":
				fn = a.actions.IncrementCount
			case "dec", "-":
				fn = a.actions.DecrementCount
			default:
				return utils.ErrInvalidChoice("count step", args[1], []string{"inc", "dec"})
			}
			err = a.editLine(cmd.Context(), "count", line, fn)
			if errors.Is(err, actions.ErrNoCount) {
				return utils.WrapWithSuggestion(err, "Add {count:0/N} to the task first")
			}
			return err
		},
	}
}

func newPriorityCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <line> up|down",
		Short: "Raise or lower the (A)-(Z) priority of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			var fn lineAction
			switch strings.ToLower(args[1]) {
			case "up", "+":
				fn = a.actions.IncrementPriority
			case "down", "-":
				fn = a.actions.DecrementPriority
			default:
				return utils.ErrInvalidChoice("priority step", args[1], []string{"up", "down"})
			}
			return a.editLine(cmd.Context(), "priority", line, fn)
		},
	}
}

func newDueCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "due <line> <expr...>",
		Short: "Set the due date of a task",
		Long: `Set the due date of a task. The expression is resolved against today:
  2024-03-01, +3, -1, +2w, +1m, fri, 15, jan 5,
  this week, next week, or a recurrence e2d, e1m, e1y.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			expr := strings.Join(args[1:], " ")
			due := dateexpr.Resolve(expr, cfg.now(), a.conf.DueOptions())
			if due == "" {
				return utils.ErrInvalidDueDate(expr)
			}
			return a.editLine(cmd.Context(), "due", line, func(doc *markdown.Document, line int) (*edit.Batch, error) {
				return a.actions.SetDueDate(doc, line, due)
			})
		},
	}
}

func newDeleteCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <line>",
		Short: "Delete a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := parseLine(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			_, doc, err := a.parse(ctx)
			if err != nil {
				return err
			}
			t := doc.TaskAt(line)
			if t == nil {
				return utils.ErrTaskNotFound(line + 1)
			}
			if n := len(markdown.NestedLineNumbers(t)); n > 0 && !cfg.NoPrompt {
				question := fmt.Sprintf("Delete %q and %d nested lines?", t.Title, n)
				if !utils.Confirm(question, cmd.InOrStdin(), stdout) {
					_, _ = fmt.Fprintln(stdout, "Cancelled")
					return nil
				}
			}
			title := t.Title
			_, b, err := a.edit(ctx, func(doc *markdown.Document) (*edit.Batch, error) {
				return a.actions.DeleteTask(doc, line)
			})
			if err != nil {
				return lineError(err, line)
			}
			return a.report("delete", fmt.Sprintf("Deleted line %d: %s (%d lines)", line+1, title, b.Len()), b)
		},
	}
}

func newAddCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add [text...]",
		Short: "Append a task to the document",
		Long: `Append a task to the document. Without text the title, priority, due date,
tags and contexts are asked for one by one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if len(args) == 0 {
				adder := &prompt.InteractiveAdder{
					Reader:   cmd.InOrStdin(),
					Writer:   stdout,
					NoPrompt: cfg.NoPrompt,
					ResolveDue: func(input string) string {
						return dateexpr.Resolve(input, cfg.now(), a.conf.DueOptions())
					},
				}
				fields, err := adder.Run()
				if errors.Is(err, prompt.ErrNoPromptMode) {
					return utils.WrapWithSuggestion(errors.New("missing task text"), "Pass the task text, e.g. 'notecraft add Buy milk'")
				}
				if err != nil {
					return err
				}
				text = fields.Line()
			}
			doc, b, err := a.edit(cmd.Context(), func(doc *markdown.Document) (*edit.Batch, error) {
				return a.actions.AddTask(doc, text)
			})
			if err != nil {
				return err
			}
			return a.reportLine("add", doc, lastTaskLine(doc), b)
		},
	}
}

// lastTaskLine returns the line of the last task, or 0.
func lastTaskLine(doc *markdown.Document) int {
	if len(doc.Tasks) == 0 {
		return 0
	}
	return doc.Tasks[len(doc.Tasks)-1].LineNumber
}

func newRenameCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	kinds := []string{actions.KindTag, actions.KindProject, actions.KindContext}
	return &cobra.Command{
		Use:   "rename tag|project|context <old> <new>",
		Short: "Rename a tag, project or context everywhere in the document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := strings.ToLower(args[0])
			switch kind {
			case actions.KindTag, actions.KindProject, actions.KindContext:
			default:
				return utils.ErrInvalidChoice("kind", args[0], kinds)
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			oldName := strings.TrimLeft(args[1], "#@+")
			newName := strings.TrimLeft(args[2], "#@+")
			_, b, err := a.edit(cmd.Context(), func(doc *markdown.Document) (*edit.Batch, error) {
				return a.actions.Rename(doc, kind, oldName, newName)
			})
			if err != nil {
				return err
			}
			return a.report("rename", fmt.Sprintf("Renamed %s %q to %q (%d occurrences)", kind, oldName, newName, b.Len()), b)
		},
	}
}

func newSortCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sort <from> <to>",
		Short: "Sort the tasks between two lines by priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseLine(args[0])
			if err != nil {
				return err
			}
			to, err := parseLine(args[1])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			_, b, err := a.edit(cmd.Context(), func(doc *markdown.Document) (*edit.Batch, error) {
				return a.actions.SortByPriority(doc, from, to)
			})
			if err != nil {
				return err
			}
			return a.report("sort", fmt.Sprintf("Sorted lines %s to %s (%d moved)", args[0], args[1], b.Len()), b)
		},
	}
}

func newArchiveCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move completed root tasks to the archive document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			text, doc, err := a.parse(ctx)
			if err != nil {
				return err
			}
			res, err := a.actions.ArchiveCompleted(doc)
			if errors.Is(err, actions.ErrNoArchiveFile) {
				return utils.WrapWithSuggestion(err, "Set default_archive_file in your config file")
			}
			if err != nil {
				return err
			}
			if len(res.Lines) == 0 {
				return a.report("archive", "Nothing to archive", res.Source)
			}

			archive, err := file.New(file.Config{FilePath: config.ExpandPath(a.conf.DefaultArchiveFile)})
			if err != nil {
				return err
			}
			// Archive first: a failed source edit leaves duplicates, never lost tasks.
			if err := archive.Append(ctx, res.Lines); err != nil {
				return err
			}
			if _, err := a.store.Apply(ctx, text, res.Source); err != nil {
				return fmt.Errorf("archived %d lines but could not remove them: %w", len(res.Lines), err)
			}
			return a.report("archive", fmt.Sprintf("Archived %d lines to %s", len(res.Lines), archive.Path()), res.Source)
		},
	}
}
