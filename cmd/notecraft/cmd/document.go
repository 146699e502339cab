package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"notecraft/internal/markdown"
	"notecraft/internal/utils"
	"notecraft/internal/views"
)

func newParseCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Show the task tree and the tag, project and context indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			_, doc, err := a.parse(cmd.Context())
			if err != nil {
				return err
			}
			if a.json {
				return a.writeJSON(doc)
			}

			views.NewRenderer(views.AllView(), stdout).Render(doc.Tasks)
			writeIndexLine(stdout, "Tags", "#", views.SortIndex(doc.Tags, a.conf.SortTagsView))
			writeIndexLine(stdout, "Projects", "+", views.SortIndex(doc.Projects, a.conf.SortTagsView))
			writeIndexLine(stdout, "Contexts", "@", views.SortIndex(doc.Contexts, a.conf.SortTagsView))
			_, _ = fmt.Fprintf(stdout, "Done: %s\n", doc.Stats())
			a.result(ResultInfoOnly)
			return nil
		},
	}
}

func writeIndexLine(w io.Writer, label, sigil string, entries []markdown.Entry) {
	if len(entries) == 0 {
		return
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s%s(%d)", sigil, e.Name, e.Count)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", label, strings.Join(parts, " "))
}

type listResponse struct {
	View   string          `json:"view"`
	Query  string          `json:"query,omitempty"`
	Tasks  []markdown.Task `json:"tasks"`
	Count  int             `json:"count"`
	Result string          `json:"result"`
}

func newListCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [query...]",
		Short: "List tasks matching a view and a filter query",
		Long: `List tasks. The query is a conjunction of terms:
  #tag  @context  +project  $done $due $overdue $recurring  plain words match the title.
Prefix a term with - to negate it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			viewName, _ := cmd.Flags().GetString("view")
			if viewName == "" {
				viewName = a.conf.DefaultView
			}
			if viewName == "" && len(args) > 0 {
				viewName = "all"
			}
			view, err := views.NewLoader(a.conf.ViewsDir).LoadView(viewName)
			if err != nil {
				return utils.WrapWithSuggestion(err, "Use 'notecraft views' to see available views")
			}

			_, doc, err := a.parse(cmd.Context())
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			tasks := views.Filter(doc.Tasks, query)
			utils.Debugf("view %s, query %q: %d of %d tasks", view.Name, query, len(tasks), len(doc.Tasks))

			if a.json {
				selected := views.ApplyView(tasks, view)
				for i := range selected {
					selected[i].Subtasks = nil
				}
				if selected == nil {
					selected = []markdown.Task{}
				}
				return a.writeJSON(listResponse{
					View:   view.Name,
					Query:  query,
					Tasks:  selected,
					Count:  len(selected),
					Result: ResultInfoOnly,
				})
			}

			if len(views.ApplyView(tasks, view)) == 0 {
				_, _ = fmt.Fprintln(stdout, "No tasks")
			} else {
				views.NewRenderer(view, stdout).Render(tasks)
			}
			a.result(ResultInfoOnly)
			return nil
		},
	}
	cmd.Flags().StringP("view", "v", "", "View to use (default, all, due, or a custom view name)")
	return cmd
}

func newViewsCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "List available views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd, cfg, stderr)
			if err != nil {
				return err
			}
			if setup, _ := cmd.Flags().GetBool("init"); setup {
				created, err := views.SetupViewsFolder(conf.ViewsDir)
				if err != nil {
					return fmt.Errorf("failed to create views directory: %w", err)
				}
				if created {
					_, _ = fmt.Fprintf(stdout, "Created %s with an example view\n", conf.ViewsDir)
				}
			}

			viewList, err := views.NewLoader(conf.ViewsDir).ListViews()
			if err != nil {
				return err
			}
			if conf.OutputFormat == "json" {
				jsonOut := &app{cfg: cfg, stdout: stdout}
				return jsonOut.writeJSON(viewList)
			}

			_, _ = fmt.Fprintln(stdout, "Available views:")
			for _, v := range viewList {
				viewType := "custom"
				switch {
				case v.Overrides:
					viewType = "custom, overrides built-in"
				case v.BuiltIn:
					viewType = "built-in"
				}
				_, _ = fmt.Fprintf(stdout, "  - %s (%s): %s\n", v.Name, viewType, v.Query)
			}
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
			}
			return nil
		},
	}
	cmd.Flags().Bool("init", false, "Create the views directory with an example view")
	return cmd
}

// newIndexCmd lists the names of one index: tags, projects or contexts.
func newIndexCmd(kind string, stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: "List " + kind + " with the tasks using them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			mode, _ := cmd.Flags().GetString("sort")
			if mode == "" {
				mode = a.conf.SortTagsView
			}
			if mode != views.SortAlphabetic && mode != views.SortCount {
				return utils.ErrInvalidChoice("sort mode", mode, []string{views.SortAlphabetic, views.SortCount})
			}

			_, doc, err := a.parse(cmd.Context())
			if err != nil {
				return err
			}
			index, sigil := doc.Tags, "#"
			switch kind {
			case "projects":
				index, sigil = doc.Projects, "+"
			case "contexts":
				index, sigil = doc.Contexts, "@"
			}
			entries := views.SortIndex(index, mode)

			if a.json {
				return a.writeJSON(entries)
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintf(stdout, "No %s\n", kind)
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(stdout, "%s%s (%d)\n", sigil, e.Name, e.Count)
				for _, o := range e.Occurrences {
					_, _ = fmt.Fprintf(stdout, "  %4d %s\n", o.LineNumber+1, o.Title)
				}
			}
			a.result(ResultInfoOnly)
			return nil
		},
	}
	cmd.Flags().String("sort", "", "Sort by 'alphabetic' or 'count' (default: sort_tags_view from config)")
	return cmd
}

func newStatsCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many tasks are done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			_, doc, err := a.parse(cmd.Context())
			if err != nil {
				return err
			}
			stats := doc.Stats()
			if a.json {
				return a.writeJSON(stats)
			}
			_, _ = fmt.Fprintf(stdout, "%d of %d tasks done (%.1f%%)\n", stats.Done, stats.Total, stats.Percent)
			a.result(ResultInfoOnly)
			return nil
		},
	}
}
