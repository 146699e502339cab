package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"notecraft/backend"
	"notecraft/backend/file"
	"notecraft/internal/actions"
	"notecraft/internal/config"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
	"notecraft/internal/utils"
	"notecraft/internal/views"
)

// Version and Commit are set at build time
var (
	Version = "dev"
	Commit  = "none"
)

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds the settings injected by main or by tests. Flags override
// these; the config file fills what is left.
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	ConfigPath   string    // Path to config.yaml (for testing)
	FilePath     string    // Task document (for testing)
	StateDBPath  string    // Path to the last-visit database (for testing)
	ViewsPath    string    // Path to views directory (for testing)
	Stdin        io.Reader // Prompt input (for testing)
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewNotecraft(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if cfg != nil && cfg.Stdin != nil {
		rootCmd.SetIn(cfg.Stdin)
	}

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) || (cfg != nil && cfg.OutputFormat == "json") {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg != nil && cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewNotecraft creates the root command with injectable IO
func NewNotecraft(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "notecraft",
		Short:   "Manage tasks kept in a plain text document",
		Long:    "notecraft edits a line-oriented task document: due dates, recurrence, counters, tags and archiving.",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("file", "f", "", "Task document (default: default_file from config)")
	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	cmd.AddCommand(
		newParseCmd(stdout, stderr, cfg),
		newListCmd(stdout, stderr, cfg),
		newViewsCmd(stdout, stderr, cfg),
		newIndexCmd("tags", stdout, stderr, cfg),
		newIndexCmd("projects", stdout, stderr, cfg),
		newIndexCmd("contexts", stdout, stderr, cfg),
		newStatsCmd(stdout, stderr, cfg),

		newToggleCmd(stdout, stderr, cfg),
		newCountCmd(stdout, stderr, cfg),
		newDueCmd(stdout, stderr, cfg),
		newUndueCmd(stdout, stderr, cfg),
		newPriorityCmd(stdout, stderr, cfg),
		newStartCmd(stdout, stderr, cfg),
		newHideCmd(stdout, stderr, cfg),
		newCollapseCmd(stdout, stderr, cfg),
		newDeleteCmd(stdout, stderr, cfg),
		newArchiveCmd(stdout, stderr, cfg),
		newRenameCmd(stdout, stderr, cfg),
		newCommentCmd(stdout, stderr, cfg),
		newAddCmd(stdout, stderr, cfg),
		newSortCmd(stdout, stderr, cfg),

		newResetCmd(stdout, stderr, cfg),
		newLastVisitCmd(stdout, stderr, cfg),
		newRemindCmd(stdout, stderr, cfg),
		newWatchCmd(stdout, stderr, cfg),
		newTUICmd(stdout, stderr, cfg),
		newVersionCmd(stdout),
	)

	return cmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(stdout, "notecraft\nVersion: %s\nCommit: %s\n", Version, Commit)
			return nil
		},
	}
}

// app is the per-invocation environment shared by the commands.
type app struct {
	cfg     *Config
	conf    *config.Config
	store   *file.Store
	actions *actions.Actions
	stdout  io.Writer
	stderr  io.Writer
	json    bool
}

// loadConfig reads the config file and applies the global flags.
func loadConfig(cmd *cobra.Command, cfg *Config, stderr io.Writer) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = cfg.ConfigPath
	}
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	outputFormat := cfg.OutputFormat
	if jsonOutput {
		outputFormat = "json"
	}
	conf.ApplyFlags(verbose || cfg.Verbose, outputFormat)
	if cfg.StateDBPath != "" {
		conf.StateDB = cfg.StateDBPath
	}
	if cfg.ViewsPath != "" {
		conf.ViewsDir = cfg.ViewsPath
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	utils.SetOutput(stderr)
	utils.SetVerboseMode(conf.Logging.Verbose)
	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		cfg.NoPrompt = true
	}
	return conf, nil
}

// newApp loads the configuration and opens the task document.
func newApp(cmd *cobra.Command, cfg *Config, stdout, stderr io.Writer) (*app, error) {
	conf, err := loadConfig(cmd, cfg, stderr)
	if err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.FilePath
	}
	if path == "" {
		path = conf.DefaultFile
	}
	if path == "" {
		return nil, utils.ErrNoDocument()
	}
	store, err := file.New(file.Config{FilePath: config.ExpandPath(path)})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		conf:    conf,
		store:   store,
		actions: actions.New(conf.ActionSettings(cfg.now)),
		stdout:  stdout,
		stderr:  stderr,
		json:    conf.OutputFormat == "json",
	}, nil
}

func (c *Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// parse reads and parses the document. A missing document parses as empty.
func (a *app) parse(ctx context.Context) (string, *markdown.Document, error) {
	text, err := a.store.Read(ctx)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return "", nil, err
	}
	return text, markdown.ParseDocument(text, a.conf.ParseOptions(a.cfg.now())), nil
}

// edit builds a batch against a fresh snapshot, applies it and returns the
// reparsed document.
func (a *app) edit(ctx context.Context, build func(doc *markdown.Document) (*edit.Batch, error)) (*markdown.Document, *edit.Batch, error) {
	text, doc, err := a.parse(ctx)
	if err != nil {
		return nil, nil, err
	}
	b, err := build(doc)
	if err != nil {
		return nil, nil, err
	}
	updated, err := a.store.Apply(ctx, text, b)
	if err != nil {
		if errors.Is(err, backend.ErrStaleSnapshot) {
			return nil, nil, utils.ErrStaleDocument(a.store.Path())
		}
		return nil, nil, err
	}
	return markdown.ParseDocument(updated, a.conf.ParseOptions(a.cfg.now())), b, nil
}

// editLine runs a line action and reports the task on that line afterwards.
func (a *app) editLine(ctx context.Context, action string, line int, build func(doc *markdown.Document, line int) (*edit.Batch, error)) error {
	doc, b, err := a.edit(ctx, func(doc *markdown.Document) (*edit.Batch, error) {
		return build(doc, line)
	})
	if err != nil {
		return lineError(err, line)
	}
	return a.reportLine(action, doc, line, b)
}

// lineError maps action errors on a line to user-facing errors.
func lineError(err error, line int) error {
	if errors.Is(err, actions.ErrNoTask) {
		return utils.ErrTaskNotFound(line + 1)
	}
	return err
}

// parseLine converts a 1-based line argument to a 0-based line.
func parseLine(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, utils.ErrInvalidLine(arg)
	}
	return n - 1, nil
}

type actionResponse struct {
	Action string         `json:"action"`
	Line   int            `json:"line,omitempty"`
	Task   *markdown.Task `json:"task,omitempty"`
	Batch  string         `json:"batch,omitempty"`
	Edits  int            `json:"edits"`
	Result string         `json:"result"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       int    `json:"code"`
	Result     string `json:"result"`
}

// reportLine prints the task now on line, or only the action when the line
// no longer holds a task.
func (a *app) reportLine(action string, doc *markdown.Document, line int, b *edit.Batch) error {
	var task *markdown.Task
	if t := doc.TaskAt(line); t != nil {
		copied := *t
		copied.Subtasks = nil
		task = &copied
	}
	utils.Debugf("%s: batch %s with %d edits", action, b.ID, b.Len())

	if a.json {
		return a.writeJSON(actionResponse{
			Action: action,
			Line:   line + 1,
			Task:   task,
			Batch:  b.ID.String(),
			Edits:  b.Len(),
			Result: ResultActionCompleted,
		})
	}
	if task != nil {
		_, _ = fmt.Fprintf(a.stdout, "%s line %d: %s\n", action, line+1, views.FormatTask(task))
	} else {
		_, _ = fmt.Fprintf(a.stdout, "%s line %d\n", action, line+1)
	}
	a.result(ResultActionCompleted)
	return nil
}

// report prints a document-wide action.
func (a *app) report(action, message string, b *edit.Batch) error {
	utils.Debugf("%s: batch %s with %d edits", action, b.ID, b.Len())
	if a.json {
		return a.writeJSON(actionResponse{Action: action, Batch: b.ID.String(), Edits: b.Len(), Result: ResultActionCompleted})
	}
	_, _ = fmt.Fprintln(a.stdout, message)
	a.result(ResultActionCompleted)
	return nil
}

// result emits a result code in no-prompt mode.
func (a *app) result(code string) {
	if a.cfg.NoPrompt {
		_, _ = fmt.Fprintln(a.stdout, code)
	}
}

func (a *app) writeJSON(v any) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.stdout, string(jsonBytes))
	return nil
}

// outputErrorJSON reports err on stdout with its hint in a separate field.
func outputErrorJSON(err error, stdout io.Writer) {
	message, suggestion := utils.SplitSuggestion(err)
	response := errorResponse{
		Error:      message,
		Suggestion: suggestion,
		Code:       1,
		Result:     ResultError,
	}

	jsonBytes, _ := json.Marshal(response)
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}
