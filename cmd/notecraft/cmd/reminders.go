package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"notecraft/backend/sqlite"
	"notecraft/internal/notification"
	"notecraft/internal/reminder"
	"notecraft/internal/utils"
)

// reminderService wires the reminder log and the configured channels. w, when
// not nil, also receives every reminder. The caller closes both returned values.
func (a *app) reminderService(w io.Writer) (*reminder.Service, *notification.Manager, *sqlite.Store, error) {
	log, err := sqlite.New(a.conf.StateDB)
	if err != nil {
		return nil, nil, nil, err
	}
	var opts []notification.Option
	if w != nil {
		opts = append(opts, notification.WithChannel(notification.NewWriterChannel(w)))
	}
	notifier := notification.NewManager(a.conf.NotificationConfig(), opts...)
	utils.Debugf("reminders go to %d channels", notifier.ChannelCount())
	return &reminder.Service{Log: log, Notifier: notifier, Now: a.cfg.now}, notifier, log, nil
}

type remindResponse struct {
	Reminders []reminder.Reminder `json:"reminders"`
	Sent      int                 `json:"sent"`
	Result    string              `json:"result"`
}

func newRemindCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for tasks that are due today or overdue",
		Long: `Send one reminder per due or overdue task and day. Reminders are printed and
delivered to the channels configured under 'reminders' in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			_, doc, err := a.parse(cmd.Context())
			if err != nil {
				return err
			}

			if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
				due := reminder.Due(doc)
				if a.json {
					return a.writeJSON(remindResponse{Reminders: due, Result: ResultInfoOnly})
				}
				if len(due) == 0 {
					_, _ = fmt.Fprintln(stdout, "Nothing is due")
				}
				for _, r := range due {
					_, _ = fmt.Fprintf(stdout, "[%s] %s\n", r.Kind, r.Message())
				}
				a.result(ResultInfoOnly)
				return nil
			}

			var echo io.Writer
			if !a.json {
				echo = stdout
			}
			svc, notifier, log, err := a.reminderService(echo)
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()
			defer func() { _ = notifier.Close() }()

			sent, err := svc.Check(cmd.Context(), a.store.Path(), doc)
			if err != nil {
				if len(sent) == 0 {
					return utils.WrapWithSuggestion(err, "Check the 'reminders' section of the config file")
				}
				utils.Warnf("some reminders failed: %v", err)
			}
			if a.json {
				if sent == nil {
					sent = []reminder.Reminder{}
				}
				return a.writeJSON(remindResponse{Reminders: sent, Sent: len(sent), Result: ResultActionCompleted})
			}
			if len(sent) == 0 {
				_, _ = fmt.Fprintln(stdout, "No new reminders")
				a.result(ResultInfoOnly)
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "Sent %d reminders\n", len(sent))
			a.result(ResultActionCompleted)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "List due tasks without sending or recording reminders")
	cmd.AddCommand(newRemindLogCmd(stdout, stderr, cfg))
	return cmd
}

func newRemindLogCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Show the reminder log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			path := a.conf.Reminders.LogFile
			if path == "" {
				return utils.WrapWithSuggestion(
					errors.New("no reminder log configured"),
					"Set reminders.log_file in the config file",
				)
			}
			lines, err := notification.ReadLog(path)
			if err != nil {
				return err
			}
			if a.json {
				if lines == nil {
					lines = []string{}
				}
				return a.writeJSON(map[string]any{"path": path, "entries": lines})
			}
			if len(lines) == 0 {
				_, _ = fmt.Fprintln(stdout, "No reminders logged")
			}
			for _, l := range lines {
				_, _ = fmt.Fprintln(stdout, l)
			}
			a.result(ResultInfoOnly)
			return nil
		},
	}
}
