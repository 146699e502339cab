package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"notecraft/backend"
	"notecraft/backend/sqlite"
	"notecraft/internal/dateexpr"
	"notecraft/internal/recurrence"
	"notecraft/internal/utils"
)

// recurrenceService wires the document and the last-visit database. The
// caller closes the returned store.
func (a *app) recurrenceService(now func() time.Time) (*recurrence.Service, *sqlite.Store, error) {
	visits, err := sqlite.New(a.conf.StateDB)
	if err != nil {
		return nil, nil, err
	}
	return &recurrence.Service{
		LastVisits: visits,
		Documents:  a.store,
		Options:    a.conf.ParseOptions(now()),
		Now:        now,
	}, visits, nil
}

func parseDateTime(flag, value string) (time.Time, error) {
	t, err := dateexpr.ParseDate(value, time.Local)
	if err != nil {
		return time.Time{}, utils.WrapWithSuggestion(
			fmt.Errorf("invalid %s: %s", flag, value),
			"Use YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS",
		)
	}
	return t, nil
}

type resetResponse struct {
	Ran       bool   `json:"ran"`
	LastVisit string `json:"lastVisit"`
	Batch     string `json:"batch,omitempty"`
	Edits     int    `json:"edits"`
	Result    string `json:"result"`
}

func newResetCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reopen recurring tasks and mark missed occurrences overdue",
		Long: `Reset recurring tasks once per day: completion, start and duration tags are
removed from done recurring tasks, counters go back to zero, and open tasks that
fell due since the last visit get an {overdue:...} marker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			now := cfg.now
			if v, _ := cmd.Flags().GetString("now"); v != "" {
				t, err := parseDateTime("--now", v)
				if err != nil {
					return err
				}
				now = func() time.Time { return t }
			}

			svc, visits, err := a.recurrenceService(now)
			if err != nil {
				return err
			}
			defer func() { _ = visits.Close() }()

			ctx := cmd.Context()
			key := a.store.Path()
			if v, _ := cmd.Flags().GetString("last-visit"); v != "" {
				t, err := parseDateTime("--last-visit", v)
				if err != nil {
					return err
				}
				if err := svc.SetLastVisit(ctx, key, t); err != nil {
					return err
				}
			}

			res, err := svc.Run(ctx, key)
			if err != nil {
				if errors.Is(err, backend.ErrStaleSnapshot) {
					return utils.ErrStaleDocument(key)
				}
				return err
			}

			lastVisit := dateexpr.FormatDate(res.LastVisit, true)
			if a.json {
				resp := resetResponse{Ran: res.Ran, LastVisit: lastVisit, Edits: res.Batch.Len(), Result: ResultActionCompleted}
				if res.Batch != nil {
					resp.Batch = res.Batch.ID.String()
				}
				return a.writeJSON(resp)
			}
			if !res.Ran {
				_, _ = fmt.Fprintf(stdout, "Already reset today (last visit %s)\n", lastVisit)
				a.result(ResultInfoOnly)
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "Reset %d edits since %s\n", res.Batch.Len(), lastVisit)
			a.result(ResultActionCompleted)
			return nil
		},
	}
	cmd.Flags().String("now", "", "Run as if it were this date (YYYY-MM-DD[THH:MM:SS])")
	cmd.Flags().String("last-visit", "", "Override the stored last visit before running")
	return cmd
}

func newLastVisitCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "last-visit",
		Short: "Show when recurring tasks of the document were last reset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			svc, visits, err := a.recurrenceService(cfg.now)
			if err != nil {
				return err
			}
			defer func() { _ = visits.Close() }()

			t, err := svc.LastVisits.Get(cmd.Context(), a.store.Path())
			if err != nil {
				return err
			}
			if a.json {
				value := ""
				if t != nil {
					value = dateexpr.FormatDate(*t, true)
				}
				return a.writeJSON(map[string]string{"document": a.store.Path(), "lastVisit": value})
			}
			if t == nil {
				_, _ = fmt.Fprintf(stdout, "%s has not been visited\n", a.store.Path())
			} else {
				_, _ = fmt.Fprintf(stdout, "%s last visited %s\n", a.store.Path(), dateexpr.FormatDate(*t, true))
			}
			a.result(ResultInfoOnly)
			return nil
		},
	}
	cmd.AddCommand(newLastVisitSetCmd(stdout, stderr, cfg))
	return cmd
}

func newLastVisitSetCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <datetime>",
		Short: "Set the last visit of the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseDateTime("last visit", args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			svc, visits, err := a.recurrenceService(cfg.now)
			if err != nil {
				return err
			}
			defer func() { _ = visits.Close() }()

			if err := svc.SetLastVisit(cmd.Context(), a.store.Path(), t); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Last visit set to %s\n", dateexpr.FormatDate(t, true))
			a.result(ResultActionCompleted)
			return nil
		},
	}
}
