package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"notecraft/internal/shutdown"
	"notecraft/internal/tui"
	"notecraft/internal/utils"
	"notecraft/internal/views"
	"notecraft/internal/watcher"
)

const cleanupTimeout = 5 * time.Second

// session starts a shutdown manager listening for SIGINT and SIGTERM. The
// returned function runs the registered cleanups; calls after the first do nothing.
func session(parent context.Context) (*shutdown.Manager, func()) {
	m := shutdown.NewManager(parent)
	stop := m.ListenForSignals(os.Interrupt, syscall.SIGTERM)
	return m, func() {
		stop()
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := m.Cleanup(ctx); err != nil {
			utils.Warnf("cleanup: %v", err)
		}
	}
}

func newWatchCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report changes to the task document until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetDuration("for")
			remind, _ := cmd.Flags().GetBool("remind")

			m, cleanup := session(cmd.Context())
			defer cleanup()
			ctx := m.Context()
			if limit > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, limit)
				defer cancel()
			}

			check := func() {}
			if remind {
				svc, notifier, log, err := a.reminderService(stdout)
				if err != nil {
					return err
				}
				m.RegisterCleanup("reminder log", func(context.Context) error { return log.Close() })
				m.RegisterCleanup("notifier", func(context.Context) error { return notifier.Close() })
				check = func() {
					_, doc, err := a.parse(ctx)
					if err == nil {
						_, err = svc.Check(ctx, a.store.Path(), doc)
					}
					if err != nil {
						utils.Warnf("reminders: %v", err)
					}
				}
			}

			w, err := watcher.New(watcher.DefaultConfig(a.store.Path(), func(path string) {
				_, doc, err := a.parse(ctx)
				if err != nil {
					utils.Warnf("failed to read %s: %v", path, err)
					return
				}
				_, _ = fmt.Fprintf(stdout, "%s changed: %s\n", path, doc.Stats())
				check()
			}))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Watching %s\n", a.store.Path())
			if err := w.Start(); err != nil {
				return err
			}
			m.RegisterCleanup("watcher", func(context.Context) error {
				w.Stop()
				return nil
			})
			check()

			<-ctx.Done()
			cleanup()
			a.result(ResultInfoOnly)
			return nil
		},
	}
	cmd.Flags().Duration("for", 0, "Stop after this long (default: until interrupted)")
	cmd.Flags().Bool("remind", false, "Send due reminders on start and after every change")
	return cmd
}

func newTUICmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit the task document interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return utils.WrapWithSuggestion(
					errors.New("tui requires a terminal"),
					"Use 'notecraft list' for non-interactive output",
				)
			}
			a, err := newApp(cmd, cfg, stdout, stderr)
			if err != nil {
				return err
			}
			view, err := views.NewLoader(a.conf.ViewsDir).LoadView(a.conf.DefaultView)
			if err != nil {
				return utils.WrapWithSuggestion(err, "Check default_view in the config file")
			}

			m, cleanup := session(cmd.Context())
			defer cleanup()

			// Recurring tasks are reset before the first render.
			if svc, visits, err := a.recurrenceService(cfg.now); err != nil {
				utils.Warnf("recurrence reset skipped: %v", err)
			} else {
				m.RegisterCleanup("state database", func(context.Context) error { return visits.Close() })
				if _, err := svc.Run(m.Context(), a.store.Path()); err != nil {
					utils.Warnf("recurrence reset failed: %v", err)
				}
			}

			p := tui.NewProgram(a.store, tui.Options{
				Parse:   a.conf.ParseOptions(cfg.now()),
				Actions: a.actions,
				View:    view,
				Now:     cfg.now,
			})

			w, err := watcher.New(&watcher.Config{
				Path:             a.store.Path(),
				DebounceDuration: watcher.DefaultDebounceDuration,
				OnChange:         func(string) { p.Send(tui.ReloadMsg{}) },
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				utils.Warnf("live reload disabled: %v", err)
			} else {
				m.RegisterCleanup("watcher", func(context.Context) error {
					w.Stop()
					return nil
				})
			}

			go func() {
				<-m.Context().Done()
				p.Quit()
			}()

			// Logs would corrupt the alternate screen.
			utils.SetOutput(io.Discard)
			defer utils.SetOutput(stderr)

			_, err = p.Run()
			m.Shutdown()
			return err
		},
	}
}
