package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"notecraft/internal/cli/prompt"
	"notecraft/internal/utils"
)

// selectLine asks which task to apply action to. ok is false when the
// selection was cancelled; the cancellation is reported on stdout.
func (a *app) selectLine(cmd *cobra.Command, action string) (line int, ok bool, err error) {
	_, doc, err := a.parse(cmd.Context())
	if err != nil {
		return 0, false, err
	}
	sel := &prompt.TaskSelector{
		Tasks:    prompt.Candidates(doc, action, false),
		Prompt:   fmt.Sprintf("Select a task to %s:", action),
		Reader:   cmd.InOrStdin(),
		Writer:   a.stdout,
		NoPrompt: a.cfg.NoPrompt,
	}
	t, err := sel.Run()
	switch {
	case errors.Is(err, prompt.ErrNoPromptMode):
		return 0, false, utils.WrapWithSuggestion(
			errors.New("missing line argument"),
			fmt.Sprintf("Pass the line number, e.g. 'notecraft %s 3'", action),
		)
	case errors.Is(err, prompt.ErrSelectionCancelled):
		_, _ = fmt.Fprintln(a.stdout, "Cancelled")
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return t.LineNumber, true, nil
}
