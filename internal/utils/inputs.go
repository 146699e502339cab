package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxPromptAttempts bounds re-prompting on unrecognised answers.
const maxPromptAttempts = 3

// Confirm asks a yes/no question on w and reads the answer from r.
// An empty answer, end of input or repeated invalid answers mean no.
func Confirm(prompt string, r io.Reader, w io.Writer) bool {
	scanner := bufio.NewScanner(r)
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		_, _ = fmt.Fprintf(w, "%s [y/N]: ", prompt)
		if !scanner.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		}
	}
	return false
}
