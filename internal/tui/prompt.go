package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/qxxt/pkgup/internal/upgrade"
)

// ConfirmPrompt asks a yes/no question and reads one line. Empty input and
// anything but y/yes mean no.
func ConfirmPrompt(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// PromptSelector is the single-candidate shortcut: instead of the full
// selection screen, ask one yes/no question. It satisfies upgrade.Selector
// and must only be used with a one-element candidate set.
func PromptSelector(in io.Reader, out io.Writer) upgrade.Selector {
	return func(cs upgrade.CandidateSet) ([]int, bool, error) {
		if len(cs) != 1 {
			return nil, false, fmt.Errorf("prompt selector got %d candidates, want 1", len(cs))
		}
		yes, err := ConfirmPrompt(in, out, fmt.Sprintf("Upgrade %s?", cs[0]))
		if err != nil {
			return nil, false, err
		}
		if !yes {
			return nil, false, nil
		}
		return []int{0}, true, nil
	}
}
