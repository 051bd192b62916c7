package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var stdin = bufio.NewReader(os.Stdin)

// promptLine asks a question and returns the trimmed answer.
func promptLine(question string) (string, error) {
	_, _ = labelColor.Printf("%s ", question)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptYesNo asks a yes/no question. Empty input means no.
func promptYesNo(question string) (bool, error) {
	answer, err := promptLine(question + " [y/N]:")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// promptChoice asks until the answer is one of the given single-letter
// options.
func promptChoice(question string, options ...string) (string, error) {
	for {
		answer, err := promptLine(question)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		for _, opt := range options {
			if answer == opt {
				return opt, nil
			}
		}
		PrintWarning(fmt.Sprintf("Please answer one of: %s", strings.Join(options, ", ")))
	}
}
