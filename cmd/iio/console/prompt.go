package console

import (
	"fmt"
	"strconv"

	"github.com/chzyer/readline"
)

// Select prints numbered options and prompts until one is chosen. The first
// option is the default on empty input.
func Select(question string, options []string) (int, error) {
	for i, opt := range options {
		Printf("  %s %s\n", White(fmt.Sprintf("[%d]", i)), opt)
	}
	rl, err := readline.New(fmt.Sprintf("%s [0-%d]: ", question, len(options)-1))
	if err != nil {
		return 0, err
	}
	defer func() { _ = rl.Close() }()
	for {
		response, err := rl.Readline()
		if err != nil {
			return 0, err
		}
		if response == "" {
			return 0, nil
		}
		idx, err := strconv.Atoi(response)
		if err == nil && idx >= 0 && idx < len(options) {
			return idx, nil
		}
		Warnf("pick a number between 0 and %d", len(options)-1)
	}
}
