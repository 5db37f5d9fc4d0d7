package palette

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TerminalBackend prints a numbered list and reads the choice.
type TerminalBackend struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalBackend uses stdin/stdout when in or out is nil.
func NewTerminalBackend(in io.Reader, out io.Writer) *TerminalBackend {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &TerminalBackend{in: bufio.NewReader(in), out: out}
}

func (t *TerminalBackend) Name() string {
	return "terminal"
}

// Show lists the items, numbering only selectable ones. An empty line or EOF
// cancels.
func (t *TerminalBackend) Show(prompt string, items []Item, message string) (Item, error) {
	if message != "" {
		fmt.Fprintln(t.out, message)
	}
	choices := make(map[int]Item)
	n := 0
	for _, it := range items {
		switch {
		case it.Separator:
			fmt.Fprintln(t.out, "   "+separatorLabel)
		case !it.selectable():
			fmt.Fprintf(t.out, "   %s\n", sanitizeLabel(it.Label))
		default:
			n++
			choices[n] = it
			line := fmt.Sprintf("%2d) %s", n, sanitizeLabel(it.Label))
			if it.Shortcut != "" {
				line += fmt.Sprintf("  [%s]", it.Shortcut)
			}
			fmt.Fprintln(t.out, line)
		}
	}
	if n == 0 {
		return Item{}, fmt.Errorf("palette: no selectable items")
	}

	for {
		if prompt == "" {
			prompt = "penc"
		}
		fmt.Fprintf(t.out, "%s> ", prompt)
		line, err := t.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil && err != io.EOF {
				return Item{}, err
			}
			return Item{}, ErrCancelled
		}
		if it, ok := t.match(line, choices); ok {
			return it, nil
		}
		fmt.Fprintf(t.out, "invalid choice %q\n", line)
		if err != nil {
			return Item{}, ErrCancelled
		}
	}
}

// match accepts a number or a shortcut key.
func (t *TerminalBackend) match(line string, choices map[int]Item) (Item, bool) {
	if idx, err := strconv.Atoi(line); err == nil {
		it, ok := choices[idx]
		return it, ok
	}
	for _, it := range choices {
		if it.Shortcut != "" && it.Shortcut == line {
			return it, true
		}
	}
	return Item{}, false
}
