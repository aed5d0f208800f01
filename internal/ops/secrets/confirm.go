package secrets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotInteractive is returned when a confirmation is needed without a terminal
var ErrNotInteractive = errors.New("confirmation needs an interactive terminal (use --yes)")

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(question string, def bool) (bool, error)
}

// TerminalConfirmer prompts on a terminal
type TerminalConfirmer struct {
	In  *os.File
	Out io.Writer
	// AssumeYes answers every question with yes
	AssumeYes bool
}

// NewTerminalConfirmer prompts on stdin/stderr
func NewTerminalConfirmer(assumeYes bool) *TerminalConfirmer {
	return &TerminalConfirmer{In: os.Stdin, Out: os.Stderr, AssumeYes: assumeYes}
}

func (c *TerminalConfirmer) Confirm(question string, def bool) (bool, error) {
	if c.AssumeYes {
		return true, nil
	}
	if c.In == nil || !term.IsTerminal(int(c.In.Fd())) {
		return false, ErrNotInteractive
	}

	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(c.Out, "%s %s ", question, hint)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return ParseAnswer(line, def), nil
}

// ParseAnswer interprets a yes/no reply, falling back to def for anything else
func ParseAnswer(answer string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// Answer is a Confirmer with a fixed reply
type Answer bool

func (a Answer) Confirm(string, bool) (bool, error) {
	return bool(a), nil
}
