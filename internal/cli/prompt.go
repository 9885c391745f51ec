package cli

import (
	"errors"
	"io"
	"sync"

	"github.com/chzyer/readline"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

// Prompter asks the user for one line of input.
type Prompter interface {
	Prompt(label string) (string, error)
}

// ReadlinePrompter prompts on the terminal with line editing.  The
// readline instance is opened on first use so commands that never prompt
// do not touch the terminal.
type ReadlinePrompter struct {
	Stdin  io.ReadCloser
	Stdout io.Writer

	once sync.Once
	rl   *readline.Instance
	err  error
}

func (p *ReadlinePrompter) open() {
	p.rl, p.err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdin:           p.Stdin,
		Stdout:          p.Stdout,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
}

func (p *ReadlinePrompter) Prompt(label string) (string, error) {
	p.once.Do(p.open)
	if p.err != nil {
		return "", p.err
	}
	p.rl.SetPrompt(label + ": ")
	line, err := p.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrAborted
	case errors.Is(err, io.EOF):
		// end of input: treat as an empty answer
		return "", nil
	case err != nil:
		return "", err
	}
	return line, nil
}

// Close releases the terminal if it was opened.
func (p *ReadlinePrompter) Close() error {
	if p.rl == nil {
		return nil
	}
	return p.rl.Close()
}
