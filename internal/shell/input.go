package shell

import (
	"bufio"
	"io"
	"sort"

	"github.com/chzyer/readline"
)

// LineReader feeds command lines to Run. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SaveHistory(line string) error
	Close() error
}

// NewReadline returns an interactive line editor with the shell prompt,
// command completion and history persisted to historyFile (none if empty).
// Ctrl-C makes Readline return readline.ErrInterrupt.
func NewReadline(historyFile string) (*readline.Instance, error) {
	names := commandNames()
	names = append(names, "help", "exit", "quit")

	items := make([]readline.PrefixCompleterInterface, len(names))
	for i, name := range names {
		items[i] = readline.PcItem(name)
	}

	return readline.NewEx(&readline.Config{
		Prompt:                 Prompt,
		HistoryFile:            historyFile,
		HistoryLimit:           1000,
		DisableAutoSaveHistory: true,
		HistorySearchFold:      true,
		AutoComplete:           readline.NewPrefixCompleter(items...),
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
}

// scanReader reads plain lines, for piped input.
type scanReader struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewScanner returns a LineReader over non-interactive input. The prompt is
// written to out before each line unless out is nil. History is not kept.
func NewScanner(in io.Reader, out io.Writer) LineReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	return &scanReader{in: in, out: out, scanner: scanner}
}

func (r *scanReader) Readline() (string, error) {
	if r.out != nil {
		_, _ = io.WriteString(r.out, Prompt)
	}

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return r.scanner.Text(), nil
}

func (r *scanReader) SaveHistory(string) error { return nil }

func (r *scanReader) Close() error {
	if c, ok := r.in.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
