// Package shell implements the interactive geocode command interpreter.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/woozymasta/geocode/internal/address"
	"github.com/woozymasta/geocode/internal/config"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"
)

// Prompt is printed before every command.
const Prompt = "geocode> "

const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorRed   = "\033[31m"
	colorBlue  = "\033[34m"
)

// errNoResolver is reported by address commands when no API key is configured.
var errNoResolver = errors.New("POSITION_STACK_KEY not set, address lookups are disabled")

type command struct {
	run   func(s *Shell, ctx context.Context, arg string) error
	usage string
	help  string
}

var commands = map[string]command{
	"address": {
		run:   (*Shell).address,
		usage: "<[lat, lng]>",
		help:  "Look up the postal address for a coordinate. Eg. address [41.9215927, -87.6953278]",
	},
	"centroid": {
		run:   (*Shell).centroid,
		usage: "<[[lat, lng], ...]>",
		help:  "Spherical centroid of two or more coordinates. Eg. centroid [[41.9461021, -87.6977005], [41.8827209, -87.6352386]]",
	},
	"cluster": {
		run:   (*Shell).cluster,
		usage: "<k> <[[lat, lng], ...]>",
		help:  "Group coordinates into k clusters, largest first. Eg. cluster 2 [[41.88, -87.63], [41.89, -87.64], [63.8, -83.6]]",
	},
	"coordinates": {
		run:   (*Shell).coordinates,
		usage: "<postal address>",
		help:  "Look up the coordinate of a postal address. Eg. coordinates 565 5 Ave, Manhattan, New York, NY, USA",
	},
	"decode": {
		run:   (*Shell).decode,
		usage: "<open location code>",
		help:  "Decode an open location code. Eg. decode 8FVC2222+22",
	},
	"distance": {
		run:   (*Shell).distance,
		usage: "<[[lat, lng], [lat, lng]]>",
		help:  "Geodesic distance and initial bearing between two points. Eg. distance [[51.752021, -1.257726], [51.507351, -0.127758]]",
	},
	"encode": {
		run:   (*Shell).encode,
		usage: "<[lat, lng]>",
		help:  "Encode a coordinate as an open location code. Eg. encode [47.0000625, 8.0000625]",
	},
	"within": {
		run:   (*Shell).within,
		usage: "<[lat, lng]> <fence | [[lat, lng], ...]>",
		help:  "Check whether a point lies inside a configured fence or polygon. Eg. within [15, 35] [[10, 30], [10, 40], [20, 40], [20, 30]]",
	},
}

// Shell parses text commands and prints their results.
type Shell struct {
	cfg      *config.Config
	resolver address.Resolver
	out      io.Writer
	last     string
	color    bool
}

// New creates a shell writing to out. resolver may be nil, which disables
// the address commands.
func New(cfg *config.Config, resolver address.Resolver, out io.Writer, color bool) *Shell {
	return &Shell{cfg: cfg, resolver: resolver, out: out, color: color}
}

type readResult struct {
	line string
	err  error
}

// Run executes lines from lines until EOF, exit, quit, an interrupt on an
// empty line or ctx cancellation. lines is closed on return, which also
// releases a read still blocked on input.
func (s *Shell) Run(ctx context.Context, lines LineReader) error {
	defer func() { _ = lines.Close() }()

	results := make(chan readResult, 1)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		go func() {
			line, err := lines.Readline()
			results <- readResult{line: line, err: err}
		}()

		var r readResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r = <-results:
		}

		switch {
		case errors.Is(r.err, readline.ErrInterrupt):
			if r.line == "" {
				s.print("Bye\n")
				return nil
			}
			continue
		case errors.Is(r.err, io.EOF):
			s.print("\n")
			return nil
		case r.err != nil:
			return r.err
		}

		s.remember(lines, r.line)
		if quit := s.Exec(ctx, r.line); quit {
			return nil
		}
	}
}

// remember adds a non-empty line to history unless it repeats the last one.
func (s *Shell) remember(lines LineReader, line string) {
	line = strings.TrimSpace(line)
	if line == "" || line == s.last {
		return
	}
	s.last = line

	if err := lines.SaveHistory(line); err != nil {
		log.Debug().Err(err).Msg("Failed to save history")
	}
}

// Exec runs a single command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "exit", "quit":
		s.print("Bye\n")
		return true
	case "help":
		s.help()
		return false
	}

	cmd, ok := commands[name]
	if !ok {
		s.fail("Unknown command ", name)
		return false
	}
	if arg == "" {
		s.fail("Missing value, usage: ", name+" "+cmd.usage)
		return false
	}

	if err := cmd.run(s, ctx, arg); err != nil {
		log.Debug().Err(err).Str("command", name).Msg("Command failed")
		s.fail(strings.ToUpper(name[:1])+name[1:]+" failed: ", err.Error())
	}

	return false
}

func (s *Shell) help() {
	s.print(s.paint(colorBold, "Available commands") + "\n")
	for _, name := range commandNames() {
		cmd := commands[name]
		fmt.Fprintf(s.out, "  %s %s - %s\n", s.paint(colorBold, name), cmd.usage, cmd.help)
	}
	fmt.Fprintf(s.out, "  %s - Leave the shell\n", s.paint(colorBold, "exit"))
}

func (s *Shell) print(text string) {
	_, _ = io.WriteString(s.out, text)
}

// fail prints a highlighted message followed by plain detail.
func (s *Shell) fail(msg, detail string) {
	s.print(s.paint(colorRed, msg) + detail + "\n")
}

func (s *Shell) paint(color, text string) string {
	if !s.color {
		return text
	}
	return color + text + colorReset
}
