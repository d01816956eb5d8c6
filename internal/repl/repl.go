package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/gitrdm/goprolog/pkg/prolog"
)

// Repl drives an interactive session against one engine. It reads
// queries and colon-commands from in and writes to out. Not safe for
// concurrent use; a session is one reader.
type Repl struct {
	eng    *prolog.Engine
	in     *bufio.Scanner
	out    io.Writer
	cfg    Config
	files  []string
	halted bool

	good  func(format string, a ...interface{}) string
	bad   func(format string, a ...interface{}) string
	faint func(format string, a ...interface{}) string
}

// New creates a shell over a fresh engine configured from cfg.
func New(cfg Config, in io.Reader, out io.Writer) *Repl {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		logger.SetLevel(lvl)
	}
	opts := []prolog.Option{
		prolog.WithOutput(out),
		prolog.WithInput(in),
		prolog.WithLogger(logger),
	}
	if cfg.OccursCheck != nil {
		opts = append(opts, prolog.WithOccursCheck(*cfg.OccursCheck))
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, prolog.WithMaxDepth(cfg.MaxDepth))
	}
	r := &Repl{
		eng: prolog.NewEngine(opts...),
		in:  bufio.NewScanner(in),
		out: out,
		cfg: cfg,
	}
	if cfg.ColorEnabled() {
		r.good = color.New(color.FgGreen).Sprintf
		r.bad = color.New(color.FgRed).Sprintf
		r.faint = color.New(color.Faint).Sprintf
	} else {
		r.good = fmt.Sprintf
		r.bad = fmt.Sprintf
		r.faint = fmt.Sprintf
	}
	return r
}

// Engine exposes the underlying engine, mostly for tests.
func (r *Repl) Engine() *prolog.Engine { return r.eng }

// LoadFiles loads each named file, collecting per-file errors rather
// than stopping at the first. Successfully parsed files register for
// :reload.
func (r *Repl) LoadFiles(paths []string) error {
	var errs *multierror.Error
	for _, path := range paths {
		if err := r.loadFile(path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errs.ErrorOrNil()
}

func (r *Repl) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := r.eng.Load(string(data)); err != nil {
		return err
	}
	for _, f := range r.files {
		if f == path {
			return nil
		}
	}
	r.files = append(r.files, path)
	return nil
}

// Run is the interactive loop. It returns the process exit code: 0 for
// a clean :quit or end of input, 0 for halt/0 as well.
func (r *Repl) Run(ctx context.Context) int {
	fmt.Fprintln(r.out, r.faint("goprolog — type :help for commands"))
	for !r.halted {
		fmt.Fprint(r.out, r.cfg.Prompt)
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return 0
		}
		line := strings.TrimSpace(r.in.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, ":"):
			if quit := r.command(line); quit {
				return 0
			}
		default:
			r.runQuery(ctx, line)
		}
	}
	return 0
}

func (r *Repl) command(line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":exit":
		return true
	case ":help":
		r.help()
	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, r.bad("usage: :load <file> [<file> ...]"))
			break
		}
		if err := r.LoadFiles(fields[1:]); err != nil {
			fmt.Fprintln(r.out, r.bad("%v", err))
		} else {
			fmt.Fprintln(r.out, r.good("loaded"))
		}
	case ":reload":
		files := append([]string(nil), r.files...)
		r.eng.Reset()
		r.files = nil
		if err := r.LoadFiles(files); err != nil {
			fmt.Fprintln(r.out, r.bad("%v", err))
		} else {
			fmt.Fprintf(r.out, "%s\n", r.good("reloaded %d file(s)", len(files)))
		}
	case ":clear":
		r.eng.Reset()
		r.files = nil
		fmt.Fprintln(r.out, r.good("database cleared"))
	case ":show_rules":
		for _, line := range r.eng.Listing() {
			fmt.Fprintln(r.out, line)
		}
	case ":status":
		fmt.Fprintf(r.out, "clauses:    %d\n", r.eng.DB().Len())
		fmt.Fprintf(r.out, "predicates: %s\n", strings.Join(r.eng.DB().SortedPredicates(), ", "))
		fmt.Fprintf(r.out, "queries:    %d\n", r.eng.QueryCount())
		fmt.Fprintf(r.out, "files:      %s\n", strings.Join(r.files, ", "))
	default:
		fmt.Fprintln(r.out, r.bad("unknown command %s (try :help)", fields[0]))
	}
	return false
}

func (r *Repl) help() {
	fmt.Fprint(r.out, `Commands:
  :help            show this help
  :quit, :exit     leave the shell
  :load <file>     load a Prolog source file
  :reload          reset and reload all loaded files
  :show_rules      list the clause database
  :clear           discard all clauses
  :status          database and session statistics

Anything else is a query. After a solution, ; asks for the next one and
any other input stops the query.
`)
}

// runQuery executes one query, stepping through solutions under user
// control the way a Prolog top level does.
func (r *Repl) runQuery(ctx context.Context, text string) {
	stream, err := r.eng.Query(ctx, text)
	if err != nil {
		fmt.Fprintln(r.out, r.bad("%v", err))
		return
	}
	defer stream.Close()

	any := false
	for {
		sol, ok := stream.Next(ctx)
		if !ok {
			break
		}
		any = true
		fmt.Fprint(r.out, r.good("%s", sol.String()))
		fmt.Fprint(r.out, " ")
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return
		}
		if strings.TrimSpace(r.in.Text()) != ";" {
			fmt.Fprintln(r.out, r.faint("."))
			return
		}
	}
	if err := stream.Err(); err != nil {
		if prolog.ErrHalt.Is(err) {
			r.halted = true
			return
		}
		fmt.Fprintln(r.out, r.bad("error: %v", err))
		return
	}
	if any {
		fmt.Fprintln(r.out, r.faint("no more solutions"))
	} else {
		fmt.Fprintln(r.out, r.bad("false."))
	}
}
