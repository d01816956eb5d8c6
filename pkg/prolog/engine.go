package prolog

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Engine is the public facade: a clause database plus the machinery to
// load source text and run queries. One engine serves one consumer at a
// time; it owns a single trail, so a second query while a solution
// stream is open is rejected with ErrQueryInProgress.
type Engine struct {
	mu          sync.Mutex
	db          *Database
	ops         *OpTable
	occursCheck bool
	maxDepth    int
	out         io.Writer
	in          io.Reader
	reader      *bufio.Reader
	log         *logrus.Entry
	tracer      opentracing.Tracer
	inFlight    bool
	queries     uint64
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOccursCheck enables or disables the occurs check during
// unification. It defaults to enabled.
func WithOccursCheck(on bool) Option {
	return func(e *Engine) { e.occursCheck = on }
}

// WithMaxDepth bounds user-predicate recursion depth; 0 means no bound.
func WithMaxDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// WithLogger routes the engine's debug logging through the given logger.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.log = l.WithField("component", "prolog") }
}

// WithTracer sets the tracer used for load and query spans. Defaults to
// the process-global tracer, which is a no-op unless configured.
func WithTracer(t opentracing.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithOutput redirects write/1 and friends. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithInput redirects get_char/1. Defaults to stdin.
func WithInput(r io.Reader) Option {
	return func(e *Engine) { e.in = r }
}

// NewEngine creates an engine with an empty database (plus the bootstrap
// list library). Environment variables GOPROLOG_OCCURS_CHECK and
// GOPROLOG_MAX_DEPTH override the corresponding options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		db:          NewDatabase(),
		ops:         NewOpTable(),
		occursCheck: true,
		out:         os.Stdout,
		in:          os.Stdin,
		log:         logrus.NewEntry(logrus.StandardLogger()),
		tracer:      opentracing.GlobalTracer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if v := os.Getenv("GOPROLOG_OCCURS_CHECK"); v != "" {
		e.occursCheck = cast.ToBool(v)
	}
	if v := os.Getenv("GOPROLOG_MAX_DEPTH"); v != "" {
		e.maxDepth = cast.ToInt(v)
	}
	// One buffered reader for the engine's lifetime, so get_char/1 in
	// successive queries continues where the previous one left off.
	e.reader = bufio.NewReader(e.in)
	e.loadLibrary()
	return e
}

func (e *Engine) loadLibrary() {
	clauses, err := ParseProgram(libSource, e.ops)
	if err != nil {
		// The library is compiled in; a parse failure is a programming
		// error, not a runtime condition.
		panic(err)
	}
	for _, c := range clauses {
		e.db.Assertz(c)
	}
}

// Load parses source text and appends its clauses to the database. On a
// tokenize or parse error nothing from this text is added and clauses
// from earlier loads are retained.
func (e *Engine) Load(src string) error {
	span := e.tracer.StartSpan("prolog.load")
	defer span.Finish()
	clauses, err := ParseProgram(src, e.ops)
	if err != nil {
		e.log.WithError(err).Debug("load failed")
		return err
	}
	for _, c := range clauses {
		e.db.Assertz(c)
	}
	span.SetTag("clauses", len(clauses))
	e.log.WithField("clauses", len(clauses)).Debug("loaded program")
	return nil
}

// AssertOne parses a single clause and appends it.
func (e *Engine) AssertOne(clauseText string) error {
	clauses, err := ParseProgram(clauseText, e.ops)
	if err != nil {
		return err
	}
	if len(clauses) != 1 {
		line := 1
		return ErrParse.New(line, clauseText, "expected exactly one clause")
	}
	e.db.Assertz(clauses[0])
	return nil
}

// Reset discards every clause, including dynamic ones, and reinstalls
// the bootstrap library.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.db.Reset()
	e.loadLibrary()
}

// DB exposes the clause database for inspection (listings, tests).
func (e *Engine) DB() *Database { return e.db }

// Ops exposes the operator table (read-only by convention).
func (e *Engine) Ops() *OpTable { return e.ops }

// QueryCount reports how many queries this engine has started.
func (e *Engine) QueryCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queries
}

// Listing renders every stored clause in source syntax, for :show_rules.
func (e *Engine) Listing() []string {
	empty := NewBindings()
	var out []string
	for _, c := range e.db.Clauses() {
		var t Term = c.Head
		if c.Body != nil {
			t = NewCompound(":-", c.Head, c.Body)
		}
		out = append(out, FormatTerm(empty, t, e.ops)+".")
	}
	return out
}

// Query parses queryText and returns a lazy stream of its solutions.
// Nothing runs until the first Next call; each Next resumes the engine
// until the next solution is found. The stream must be exhausted or
// closed before another query may start.
func (e *Engine) Query(ctx context.Context, queryText string) (*Solutions, error) {
	goal, names, err := ParseQuery(queryText, e.ops)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, ErrQueryInProgress.New()
	}
	e.inFlight = true
	e.queries++
	e.mu.Unlock()

	id := uuid.NewV4().String()
	span := e.tracer.StartSpan("prolog.query")
	span.SetTag("query", queryText)
	span.SetTag("query_id", id)
	log := e.log.WithFields(logrus.Fields{"query_id": id, "query": queryText})
	log.Debug("query started")

	mach := &machine{
		env:         NewBindings(),
		db:          e.db,
		ops:         e.ops,
		occursCheck: e.occursCheck,
		maxDepth:    e.maxDepth,
		out:         e.out,
		in:          e.reader,
		log:         log,
	}
	s := &Solutions{
		pulls: make(chan struct{}),
		out:   make(chan *Solution),
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}

	go func() {
		start := time.Now()
		count := 0
		defer func() {
			span.SetTag("solutions", count)
			span.Finish()
			log.WithFields(logrus.Fields{"solutions": count, "elapsed": time.Since(start)}).
				Debug("query finished")
			close(s.done)
			e.mu.Lock()
			e.inFlight = false
			e.mu.Unlock()
		}()

		// Stay suspended until the consumer asks for the first solution.
		if !s.awaitPull(ctx) {
			return
		}
		_, err := mach.solve(ctx, goal, 0, func() (signal, error) {
			sol := reifySolution(mach, names)
			select {
			case s.out <- sol:
				count++
			case <-s.stop:
				return sigStop, nil
			case <-ctx.Done():
				return sigStop, ctx.Err()
			}
			if !s.awaitPull(ctx) {
				return sigStop, nil
			}
			return sigFail, nil
		})
		if err != nil && err != context.Canceled {
			log.WithError(err).Debug("query error")
		}
		s.setErr(err)
	}()

	return s, nil
}

// QueryAll runs a query to exhaustion and returns every solution. It is
// a convenience for hosts and tests that do not need laziness.
func (e *Engine) QueryAll(ctx context.Context, queryText string) ([]*Solution, error) {
	stream, err := e.Query(ctx, queryText)
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	var out []*Solution
	for {
		sol, ok := stream.Next(ctx)
		if !ok {
			return out, stream.Err()
		}
		out = append(out, sol)
	}
}

// Solution is one answer to a query: the reified values of the query's
// named variables at the moment the goal succeeded. Values are copied
// out of the live environment before the engine resumes, so a Solution
// stays valid after backtracking.
type Solution struct {
	bindings map[string]Term
	ops      *OpTable
}

// Get returns the value bound to a query variable name.
func (s *Solution) Get(name string) (Term, bool) {
	t, ok := s.bindings[name]
	return t, ok
}

// Names returns the query variable names in sorted order.
func (s *Solution) Names() []string {
	names := make([]string, 0, len(s.bindings))
	for n := range s.bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Text returns the printed form of one variable's value.
func (s *Solution) Text(name string) string {
	t, ok := s.bindings[name]
	if !ok {
		return ""
	}
	return FormatTerm(NewBindings(), t, s.ops)
}

// String renders the solution as "X = 1, Y = foo", or "true" for a
// solution with no named variables.
func (s *Solution) String() string {
	names := s.Names()
	if len(names) == 0 {
		return "true"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + " = " + s.Text(n)
	}
	return strings.Join(parts, ", ")
}

// reifySolution copies the query variables' current values out of the
// machine. All variables are copied through one compound so that shared
// unbound variables stay shared in the copies.
func reifySolution(m *machine, names map[string]*Var) *Solution {
	ordered := make([]string, 0, len(names))
	for n := range names {
		ordered = append(ordered, n)
	}
	sort.Strings(ordered)
	vars := make([]Term, len(ordered))
	for i, n := range ordered {
		vars[i] = names[n]
	}
	var copied []Term
	if len(vars) > 0 {
		c := CopyTerm(m.env, NewCompound("s", vars...)).(*Compound)
		copied = c.args
	}
	bindings := make(map[string]Term, len(ordered))
	for i, n := range ordered {
		bindings[n] = copied[i]
	}
	return &Solution{bindings: bindings, ops: m.ops}
}

// Solutions is the lazy stream of answers to one query. It is a pull
// interface: the engine computes only when Next is called, and holds no
// locks while suspended. Abandoning the stream via Close releases the
// engine for the next query.
type Solutions struct {
	pulls chan struct{}
	out   chan *Solution
	done  chan struct{}
	stop  chan struct{}

	errMu     sync.Mutex
	err       error
	closeOnce sync.Once
}

// awaitPull blocks the producer until the consumer requests a solution.
// Returns false when the stream was closed or the context cancelled.
func (s *Solutions) awaitPull(ctx context.Context) bool {
	select {
	case <-s.pulls:
		return true
	case <-s.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// Next advances the engine to its next solution. It returns false when
// the stream is exhausted, errored, or closed; Err distinguishes those.
func (s *Solutions) Next(ctx context.Context) (*Solution, bool) {
	select {
	case s.pulls <- struct{}{}:
	case <-s.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
	select {
	case sol := <-s.out:
		return sol, true
	case <-s.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Close abandons the stream. The engine unwinds, rewinding its trail
// marks on the way out, and becomes available for the next query. Close
// is idempotent and safe to call after exhaustion.
func (s *Solutions) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Err returns the error that terminated the stream, if any. Logical
// failure and normal exhaustion leave it nil.
func (s *Solutions) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == context.Canceled {
		return nil
	}
	return s.err
}

func (s *Solutions) setErr(err error) {
	s.errMu.Lock()
	s.err = err
	s.errMu.Unlock()
}
