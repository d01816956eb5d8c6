package prolog

import (
	errors "gopkg.in/src-d/go-errors.v1"
)

// Error kinds for every failure class the interpreter can surface.
// Logical failure (a goal that cannot be proved) is not an error and is
// never reported through these kinds; it terminates or redirects the
// solution stream instead.
var (
	// ErrTokenize is returned when the source text is malformed at the
	// character level, e.g. an unterminated string or an unknown rune.
	ErrTokenize = errors.NewKind("tokenize error at line %d: %s")

	// ErrParse is returned when a clause or query is syntactically
	// malformed. The message carries the offending token and its line.
	ErrParse = errors.NewKind("parse error at line %d near %q: %s")

	// ErrInstantiation is returned when an argument needed to be bound
	// but was an unbound variable.
	ErrInstantiation = errors.NewKind("instantiation error: %s")

	// ErrType is returned when an argument has the wrong kind of value,
	// e.g. evaluating `X is foo`.
	ErrType = errors.NewKind("type error: expected %s, got %s")

	// ErrDomain is returned when an argument is of the right type but
	// outside the valid range, e.g. `arg(0, T, A)`.
	ErrDomain = errors.NewKind("domain error: %s")

	// ErrExistence is reserved for unknown-predicate reporting. The
	// engine fails silently on unknown predicates, and nothing in the
	// package produces this kind.
	ErrExistence = errors.NewKind("existence error: unknown predicate %s/%d")

	// ErrEvaluation is returned for arithmetic failures such as division
	// by zero.
	ErrEvaluation = errors.NewKind("evaluation error: %s")

	// ErrUncallable is returned when the engine is asked to prove a term
	// that is not callable, such as a number or a string. An unbound
	// variable goal raises ErrInstantiation instead.
	ErrUncallable = errors.NewKind("uncallable goal: %s")

	// ErrQueryInProgress is returned by Engine.Query when a previous
	// solution stream is still open. The engine owns a single trail, so
	// concurrent streams on one engine are rejected rather than
	// interleaved.
	ErrQueryInProgress = errors.NewKind("a query is already in progress on this engine")

	// ErrDepthLimit is returned when resolution exceeds the configured
	// maximum depth.
	ErrDepthLimit = errors.NewKind("resolution depth limit of %d exceeded")

	// ErrHalt is produced by halt/0. Hosts map it to process exit; the
	// core treats it as a stream-terminating error like any other.
	ErrHalt = errors.NewKind("halt")
)
