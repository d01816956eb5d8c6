package prolog

import (
	"bufio"
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// The solver is a single-threaded SLD-resolution driver written in
// continuation-passing style. solve explores every proof of a goal in
// depth-first, left-to-right order and invokes its continuation once per
// proof; the continuation's return value steers the search:
//
//   - sigFail: the consumer wants more solutions; keep exploring
//     alternatives. A solve call also returns sigFail when its
//     alternatives are exhausted.
//   - sigStop: the consumer is done; unwind without exploring further.
//   - sigCut: a cut fired. Enclosing conjunctions and disjunctions stop
//     iterating and pass the signal up; the user-predicate activation
//     that installed the barrier absorbs it and reports exhaustion.
//
// Every choice point takes a trail mark before trying an alternative and
// rewinds it on every exit path, which is what makes the solution
// stream's "environment restored between choices" invariant hold.

type signal int

const (
	sigFail signal = iota
	sigStop
	sigCut
)

// cont is invoked each time the current goal has been proved. It reports
// how the search should continue.
type cont func() (signal, error)

// machine holds the per-query execution state: the bindings store, the
// clause database, I/O streams for the side-effecting built-ins, and the
// engine options in force.
type machine struct {
	env         *Bindings
	db          *Database
	ops         *OpTable
	occursCheck bool
	maxDepth    int
	out         io.Writer
	in          *bufio.Reader
	log         *logrus.Entry
}

// solve proves goal, invoking k on each success. depth counts user
// predicate activations for the depth limit.
func (m *machine) solve(ctx context.Context, goal Term, depth int, k cont) (signal, error) {
	select {
	case <-ctx.Done():
		return sigStop, ctx.Err()
	default:
	}

	goal = m.env.Walk(goal)
	switch g := goal.(type) {
	case *Var:
		return sigStop, ErrInstantiation.New("goal is an unbound variable")
	case *Int, *Float, *Str:
		return sigStop, ErrUncallable.New(goal.String())
	case *Atom:
		switch g.name {
		case "true":
			return k()
		case "fail", "false":
			return sigFail, nil
		case "!":
			return m.cut(k)
		}
		if fn, ok := builtins[key(g.name, 0)]; ok {
			return fn(m, ctx, nil, depth, k)
		}
		return m.callUser(ctx, goal, g.name, 0, depth, k)
	case *Compound:
		switch {
		case g.functor == "," && len(g.args) == 2:
			a, b := g.args[0], g.args[1]
			return m.solve(ctx, a, depth, func() (signal, error) {
				return m.solve(ctx, b, depth, k)
			})
		case g.functor == ";" && len(g.args) == 2:
			if cond, then, ok := m.splitIfThen(g.args[0]); ok {
				return m.ifThenElse(ctx, cond, then, g.args[1], depth, k)
			}
			return m.disjunction(ctx, g.args[0], g.args[1], depth, k)
		case g.functor == "->" && len(g.args) == 2:
			// Bare if-then: else is an implicit fail.
			return m.ifThenElse(ctx, g.args[0], g.args[1], NewAtom("fail"), depth, k)
		case g.functor == "\\+" && len(g.args) == 1:
			return m.negation(ctx, g.args[0], depth, k)
		}
		if fn, ok := builtins[key(g.functor, len(g.args))]; ok {
			return fn(m, ctx, g.args, depth, k)
		}
		return m.callUser(ctx, goal, g.functor, len(g.args), depth, k)
	default:
		return sigStop, ErrUncallable.New(goal.String())
	}
}

// cut yields the current environment once, then reports sigCut so the
// enclosing choice points up to the clause barrier stop producing
// alternatives.
func (m *machine) cut(k cont) (signal, error) {
	s, err := k()
	if err != nil || s == sigStop {
		return s, err
	}
	return sigCut, nil
}

// splitIfThen recognises (Cond -> Then) as the left branch of ;/2.
func (m *machine) splitIfThen(t Term) (cond, then Term, ok bool) {
	c, isC := m.env.Walk(t).(*Compound)
	if !isC || c.functor != "->" || len(c.args) != 2 {
		return nil, nil, false
	}
	return c.args[0], c.args[1], true
}

// disjunction streams solutions of a, then rewinds and streams solutions
// of b. A cut inside either branch propagates out, pruning the other
// branch along with the rest of the clause body.
func (m *machine) disjunction(ctx context.Context, a, b Term, depth int, k cont) (signal, error) {
	mark := m.env.Mark()
	s, err := m.solve(ctx, a, depth, k)
	if err != nil || s != sigFail {
		m.env.Rewind(mark)
		return s, err
	}
	m.env.Rewind(mark)
	s, err = m.solve(ctx, b, depth, k)
	m.env.Rewind(mark)
	return s, err
}

// ifThenElse implements the soft cut: commit to the first solution of
// cond, run then in that environment without backtracking into cond, or
// run els if cond has no solution. Cuts inside cond are local to it;
// cuts inside then or els prune the enclosing clause as usual.
func (m *machine) ifThenElse(ctx context.Context, cond, then, els Term, depth int, k cont) (signal, error) {
	mark := m.env.Mark()
	condMet := false
	inner := sigFail
	_, err := m.solve(ctx, cond, depth, func() (signal, error) {
		condMet = true
		s2, err2 := m.solve(ctx, then, depth, k)
		if err2 != nil {
			return sigStop, err2
		}
		inner = s2
		if s2 == sigFail {
			// then is exhausted; do not retry cond.
			return sigStop, nil
		}
		return s2, nil
	})
	m.env.Rewind(mark)
	if err != nil {
		return sigStop, err
	}
	if condMet {
		// The recorded inner signal is authoritative; whatever cond made
		// of it on the way out only concerned cond's own choice points.
		return inner, nil
	}
	return m.solve(ctx, els, depth, k)
}

// negation implements negation as failure: succeed exactly once iff the
// goal has no solution. Bindings made while trying the goal never leak.
// The goal is an opaque call, so a cut inside it is absorbed here.
func (m *machine) negation(ctx context.Context, goal Term, depth int, k cont) (signal, error) {
	mark := m.env.Mark()
	found := false
	_, err := m.solve(ctx, goal, depth, func() (signal, error) {
		found = true
		return sigStop, nil
	})
	m.env.Rewind(mark)
	if err != nil {
		return sigStop, err
	}
	if found {
		return sigFail, nil
	}
	return k()
}

// callUser resolves a goal against the clause database: for each clause
// of the predicate in insertion order, rename it apart, unify the fresh
// head with the goal, and prove the fresh body. The activation is the
// cut barrier: a sigCut arriving from the body stops the clause
// iteration and is absorbed.
//
// A predicate with no clauses fails silently; unknown predicates are not
// an error.
func (m *machine) callUser(ctx context.Context, goal Term, name string, arity int, depth int, k cont) (signal, error) {
	if m.maxDepth > 0 && depth >= m.maxDepth {
		return sigStop, ErrDepthLimit.New(m.maxDepth)
	}
	// A sigCut that comes back through k was fired in the caller's body;
	// it belongs to an outer barrier and is passed on, not absorbed.
	outerCut := false
	kk := func() (signal, error) {
		s, err := k()
		if s == sigCut {
			outerCut = true
		}
		return s, err
	}
	for _, c := range m.db.Lookup(name, arity) {
		mark := m.env.Mark()
		head, body := RenameClause(c)
		if Unify(m.env, head, goal, m.occursCheck) {
			s, err := m.solve(ctx, body, depth+1, kk)
			if err != nil || s == sigStop {
				m.env.Rewind(mark)
				return sigStop, err
			}
			if s == sigCut {
				m.env.Rewind(mark)
				if outerCut {
					return sigCut, nil
				}
				return sigFail, nil
			}
		}
		m.env.Rewind(mark)
	}
	return sigFail, nil
}

// solveOnce proves goal at most once, discarding bindings, and reports
// whether a proof was found. Nothing in the package calls it.
func (m *machine) solveOnce(ctx context.Context, goal Term, depth int) (bool, error) {
	mark := m.env.Mark()
	found := false
	_, err := m.solve(ctx, goal, depth, func() (signal, error) {
		found = true
		return sigStop, nil
	})
	m.env.Rewind(mark)
	return found, err
}
