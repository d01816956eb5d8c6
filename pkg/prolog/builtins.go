package prolog

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// builtinFn is the signature every built-in implements. args are the
// goal's arguments, unwalked; built-ins dereference what they inspect.
// Deterministic built-ins call k at most once; nondeterministic ones
// (between/3, retract/1) drive k through their alternatives.
type builtinFn func(m *machine, ctx context.Context, args []Term, depth int, k cont) (signal, error)

// builtins maps "name/arity" to the implementation. The control
// constructs (, ; -> \+ !) are handled in the solver itself, not here.
var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"=/2":         builtinUnify,
		"\\=/2":       builtinNotUnify,
		"==/2":        builtinStructEq,
		"\\==/2":      builtinStructNeq,
		"is/2":        builtinIs,
		"=:=/2":       numericCompare(func(c int) bool { return c == 0 }),
		"=\\=/2":      numericCompare(func(c int) bool { return c != 0 }),
		"</2":         numericCompare(func(c int) bool { return c < 0 }),
		">/2":         numericCompare(func(c int) bool { return c > 0 }),
		"=</2":        numericCompare(func(c int) bool { return c <= 0 }),
		">=/2":        numericCompare(func(c int) bool { return c >= 0 }),
		"var/1":       typeTest(func(t Term) bool { _, ok := t.(*Var); return ok }),
		"nonvar/1":    typeTest(func(t Term) bool { _, ok := t.(*Var); return !ok }),
		"atom/1":      typeTest(func(t Term) bool { _, ok := t.(*Atom); return ok }),
		"number/1":    typeTest(isNumber),
		"integer/1":   typeTest(func(t Term) bool { _, ok := t.(*Int); return ok }),
		"float/1":     typeTest(func(t Term) bool { _, ok := t.(*Float); return ok }),
		"compound/1":  typeTest(func(t Term) bool { _, ok := t.(*Compound); return ok }),
		"atomic/1":    typeTest(isAtomic),
		"callable/1":  typeTest(isCallable),
		"functor/3":   builtinFunctor,
		"arg/3":       builtinArg,
		"=../2":       builtinUniv,
		"copy_term/2": builtinCopyTerm,
		"asserta/1":   assertBuiltin(true),
		"assertz/1":   assertBuiltin(false),
		"assert/1":    assertBuiltin(false),
		"retract/1":   builtinRetract,
		"findall/3":   builtinFindall,
		"between/3":   builtinBetween,
		"length/2":    builtinLength,
		"msort/2":     builtinMsort,
		"is_list/1":   builtinIsList,
		"write/1":     writeBuiltin(false),
		"print/1":     writeBuiltin(false),
		"writeln/1":   writeBuiltin(true),
		"nl/0":        builtinNl,
		"tab/1":       builtinTab,
		"put_char/1":  builtinPutChar,
		"get_char/1":  builtinGetChar,
		"halt/0":      builtinHalt,
	}
}

// unifyK unifies two terms and, on success, runs the continuation. The
// trial bindings are rewound on every exit.
func (m *machine) unifyK(t1, t2 Term, k cont) (signal, error) {
	mark := m.env.Mark()
	if Unify(m.env, t1, t2, m.occursCheck) {
		s, err := k()
		m.env.Rewind(mark)
		return s, err
	}
	m.env.Rewind(mark)
	return sigFail, nil
}

func builtinUnify(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	return m.unifyK(args[0], args[1], k)
}

func builtinNotUnify(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	mark := m.env.Mark()
	ok := Unify(m.env, args[0], args[1], m.occursCheck)
	m.env.Rewind(mark)
	if ok {
		return sigFail, nil
	}
	return k()
}

func builtinStructEq(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	if m.env.StructEqual(args[0], args[1]) {
		return k()
	}
	return sigFail, nil
}

func builtinStructNeq(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	if m.env.StructEqual(args[0], args[1]) {
		return sigFail, nil
	}
	return k()
}

func builtinIs(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	val, err := Eval(m.env, args[1])
	if err != nil {
		return sigStop, err
	}
	return m.unifyK(args[0], val, k)
}

func numericCompare(accept func(int) bool) builtinFn {
	return func(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
		c, err := CompareNumeric(m.env, args[0], args[1])
		if err != nil {
			return sigStop, err
		}
		if accept(c) {
			return k()
		}
		return sigFail, nil
	}
}

func typeTest(pred func(Term) bool) builtinFn {
	return func(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
		if pred(m.env.Walk(args[0])) {
			return k()
		}
		return sigFail, nil
	}
}

func isNumber(t Term) bool {
	switch t.(type) {
	case *Int, *Float:
		return true
	}
	return false
}

func isAtomic(t Term) bool {
	switch t.(type) {
	case *Atom, *Int, *Float, *Str:
		return true
	}
	return false
}

func isCallable(t Term) bool {
	switch t.(type) {
	case *Atom, *Compound:
		return true
	}
	return false
}

func builtinIsList(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	t := m.env.Walk(args[0])
	for {
		if IsEmptyList(t) {
			return k()
		}
		_, tail, ok := IsCons(t)
		if !ok {
			return sigFail, nil
		}
		t = m.env.Walk(tail)
	}
}

func builtinFunctor(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	t := m.env.Walk(args[0])
	switch f := t.(type) {
	case *Compound:
		return m.unifyK(MkList(args[1], args[2]), MkList(NewAtom(f.functor), NewInt(int64(len(f.args)))), k)
	case *Var:
		// Construction mode: name and arity must be bound.
		name := m.env.Walk(args[1])
		arity := m.env.Walk(args[2])
		n, ok := arity.(*Int)
		if !ok {
			if _, isVar := arity.(*Var); isVar {
				return sigStop, ErrInstantiation.New("functor/3 arity is unbound")
			}
			return sigStop, ErrType.New("integer", arity.String())
		}
		switch {
		case n.value < 0:
			return sigStop, ErrDomain.New(fmt.Sprintf("functor/3 arity must be >= 0, got %d", n.value))
		case n.value == 0:
			if _, isVar := name.(*Var); isVar {
				return sigStop, ErrInstantiation.New("functor/3 name is unbound")
			}
			return m.unifyK(t, name, k)
		default:
			a, isAtom := name.(*Atom)
			if !isAtom {
				if _, isVar := name.(*Var); isVar {
					return sigStop, ErrInstantiation.New("functor/3 name is unbound")
				}
				return sigStop, ErrType.New("atom", name.String())
			}
			fresh := make([]Term, n.value)
			for i := range fresh {
				fresh[i] = NewVar("_")
			}
			return m.unifyK(t, NewCompound(a.name, fresh...), k)
		}
	default:
		// Atomic terms are their own name with arity 0.
		return m.unifyK(MkList(args[1], args[2]), MkList(t, NewInt(0)), k)
	}
}

func builtinArg(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	n := m.env.Walk(args[0])
	t := m.env.Walk(args[1])
	ni, ok := n.(*Int)
	if !ok {
		if _, isVar := n.(*Var); isVar {
			return sigStop, ErrInstantiation.New("arg/3 index is unbound")
		}
		return sigStop, ErrType.New("integer", n.String())
	}
	c, ok := t.(*Compound)
	if !ok {
		if _, isVar := t.(*Var); isVar {
			return sigStop, ErrInstantiation.New("arg/3 term is unbound")
		}
		return sigStop, ErrType.New("compound", t.String())
	}
	if ni.value < 1 {
		return sigStop, ErrDomain.New(fmt.Sprintf("arg/3 index must be >= 1, got %d", ni.value))
	}
	if ni.value > int64(len(c.args)) {
		return sigFail, nil
	}
	return m.unifyK(args[2], c.args[ni.value-1], k)
}

func builtinUniv(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	t := m.env.Walk(args[0])
	switch f := t.(type) {
	case *Compound:
		elems := append([]Term{NewAtom(f.functor)}, f.args...)
		return m.unifyK(args[1], MkList(elems...), k)
	case *Var:
		elems, ok := m.properList(args[1])
		if !ok {
			return sigStop, ErrInstantiation.New("=../2 needs a bound term or a proper list")
		}
		if len(elems) == 0 {
			return sigStop, ErrDomain.New("=../2 list must not be empty")
		}
		head := m.env.Walk(elems[0])
		if len(elems) == 1 {
			if !isAtomic(head) {
				return sigStop, ErrType.New("atomic", head.String())
			}
			return m.unifyK(t, head, k)
		}
		a, isAtom := head.(*Atom)
		if !isAtom {
			return sigStop, ErrType.New("atom", head.String())
		}
		return m.unifyK(t, NewCompound(a.name, elems[1:]...), k)
	default:
		return m.unifyK(args[1], MkList(t), k)
	}
}

// properList reads a proper list into a slice, or reports that the term
// is not one.
func (m *machine) properList(t Term) ([]Term, bool) {
	out := []Term{}
	t = m.env.Walk(t)
	for {
		if IsEmptyList(t) {
			return out, true
		}
		head, tail, ok := IsCons(t)
		if !ok {
			return nil, false
		}
		out = append(out, head)
		t = m.env.Walk(tail)
	}
}

func builtinCopyTerm(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	return m.unifyK(args[1], CopyTerm(m.env, args[0]), k)
}

// termToClause converts a (resolved, copied) term into a stored clause,
// validating that the head is callable.
func termToClause(t Term) (*Clause, error) {
	head, body := t, Term(nil)
	if c, ok := t.(*Compound); ok && c.functor == ":-" && len(c.args) == 2 {
		head, body = c.args[0], c.args[1]
	}
	if !isCallable(head) {
		return nil, ErrType.New("callable", head.String())
	}
	if body == nil {
		return NewFact(head), nil
	}
	return NewRule(head, body), nil
}

func assertBuiltin(front bool) builtinFn {
	return func(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
		clause, err := termToClause(CopyTerm(m.env, args[0]))
		if err != nil {
			return sigStop, err
		}
		if front {
			m.db.Asserta(clause)
		} else {
			m.db.Assertz(clause)
		}
		return k()
	}
}

// builtinRetract removes the first stored clause that unifies with the
// pattern. On backtracking it retries, removing the next match; removals
// themselves are never undone by backtracking.
func builtinRetract(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	pattern := m.env.Walk(args[0])
	headPat, bodyPat := pattern, Term(nil)
	if c, ok := pattern.(*Compound); ok && c.functor == ":-" && len(c.args) == 2 {
		headPat, bodyPat = c.args[0], c.args[1]
	}
	headPat = m.env.Walk(headPat)
	name, arity, ok := Indicator(headPat)
	if !ok {
		if _, isVar := headPat.(*Var); isVar {
			return sigStop, ErrInstantiation.New("retract/1 head is unbound")
		}
		return sigStop, ErrType.New("callable", headPat.String())
	}
	for _, c := range m.db.Lookup(name, arity) {
		if !m.db.Contains(c) {
			continue
		}
		mark := m.env.Mark()
		head, body := RenameClause(c)
		okHead := Unify(m.env, head, headPat, m.occursCheck)
		okBody := false
		if okHead {
			if bodyPat != nil {
				okBody = Unify(m.env, body, bodyPat, m.occursCheck)
			} else {
				// A bare head pattern matches facts (body true).
				okBody = c.IsFact() || body.Equal(NewAtom("true"))
			}
		}
		if okHead && okBody {
			m.db.Remove(c)
			s, err := k()
			m.env.Rewind(mark)
			if err != nil || s != sigFail {
				return s, err
			}
			continue
		}
		m.env.Rewind(mark)
	}
	return sigFail, nil
}

// builtinFindall collects one copy of the template per solution of the
// goal and unifies the list with the third argument. The goal runs in a
// protected scope: its bindings are rewound before the list is built, so
// the only binding the caller observes is the list itself.
func builtinFindall(m *machine, ctx context.Context, args []Term, depth int, k cont) (signal, error) {
	template, goal := args[0], args[1]
	mark := m.env.Mark()
	var collected []Term
	_, err := m.solve(ctx, goal, depth, func() (signal, error) {
		collected = append(collected, CopyTerm(m.env, template))
		return sigFail, nil
	})
	m.env.Rewind(mark)
	if err != nil {
		return sigStop, err
	}
	return m.unifyK(args[2], MkList(collected...), k)
}

func builtinBetween(m *machine, ctx context.Context, args []Term, _ int, k cont) (signal, error) {
	low, err := Eval(m.env, args[0])
	if err != nil {
		return sigStop, err
	}
	high, err := Eval(m.env, args[1])
	if err != nil {
		return sigStop, err
	}
	lo, ok1 := low.(*Int)
	hi, ok2 := high.(*Int)
	if !ok1 || !ok2 {
		return sigStop, ErrType.New("integer", nonInt(low, high).String())
	}
	x := m.env.Walk(args[2])
	if xi, bound := x.(*Int); bound {
		if xi.value >= lo.value && xi.value <= hi.value {
			return k()
		}
		return sigFail, nil
	}
	for i := lo.value; i <= hi.value; i++ {
		select {
		case <-ctx.Done():
			return sigStop, ctx.Err()
		default:
		}
		s, err := m.unifyK(x, NewInt(i), k)
		if err != nil || s != sigFail {
			return s, err
		}
	}
	return sigFail, nil
}

func builtinLength(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	if elems, ok := m.properList(args[0]); ok {
		return m.unifyK(args[1], NewInt(int64(len(elems))), k)
	}
	n := m.env.Walk(args[1])
	ni, ok := n.(*Int)
	if !ok {
		return sigStop, ErrInstantiation.New("length/2 needs a proper list or a bound length")
	}
	if ni.value < 0 {
		return sigFail, nil
	}
	fresh := make([]Term, ni.value)
	for i := range fresh {
		fresh[i] = NewVar("_")
	}
	return m.unifyK(args[0], MkList(fresh...), k)
}

func builtinMsort(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	elems, ok := m.properList(args[0])
	if !ok {
		return sigStop, ErrType.New("list", m.env.Walk(args[0]).String())
	}
	resolved := make([]Term, len(elems))
	for i, e := range elems {
		resolved[i] = m.env.Resolve(e)
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return CompareTerms(m.env, resolved[i], resolved[j]) < 0
	})
	return m.unifyK(args[1], MkList(resolved...), k)
}

func writeBuiltin(newline bool) builtinFn {
	return func(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
		if _, err := io.WriteString(m.out, FormatTerm(m.env, args[0], m.ops)); err != nil {
			return sigStop, err
		}
		if newline {
			if _, err := io.WriteString(m.out, "\n"); err != nil {
				return sigStop, err
			}
		}
		return k()
	}
}

func builtinNl(m *machine, _ context.Context, _ []Term, _ int, k cont) (signal, error) {
	if _, err := io.WriteString(m.out, "\n"); err != nil {
		return sigStop, err
	}
	return k()
}

func builtinTab(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	n, err := Eval(m.env, args[0])
	if err != nil {
		return sigStop, err
	}
	ni, ok := n.(*Int)
	if !ok {
		return sigStop, ErrType.New("integer", n.String())
	}
	if ni.value > 0 {
		if _, err := io.WriteString(m.out, strings.Repeat(" ", int(ni.value))); err != nil {
			return sigStop, err
		}
	}
	return k()
}

func builtinPutChar(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	t := m.env.Walk(args[0])
	a, ok := t.(*Atom)
	if !ok || len([]rune(a.name)) != 1 {
		if _, isVar := t.(*Var); isVar {
			return sigStop, ErrInstantiation.New("put_char/1 argument is unbound")
		}
		return sigStop, ErrType.New("character", t.String())
	}
	if _, err := io.WriteString(m.out, a.name); err != nil {
		return sigStop, err
	}
	return k()
}

func builtinGetChar(m *machine, _ context.Context, args []Term, _ int, k cont) (signal, error) {
	r, _, err := m.in.ReadRune()
	if err == io.EOF {
		return m.unifyK(args[0], NewAtom("end_of_file"), k)
	}
	if err != nil {
		return sigStop, err
	}
	return m.unifyK(args[0], NewAtom(string(r)), k)
}

func builtinHalt(*machine, context.Context, []Term, int, cont) (signal, error) {
	return sigStop, ErrHalt.New()
}
