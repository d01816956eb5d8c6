package prolog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseOne parses a single-clause program and returns the clause.
func parseOne(t *testing.T, src string) *Clause {
	t.Helper()
	clauses, err := ParseProgram(src, NewOpTable())
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	return clauses[0]
}

// shape renders a term with the operator-aware writer against empty
// bindings; ground terms get a stable spelling.
func shape(t Term) string {
	return FormatTerm(NewBindings(), t, NewOpTable())
}

func TestParseFactsAndRules(t *testing.T) {
	t.Run("fact", func(t *testing.T) {
		c := parseOne(t, "parent(tom, bob).")
		assert.True(t, c.IsFact())
		assert.Equal(t, "parent(tom,bob)", shape(c.Head))
	})

	t.Run("atom fact", func(t *testing.T) {
		c := parseOne(t, "sunny.")
		assert.True(t, c.IsFact())
		assert.Equal(t, "sunny", shape(c.Head))
	})

	t.Run("rule", func(t *testing.T) {
		c := parseOne(t, "grandparent(X, Z) :- parent(X, Y), parent(Y, Z).")
		require.False(t, c.IsFact())
		head := c.Head.(*Compound)
		assert.Equal(t, "grandparent", head.Functor())
		body := c.Body.(*Compound)
		assert.Equal(t, ",", body.Functor())
	})

	t.Run("several clauses in order", func(t *testing.T) {
		clauses, err := ParseProgram("a. b. c.", NewOpTable())
		require.NoError(t, err)
		require.Len(t, clauses, 3)
		assert.Equal(t, "a", shape(clauses[0].Head))
		assert.Equal(t, "c", shape(clauses[2].Head))
	})
}

// renderQuery parses src and renders it back, restoring query variable
// display names (the writer spells variables with unique suffixes).
func renderQuery(t *testing.T, src string) string {
	t.Helper()
	goal, names, err := ParseQuery(src, NewOpTable())
	require.NoError(t, err)
	got := shape(goal)
	for name, v := range names {
		got = strings.ReplaceAll(got, v.String(), name)
	}
	return got
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"X is 2 + 3 * 4", "X is 2+3*4"},
		{"X is (2 + 3) * 4", "X is (2+3)*4"},
		{"X is 2 - 3 - 4", "X is 2-3-4"},           // left assoc: (2-3)-4
		{"X is 2 ** 3 ** 4", "X is 2**3**4"},       // right assoc
		{"X is 10 // 3 mod 2", "X is 10//3 mod 2"}, // left assoc chain
		{"a , b ; c", "a,b;c"},
		{"a ; b , c", "a;b,c"},
		{"\\+ a", "\\+ a"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, renderQuery(t, tc.src))
		})
	}
}

func TestParseStructure(t *testing.T) {
	t.Run("left associativity", func(t *testing.T) {
		goal, _, err := ParseQuery("X is 2 - 3 - 4", NewOpTable())
		require.NoError(t, err)
		is := goal.(*Compound)
		minus := is.Arg(1).(*Compound)
		// (2-3)-4: the left argument is itself a subtraction.
		inner := minus.Arg(0).(*Compound)
		require.Equal(t, "-", inner.Functor())
		assert.Equal(t, "2", inner.Arg(0).String())
		assert.Equal(t, "3", inner.Arg(1).String())
		assert.Equal(t, "4", minus.Arg(1).String())
	})

	t.Run("if then else", func(t *testing.T) {
		goal, _, err := ParseQuery("(a -> b ; c)", NewOpTable())
		require.NoError(t, err)
		or := goal.(*Compound)
		require.Equal(t, ";", or.Functor())
		ite := or.Arg(0).(*Compound)
		assert.Equal(t, "->", ite.Functor())
	})

	t.Run("comma is a separator inside arguments", func(t *testing.T) {
		goal, _, err := ParseQuery("f(a, b)", NewOpTable())
		require.NoError(t, err)
		f := goal.(*Compound)
		assert.Equal(t, 2, f.Arity())
	})

	t.Run("conjunction goal is one argument when parenthesised", func(t *testing.T) {
		goal, _, err := ParseQuery("f((a, b))", NewOpTable())
		require.NoError(t, err)
		f := goal.(*Compound)
		require.Equal(t, 1, f.Arity())
		conj := f.Arg(0).(*Compound)
		assert.Equal(t, ",", conj.Functor())
	})

	t.Run("negative literal folds", func(t *testing.T) {
		goal, _, err := ParseQuery("X is -3 + 1", NewOpTable())
		require.NoError(t, err)
		is := goal.(*Compound)
		plus := is.Arg(1).(*Compound)
		n := plus.Arg(0).(*Int)
		assert.Equal(t, int64(-3), n.Value())
	})
}

func TestParseLists(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"member(X, [a,b,c])", "member(X,[a,b,c])"},
		{"f([])", "f([])"},
		{"f([H|T])", "f([H|T])"},
		{"f([a,b|T])", "f([a,b|T])"},
		{"f([[1,2],[3]])", "f([[1,2],[3]])"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			goal, names, err := ParseQuery(tc.src, NewOpTable())
			require.NoError(t, err)
			got := shape(goal)
			// Variables print with unique suffixes; strip them back to
			// the display name for comparison.
			for name, v := range names {
				got = strings.ReplaceAll(got, v.String(), name)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("desugars to dot pairs", func(t *testing.T) {
		goal, _, err := ParseQuery("f([a|T])", NewOpTable())
		require.NoError(t, err)
		cell := goal.(*Compound).Arg(0)
		head, tail, ok := IsCons(cell)
		require.True(t, ok)
		assert.Equal(t, "a", head.String())
		_, isVar := tail.(*Var)
		assert.True(t, isVar)
	})
}

func TestParseVariableScoping(t *testing.T) {
	t.Run("same name shares within a clause", func(t *testing.T) {
		c := parseOne(t, "double(X, X).")
		head := c.Head.(*Compound)
		assert.Same(t, head.Arg(0), head.Arg(1))
	})

	t.Run("anonymous variables are always fresh", func(t *testing.T) {
		c := parseOne(t, "ignore(_, _).")
		head := c.Head.(*Compound)
		assert.NotSame(t, head.Arg(0), head.Arg(1))
	})

	t.Run("clauses do not share variables", func(t *testing.T) {
		clauses, err := ParseProgram("p(X). q(X).", NewOpTable())
		require.NoError(t, err)
		v1 := clauses[0].Head.(*Compound).Arg(0).(*Var)
		v2 := clauses[1].Head.(*Compound).Arg(0).(*Var)
		assert.NotEqual(t, v1.ID(), v2.ID())
	})

	t.Run("query names exclude underscore variables", func(t *testing.T) {
		_, names, err := ParseQuery("f(X, _Hidden, _)", NewOpTable())
		require.NoError(t, err)
		assert.Len(t, names, 1)
		_, ok := names["X"]
		assert.True(t, ok)
	})
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing terminator", "foo(a)"},
		{"unbalanced paren", "foo(a."},
		{"unbalanced bracket", "foo([a,b."},
		{"operator without operand", "X is ."},
		{"number head", "42."},
		{"variable head", "X."},
		{"dangling comma", "f(a,)."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProgram(tc.src, NewOpTable())
			require.Error(t, err)
			assert.True(t, ErrParse.Is(err), "want parse error, got %v", err)
		})
	}

	t.Run("query rejects trailing input", func(t *testing.T) {
		_, _, err := ParseQuery("foo. bar", NewOpTable())
		require.Error(t, err)
		assert.True(t, ErrParse.Is(err))
	})
}

