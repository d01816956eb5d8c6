package prolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyConstants(t *testing.T) {
	cases := []struct {
		name string
		a, b Term
		want bool
	}{
		{"same atoms", NewAtom("a"), NewAtom("a"), true},
		{"different atoms", NewAtom("a"), NewAtom("b"), false},
		{"same ints", NewInt(3), NewInt(3), true},
		{"different ints", NewInt(3), NewInt(4), false},
		{"int vs float", NewInt(3), NewFloat(3), false},
		{"same strings", NewStr("hi"), NewStr("hi"), true},
		{"string vs atom", NewStr("hi"), NewAtom("hi"), false},
		{"atom vs compound", NewAtom("f"), NewCompound("f", NewAtom("a")), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBindings()
			assert.Equal(t, tc.want, Unify(b, tc.a, tc.b, true))
		})
	}
}

func TestUnifyVariables(t *testing.T) {
	t.Run("variable binds to term", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		require.True(t, Unify(b, x, NewAtom("hello"), true))
		assert.Equal(t, "hello", b.Walk(x).String())
	})

	t.Run("variable to variable aliases", func(t *testing.T) {
		b := NewBindings()
		x, y := NewVar("X"), NewVar("Y")
		require.True(t, Unify(b, x, y, true))
		require.True(t, Unify(b, y, NewInt(9), true))
		assert.Equal(t, int64(9), b.Walk(x).(*Int).Value())
	})

	t.Run("same variable unifies without binding", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		mark := b.Mark()
		require.True(t, Unify(b, x, x, true))
		assert.Equal(t, mark, b.Mark())
	})

	t.Run("bound variable unifies through its value", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		b.Bind(x, NewAtom("a"))
		assert.True(t, Unify(b, x, NewAtom("a"), true))
		assert.False(t, Unify(b, x, NewAtom("b"), true))
	})
}

func TestUnifyCompounds(t *testing.T) {
	t.Run("matching structures bind arguments", func(t *testing.T) {
		b := NewBindings()
		x, y := NewVar("X"), NewVar("Y")
		g := NewCompound("parent", NewAtom("tom"), x)
		h := NewCompound("parent", y, NewAtom("bob"))
		require.True(t, Unify(b, g, h, true))
		assert.Equal(t, "tom", b.Walk(y).String())
		assert.Equal(t, "bob", b.Walk(x).String())
	})

	t.Run("functor mismatch fails", func(t *testing.T) {
		b := NewBindings()
		assert.False(t, Unify(b,
			NewCompound("f", NewAtom("a")),
			NewCompound("g", NewAtom("a")), true))
	})

	t.Run("arity mismatch fails", func(t *testing.T) {
		b := NewBindings()
		assert.False(t, Unify(b,
			NewCompound("f", NewAtom("a")),
			NewCompound("f", NewAtom("a"), NewAtom("b")), true))
	})

	t.Run("caller rewinds partial bindings on failure", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		mark := b.Mark()
		// First argument binds X before the second argument fails.
		ok := Unify(b,
			NewCompound("f", x, NewAtom("a")),
			NewCompound("f", NewAtom("v"), NewAtom("b")), true)
		require.False(t, ok)
		assert.NotNil(t, b.Lookup(x), "unify leaves partial work for the caller")
		b.Rewind(mark)
		assert.Nil(t, b.Lookup(x))
	})

	t.Run("lists unify elementwise", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		tail := NewVar("T")
		require.True(t, Unify(b,
			MkList(NewInt(1), NewInt(2), NewInt(3)),
			Cons(x, tail), true))
		assert.Equal(t, int64(1), b.Walk(x).(*Int).Value())
		assert.Equal(t, "[2,3]", FormatTerm(b, tail, NewOpTable()))
	})
}

func TestUnifySymmetry(t *testing.T) {
	pairs := []struct {
		name string
		a, b Term
	}{
		{"var and atom", NewVar("X"), NewAtom("a")},
		{"compounds with vars", NewCompound("f", NewVar("X"), NewInt(1)), NewCompound("f", NewAtom("a"), NewVar("Y"))},
		{"mismatched", NewCompound("f", NewAtom("a")), NewCompound("f", NewAtom("b"))},
	}
	for _, tc := range pairs {
		t.Run(tc.name, func(t *testing.T) {
			b1, b2 := NewBindings(), NewBindings()
			assert.Equal(t,
				Unify(b1, tc.a, tc.b, true),
				Unify(b2, tc.b, tc.a, true))
		})
	}
}

func TestUnifyIdempotence(t *testing.T) {
	b := NewBindings()
	g := NewCompound("f", NewVar("X"), NewVar("Y"))
	h := NewCompound("f", NewAtom("a"), NewInt(2))
	require.True(t, Unify(b, g, h, true))
	mark := b.Mark()
	require.True(t, Unify(b, g, h, true))
	assert.Equal(t, mark, b.Mark(), "second unify must add no bindings")
}

func TestOccursCheck(t *testing.T) {
	t.Run("rejects X = f(X) when enabled", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		assert.False(t, Unify(b, x, NewCompound("f", x), true))
	})

	t.Run("allows X = f(X) when disabled", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		assert.True(t, Unify(b, x, NewCompound("f", x), false))
	})

	t.Run("rejects indirect cycles", func(t *testing.T) {
		b := NewBindings()
		x, y := NewVar("X"), NewVar("Y")
		require.True(t, Unify(b, x, y, true))
		assert.False(t, Unify(b, y, NewCompound("g", x), true))
	})
}
