package prolog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingsBasics(t *testing.T) {
	t.Run("fresh variables are unbound", func(t *testing.T) {
		b := NewBindings()
		v := NewVar("X")
		assert.Nil(t, b.Lookup(v))
		assert.Same(t, v, b.Walk(v))
	})

	t.Run("bind and walk", func(t *testing.T) {
		b := NewBindings()
		v := NewVar("X")
		b.Bind(v, NewAtom("hello"))
		assert.Equal(t, "hello", b.Walk(v).String())
	})

	t.Run("walk follows chains", func(t *testing.T) {
		b := NewBindings()
		x, y, z := NewVar("X"), NewVar("Y"), NewVar("Z")
		b.Bind(x, y)
		b.Bind(y, z)
		b.Bind(z, NewInt(7))
		assert.Equal(t, int64(7), b.Walk(x).(*Int).Value())
	})

	t.Run("walk stops at unbound variable", func(t *testing.T) {
		b := NewBindings()
		x, y := NewVar("X"), NewVar("Y")
		b.Bind(x, y)
		assert.Same(t, y, b.Walk(x))
	})

	t.Run("dereference is stable", func(t *testing.T) {
		b := NewBindings()
		x, y := NewVar("X"), NewVar("Y")
		b.Bind(x, y)
		b.Bind(y, NewAtom("a"))
		once := b.Walk(x)
		assert.Equal(t, once, b.Walk(once))
	})
}

func TestTrailSoundness(t *testing.T) {
	t.Run("rewind undoes exactly the bindings after the mark", func(t *testing.T) {
		b := NewBindings()
		x, y, z := NewVar("X"), NewVar("Y"), NewVar("Z")
		b.Bind(x, NewAtom("keep"))

		mark := b.Mark()
		b.Bind(y, NewAtom("drop"))
		b.Bind(z, x)
		require.NotNil(t, b.Lookup(y))
		require.NotNil(t, b.Lookup(z))

		b.Rewind(mark)
		assert.Equal(t, "keep", b.Walk(x).String())
		assert.Nil(t, b.Lookup(y))
		assert.Nil(t, b.Lookup(z))
		assert.Equal(t, 1, b.Size())
	})

	t.Run("nested marks rewind in layers", func(t *testing.T) {
		b := NewBindings()
		vars := []*Var{NewVar("A"), NewVar("B"), NewVar("C")}
		outer := b.Mark()
		b.Bind(vars[0], NewInt(1))
		inner := b.Mark()
		b.Bind(vars[1], NewInt(2))
		b.Bind(vars[2], NewInt(3))

		b.Rewind(inner)
		assert.NotNil(t, b.Lookup(vars[0]))
		assert.Nil(t, b.Lookup(vars[1]))
		assert.Nil(t, b.Lookup(vars[2]))

		b.Rewind(outer)
		assert.Equal(t, 0, b.Size())
	})

	t.Run("rewind to current mark is a no-op", func(t *testing.T) {
		b := NewBindings()
		v := NewVar("X")
		b.Bind(v, NewAtom("a"))
		b.Rewind(b.Mark())
		assert.Equal(t, "a", b.Walk(v).String())
	})
}

func TestResolve(t *testing.T) {
	t.Run("rebuilds compounds with bound values", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		b.Bind(x, NewAtom("bob"))
		r := b.Resolve(NewCompound("parent", NewAtom("tom"), x))
		assert.Equal(t, "parent(tom,bob)", r.String())
	})

	t.Run("leaves unbound variables in place", func(t *testing.T) {
		b := NewBindings()
		x := NewVar("X")
		r := b.Resolve(Cons(NewInt(1), x)).(*Compound)
		assert.Same(t, x, r.Arg(1))
	})

	t.Run("shares structure when nothing is bound", func(t *testing.T) {
		b := NewBindings()
		c := NewCompound("f", NewAtom("a"), NewAtom("b"))
		assert.Same(t, Term(c), b.Resolve(c))
	})
}

func TestStructEqual(t *testing.T) {
	b := NewBindings()
	x, y := NewVar("X"), NewVar("Y")
	b.Bind(x, NewAtom("a"))
	b.Bind(y, NewAtom("a"))

	assert.True(t, b.StructEqual(x, y))
	assert.True(t, b.StructEqual(
		NewCompound("f", x, NewInt(1)),
		NewCompound("f", y, NewInt(1))))
	assert.False(t, b.StructEqual(NewAtom("a"), NewStr("a")))
	assert.False(t, b.StructEqual(NewInt(1), NewFloat(1)))

	z, w := NewVar("Z"), NewVar("W")
	assert.True(t, b.StructEqual(z, z))
	assert.False(t, b.StructEqual(z, w))
}

func TestOccurs(t *testing.T) {
	b := NewBindings()
	x := NewVar("X")
	assert.True(t, b.Occurs(x, NewCompound("f", NewAtom("a"), x)))
	assert.False(t, b.Occurs(x, NewCompound("f", NewAtom("a"))))

	// Through bindings: Y is bound to a structure containing X.
	y := NewVar("Y")
	b.Bind(y, NewCompound("g", x))
	assert.True(t, b.Occurs(x, y))
}
