package prolog

import (
	"strings"
	"unicode"
)

// FormatTerm renders a term for display, resolving it against the given
// bindings. Compounds whose functor is an operator print in operator
// notation with the minimal parentheses the precedence table requires;
// list cells print in [..|..] sugar. Atoms print unquoted.
func FormatTerm(b *Bindings, t Term, ops *OpTable) string {
	var sb strings.Builder
	writeTerm(&sb, b, t, ops, maxPrec)
	return sb.String()
}

func writeTerm(sb *strings.Builder, b *Bindings, t Term, ops *OpTable, limit int) {
	t = b.Walk(t)
	switch v := t.(type) {
	case *Atom, *Int, *Float, *Str, *Var:
		sb.WriteString(t.String())
	case *Compound:
		writeCompound(sb, b, v, ops, limit)
	}
}

func writeCompound(sb *strings.Builder, b *Bindings, c *Compound, ops *OpTable, limit int) {
	if c.functor == listFunctor && len(c.args) == 2 {
		writeList(sb, b, c, ops)
		return
	}
	if len(c.args) == 2 {
		if op, ok := ops.Infix(c.functor); ok {
			leftLimit, rightLimit := op.Prec-1, op.Prec-1
			if op.Assoc == AssocLeft {
				leftLimit = op.Prec
			}
			if op.Assoc == AssocRight {
				rightLimit = op.Prec
			}
			open := op.Prec > limit
			if open {
				sb.WriteByte('(')
			}
			writeTerm(sb, b, c.args[0], ops, leftLimit)
			sb.WriteString(opSpelling(op.Symbol))
			writeTerm(sb, b, c.args[1], ops, rightLimit)
			if open {
				sb.WriteByte(')')
			}
			return
		}
	}
	if len(c.args) == 1 {
		if op, ok := ops.Prefix(c.functor); ok {
			open := op.Prec > limit
			if open {
				sb.WriteByte('(')
			}
			sb.WriteString(c.functor)
			// A space keeps -(1) from printing as the literal -1 and
			// word operators from fusing with their operand.
			sb.WriteByte(' ')
			operandLimit := op.Prec - 1
			if op.Assoc == AssocRight {
				operandLimit = op.Prec
			}
			writeTerm(sb, b, c.args[0], ops, operandLimit)
			if open {
				sb.WriteByte(')')
			}
			return
		}
	}
	sb.WriteString(c.functor)
	sb.WriteByte('(')
	for i, a := range c.args {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeTerm(sb, b, a, ops, argPrec)
	}
	sb.WriteByte(')')
}

// opSpelling pads word operators with spaces; symbolic operators print
// tight, except the clause operator, which is spaced the way listings
// print it. The comma prints tight.
func opSpelling(symbol string) string {
	if symbol == ":-" {
		return " :- "
	}
	if symbol == "," {
		return ","
	}
	for _, r := range symbol {
		if unicode.IsLetter(r) {
			return " " + symbol + " "
		}
	}
	return symbol
}

func writeList(sb *strings.Builder, b *Bindings, c *Compound, ops *OpTable) {
	sb.WriteByte('[')
	first := true
	var t Term = c
	for {
		head, tail, ok := IsCons(t)
		if !ok {
			break
		}
		if !first {
			sb.WriteByte(',')
		}
		writeTerm(sb, b, head, ops, argPrec)
		first = false
		t = b.Walk(tail)
	}
	if !IsEmptyList(t) {
		sb.WriteByte('|')
		writeTerm(sb, b, t, ops, argPrec)
	}
	sb.WriteByte(']')
}

// CompareTerms imposes the standard order on terms after dereferencing:
// Var < Number < Atom < Str < Compound. Numbers compare by value,
// atoms and strings lexically, compounds by arity, then functor, then
// arguments left to right. Returns -1, 0 or 1.
func CompareTerms(b *Bindings, t1, t2 Term) int {
	t1, t2 = b.Walk(t1), b.Walk(t2)
	r1, r2 := orderRank(t1), orderRank(t2)
	if r1 != r2 {
		return sign(r1 - r2)
	}
	switch v1 := t1.(type) {
	case *Var:
		return sign64(v1.id - t2.(*Var).id)
	case *Int, *Float:
		f1, f2 := toF(t1), toF(t2)
		switch {
		case f1 < f2:
			return -1
		case f1 > f2:
			return 1
		default:
			return 0
		}
	case *Atom:
		return strings.Compare(v1.name, t2.(*Atom).name)
	case *Str:
		return strings.Compare(v1.value, t2.(*Str).value)
	case *Compound:
		c2 := t2.(*Compound)
		if d := sign(len(v1.args) - len(c2.args)); d != 0 {
			return d
		}
		if d := strings.Compare(v1.functor, c2.functor); d != 0 {
			return d
		}
		for i := range v1.args {
			if d := CompareTerms(b, v1.args[i], c2.args[i]); d != 0 {
				return d
			}
		}
		return 0
	}
	return 0
}

func orderRank(t Term) int {
	switch t.(type) {
	case *Var:
		return 0
	case *Int, *Float:
		return 1
	case *Atom:
		return 2
	case *Str:
		return 3
	default:
		return 4
	}
}

func sign(d int) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func sign64(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}
