package prolog

// Operator table for the reader. Precedences follow standard Prolog:
// 1200 for :-, down through control (;, ->), comparison at 700, additive
// at 500, multiplicative at 400, power at 200. Lower binds tighter.

// Assoc describes how an operator groups with operands of its own
// precedence.
type Assoc int

const (
	// AssocNone admits neither operand at the operator's own precedence
	// (xfx): comparisons and :- do not chain.
	AssocNone Assoc = iota
	// AssocLeft admits the left operand at the operator's precedence
	// (yfx): a-b-c parses as (a-b)-c.
	AssocLeft
	// AssocRight admits the right operand at the operator's precedence
	// (xfy): a,b,c parses as a,(b,c).
	AssocRight
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "yfx"
	case AssocRight:
		return "xfy"
	default:
		return "xfx"
	}
}

// OpKind classifies operators by role. The evaluator, the solver and the
// writer each care about different slices of the table.
type OpKind int

const (
	KindArithmetic OpKind = iota
	KindComparison
	KindUnification
	KindLogical
	KindControl
	KindTerm
)

// Op is one operator table entry. A symbol may appear twice with
// different arities, e.g. -/1 and -/2.
type Op struct {
	Symbol string
	Prec   int
	Assoc  Assoc
	Arity  int
	Kind   OpKind
}

// Prefix reports whether the entry is a unary prefix operator.
func (o Op) Prefix() bool { return o.Arity == 1 }

// OpTable is the operator registry consulted by the tokenizer (for
// longest-match symbol recognition), the parser (for precedence climbing)
// and the writer (for re-sugaring compounds into operator notation).
// It is built once per engine and read-only afterwards.
type OpTable struct {
	infix  map[string]Op
	prefix map[string]Op
	// symbols holds every operator lexeme made of symbol characters,
	// longest first, for the tokenizer's longest-match rule.
	symbols []string
}

// NewOpTable builds the standard Prolog operator table.
func NewOpTable() *OpTable {
	t := &OpTable{
		infix:  make(map[string]Op),
		prefix: make(map[string]Op),
	}
	for _, op := range []Op{
		{":-", 1200, AssocNone, 2, KindControl},
		{"?-", 1200, AssocNone, 1, KindControl},
		{";", 1100, AssocRight, 2, KindLogical},
		{"->", 1050, AssocRight, 2, KindLogical},
		{",", 1000, AssocRight, 2, KindLogical},
		{"\\+", 900, AssocRight, 1, KindLogical},
		{"=", 700, AssocNone, 2, KindUnification},
		{"\\=", 700, AssocNone, 2, KindUnification},
		{"==", 700, AssocNone, 2, KindComparison},
		{"\\==", 700, AssocNone, 2, KindComparison},
		{"is", 700, AssocNone, 2, KindArithmetic},
		{"=:=", 700, AssocNone, 2, KindComparison},
		{"=\\=", 700, AssocNone, 2, KindComparison},
		{"<", 700, AssocNone, 2, KindComparison},
		{">", 700, AssocNone, 2, KindComparison},
		{"=<", 700, AssocNone, 2, KindComparison},
		{">=", 700, AssocNone, 2, KindComparison},
		{"=..", 700, AssocNone, 2, KindTerm},
		{"+", 500, AssocLeft, 2, KindArithmetic},
		{"-", 500, AssocLeft, 2, KindArithmetic},
		{"*", 400, AssocLeft, 2, KindArithmetic},
		{"/", 400, AssocLeft, 2, KindArithmetic},
		{"//", 400, AssocLeft, 2, KindArithmetic},
		{"mod", 400, AssocLeft, 2, KindArithmetic},
		{"**", 200, AssocRight, 2, KindArithmetic},
		{"-", 200, AssocNone, 1, KindArithmetic},
		{"+", 200, AssocNone, 1, KindArithmetic},
	} {
		t.add(op)
	}
	return t
}

func (t *OpTable) add(op Op) {
	if op.Prefix() {
		t.prefix[op.Symbol] = op
	} else {
		t.infix[op.Symbol] = op
	}
	if isSymbolLexeme(op.Symbol) {
		for _, s := range t.symbols {
			if s == op.Symbol {
				return
			}
		}
		t.symbols = append(t.symbols, op.Symbol)
		// Insertion sort, longest first, so the tokenizer can take the
		// first prefix match.
		for i := len(t.symbols) - 1; i > 0; i-- {
			if len(t.symbols[i]) > len(t.symbols[i-1]) {
				t.symbols[i], t.symbols[i-1] = t.symbols[i-1], t.symbols[i]
			}
		}
	}
}

// Infix returns the binary entry for symbol, if any.
func (t *OpTable) Infix(symbol string) (Op, bool) {
	op, ok := t.infix[symbol]
	return op, ok
}

// Prefix returns the unary prefix entry for symbol, if any.
func (t *OpTable) Prefix(symbol string) (Op, bool) {
	op, ok := t.prefix[symbol]
	return op, ok
}

// IsOperator reports whether symbol has any entry in the table.
func (t *OpTable) IsOperator(symbol string) bool {
	_, in := t.infix[symbol]
	_, pre := t.prefix[symbol]
	return in || pre
}

// SymbolLexemes returns all symbolic operator lexemes, longest first.
func (t *OpTable) SymbolLexemes() []string {
	return t.symbols
}

// isSymbolLexeme reports whether s is spelled entirely with symbol
// characters. Word operators such as `is` and `mod` are recognised by the
// tokenizer as atoms instead.
func isSymbolLexeme(s string) bool {
	for _, r := range s {
		if !isSymbolRune(r) {
			return false
		}
	}
	return len(s) > 0
}

func isSymbolRune(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '\\', '^', '<', '>', '=', '~', ':', '.', '?', '@', '#', '&':
		return true
	}
	return false
}

// argPrec is the precedence limit inside f(...) and [...]: 999, one below
// the comma operator, so the comma separates arguments.
const argPrec = 999

// maxPrec is the precedence limit for a whole clause or query term.
const maxPrec = 1200
