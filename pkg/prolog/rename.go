package prolog

// Standardize-apart: before a clause takes part in resolution, every
// variable in it is replaced by a fresh one. The per-call renaming map
// keeps variables shared within the clause shared in the copy, while the
// global counter behind NewVar keeps two activations of the same clause
// disjoint.

// renamer maps original variable identities to their fresh counterparts
// for one clause activation or one copy_term/2 call.
type renamer struct {
	fresh map[int64]*Var
}

func newRenamer() *renamer {
	return &renamer{fresh: make(map[int64]*Var)}
}

// term returns a copy of t with every variable replaced by its fresh
// counterpart, allocating counterparts on first sight.
func (r *renamer) term(t Term) Term {
	switch v := t.(type) {
	case *Var:
		if f, ok := r.fresh[v.id]; ok {
			return f
		}
		f := NewVar(v.name)
		r.fresh[v.id] = f
		return f
	case *Compound:
		args := make([]Term, len(v.args))
		for i, a := range v.args {
			args[i] = r.term(a)
		}
		return NewCompound(v.functor, args...)
	default:
		return t
	}
}

// RenameClause returns the clause's head and body with all variables
// standardized apart. A fact's body is the atom true.
func RenameClause(c *Clause) (head, body Term) {
	r := newRenamer()
	head = r.term(c.Head)
	if c.Body == nil {
		return head, NewAtom("true")
	}
	return head, r.term(c.Body)
}

// CopyTerm returns a copy of t, resolved against b, in which every
// remaining unbound variable is replaced by a fresh one. This backs
// copy_term/2 and findall/3's template capture.
func CopyTerm(b *Bindings, t Term) Term {
	r := newRenamer()
	return r.term(b.Resolve(t))
}
