package prolog

// Unify attempts to make t1 and t2 structurally identical by binding
// variables in b. New bindings are trailed. On failure the store is left
// with whatever partial bindings were made: the caller owns the mark
// taken before the call and rewinds to it. Centralising rollback in the
// caller keeps every choice point on the same mark/rewind discipline.
//
// With occursCheck enabled, binding a variable to a term containing that
// variable fails instead of creating a cyclic binding.
func Unify(b *Bindings, t1, t2 Term, occursCheck bool) bool {
	t1, t2 = b.Walk(t1), b.Walk(t2)

	if v1, ok := t1.(*Var); ok {
		if v2, ok2 := t2.(*Var); ok2 && v1.id == v2.id {
			return true
		}
		if occursCheck && b.Occurs(v1, t2) {
			return false
		}
		b.Bind(v1, t2)
		return true
	}
	if v2, ok := t2.(*Var); ok {
		if occursCheck && b.Occurs(v2, t1) {
			return false
		}
		b.Bind(v2, t1)
		return true
	}

	c1, ok1 := t1.(*Compound)
	c2, ok2 := t2.(*Compound)
	if ok1 && ok2 {
		if c1.functor != c2.functor || len(c1.args) != len(c2.args) {
			return false
		}
		for i := range c1.args {
			if !Unify(b, c1.args[i], c2.args[i], occursCheck) {
				return false
			}
		}
		return true
	}
	if ok1 || ok2 {
		return false
	}

	return t1.Equal(t2)
}
