package prolog

import (
	"fmt"
	"sort"
	"sync"
)

// Clause is one stored fact or rule. Body is nil for a fact. A clause is
// immutable once constructed; dynamic updates add or remove whole
// clauses.
type Clause struct {
	Head Term
	Body Term
}

// NewFact creates a bodyless clause.
func NewFact(head Term) *Clause {
	return &Clause{Head: head}
}

// NewRule creates a clause with a body goal.
func NewRule(head, body Term) *Clause {
	return &Clause{Head: head, Body: body}
}

// IsFact reports whether the clause has no body.
func (c *Clause) IsFact() bool { return c.Body == nil }

// Indicator returns the clause's predicate indicator, e.g. "parent/2".
func (c *Clause) Indicator() string {
	name, arity, _ := Indicator(c.Head)
	return fmt.Sprintf("%s/%d", name, arity)
}

func (c *Clause) String() string {
	if c.Body == nil {
		return c.Head.String() + "."
	}
	return c.Head.String() + " :- " + c.Body.String() + "."
}

// Database is the ordered, mutable clause store. Clauses group by
// predicate indicator; within a predicate, slice order is resolution
// order. Mutation happens through assert/retract goals on the engine's
// solver goroutine, while hosts inspect the database from their own
// goroutine (the REPL's rule listing does), so access is guarded.
type Database struct {
	mu    sync.RWMutex
	preds map[string][]*Clause
	// order remembers first-definition order of predicates so listings
	// are stable.
	order []string
}

// NewDatabase creates an empty clause store.
func NewDatabase() *Database {
	return &Database{preds: make(map[string][]*Clause)}
}

func key(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// Assertz appends a clause to its predicate.
func (d *Database) Assertz(c *Clause) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := c.Indicator()
	if _, ok := d.preds[k]; !ok {
		d.order = append(d.order, k)
	}
	d.preds[k] = append(d.preds[k], c)
}

// Asserta prepends a clause to its predicate, making it the first tried.
func (d *Database) Asserta(c *Clause) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := c.Indicator()
	if _, ok := d.preds[k]; !ok {
		d.order = append(d.order, k)
	}
	d.preds[k] = append([]*Clause{c}, d.preds[k]...)
}

// Lookup returns the clauses for name/arity in resolution order. The
// returned slice is a snapshot: later asserts and retracts do not affect
// an iteration already in progress.
func (d *Database) Lookup(name string, arity int) []*Clause {
	d.mu.RLock()
	defer d.mu.RUnlock()
	clauses := d.preds[key(name, arity)]
	if len(clauses) == 0 {
		return nil
	}
	out := make([]*Clause, len(clauses))
	copy(out, clauses)
	return out
}

// Remove deletes the given clause (by identity) from its predicate.
// Returns false if the clause is no longer present.
func (d *Database) Remove(c *Clause) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := c.Indicator()
	clauses := d.preds[k]
	for i, stored := range clauses {
		if stored == c {
			d.preds[k] = append(clauses[:i:i], clauses[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the clause (by identity) is still stored.
func (d *Database) Contains(c *Clause) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, stored := range d.preds[c.Indicator()] {
		if stored == c {
			return true
		}
	}
	return false
}

// Len returns the total number of stored clauses.
func (d *Database) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, clauses := range d.preds {
		n += len(clauses)
	}
	return n
}

// Predicates returns the stored predicate indicators in first-definition
// order.
func (d *Database) Predicates() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.order))
	for _, k := range d.order {
		if len(d.preds[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// Clauses returns every stored clause grouped by predicate, predicates
// in first-definition order. Used by listings and tests.
func (d *Database) Clauses() []*Clause {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Clause
	for _, k := range d.order {
		out = append(out, d.preds[k]...)
	}
	return out
}

// Reset discards every clause.
func (d *Database) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preds = make(map[string][]*Clause)
	d.order = nil
}

// SortedPredicates returns predicate indicators sorted lexically, for
// deterministic status output.
func (d *Database) SortedPredicates() []string {
	out := d.Predicates()
	sort.Strings(out)
	return out
}
