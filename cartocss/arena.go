package cartocss

// arena interns the Expression trees built while parsing a single
// stylesheet, so structurally identical subtrees share one pointer
// (Predicates are interned separately, by predicateArena). This
// keeps Predicate.Contains/Intersects comparisons (used heavily by the
// compiler's redundancy pruning) working over a small number of distinct
// instances instead of re-walking freshly allocated duplicates, and lets the
// compiler use pointer identity as a fast path before falling back to
// Equal/Contains.
type arena struct {
	exprs preds
}

// preds memoizes Expressions by their canonical String() key; good enough
// for a single stylesheet compile, where the same expression (`@width`,
// `[zoom]`, `#ff0000`) recurs across dozens of rules.
type preds struct {
	byKey map[string]Expression
}

func newArena() *arena {
	return &arena{exprs: preds{byKey: make(map[string]Expression)}}
}

// internExpr returns a shared instance of e if a structurally equal one was
// already interned, otherwise registers and returns e itself.
func (a *arena) internExpr(e Expression) Expression {
	key := e.String()
	if existing, ok := a.exprs.byKey[key]; ok && existing.Equal(e) {
		return existing
	}
	a.exprs.byKey[key] = e
	return e
}

// predicateArena interns Predicates the same way internExpr interns
// Expressions, keyed by their String() form.
type predicateArena struct {
	byKey map[string]Predicate
}

func newPredicateArena() *predicateArena {
	return &predicateArena{byKey: make(map[string]Predicate)}
}

func (a *predicateArena) intern(p Predicate) Predicate {
	key := p.String()
	if existing, ok := a.byKey[key]; ok {
		return existing
	}
	a.byKey[key] = p
	return p
}
