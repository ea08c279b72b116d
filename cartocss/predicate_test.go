package cartocss

import "testing"

func TestLayerPredicateEvaluate(t *testing.T) {
	p := &LayerPredicate{LayerName: "roads"}
	ctx := &PredicateContext{LayerName: "roads"}
	if got := p.Evaluate(ctx); got != True {
		t.Errorf("Evaluate = %v, want True", got)
	}
	ctx.LayerName = "water"
	if got := p.Evaluate(ctx); got != False {
		t.Errorf("Evaluate = %v, want False", got)
	}
}

func TestOpPredicateEvaluateIndeterminateWhenUnbound(t *testing.T) {
	p := &OpPredicate{Op: CmpGTE, Field: true, FieldOrVar: "population", RefValue: Int(1000)}
	ctx := &PredicateContext{Expr: EvalContext{}}
	if got := p.Evaluate(ctx); got != Indeterminate {
		t.Errorf("Evaluate = %v, want Indeterminate", got)
	}
}

func TestOpPredicateEvaluateBound(t *testing.T) {
	p := &OpPredicate{Op: CmpGTE, Field: true, FieldOrVar: "population", RefValue: Int(1000)}
	ctx := &PredicateContext{Expr: EvalContext{Fields: map[string]Value{"population": Int(5000)}}}
	if got := p.Evaluate(ctx); got != True {
		t.Errorf("Evaluate = %v, want True", got)
	}
	ctx.Expr.Fields["population"] = Int(10)
	if got := p.Evaluate(ctx); got != False {
		t.Errorf("Evaluate = %v, want False", got)
	}
}

func TestOpPredicateContains(t *testing.T) {
	// [zoom >= 10] contains [zoom >= 12]: every record satisfying the
	// second also satisfies the first.
	broad := &OpPredicate{Op: CmpGTE, Field: true, FieldOrVar: "zoom", RefValue: Int(10)}
	narrow := &OpPredicate{Op: CmpGTE, Field: true, FieldOrVar: "zoom", RefValue: Int(12)}
	if got := broad.Contains(narrow); got != True {
		t.Errorf("broad.Contains(narrow) = %v, want True", got)
	}
	if got := narrow.Contains(broad); got != False {
		t.Errorf("narrow.Contains(broad) = %v, want False", got)
	}
}

func TestOpPredicateIntersectsDisjoint(t *testing.T) {
	lt5 := &OpPredicate{Op: CmpLT, Field: true, FieldOrVar: "zoom", RefValue: Int(5)}
	gt10 := &OpPredicate{Op: CmpGT, Field: true, FieldOrVar: "zoom", RefValue: Int(10)}
	if got := lt5.Intersects(gt10); got != False {
		t.Errorf("disjoint ranges should not intersect, got %v", got)
	}
}

func TestAndPredicatesShortCircuitsFalse(t *testing.T) {
	layer := &LayerPredicate{LayerName: "roads"}
	cls := &ClassPredicate{Class: "major"}
	and := &AndPredicates{Predicates: []Predicate{layer, cls}}
	ctx := &PredicateContext{LayerName: "water", Expr: EvalContext{Fields: map[string]Value{"class": Str("major")}}}
	if got := and.Evaluate(ctx); got != False {
		t.Errorf("Evaluate = %v, want False", got)
	}
}

func TestTriboolNot(t *testing.T) {
	if True.Not() != False {
		t.Errorf("True.Not() != False")
	}
	if False.Not() != True {
		t.Errorf("False.Not() != True")
	}
	if Indeterminate.Not() != Indeterminate {
		t.Errorf("Indeterminate.Not() != Indeterminate")
	}
}
