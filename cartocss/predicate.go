package cartocss

import "fmt"

// Tribool is a three-valued logic result: True, False, or Indeterminate
// (unknown because the relevant field/variable was unbound).
type Tribool uint8

const (
	Indeterminate Tribool = iota
	True
	False
)

// FromBool lifts a plain bool into a Tribool.
func FromBool(b bool) Tribool {
	if b {
		return True
	}
	return False
}

// Not inverts a Tribool, leaving Indeterminate unchanged.
func (t Tribool) Not() Tribool {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Indeterminate
	}
}

// Known reports whether t is True or False (not Indeterminate).
func (t Tribool) Known() bool { return t != Indeterminate }

// Bool reports t's value, treating Indeterminate as false.
func (t Tribool) Bool() bool { return t == True }

func (t Tribool) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "indeterminate"
	}
}

// PredicateContext supplies the layer name and expression bindings a
// Predicate evaluates against.
type PredicateContext struct {
	LayerName string
	Expr      EvalContext
}

// Predicate is a selector condition: a layer/class/attachment match, a
// field/variable comparison, or the implicit map-level selector. Every
// Predicate participates in the cascade's specificity-ordered redundancy
// analysis via Contains/Intersects.
type Predicate interface {
	Evaluate(ctx *PredicateContext) Tribool

	// Contains reports whether every record matching p also matches this
	// predicate (True), definitely does not (False), or this cannot be
	// determined structurally (Indeterminate).
	Contains(p Predicate) Tribool

	// Intersects reports whether some record could match both predicates.
	Intersects(p Predicate) Tribool

	String() string
}

// MapPredicate matches the implicit top-level "Map" selector (no layer
// context).
type MapPredicate struct{}

func (MapPredicate) Evaluate(ctx *PredicateContext) Tribool {
	return FromBool(ctx.LayerName == "")
}
func (MapPredicate) Contains(Predicate) Tribool   { return Indeterminate }
func (p MapPredicate) Intersects(o Predicate) Tribool { return p.Contains(o) }
func (MapPredicate) String() string               { return "Map" }

// LayerPredicate matches a named layer.
type LayerPredicate struct{ LayerName string }

func (p *LayerPredicate) Evaluate(ctx *PredicateContext) Tribool {
	return FromBool(ctx.LayerName == p.LayerName)
}

func (p *LayerPredicate) Contains(o Predicate) Tribool {
	if op, ok := o.(*LayerPredicate); ok {
		return FromBool(p.LayerName == op.LayerName)
	}
	return Indeterminate
}

func (p *LayerPredicate) Intersects(o Predicate) Tribool { return p.Contains(o) }
func (p *LayerPredicate) String() string                 { return "#" + p.LayerName }

// ClassPredicate matches the `class` field against a CSS class name.
type ClassPredicate struct{ Class string }

func (p *ClassPredicate) Evaluate(ctx *PredicateContext) Tribool {
	v, ok := ctx.Expr.Fields["class"]
	if !ok {
		return Indeterminate
	}
	if v.Kind() != KindString {
		return False
	}
	return FromBool(v.Str() == p.Class)
}

func (p *ClassPredicate) Contains(o Predicate) Tribool {
	if op, ok := o.(*ClassPredicate); ok {
		return FromBool(p.Class == op.Class)
	}
	return Indeterminate
}

func (p *ClassPredicate) Intersects(o Predicate) Tribool { return p.Contains(o) }
func (p *ClassPredicate) String() string                 { return "." + p.Class }

// AttachmentPredicate marks a style block as belonging to a named
// attachment (e.g. a line's "case" or "outline"); structurally opaque, so
// it never resolves Contains/Intersects beyond Indeterminate.
type AttachmentPredicate struct{ Attachment string }

func (AttachmentPredicate) Evaluate(*PredicateContext) Tribool { return Indeterminate }
func (AttachmentPredicate) Contains(Predicate) Tribool         { return Indeterminate }
func (p AttachmentPredicate) Intersects(o Predicate) Tribool   { return p.Contains(o) }
func (p *AttachmentPredicate) String() string                  { return "::" + p.Attachment }

// CompareOp enumerates the relational operators an OpPredicate supports.
type CompareOp uint8

const (
	CmpEQ CompareOp = iota
	CmpNEQ
	CmpLT
	CmpLTE
	CmpGT
	CmpGTE
	CmpMatch
)

// OpPredicate compares a field or variable against a reference Value, e.g.
// `[population] >= 1000` or `@zoom = 4`.
type OpPredicate struct {
	Op         CompareOp
	Field      bool
	FieldOrVar string
	RefValue   Value
}

func (p *OpPredicate) Evaluate(ctx *PredicateContext) Tribool {
	var v Value
	found := false
	if !p.Field {
		if pv, ok := ctx.Expr.PredefinedVariables[p.FieldOrVar]; ok {
			v, found = pv, true
		} else if e, ok := ctx.Expr.Variables[p.FieldOrVar]; ok {
			r := e.Evaluate(&ctx.Expr)
			if r.IsValue {
				v, found = r.Value, true
			}
		}
	} else {
		if pv, ok := ctx.Expr.PredefinedFields[p.FieldOrVar]; ok {
			v, found = pv, true
		} else if fv, ok := ctx.Expr.Fields[p.FieldOrVar]; ok {
			v, found = fv, true
		}
	}
	if !found {
		return Indeterminate
	}
	return applyCompareOp(p.Op, v, p.RefValue)
}

func applyCompareOp(op CompareOp, v1, v2 Value) Tribool {
	switch op {
	case CmpEQ:
		if v1.Kind() == KindColor || v2.Kind() == KindColor {
			return FromBool(v1.Kind() == v2.Kind() && v1.Equal(v2))
		}
		return FromBool(compareValues(v1, v2, true, false,
			func(a, b float64) bool { return a == b }, func(a, b string) bool { return a == b }).Bool())
	case CmpNEQ:
		return applyCompareOp(CmpEQ, v1, v2).Not()
	case CmpLT:
		if !v1.isNumeric() && !(v1.Kind() == KindString && v2.Kind() == KindString) {
			return Indeterminate
		}
		return FromBool(compareValues(v1, v2, false, false,
			func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b }).Bool())
	case CmpLTE:
		return FromBool(compareValues(v1, v2, true, false,
			func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b }).Bool())
	case CmpGT:
		return FromBool(compareValues(v1, v2, false, false,
			func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b }).Bool())
	case CmpGTE:
		return FromBool(compareValues(v1, v2, true, false,
			func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b }).Bool())
	case CmpMatch:
		return Indeterminate
	}
	return Indeterminate
}

func (p *OpPredicate) Contains(o Predicate) Tribool {
	op, ok := o.(*OpPredicate)
	if !ok || p.Field != op.Field || p.FieldOrVar != op.FieldOrVar {
		return Indeterminate
	}
	val1, val2 := p.RefValue, op.RefValue
	switch {
	case op.Op == CmpEQ:
		return applyCompareOp(p.Op, val2, val1)
	case p.Op == CmpNEQ:
		return applyCompareOp(op.Op, val1, val2).Not()
	case p.Op == CmpLT && (op.Op == CmpLT || op.Op == CmpLTE):
		return applyCompareOp(op.Op, val1, val2).Not()
	case p.Op == CmpLTE && (op.Op == CmpLT || op.Op == CmpLTE):
		return applyCompareOp(p.Op, val2, val1)
	case p.Op == CmpGT && (op.Op == CmpGT || op.Op == CmpGTE):
		return applyCompareOp(op.Op, val1, val2).Not()
	case p.Op == CmpGTE && (op.Op == CmpGT || op.Op == CmpGTE):
		return applyCompareOp(p.Op, val2, val1)
	case p.Op == CmpMatch:
		return Indeterminate
	}
	return False
}

func (p *OpPredicate) Intersects(o Predicate) Tribool {
	op, ok := o.(*OpPredicate)
	if !ok || p.Field != op.Field || p.FieldOrVar != op.FieldOrVar {
		return Indeterminate
	}
	val1, val2 := p.RefValue, op.RefValue
	switch {
	case p.Op == CmpEQ:
		return applyCompareOp(op.Op, val1, val2)
	case op.Op == CmpEQ:
		return applyCompareOp(p.Op, val2, val1)
	case p.Op == CmpLTE && (op.Op == CmpGT || op.Op == CmpGTE):
		return applyCompareOp(op.Op, val1, val2)
	case p.Op == CmpLT && (op.Op == CmpGT || op.Op == CmpGTE):
		return applyCompareOp(p.Op, val2, val1)
	case p.Op == CmpGTE && (op.Op == CmpLT || op.Op == CmpLTE):
		return applyCompareOp(op.Op, val1, val2)
	case p.Op == CmpGT && (op.Op == CmpLT || op.Op == CmpLTE):
		return applyCompareOp(p.Op, val2, val1)
	case p.Op == CmpMatch:
		return Indeterminate
	}
	return True
}

var compareOpSymbols = map[CompareOp]string{
	CmpEQ: "=", CmpNEQ: "!=", CmpLT: "<", CmpLTE: "<=", CmpGT: ">", CmpGTE: ">=", CmpMatch: "=~",
}

func (p *OpPredicate) String() string {
	name := p.FieldOrVar
	if p.Field {
		name = "[" + name + "]"
	} else {
		name = "@" + name
	}
	return fmt.Sprintf("%s%s%s", name, compareOpSymbols[p.Op], p.RefValue.String())
}

// AndPredicates combines a set of predicates with implicit AND, as a CSS
// selector does (`#layer.class[field=val]` matches only when all parts do).
type AndPredicates struct{ Predicates []Predicate }

func (p *AndPredicates) Evaluate(ctx *PredicateContext) Tribool {
	result := True
	for _, sub := range p.Predicates {
		r := sub.Evaluate(ctx)
		if r == False {
			return False
		}
		if r == Indeterminate {
			result = Indeterminate
		}
	}
	return result
}

func (p *AndPredicates) Contains(o Predicate) Tribool {
	result := True
	for _, sub := range p.Predicates {
		r := sub.Contains(o)
		if r == False {
			return False
		}
		if r == Indeterminate {
			result = Indeterminate
		}
	}
	return result
}

func (p *AndPredicates) Intersects(o Predicate) Tribool {
	result := True
	for _, sub := range p.Predicates {
		r := sub.Intersects(o)
		if r == False {
			return False
		}
		if r == Indeterminate {
			result = Indeterminate
		}
	}
	return result
}

func (p *AndPredicates) String() string {
	s := ""
	for _, sub := range p.Predicates {
		s += sub.String()
	}
	return s
}
