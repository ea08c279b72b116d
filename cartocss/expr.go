package cartocss

import (
	"fmt"
	"regexp"
	"strings"
)

// EvalContext supplies the variable and field bindings an Expression
// resolves against. A nil map behaves as empty.
type EvalContext struct {
	PredefinedVariables map[string]Value
	Variables           map[string]Expression
	PredefinedFields    map[string]Value
	Fields              map[string]Value
}

// EvalResult is the outcome of partially evaluating an Expression: either a
// fully resolved Value, or a (possibly simplified) residual Expression when
// some input field/variable was unavailable.
type EvalResult struct {
	Value   Value
	Expr    Expression
	IsValue bool
}

func valueResult(v Value) EvalResult        { return EvalResult{Value: v, IsValue: true} }
func exprResult(e Expression) EvalResult    { return EvalResult{Expr: e, IsValue: false} }

// Expression is a node in a stylesheet property-value expression tree.
// Evaluate supports partial evaluation: when every input it depends on is
// bound, it returns a concrete Value; otherwise it returns a simplified
// residual Expression with any resolvable subtrees folded to constants.
type Expression interface {
	Evaluate(ctx *EvalContext) EvalResult
	Equal(other Expression) bool
	String() string
}

// ConstExpr wraps a literal Value.
type ConstExpr struct{ Value Value }

func (e *ConstExpr) Evaluate(*EvalContext) EvalResult { return valueResult(e.Value) }

func (e *ConstExpr) Equal(other Expression) bool {
	o, ok := other.(*ConstExpr)
	return ok && e.Value.Equal(o.Value)
}

func (e *ConstExpr) String() string { return e.Value.String() }

// FieldOrVarExpr references either a data field (`[name]`) or a stylesheet
// variable (`@name`), per Field.
type FieldOrVarExpr struct {
	Field      bool
	FieldOrVar string
}

func (e *FieldOrVarExpr) Evaluate(ctx *EvalContext) EvalResult {
	if ctx == nil {
		return exprResult(e)
	}
	if !e.Field {
		if v, ok := ctx.PredefinedVariables[e.FieldOrVar]; ok {
			return valueResult(v)
		}
		if expr, ok := ctx.Variables[e.FieldOrVar]; ok {
			return expr.Evaluate(ctx)
		}
	} else {
		if v, ok := ctx.PredefinedFields[e.FieldOrVar]; ok {
			return valueResult(v)
		}
		if v, ok := ctx.Fields[e.FieldOrVar]; ok {
			return valueResult(v)
		}
	}
	return exprResult(e)
}

func (e *FieldOrVarExpr) Equal(other Expression) bool {
	o, ok := other.(*FieldOrVarExpr)
	return ok && e.Field == o.Field && e.FieldOrVar == o.FieldOrVar
}

func (e *FieldOrVarExpr) String() string {
	if e.Field {
		return "[" + e.FieldOrVar + "]"
	}
	return "@" + e.FieldOrVar
}

// ListExpr is a comma-separated expression list (e.g. dasharray values).
type ListExpr struct{ Exprs []Expression }

func (e *ListExpr) Evaluate(ctx *EvalContext) EvalResult {
	vals := make([]Value, 0, len(e.Exprs))
	for _, sub := range e.Exprs {
		r := sub.Evaluate(ctx)
		if !r.IsValue {
			break
		}
		vals = append(vals, r.Value)
	}
	if len(vals) == len(e.Exprs) {
		return valueResult(List(vals))
	}
	exprs := make([]Expression, len(e.Exprs))
	for i, sub := range e.Exprs {
		r := sub.Evaluate(ctx)
		if r.IsValue {
			exprs[i] = &ConstExpr{Value: r.Value}
		} else {
			exprs[i] = r.Expr
		}
	}
	return exprResult(&ListExpr{Exprs: exprs})
}

func (e *ListExpr) Equal(other Expression) bool {
	o, ok := other.(*ListExpr)
	if !ok || len(e.Exprs) != len(o.Exprs) {
		return false
	}
	for i := range e.Exprs {
		if !e.Exprs[i].Equal(o.Exprs[i]) {
			return false
		}
	}
	return true
}

func (e *ListExpr) String() string {
	parts := make([]string, len(e.Exprs))
	for i, sub := range e.Exprs {
		parts[i] = sub.String()
	}
	return strings.Join(parts, ",")
}

// UnaryOp enumerates the supported unary expression operators.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpNeg
)

// UnaryExpr applies a unary operator to a sub-expression.
type UnaryExpr struct {
	Op   UnaryOp
	Expr Expression
}

func applyUnary(op UnaryOp, v Value) (Value, error) {
	switch op {
	case OpNot:
		if v.Kind() != KindBool {
			return Null, fmt.Errorf("cartocss: unexpected type in ! operator")
		}
		return Bool(!v.Bool()), nil
	case OpNeg:
		switch v.Kind() {
		case KindInt:
			return Int(-v.Int()), nil
		case KindFloat:
			return Float(-v.Float64()), nil
		default:
			return Null, fmt.Errorf("cartocss: unexpected type in unary - operator")
		}
	}
	return Null, fmt.Errorf("cartocss: unsupported unary operation")
}

func (e *UnaryExpr) Evaluate(ctx *EvalContext) EvalResult {
	r := e.Expr.Evaluate(ctx)
	if r.IsValue {
		v, err := applyUnary(e.Op, r.Value)
		if err != nil {
			Logger().Warn("cartocss: unary evaluation failed", "error", err)
			return exprResult(&UnaryExpr{Op: e.Op, Expr: &ConstExpr{Value: r.Value}})
		}
		return valueResult(v)
	}
	return exprResult(&UnaryExpr{Op: e.Op, Expr: r.Expr})
}

func (e *UnaryExpr) Equal(other Expression) bool {
	o, ok := other.(*UnaryExpr)
	return ok && e.Op == o.Op && e.Expr.Equal(o.Expr)
}

func (e *UnaryExpr) String() string {
	switch e.Op {
	case OpNot:
		return "!" + e.Expr.String()
	default:
		return "-" + e.Expr.String()
	}
}

// BinaryOp enumerates the supported binary expression operators.
type BinaryOp uint8

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpMatch
	OpAdd
	OpSub
	OpMul
	OpDiv
)

// BinaryExpr applies a binary operator to two sub-expressions.
type BinaryExpr struct {
	Op          BinaryOp
	Expr1, Expr2 Expression
}

func compareValues(v1, v2 Value, nullResult, mismatchResult bool, cmp func(a, b float64) bool, cmpStr func(a, b string) bool) Value {
	if v1.Kind() == KindNull && v2.Kind() == KindNull {
		return Bool(nullResult)
	}
	if v1.Kind() == KindString && v2.Kind() == KindString {
		return Bool(cmpStr(v1.Str(), v2.Str()))
	}
	if v1.Kind() == KindColor && v2.Kind() == KindColor {
		return Bool(mismatchResult) // colors are not ordered; EQ/NEQ compare colors before reaching here
	}
	if v1.isNumeric() && v2.isNumeric() {
		return Bool(cmp(v1.Float64(), v2.Float64()))
	}
	if v1.Kind() == KindBool && v2.isNumeric() {
		b := 0.0
		if v1.Bool() {
			b = 1
		}
		return Bool(cmp(b, v2.Float64()))
	}
	if v1.isNumeric() && v2.Kind() == KindBool {
		b := 0.0
		if v2.Bool() {
			b = 1
		}
		return Bool(cmp(v1.Float64(), b))
	}
	return Bool(mismatchResult)
}

func applyBinary(op BinaryOp, v1, v2 Value) (Value, error) {
	switch op {
	case OpAnd:
		if v1.Kind() != KindBool || v2.Kind() != KindBool {
			return Null, fmt.Errorf("cartocss: unexpected types in binary && operator")
		}
		return Bool(v1.Bool() && v2.Bool()), nil
	case OpOr:
		if v1.Kind() != KindBool || v2.Kind() != KindBool {
			return Null, fmt.Errorf("cartocss: unexpected types in binary || operator")
		}
		return Bool(v1.Bool() || v2.Bool()), nil
	case OpEq:
		if v1.Kind() == KindColor || v2.Kind() == KindColor {
			return Bool(v1.Kind() == v2.Kind() && v1.Equal(v2)), nil
		}
		return compareValues(v1, v2, true, false, func(a, b float64) bool { return a == b }, func(a, b string) bool { return a == b }), nil
	case OpNeq:
		if v1.Kind() == KindColor || v2.Kind() == KindColor {
			return Bool(!(v1.Kind() == v2.Kind() && v1.Equal(v2))), nil
		}
		return compareValues(v1, v2, false, true, func(a, b float64) bool { return a != b }, func(a, b string) bool { return a != b }), nil
	case OpLt:
		return compareValues(v1, v2, false, false, func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b }), nil
	case OpLte:
		return compareValues(v1, v2, true, false, func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b }), nil
	case OpGt:
		return compareValues(v1, v2, false, false, func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b }), nil
	case OpGte:
		return compareValues(v1, v2, true, false, func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b }), nil
	case OpMatch:
		if v1.Kind() != KindString || v2.Kind() != KindString {
			return Bool(false), nil
		}
		re, err := regexp.Compile(v2.Str())
		if err != nil {
			return Bool(false), nil
		}
		return Bool(re.MatchString(v1.Str())), nil
	case OpAdd:
		if v1.Kind() == KindString || v2.Kind() == KindString {
			return Str(v1.String() + v2.String()), nil
		}
		if v1.Kind() == KindColor && v2.Kind() == KindColor {
			return ColorVal(v1.Color().Add(v2.Color())), nil
		}
		if v1.isNumeric() && v2.isNumeric() {
			if v1.Kind() == KindInt && v2.Kind() == KindInt {
				return Int(v1.Int() + v2.Int()), nil
			}
			return Float(v1.Float64() + v2.Float64()), nil
		}
		return Null, fmt.Errorf("cartocss: unexpected types in binary + operator")
	case OpSub:
		if v1.Kind() == KindColor && v2.Kind() == KindColor {
			return ColorVal(v1.Color().Sub(v2.Color())), nil
		}
		if v1.isNumeric() && v2.isNumeric() {
			if v1.Kind() == KindInt && v2.Kind() == KindInt {
				return Int(v1.Int() - v2.Int()), nil
			}
			return Float(v1.Float64() - v2.Float64()), nil
		}
		return Null, fmt.Errorf("cartocss: unexpected types in binary - operator")
	case OpMul:
		return applyMulDiv(v1, v2, true)
	case OpDiv:
		return applyMulDiv(v1, v2, false)
	}
	return Null, fmt.Errorf("cartocss: unsupported binary operation")
}

func applyMulDiv(v1, v2 Value, mul bool) (Value, error) {
	op := func(a, b float64) float64 {
		if mul {
			return a * b
		}
		return a / b
	}
	switch {
	case v1.Kind() == KindColor && v2.Kind() == KindColor:
		if mul {
			return ColorVal(v1.Color().MulColor(v2.Color())), nil
		}
		c1, c2 := v1.Color(), v2.Color()
		return ColorVal(Color{R: c1.R / c2.R, G: c1.G / c2.G, B: c1.B / c2.B, A: 1}), nil
	case v1.Kind() == KindColor && v2.isNumeric():
		s := v2.Float64()
		if !mul {
			s = 1.0 / s
		}
		return ColorVal(v1.Color().Mul(s)), nil
	case v2.Kind() == KindColor && v1.isNumeric() && mul:
		return ColorVal(v2.Color().Mul(v1.Float64())), nil
	case v1.isNumeric() && v2.isNumeric():
		if mul && v1.Kind() == KindInt && v2.Kind() == KindInt {
			return Int(v1.Int() * v2.Int()), nil
		}
		if !mul && v1.Kind() == KindInt && v2.Kind() == KindInt {
			if v2.Int() == 0 {
				return Null, fmt.Errorf("cartocss: division by zero")
			}
			return Int(v1.Int() / v2.Int()), nil
		}
		return Float(op(v1.Float64(), v2.Float64())), nil
	}
	if mul {
		return Null, fmt.Errorf("cartocss: unexpected types in binary * operator")
	}
	return Null, fmt.Errorf("cartocss: unexpected types in binary / operator")
}

func (e *BinaryExpr) Evaluate(ctx *EvalContext) EvalResult {
	r1 := e.Expr1.Evaluate(ctx)
	r2 := e.Expr2.Evaluate(ctx)
	if r1.IsValue && r2.IsValue {
		v, err := applyBinary(e.Op, r1.Value, r2.Value)
		if err == nil {
			return valueResult(v)
		}
		Logger().Warn("cartocss: binary evaluation failed", "error", err)
	}
	expr1 := r1.Expr
	if r1.IsValue {
		expr1 = &ConstExpr{Value: r1.Value}
	}
	expr2 := r2.Expr
	if r2.IsValue {
		expr2 = &ConstExpr{Value: r2.Value}
	}
	return exprResult(&BinaryExpr{Op: e.Op, Expr1: expr1, Expr2: expr2})
}

func (e *BinaryExpr) Equal(other Expression) bool {
	o, ok := other.(*BinaryExpr)
	return ok && e.Op == o.Op && e.Expr1.Equal(o.Expr1) && e.Expr2.Equal(o.Expr2)
}

var binaryOpSymbols = map[BinaryOp]string{
	OpAnd: "&&", OpOr: "||", OpEq: "=", OpNeq: "!=", OpLt: "<", OpLte: "<=",
	OpGt: ">", OpGte: ">=", OpMatch: "=~", OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Expr1, binaryOpSymbols[e.Op], e.Expr2)
}

// CondExpr is a ternary `cond ? expr1 : expr2`.
type CondExpr struct {
	Cond, Expr1, Expr2 Expression
}

func (e *CondExpr) Evaluate(ctx *EvalContext) EvalResult {
	condResult := e.Cond.Evaluate(ctx)
	if condResult.IsValue {
		if condResult.Value.Kind() != KindBool {
			Logger().Warn("cartocss: conditional expression condition is not boolean")
			return exprResult(e)
		}
		if condResult.Value.Bool() {
			return e.Expr1.Evaluate(ctx)
		}
		return e.Expr2.Evaluate(ctx)
	}
	r1 := e.Expr1.Evaluate(ctx)
	r2 := e.Expr2.Evaluate(ctx)
	expr1 := r1.Expr
	if r1.IsValue {
		expr1 = &ConstExpr{Value: r1.Value}
	}
	expr2 := r2.Expr
	if r2.IsValue {
		expr2 = &ConstExpr{Value: r2.Value}
	}
	return exprResult(&CondExpr{Cond: condResult.Expr, Expr1: expr1, Expr2: expr2})
}

func (e *CondExpr) Equal(other Expression) bool {
	o, ok := other.(*CondExpr)
	return ok && e.Cond.Equal(o.Cond) && e.Expr1.Equal(o.Expr1) && e.Expr2.Equal(o.Expr2)
}

func (e *CondExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Expr1, e.Expr2)
}

// FuncExpr calls a builtin function (url, rgb, rgba, mix, lighten, darken,
// saturate, desaturate, fadein, fadeout) with evaluated arguments.
type FuncExpr struct {
	Func string
	Args []Expression
}

func getColorArg(v Value) (Color, error) {
	if v.Kind() != KindColor {
		return Color{}, fmt.Errorf("cartocss: wrong type, expecting color")
	}
	return v.Color(), nil
}

func getFloatArg(v Value) (float64, error) {
	if !v.isNumeric() {
		return 0, fmt.Errorf("cartocss: wrong type, expecting number")
	}
	return v.Float64(), nil
}

func applyFunc(name string, vals []Value) (Value, error) {
	switch {
	case name == "url" && len(vals) == 1:
		return Str(vals[0].String()), nil
	case name == "rgb" && len(vals) == 3:
		r, err1 := getFloatArg(vals[0])
		g, err2 := getFloatArg(vals[1])
		b, err3 := getFloatArg(vals[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return Null, fmt.Errorf("cartocss: rgb: %w", errNotComparable)
		}
		return ColorVal(Opaque(r/255.0, g/255.0, b/255.0)), nil
	case name == "rgba" && len(vals) == 4:
		r, _ := getFloatArg(vals[0])
		g, _ := getFloatArg(vals[1])
		b, _ := getFloatArg(vals[2])
		a, _ := getFloatArg(vals[3])
		return ColorVal(Color{R: r / 255.0, G: g / 255.0, B: b / 255.0, A: a}), nil
	case name == "mix" && len(vals) == 3:
		c1, e1 := getColorArg(vals[0])
		c2, e2 := getColorArg(vals[1])
		w, e3 := getFloatArg(vals[2])
		if e1 != nil || e2 != nil || e3 != nil {
			return Null, e1
		}
		return ColorVal(MixColors(c1, c2, w)), nil
	case name == "lighten" && len(vals) == 2:
		return colorAmountFunc(vals, Lighten)
	case name == "darken" && len(vals) == 2:
		return colorAmountFunc(vals, Darken)
	case name == "saturate" && len(vals) == 2:
		return colorAmountFunc(vals, Saturate)
	case name == "desaturate" && len(vals) == 2:
		return colorAmountFunc(vals, Desaturate)
	case name == "fadein" && len(vals) == 2:
		return colorAmountFunc(vals, FadeIn)
	case name == "fadeout" && len(vals) == 2:
		return colorAmountFunc(vals, FadeOut)
	}
	return Null, fmt.Errorf("%w: %s/%d", errUnknownFunction, name, len(vals))
}

func colorAmountFunc(vals []Value, fn func(Color, float64) Color) (Value, error) {
	c, err := getColorArg(vals[0])
	if err != nil {
		return Null, err
	}
	amount, err := getFloatArg(vals[1])
	if err != nil {
		return Null, err
	}
	return ColorVal(fn(c, amount)), nil
}

func (e *FuncExpr) Evaluate(ctx *EvalContext) EvalResult {
	vals := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		r := arg.Evaluate(ctx)
		if !r.IsValue {
			break
		}
		vals = append(vals, r.Value)
	}
	if len(vals) == len(e.Args) {
		if v, err := applyFunc(e.Func, vals); err == nil {
			return valueResult(v)
		}
	}
	exprs := make([]Expression, len(e.Args))
	for i, arg := range e.Args {
		r := arg.Evaluate(ctx)
		if r.IsValue {
			exprs[i] = &ConstExpr{Value: r.Value}
		} else {
			exprs[i] = r.Expr
		}
	}
	return exprResult(&FuncExpr{Func: e.Func, Args: exprs})
}

func (e *FuncExpr) Equal(other Expression) bool {
	o, ok := other.(*FuncExpr)
	if !ok || e.Func != o.Func || len(e.Args) != len(o.Args) {
		return false
	}
	for i := range e.Args {
		if !e.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (e *FuncExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Func + "(" + strings.Join(parts, ",") + ")"
}
