package cartocss

import "testing"

func TestConstExprEvaluate(t *testing.T) {
	e := &ConstExpr{Value: Int(42)}
	r := e.Evaluate(nil)
	if !r.IsValue || r.Value.Int() != 42 {
		t.Errorf("ConstExpr.Evaluate = %+v, want value 42", r)
	}
}

func TestFieldOrVarExprResolution(t *testing.T) {
	ctx := &EvalContext{Fields: map[string]Value{"name": Str("Helsinki")}}
	e := &FieldOrVarExpr{Field: true, FieldOrVar: "name"}
	r := e.Evaluate(ctx)
	if !r.IsValue || r.Value.Str() != "Helsinki" {
		t.Errorf("FieldOrVarExpr.Evaluate = %+v, want value Helsinki", r)
	}

	unbound := &FieldOrVarExpr{Field: true, FieldOrVar: "missing"}
	r2 := unbound.Evaluate(ctx)
	if r2.IsValue {
		t.Errorf("unbound field should stay an expression, got %+v", r2)
	}
}

func TestBinaryExprArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   BinaryOp
		a, b Value
		want Value
	}{
		{"int add", OpAdd, Int(2), Int(3), Int(5)},
		{"float add", OpAdd, Float(2.5), Float(1.5), Float(4)},
		{"mixed add promotes to float", OpAdd, Int(2), Float(0.5), Float(2.5)},
		{"string concat", OpAdd, Str("foo"), Str("bar"), Str("foobar")},
		{"int sub", OpSub, Int(5), Int(3), Int(2)},
		{"int mul", OpMul, Int(4), Int(3), Int(12)},
		{"float div", OpDiv, Float(10), Float(4), Float(2.5)},
		{"eq true", OpEq, Int(4), Int(4), Bool(true)},
		{"eq cross-kind numeric", OpEq, Int(4), Float(4), Bool(true)},
		{"lt", OpLt, Int(1), Int(2), Bool(true)},
		{"and", OpAnd, Bool(true), Bool(false), Bool(false)},
		{"or", OpOr, Bool(true), Bool(false), Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &BinaryExpr{Op: tt.op, Expr1: &ConstExpr{Value: tt.a}, Expr2: &ConstExpr{Value: tt.b}}
			r := e.Evaluate(nil)
			if !r.IsValue {
				t.Fatalf("expected value result, got expression %v", r.Expr)
			}
			if !r.Value.Equal(tt.want) {
				t.Errorf("got %v, want %v", r.Value, tt.want)
			}
		})
	}
}

func TestBinaryExprColorArithmetic(t *testing.T) {
	c1 := Opaque(0.2, 0.2, 0.2)
	c2 := Opaque(0.1, 0.1, 0.1)
	e := &BinaryExpr{Op: OpAdd, Expr1: &ConstExpr{Value: ColorVal(c1)}, Expr2: &ConstExpr{Value: ColorVal(c2)}}
	r := e.Evaluate(nil)
	if !r.IsValue || r.Value.Kind() != KindColor {
		t.Fatalf("expected color result, got %+v", r)
	}
	if !almostEqual(r.Value.Color().R, 0.3, 1e-6) {
		t.Errorf("got R=%v, want 0.3", r.Value.Color().R)
	}
}

func TestConditionalExpr(t *testing.T) {
	trueCase := &CondExpr{
		Cond:  &ConstExpr{Value: Bool(true)},
		Expr1: &ConstExpr{Value: Str("yes")},
		Expr2: &ConstExpr{Value: Str("no")},
	}
	r := trueCase.Evaluate(nil)
	if !r.IsValue || r.Value.Str() != "yes" {
		t.Errorf("conditional(true) = %+v, want yes", r)
	}
}

func TestFuncExprColorFunctions(t *testing.T) {
	tests := []struct {
		name string
		expr *FuncExpr
		want func(Value) bool
	}{
		{
			"rgb",
			&FuncExpr{Func: "rgb", Args: []Expression{
				&ConstExpr{Value: Int(255)}, &ConstExpr{Value: Int(0)}, &ConstExpr{Value: Int(0)},
			}},
			func(v Value) bool { return v.Kind() == KindColor && almostEqual(v.Color().R, 1.0, 1e-6) },
		},
		{
			"darken",
			&FuncExpr{Func: "darken", Args: []Expression{
				&ConstExpr{Value: ColorVal(Opaque(0.5, 0.5, 0.5))}, &ConstExpr{Value: Float(0.1)},
			}},
			func(v Value) bool { return v.Kind() == KindColor && v.Color().HSLA().L < 0.5 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.expr.Evaluate(nil)
			if !r.IsValue {
				t.Fatalf("expected value, got expression %v", r.Expr)
			}
			if !tt.want(r.Value) {
				t.Errorf("unexpected result %v", r.Value)
			}
		})
	}
}

func TestFuncExprUnknownFunctionStaysExpression(t *testing.T) {
	e := &FuncExpr{Func: "nosuchfunc", Args: []Expression{&ConstExpr{Value: Int(1)}}}
	r := e.Evaluate(nil)
	if r.IsValue {
		t.Errorf("unknown function should not evaluate to a value, got %v", r.Value)
	}
}

func TestListExprPartialEvaluation(t *testing.T) {
	e := &ListExpr{Exprs: []Expression{
		&ConstExpr{Value: Int(1)},
		&FieldOrVarExpr{Field: true, FieldOrVar: "x"},
	}}
	r := e.Evaluate(&EvalContext{})
	if r.IsValue {
		t.Fatalf("expected partial residual expression, got value %v", r.Value)
	}
}
