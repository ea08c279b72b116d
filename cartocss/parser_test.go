package cartocss

import "testing"

func TestParseSimpleRule(t *testing.T) {
	src := `#roads { line-color: #ff0000; line-width: 2; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(sheet.Elements) != 1 || sheet.Elements[0].RuleSet == nil {
		t.Fatalf("expected one rule set, got %+v", sheet.Elements)
	}
	rs := sheet.Elements[0].RuleSet
	if len(rs.Selectors) != 1 || len(rs.Selectors[0].Predicates) != 1 {
		t.Fatalf("expected one selector with one predicate, got %+v", rs.Selectors)
	}
	if _, ok := rs.Selectors[0].Predicates[0].(*LayerPredicate); !ok {
		t.Errorf("expected LayerPredicate, got %T", rs.Selectors[0].Predicates[0])
	}
	if len(rs.Block.Elements) != 2 {
		t.Fatalf("expected 2 property declarations, got %d", len(rs.Block.Elements))
	}
}

func TestParseSelectorWithClassAndFilter(t *testing.T) {
	src := `#roads.major[zoom>=10] { line-width: 3; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	preds := sheet.Elements[0].RuleSet.Selectors[0].Predicates
	if len(preds) != 3 {
		t.Fatalf("expected 3 predicates, got %d: %+v", len(preds), preds)
	}
	if _, ok := preds[1].(*ClassPredicate); !ok {
		t.Errorf("expected ClassPredicate at index 1, got %T", preds[1])
	}
	op, ok := preds[2].(*OpPredicate)
	if !ok {
		t.Fatalf("expected OpPredicate at index 2, got %T", preds[2])
	}
	if op.Op != CmpGTE || op.FieldOrVar != "zoom" || op.RefValue.Int() != 10 {
		t.Errorf("unexpected OpPredicate: %+v", op)
	}
}

func TestParseVariableDeclaration(t *testing.T) {
	src := `@bg: #112233; Map { background-color: @bg; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if sheet.Elements[0].Variable == nil || sheet.Elements[0].Variable.Variable != "bg" {
		t.Fatalf("expected variable decl 'bg', got %+v", sheet.Elements[0])
	}
}

func TestParseNestedRuleSet(t *testing.T) {
	src := `#roads { [zoom>=10] { line-width: 3; } line-color: #fff; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	rs := sheet.Elements[0].RuleSet
	if len(rs.Block.Elements) != 2 {
		t.Fatalf("expected 2 block elements, got %d", len(rs.Block.Elements))
	}
	if rs.Block.Elements[0].RuleSet == nil {
		t.Errorf("expected first element to be a nested rule set")
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := `#r { width: 1 + 2 * 3; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	decl := sheet.Elements[0].RuleSet.Block.Elements[0].Property
	r := decl.Expr.Evaluate(nil)
	if !r.IsValue || r.Value.Int() != 7 {
		t.Errorf("1 + 2 * 3 = %v, want 7 (precedence)", r.Value)
	}
}

func TestParseFunctionCall(t *testing.T) {
	src := `#r { line-color: darken(#808080, 0.1); }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	decl := sheet.Elements[0].RuleSet.Block.Elements[0].Property
	r := decl.Expr.Evaluate(nil)
	if !r.IsValue || r.Value.Kind() != KindColor {
		t.Errorf("expected color value, got %+v", r)
	}
}

func TestParseListLiteral(t *testing.T) {
	src := `#r { line-dasharray: [4,2,1,2]; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	decl := sheet.Elements[0].RuleSet.Block.Elements[0].Property
	r := decl.Expr.Evaluate(nil)
	if !r.IsValue || r.Value.Kind() != KindList || len(r.Value.List()) != 4 {
		t.Errorf("expected a 4-element list, got %+v", r)
	}
}

func TestParseSyntaxErrorCollection(t *testing.T) {
	src := `#r { width : }`
	_, err := Parse(src, "test")
	if err == nil {
		t.Fatal("expected parse error for missing expression")
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	sources := []string{
		`@c: red; #roads[zoom>=5] { line-color: @c; line-width: 2; }`,
		`#r { line-color: #ff0000; [x=1] { line-width: 1; } [x=2] { line-width: 2; } }`,
		`Map { background-color: #abcdef; }`,
		`#water::outline { polygon-fill: rgba(0,0,255,0.5); line-dasharray: [4,2]; }`,
		`#roads[type="primary"] { line-width: ([zoom] > 10 ? 4 : 2); }`,
		`#poi.major.minor { marker-width: (1 + 2) * 3; text-name: [name]; }`,
	}
	for _, src := range sources {
		sheet, err := Parse(src, "test")
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		printed := Format(sheet)
		reparsed, err := Parse(printed, "test-reprint")
		if err != nil {
			t.Fatalf("re-Parse of %q failed: %v\nprinted:\n%s", src, err, printed)
		}
		reprinted := Format(reparsed)
		if printed != reprinted {
			t.Errorf("format/parse round trip not a fixed point for %q:\nfirst:\n%s\nsecond:\n%s", src, printed, reprinted)
		}
	}
}
