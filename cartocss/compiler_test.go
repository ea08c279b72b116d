package cartocss

import "testing"

func compileOneLayer(t *testing.T, src, layer string) []LayerAttachment {
	t.Helper()
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	c := &Compiler{}
	return c.CompileLayer(layer, sheet, CompileLayerOptions{})
}

func TestCompileLayerBasicCascade(t *testing.T) {
	src := `
		#roads { line-width: 1; }
		#roads.major { line-width: 3; }
	`
	attachments := compileOneLayer(t, src, "roads")
	if len(attachments) != 1 {
		t.Fatalf("expected one attachment (base), got %d", len(attachments))
	}
	sets := attachments[0].PropertySets
	if len(sets) != 2 {
		t.Fatalf("expected 2 property sets (generic + major-class), got %d: %+v", len(sets), sets)
	}
}

func TestCompileLayerIgnoresOtherLayers(t *testing.T) {
	src := `
		#roads { line-width: 1; }
		#water { polygon-fill: #0000ff; }
	`
	attachments := compileOneLayer(t, src, "roads")
	for _, a := range attachments {
		for _, ps := range a.PropertySets {
			if _, ok := ps.Properties["polygon-fill"]; ok {
				t.Errorf("water layer's polygon-fill leaked into roads compile: %+v", ps)
			}
		}
	}
}

func TestCompileLayerHigherSpecificityWins(t *testing.T) {
	src := `
		#roads[zoom>=0] { line-color: #ff0000; }
		#roads.major[zoom>=0] { line-color: #00ff00; }
	`
	attachments := compileOneLayer(t, src, "roads")
	var foundGreen bool
	for _, a := range attachments {
		for _, ps := range a.PropertySets {
			if prop, ok := ps.Properties["line-color"]; ok {
				r := prop.Expr.Evaluate(nil)
				if r.IsValue && r.Value.Kind() == KindColor {
					if r.Value.Color().G == 1 {
						foundGreen = true
					}
				}
			}
		}
	}
	if !foundGreen {
		t.Errorf("expected the more specific .major rule's green color to appear in some property set")
	}
}

func TestCompileLayerVariableSubstitution(t *testing.T) {
	src := `
		@width: 5;
		#roads { line-width: @width; }
	`
	attachments := compileOneLayer(t, src, "roads")
	found := false
	for _, a := range attachments {
		for _, ps := range a.PropertySets {
			if prop, ok := ps.Properties["line-width"]; ok {
				r := prop.Expr.Evaluate(nil)
				if r.IsValue && r.Value.Int() == 5 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Errorf("expected line-width resolved to 5 via variable substitution")
	}
}

func TestCompileMapBackground(t *testing.T) {
	src := `Map { background-color: #ffffff; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	c := &Compiler{}
	props := c.CompileMap(sheet)
	bg, ok := props["background-color"]
	if !ok || bg.Kind() != KindColor {
		t.Fatalf("expected background-color in map properties, got %+v", props)
	}
}

func TestCompileLayerIgnoreLayerPredicates(t *testing.T) {
	src := `#anylayer { marker-width: 8; }`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	c := &Compiler{}
	attachments := c.CompileLayer("completely-different-layer", sheet, CompileLayerOptions{IgnoreLayerPredicates: true})
	found := false
	for _, a := range attachments {
		for _, ps := range a.PropertySets {
			if _, ok := ps.Properties["marker-width"]; ok {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected layer predicate to be ignored, marker-width should apply regardless of layer name")
	}
}

func TestCompileLayerZoomPredicateCountedButRemoved(t *testing.T) {
	src := `
		@c: red;
		#roads[zoom>=5] { line-color: @c; line-width: 2; }
	`
	sheet, err := Parse(src, "test")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	c := &Compiler{Context: EvalContext{PredefinedFields: map[string]Value{"zoom": Int(5)}}}
	attachments := c.CompileLayer("roads", sheet, CompileLayerOptions{})
	if len(attachments) != 1 || attachments[0].Attachment != "" {
		t.Fatalf("expected one base attachment, got %+v", attachments)
	}
	sets := attachments[0].PropertySets
	if len(sets) != 1 {
		t.Fatalf("expected one property set, got %d: %+v", len(sets), sets)
	}
	ps := sets[0]
	// zoom>=5 evaluated true at zoom 5: gone from the runtime filter list
	// but still counted in specificity.
	if len(ps.Filters) != 0 {
		t.Errorf("runtime filters = %v, want none", ps.Filters)
	}
	lc, ok := ps.Properties["line-color"]
	if !ok {
		t.Fatal("missing line-color")
	}
	r := lc.Expr.Evaluate(nil)
	if !r.IsValue || r.Value.Kind() != KindColor || r.Value.Color() != Opaque(1, 0, 0) {
		t.Errorf("line-color = %+v, want red", r)
	}
	lw, ok := ps.Properties["line-width"]
	if !ok {
		t.Fatal("missing line-width")
	}
	if r := lw.Expr.Evaluate(nil); !r.IsValue || r.Value.Int() != 2 {
		t.Errorf("line-width = %+v, want 2", r)
	}
	if lc.Specificity.Layers != 1 || lc.Specificity.Classes != 0 || lc.Specificity.Filters != 1 {
		t.Errorf("line-color specificity = %+v, want (1,0,1,order)", lc.Specificity)
	}
	if lw.Specificity.Order <= lc.Specificity.Order {
		t.Errorf("source order must increase: line-width %d vs line-color %d",
			lw.Specificity.Order, lc.Specificity.Order)
	}
}

func TestCompileLayerDisjointFiltersPropagateBaseProperty(t *testing.T) {
	src := `#r { line-color: red; [x=1] { line-width: 1; } [x=2] { line-width: 2; } }`
	attachments := compileOneLayer(t, src, "r")
	if len(attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(attachments))
	}
	sets := attachments[0].PropertySets
	if len(sets) != 3 {
		t.Fatalf("expected 3 property sets, got %d: %+v", len(sets), sets)
	}

	width := func(ps PropertySet) (int64, bool) {
		p, ok := ps.Properties["line-width"]
		if !ok {
			return 0, false
		}
		r := p.Expr.Evaluate(nil)
		return r.Value.Int(), r.IsValue
	}
	hasRed := func(ps PropertySet) bool {
		p, ok := ps.Properties["line-color"]
		if !ok {
			return false
		}
		r := p.Expr.Evaluate(nil)
		return r.IsValue && r.Value.Color() == Opaque(1, 0, 0)
	}

	// Two filtered sets first (one per disjoint filter), the unfiltered
	// base last; the specificity-0 line-color propagates into both
	// filtered sets.
	widths := map[int64]bool{}
	for _, ps := range sets[:2] {
		w, ok := width(ps)
		if !ok || len(ps.Filters) != 1 || !hasRed(ps) {
			t.Errorf("filtered set = %+v, want one filter, a line-width and line-color red", ps)
			continue
		}
		widths[w] = true
	}
	if !widths[1] || !widths[2] {
		t.Errorf("filtered widths = %v, want both 1 and 2", widths)
	}
	if _, ok := width(sets[2]); ok {
		t.Errorf("set 2 = %+v, want no line-width in the unfiltered base set", sets[2])
	}
	if len(sets[2].Filters) != 0 || !hasRed(sets[2]) {
		t.Errorf("set 2 = %+v, want unfiltered base carrying line-color red", sets[2])
	}
}
