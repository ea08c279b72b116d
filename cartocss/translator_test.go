package cartocss

import (
	"testing"

	"golang.org/x/text/language"
)

func TestTranslateSplitsPropertiesByType(t *testing.T) {
	attachments := compileOneLayer(t, `
		#roads {
			line-width: 2;
			line-color: #ff0000;
			text-name: "[name]";
			text-size: 12;
		}
	`, "roads")
	rules := Translate("roads", attachments)
	if len(rules) != 1 {
		t.Fatalf("expected one rule, got %d", len(rules))
	}
	var sawLine, sawText bool
	for _, s := range rules[0].Symbolizers {
		switch s.Type {
		case "line":
			sawLine = true
			if _, ok := s.Properties["width"]; !ok {
				t.Errorf("line symbolizer missing width property: %+v", s.Properties)
			}
		case "text":
			sawText = true
			if _, ok := s.Properties["name"]; !ok {
				t.Errorf("text symbolizer missing name property: %+v", s.Properties)
			}
		}
	}
	if !sawLine || !sawText {
		t.Errorf("expected both line and text symbolizers, got %+v", rules[0].Symbolizers)
	}
}

func TestTranslateOrdersSymbolizersByDrawOrder(t *testing.T) {
	attachments := compileOneLayer(t, `
		#buildings {
			text-name: "[name]";
			polygon-fill: #cccccc;
			line-color: #888888;
		}
	`, "buildings")
	rules := Translate("buildings", attachments)
	var order []string
	for _, s := range rules[0].Symbolizers {
		order = append(order, s.Type)
	}
	idx := map[string]int{}
	for i, t := range order {
		idx[t] = i
	}
	if idx["polygon"] > idx["line"] || idx["line"] > idx["text"] {
		t.Errorf("symbolizers not in draw order: %v", order)
	}
}

func TestTranslateTorqueParams(t *testing.T) {
	attachments := compileOneLayer(t, `
		#traffic {
			marker-width: 4;
			torque-frame-offset: 2;
			torque-resolution: 8;
		}
	`, "traffic")
	rules := Translate("traffic", attachments)
	found := false
	for _, s := range rules[0].Symbolizers {
		if s.Type == "marker" && s.Torque != nil {
			found = true
			if s.Torque.FrameOffset != 2 || s.Torque.Resolution != 8 {
				t.Errorf("unexpected torque params: %+v", s.Torque)
			}
		}
	}
	if !found {
		t.Errorf("expected a marker symbolizer with torque params, got %+v", rules[0].Symbolizers)
	}
}

func TestLocalizeNameFieldsPicksBestMatch(t *testing.T) {
	attachments := compileOneLayer(t, `
		#places {
			text-name: "[name]";
			text-size: 12;
		}
	`, "places")
	rules := Translate("places", attachments)

	prefs := []language.Tag{language.MustParse("de-CH"), language.English}
	available := []string{"name", "name:en", "name:de", "name:fr"}
	LocalizeNameFields(rules, prefs, available)

	var got string
	for _, s := range rules[0].Symbolizers {
		if s.Type != "text" {
			continue
		}
		fv, ok := s.Properties["name"].(*FieldOrVarExpr)
		if !ok {
			t.Fatalf("name property is not a field reference: %#v", s.Properties["name"])
		}
		got = fv.FieldOrVar
	}
	if got != "name:de" {
		t.Errorf("expected localization to pick name:de, got %q", got)
	}
}

func TestLocalizeNameFieldsLeavesExplicitFieldAlone(t *testing.T) {
	attachments := compileOneLayer(t, `
		#places {
			text-name: "[name:fr]";
			text-size: 12;
		}
	`, "places")
	rules := Translate("places", attachments)

	LocalizeNameFields(rules, []language.Tag{language.English}, []string{"name", "name:en", "name:fr"})

	fv, ok := rules[0].Symbolizers[0].Properties["name"].(*FieldOrVarExpr)
	if !ok || fv.FieldOrVar != "name:fr" {
		t.Errorf("expected explicit name:fr to survive untouched, got %#v", rules[0].Symbolizers[0].Properties["name"])
	}
}
