package cartocss

import (
	"strings"

	"golang.org/x/text/language"
)

// Symbolizer is one Mapnik-style rendering instruction translated from a
// PropertySet: a type tag (line, polygon, marker, text, shield, building,
// point) and the subset of that PropertySet's properties whose field name
// carries the matching prefix, with the prefix stripped (`line-width` ->
// `width`).
type Symbolizer struct {
	Type       string
	Properties map[string]Expression

	// Torque carries the frame-offset/resolution pair for a Torque marker
	// symbolizer (§4.14); nil for every other symbolizer.
	Torque *TorqueParams
}

// TorqueParams configures an animated point-density marker symbolizer.
type TorqueParams struct {
	FrameOffset int
	Resolution  int
}

// Rule pairs the filters that must hold with the symbolizers that apply
// when they do; produced one per PropertySet.
type Rule struct {
	Filters     []Predicate
	Symbolizers []Symbolizer
	Order       int
}

// symbolizerTypes lists the recognized Mapnik-style symbolizer prefixes, in
// the fixed draw order Mapnik applies them.
var symbolizerTypes = []string{
	"polygon", "building", "line", "point", "marker", "shield", "text",
}

// Translate converts one layer's compiled attachments into an ordered list
// of Rules, one per PropertySet, each split into per-type Symbolizers.
// Translation is best-effort: a PropertySet with no recognized property
// prefixes yields no symbolizers and is silently dropped, while a Torque
// property that is not a numeric constant is logged as a warning and left at
// zero, leaving the rest of the style intact.
func Translate(layerName string, attachments []LayerAttachment) []Rule {
	var rules []Rule
	for _, attach := range attachments {
		for _, ps := range attach.PropertySets {
			byType := map[string]map[string]Expression{}
			torqueFields := map[string]Expression{}
			for field, prop := range ps.Properties {
				if field == "torque-frame-offset" || field == "torque-resolution" {
					torqueFields[field] = prop.Expr
					continue
				}
				typ, name, ok := splitSymbolizerField(field)
				if !ok {
					continue
				}
				if byType[typ] == nil {
					byType[typ] = map[string]Expression{}
				}
				byType[typ][name] = prop.Expr
			}
			if len(torqueFields) > 0 && byType["marker"] == nil {
				byType["marker"] = map[string]Expression{}
			}
			if len(byType) == 0 {
				continue
			}
			var syms []Symbolizer
			for _, typ := range symbolizerTypes {
				props, ok := byType[typ]
				if !ok {
					continue
				}
				sym := Symbolizer{Type: typ, Properties: props}
				if typ == "marker" {
					if tp, ok := torqueParamsFromProperties(layerName, torqueFields); ok {
						sym.Torque = tp
					}
				}
				syms = append(syms, sym)
			}
			if len(syms) == 0 {
				continue
			}
			rules = append(rules, Rule{Filters: ps.Filters, Symbolizers: syms, Order: attach.Order})
		}
	}
	return rules
}

// splitSymbolizerField splits a compiled field name like "line-width" into
// its symbolizer type and remaining property name, e.g. ("line", "width").
func splitSymbolizerField(field string) (typ, name string, ok bool) {
	for _, t := range symbolizerTypes {
		if field == t {
			return t, "file", true // bare `marker: url(...)` shorthand
		}
		if strings.HasPrefix(field, t+"-") {
			return t, strings.TrimPrefix(field, t+"-"), true
		}
	}
	return "", "", false
}

// LocalizeNameFields rewrites the bare `[name]` field reference of every
// text/shield Symbolizer's "name" property to the best available
// `name:<bcp47>` variant, matching the OSM/Mapnik convention of carrying
// one field per locale (`name`, `name:en`, `name:de`, ...) and letting the
// renderer pick among them at compile time rather than at draw time.
// prefs is the caller's preferred language order (e.g. from a map
// descriptor's viewer locale); available is the set of field names the
// vector tile schema actually carries for the layer being translated. A
// Rule whose "name" property is anything other than a bare [name]
// reference (a concrete locale already chosen in the stylesheet, or a
// computed expression) is left untouched.
func LocalizeNameFields(rules []Rule, prefs []language.Tag, available []string) {
	if len(prefs) == 0 {
		return
	}
	tags := make([]language.Tag, 0, len(available))
	fieldByIndex := make([]string, 0, len(available))
	for _, f := range available {
		lang, ok := strings.CutPrefix(f, "name:")
		if !ok {
			continue
		}
		tag, err := language.Parse(lang)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		fieldByIndex = append(fieldByIndex, f)
	}
	if len(tags) == 0 {
		return
	}
	matcher := language.NewMatcher(tags)
	_, idx, confidence := matcher.Match(prefs...)
	if confidence == language.No {
		return
	}
	best := fieldByIndex[idx]

	for i := range rules {
		for j := range rules[i].Symbolizers {
			sym := &rules[i].Symbolizers[j]
			if sym.Type != "text" && sym.Type != "shield" {
				continue
			}
			name, ok := sym.Properties["name"]
			if !ok {
				continue
			}
			if fv, ok := name.(*FieldOrVarExpr); ok && fv.Field && fv.FieldOrVar == "name" {
				sym.Properties["name"] = &FieldOrVarExpr{Field: true, FieldOrVar: best}
			}
		}
	}
}

// torqueParamsFromProperties extracts "torque-frame-offset" and
// "torque-resolution" from the torque-* properties Translate split out of
// the PropertySet, evaluating
// them as constants. Returns ok=false when neither is present (the common
// case: a plain, non-Torque marker).
func torqueParamsFromProperties(layerName string, props map[string]Expression) (*TorqueParams, bool) {
	offsetExpr, hasOffset := props["torque-frame-offset"]
	resExpr, hasRes := props["torque-resolution"]
	if !hasOffset && !hasRes {
		return nil, false
	}
	tp := &TorqueParams{}
	if hasOffset {
		r := offsetExpr.Evaluate(nil)
		if r.IsValue && r.Value.Kind() == KindInt {
			tp.FrameOffset = int(r.Value.Int())
		} else {
			Logger().Warn("cartocss: torque-frame-offset is not a constant integer", "layer", layerName)
		}
	}
	if hasRes {
		r := resExpr.Evaluate(nil)
		if r.IsValue && r.Value.Kind() == KindInt {
			tp.Resolution = int(r.Value.Int())
		} else {
			Logger().Warn("cartocss: torque-resolution is not a constant integer", "layer", layerName)
		}
	}
	return tp, true
}
