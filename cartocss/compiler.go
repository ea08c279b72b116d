package cartocss

import "sort"

// Property is a single resolved `field: expression` declaration together
// with the specificity of the selector that produced it.
type Property struct {
	Field       string
	Expr        Expression
	Specificity Specificity
}

// PropertySet is one reachable combination of filters and the properties
// that apply when all of them hold.
type PropertySet struct {
	Filters    []Predicate
	Properties map[string]Property
}

func (ps PropertySet) clone() PropertySet {
	np := PropertySet{
		Filters:    append([]Predicate(nil), ps.Filters...),
		Properties: make(map[string]Property, len(ps.Properties)),
	}
	for k, v := range ps.Properties {
		np.Properties[k] = v
	}
	return np
}

// LayerAttachment groups the PropertySets that apply to one rendering
// attachment (the base symbolizer, or a named sub-attachment like a line's
// case/outline) within a single layer.
type LayerAttachment struct {
	Attachment   string
	Order        int
	PropertySets []PropertySet
}

// CompileLayerOptions configures compileLayer; IgnoreLayerPredicates skips
// `#layer` selector fragments entirely, used for Torque-style layers that
// are compiled once and reused across many virtual sub-layers (§4.14).
type CompileLayerOptions struct {
	IgnoreLayerPredicates bool
}

// Compiler evaluates a StyleSheet's cascade into per-layer PropertySets,
// implementing the specificity-ordered, redundancy-pruning cascade
// resolution that gives CartoCSS its "later, more specific rule wins"
// semantics.
type Compiler struct {
	Context EvalContext
}

type filteredProperty struct {
	property Property
	filters  []Predicate
}

type filteredPropertyList struct {
	attachment string
	properties []filteredProperty
}

// CompileMap resolves only the top-level, unfiltered Map properties (the
// background/style settings declared in bare `Map { ... }` blocks).
func (c *Compiler) CompileMap(sheet *StyleSheet) map[string]Value {
	variables := map[string]Expression{}
	ctx := &PredicateContext{Expr: c.Context}
	ctx.Expr.Variables = variables

	var lists []*filteredPropertyList
	for _, el := range sheet.Elements {
		if el.Variable != nil {
			if _, exists := variables[el.Variable.Variable]; !exists {
				variables[el.Variable.Variable] = el.Variable.Expr
			}
		} else if el.RuleSet != nil {
			buildPropertyList(el.RuleSet, ctx, "", nil, false, &lists)
		}
	}

	result := map[string]Value{}
	for _, list := range lists {
		if list.attachment != "" {
			continue
		}
		for _, prop := range list.properties {
			if len(prop.filters) != 0 {
				continue
			}
			r := prop.property.Expr.Evaluate(&ctx.Expr)
			if r.IsValue {
				result[prop.property.Field] = r.Value
			}
		}
	}
	return result
}

// CompileLayer resolves the cascade for one named layer, returning its
// attachments ordered by first appearance with propertySets already pruned
// of unreachable and redundant combinations.
func (c *Compiler) CompileLayer(layerName string, sheet *StyleSheet, opts CompileLayerOptions) []LayerAttachment {
	variables := map[string]Expression{}
	ctx := &PredicateContext{LayerName: layerName, Expr: c.Context}
	ctx.Expr.Variables = variables

	var lists []*filteredPropertyList
	for _, el := range sheet.Elements {
		if el.Variable != nil {
			if _, exists := variables[el.Variable.Variable]; !exists {
				variables[el.Variable.Variable] = el.Variable.Expr
			}
		} else if el.RuleSet != nil {
			buildPropertyList(el.RuleSet, ctx, "", nil, opts.IgnoreLayerPredicates, &lists)
		}
	}

	attachments := make([]LayerAttachment, 0, len(lists))
	for _, list := range lists {
		// Sort by *decreasing* specificity (highest first), stable on ties.
		props := append([]filteredProperty(nil), list.properties...)
		sort.SliceStable(props, func(i, j int) bool {
			return props[j].property.Specificity.Less(props[i].property.Specificity)
		})

		var propertySets []PropertySet
		for _, prop := range props {
			r := prop.property.Expr.Evaluate(&ctx.Expr)
			resolved := prop.property
			if r.IsValue {
				resolved.Expr = &ConstExpr{Value: r.Value}
			} else {
				resolved.Expr = r.Expr
			}

			for i := 0; i < len(propertySets); i++ {
				if existing, ok := propertySets[i].Properties[resolved.Field]; ok {
					if !existing.Specificity.Less(resolved.Specificity) {
						continue
					}
					if existing.Expr.Equal(resolved.Expr) {
						continue
					}
				}

				candidate := propertySets[i].clone()
				candidate.Properties[resolved.Field] = resolved

				skip := false
				for _, propFilter := range prop.filters {
					found := false
					for _, existingFilter := range candidate.Filters {
						if propFilter == existingFilter || propFilter.Contains(existingFilter).Bool() {
							found = true
							break
						}
						if !propFilter.Intersects(existingFilter).Bool() {
							skip = true
							break
						}
					}
					if skip {
						break
					}
					if !found {
						candidate.Filters = append(candidate.Filters, propFilter)
					}
				}
				if skip {
					continue
				}

				if isRedundantPropertySet(propertySets[:i], candidate) {
					continue
				}
				if sameFilters(candidate.Filters, propertySets[i].Filters) {
					propertySets[i] = candidate
				} else {
					propertySets = append(propertySets, PropertySet{})
					copy(propertySets[i+1:], propertySets[i:])
					propertySets[i] = candidate
				}
			}

			fresh := PropertySet{
				Properties: map[string]Property{resolved.Field: resolved},
				Filters:    append([]Predicate(nil), prop.filters...),
			}
			if isRedundantPropertySet(propertySets, fresh) {
				continue
			}
			propertySets = append(propertySets, fresh)
		}

		order := int(^uint(0) >> 1) // math.MaxInt
		for _, ps := range propertySets {
			for _, prop := range ps.Properties {
				if prop.Specificity.Order < order {
					order = prop.Specificity.Order
				}
			}
		}
		attachments = append(attachments, LayerAttachment{
			Attachment:   list.attachment,
			Order:        order,
			PropertySets: propertySets,
		})
	}
	return attachments
}

func sameFilters(a, b []Predicate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isRedundantPropertySet reports whether ps is already implied by some
// earlier, less specific property set: true when every one of that set's
// filters is either present verbatim in ps, or implied (Contains) by one of
// ps's filters.
func isRedundantPropertySet(existing []PropertySet, ps PropertySet) bool {
	for _, e := range existing {
		allImplied := true
		for _, f := range e.Filters {
			implied := false
			for _, pf := range ps.Filters {
				if f == pf {
					implied = true
					break
				}
			}
			if !implied {
				for _, pf := range ps.Filters {
					if f.Contains(pf).Bool() {
						implied = true
						break
					}
				}
			}
			if !implied {
				allImplied = false
				break
			}
		}
		if allImplied {
			return true
		}
	}
	return false
}

// buildPropertyList walks a RuleSet (and its nested rule sets), accumulating
// filters down each selector path and recording one filteredProperty per
// reachable `field: expr` declaration, grouped by attachment name.
func buildPropertyList(ruleSet *RuleSet, ctx *PredicateContext, attachment string, filters []Predicate, ignoreLayerPredicates bool, lists *[]*filteredPropertyList) {
	selectors := ruleSet.Selectors
	if len(selectors) == 0 && ctx.LayerName != "" {
		selectors = []Selector{{}}
	}

	for _, selector := range selectors {
		selectorFilters := append([]Predicate(nil), filters...)
		for _, pred := range selector.Predicates {
			if _, ok := pred.(*LayerPredicate); ok && ignoreLayerPredicates {
				continue
			}
			selectorFilters = append(selectorFilters, pred)
		}

		unreachable := false
		selectorAttachment := attachment
		var optimized []Predicate
		kept := selectorFilters[:0:0]
		for _, pred := range selectorFilters {
			result := pred.Evaluate(ctx)
			if result == False {
				unreachable = true
				break
			}
			if ap, ok := pred.(*AttachmentPredicate); ok {
				selectorAttachment += "::" + ap.Attachment
				continue
			}
			kept = append(kept, pred)
			if result == Indeterminate {
				optimized = append(optimized, pred)
			}
		}
		selectorFilters = kept
		if unreachable {
			continue
		}

		seenFields := map[string]bool{}
		for _, el := range ruleSet.Block.Elements {
			if el.Property != nil {
				if seenFields[el.Property.Field] {
					continue
				}
				seenFields[el.Property.Field] = true

				var list *filteredPropertyList
				for _, l := range *lists {
					if l.attachment == selectorAttachment {
						list = l
						break
					}
				}
				if list == nil {
					list = &filteredPropertyList{attachment: selectorAttachment}
					*lists = append(*lists, list)
				}
				list.properties = append(list.properties, filteredProperty{
					property: Property{
						Field:       el.Property.Field,
						Expr:        el.Property.Expr,
						Specificity: specificityOf(selectorFilters, el.Property.Order),
					},
					filters: append([]Predicate(nil), optimized...),
				})
			} else if el.RuleSet != nil {
				buildPropertyList(el.RuleSet, ctx, selectorAttachment, selectorFilters, ignoreLayerPredicates, lists)
			}
		}
	}
}

func specificityOf(preds []Predicate, order int) Specificity {
	var spec Specificity
	for _, p := range preds {
		switch p.(type) {
		case *LayerPredicate:
			spec.Layers++
		case *ClassPredicate:
			spec.Classes++
		case *AttachmentPredicate:
			// ignored
		default:
			spec.Filters++
		}
	}
	spec.Order = order
	return spec
}
