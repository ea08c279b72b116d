package cartocss

// Selector is a CSS-like selector: a single RuleSet may list several
// (alternative) Selectors, each an implicit AND of Predicates.
type Selector struct {
	Predicates []Predicate
}

// Specificity returns the 4-tuple CartoCSS uses to order rule application:
// (layer-count, class-count, filter-count, source-order). Equal specificity
// falls back to source order, which the caller tracks separately.
func (s Selector) Specificity() Specificity {
	var spec Specificity
	for _, p := range s.Predicates {
		switch p.(type) {
		case *LayerPredicate:
			spec.Layers++
		case *ClassPredicate:
			spec.Classes++
		case *OpPredicate:
			spec.Filters++
		}
	}
	return spec
}

// Specificity orders two selectors the way cascading stylesheets do:
// layer count first, then class count, then filter count.
type Specificity struct {
	Layers, Classes, Filters, Order int
}

// Less reports whether s sorts before o (lower specificity, applied
// first so later, more specific declarations win).
func (s Specificity) Less(o Specificity) bool {
	if s.Layers != o.Layers {
		return s.Layers < o.Layers
	}
	if s.Classes != o.Classes {
		return s.Classes < o.Classes
	}
	if s.Filters != o.Filters {
		return s.Filters < o.Filters
	}
	return s.Order < o.Order
}

// PropertyDeclaration binds a field name to an expression, tagged with its
// source order so the cascade can break specificity ties deterministically.
type PropertyDeclaration struct {
	Field string
	Expr  Expression
	Order int
}

// BlockElement is either a PropertyDeclaration or a nested RuleSet (CartoCSS
// allows rule sets to nest, e.g. `#roads { [zoom>=10] { ... } }`).
type BlockElement struct {
	Property *PropertyDeclaration
	RuleSet  *RuleSet
}

// Block is the brace-delimited body of a RuleSet.
type Block struct {
	Elements []BlockElement
}

// RuleSet associates one or more alternative Selectors with a Block of
// declarations and/or nested rule sets.
type RuleSet struct {
	Selectors []Selector
	Block     Block
}

// VariableDeclaration binds `@name` to an expression at the top level of a
// stylesheet.
type VariableDeclaration struct {
	Variable string
	Expr     Expression
}

// StyleSheetElement is either a top-level VariableDeclaration or RuleSet.
type StyleSheetElement struct {
	Variable *VariableDeclaration
	RuleSet  *RuleSet
}

// StyleSheet is a parsed CartoCSS document: an ordered list of variable
// declarations and rule sets.
type StyleSheet struct {
	Elements []StyleSheetElement
}
