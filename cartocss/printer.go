package cartocss

import (
	"fmt"
	"strings"
)

// Format renders a parsed StyleSheet back into canonical CartoCSS source.
// Re-parsing the output yields a structurally equal AST (modulo the
// source-order numbering, which is reassigned on every parse), which is the
// round-trip property the tests rely on.
func Format(sheet *StyleSheet) string {
	var sb strings.Builder
	for _, el := range sheet.Elements {
		switch {
		case el.Variable != nil:
			fmt.Fprintf(&sb, "@%s: %s;\n", el.Variable.Variable, FormatExpression(el.Variable.Expr))
		case el.RuleSet != nil:
			formatRuleSet(&sb, el.RuleSet, "")
		}
	}
	return sb.String()
}

func formatRuleSet(sb *strings.Builder, rs *RuleSet, indent string) {
	selectors := make([]string, len(rs.Selectors))
	for i, sel := range rs.Selectors {
		selectors[i] = formatSelector(sel)
	}
	sb.WriteString(indent)
	if len(selectors) > 0 {
		sb.WriteString(strings.Join(selectors, ", "))
		sb.WriteString(" ")
	}
	sb.WriteString("{\n")
	inner := indent + "  "
	for _, el := range rs.Block.Elements {
		switch {
		case el.Property != nil:
			fmt.Fprintf(sb, "%s%s: %s;\n", inner, el.Property.Field, FormatExpression(el.Property.Expr))
		case el.RuleSet != nil:
			formatRuleSet(sb, el.RuleSet, inner)
		}
	}
	sb.WriteString(indent)
	sb.WriteString("}\n")
}

func formatSelector(sel Selector) string {
	var sb strings.Builder
	for _, pred := range sel.Predicates {
		sb.WriteString(formatPredicate(pred))
	}
	return sb.String()
}

func formatPredicate(p Predicate) string {
	switch pred := p.(type) {
	case MapPredicate, *MapPredicate:
		return "Map"
	case *LayerPredicate:
		return "#" + pred.LayerName
	case *ClassPredicate:
		return "." + pred.Class
	case *AttachmentPredicate:
		return "::" + pred.Attachment
	case *OpPredicate:
		name := pred.FieldOrVar
		if !pred.Field {
			name = "@" + name
		}
		return "[" + name + compareOpSymbols[pred.Op] + formatValue(pred.RefValue) + "]"
	default:
		return p.String()
	}
}

// FormatExpression renders an expression in re-parseable form: strings are
// quoted, colors become hex literals, lists become bracketed literals.
func FormatExpression(e Expression) string {
	switch expr := e.(type) {
	case *ConstExpr:
		return formatValue(expr.Value)
	case *FieldOrVarExpr:
		if expr.Field && strings.IndexFunc(expr.FieldOrVar, func(r rune) bool { return !isIdentPart(r) }) >= 0 {
			return `"` + expr.String() + `"`
		}
		return expr.String()
	case *ListExpr:
		parts := make([]string, len(expr.Exprs))
		for i, sub := range expr.Exprs {
			parts[i] = FormatExpression(sub)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case *UnaryExpr:
		if expr.Op == OpNot {
			return "!" + FormatExpression(expr.Expr)
		}
		return "-" + FormatExpression(expr.Expr)
	case *BinaryExpr:
		return "(" + FormatExpression(expr.Expr1) + " " + binaryOpSymbols[expr.Op] + " " + FormatExpression(expr.Expr2) + ")"
	case *CondExpr:
		return "(" + FormatExpression(expr.Cond) + " ? " + FormatExpression(expr.Expr1) + " : " + FormatExpression(expr.Expr2) + ")"
	case *FuncExpr:
		parts := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			parts[i] = FormatExpression(a)
		}
		return expr.Func + "(" + strings.Join(parts, ",") + ")"
	default:
		return e.String()
	}
}

func formatValue(v Value) string {
	switch v.Kind() {
	case KindString:
		return `"` + strings.ReplaceAll(v.Str(), `"`, `\"`) + `"`
	case KindColor:
		r, g, b, a := v.Color().RGBA8()
		if a == 255 {
			return fmt.Sprintf("#%02x%02x%02x", r, g, b)
		}
		return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
	case KindList:
		parts := make([]string, len(v.List()))
		for i, e := range v.List() {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return v.String()
	}
}
