// Command cartoc compiles a CartoCSS stylesheet (or project file) for one
// layer and prints the resulting cascade: the ordered PropertySets, their
// filters and resolved field expressions, the way a build step would
// inspect what a style actually resolves to before wiring it into a
// renderer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/cartogl/carto/cartocss"
)

func main() {
	var (
		project    = flag.String("project", "", "path to a JSON map descriptor (mutually exclusive with -style)")
		style      = flag.String("style", "", "path to a single .mss/.css stylesheet file")
		layer      = flag.String("layer", "", "layer name to compile")
		ignore     = flag.Bool("ignore-layer-predicates", false, "compile as a Torque-style layer (§4.14), ignoring #layer selector fragments")
		locales    = flag.String("locales", "", "comma-separated BCP-47 preference order for name-field localization, e.g. \"de,en\"")
		nameFields = flag.String("name-fields", "", "comma-separated name:<bcp47> fields available on the layer's vector tile schema")
	)
	flag.Parse()

	if *layer == "" {
		log.Fatal("cartoc: -layer is required")
	}

	var attachments []cartocss.LayerAttachment
	var background cartocss.Color

	switch {
	case *project != "":
		m, err := loadProject(*project)
		if err != nil {
			log.Fatalf("cartoc: %v", err)
		}
		attachments = m.Layers[*layer]
		background = m.Background
	case *style != "":
		sheet, err := parseStylesheet(*style)
		if err != nil {
			log.Fatalf("cartoc: %v", err)
		}
		compiler := &cartocss.Compiler{}
		attachments = compiler.CompileLayer(*layer, sheet, cartocss.CompileLayerOptions{
			IgnoreLayerPredicates: *ignore,
		})
	default:
		log.Fatal("cartoc: one of -project or -style is required")
	}

	printAttachments(os.Stdout, *layer, background, attachments)

	if *locales != "" {
		rules := cartocss.Translate(*layer, attachments)
		cartocss.LocalizeNameFields(rules, parseTags(*locales), splitNonEmpty(*nameFields))
		printTranslatedNames(os.Stdout, rules)
	}
}

// parseTags parses a comma-separated BCP-47 preference list, skipping any
// tag that fails to parse rather than failing the whole run: a typo in one
// locale shouldn't stop translation of the rest of the style.
func parseTags(s string) []language.Tag {
	var tags []language.Tag
	for _, part := range splitNonEmpty(s) {
		tag, err := language.Parse(part)
		if err != nil {
			log.Printf("cartoc: ignoring invalid locale %q: %v", part, err)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printTranslatedNames(w io.Writer, rules []cartocss.Rule) {
	for _, rule := range rules {
		for _, sym := range rule.Symbolizers {
			if sym.Type != "text" && sym.Type != "shield" {
				continue
			}
			if name, ok := sym.Properties["name"]; ok {
				fmt.Fprintf(w, "  %s-name resolved to %s\n", sym.Type, name.String())
			}
		}
	}
}

func loadProject(path string) (*cartocss.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var descriptor cartocss.MapDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("parse project file %q: %w", path, err)
	}
	base := filepath.Dir(path)
	return cartocss.LoadMap(descriptor, func(p string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(base, p))
	})
}

func parseStylesheet(path string) (*cartocss.StyleSheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sheet, err := cartocss.Parse(string(data), filepath.Base(path))
	if err != nil {
		if _, ok := err.(cartocss.ParseErrors); !ok {
			return nil, err
		}
		log.Printf("cartoc: %s parsed with errors: %v", path, err)
	}
	return sheet, nil
}

func printAttachments(w io.Writer, layer string, background cartocss.Color, attachments []cartocss.LayerAttachment) {
	fmt.Fprintf(w, "layer %q background=%s\n", layer, background.String())
	for _, att := range attachments {
		fmt.Fprintf(w, "  attachment %q (order %d)\n", att.Attachment, att.Order)
		for _, ps := range att.PropertySets {
			fmt.Fprintf(w, "    filters: %s\n", formatFilters(ps.Filters))
			for field, prop := range ps.Properties {
				fmt.Fprintf(w, "      %s = %s  [specificity %+v]\n", field, prop.Expr.String(), prop.Specificity)
			}
		}
	}
}

func formatFilters(filters []cartocss.Predicate) string {
	if len(filters) == 0 {
		return "(none)"
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " && ")
}
