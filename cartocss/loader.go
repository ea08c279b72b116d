package cartocss

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MapDescriptor is the JSON project file CartoCSS maps are authored as: a
// background, the ordered list of CartoCSS source files to concatenate, the
// layers to compile rules for, and the Nutiparameters-style configurable
// variables a style exposes to its host application.
type MapDescriptor struct {
	Background      string                  `json:"background,omitempty"`
	StyleFiles      []string                `json:"styles"`
	Layers          []string                `json:"layers"`
	NutiParameters  []NutiParameter         `json:"nutiparameters,omitempty"`
}

// NutiParameter is one configurable stylesheet variable, optionally
// constrained to a fixed set of named values (an enum).
type NutiParameter struct {
	Name    string            `json:"name"`
	Default Value             `json:"-"`
	RawDefault json.RawMessage `json:"default,omitempty"`
	Values  map[string]json.RawMessage `json:"values,omitempty"`
	Value   string            `json:"value,omitempty"` // configured enum selection
}

// Map is the fully resolved result of LoadMap: the background color, and
// one LayerAttachment list per requested layer.
type Map struct {
	Background Color
	Layers     map[string][]LayerAttachment
}

// LoaderError wraps a failure reading or parsing one of a MapDescriptor's
// referenced files.
type LoaderError struct {
	Path string
	Err  error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("cartocss: load %q: %v", e.Path, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// FileOpener opens a file referenced by a MapDescriptor; tile/asset fetching
// is out of scope here, so LoadMap never touches the filesystem directly.
type FileOpener func(path string) (io.ReadCloser, error)

// LoadMap reads and concatenates a MapDescriptor's stylesheet files,
// resolves its nutiparameters into predefined variables, compiles every
// requested layer, and assembles the result. A per-parameter resolution
// failure (an enum referencing an unknown value) falls back to that
// parameter's "default" value and is logged, not returned, so the rest of
// the map still loads.
func LoadMap(descriptor MapDescriptor, open FileOpener) (*Map, error) {
	var source string
	for _, path := range descriptor.StyleFiles {
		rc, err := open(path)
		if err != nil {
			return nil, &LoaderError{Path: path, Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &LoaderError{Path: path, Err: err}
		}
		source += string(data) + "\n"
	}

	sheet, err := Parse(source, "map")
	if err != nil {
		return nil, &LoaderError{Path: strings.Join(descriptor.StyleFiles, ", "), Err: err}
	}

	predefined := resolveNutiParameters(descriptor.NutiParameters)

	compiler := &Compiler{Context: EvalContext{PredefinedVariables: predefined}}

	result := &Map{Layers: make(map[string][]LayerAttachment, len(descriptor.Layers))}
	mapProps := compiler.CompileMap(sheet)
	if bg, ok := mapProps["background-color"]; ok && bg.Kind() == KindColor {
		result.Background = bg.Color()
	}

	for _, layer := range descriptor.Layers {
		result.Layers[layer] = compiler.CompileLayer(layer, sheet, CompileLayerOptions{})
	}
	return result, nil
}

// resolveNutiParameters turns a MapDescriptor's parameter list into a
// predefined-variable map: plain parameters resolve to their raw default,
// enum parameters resolve to the chosen value's payload (falling back to
// "default" when unset or unknown).
func resolveNutiParameters(params []NutiParameter) map[string]Value {
	out := make(map[string]Value, len(params))
	for _, p := range params {
		if len(p.Values) == 0 {
			out[p.Name] = decodeJSONValue(p.RawDefault)
			continue
		}
		key := p.Value
		if key == "" {
			key = "default"
		}
		raw, ok := p.Values[key]
		if !ok {
			Logger().Warn("cartocss: nutiparameter enum value not found, using default", "parameter", p.Name, "value", key)
			raw, ok = p.Values["default"]
			if !ok {
				continue
			}
		}
		out[p.Name] = decodeJSONValue(raw)
	}
	return out
}

func decodeJSONValue(raw json.RawMessage) Value {
	if len(raw) == 0 {
		return Null
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Null
	}
	return anyToValue(v)
}

func anyToValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	case string:
		return Str(t)
	case []any:
		vals := make([]Value, len(t))
		for i, e := range t {
			vals[i] = anyToValue(e)
		}
		return List(vals)
	default:
		return Null
	}
}
