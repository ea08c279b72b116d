package cartocss

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
)

func memoryOpener(files map[string]string) FileOpener {
	return func(path string) (io.ReadCloser, error) {
		data, ok := files[path]
		if !ok {
			return nil, &LoaderError{Path: path, Err: io.ErrUnexpectedEOF}
		}
		return io.NopCloser(bytes.NewReader([]byte(data))), nil
	}
}

func TestLoadMapBasic(t *testing.T) {
	files := map[string]string{
		"style.mss": `
			Map { background-color: #ffffff; }
			#roads { line-width: 2; line-color: #ff0000; }
		`,
	}
	desc := MapDescriptor{
		StyleFiles: []string{"style.mss"},
		Layers:     []string{"roads"},
	}
	m, err := LoadMap(desc, memoryOpener(files))
	if err != nil {
		t.Fatalf("LoadMap error: %v", err)
	}
	if m.Background.R != 1 || m.Background.G != 1 || m.Background.B != 1 {
		t.Errorf("unexpected background: %+v", m.Background)
	}
	if len(m.Layers["roads"]) == 0 {
		t.Errorf("expected roads layer to have compiled attachments")
	}
}

func TestLoadMapNutiParameterDefault(t *testing.T) {
	files := map[string]string{
		"style.mss": `#roads { line-width: @width; }`,
	}
	desc := MapDescriptor{
		StyleFiles: []string{"style.mss"},
		Layers:     []string{"roads"},
		NutiParameters: []NutiParameter{
			{Name: "width", RawDefault: json.RawMessage(`3`)},
		},
	}
	m, err := LoadMap(desc, memoryOpener(files))
	if err != nil {
		t.Fatalf("LoadMap error: %v", err)
	}
	found := false
	for _, a := range m.Layers["roads"] {
		for _, ps := range a.PropertySets {
			if prop, ok := ps.Properties["line-width"]; ok {
				r := prop.Expr.Evaluate(nil)
				if r.IsValue && r.Value.Int() == 3 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Errorf("expected nutiparameter default 3 to resolve for line-width")
	}
}

func TestLoadMapNutiParameterEnumFallsBackToDefault(t *testing.T) {
	files := map[string]string{
		"style.mss": `#roads { line-color: @theme; }`,
	}
	desc := MapDescriptor{
		StyleFiles: []string{"style.mss"},
		Layers:     []string{"roads"},
		NutiParameters: []NutiParameter{
			{
				Name: "theme",
				Values: map[string]json.RawMessage{
					"default": json.RawMessage(`"#000000"`),
					"night":   json.RawMessage(`"#111111"`),
				},
				Value: "nonexistent",
			},
		},
	}
	m, err := LoadMap(desc, memoryOpener(files))
	if err != nil {
		t.Fatalf("LoadMap error: %v", err)
	}
	_ = m
}

func TestLoadMapMissingFileReturnsLoaderError(t *testing.T) {
	desc := MapDescriptor{StyleFiles: []string{"missing.mss"}}
	_, err := LoadMap(desc, memoryOpener(map[string]string{}))
	if err == nil {
		t.Fatal("expected LoaderError for missing file")
	}
	if _, ok := err.(*LoaderError); !ok {
		t.Errorf("expected *LoaderError, got %T", err)
	}
}
