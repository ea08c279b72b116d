package vt

import "testing"

func solidStrokeSource(w, h int) []uint32 {
	data := make([]uint32, w*h)
	for i := range data {
		data[i] = 0xFFAABBCC
	}
	return data
}

// TestStrokeMapPackingStaysWithinHeightBound is the §8 "atlas containment"
// property applied to StrokeMap: every submitted row must land within
// [0, maxHeight), never overlapping a previous row.
func TestStrokeMapPackingStaysWithinHeightBound(t *testing.T) {
	const width, maxHeight = 32, 64
	m := NewStrokeMap(width, maxHeight)

	var rows []StrokeRow
	for i := 0; i < 20; i++ {
		id := m.Submit(8, 4, solidStrokeSource(8, 4), 2)
		if id == 0 {
			continue
		}
		row, ok := m.Row(id)
		if !ok {
			t.Fatalf("Row(%d) missing right after Submit", id)
		}
		if row.Y0 < 0 || row.Y1 > maxHeight || row.Y1 <= row.Y0 {
			t.Errorf("row %+v escapes atlas height bound %d", row, maxHeight)
		}
		for _, prev := range rows {
			overlap := row.Y0 < prev.Y1 && prev.Y0 < row.Y1
			if overlap {
				t.Errorf("row %+v overlaps previously packed row %+v", row, prev)
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		t.Fatal("expected at least one row to pack")
	}
}

func TestStrokeMapFullReturnsZero(t *testing.T) {
	m := NewStrokeMap(16, 10)
	var gotZero bool
	for i := 0; i < 10; i++ {
		id := m.Submit(4, 4, solidStrokeSource(4, 4), 1)
		if id == 0 {
			gotZero = true
			break
		}
	}
	if !gotZero {
		t.Error("expected Submit to eventually return 0 once the atlas height is exhausted")
	}
}

func TestStrokeMapWidthAccessor(t *testing.T) {
	m := NewStrokeMap(48, 128)
	if got := m.Width(); got != 48 {
		t.Errorf("Width() = %d, want 48", got)
	}
}

func TestStrokeMapRowUnknownIdNotFound(t *testing.T) {
	m := NewStrokeMap(16, 16)
	if _, ok := m.Row(StrokeId(999)); ok {
		t.Error("Row should report not-found for an id that was never submitted")
	}
}
