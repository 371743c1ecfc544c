package location

import (
	"testing"

	"github.com/eyeson-app/eyeson/internal/geo"
)

func TestManagerStartsUnknown(t *testing.T) {
	m := NewManager()
	if _, ok := m.Current(); ok {
		t.Error("expected no location before Set")
	}
}

func TestManagerSetAndCurrent(t *testing.T) {
	m := NewManager()
	m.Set(geo.Point{Latitude: 32.0, Longitude: 34.0})

	p, ok := m.Current()
	if !ok {
		t.Fatal("expected location after Set")
	}
	if p.Latitude != 32.0 || p.Longitude != 34.0 {
		t.Errorf("got %+v", p)
	}
}

func TestManagerClear(t *testing.T) {
	m := NewManager()
	m.Set(geo.Point{Latitude: 32.0, Longitude: 34.0})
	m.Clear()

	if _, ok := m.Current(); ok {
		t.Error("expected no location after Clear")
	}
}
