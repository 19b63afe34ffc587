package ember

import "testing"

func TestGeoIndexRadius(t *testing.T) {
	idx := NewGeoIndex()
	// Two points near the Bay Area, roughly 13km apart (SF <-> Oakland),
	// and one far away point that should never match.
	sf := GeoPoint{Lon: -122.4194, Lat: 37.7749}
	oakland := GeoPoint{Lon: -122.2712, Lat: 37.8044}
	ny := GeoPoint{Lon: -74.0060, Lat: 40.7128}

	idx.Add(1, sf)
	idx.Add(2, oakland)
	idx.Add(3, ny)

	got := drainBitmap(t, NewBitmapIterator(idx.Radius(sf, 20, Kilometers)))
	want := []int{1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestGeoIndexRadiusTight(t *testing.T) {
	idx := NewGeoIndex()
	sf := GeoPoint{Lon: -122.4194, Lat: 37.7749}
	oakland := GeoPoint{Lon: -122.2712, Lat: 37.8044}
	idx.Add(1, sf)
	idx.Add(2, oakland)

	got := drainBitmap(t, NewBitmapIterator(idx.Radius(sf, 1, Kilometers)))
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestGeoIndexRemove(t *testing.T) {
	idx := NewGeoIndex()
	p := GeoPoint{Lon: 0, Lat: 0}
	idx.Add(1, p)
	idx.Remove(1)
	if _, ok := idx.Point(1); ok {
		t.Fatalf("expected point removed")
	}
}

func TestGeoIndexUnitConversion(t *testing.T) {
	idx := NewGeoIndex()
	center := GeoPoint{Lon: 0, Lat: 0}
	// Roughly 1 degree of longitude at the equator is ~111km.
	near := GeoPoint{Lon: 0.005, Lat: 0}
	idx.Add(1, near)

	gotMeters := drainBitmap(t, NewBitmapIterator(idx.Radius(center, 1000, Meters)))
	gotMiles := drainBitmap(t, NewBitmapIterator(idx.Radius(center, 1, Miles)))
	if len(gotMeters) != 1 || len(gotMiles) != 1 {
		t.Fatalf("expected match under both units, got meters=%v miles=%v", gotMeters, gotMiles)
	}
}
