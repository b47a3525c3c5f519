package render

import (
	geojson "github.com/paulmach/go.geojson"
)

// FeatureCollection converts a snapshot to GeoJSON: one Point per marker and
// one LineString per drawn segment, plus the moving marker if present.
// Coordinates are [lon, lat].
func (s Snapshot) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range s.Markers {
		f := geojson.NewPointFeature([]float64{m.Position.Lon, m.Position.Lat})
		f.SetProperty("kind", "airport")
		f.SetProperty("code", m.Code)
		f.SetProperty("color", string(m.Color))
		f.SetProperty("diameter", m.DrawnDiameter())
		f.SetProperty("title", m.Popup.Title)
		f.SetProperty("flights", m.Popup.Flights)
		fc.AddFeature(f)
	}

	for _, r := range s.Routes {
		for _, seg := range r.Segments {
			line := make([][]float64, len(seg.Points))
			for i, p := range seg.Points {
				line[i] = []float64{p.Lon, p.Lat}
			}
			f := geojson.NewLineStringFeature(line)
			f.SetProperty("kind", "route_segment")
			f.SetProperty("route", r.Key)
			f.SetProperty("segment", seg.Index)
			f.SetProperty("color", string(seg.Color))
			f.SetProperty("weight", seg.Weight)
			if seg.OwnsPopup && r.Popup != nil {
				f.SetProperty("popup", r.Popup)
			}
			fc.AddFeature(f)
		}
	}

	if s.Moving != nil {
		f := geojson.NewPointFeature([]float64{s.Moving.Position.Lon, s.Moving.Position.Lat})
		f.SetProperty("kind", "aircraft")
		f.SetProperty("color", string(s.Moving.Color))
		fc.AddFeature(f)
	}
	return fc
}
