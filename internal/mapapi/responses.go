package mapapi

import (
	geojson "github.com/paulmach/go.geojson"
)

// ToFeatureCollection renders sites as a GeoJSON FeatureCollection. Geometry
// is always a point; fuzzy areas carry their radius as a property and are
// drawn client-side as a disc around the point.
func ToFeatureCollection(sites []Site) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, site := range sites {
		f := geojson.NewPointFeature([]float64{
			site.Position.Lng.Degrees(),
			site.Position.Lat.Degrees(),
		})
		f.ID = site.ID.String()
		f.SetProperty("representation", string(site.Representation))
		f.SetProperty("sensitivity_code", string(site.SensitivityCode))
		f.SetProperty("coordinates_exact", site.ExactCoordinates)
		if site.Name != "" {
			f.SetProperty("name", site.Name)
		}
		if site.Category != "" {
			f.SetProperty("category", site.Category)
		}
		if site.RadiusMeters > 0 {
			f.SetProperty("radius_m", site.RadiusMeters)
		}
		fc.AddFeature(f)
	}
	return fc
}
