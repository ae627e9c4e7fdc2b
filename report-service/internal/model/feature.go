package model

import geojson "github.com/paulmach/go.geojson"

// Feature renders the report as a GeoJSON Feature for map clients. Reports
// without both coordinates get a null geometry.
func (r *Report) Feature() *geojson.Feature {
	var f *geojson.Feature
	if r.Lat != nil && r.Lng != nil {
		f = geojson.NewPointFeature([]float64{*r.Lng, *r.Lat})
	} else {
		f = geojson.NewFeature(nil)
	}

	f.ID = r.ReportID
	f.SetProperty("timestamp", r.Timestamp)
	f.SetProperty("status", string(r.Status))
	f.SetProperty("city", r.City)
	f.SetProperty("area", r.Area)
	f.SetProperty("description", r.Description)
	f.SetProperty("wasteType", r.WasteType)
	f.SetProperty("urgency", r.Urgency)
	f.SetProperty("photoKey", r.PhotoKey)
	f.SetProperty("source", r.Source)
	return f
}
