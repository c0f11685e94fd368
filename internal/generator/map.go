package generator

import (
	"html/template"
	"strings"

	"github.com/Zachdehooge/pothole-dashboard/internal/fetcher"
)

const (
	openStatus   = "Open"
	notAvailable = "N/A"

	heatRadius     = 25
	heatBlur       = 25
	heatMinOpacity = 0.4
)

// Point is one marker on the map.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Color string  `json:"color"`
	// Popup is pre-escaped HTML.
	Popup string `json:"popup"`
}

// MapData is everything the map page needs.
type MapData struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
	Points    []Point
}

// NewPoints converts records to markers, dropping records whose coordinates
// do not parse.
func NewPoints(records []fetcher.Record) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		lat, lon, ok := r.Coordinates()
		if !ok {
			continue
		}

		color := "green"
		if r.Status == openStatus {
			color = "red"
		}

		address := notAvailable
		if a := r.Address(); a != nil {
			address = *a
		}

		points = append(points, Point{
			Lat:   lat,
			Lon:   lon,
			Color: color,
			Popup: popup(r.SubCategory, r.Status, r.CreatedAt, address),
		})
	}
	return points
}

func popup(subCategory, status, createdAt, address string) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			value = notAvailable
		}
		b.WriteString("<b>")
		b.WriteString(label)
		b.WriteString(":</b> ")
		b.WriteString(template.HTMLEscapeString(value))
		b.WriteString("<br>")
	}
	line("Type", subCategory)
	line("Status", status)
	line("Date", createdAt)
	line("Address", address)
	return strings.TrimSuffix(b.String(), "<br>")
}

var mapTemplate = template.Must(template.New("map").Funcs(template.FuncMap{
	"toJSON": toJSON,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
   <meta charset="UTF-8"/>
   <meta name="viewport" content="width=device-width, initial-scale=1.0"/>
   <title>Open Potholes</title>
   <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
   <link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css" />
   <link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css" />
   <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
   <script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
   <script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
   <style>
      html, body { height: 100%; margin: 0; }
      #map { height: 100%; width: 100%; }
   </style>
</head>
<body>
   <div id="map"></div>
   <script>
      const points = {{ toJSON .Points }};
      const map = L.map('map').setView([{{ .CenterLat }}, {{ .CenterLon }}], {{ .Zoom }});
      L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
         maxZoom: 19,
         attribution: '&copy; OpenStreetMap contributors'
      }).addTo(map);

      const cluster = L.markerClusterGroup();
      points.forEach(function (p) {
         L.circleMarker([p.lat, p.lon], {
            radius: 8,
            color: p.color,
            fillColor: p.color,
            fillOpacity: 0.8
         }).bindPopup(p.popup, { maxWidth: 300 }).addTo(cluster);
      });
      map.addLayer(cluster);

      L.heatLayer(points.map(function (p) { return [p.lat, p.lon]; }), {
         radius: {{ .HeatRadius }},
         blur: {{ .HeatBlur }},
         minOpacity: {{ .HeatMinOpacity }}
      }).addTo(map);
   </script>
</body>
</html>
`))

// WriteMap renders the marker and heat map page to outputPath.
func WriteMap(outputPath string, data MapData) error {
	points := data.Points
	if points == nil {
		points = []Point{}
	}

	view := struct {
		MapData
		Points         []Point
		HeatRadius     int
		HeatBlur       int
		HeatMinOpacity float64
	}{
		MapData:        data,
		Points:         points,
		HeatRadius:     heatRadius,
		HeatBlur:       heatBlur,
		HeatMinOpacity: heatMinOpacity,
	}

	return render(mapTemplate, view, outputPath)
}
