package generator_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zachdehooge/pothole-dashboard/internal/aggregator"
	"github.com/Zachdehooge/pothole-dashboard/internal/fetcher"
	"github.com/Zachdehooge/pothole-dashboard/internal/generator"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, body string) []fetcher.Record {
	t.Helper()
	var records []fetcher.Record
	require.NoError(t, json.Unmarshal([]byte(body), &records))
	return records
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "W Markham", generator.DisplayName("W MARKHAM"))
	require.Equal(t, "Main St & Broadway", generator.DisplayName("MAIN ST & BROADWAY"))
	require.Equal(t, "", generator.DisplayName(""))
}

func TestNewPoints(t *testing.T) {
	records := decodeRecords(t, `[
		{"ticket_status":"Open","issue_sub_category":"Pothole","ticket_created_date_time":"2025-01-02",
		 "street_address":"1 <b>MAIN</b> ST","latitude":"34.7","longitude":"-92.2"},
		{"ticket_status":"Closed","latitude":"34.8","longitude":"-92.3"},
		{"ticket_status":"Open","latitude":"","longitude":"-92.3"}
	]`)

	points := generator.NewPoints(records)
	require.Len(t, points, 2)

	require.Equal(t, "red", points[0].Color)
	require.InDelta(t, 34.7, points[0].Lat, 1e-9)
	require.Contains(t, points[0].Popup, "<b>Type:</b> Pothole")
	require.Contains(t, points[0].Popup, "1 &lt;b&gt;MAIN&lt;/b&gt; ST")

	require.Equal(t, "green", points[1].Color)
	require.Contains(t, points[1].Popup, "<b>Address:</b> N/A")
	require.Contains(t, points[1].Popup, "<b>Type:</b> N/A")
}

func TestWriteMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")
	err := generator.WriteMap(path, generator.MapData{
		CenterLat: 34.7465,
		CenterLon: -92.2896,
		Zoom:      12,
		Points: []generator.Point{
			{Lat: 34.75, Lon: -92.28, Color: "red", Popup: "<b>Type:</b> Pothole"},
			{Lat: 34.76, Lon: -92.29, Color: "green", Popup: "<b>Type:</b> Pothole"},
		},
	})
	require.NoError(t, err)

	page := readFile(t, path)
	require.Contains(t, page, "leaflet.markercluster")
	require.Contains(t, page, "leaflet-heat.js")
	require.Contains(t, page, "34.7465")
	require.Contains(t, page, "-92.2896")
	require.Contains(t, page, `"lat":34.75`)
	require.Contains(t, page, `"color":"green"`)
	require.Equal(t, 2, strings.Count(page, `"popup":`))
	// json.Marshal escapes markup so the payload cannot close the script tag
	require.Contains(t, page, `\u003cb\u003eType:`)
	require.NotContains(t, page, `"popup":"<b>`)
}

func TestWriteMapNoPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.html")
	require.NoError(t, generator.WriteMap(path, generator.MapData{Zoom: 12}))
	require.Contains(t, readFile(t, path), "const points = [];")
}

func TestWriteMapBadPath(t *testing.T) {
	err := generator.WriteMap(filepath.Join(t.TempDir(), "missing", "dir", "map.html"), generator.MapData{})
	require.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.html")
	summary := generator.NewSummary(7, aggregator.Result{
		Streets: []aggregator.RankedEntry{
			{Name: "W MARKHAM", Count: 3},
			{Name: "MAIN ST", Count: 1},
		},
		Intersections: []aggregator.RankedEntry{
			{Name: "MAIN ST & BROADWAY", Count: 2},
		},
	}, time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC))

	require.NoError(t, generator.WriteReport(path, summary))

	page := readFile(t, path)
	require.Contains(t, page, `<div class="total-number">7</div>`)
	require.Contains(t, page, "Streets with Most Potholes")
	require.Contains(t, page, `<li><span>W Markham</span> <span class="count">3</span></li>`)
	require.Contains(t, page, "Top Intersections")
	require.Contains(t, page, `<li><span>Main St &amp; Broadway</span> <span class="count">2</span></li>`)
	require.Contains(t, page, "Data updated: 2025-03-04")
	require.Less(t, strings.Index(page, "W Markham"), strings.Index(page, "Main St</span>"))
}

func TestWriteReportWithoutIntersections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.html")
	summary := generator.NewSummary(0, aggregator.Result{}, time.Now())

	require.NoError(t, generator.WriteReport(path, summary))

	page := readFile(t, path)
	require.Contains(t, page, `<div class="total-number">0</div>`)
	require.NotContains(t, page, "Top Intersections")
}
