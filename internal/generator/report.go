package generator

import (
	"html/template"
	"time"

	"github.com/Zachdehooge/pothole-dashboard/internal/aggregator"
)

// Entry is a ranked street or intersection ready for display.
type Entry struct {
	Name  string
	Count int
}

// Summary is the data behind the stats page.
type Summary struct {
	Total         int
	Streets       []Entry
	Intersections []Entry
	GeneratedAt   time.Time
}

// NewSummary applies DisplayName to each ranked key.
func NewSummary(total int, res aggregator.Result, now time.Time) Summary {
	return Summary{
		Total:         total,
		Streets:       displayEntries(res.Streets),
		Intersections: displayEntries(res.Intersections),
		GeneratedAt:   now,
	}
}

func displayEntries(ranked []aggregator.RankedEntry) []Entry {
	entries := make([]Entry, len(ranked))
	for i, e := range ranked {
		entries[i] = Entry{Name: DisplayName(e.Name), Count: e.Count}
	}
	return entries
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
   <meta charset="UTF-8"/>
   <title>Pothole Summary</title>
   <style>
      body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; padding: 20px; color: #333; }
      .total-box {
         text-align: center;
         background-color: #0e6394;
         color: white;
         padding: 20px;
         border-radius: 8px;
         margin-bottom: 25px;
      }
      .total-number { font-size: 3em; font-weight: bold; margin: 0; line-height: 1; }
      .total-label { font-size: 1em; text-transform: uppercase; letter-spacing: 1px; margin-top: 5px; opacity: 0.9; }
      h2 {
         border-bottom: 2px solid #0e6394;
         padding-bottom: 10px;
         color: #0e6394;
         font-size: 1.2em;
         margin-top: 0;
      }
      ul { list-style-type: none; padding: 0; }
      li {
         background: #f9f9f9;
         margin: 5px 0;
         padding: 10px;
         border-left: 5px solid #0e6394;
         display: flex;
         justify-content: space-between;
         font-size: 0.9em;
      }
      .count { font-weight: bold; color: #555; }
      .footer { margin-top: 20px; font-size: 0.8em; color: #777; text-align: center; }
   </style>
</head>
<body>
   <div class="total-box">
      <div class="total-number">{{ .Total }}</div>
      <div class="total-label">Active Potholes</div>
   </div>

   <h2>Streets with Most Potholes</h2>
   <ul>
   {{- range .Streets }}
      <li><span>{{ .Name }}</span> <span class="count">{{ .Count }}</span></li>
   {{- end }}
   </ul>
   {{- if .Intersections }}

   <h2>Top Intersections</h2>
   <ul>
   {{- range .Intersections }}
      <li><span>{{ .Name }}</span> <span class="count">{{ .Count }}</span></li>
   {{- end }}
   </ul>
   {{- end }}

   <div class="footer">
      Data updated: {{ .GeneratedAt.Format "2006-01-02" }}
   </div>
</body>
</html>
`))

// WriteReport renders the summary page to outputPath.
func WriteReport(outputPath string, s Summary) error {
	return render(reportTemplate, s, outputPath)
}
