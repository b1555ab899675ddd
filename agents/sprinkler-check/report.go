package sprinklercheck

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"sprinkler-agent/internal/models"
)

const reportTemplateText = `Overnight Precipitation Report
{{.Rule}}

Time Period: Last {{.HoursToCheck}} hours
Location: {{num .Latitude}}, {{num .Longitude}}
Weather Station: {{.StationID}}

PRECIPITATION TOTAL:
  {{printf "%.2f" .Precipitation.TotalInches}} inches ({{printf "%.2f" .Precipitation.TotalMM}} mm)

RUN SPRINKLER TODAY?
  {{.Recommendation.Marker}} {{.Recommendation.Label}}

BAROMETRIC PRESSURE (24-hour change):
{{- if .PressureAvailable}}
  Current: {{printf "%.1f" .CurrentHPa}} hPa
  24h ago: {{printf "%.1f" .PreviousHPa}} hPa
  Change: {{printf "%+.1f" .ChangeHPa}} hPa ({{.Significance}} - {{.Trend}})
  Migraines are commonly triggered with pressures <1007 hPa or changes >{{num .PressureThreshold}} hPa.
{{- else}}
  Data unavailable
{{- end}}

FORECAST:
{{- with .Forecast}}
{{upper .Name}}:
  Temperature: {{.Temperature}}°{{.TemperatureUnit}}
  Wind: {{.WindSpeed}} {{.WindDirection}}
  Conditions: {{.ShortForecast}}

  {{.DetailedForecast}}
{{- else}}
  Forecast unavailable
{{- end}}

LAST 7 DAYS (Daily Totals):
{{- range .Daily}}
  {{.}}
{{- else}}
  No data available
{{- end}}
{{- if .Outlook}}

OUTLOOK:
  {{.Outlook}}
{{- end}}

Details:
  - Threshold: {{num .Threshold}} inches
  - Hours of precipitation: {{.Precipitation.ObservationCount}}
  - Latest observation: {{.LatestObservation}}

{{.Rule}}
Generated at: {{.GeneratedAtText}}
`

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"num":   formatNumber,
}).Parse(reportTemplateText))

type reportView struct {
	*models.SprinklerReport

	Rule              string
	PressureAvailable bool
	CurrentHPa        float64
	PreviousHPa       float64
	ChangeHPa         float64
	Significance      string
	Trend             string
	Daily             []string
	LatestObservation string
	GeneratedAtText   string
}

// RenderReport formats the sprinkler report as plain text
func RenderReport(report *models.SprinklerReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report cannot be nil")
	}

	loc := report.Location
	if loc == nil {
		loc = time.Local
	}

	r := *report
	view := reportView{
		SprinklerReport:   &r,
		Rule:              strings.Repeat("=", 50),
		LatestObservation: "n/a",
		GeneratedAtText:   report.GeneratedAt.In(loc).Format(time.DateTime),
	}
	if view.Precipitation == nil {
		view.Precipitation = &models.PrecipitationSummary{}
	}

	if p := report.Pressure; p.Available() && p.PreviousHPa != nil {
		view.PressureAvailable = true
		view.CurrentHPa = *p.CurrentHPa
		view.PreviousHPa = *p.PreviousHPa
		view.ChangeHPa = *p.ChangeHPa
		view.Trend = p.Trend(report.PressureThreshold)
		view.Significance = "normal"
		if p.IsSignificant(report.PressureThreshold) {
			view.Significance = "SIGNIFICANT"
		}
	}

	for _, day := range view.Precipitation.DailyTotals {
		view.Daily = append(view.Daily, fmt.Sprintf("%s: %.2f inches", day.Date.Format("2006-01-02 (Mon)"), day.Inches))
	}

	if latest := view.Precipitation.LatestObservation; latest != nil {
		view.LatestObservation = latest.In(loc).Format("2006-01-02 15:04:05 MST")
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// RenderError formats the body of the failure notification
func RenderError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
