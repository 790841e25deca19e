package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/usecase"
)

const tableTemplates = `
{{define "topDelays"}}<thead>
  <tr><th>Flight</th><th>From</th><th>To</th><th>Delay</th></tr>
</thead>
<tbody>
{{- range .}}
  <tr><td>{{.IATA}}</td><td>{{.From}}</td><td>{{.To}}</td><td>{{.Delay}}</td></tr>
{{- end}}
</tbody>{{end}}

{{define "schedule"}}<thead>
  <tr><th>Flight</th><th>From</th><th>To</th><th>Departure</th><th>Arrival</th><th>Delay</th><th>Status</th></tr>
</thead>
<tbody>
{{- range .}}
  <tr class="flight-row" data-flight-id="{{.ID}}" style="cursor: pointer">
    <td>{{.IATA}}</td><td>{{.From}}</td><td>{{.To}}</td>
    <td>{{.Departure}}</td><td>{{.Arrival}}</td>
    <td class="{{.DelayClass}}">{{.Delay}}</td>
    <td class="{{.StatusClass}}">{{.Status}}</td>
  </tr>
{{- end}}
</tbody>{{end}}

{{define "passengers"}}{{if not .}}<p>No passengers for this flight.</p>{{else}}<table>
  <thead>
    <tr><th>Name</th><th>Checked In</th></tr>
  </thead>
  <tbody>
  {{- range .}}
    <tr><td>{{.Name}}</td><td>{{.CheckedIn}}</td></tr>
  {{- end}}
  </tbody>
</table>{{end}}{{end}}
`

type topDelayRow struct {
	IATA  string
	From  string
	To    string
	Delay string
}

type scheduleRow struct {
	ID          string
	IATA        string
	From        string
	To          string
	Departure   string
	Arrival     string
	Delay       string
	DelayClass  string
	Status      string
	StatusClass string
}

type passengerRow struct {
	Name      string
	CheckedIn string
}

// TableRenderer renders the flight and passenger tables into the document
type TableRenderer struct {
	doc   *Document
	times *TimeFormatter
	tmpl  *template.Template
}

// NewTableRenderer creates a table renderer
func NewTableRenderer(doc *Document, times *TimeFormatter) *TableRenderer {
	return &TableRenderer{
		doc:   doc,
		times: times,
		tmpl:  template.Must(template.New("tables").Parse(tableTemplates)),
	}
}

// RenderTopDelays replaces majorDelaysTable
func (r *TableRenderer) RenderTopDelays(flights []entity.FlightRecord) error {
	rows := make([]topDelayRow, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, topDelayRow{
			IATA:  orNA(f.FlightIATA),
			From:  orNA(f.DepartureAirport),
			To:    orNA(f.ArrivalAirport),
			Delay: formatDelay(f.ArrivalDelay),
		})
	}
	return r.render(ElementMajorDelaysTable, "topDelays", rows)
}

// RenderSchedule replaces timeTable
func (r *TableRenderer) RenderSchedule(flights []entity.FlightRecord) error {
	rows := make([]scheduleRow, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, scheduleRow{
			ID:          f.ID,
			IATA:        orNA(f.FlightIATA),
			From:        orNA(f.DepartureAirport),
			To:          orNA(f.ArrivalAirport),
			Departure:   r.times.Format(f.DepartureTime, f.DepartureAirport),
			Arrival:     r.times.Format(f.ArrivalTime, f.ArrivalAirport),
			Delay:       formatDelay(f.ArrivalDelay),
			DelayClass:  usecase.DelaySeverity(f.ArrivalDelay).CSSClass(),
			Status:      f.FlightStatus,
			StatusClass: statusClass(f.InferredStatus()),
		})
	}
	return r.render(ElementTimeTable, "schedule", rows)
}

// RenderPassengers replaces passengersContainer
func (r *TableRenderer) RenderPassengers(passengers []entity.PassengerRecord) error {
	rows := make([]passengerRow, 0, len(passengers))
	for _, p := range passengers {
		checked := "No"
		if p.CheckedIn {
			checked = "Yes"
		}
		rows = append(rows, passengerRow{Name: p.FullName(), CheckedIn: checked})
	}
	return r.render(ElementPassengersContainer, "passengers", rows)
}

func (r *TableRenderer) render(id, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", id, err)
	}
	return r.doc.Replace(id, template.HTML(buf.String()))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatDelay(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64) + " min"
}

func statusClass(status string) string {
	return "status-" + strings.ReplaceAll(status, "_", "-")
}
