package entity

// StatusCounts is the four-bucket status distribution of a flight snapshot
type StatusCounts struct {
	OnTime    int `json:"onTime"`
	Delayed   int `json:"delayed"`
	Cancelled int `json:"cancelled"`
	Diverted  int `json:"diverted"`
}

// Total is the number of flights classified
func (c StatusCounts) Total() int {
	return c.OnTime + c.Delayed + c.Cancelled + c.Diverted
}

// DelaySeverity classifies an arrival delay
type DelaySeverity string

const (
	SeverityOnTime   DelaySeverity = "on-time"
	SeverityMinor    DelaySeverity = "minor"
	SeverityModerate DelaySeverity = "moderate"
	SeveritySevere   DelaySeverity = "severe"
)

// CSSClass is the class the schedule table puts on the delay cell
func (s DelaySeverity) CSSClass() string {
	switch s {
	case SeverityMinor:
		return "delay-minor"
	case SeverityModerate:
		return "delay-moderate"
	case SeveritySevere:
		return "delay-severe"
	default:
		return "delay-ontime"
	}
}
