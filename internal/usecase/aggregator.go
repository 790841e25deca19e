package usecase

import (
	"sort"
	"strings"

	"flight-dashboard/internal/domain/entity"
)

// TopDelayed returns the n flights with the greatest arrival delay, largest
// first. Equal delays keep their input order. The input is not modified.
func TopDelayed(flights []entity.FlightRecord, n int) []entity.FlightRecord {
	if n <= 0 {
		return []entity.FlightRecord{}
	}
	sorted := SortByDelay(flights)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SortByDelay returns a copy ordered by arrival delay, largest first, stable
func SortByDelay(flights []entity.FlightRecord) []entity.FlightRecord {
	sorted := make([]entity.FlightRecord, len(flights))
	copy(sorted, flights)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ArrivalDelay > sorted[j].ArrivalDelay
	})
	return sorted
}

// StatusDistribution puts every flight in exactly one bucket. The checks run
// in a fixed order: cancelled, diverted, delayed, on time. A diverted flight
// that also arrived late counts as diverted.
func StatusDistribution(flights []entity.FlightRecord) entity.StatusCounts {
	var counts entity.StatusCounts
	for _, f := range flights {
		switch {
		case f.FlightStatus == entity.StatusCancelled:
			counts.Cancelled++
		case f.FlightStatus == entity.StatusDiverted:
			counts.Diverted++
		case f.ArrivalDelay > 0:
			counts.Delayed++
		default:
			counts.OnTime++
		}
	}
	return counts
}

// DelaySeverity classifies a delay in minutes over half-open intervals:
// 0 on time, (0,15) minor, [15,60) moderate, 60 and above severe.
// Early arrivals count as on time.
func DelaySeverity(minutes float64) entity.DelaySeverity {
	switch {
	case minutes <= 0:
		return entity.SeverityOnTime
	case minutes < 15:
		return entity.SeverityMinor
	case minutes < 60:
		return entity.SeverityModerate
	default:
		return entity.SeveritySevere
	}
}

// FilterFlights keeps flights whose IATA code, departure or arrival airport
// contains term, ignoring case. An empty term keeps everything.
func FilterFlights(flights []entity.FlightRecord, term string) []entity.FlightRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	filtered := make([]entity.FlightRecord, 0, len(flights))
	for _, f := range flights {
		if term == "" ||
			strings.Contains(strings.ToLower(f.FlightIATA), term) ||
			strings.Contains(strings.ToLower(f.DepartureAirport), term) ||
			strings.Contains(strings.ToLower(f.ArrivalAirport), term) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
