package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/pkg/logger"
)

// ErrMapNotInitialized is returned when a marker is placed before Initialize
var ErrMapNotInitialized = errors.New("map not initialized")

// Default map view
const (
	DefaultMapLat  = 20.0
	DefaultMapLon  = 0.0
	DefaultMapZoom = 3
	FlightMapZoom  = 6
)

const popupTemplate = `<b>{{.IATA}}</b><br>Status: {{.Status}}<br>LIVE DATA`

const mapFragmentTemplate = `<div class="flight-map" data-lat="{{.Center.Lat}}" data-lon="{{.Center.Lon}}" data-zoom="{{.Zoom}}"
  {{- with .Marker}} data-marker-id="{{.ID}}" data-flight-id="{{.FlightID}}"{{end}}></div>`

// LatLon is a map position
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapMarker is the single flight marker on the map
type MapMarker struct {
	ID       uint64        `json:"id"`
	FlightID string        `json:"flightId"`
	IATA     string        `json:"iata"`
	Status   string        `json:"status"`
	Position LatLon        `json:"position"`
	Popup    template.HTML `json:"popup"`
}

// MapState is the view the browser's map widget mirrors
type MapState struct {
	Initialized bool       `json:"initialized"`
	Center      LatLon     `json:"center"`
	Zoom        int        `json:"zoom"`
	TileURL     string     `json:"tileUrl"`
	Attribution string     `json:"attribution"`
	Marker      *MapMarker `json:"marker,omitempty"`
}

// MapView owns the map widget and at most one flight marker
type MapView struct {
	doc         *Document
	tileURL     string
	attribution string
	logger      logger.Logger
	popup       *template.Template
	fragment    *template.Template

	mu         sync.Mutex
	state      MapState
	nextMarker uint64
	live       int
}

// NewMapView creates a map view using the given tile layer
func NewMapView(doc *Document, tileURL, attribution string, logger logger.Logger) *MapView {
	return &MapView{
		doc:         doc,
		tileURL:     tileURL,
		attribution: attribution,
		logger:      logger,
		popup:       template.Must(template.New("popup").Parse(popupTemplate)),
		fragment:    template.Must(template.New("map").Parse(mapFragmentTemplate)),
	}
}

// Initialize resets the map to the default view with the tile layer and no
// marker
func (v *MapView) Initialize() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state.Marker != nil {
		v.live--
	}
	v.state = MapState{
		Initialized: true,
		Center:      LatLon{Lat: DefaultMapLat, Lon: DefaultMapLon},
		Zoom:        DefaultMapZoom,
		TileURL:     v.tileURL,
		Attribution: v.attribution,
	}
	v.logger.Info("Map initialized", "lat", DefaultMapLat, "lon", DefaultMapLon, "zoom", DefaultMapZoom)

	return v.publishLocked()
}

// ShowFlight replaces the marker with one at the flight's live position and
// centres the map on it. A flight without live coordinates is logged and
// leaves the map untouched.
func (v *MapView) ShowFlight(f entity.FlightRecord) error {
	if !f.HasLiveCoordinates() {
		v.logger.Warn("No live data for flight", "flight", f.FlightIATA)
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.state.Initialized {
		return ErrMapNotInitialized
	}

	pos := LatLon{Lat: *f.LiveLatitude, Lon: *f.LiveLongitude}

	var popup bytes.Buffer
	if err := v.popup.Execute(&popup, popupData{IATA: f.FlightIATA, Status: f.FlightStatus}); err != nil {
		return fmt.Errorf("failed to render popup: %w", err)
	}

	if v.state.Marker != nil {
		v.state.Marker = nil
		v.live--
	}

	v.nextMarker++
	v.state.Marker = &MapMarker{
		ID:       v.nextMarker,
		FlightID: f.ID,
		IATA:     f.FlightIATA,
		Status:   f.FlightStatus,
		Position: pos,
		Popup:    template.HTML(popup.String()),
	}
	v.live++
	v.state.Center = pos
	v.state.Zoom = FlightMapZoom

	v.logger.Debug("Flight shown on map", "flight", f.FlightIATA, "lat", pos.Lat, "lon", pos.Lon)
	return v.publishLocked()
}

// State returns a copy of the map state
func (v *MapView) State() MapState {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := v.state
	if v.state.Marker != nil {
		marker := *v.state.Marker
		state.Marker = &marker
	}
	return state
}

// LiveMarkers is the number of markers on the map, zero or one
func (v *MapView) LiveMarkers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.live
}

func (v *MapView) publishLocked() error {
	var buf bytes.Buffer
	if err := v.fragment.Execute(&buf, v.state); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	return v.doc.Replace(ElementFlightMap, template.HTML(buf.String()))
}

type popupData struct {
	IATA   string
	Status string
}

