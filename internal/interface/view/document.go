package view

import (
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"
)

// Element ids of the dashboard pages
const (
	ElementMajorDelaysTable    = "majorDelaysTable"
	ElementFlightStatusChart   = "flightStatusChart"
	ElementTimeTable           = "timeTable"
	ElementPassengersContainer = "passengersContainer"
	ElementFlightMap           = "flightMap"
	ElementProgressFill        = "progressFill"
	ElementProgressText        = "progressText"
	ElementLoadingOverlay      = "loadingOverlay"
	ElementRefreshDataButton   = "refreshDataButton"
	ElementFlightSearch        = "flightSearch"
	ElementSortDelay           = "sortDelay"
)

// ErrElementNotFound is returned for an id the document does not own
var ErrElementNotFound = errors.New("element not found")

var fragmentElements = []string{
	ElementMajorDelaysTable,
	ElementFlightStatusChart,
	ElementTimeTable,
	ElementPassengersContainer,
	ElementFlightMap,
}

var controlElements = []string{
	ElementRefreshDataButton,
	ElementFlightSearch,
	ElementSortDelay,
}

// Fragment is the inner HTML of one element
type Fragment struct {
	ID        string        `json:"id"`
	HTML      template.HTML `json:"html"`
	Version   uint64        `json:"version"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ProgressState is the fill and label of the progress bar
type ProgressState struct {
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
}

// DocumentState is what the browser polls to mirror the document
type DocumentState struct {
	Progress       ProgressState     `json:"progress"`
	OverlayVisible bool              `json:"overlayVisible"`
	Disabled       map[string]bool   `json:"disabled"`
	Versions       map[string]uint64 `json:"versions"`
	Version        uint64            `json:"version"`
}

// Document is the server-side page surface shared by every browser. Each
// fragment is replaced wholesale, never patched.
type Document struct {
	mu        sync.RWMutex
	fragments map[string]*Fragment
	disabled  map[string]bool
	progress  ProgressState
	overlay   bool
	version   uint64
}

// NewDocument creates a document with empty fragments and enabled controls
func NewDocument() *Document {
	d := &Document{
		fragments: make(map[string]*Fragment, len(fragmentElements)),
		disabled:  make(map[string]bool, len(controlElements)),
	}
	for _, id := range fragmentElements {
		d.fragments[id] = &Fragment{ID: id}
	}
	for _, id := range controlElements {
		d.disabled[id] = false
	}
	return d
}

// Replace swaps the content of element id
func (d *Document) Replace(id string, html template.HTML) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.fragments[id]
	if !ok {
		return fmt.Errorf("replace %q: %w", id, ErrElementNotFound)
	}
	d.version++
	f.HTML = html
	f.Version = d.version
	f.UpdatedAt = time.Now()
	return nil
}

// Fragment returns a copy of element id
func (d *Document) Fragment(id string) (Fragment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	f, ok := d.fragments[id]
	if !ok {
		return Fragment{}, fmt.Errorf("fragment %q: %w", id, ErrElementNotFound)
	}
	return *f, nil
}

// SetProgress updates progressFill and progressText
func (d *Document) SetProgress(percent float64, label string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.progress = ProgressState{Percent: percent, Label: label}
	d.version++
}

// ShowOverlay makes loadingOverlay visible
func (d *Document) ShowOverlay() {
	d.setOverlay(true)
}

// HideOverlay hides loadingOverlay
func (d *Document) HideOverlay() {
	d.setOverlay(false)
}

func (d *Document) setOverlay(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.overlay = visible
	d.version++
}

// Control returns the control element id
func (d *Document) Control(id string) (*Control, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.disabled[id]; !ok {
		return nil, fmt.Errorf("control %q: %w", id, ErrElementNotFound)
	}
	return &Control{doc: d, id: id}, nil
}

// Snapshot returns the current state of the document
func (d *Document) Snapshot() DocumentState {
	d.mu.RLock()
	defer d.mu.RUnlock()

	state := DocumentState{
		Progress:       d.progress,
		OverlayVisible: d.overlay,
		Disabled:       make(map[string]bool, len(d.disabled)),
		Versions:       make(map[string]uint64, len(d.fragments)),
		Version:        d.version,
	}
	for id, disabled := range d.disabled {
		state.Disabled[id] = disabled
	}
	for id, f := range d.fragments {
		state.Versions[id] = f.Version
	}
	return state
}

// Control is a button or input whose disabled flag lives in the document
type Control struct {
	doc *Document
	id  string
}

// ID is the element id
func (c *Control) ID() string {
	return c.id
}

// TryDisable disables the control and reports false if it already was
func (c *Control) TryDisable() bool {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	if c.doc.disabled[c.id] {
		return false
	}
	c.doc.disabled[c.id] = true
	c.doc.version++
	return true
}

// Enable re-enables the control
func (c *Control) Enable() {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	c.doc.disabled[c.id] = false
	c.doc.version++
}

// Disabled reports the control's current state
func (c *Control) Disabled() bool {
	c.doc.mu.RLock()
	defer c.doc.mu.RUnlock()
	return c.doc.disabled[c.id]
}
