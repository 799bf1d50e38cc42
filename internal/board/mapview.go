package board

import (
	"context"
	"log/slog"

	"traveler/internal/services/brainstorm"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MapWidget is the thin imperative surface of the embedded map library.
// The view owns marker lifecycle through it and nothing else.
type MapWidget interface {
	AddMarker(id string, lat, lng float64, onClick func())
	RemoveMarker(id string)
	FlyTo(lat, lng float64, zoom int)
}

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// FlyToZoom is the zoom level used when centering on a selected item.
const FlyToZoom = 14

type markerState struct {
	lat float64
	lng float64
}

// MapView mirrors the geo-anchored subset of a trip's items onto a map.
// It is a pure consumer of store snapshots: Sync diffs the current item
// set against the markers it manages and issues the minimal add/remove
// calls. Items without coordinates simply never appear.
type MapView struct {
	widget   MapWidget
	geocoder Geocoder
	log      *slog.Logger

	// OpenItem is invoked when a marker is clicked, with the item id.
	// Read-only viewers leave it nil.
	OpenItem func(itemID bson.ObjectID)

	markers map[bson.ObjectID]markerState
}

// NewMapView creates a map view over the given widget. geocoder may be
// nil when reverse lookup is unavailable.
func NewMapView(widget MapWidget, geocoder Geocoder, log *slog.Logger) *MapView {
	return &MapView{
		widget:   widget,
		geocoder: geocoder,
		log:      log,
		markers:  make(map[bson.ObjectID]markerState),
	}
}

// Sync reconciles markers with an item snapshot. Markers are added for
// newly geo-anchored items, removed for deleted or de-anchored ones, and
// re-added when an item's coordinates changed.
func (m *MapView) Sync(items []*brainstorm.Item) {
	seen := make(map[bson.ObjectID]struct{}, len(items))

	for _, it := range items {
		if !it.GeoAnchored() {
			continue
		}
		seen[it.ID] = struct{}{}

		want := markerState{lat: *it.Latitude, lng: *it.Longitude}
		have, exists := m.markers[it.ID]
		if exists && have == want {
			continue
		}
		if exists {
			m.widget.RemoveMarker(it.ID.Hex())
		}
		m.markers[it.ID] = want

		id := it.ID
		m.widget.AddMarker(id.Hex(), want.lat, want.lng, func() {
			if m.OpenItem != nil {
				m.OpenItem(id)
			}
		})
	}

	for id := range m.markers {
		if _, ok := seen[id]; !ok {
			m.widget.RemoveMarker(id.Hex())
			delete(m.markers, id)
		}
	}
}

// Focus centers the map on an item's coordinates, if it has any.
func (m *MapView) Focus(item *brainstorm.Item) {
	if item == nil || !item.GeoAnchored() {
		return
	}
	m.widget.FlyTo(*item.Latitude, *item.Longitude, FlyToZoom)
}

// ProposeAt builds a place-item draft for a map click. The location name
// comes from a best-effort reverse geocode: a lookup failure leaves the
// name empty and never blocks the draft.
func (m *MapView) ProposeAt(ctx context.Context, lat, lng float64) brainstorm.CreateItemRequest {
	req := brainstorm.CreateItemRequest{
		Type:      brainstorm.ItemTypePlace,
		Latitude:  &lat,
		Longitude: &lng,
	}

	if m.geocoder != nil {
		name, err := m.geocoder.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			m.log.Warn("reverse geocode failed", "error", err, "lat", lat, "lng", lng)
		} else {
			req.LocationName = name
		}
	}
	return req
}

// MarkerCount reports how many markers the view currently manages.
func (m *MapView) MarkerCount() int {
	return len(m.markers)
}
