package domain

import "time"

// EventType names a change to the network
type EventType string

const (
	EventStationCreated EventType = "station_created"
	EventStationDeleted EventType = "station_deleted"
	EventLineCreated    EventType = "line_created"
	EventLineUpdated    EventType = "line_updated"
	EventLineDeleted    EventType = "line_deleted"
	EventSectionAdded   EventType = "section_added"
	EventStationRemoved EventType = "station_removed"
)

// NetworkEvent is broadcast after a mutation has been persisted. LineID is
// zero for station-only events.
type NetworkEvent struct {
	Type      EventType `json:"type"`
	LineID    int64     `json:"lineId,omitempty"`
	StationID int64     `json:"stationId,omitempty"`
	At        time.Time `json:"at"`
}
