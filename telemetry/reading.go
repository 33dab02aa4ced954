// Package telemetry defines the core data types of the sensor pipeline:
// the Reading value produced by sensors, the sensor Profile describing
// what a sensor measures, and the wire payload codec used across the
// transport boundary.
package telemetry

import "time"

// Reading is one immutable sensor measurement. Sequence is zero until
// assigned at the queue exit; after assignment it is strictly increasing
// per SourceID and never reused.
type Reading struct {
	// SourceID identifies the sensor (0, 1, 2, ...)
	SourceID int

	// Value is the measured quantity in the sensor's unit
	Value float64

	// GeneratedAt is the generation time in milliseconds since the Unix epoch
	GeneratedAt int64

	// Sequence is the per-source monotonic number assigned at queue exit
	Sequence uint64
}

// NewReading creates a reading stamped with the current time.
// The sequence is left unassigned.
func NewReading(sourceID int, value float64) Reading {
	return Reading{
		SourceID:    sourceID,
		Value:       value,
		GeneratedAt: time.Now().UnixMilli(),
	}
}

// GeneratedTime returns the generation timestamp as a time.Time.
func (r Reading) GeneratedTime() time.Time {
	return time.UnixMilli(r.GeneratedAt)
}
