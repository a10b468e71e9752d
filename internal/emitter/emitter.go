package emitter

import (
	"context"
	"fmt"
	"time"

	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
)

// Emitter receives the raise and clear requests decided by the alarm manager.
// Calls are fire-and-forget: implementations handle their own failures.
type Emitter interface {
	Raise(ctx context.Context, alarm *domain.Alarm)
	Clear(ctx context.Context, alarm *domain.Alarm)
}

// Source identifies the OLT every emitted alarm belongs to.
type Source struct {
	// DeviceID is the OLT device id.
	DeviceID string
	// LogicalDeviceID is the logical switch id built on top of the OLT.
	LogicalDeviceID string
	// SerialNumber is the OLT serial number.
	SerialNumber string
}

// Event is an emitted alarm stamped with its source and time.
type Event struct {
	// ID is stable for a (source, kind, interface, device) tuple, so a clear
	// carries the same id as the raise it ends.
	ID string
	// Source is the OLT that reported the alarm.
	Source Source
	// Alarm is a private copy of the emitted alarm.
	Alarm *domain.Alarm
	// Timestamp is when the alarm was emitted.
	Timestamp time.Time
}

// NewEvent stamps alarm with source and the current time.
func NewEvent(source Source, alarm *domain.Alarm) Event {
	return Event{
		ID:        eventID(source, alarm),
		Source:    source,
		Alarm:     alarm.Clone(),
		Timestamp: time.Now().UTC(),
	}
}

func eventID(source Source, alarm *domain.Alarm) string {
	device := alarm.Device.DeviceID
	if device == "" {
		device = "olt"
	}

	return fmt.Sprintf("%s.%s.%d.%s", source.DeviceID, alarm.Kind, alarm.InterfaceID, device)
}

// Multi forwards every call to each of its emitters in order.
type Multi struct {
	emitters []Emitter
}

// NewMulti builds a fan-out emitter, skipping nil entries.
func NewMulti(emitters ...Emitter) *Multi {
	m := &Multi{emitters: make([]Emitter, 0, len(emitters))}

	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}

	return m
}

// Raise implements Emitter.
func (m *Multi) Raise(ctx context.Context, alarm *domain.Alarm) {
	for _, e := range m.emitters {
		e.Raise(ctx, alarm)
	}
}

// Clear implements Emitter.
func (m *Multi) Clear(ctx context.Context, alarm *domain.Alarm) {
	for _, e := range m.emitters {
		e.Clear(ctx, alarm)
	}
}
