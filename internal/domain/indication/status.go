package indication

// Status is a decoded status field. Upstream encodes it either as an
// integer (1/0) or as a string ("on"/"off"); decoding happens once, at the
// boundary, so the alarm logic only sees these three values.
type Status uint8

const (
	// StatusOther is any encoding that is neither on nor off, including a missing field.
	StatusOther Status = iota
	// StatusOn means the condition is reported active.
	StatusOn
	// StatusOff means the condition is reported inactive.
	StatusOff
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOn:
		return "on"
	case StatusOff:
		return "off"
	default:
		return "other"
	}
}

// StatusFromInt decodes an integer status.
func StatusFromInt(v int64) Status {
	switch v {
	case 1:
		return StatusOn
	case 0:
		return StatusOff
	default:
		return StatusOther
	}
}

// StatusFromString decodes a string status. Matching is exact.
func StatusFromString(v string) Status {
	switch v {
	case "on":
		return StatusOn
	case "off":
		return StatusOff
	default:
		return StatusOther
	}
}
