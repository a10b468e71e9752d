package alarms

import (
	domain "github.com/oshokin/olt-alarms/internal/domain/alarm"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
)

// Normalize maps a decoded status to the alarm transition it requests.
//
//	on    -> Raise
//	off   -> Clear
//	other -> NoChange
func Normalize(status indication.Status) domain.Decision {
	switch status {
	case indication.StatusOn:
		return domain.Raise
	case indication.StatusOff:
		return domain.Clear
	default:
		return domain.NoChange
	}
}
