package indication

// Kind is the discriminant of an Indication.
type Kind int

// Indication kinds reported on the OLT control channel.
const (
	KindUnknown Kind = iota
	KindOltLos
	KindDyingGasp
	KindOnuAlarm
	KindOnuStartupFailure
	KindOnuSignalDegrade
	KindOnuDriftOfWindow
	KindOnuLossOfOmciChannel
	KindOnuSignalsFailure
	KindOnuTransmissionInterferenceWarning
	KindOnuActivationFailure
	KindOnuProcessingError
)

//nolint:gochecknoglobals // Static lookup table.
var kindNames = map[Kind]string{
	KindOltLos:                             "los_ind",
	KindDyingGasp:                          "dying_gasp_ind",
	KindOnuAlarm:                           "onu_alarm_ind",
	KindOnuStartupFailure:                  "onu_startup_fail_ind",
	KindOnuSignalDegrade:                   "onu_signal_degrade_ind",
	KindOnuDriftOfWindow:                   "onu_drift_of_window_ind",
	KindOnuLossOfOmciChannel:               "onu_loss_omci_ind",
	KindOnuSignalsFailure:                  "onu_signals_fail_ind",
	KindOnuTransmissionInterferenceWarning: "onu_tiwi_ind",
	KindOnuActivationFailure:               "onu_activation_fail_ind",
	KindOnuProcessingError:                 "onu_processing_error_ind",
}

// String returns the control-channel field name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseKind maps a control-channel field name back to its Kind.
// Unrecognized names yield KindUnknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}

	return KindUnknown
}

// Indication is one decoded fault or status report.
// Kind identifies which concrete type carries the payload.
type Indication interface {
	Kind() Kind
}

// OltLos reports loss of signal on an OLT interface.
type OltLos struct {
	IntfID uint32
	Status Status
}

// Kind implements Indication.
func (*OltLos) Kind() Kind { return KindOltLos }

// DyingGasp reports that an ONU lost power.
type DyingGasp struct {
	IntfID uint32
	OnuID  uint32
	Status Status
}

// Kind implements Indication.
func (*DyingGasp) Kind() Kind { return KindDyingGasp }

// OnuAlarm combines four independent ONU conditions in one report.
type OnuAlarm struct {
	IntfID             uint32
	OnuID              uint32
	LosStatus          Status
	LobStatus          Status
	LopcMissStatus     Status
	LopcMicErrorStatus Status
}

// Kind implements Indication.
func (*OnuAlarm) Kind() Kind { return KindOnuAlarm }

// OnuStartupFailure reports an ONU that failed to start.
type OnuStartupFailure struct {
	IntfID uint32
	OnuID  uint32
	Status Status
}

// Kind implements Indication.
func (*OnuStartupFailure) Kind() Kind { return KindOnuStartupFailure }

// OnuSignalDegrade reports a bit error rate above the degrade threshold.
type OnuSignalDegrade struct {
	IntfID              uint32
	OnuID               uint32
	Status              Status
	InverseBitErrorRate uint32
}

// Kind implements Indication.
func (*OnuSignalDegrade) Kind() Kind { return KindOnuSignalDegrade }

// OnuDriftOfWindow reports that an ONU transmission window drifted.
type OnuDriftOfWindow struct {
	IntfID uint32
	OnuID  uint32
	Status Status
	Drift  uint32
	NewEqd uint32
}

// Kind implements Indication.
func (*OnuDriftOfWindow) Kind() Kind { return KindOnuDriftOfWindow }

// OnuSignalsFailure reports a bit error rate above the failure threshold.
type OnuSignalsFailure struct {
	IntfID              uint32
	OnuID               uint32
	Status              Status
	InverseBitErrorRate uint32
}

// Kind implements Indication.
func (*OnuSignalsFailure) Kind() Kind { return KindOnuSignalsFailure }

// OnuActivationFailure reports an ONU activation failure. It carries no status.
type OnuActivationFailure struct {
	IntfID uint32
	OnuID  uint32
}

// Kind implements Indication.
func (*OnuActivationFailure) Kind() Kind { return KindOnuActivationFailure }

// OnuLossOfOmciChannel reports loss of the OMCI management channel.
type OnuLossOfOmciChannel struct {
	IntfID uint32
	OnuID  uint32
	Status Status
}

// Kind implements Indication.
func (*OnuLossOfOmciChannel) Kind() Kind { return KindOnuLossOfOmciChannel }

// OnuTransmissionInterferenceWarning reports drift approaching the window limit.
type OnuTransmissionInterferenceWarning struct {
	IntfID uint32
	OnuID  uint32
	Status Status
	Drift  uint32
}

// Kind implements Indication.
func (*OnuTransmissionInterferenceWarning) Kind() Kind { return KindOnuTransmissionInterferenceWarning }

// OnuProcessingError reports an ONU-side processing error.
type OnuProcessingError struct {
	IntfID uint32
	OnuID  uint32
}

// Kind implements Indication.
func (*OnuProcessingError) Kind() Kind { return KindOnuProcessingError }
