package domain

// Stage is a state of the per-request prediction state machine. Requests move
// strictly forward; a failure while entering a stage aborts the request.
type Stage int

const (
	StageReceived Stage = iota
	StageValidated
	StagePositionResolved
	StageModelLoaded
	StagePredicted
	StageResponded
)

var stageNames = [...]string{
	StageReceived:         "RECEIVED",
	StageValidated:        "VALIDATED",
	StagePositionResolved: "POSITION_RESOLVED",
	StageModelLoaded:      "MODEL_LOADED",
	StagePredicted:        "PREDICTED",
	StageResponded:        "RESPONDED",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// Next returns the stage that follows s.
func (s Stage) Next() Stage {
	if s >= StageResponded {
		return StageResponded
	}
	return s + 1
}
