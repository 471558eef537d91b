package dispatch

// Stage is a step of the dispatch pipeline.
type Stage int

// Pipeline stages in execution order.
const (
	StageReceived Stage = iota
	StagePreEvent
	StageCorsCheck
	StageRouting
	StageParamMerge
	StageHandlerChain
	StagePostEvent
	StageComplete
)

var stageNames = [...]string{
	StageReceived:     "RECEIVED",
	StagePreEvent:     "PRE_EVENT",
	StageCorsCheck:    "CORS_CHECK",
	StageRouting:      "ROUTING",
	StageParamMerge:   "PARAM_MERGE",
	StageHandlerChain: "HANDLER_CHAIN",
	StagePostEvent:    "POST_EVENT",
	StageComplete:     "COMPLETE",
}

// String returns the stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// errorPrefix returns the prefix of the 500 body written when s fails.
func (s Stage) errorPrefix() string {
	switch s {
	case StagePreEvent:
		return "Pre Processing error: "
	case StagePostEvent:
		return "Post Processing error: "
	default:
		return "Internal Server Error: "
	}
}
