package pipeline

import (
	"time"

	"github.com/video-stream/recap/internal/failure"
)

// State is a step of a pipeline run.
type State string

const (
	StateFetching     State = "fetching"
	StateExtracting   State = "extracting"
	StateTranscribing State = "transcribing"
	StateCleaning     State = "cleaning"
	StateSummarizing  State = "summarizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Transition is reported to the observer on every state change.
type Transition struct {
	From    State
	To      State
	Elapsed time.Duration // time spent in From
	Err     error         // set when To is StateFailed
}

// stageKind is the failure kind of each stage that can fail the run.
var stageKind = map[State]failure.Kind{
	StateFetching:     failure.KindUpstream,
	StateExtracting:   failure.KindTranscode,
	StateTranscribing: failure.KindTranscription,
}

var stageMessage = map[State]string{
	StateFetching:     "video download failed",
	StateExtracting:   "audio extraction failed",
	StateTranscribing: "speech recognition failed",
}

func kindFor(s State) failure.Kind {
	if k, ok := stageKind[s]; ok {
		return k
	}
	return failure.KindInternal
}
