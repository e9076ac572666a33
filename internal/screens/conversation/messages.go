package conversation

import (
	"github.com/abhisek/parley/internal/collab"
)

// turnDoneMsg is sent when a controller call returns. Failures were already
// reported through session events; Err is kept for the log line.
type turnDoneMsg struct {
	Op  string
	Err error
}

// recordedMsg carries a finished microphone recording.
type recordedMsg struct {
	Audio []byte
	Err   error
}

// reportReadyMsg is sent when the end-of-session report is ready.
type reportReadyMsg struct {
	Report collab.Report
	Err    error
}

// closedMsg is sent once the session was closed after the learner quit.
type closedMsg struct {
	Err error
}
