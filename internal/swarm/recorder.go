package swarm

import "time"

// Recorder observes client activity. Implementations must not block.
type Recorder interface {
	// RequestStarted is called when a request is submitted.
	RequestStarted(command string)

	// RequestDone is called once per submitted request with its outcome.
	RequestDone(command string, err error, d time.Duration)

	// ConnectDone is called once per connect attempt.
	ConnectDone(err error, d time.Duration)

	// ConnectionState is called on every status transition.
	ConnectionState(s Status)

	// FrameDropped is called when an inbound frame matches no request.
	FrameDropped(reason string)
}

type nopRecorder struct{}

func (nopRecorder) RequestStarted(string)                   {}
func (nopRecorder) RequestDone(string, error, time.Duration) {}
func (nopRecorder) ConnectDone(error, time.Duration)         {}
func (nopRecorder) ConnectionState(Status)                   {}
func (nopRecorder) FrameDropped(string)                      {}
