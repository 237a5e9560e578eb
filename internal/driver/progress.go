package driver

import "time"

// Stage is one pipeline phase of a single fixture.
type Stage string

const (
	StageDecode Stage = "decode"
	StageSema   Stage = "sema"
	StageLower  Stage = "lower"
	StageCache  Stage = "cache"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress of one fixture. File is the fixture path.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. It is called from the compiling
// goroutines and must be safe for concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type progress struct {
	sink  ProgressSink
	file  string
	start time.Time
}

func (p progress) emit(stage Stage, status Status, err error) {
	if p.sink == nil {
		return
	}
	p.sink.OnEvent(Event{File: p.file, Stage: stage, Status: status, Err: err, Elapsed: time.Since(p.start)})
}
