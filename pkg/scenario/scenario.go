// Package scenario holds a recorded interaction log and its persisted form.
//
// A scenario is an ordered list of entries, each pairing the canonical path
// of a target widget with the serialized event delivered to it. Entries are
// appended during recording and flushed to disk once when the session ends;
// a crash before that flush loses the session.
package scenario

import (
	"time"

	"github.com/google/uuid"
	"github.com/rekonder/qttester/pkg/eventcodec"
	"github.com/rekonder/qttester/pkg/objpath"
)

// Header describes the recording session.
type Header struct {
	SessionID  string
	Toolkit    string
	RecordedAt time.Time
	EntryPoint string
}

// NewHeader stamps a fresh session ID and the current time.
func NewHeader(toolkitVersion, entryPoint string) Header {
	return Header{
		SessionID:  uuid.NewString(),
		Toolkit:    toolkitVersion,
		RecordedAt: time.Now().UTC().Truncate(time.Millisecond),
		EntryPoint: entryPoint,
	}
}

// Entry is one captured event and its target.
type Entry struct {
	Path  objpath.Path
	Event eventcodec.SerializedEvent
	// Offset is the time since recording started. Only the recorded pacing
	// policy looks at it.
	Offset time.Duration
}

// Scenario is an ordered capture log.
type Scenario struct {
	Header  Header
	Entries []Entry
}

// New creates an empty scenario.
func New(header Header) *Scenario {
	return &Scenario{Header: header}
}

// Append adds an entry at the end of the log.
func (s *Scenario) Append(e Entry) {
	s.Entries = append(s.Entries, e)
}

// Len returns the number of entries.
func (s *Scenario) Len() int {
	return len(s.Entries)
}

// Duration is the offset of the last entry.
func (s *Scenario) Duration() time.Duration {
	if len(s.Entries) == 0 {
		return 0
	}
	return s.Entries[len(s.Entries)-1].Offset
}
