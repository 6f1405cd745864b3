package event

import (
	"fmt"
	"log"
	"strings"
)

// Kind identifies what happened to an issue.
type Kind string

const (
	IssueCreated  Kind = "issue.created"
	IssueModified Kind = "issue.modified"
)

// Event describes one committed change to an issue. Changed lists the
// fields a modification touched; it is empty for creations.
type Event struct {
	Kind    Kind
	Project string
	Ticket  string
	Actor   string
	Changed []string
}

// Sink receives events after the changes they describe have been
// committed. Implementations must not assume they run in any particular
// goroutine.
type Sink interface {
	Publish(ev Event)
}

// LogSink writes events to the standard logger.
type LogSink struct{}

func (LogSink) Publish(ev Event) {
	msg := fmt.Sprintf("%s %s by %s", ev.Kind, ev.Ticket, ev.Actor)
	if len(ev.Changed) > 0 {
		msg += " (" + strings.Join(ev.Changed, ", ") + ")"
	}
	log.Print(msg)
}

// MemorySink collects events for inspection in tests.
type MemorySink struct {
	Events []Event
}

func (s *MemorySink) Publish(ev Event) {
	s.Events = append(s.Events, ev)
}

// Discard drops all events.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(Event) {}
