package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

// Ensure ProgramSink implements the interface.
var _ driven.EventSink = (*ProgramSink)(nil)

const sinkBuffer = 256

// sender delivers messages to a running program.
type sender interface {
	Send(msg tea.Msg)
}

// ProgramSink forwards fetch events to a Bubbletea program in order.
// Progress and notifications are dropped when the queue is full; a
// challenge waits for room since the run blocks on its answer anyway.
type ProgramSink struct {
	events chan tea.Msg
	done   chan struct{}
	once   sync.Once
}

// NewProgramSink starts forwarding events to p until Close is called.
func NewProgramSink(p sender) *ProgramSink {
	s := &ProgramSink{
		events: make(chan tea.Msg, sinkBuffer),
		done:   make(chan struct{}),
	}
	go s.forward(p)
	return s
}

func (s *ProgramSink) forward(p sender) {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.events:
			select {
			case <-s.done:
				return
			default:
				p.Send(msg)
			}
		}
	}
}

func (s *ProgramSink) push(msg tea.Msg) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.events <- msg:
	default:
		logger.Warn("tui event queue full, dropping %T", msg)
	}
}

// Progress implements driven.EventSink.
func (s *ProgramSink) Progress(e domain.ProgressEvent) {
	s.push(messages.ProgressReceived{Event: e})
}

// Notify implements driven.EventSink.
func (s *ProgramSink) Notify(n domain.Notification) {
	s.push(messages.NotificationReceived{Notification: n})
}

// Challenge implements driven.EventSink.
func (s *ProgramSink) Challenge(c domain.Challenge) {
	select {
	case <-s.done:
	case s.events <- messages.ChallengeReceived{Challenge: c}:
	}
}

// Close stops forwarding. Queued events are discarded.
func (s *ProgramSink) Close() {
	s.once.Do(func() { close(s.done) })
}
