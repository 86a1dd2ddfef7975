package termlayout

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spicery/activetext/pkg/activetext"
)

// Task is a function posted to the event loop.
type Task func()

// Scheduler runs deferred actions on the tcell event loop by posting them
// as interrupt events. The loop must pass events to View.HandleEvent or
// RunTask.
type Scheduler struct {
	screen tcell.Screen
}

// NewScheduler creates a scheduler posting to screen.
func NewScheduler(screen tcell.Screen) *Scheduler {
	return &Scheduler{screen: screen}
}

// AfterFunc implements activetext.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) activetext.Timer {
	return time.AfterFunc(d, func() {
		_ = s.screen.PostEvent(tcell.NewEventInterrupt(Task(f)))
	})
}

// RunTask runs the task carried by ev, if any.
func RunTask(ev tcell.Event) bool {
	ei, ok := ev.(*tcell.EventInterrupt)
	if !ok {
		return false
	}
	task, ok := ei.Data().(Task)
	if !ok {
		return false
	}
	task()
	return true
}
