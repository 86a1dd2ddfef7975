package main

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/spicery/activetext/pkg/activetext"
	"github.com/spicery/activetext/pkg/termlayout"
)

const statusHint = "click an element; q or Esc quits"

// viewer shows a label on a tcell screen with a status line at the
// bottom.
type viewer struct {
	screen  tcell.Screen
	view    *termlayout.View
	label   *activetext.Label
	status  string
	pressed bool
}

func runViewer(text string, config *activetext.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen create: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	defer screen.DisableMouse()

	v := newViewer(screen, text, config)
	v.draw()
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.handle(ev) {
			return nil
		}
	}
}

// newViewer lays text out on an initialized screen.
func newViewer(screen tcell.Screen, text string, config *activetext.Config) *viewer {
	v := &viewer{screen: screen, status: statusHint}
	layout := termlayout.NewLayout(0)
	v.view = termlayout.NewView(screen, layout)
	w, h := screen.Size()
	v.view.SetArea(textArea(w, h))

	v.label = activetext.NewLabel(v.view, layout,
		activetext.WithConfig(config),
		activetext.WithScheduler(termlayout.NewScheduler(screen)),
		activetext.WithText(text),
	)
	v.label.SetViewHeight(float64(v.view.Area().H))
	v.label.SetDelegate(activetext.DelegateFunc(func(text string, t activetext.ActiveType, r activetext.Range) {
		v.status = fmt.Sprintf("%s %s at %s", t, text, r)
		slog.Info("tap", "type", t, "text", text, "range", r)
	}))
	return v
}

// textArea leaves the last row for the status line.
func textArea(w, h int) termlayout.Area {
	if h > 1 {
		h--
	}
	return termlayout.Area{W: w, H: h}
}

// handle processes one event and reports whether the viewer should quit.
func (v *viewer) handle(ev tcell.Event) bool {
	if v.view.HandleEvent(ev) {
		v.drawStatus()
		v.screen.Show()
		return false
	}

	switch tev := ev.(type) {
	case *tcell.EventResize:
		w, h := tev.Size()
		v.view.SetArea(textArea(w, h))
		v.label.SetViewHeight(float64(v.view.Area().H))
		v.screen.Sync()
	case *tcell.EventKey:
		if tev.Key() == tcell.KeyEscape || tev.Key() == tcell.KeyCtrlC || tev.Rune() == 'q' {
			return true
		}
	case *tcell.EventMouse:
		x, y := tev.Position()
		p := v.view.PointAt(x, y)
		if tev.Buttons()&tcell.Button1 != 0 {
			v.pressed = true
			v.label.OnPressOrMove(p)
		} else if v.pressed {
			v.pressed = false
			if !v.label.OnRelease(p) {
				v.status = statusHint
			}
		}
	}
	v.draw()
	return false
}

func (v *viewer) draw() {
	v.view.Draw()
	v.drawStatus()
	v.screen.Show()
}

func (v *viewer) drawStatus() {
	w, h := v.screen.Size()
	if h < 2 {
		return
	}
	style := tcell.StyleDefault.Reverse(true)
	line := runewidth.FillRight(runewidth.Truncate(v.status, w, "…"), w)
	x := 0
	for _, r := range line {
		v.screen.SetContent(x, h-1, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
