package timer

import (
	"github.com/Tiliavir/trivial-pomodoro/internal/model"
)

type handler struct {
	match func(c Change) bool
	run   func(m *Machine, c Change)
}

// handlers run in this order on every transition they match.
var handlers = []handler{
	{match: func(c Change) bool { return c.To == Work }, run: (*Machine).enterWork},
	{match: func(c Change) bool { return c.From == Work && c.To == Rest }, run: (*Machine).finishWork},
	{match: func(c Change) bool { return c.From == Work }, run: (*Machine).endWork},
	{match: func(c Change) bool { return c.To == Rest }, run: (*Machine).enterRest},
	{match: func(c Change) bool { return c.From == Rest && c.To == Work }, run: (*Machine).leaveRest},
	{match: func(c Change) bool { return c.To == Idle }, run: (*Machine).enterIdle},
	{match: func(Change) bool { return true }, run: (*Machine).logTransition},
}

func (m *Machine) enterWork(c Change) {
	// No prompt may outlive the interval boundary.
	m.completer.ResolvePending()
	if c.From == Idle {
		m.consecutive = 0
	}
	m.current = model.NewInterval(model.KindWork, m.now(), m.settings.Work)
	m.countdown.Start(m.settings.Work)
}

func (m *Machine) finishWork(Change) {
	m.consecutive++
	m.nextRest = model.KindShortRest
	if m.consecutive >= m.settings.IntervalsInSet {
		m.nextRest = model.KindLongRest
		m.consecutive = 0
	}
	m.completer.WorkFinished(m.current, m.now())
}

func (m *Machine) endWork(Change) {
	m.countdown.Cancel()
	m.current = model.Interval{}
}

func (m *Machine) enterRest(Change) {
	d := m.settings.ShortRest
	body := "Take a short break."
	if m.nextRest == model.KindLongRest {
		d = m.settings.LongRest
		body = "Set complete, take a long break."
	}
	m.current = model.NewInterval(m.nextRest, m.now(), d)
	m.countdown.Start(d)
	m.notifier.Play(SoundRestStarted)
	m.notifier.Notify("Rest started", body, "rest")
}

func (m *Machine) leaveRest(c Change) {
	if c.Event == SkipRest {
		return
	}
	m.notifier.Play(SoundRestFinished)
	m.notifier.Notify("Rest finished", "Back to work.", "work")
}

func (m *Machine) enterIdle(Change) {
	m.countdown.Cancel()
	m.consecutive = 0
	m.current = model.Interval{}
}

func (m *Machine) logTransition(c Change) {
	m.logger.Printf("transition from=%s event=%s to=%s", c.From, c.Event, c.To)
	transitionsCounter.WithLabelValues(c.From.String(), c.Event.String(), c.To.String()).Inc()
	stateGauge.WithLabelValues(c.From.String()).Set(0)
	stateGauge.WithLabelValues(c.To.String()).Set(1)
}
