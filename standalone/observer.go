package standalone

import (
	"log/slog"

	"plasmacut/standalone/motion"
)

// LogObserver writes engine events to a slog logger. A nil Logger uses the
// package logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Notify(ev motion.Event) {
	l := o.Logger
	if l == nil {
		l = Logger()
	}

	switch ev.Kind {
	case motion.EventPointAdded:
		l.Debug("point added", "x", ev.Point.X, "y", ev.Point.Y)
	case motion.EventPointDiscarded:
		l.Warn("point outside work area dropped", "x", ev.Point.X, "y", ev.Point.Y)
	case motion.EventParseFailed:
		l.Warn("path rejected", "err", ev.Err)
	case motion.EventPathLoaded:
		l.Info("path loaded", "points", ev.Count)
	case motion.EventBurstStarted:
		l.Debug("burst started", "axis", ev.Axis, "dir", ev.Direction, "steps", ev.Steps, "t", ev.Time)
	case motion.EventAxisBusy:
		l.Warn("axis busy", "axis", ev.Axis, "remaining", ev.Steps, "t", ev.Time)
	case motion.EventStateChanged:
		l.Info("state changed", "from", ev.From, "to", ev.To)
	case motion.EventInvalidTransition:
		l.Warn("command ignored", "command", ev.Command, "state", ev.From)
	case motion.EventPosition:
		l.Debug("position", "x", ev.Point.X, "y", ev.Point.Y, "z", 0.0)
	case motion.EventEndOfPath:
		l.Info("end of path", "points", ev.Count)
	case motion.EventLineFault:
		l.Warn("line fault", "axis", ev.Axis, "err", ev.Err)
	}
}
