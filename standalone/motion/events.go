package motion

// EventKind identifies an observable engine event
type EventKind uint8

const (
	EventPointAdded EventKind = iota
	EventPointDiscarded
	EventParseFailed
	EventPathLoaded
	EventBurstStarted
	EventAxisBusy
	EventStateChanged
	EventInvalidTransition
	EventPosition
	EventEndOfPath
	EventLineFault
)

var eventNames = [...]string{
	EventPointAdded:        "point_added",
	EventPointDiscarded:    "point_discarded",
	EventParseFailed:       "parse_failed",
	EventPathLoaded:        "path_loaded",
	EventBurstStarted:      "burst_started",
	EventAxisBusy:          "axis_busy",
	EventStateChanged:      "state_changed",
	EventInvalidTransition: "invalid_transition",
	EventPosition:          "position",
	EventEndOfPath:         "end_of_path",
	EventLineFault:         "line_fault",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event is a diagnostic emitted by the engine. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind EventKind
	Time uint64 // Scheduler ticks, zero outside the engine clock

	Point     Point     // PointAdded, PointDiscarded, Position
	Axis      Axis      // BurstStarted, AxisBusy, LineFault
	Direction Direction // BurstStarted
	Steps     int       // BurstStarted, AxisBusy (steps left on the old burst)
	Count     int       // PathLoaded: number of points
	From      string    // StateChanged, InvalidTransition
	To        string    // StateChanged
	Command   string    // InvalidTransition
	Err       error     // ParseFailed, LineFault
}

// Observer receives engine events. Notify is called synchronously from the
// engine and must not block or call back into it.
type Observer interface {
	Notify(ev Event)
}

// ObserverFunc adapts a function to an Observer
type ObserverFunc func(ev Event)

func (f ObserverFunc) Notify(ev Event) { f(ev) }

// Observers fans an event out to several observers
type Observers []Observer

func (o Observers) Notify(ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Notify(ev)
		}
	}
}

// Nop discards every event
var Nop Observer = ObserverFunc(func(Event) {})
