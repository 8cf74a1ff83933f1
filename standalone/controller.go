package standalone

import (
	"errors"
	"fmt"
	"io"
	"math"

	"plasmacut/core"
	"plasmacut/standalone/config"
	"plasmacut/standalone/kinematics"
	"plasmacut/standalone/motion"
	"plasmacut/standalone/sequencer"
	"plasmacut/standalone/stepgen"
	"plasmacut/standalone/svgdoc"
	"plasmacut/standalone/svgpath"
)

// Option configures a Controller
type Option func(*Controller)

// WithObserver adds an observer for engine events
func WithObserver(obs motion.Observer) Option {
	return func(c *Controller) {
		c.observer = append(c.observer, obs)
	}
}

// Controller owns the machine: axis lines, the torch relay, the path
// sequencer and the run state. Every method must be called from the
// goroutine that owns the scheduler (see core.Loop.Do).
type Controller struct {
	cfg      *config.MachineConfig
	sched    *core.Scheduler
	kin      *kinematics.Cartesian
	axes     [motion.NumAxes]*stepgen.Axis
	seq      *sequencer.Sequencer
	relay    *core.DigitalOut
	lines    []*core.DigitalOut
	observer motion.Observers

	period uint64
	state  RunState
}

// NewController configures every output line on driver and returns a
// Ready controller with an empty path and motors enabled.
func NewController(cfg *config.MachineConfig, sched *core.Scheduler, driver core.GPIODriver, opts ...Option) (*Controller, error) {
	kin, err := kinematics.NewCartesian(cfg)
	if err != nil {
		return nil, err
	}
	policy, err := stepgen.ParsePolicy(cfg.BusyPolicy)
	if err != nil {
		return nil, err
	}
	pins, err := cfg.Pins()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:    cfg,
		sched:  sched,
		kin:    kin,
		period: core.TimerFromDuration(cfg.StepPeriod()),
		state:  Ready,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initLines(driver, pins, policy); err != nil {
		_ = core.ShutdownAll(c.lines...)
		return nil, err
	}

	c.seq, err = sequencer.New(sched, kin, c.axes, sequencer.Config{
		Cadence:    core.TimerFromDuration(cfg.Cadence()),
		StepPeriod: c.period,
		Gate:       c.running,
		Observer:   c.observer,
		OnEnd:      c.endOfPath,
	})
	if err != nil {
		_ = core.ShutdownAll(c.lines...)
		return nil, err
	}

	if err := c.enableMotors(true); err != nil {
		_ = core.ShutdownAll(c.lines...)
		return nil, err
	}
	return c, nil
}

func (c *Controller) initLines(driver core.GPIODriver, pins map[string]core.GPIOPin, policy stepgen.Policy) error {
	line := func(name string, invert bool) (*core.DigitalOut, error) {
		pin, ok := pins[name]
		if !ok {
			return nil, nil
		}
		out, err := core.NewDigitalOut(driver, name, pin, invert, false)
		if err != nil {
			return nil, fmt.Errorf("standalone: configure %s: %w", name, err)
		}
		c.lines = append(c.lines, out)
		return out, nil
	}

	for axis := motion.AxisX; axis < motion.NumAxes; axis++ {
		ac := c.cfg.Axes[axis.String()]
		step, err := line(axis.String()+".step", ac.InvertStep)
		if err != nil {
			return err
		}
		dir, err := line(axis.String()+".dir", ac.InvertDir)
		if err != nil {
			return err
		}
		enable, err := line(axis.String()+".enable", !ac.EnableActiveHigh)
		if err != nil {
			return err
		}

		c.axes[axis], err = stepgen.NewAxis(axis, c.sched,
			stepgen.Lines{Step: step, Dir: dir, Enable: enable},
			stepgen.WithPolicy(policy),
			stepgen.WithObserver(c.observer))
		if err != nil {
			return err
		}
	}

	relay, err := line("relay", c.cfg.InvertRelay)
	if err != nil {
		return err
	}
	if relay == nil {
		return errors.New("standalone: relay line not configured")
	}
	c.relay = relay
	return nil
}

// State returns the current run state
func (c *Controller) State() RunState {
	return c.state
}

// Config returns the machine configuration
func (c *Controller) Config() *config.MachineConfig {
	return c.cfg
}

// Load installs a new path from any state, including Emergency, and
// returns to Ready with the cursor rewound. Loading counts as operator
// acknowledgement, so motors are enabled again. A path with a point outside
// the work area is rejected and the current path stays installed.
func (c *Controller) Load(path motion.Path) error {
	for i, p := range path {
		if err := c.kin.CheckLimits(p); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}

	c.seq.Stop()
	c.abandonBursts()
	errRelay := c.setRelay(false)

	c.seq.Load(path)
	errEnable := c.enableMotors(true)

	c.notify(motion.Event{Kind: motion.EventPathLoaded, Count: len(path)})
	c.setState(Ready)
	return errors.Join(errRelay, errEnable)
}

// LoadPathData parses SVG path data and loads the result. On a parse error
// the current path stays installed.
func (c *Controller) LoadPathData(d string) error {
	path, err := svgpath.Parse(d, c.cfg.WorkArea, c.parseOptions(motion.Point{})...)
	if err != nil {
		c.notify(motion.Event{Kind: motion.EventParseFailed, Err: err})
		return err
	}
	return c.Load(path)
}

// LoadSVG reads an SVG document, checks its declared size against the work
// area and loads the concatenation of all its paths in document order.
func (c *Controller) LoadSVG(r io.Reader) error {
	path, err := c.parseSVG(r)
	if err != nil {
		c.notify(motion.Event{Kind: motion.EventParseFailed, Err: err})
		return err
	}
	return c.Load(path)
}

func (c *Controller) parseSVG(r io.Reader) (motion.Path, error) {
	doc, err := svgdoc.Load(r)
	if err != nil {
		return nil, err
	}
	if err := doc.CheckSize(c.cfg.WorkArea); err != nil {
		return nil, err
	}

	path := motion.Path{}
	for i, pd := range doc.Paths {
		p, err := svgpath.Parse(pd.D, c.cfg.WorkArea, c.parseOptions(pd.Offset)...)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		path = append(path, p...)
	}
	return path, nil
}

func (c *Controller) parseOptions(offset motion.Point) []svgpath.Option {
	return []svgpath.Option{
		svgpath.WithObserver(c.observer),
		svgpath.WithCurveSegments(c.cfg.CurveSegments),
		svgpath.WithOffset(offset),
	}
}

// Start begins or resumes cutting from the current cursor and energizes
// the relay
func (c *Controller) Start() error {
	switch c.state {
	case Ready, Paused, Stopped:
	default:
		return c.invalid("start")
	}
	if err := c.setRelay(true); err != nil {
		return err
	}
	c.setState(Running)
	c.seq.Start()
	return nil
}

// Pause halts the cadence, keeping the cursor
func (c *Controller) Pause() error {
	if c.state != Running {
		return c.invalid("pause")
	}
	c.seq.Stop()
	err := c.setRelay(false)
	c.setState(Paused)
	return err
}

// Stop halts the cadence from Running or Paused
func (c *Controller) Stop() error {
	if c.state != Running && c.state != Paused {
		return c.invalid("stop")
	}
	c.seq.Stop()
	err := c.setRelay(false)
	c.setState(Stopped)
	return err
}

// Emergency stops everything at once: the cadence halts, pending bursts are
// abandoned, the relay drops and the motor drivers are disabled. The state
// changes even when a line write fails.
func (c *Controller) Emergency() error {
	if c.state == Emergency {
		return c.invalid("emergency")
	}
	c.seq.Stop()
	c.abandonBursts()
	err := errors.Join(c.setRelay(false), c.enableMotors(false))
	c.setState(Emergency)
	return err
}

// Reset acknowledges an emergency and returns to Ready with the path and
// cursor kept
func (c *Controller) Reset() error {
	if c.state != Emergency {
		return c.invalid("reset")
	}
	if err := c.enableMotors(true); err != nil {
		return err
	}
	c.setState(Ready)
	return nil
}

// Jog moves one axis by a signed number of steps outside a cut. It is
// allowed while Ready, Paused or Stopped.
func (c *Controller) Jog(axis motion.Axis, steps int) error {
	if axis >= motion.NumAxes {
		return fmt.Errorf("standalone: unknown axis %v", axis)
	}
	if n := int64(steps); n > math.MaxUint32 || n < -math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrJogRange, steps)
	}
	if !c.jogAllowed() {
		return c.invalid("jog")
	}
	dir := motion.Forward
	count := uint32(steps)
	if steps < 0 {
		dir = motion.Reverse
		count = uint32(-int64(steps))
	}
	return c.axes[axis].Pulse(stepgen.Burst{
		Direction: dir,
		Steps:     count,
		Period:    c.period,
		Gate:      c.jogAllowed,
	})
}

// Status returns a snapshot of the machine
func (c *Controller) Status() Status {
	st := Status{
		State:    c.state,
		Position: c.seq.Position(),
		Cursor:   c.seq.Cursor(),
		Points:   c.seq.Len(),
		Relay:    c.relay.IsOn(),
	}
	for i, axis := range c.axes {
		st.Axes[i] = AxisStatus{
			Steps:     axis.Position(),
			CM:        c.kin.Distance(motion.Axis(i), axis.Position()),
			Busy:      axis.Busy(),
			Remaining: axis.Remaining(),
			Enabled:   axis.Enabled(),
		}
	}
	return st
}

// Close halts all motion and returns every line to its default level
func (c *Controller) Close() error {
	c.seq.Stop()
	c.abandonBursts()
	return core.ShutdownAll(c.lines...)
}

func (c *Controller) running() bool {
	return c.state == Running
}

func (c *Controller) jogAllowed() bool {
	return c.state == Ready || c.state == Paused || c.state == Stopped
}

// endOfPath runs from the sequencer tick that found the path exhausted
func (c *Controller) endOfPath() {
	_ = c.setRelay(false)
	c.setState(Stopped)
}

func (c *Controller) abandonBursts() {
	for _, axis := range c.axes {
		axis.Abandon()
	}
}

func (c *Controller) enableMotors(on bool) error {
	var errs []error
	for _, axis := range c.axes {
		if err := axis.Enable(on); err != nil {
			c.notify(motion.Event{Kind: motion.EventLineFault, Axis: axis.ID(), Err: err})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) setRelay(on bool) error {
	if err := c.relay.Set(on); err != nil {
		err = fmt.Errorf("relay: %w", err)
		c.notify(motion.Event{Kind: motion.EventLineFault, Err: err})
		return err
	}
	return nil
}

func (c *Controller) setState(to RunState) {
	from := c.state
	c.state = to
	if from != to {
		c.notify(motion.Event{Kind: motion.EventStateChanged, From: from.String(), To: to.String()})
	}
}

func (c *Controller) invalid(command string) error {
	c.notify(motion.Event{Kind: motion.EventInvalidTransition, Command: command, From: c.state.String()})
	return &TransitionError{From: c.state, Command: command}
}

func (c *Controller) notify(ev motion.Event) {
	ev.Time = c.sched.Now()
	c.observer.Notify(ev)
}
