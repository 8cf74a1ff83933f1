package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"plasmacut/core"
	"plasmacut/standalone"
	"plasmacut/standalone/motion"
)

// errQuit ends the console session
var errQuit = errors.New("quit")

// console runs operator commands against a controller owned by loop
type console struct {
	loop *core.Loop
	ctrl *standalone.Controller
	out  io.Writer
}

const consoleHelp = `Commands:
  load <file.svg>     load every path in an SVG drawing
  path "<d>"          load raw SVG path data
  start               start or resume cutting
  pause               pause, torch off
  stop                stop, torch off
  estop               emergency stop
  reset               leave emergency stop
  jog <x|y> <steps>   move one axis (negative steps reverse)
  status              show machine status
  help                show this help
  quit                exit
`

// exec runs one command line. errQuit is returned for quit.
func (c *console) exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch cmd, rest := strings.ToLower(args[0]), args[1:]; cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprint(c.out, consoleHelp)
		return nil
	case "load":
		if len(rest) != 1 {
			return errors.New("usage: load <file.svg>")
		}
		return c.load(rest[0])
	case "path":
		if len(rest) == 0 {
			return errors.New(`usage: path "<d>"`)
		}
		d := strings.Join(rest, " ")
		return c.do(func() error { return c.ctrl.LoadPathData(d) })
	case "start":
		return c.do(c.ctrl.Start)
	case "pause":
		return c.do(c.ctrl.Pause)
	case "stop":
		return c.do(c.ctrl.Stop)
	case "estop", "emergency":
		return c.do(c.ctrl.Emergency)
	case "reset":
		return c.do(c.ctrl.Reset)
	case "jog":
		return c.jog(rest)
	case "status":
		var st standalone.Status
		if err := c.do(func() error { st = c.ctrl.Status(); return nil }); err != nil {
			return err
		}
		printStatus(c.out, st)
		return nil
	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}

func (c *console) load(path string) error {
	f, err := openSVG(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.do(func() error { return c.ctrl.LoadSVG(f) })
}

func (c *console) jog(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: jog <x|y> <steps>")
	}
	axis, ok := motion.ParseAxis(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("unknown axis %q", args[0])
	}
	steps, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid step count %q", args[1])
	}
	return c.do(func() error { return c.ctrl.Jog(axis, steps) })
}

// do runs fn on the loop goroutine and returns its error
func (c *console) do(fn func() error) error {
	var err error
	if lerr := c.loop.Do(func() { err = fn() }); lerr != nil {
		return lerr
	}
	return err
}

func printStatus(w io.Writer, st standalone.Status) {
	fmt.Fprintf(w, "state:    %s\n", st.State)
	fmt.Fprintf(w, "position: %s z=%.1f\n", st.Position, st.Z)
	fmt.Fprintf(w, "path:     %d/%d\n", st.Cursor, st.Points)
	fmt.Fprintf(w, "relay:    %v\n", st.Relay)
	for i, axis := range st.Axes {
		fmt.Fprintf(w, "%s axis:   steps=%d (%.2fcm) busy=%v remaining=%d enabled=%v\n",
			motion.Axis(i), axis.Steps, axis.CM, axis.Busy, axis.Remaining, axis.Enabled)
	}
}
