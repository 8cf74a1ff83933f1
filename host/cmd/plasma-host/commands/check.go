package commands

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"plasmacut/core"
	"plasmacut/standalone"
	"plasmacut/standalone/motion"
)

// tally counts engine events by kind
type tally map[motion.EventKind]int

func (t tally) Notify(ev motion.Event) {
	t[ev.Kind]++
}

func checkCmd() *cobra.Command {
	var simulate bool
	cmd := &cobra.Command{
		Use:   "check <drawing.svg>",
		Short: "Parse a drawing against the work area without touching hardware",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openSVG(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sched := core.NewScheduler()
			events := tally{}
			ctrl, err := standalone.NewController(machine, sched, core.NewMemoryGPIO(), standalone.WithObserver(events))
			if err != nil {
				return err
			}
			if err := ctrl.LoadSVG(f); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := ctrl.Status()
			fmt.Fprintf(out, "points:    %d\n", st.Points)
			fmt.Fprintf(out, "dropped:   %d (outside %gx%g cm)\n",
				events[motion.EventPointDiscarded], machine.WorkArea.Width, machine.WorkArea.Height)
			fmt.Fprintf(out, "estimate:  %v\n", machine.Cadence()*time.Duration(st.Points+1))

			if !simulate {
				return nil
			}
			if err := ctrl.Start(); err != nil {
				return err
			}
			sched.RunUntilIdle(math.MaxUint64)
			st = ctrl.Status()
			fmt.Fprintf(out, "simulated: %v, state %s\n", core.TimerToDuration(sched.Now()), st.State)
			for i, axis := range st.Axes {
				fmt.Fprintf(out, "%s steps:   %d net\n", motion.Axis(i), axis.Steps)
			}
			if n := events[motion.EventAxisBusy]; n > 0 {
				fmt.Fprintf(out, "warning:   %d bursts overlapped; raise cadence_ms or shorten moves\n", n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&simulate, "simulate", false, "also run the cut against in-memory lines")
	return cmd
}
