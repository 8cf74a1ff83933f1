package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"plasmacut/core"
	"plasmacut/standalone"
)

func runCmd() *cobra.Command {
	var autoStart bool
	cmd := &cobra.Command{
		Use:   "run [drawing.svg]",
		Short: "Run the machine with an interactive console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			driver, closeDriver, err := openDriver(machine, logger)
			if err != nil {
				return err
			}
			defer closeDriver()

			loop := core.NewLoop()
			go func() { _ = loop.Run(context.Background()) }()
			defer func() {
				loop.Close()
				<-loop.Done()
			}()

			var ctrl *standalone.Controller
			if lerr := loop.Do(func() {
				ctrl, err = standalone.NewController(machine, loop.Scheduler(), driver,
					standalone.WithObserver(standalone.LogObserver{Logger: logger}))
			}); lerr != nil {
				return lerr
			}
			if err != nil {
				return err
			}

			con := &console{loop: loop, ctrl: ctrl, out: cmd.OutOrStdout()}
			defer func() {
				if err := con.do(ctrl.Close); err != nil {
					logger.Warn("shutdown left lines in an unknown state", "err", err)
				}
			}()

			if len(args) == 1 {
				if err := con.load(args[0]); err != nil {
					return err
				}
				if autoStart {
					if err := con.do(ctrl.Start); err != nil {
						return err
					}
				}
			}
			return con.serve(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&autoStart, "start", false, "start cutting as soon as the drawing is loaded")
	return cmd
}

// serve reads commands from in until quit, EOF or ctx is done
func (c *console) serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(c.out, "Type 'help' for commands.")
	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			err := c.exec(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
	}
}
