package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"plasmacut/host/bridge"
	"plasmacut/host/serial"
	"plasmacut/standalone/config"
)

func serveCmd() *cobra.Command {
	var port string
	var baud int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Act as an output bridge on a serial port, driving the local backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if machine.Output.Backend == config.BackendBridge {
				return errors.New("serve needs a local backend (memory or expander)")
			}
			if port == "" {
				return errors.New("--port is required")
			}

			driver, closeDriver, err := openDriver(machine, logger)
			if err != nil {
				return err
			}
			defer closeDriver()

			sc := serial.DefaultConfig(port)
			sc.Baud = baud
			link, err := serial.Open(sc)
			if err != nil {
				return err
			}
			defer link.Close()

			dev, err := bridge.NewDevice(link, driver, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s backend on %s\n", machine.Output.Backend, port)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := dev.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "serial device to serve on (e.g. /dev/ttyGS0)")
	cmd.Flags().IntVar(&baud, "baud", 250000, "baud rate")
	return cmd
}
