// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/powermon/screen1d"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	intervalOptionName = "interval"
	countOptionName    = "count"
	gaugeOptionName    = "gauge"
)

func newWatchCommand(a *app) *cobra.Command {
	var retries, count, cells int
	var delay, interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print readings continuously",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.start(retries, delay); err != nil {
				return err
			}
			conf, err := a.dev.Config()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var gauge *screen1d.Dev
			if cells > 0 && out == os.Stdout && isatty.IsTerminal(os.Stdout.Fd()) {
				if gauge, err = screen1d.New(&screen1d.Opts{X: cells}); err != nil {
					return err
				}
				defer gauge.Halt()
			}

			ch, err := a.dev.SenseContinuous(interval)
			if err != nil {
				return err
			}
			defer a.dev.Halt()
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			fullScale := float64(conf.Gain.FullScale())
			for n := 0; count == 0 || n < count; n++ {
				select {
				case <-interrupt:
					return nil
				case p, ok := <-ch:
					if !ok {
						return nil
					}
					if gauge == nil {
						fmt.Fprintln(out, p)
						continue
					}
					shunt := float64(p.Shunt)
					if shunt < 0 {
						shunt = -shunt
					}
					if err := gauge.Gauge(shunt/fullScale, p.String()); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	addStartFlags(cmd, &retries, &delay)
	cmd.Flags().DurationVar(&interval, intervalOptionName, time.Second, "Time between readings")
	cmd.Flags().IntVar(&count, countOptionName, 0, "Stop after this many readings, 0 to run until interrupted")
	cmd.Flags().IntVar(&cells, gaugeOptionName, 20, "Width of the shunt full scale gauge on a terminal, 0 to disable")
	return cmd
}
