// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/powermon/ina219"
	"github.com/GermanBionicSystems/powermon/internal/profile"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	busOptionName     = "bus"
	addrOptionName    = "addr"
	configOptionName  = "config"
	retriesOptionName = "retries"
	delayOptionName   = "delay"
)

// app holds what every subcommand shares.
type app struct {
	// open is replaced in tests.
	open func(name string) (i2c.BusCloser, error)
	// sleep is replaced in tests.
	sleep func(time.Duration)

	profile *profile.Profile
	bus     i2c.BusCloser
	dev     *ina219.Dev
}

func newApp() *app {
	return &app{
		open: func(name string) (i2c.BusCloser, error) {
			if _, err := host.Init(); err != nil {
				return nil, err
			}
			return i2creg.Open(name)
		},
		sleep: time.Sleep,
	}
}

func newRootCommand(a *app) *cobra.Command {
	var busName, configPath string
	var addr uint16
	cmd := &cobra.Command{
		Use:           "ina219",
		Short:         "Tool to read and configure an ina219 power monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			p := profile.Default()
			if configPath != "" {
				var err error
				if p, err = profile.Load(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed(busOptionName) {
				p.Bus = busName
			}
			if cmd.Flags().Changed(addrOptionName) {
				p.Address = addr
			}
			bus, err := a.open(p.Bus)
			if err != nil {
				return fmt.Errorf("failed to open I²C %q: %w", p.Bus, err)
			}
			dev, err := ina219.New(bus, &ina219.Opts{Address: p.Address})
			if err != nil {
				bus.Close()
				return err
			}
			a.profile, a.bus, a.dev = p, bus, dev
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.bus == nil {
				return nil
			}
			return a.bus.Close()
		},
	}
	cmd.PersistentFlags().StringVar(&busName, busOptionName, "", "I²C bus name, empty for the first one")
	cmd.PersistentFlags().Uint16Var(&addr, addrOptionName, ina219.DefaultAddress, "I²C address: 0x40, 0x41, 0x44 or 0x45")
	cmd.PersistentFlags().StringVar(&configPath, configOptionName, "", "YAML profile of the device")
	cmd.AddCommand(newReadCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	cmd.AddCommand(newConfigCommand(a))
	cmd.AddCommand(newCalibrateCommand(a))
	cmd.AddCommand(newResetCommand(a))
	return cmd
}

// start waits for the device to answer, then programs the profile.
func (a *app) start(retries int, delay time.Duration) error {
	for i := 0; ; i++ {
		err := a.dev.Init()
		if err == nil {
			break
		}
		if !errors.Is(err, ina219.ErrNotPresent) || i >= retries {
			return err
		}
		log.Printf("%v, retrying in %s", err, delay)
		a.sleep(delay)
	}
	return a.profile.Apply(a.dev)
}

func addStartFlags(cmd *cobra.Command, retries *int, delay *time.Duration) {
	cmd.Flags().IntVar(retries, retriesOptionName, 5, "Number of probes to retry while the device is not present")
	cmd.Flags().DurationVar(delay, delayOptionName, 2*time.Second, "Delay between probes")
}
