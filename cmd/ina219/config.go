// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/GermanBionicSystems/powermon/ina219"
	"github.com/spf13/cobra"
)

const (
	rangeOptionName        = "range"
	gainOptionName         = "gain"
	busADCOptionName       = "bus-adc"
	busSamplesOptionName   = "bus-samples"
	shuntADCOptionName     = "shunt-adc"
	shuntSamplesOptionName = "shunt-samples"
	modeOptionName         = "mode"
	dumpOptionName         = "dump"
)

func newConfigCommand(a *app) *cobra.Command {
	var rng, gain, busADC, busSamples, shuntADC, shuntSamples, mode string
	var dump bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Change configuration fields and print the configuration register",
		Long: "Change configuration fields and print the configuration register.\n\n" +
			"Only the fields given as flags are written, one read-modify-write each.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed(rangeOptionName) {
				r, err := ina219.ParseBusVoltageRange(rng)
				if err != nil {
					return err
				}
				if err := a.dev.SetBusVoltageRange(r); err != nil {
					return err
				}
			}
			if flags.Changed(gainOptionName) {
				g, err := ina219.ParseGain(gain)
				if err != nil {
					return err
				}
				if err := a.dev.SetGain(g); err != nil {
					return err
				}
			}
			if flags.Changed(busADCOptionName) || flags.Changed(busSamplesOptionName) {
				res, samples, err := parseADC(busADC, busSamples, flags.Changed(busSamplesOptionName))
				if err != nil {
					return err
				}
				if err := a.dev.SetBusADC(res, samples); err != nil {
					return err
				}
			}
			if flags.Changed(shuntADCOptionName) || flags.Changed(shuntSamplesOptionName) {
				res, samples, err := parseADC(shuntADC, shuntSamples, flags.Changed(shuntSamplesOptionName))
				if err != nil {
					return err
				}
				if err := a.dev.SetShuntADC(res, samples); err != nil {
					return err
				}
			}
			if flags.Changed(modeOptionName) {
				m, err := ina219.ParseMode(mode)
				if err != nil {
					return err
				}
				if err := a.dev.SetMode(m); err != nil {
					return err
				}
			}
			c, err := a.dev.Config()
			if err != nil {
				return err
			}
			if !dump {
				fmt.Fprintln(cmd.OutOrStdout(), c)
				return nil
			}
			p := *a.profile
			p.Range = c.Range.String()
			p.Gain = c.Gain.String()
			p.BusADC.Resolution, p.BusADC.Samples = c.BusResolution.String(), c.BusSamples.String()
			p.ShuntADC.Resolution, p.ShuntADC.Samples = c.ShuntResolution.String(), c.ShuntSamples.String()
			p.Mode = c.Mode.String()
			b, err := p.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	d := ina219.DefaultConfig
	cmd.Flags().StringVar(&rng, rangeOptionName, d.Range.String(), "Bus voltage range: 16V or 32V")
	cmd.Flags().StringVar(&gain, gainOptionName, d.Gain.String(), "Shunt full scale: 40mV, 80mV, 160mV or 320mV")
	cmd.Flags().StringVar(&busADC, busADCOptionName, d.BusResolution.String(), "Bus ADC resolution: 9bit to 12bit")
	cmd.Flags().StringVar(&busSamples, busSamplesOptionName, d.BusSamples.String(), "Bus ADC samples averaged at 12bit: 1x to 128x")
	cmd.Flags().StringVar(&shuntADC, shuntADCOptionName, d.ShuntResolution.String(), "Shunt ADC resolution: 9bit to 12bit")
	cmd.Flags().StringVar(&shuntSamples, shuntSamplesOptionName, d.ShuntSamples.String(), "Shunt ADC samples averaged at 12bit: 1x to 128x")
	cmd.Flags().StringVar(&mode, modeOptionName, d.Mode.String(), "Operating mode, e.g. shunt-bus-continuous or power-down")
	cmd.Flags().BoolVar(&dump, dumpOptionName, false, "Print the configuration as a YAML profile")
	return cmd
}

// parseADC drops the default averaging for a reduced resolution unless the
// samples were asked for explicitly.
func parseADC(res, samples string, samplesSet bool) (ina219.ADCResolution, ina219.ADCSamples, error) {
	r, err := ina219.ParseADCResolution(res)
	if err != nil {
		return 0, 0, err
	}
	if r != ina219.Resolution12Bit && !samplesSet {
		return r, ina219.Samples1, nil
	}
	s, err := ina219.ParseADCSamples(samples)
	if err != nil {
		return 0, 0, err
	}
	return r, s, nil
}
