// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"
)

const (
	measuredOptionName  = "measured"
	referenceOptionName = "reference"
)

func newCalibrateCommand(a *app) *cobra.Command {
	var retries int
	var delay time.Duration
	var measured, reference float64
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Scale the calibration register against a reference ammeter",
		Long: "Scale the calibration register against a reference ammeter.\n\n" +
			"Pass the current the ina219 read and the current a meter in series read, in mA.\n" +
			"The new value is not persisted; copy it to the calibration key of the profile.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if measured == 0 || reference == 0 {
				return errors.New("both --measured and --reference are required")
			}
			if err := a.start(retries, delay); err != nil {
				return err
			}
			if err := a.dev.CalibrateLinear(milliAmperes(measured), milliAmperes(reference)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "calibration: %d\n", a.dev.Calibration())
			return nil
		},
	}
	addStartFlags(cmd, &retries, &delay)
	cmd.Flags().Float64Var(&measured, measuredOptionName, 0, "Current read by the ina219, in mA")
	cmd.Flags().Float64Var(&reference, referenceOptionName, 0, "Current read by the reference meter, in mA")
	return cmd
}

func milliAmperes(v float64) physic.ElectricCurrent {
	return physic.ElectricCurrent(v * float64(physic.MilliAmpere))
}
