// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/powermon/ina219"
	"github.com/spf13/cobra"
)

func newReadCommand(a *app) *cobra.Command {
	var retries int
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Initialize the device and print one reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.start(retries, delay); err != nil {
				return err
			}
			var p ina219.PowerMonitor
			if err := a.dev.Sense(&p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	addStartFlags(cmd, &retries, &delay)
	return cmd
}
