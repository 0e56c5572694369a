// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ina219 reads and configures an ina219 power monitor.
package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ina219: ")
	if err := newRootCommand(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
