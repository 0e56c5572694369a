// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ina219 controls a Texas Instruments ina219 high side current,
// voltage and power monitor IC over an i2c bus.
//
// The driver programs the configuration register one field at a time with
// read-modify-write cycles and decodes the four measurement registers with
// the default calibration of 4096, where one current LSB is 1mA and one power
// LSB is 20mW. CalibrateLinear scales that calibration against a reference
// meter to absorb shunt resistor tolerance.
//
// The driver serializes its own register accesses but does not arbitrate a
// bus shared with other devices.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/ina219.pdf
package ina219
