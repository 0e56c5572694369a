// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package powermon is a container for the ina219 power monitor driver and the
// tools built on it.
//
// The driver lives in package ina219; cmd/ina219 is a command line front end
// and screen1d draws its terminal gauge.
package powermon
