// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina219_test

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/powermon/ina219"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	sensor, err := ina219.New(bus, &ina219.DefaultOpts)
	if err != nil {
		log.Fatalln(err)
	}

	// The device may still be powering up; keep probing.
	for {
		err := sensor.Init()
		if err == nil {
			break
		}
		if !errors.Is(err, ina219.ErrNotPresent) {
			log.Fatalln(err)
		}
		time.Sleep(2 * time.Second)
	}

	var p ina219.PowerMonitor
	if err := sensor.Sense(&p); err != nil {
		log.Fatalln(err)
	}
	fmt.Println(p)
}

func ExampleDev_CalibrateLinear() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	sensor, err := ina219.New(bus, &ina219.Opts{Address: ina219.Address41})
	if err != nil {
		log.Fatalln(err)
	}
	if err := sensor.Init(); err != nil {
		log.Fatalln(err)
	}

	// The ina219 reported 1000mA while a multimeter in series read 1024mA.
	if err := sensor.CalibrateLinear(1000*physic.MilliAmpere, 1024*physic.MilliAmpere); err != nil {
		log.Fatalln(err)
	}
	fmt.Println("calibration:", sensor.Calibration())
}

func ExampleDev_SetBusADC() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	sensor, err := ina219.New(bus, nil)
	if err != nil {
		log.Fatalln(err)
	}
	if err := sensor.Init(); err != nil {
		log.Fatalln(err)
	}

	// Trade noise for speed on a 16V rail.
	if err := sensor.SetBusVoltageRange(ina219.Range16V); err != nil {
		log.Fatalln(err)
	}
	if err := sensor.SetGain(ina219.Gain80mV); err != nil {
		log.Fatalln(err)
	}
	if err := sensor.SetBusADC(ina219.Resolution12Bit, ina219.Samples32); err != nil {
		log.Fatalln(err)
	}
	if err := sensor.SetShuntADC(ina219.Resolution10Bit, ina219.Samples1); err != nil {
		log.Fatalln(err)
	}
	c, err := sensor.Config()
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println(c)
}
