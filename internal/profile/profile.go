// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package profile loads the settings of an ina219 installation from a YAML
// file.
package profile

import (
	"fmt"
	"os"

	"github.com/GermanBionicSystems/powermon/ina219"
	"sigs.k8s.io/yaml"
)

// Profile describes one wired ina219. String fields use the names printed by
// the ina219 enumerations, e.g. "32V", "320mV", "12bit", "8x",
// "shunt-bus-continuous".
type Profile struct {
	Bus         string     `json:"bus,omitempty"`
	Address     uint16     `json:"address,omitempty"`
	Range       string     `json:"range,omitempty"`
	Gain        string     `json:"gain,omitempty"`
	BusADC      ADCProfile `json:"busADC,omitempty"`
	ShuntADC    ADCProfile `json:"shuntADC,omitempty"`
	Mode        string     `json:"mode,omitempty"`
	Calibration uint16     `json:"calibration,omitempty"`
}

// ADCProfile is the resolution and averaging of one ADC.
type ADCProfile struct {
	Resolution string `json:"resolution,omitempty"`
	Samples    string `json:"samples,omitempty"`
}

// Default returns the profile matching what ina219.Dev.Init programs.
func Default() *Profile {
	c := ina219.DefaultConfig
	return &Profile{
		Address: ina219.DefaultAddress,
		Range:   c.Range.String(),
		Gain:    c.Gain.String(),
		BusADC: ADCProfile{
			Resolution: c.BusResolution.String(),
			Samples:    c.BusSamples.String(),
		},
		ShuntADC: ADCProfile{
			Resolution: c.ShuntResolution.String(),
			Samples:    c.ShuntSamples.String(),
		},
		Mode:        c.Mode.String(),
		Calibration: ina219.DefaultCalibration,
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Profile, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(data, p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	if _, err := p.Config(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Config parses and validates the register settings of p.
func (p *Profile) Config() (ina219.Config, error) {
	var c ina219.Config
	var err error
	if c.Range, err = ina219.ParseBusVoltageRange(p.Range); err != nil {
		return c, err
	}
	if c.Gain, err = ina219.ParseGain(p.Gain); err != nil {
		return c, err
	}
	if c.BusResolution, err = ina219.ParseADCResolution(p.BusADC.Resolution); err != nil {
		return c, err
	}
	if c.BusSamples, err = ina219.ParseADCSamples(p.BusADC.Samples); err != nil {
		return c, err
	}
	if c.ShuntResolution, err = ina219.ParseADCResolution(p.ShuntADC.Resolution); err != nil {
		return c, err
	}
	if c.ShuntSamples, err = ina219.ParseADCSamples(p.ShuntADC.Samples); err != nil {
		return c, err
	}
	if c.Mode, err = ina219.ParseMode(p.Mode); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Configurer is the part of ina219.Dev a profile is applied to.
type Configurer interface {
	Configure(c ina219.Config) error
	SetCalibration(v uint16) error
}

// Apply programs the configuration of p, then its calibration when it
// differs from the one Init writes.
func (p *Profile) Apply(d Configurer) error {
	c, err := p.Config()
	if err != nil {
		return err
	}
	if err := d.Configure(c); err != nil {
		return err
	}
	if p.Calibration != 0 && p.Calibration != ina219.DefaultCalibration {
		return d.SetCalibration(p.Calibration)
	}
	return nil
}

// Marshal renders p as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
