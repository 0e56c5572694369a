// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina219

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// BusVoltageRange is the full scale of the bus voltage ADC (BRNG).
type BusVoltageRange uint8

const (
	Range16V BusVoltageRange = 0 // 16V full scale
	Range32V BusVoltageRange = 1 // 32V full scale (power-on default)
)

func (r BusVoltageRange) valid() bool { return r <= Range32V }

func (r BusVoltageRange) String() string {
	switch r {
	case Range16V:
		return "16V"
	case Range32V:
		return "32V"
	}
	return fmt.Sprintf("BusVoltageRange(%d)", uint8(r))
}

// Gain is the shunt voltage programmable gain amplifier setting (PGA). Each
// step doubles the shunt full-scale range.
type Gain uint8

const (
	Gain40mV  Gain = 0 // gain 1, ±40mV
	Gain80mV  Gain = 1 // gain /2, ±80mV
	Gain160mV Gain = 2 // gain /4, ±160mV
	Gain320mV Gain = 3 // gain /8, ±320mV (power-on default)
)

func (g Gain) valid() bool { return g <= Gain320mV }

// FullScale returns the largest shunt voltage magnitude measurable at this
// gain.
func (g Gain) FullScale() physic.ElectricPotential {
	return (40 * physic.MilliVolt) << g
}

func (g Gain) String() string {
	if !g.valid() {
		return fmt.Sprintf("Gain(%d)", uint8(g))
	}
	return fmt.Sprintf("%dmV", 40<<g)
}

// ADCResolution selects the conversion resolution of the bus or shunt ADC.
// Resolutions below 12 bits are only available without averaging.
type ADCResolution uint8

const (
	Resolution9Bit  ADCResolution = 0
	Resolution10Bit ADCResolution = 1
	Resolution11Bit ADCResolution = 2
	Resolution12Bit ADCResolution = 3
)

func (r ADCResolution) valid() bool { return r <= Resolution12Bit }

func (r ADCResolution) String() string {
	if !r.valid() {
		return fmt.Sprintf("ADCResolution(%d)", uint8(r))
	}
	return fmt.Sprintf("%dbit", 9+int(r))
}

// ADCSamples is the number of 12 bit conversions averaged per result.
type ADCSamples uint8

const (
	Samples1   ADCSamples = 0
	Samples2   ADCSamples = 1
	Samples4   ADCSamples = 2
	Samples8   ADCSamples = 3
	Samples16  ADCSamples = 4
	Samples32  ADCSamples = 5
	Samples64  ADCSamples = 6
	Samples128 ADCSamples = 7
)

func (s ADCSamples) valid() bool { return s <= Samples128 }

// Count returns the number of samples averaged.
func (s ADCSamples) Count() int { return 1 << s }

func (s ADCSamples) String() string {
	if !s.valid() {
		return fmt.Sprintf("ADCSamples(%d)", uint8(s))
	}
	return fmt.Sprintf("%dx", s.Count())
}

// Mode is the operating mode of the device.
type Mode uint8

const (
	PowerDown          Mode = 0
	ShuntTriggered     Mode = 1
	BusTriggered       Mode = 2
	ShuntBusTriggered  Mode = 3
	ADCOff             Mode = 4
	ShuntContinuous    Mode = 5
	BusContinuous      Mode = 6
	ShuntBusContinuous Mode = 7 // power-on default
)

var modeNames = [...]string{
	"power-down",
	"shunt-triggered",
	"bus-triggered",
	"shunt-bus-triggered",
	"adc-off",
	"shunt-continuous",
	"bus-continuous",
	"shunt-bus-continuous",
}

func (m Mode) valid() bool { return m <= ShuntBusContinuous }

func (m Mode) String() string {
	if !m.valid() {
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
	return modeNames[m]
}

// field describes one bit field of the configuration register.
type field struct {
	name  string
	shift uint
	mask  uint16 // unshifted
}

var (
	fieldBRNG = field{name: "bus voltage range", shift: 13, mask: 0x01}
	fieldPGA  = field{name: "gain", shift: 11, mask: 0x03}
	fieldBADC = field{name: "bus adc", shift: 7, mask: 0x0f}
	fieldSADC = field{name: "shunt adc", shift: 3, mask: 0x0f}
	fieldMode = field{name: "mode", shift: 0, mask: 0x07}
)

// apply returns conf with the field replaced by v.
func (f field) apply(conf, v uint16) uint16 {
	return conf&^(f.mask<<f.shift) | (v&f.mask)<<f.shift
}

// get extracts the field from conf.
func (f field) get(conf uint16) uint16 {
	return (conf >> f.shift) & f.mask
}

// fieldValue is a validated value destined for a field.
type fieldValue struct {
	f field
	v uint16
}

// adcAveraging marks an ADC field value as a 12 bit averaging count.
const adcAveraging = 0x08

// encodeADC returns the 4 bit BADC/SADC encoding of res and samples.
func encodeADC(res ADCResolution, samples ADCSamples) (uint16, error) {
	if !res.valid() {
		return 0, fmt.Errorf("%w: resolution %s", ErrInvalidConfiguration, res)
	}
	if !samples.valid() {
		return 0, fmt.Errorf("%w: samples %s", ErrInvalidConfiguration, samples)
	}
	if res < Resolution12Bit {
		if samples > Samples1 {
			return 0, fmt.Errorf("%w: %s resolution cannot average %s", ErrInvalidConfiguration, res, samples)
		}
		return uint16(res), nil
	}
	return adcAveraging | uint16(samples), nil
}

// decodeADC is the inverse of encodeADC. Bit 2 is ignored when averaging is
// off, as the device does.
func decodeADC(v uint16) (ADCResolution, ADCSamples) {
	if v&adcAveraging != 0 {
		return Resolution12Bit, ADCSamples(v & 0x07)
	}
	return ADCResolution(v & 0x03), Samples1
}

// Config is the decoded content of the configuration register.
type Config struct {
	Range           BusVoltageRange
	Gain            Gain
	BusResolution   ADCResolution
	BusSamples      ADCSamples
	ShuntResolution ADCResolution
	ShuntSamples    ADCSamples
	Mode            Mode
}

// DefaultConfig is what Init programs into the device.
var DefaultConfig = Config{
	Range:           Range32V,
	Gain:            Gain320mV,
	BusResolution:   Resolution12Bit,
	BusSamples:      Samples8,
	ShuntResolution: Resolution12Bit,
	ShuntSamples:    Samples8,
	Mode:            ShuntBusContinuous,
}

func decodeConfig(conf uint16) Config {
	var c Config
	c.Range = BusVoltageRange(fieldBRNG.get(conf))
	c.Gain = Gain(fieldPGA.get(conf))
	c.BusResolution, c.BusSamples = decodeADC(fieldBADC.get(conf))
	c.ShuntResolution, c.ShuntSamples = decodeADC(fieldSADC.get(conf))
	c.Mode = Mode(fieldMode.get(conf))
	return c
}

// fields validates c and returns the field values that program it.
func (c Config) fields() ([]fieldValue, error) {
	if !c.Range.valid() {
		return nil, fmt.Errorf("%w: bus voltage range %s", ErrInvalidConfiguration, c.Range)
	}
	if !c.Gain.valid() {
		return nil, fmt.Errorf("%w: gain %s", ErrInvalidConfiguration, c.Gain)
	}
	if !c.Mode.valid() {
		return nil, fmt.Errorf("%w: mode %s", ErrInvalidConfiguration, c.Mode)
	}
	badc, err := encodeADC(c.BusResolution, c.BusSamples)
	if err != nil {
		return nil, err
	}
	sadc, err := encodeADC(c.ShuntResolution, c.ShuntSamples)
	if err != nil {
		return nil, err
	}
	return []fieldValue{
		{fieldBRNG, uint16(c.Range)},
		{fieldPGA, uint16(c.Gain)},
		{fieldBADC, badc},
		{fieldSADC, sadc},
		{fieldMode, uint16(c.Mode)},
	}, nil
}

// Validate reports ErrInvalidConfiguration when c cannot be programmed.
func (c Config) Validate() error {
	_, err := c.fields()
	return err
}

func (c Config) String() string {
	return fmt.Sprintf("range=%s gain=%s bus=%s/%s shunt=%s/%s mode=%s",
		c.Range, c.Gain, c.BusResolution, c.BusSamples, c.ShuntResolution, c.ShuntSamples, c.Mode)
}

// ParseBusVoltageRange parses "16V" or "32V".
func ParseBusVoltageRange(s string) (BusVoltageRange, error) {
	for r := Range16V; r <= Range32V; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown bus voltage range %q", ErrInvalidConfiguration, s)
}

// ParseGain parses a shunt full scale such as "320mV".
func ParseGain(s string) (Gain, error) {
	for g := Gain40mV; g <= Gain320mV; g++ {
		if strings.EqualFold(s, g.String()) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown gain %q", ErrInvalidConfiguration, s)
}

// ParseADCResolution parses "9bit" through "12bit".
func ParseADCResolution(s string) (ADCResolution, error) {
	for r := Resolution9Bit; r <= Resolution12Bit; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown adc resolution %q", ErrInvalidConfiguration, s)
}

// ParseADCSamples parses a sample count, with or without the trailing "x".
func ParseADCSamples(s string) (ADCSamples, error) {
	s = strings.TrimSuffix(strings.ToLower(s), "x")
	for n := Samples1; n <= Samples128; n++ {
		if s == fmt.Sprint(n.Count()) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown adc sample count %q", ErrInvalidConfiguration, s)
}

// ParseMode parses a mode name as returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, s)
}
