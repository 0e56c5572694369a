// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina219

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"
)

// I²C addresses selected with the A1 and A0 pins.
const (
	Address40 uint16 = 0x40 // A1=GND A0=GND
	Address41 uint16 = 0x41 // A1=GND A0=VS
	Address44 uint16 = 0x44 // A1=VS A0=GND
	Address45 uint16 = 0x45 // A1=VS A0=VS

	DefaultAddress = Address40
)

// DefaultCalibration is the calibration register value written by Init.
const DefaultCalibration uint16 = 4096

const (
	regConfig       uint8 = 0x00 // CONFIGURATION REGISTER (R/W)
	regShuntVoltage uint8 = 0x01 // SHUNT VOLTAGE REGISTER (R)
	regBusVoltage   uint8 = 0x02 // BUS VOLTAGE REGISTER (R)
	regPower        uint8 = 0x03 // POWER REGISTER (R)
	regCurrent      uint8 = 0x04 // CURRENT REGISTER (R)
	regCalibration  uint8 = 0x05 // CALIBRATION REGISTER (R/W)

	configReset uint16 = 0x8000

	// Bus voltage status bits, below the 13 bit measurement.
	busConversionReady uint16 = 0x02
	busOverflow        uint16 = 0x01

	shuntVoltageLSB = 10 * physic.MicroVolt
	busVoltageLSB   = 4 * physic.MilliVolt
	currentLSB      = physic.MilliAmpere
	powerLSB        = 20 * physic.MilliWatt

	minSenseInterval = time.Millisecond
)

var (
	// ErrNotPresent is returned by Init when the device does not acknowledge
	// its address. The caller may retry after a delay.
	ErrNotPresent = errors.New("ina219: device not present")
	// ErrInvalidConfiguration is returned for a configuration the device
	// cannot encode, such as a sub 12 bit resolution with averaging.
	ErrInvalidConfiguration = errors.New("ina219: invalid configuration")
	// ErrInvalidCalibration is returned for calibration inputs that do not
	// yield a usable calibration register value.
	ErrInvalidCalibration = errors.New("ina219: invalid calibration")
	// ErrInvalidAddress is returned by New for an address the A0/A1 pins
	// cannot select.
	ErrInvalidAddress = errors.New("ina219: invalid address")
)

// Opts holds the configuration options.
type Opts struct {
	Address uint16
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Address: DefaultAddress,
}

// PowerMonitor represents measurements from the ina219.
type PowerMonitor struct {
	Shunt   physic.ElectricPotential
	Voltage physic.ElectricPotential
	Current physic.ElectricCurrent
	Power   physic.Power
	// Ready is the conversion ready flag of the bus voltage register.
	Ready bool
	// Overflow is set when the power or current calculation overflowed.
	Overflow bool
}

func (p PowerMonitor) String() string {
	s := fmt.Sprintf("Bus: %s, Shunt: %s, Current: %s, Power: %s", p.Voltage, p.Shunt, p.Current, p.Power)
	if p.Overflow {
		s += " (overflow)"
	}
	return s
}

// Dev is a handle to an ina219 sensor.
//
// Every exported method is one or two register transactions on the bus. The
// handle only remembers the last calibration value it wrote.
type Dev struct {
	c *i2c.Dev
	m *mmr.Dev8

	mu   sync.Mutex
	cal  uint16
	stop chan struct{}
}

// New returns a handle to an ina219 on bus. No transaction is issued; call
// Init before reading.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	switch opts.Address {
	case Address40, Address41, Address44, Address45:
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidAddress, opts.Address)
	}
	c := &i2c.Dev{Bus: bus, Addr: opts.Address}
	return &Dev{
		c:   c,
		m:   &mmr.Dev8{Conn: c, Order: binary.BigEndian},
		cal: DefaultCalibration,
	}, nil
}

// Probe reports whether the device acknowledges a one byte read. Bus errors
// are logged and reported as false.
func (d *Dev) Probe() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.probe()
}

func (d *Dev) probe() bool {
	var b [1]byte
	if err := d.c.Tx(nil, b[:]); err != nil {
		log.Printf("ina219: probe 0x%02x: %v", d.c.Addr, err)
		return false
	}
	return true
}

// Init probes the device and programs DefaultConfig and DefaultCalibration.
//
// It returns ErrNotPresent, without touching any register, when the probe
// fails. It is safe to call again, e.g. after Reset.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.probe() {
		return fmt.Errorf("%w at 0x%02x", ErrNotPresent, d.c.Addr)
	}
	if err := d.configure(DefaultConfig); err != nil {
		return err
	}
	return d.writeCalibration(DefaultCalibration)
}

// Configure programs every field of c in a single read-modify-write cycle.
func (d *Dev) Configure(c Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configure(c)
}

func (d *Dev) configure(c Config) error {
	fvs, err := c.fields()
	if err != nil {
		return err
	}
	return d.setFields(fvs...)
}

// Config reads back the configuration register.
func (d *Dev) Config() (Config, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conf, err := d.readRegister(regConfig)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(conf), nil
}

// SetBusVoltageRange sets the bus voltage full scale.
func (d *Dev) SetBusVoltageRange(r BusVoltageRange) error {
	if !r.valid() {
		return fmt.Errorf("%w: %s %s", ErrInvalidConfiguration, fieldBRNG.name, r)
	}
	return d.setField(fieldBRNG, uint16(r))
}

// SetGain sets the shunt voltage gain and therefore its full scale.
func (d *Dev) SetGain(g Gain) error {
	if !g.valid() {
		return fmt.Errorf("%w: %s %s", ErrInvalidConfiguration, fieldPGA.name, g)
	}
	return d.setField(fieldPGA, uint16(g))
}

// SetBusADC sets the bus voltage ADC resolution or, at 12 bits, the number of
// averaged samples.
//
// A resolution under 12 bits combined with more than one sample returns
// ErrInvalidConfiguration and leaves the device untouched.
func (d *Dev) SetBusADC(res ADCResolution, samples ADCSamples) error {
	v, err := encodeADC(res, samples)
	if err != nil {
		return err
	}
	return d.setField(fieldBADC, v)
}

// SetShuntADC is SetBusADC for the shunt voltage ADC.
func (d *Dev) SetShuntADC(res ADCResolution, samples ADCSamples) error {
	v, err := encodeADC(res, samples)
	if err != nil {
		return err
	}
	return d.setField(fieldSADC, v)
}

// SetMode sets the operating mode.
func (d *Dev) SetMode(m Mode) error {
	if !m.valid() {
		return fmt.Errorf("%w: %s %s", ErrInvalidConfiguration, fieldMode.name, m)
	}
	return d.setField(fieldMode, uint16(m))
}

func (d *Dev) setField(f field, v uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setFields(fieldValue{f, v})
}

// setFields replaces the given fields of the configuration register and
// leaves every other bit as read.
func (d *Dev) setFields(fvs ...fieldValue) error {
	conf, err := d.readRegister(regConfig)
	if err != nil {
		return err
	}
	// The reset bit self clears; never write it back.
	conf &^= configReset
	for _, fv := range fvs {
		conf = fv.f.apply(conf, fv.v)
	}
	return d.writeRegister(regConfig, conf)
}

// Reset restores the power-on defaults of every register. Init or the
// setters must be called again afterwards.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(regConfig, configReset)
}

// Calibration returns the last calibration value written to the device.
func (d *Dev) Calibration() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cal
}

// SetCalibration writes v, rounded down to an even number, to the
// calibration register.
func (d *Dev) SetCalibration(v uint16) error {
	if v&^1 == 0 {
		return fmt.Errorf("%w: calibration value %d", ErrInvalidCalibration, v)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeCalibration(v)
}

// CalibrateLinear corrects the calibration register from a current the
// device reported (measured) and the same current read on a reference meter.
//
// The new value is round(reference / measured * current calibration),
// forced even.
func (d *Dev) CalibrateLinear(measured, reference physic.ElectricCurrent) error {
	if measured <= 0 {
		return fmt.Errorf("%w: measured current %s", ErrInvalidCalibration, measured)
	}
	if reference <= 0 {
		return fmt.Errorf("%w: reference current %s", ErrInvalidCalibration, reference)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cal := math.Round(float64(reference) / float64(measured) * float64(d.cal))
	if cal < 2 || cal > math.MaxUint16 {
		return fmt.Errorf("%w: %s/%s scales calibration %d out of range", ErrInvalidCalibration, reference, measured, d.cal)
	}
	return d.writeCalibration(uint16(cal))
}

func (d *Dev) writeCalibration(v uint16) error {
	v &^= 1
	if err := d.writeRegister(regCalibration, v); err != nil {
		return err
	}
	d.cal = v
	return nil
}

// ShuntVoltage reads the voltage across the shunt resistor.
func (d *Dev) ShuntVoltage() (physic.ElectricPotential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRegister(regShuntVoltage)
	if err != nil {
		return 0, err
	}
	return shuntVoltage(raw), nil
}

// BusVoltage reads the voltage between IN- and ground.
func (d *Dev) BusVoltage() (physic.ElectricPotential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRegister(regBusVoltage)
	if err != nil {
		return 0, err
	}
	return busVoltage(raw), nil
}

// Current reads the current register. The value is positive when current
// flows from IN+ to IN-.
func (d *Dev) Current() (physic.ElectricCurrent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRegister(regCurrent)
	if err != nil {
		return 0, err
	}
	return current(raw), nil
}

// Power reads the power register.
func (d *Dev) Power() (physic.Power, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readRegister(regPower)
	if err != nil {
		return 0, err
	}
	return power(raw), nil
}

// Sense reads all four measurement registers into p.
func (d *Dev) Sense(p *PowerMonitor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var raw [4]uint16
	// Reading power clears the conversion ready flag, so the bus voltage
	// must come first.
	for i, reg := range []uint8{regShuntVoltage, regBusVoltage, regCurrent, regPower} {
		v, err := d.readRegister(reg)
		if err != nil {
			return err
		}
		raw[i] = v
	}
	p.Shunt = shuntVoltage(raw[0])
	p.Voltage = busVoltage(raw[1])
	p.Ready = raw[1]&busConversionReady != 0
	p.Overflow = raw[1]&busOverflow != 0
	p.Current = current(raw[2])
	p.Power = power(raw[3])
	return nil
}

// SenseContinuous reads the device every interval and sends the result on
// the returned channel until Halt is called. Read errors are logged and the
// sample skipped.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan PowerMonitor, error) {
	if interval < minSenseInterval {
		return nil, fmt.Errorf("ina219: invalid interval %s, minimum %s", interval, minSenseInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("ina219: already sensing continuously")
	}
	d.stop = make(chan struct{})
	ch := make(chan PowerMonitor, 16)
	go d.sense(interval, ch, d.stop)
	return ch, nil
}

func (d *Dev) sense(interval time.Duration, ch chan<- PowerMonitor, stop <-chan struct{}) {
	defer close(ch)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			var p PowerMonitor
			if err := d.Sense(&p); err != nil {
				log.Printf("ina219: %v", err)
				continue
			}
			select {
			case ch <- p:
			case <-stop:
				return
			}
		}
	}
}

// Halt stops a SenseContinuous loop. The device keeps its configuration;
// use SetMode(PowerDown) to stop conversions.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ina219{%s}", d.c)
}

func (d *Dev) readRegister(reg uint8) (uint16, error) {
	v, err := d.m.ReadUint16(reg)
	if err != nil {
		return 0, fmt.Errorf("ina219: read register 0x%02x: %w", reg, err)
	}
	return v, nil
}

// writeRegister writes v high byte first.
func (d *Dev) writeRegister(reg uint8, v uint16) error {
	if err := d.m.WriteUint16(reg, v); err != nil {
		return fmt.Errorf("ina219: write register 0x%02x: %w", reg, err)
	}
	return nil
}

// signExtend interprets v as a 16 bit two's complement number.
func signExtend(v uint16) int16 {
	return int16(v)
}

func shuntVoltage(raw uint16) physic.ElectricPotential {
	return physic.ElectricPotential(signExtend(raw)) * shuntVoltageLSB
}

// busVoltage drops the CNVR and OVF status bits and the unused bit 2.
func busVoltage(raw uint16) physic.ElectricPotential {
	return physic.ElectricPotential(raw>>3) * busVoltageLSB
}

func current(raw uint16) physic.ElectricCurrent {
	return physic.ElectricCurrent(signExtend(raw)) * currentLSB
}

func power(raw uint16) physic.Power {
	return physic.Power(raw) * powerLSB
}

var _ conn.Resource = &Dev{}
