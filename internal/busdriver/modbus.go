// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package busdriver

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

const (
	modbusSlaveID          = 1
	funcReadHoldingRegs    = 3
	modbusResponseOverhead = 9 // MBAP header + slave id + function code + byte count
)

// ModbusDriver polls holding registers of a Modbus/TCP endpoint and submits
// the 16-bit words as Integer tag values. One shared connection, re-dialed
// on error; register reads are serialized on it.
type ModbusDriver struct {
	dispatcher  *dispatch.Dispatcher
	addr        string
	defaultRate time.Duration

	// tag name -> holding register address
	registers map[string]uint16
	rates     map[string]time.Duration

	connMu sync.Mutex
	conn   net.Conn
	txnID  uint16

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewModbusDriver(d *dispatch.Dispatcher, addr string, registers map[string]uint16, defaultRate time.Duration) *ModbusDriver {
	return &ModbusDriver{
		dispatcher:  d,
		addr:        addr,
		defaultRate: defaultRate,
		registers:   registers,
		rates:       make(map[string]time.Duration),
		stop:        make(chan struct{}),
	}
}

func (m *ModbusDriver) DefaultPollRate() time.Duration {
	return m.defaultRate
}

func (m *ModbusDriver) RegisterTag(name string, pollRate *time.Duration) {
	rate := m.defaultRate
	if pollRate != nil {
		rate = *pollRate
	}
	m.rates[name] = rate
}

// CreateTag creates the Integer tag backing one holding register.
func (m *ModbusDriver) CreateTag(name string, unit schema.Unit) {
	if _, err := m.dispatcher.CreateTag(name, unit, schema.DataTypeInteger); err != nil {
		cclog.Warnf("MODBUSDRIVER > creating tag '%s' failed: %s", name, err.Error())
	}
}

func (m *ModbusDriver) Start() {
	if len(m.rates) == 0 {
		return
	}

	for name, rate := range m.rates {
		m.wg.Add(1)
		go func(name string, rate time.Duration) {
			defer m.wg.Done()
			ticker := time.NewTicker(rate)
			defer ticker.Stop()

			for {
				select {
				case <-m.stop:
					return
				case <-ticker.C:
					m.emit(name)
				}
			}
		}(name, rate)
	}

	cclog.Infof("MODBUSDRIVER > started %d tag tasks against %s", len(m.rates), m.addr)
}

func (m *ModbusDriver) Stop() {
	close(m.stop)
	m.wg.Wait()

	m.connMu.Lock()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.connMu.Unlock()
	cclog.Info("MODBUSDRIVER > stopped")
}

func (m *ModbusDriver) Poll() {
	for name := range m.rates {
		m.emit(name)
	}
}

func (m *ModbusDriver) emit(name string) {
	reg, ok := m.registers[name]
	if !ok {
		cclog.Warnf("MODBUSDRIVER > no register mapped for tag '%s'", name)
		return
	}

	word, err := m.readRegister(reg)
	if err != nil {
		cclog.Warnf("MODBUSDRIVER > reading register %d for tag '%s' failed: %s", reg, name, err.Error())
		return
	}

	now := time.Now().UTC()
	tv := schema.TagValue{
		Value:     schema.IntegerValue(int64(word)),
		Timestamp: &now,
	}

	if _, err := m.dispatcher.UpdateValue(name, tv); err != nil {
		cclog.Warnf("MODBUSDRIVER > update for tag '%s' rejected: %s", name, err.Error())
	}
}

// readRegister issues one Read Holding Registers request for a single word.
func (m *ModbusDriver) readRegister(addr uint16) (uint16, error) {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if m.conn == nil {
		conn, err := net.DialTimeout("tcp", m.addr, 2*time.Second)
		if err != nil {
			return 0, err
		}
		m.conn = conn
	}

	m.txnID++
	req := encodeReadRequest(m.txnID, addr, 1)

	word, err := m.roundTrip(req)
	if err != nil {
		// Drop the connection; the next tick re-dials.
		m.conn.Close()
		m.conn = nil
		return 0, err
	}
	return word, nil
}

func (m *ModbusDriver) roundTrip(req []byte) (uint16, error) {
	if err := m.conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return 0, err
	}

	if _, err := m.conn.Write(req); err != nil {
		return 0, err
	}

	resp := make([]byte, modbusResponseOverhead+2)
	if _, err := io.ReadFull(m.conn, resp); err != nil {
		return 0, err
	}

	return decodeReadResponse(resp)
}

// encodeReadRequest builds the 12-byte ADU: MBAP header (transaction id,
// protocol 0, length 6), slave id, function code, start address, quantity.
func encodeReadRequest(txnID, addr, quantity uint16) []byte {
	req := make([]byte, 12)
	binary.BigEndian.PutUint16(req[0:2], txnID)
	binary.BigEndian.PutUint16(req[2:4], 0)
	binary.BigEndian.PutUint16(req[4:6], 6)
	req[6] = modbusSlaveID
	req[7] = funcReadHoldingRegs
	binary.BigEndian.PutUint16(req[8:10], addr)
	binary.BigEndian.PutUint16(req[10:12], quantity)
	return req
}

// decodeReadResponse extracts the first register word of a single-register
// response.
func decodeReadResponse(resp []byte) (uint16, error) {
	if len(resp) < modbusResponseOverhead+2 {
		return 0, fmt.Errorf("short response: %d bytes", len(resp))
	}
	if resp[7] != funcReadHoldingRegs {
		return 0, fmt.Errorf("unexpected function code %d", resp[7])
	}
	if resp[8] < 2 {
		return 0, fmt.Errorf("empty register payload")
	}
	return binary.BigEndian.Uint16(resp[9:11]), nil
}
