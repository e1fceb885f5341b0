// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package busdriver

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReadRequest(t *testing.T) {
	req := encodeReadRequest(0x0102, 4, 1)
	require.Len(t, req, 12)

	assert.Equal(t, uint16(0x0102), binary.BigEndian.Uint16(req[0:2]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(req[2:4]))
	assert.Equal(t, uint16(6), binary.BigEndian.Uint16(req[4:6]))
	assert.Equal(t, uint8(modbusSlaveID), req[6])
	assert.Equal(t, uint8(funcReadHoldingRegs), req[7])
	assert.Equal(t, uint16(4), binary.BigEndian.Uint16(req[8:10]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(req[10:12]))
}

func TestDecodeReadResponse(t *testing.T) {
	resp := []byte{
		0x01, 0x02, // transaction id
		0x00, 0x00, // protocol id
		0x00, 0x05, // length
		modbusSlaveID,
		funcReadHoldingRegs,
		0x02,       // byte count
		0x03, 0xf5, // register word 1013
	}

	word, err := decodeReadResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x03f5), word)
}

func TestDecodeReadResponseErrors(t *testing.T) {
	if _, err := decodeReadResponse([]byte{0x01}); err == nil {
		t.Error("short response accepted")
	}

	bad := make([]byte, 11)
	bad[7] = 0x83 // exception response
	bad[8] = 2
	if _, err := decodeReadResponse(bad); err == nil {
		t.Error("exception function code accepted")
	}

	empty := make([]byte, 11)
	empty[7] = funcReadHoldingRegs
	empty[8] = 0
	if _, err := decodeReadResponse(empty); err == nil {
		t.Error("empty payload accepted")
	}
}
