// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package modbussim

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
)

const (
	slaveID     = 1
	broadcastID = 0xff

	updateInterval = 100 * time.Millisecond
)

// Serve binds addr and accepts connections until ctx is cancelled, one
// goroutine per connection. The sensor bank ticks on its own cadence. The
// returned error is the bind error only; everything later is logged.
func Serve(ctx context.Context, addr string, wg *sync.WaitGroup) error {
	sensors := NewSensors()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	cclog.Infof("MODBUSSIM > listening on %s", addr)

	wg.Add(2)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(updateInterval)
		defer ticker.Stop()
		start := time.Now()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sensors.Update(time.Since(start))
			}
		}
	}()

	go func() {
		defer wg.Done()
		<-ctx.Done()
		listener.Close()
	}()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					cclog.Warnf("MODBUSSIM > accept failed: %s", err.Error())
					continue
				}
			}

			go func() {
				if err := handleConn(conn, sensors); err != nil {
					cclog.Warnf("MODBUSSIM > client error: %s", err.Error())
				}
			}()
		}
	}()

	return nil
}

// handleConn serves request frames until the peer hangs up. Frames shorter
// than an ADU header or addressed to another slave are skipped, matching
// permissive field-device behavior.
func handleConn(conn net.Conn, sensors *Sensors) error {
	defer conn.Close()
	buf := make([]byte, 260)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}

		if n < 12 {
			continue
		}
		if buf[6] != slaveID && buf[6] != broadcastID {
			continue
		}

		resp := BuildResponse(buf[:n], sensors)
		if resp == nil {
			continue
		}

		if _, err := conn.Write(resp); err != nil {
			return err
		}
	}
}

// BuildResponse answers one request ADU. The response echoes the
// transaction id, sets length = 3 + 2*quantity and carries the register
// words big-endian.
func BuildResponse(req []byte, sensors *Sensors) []byte {
	if len(req) < 12 {
		return nil
	}

	function := req[7]
	start := binary.BigEndian.Uint16(req[8:10])
	count := binary.BigEndian.Uint16(req[10:12])

	values := sensors.Read(start, count)

	byteCount := count * 2
	resp := make([]byte, 9+int(byteCount))

	copy(resp[0:2], req[0:2]) // transaction id
	binary.BigEndian.PutUint16(resp[2:4], 0)
	binary.BigEndian.PutUint16(resp[4:6], 3+byteCount)
	resp[6] = slaveID
	resp[7] = function
	resp[8] = byte(byteCount)

	for i, val := range values {
		binary.BigEndian.PutUint16(resp[9+i*2:], val)
	}

	return resp
}
