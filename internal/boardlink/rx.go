package boardlink

import "robogateway/internal/gwmodel"

// rxLoop continuously synchronizes on the board's frame header, reads
// and checksums the body, and dispatches by function code into the
// shared States snapshot. It exits when Stop closes d.stopCh (observed
// via readExact) or a read error occurs. Grounded on rosmaster.cpp's
// rx_loop/parse_payload.
func (d *Driver) rxLoop() {
	defer d.wg.Done()

	var h [2]byte
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		if err := d.readExact(h[:1]); err != nil {
			if d.stopping() {
				return
			}
			continue
		}
		if h[0] != Head {
			continue
		}

		if err := d.readExact(h[1:2]); err != nil {
			if d.stopping() {
				return
			}
			continue
		}
		if h[1] != DeviceID-1 {
			continue
		}

		var lenType [2]byte
		if err := d.readExact(lenType[:]); err != nil {
			if d.stopping() {
				return
			}
			continue
		}
		extLen, extType := lenType[0], lenType[1]

		dataLen := int(extLen) - 2
		if dataLen <= 0 || dataLen > maxRxPayload {
			continue
		}

		body := make([]byte, dataLen)
		if err := d.readExact(body); err != nil {
			if d.stopping() {
				return
			}
			continue
		}

		rxCheck := body[len(body)-1]
		if checksumRX(extLen, extType, body[:len(body)-1]) != rxCheck {
			continue
		}

		d.parsePayload(extType, body[:len(body)-1])

		d.evMu.Lock()
		d.evCount[extType]++
		d.evCond.Broadcast()
		d.evMu.Unlock()
	}
}

func (d *Driver) stopping() bool {
	select {
	case <-d.stopCh:
		return true
	default:
		return false
	}
}

// parsePayload decodes one function code's body into the shared state.
// Unrecognized or short payloads are dropped silently, matching
// rosmaster.cpp's length-gated dispatch.
func (d *Driver) parsePayload(extType byte, body []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch extType {
	case funcReportSpeed:
		if len(body) >= 7 {
			d.state.BatteryVoltage = float32(body[6]) / 10.0
		}
	case funcReportMPURaw:
		if len(body) >= 18 {
			gyro := scaleVec3(rearrangeGyro(parseVec3(body[0:6])), gyroRatio)
			acc := scaleVec3(parseVec3(body[6:12]), accelRatio)
			mag := scaleVec3(parseVec3(body[12:18]), magRatio)
			d.state.IMU.Gyro = gyro
			d.state.IMU.Acc = acc
			d.state.IMU.Mag = mag
		}
	case funcReportICMRaw:
		if len(body) >= 18 {
			const milliRatio = 1.0 / 1000.0
			d.state.IMU.Gyro = scaleVec3(parseVec3(body[0:6]), milliRatio)
			d.state.IMU.Acc = scaleVec3(parseVec3(body[6:12]), milliRatio)
			d.state.IMU.Mag = scaleVec3(parseVec3(body[12:18]), milliRatio)
		}
	case funcReportIMUAtt:
		if len(body) >= 6 {
			d.state.Angles.Roll = float32(leInt16(body[0:2])) / 10000.0
			d.state.Angles.Pitch = float32(leInt16(body[2:4])) / 10000.0
			d.state.Angles.Yaw = float32(leInt16(body[4:6])) / 10000.0
		}
	case funcReportEncoder:
		if len(body) >= 16 {
			d.state.Encoders.E1 = leInt32(body[0:4])
			d.state.Encoders.E2 = leInt32(body[4:8])
			d.state.Encoders.E3 = leInt32(body[8:12])
			d.state.Encoders.E4 = leInt32(body[12:16])
		}
	case funcVersion:
		if len(body) >= 2 {
			d.ver.high, d.ver.low = body[0], body[1]
			d.ver.value = float32(d.ver.high) + float32(d.ver.low)/10.0
		}
	}
}

func parseVec3(b []byte) gwmodel.Vec3 {
	return gwmodel.Vec3{
		X: float32(leInt16(b[0:2])),
		Y: float32(leInt16(b[2:4])),
		Z: float32(leInt16(b[4:6])),
	}
}

func scaleVec3(v gwmodel.Vec3, scale float64) gwmodel.Vec3 {
	s := float32(scale)
	return gwmodel.Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// rearrangeGyro applies the board's axis remapping for the gyro channel
// only, per core/basic.cpp's rearrange_gyro.
func rearrangeGyro(v gwmodel.Vec3) gwmodel.Vec3 {
	return gwmodel.Vec3{X: v.X, Y: -v.Y, Z: -v.Z}
}
