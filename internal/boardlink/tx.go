package boardlink

import "time"

// sendFixed5 writes a fixed 7-byte frame: [HEAD, DEVICE_ID, 0x05, func,
// p0, p1, checksum]. Grounded on rosmaster.cpp's send_fixed5.
func (d *Driver) sendFixed5(fn, p0, p1 byte) error {
	frame := [7]byte{Head, DeviceID, 0x05, fn, p0, p1, 0}
	frame[6] = checksumTX(frame[:6])
	return d.writeFrame(frame[:])
}

// sendVar writes a variable-length frame: [HEAD, DEVICE_ID, len-1, func,
// payload..., checksum]. Grounded on rosmaster.cpp's send_var.
func (d *Driver) sendVar(fn byte, payload []byte) error {
	frame := make([]byte, 0, 4+len(payload)+1)
	frame = append(frame, Head, DeviceID, 0x00, fn)
	frame = append(frame, payload...)
	frame[2] = byte(len(frame) - 1)
	frame = append(frame, checksumTX(frame))
	return d.writeFrame(frame)
}

func (d *Driver) writeFrame(frame []byte) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if _, err := d.port.Write(frame); err != nil {
		return err
	}
	time.Sleep(cmdDelay)
	return nil
}

// SetMotor clamps each of the four channels per the motor clamp rule
// (127 = keep, else clamp to [-100,100]) and sends them as a variable
// frame.
func (d *Driver) SetMotor(m1, m2, m3, m4 int16) error {
	a := limitMotorValue(m1)
	b := limitMotorValue(m2)
	c := limitMotorValue(m3)
	e := limitMotorValue(m4)
	return d.sendVar(funcMotor, []byte{byte(a), byte(b), byte(c), byte(e)})
}

// SetBeep requests the board beep for onTimeMs milliseconds.
func (d *Driver) SetBeep(onTimeMs int) error {
	v := int16(onTimeMs)
	return d.sendFixed5(funcBeep, byte(v), byte(v>>8))
}

// SetAutoReportState enables or disables the board's unsolicited sensor
// reports. forever selects the board's "persist across power cycles"
// variant (encoded as 0x5F in the second parameter byte).
func (d *Driver) SetAutoReportState(enable, forever bool) error {
	state1 := byte(0)
	if enable {
		state1 = 1
	}
	state2 := byte(0)
	if forever {
		state2 = 0x5F
	}
	return d.sendFixed5(funcAutoReport, state1, state2)
}

// RequestData asks the board to emit one frame of the given function,
// e.g. funcVersion. The reply arrives asynchronously via the RX loop;
// callers use AwaitType to wait for it.
func (d *Driver) RequestData(fn, param byte) error {
	return d.sendFixed5(funcRequestData, fn, param)
}

// Version requests and waits for the board's firmware version. Returns
// -1 if no reply arrives within timeout. Grounded on rosmaster.cpp's
// get_version, simplified to a single blocking round trip since nothing
// in this gateway needs Python's "cached after first call" behavior.
func (d *Driver) Version(timeout time.Duration) float32 {
	if err := d.RequestData(funcVersion, 0); err != nil {
		return -1
	}
	if !d.AwaitType(funcVersion, timeout) {
		return -1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ver.value
}
