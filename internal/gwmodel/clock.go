package gwmodel

import "time"

var monoOrigin = time.Now()

// Now returns the current Timestamps pair: wall-clock seconds since the
// system epoch, and monotonic seconds since this process's fixed
// monotonic origin (taken at package init). Grounded on the C++
// gateway's workers::now_timestamps (shared_state.hpp).
func Now() Timestamps {
	wall := time.Now()
	return Timestamps{
		EpochS: float64(wall.UnixNano()) / 1e9,
		MonoS:  wall.Sub(monoOrigin).Seconds(),
	}
}
