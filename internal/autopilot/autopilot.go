// Package autopilot is the external collaborator the controller worker
// calls into for the two non-pass-through control modes. Per spec.md's
// Non-goals, "a trivial fixed-rate controller stub" is out of scope for
// this project — the real autonomy stack lives elsewhere and is expected
// to satisfy the same two-method interface. Grounded on
// controller_worker.cpp's AUTONOMOUS / AUTONOMOUS_WITH_REMOTE_SETPOINT
// branches, which are themselves placeholders that leave motors zeroed.
package autopilot

import "robogateway/internal/gwmodel"

// Stub is the trivial autopilot: it always produces a well-defined,
// motors-zeroed Actions, satisfying the controller worker's requirement
// that AUTONOMOUS and AUTONOMOUS_WITH_REMOTE_SETPOINT always yield a
// defined output even though no real autonomy is implemented here.
type Stub struct{}

// Compute implements AUTONOMOUS: motors derived from States alone.
func (Stub) Compute(_ gwmodel.States) gwmodel.Actions {
	return gwmodel.Actions{}
}

// ComputeWithSetpoint implements AUTONOMOUS_WITH_REMOTE_SETPOINT: motors
// derived from States plus the latest remote setpoint.
func (Stub) ComputeWithSetpoint(_ gwmodel.States, _ gwmodel.Setpoint) gwmodel.Actions {
	return gwmodel.Actions{}
}
