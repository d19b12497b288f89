// Package model contains domain models passed between layers.
package model

// Canonical keypoint names. Frames may carry extra points; the engine only
// reads these six.
const (
	KeyLeftShoulder  = "left_shoulder"
	KeyRightShoulder = "right_shoulder"
	KeyLeftElbow     = "left_elbow"
	KeyRightElbow    = "right_elbow"
	KeyLeftWrist     = "left_wrist"
	KeyRightWrist    = "right_wrist"
)

// Side identifies a limb.
type Side string

// Limb sides.
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Keypoint is one detected pose point in planar image coordinates, with the
// detector's confidence in [0,1]. Units are whatever the pose source emits;
// the engine normalizes by shoulder span so any consistent unit works.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"c"`
}

// Frame is a single pose observation. Timestamp is caller time in seconds
// and must be monotonic non-decreasing within a session; the engine never
// reads a wall clock.
type Frame struct {
	Timestamp float64             `json:"t"`
	Keypoints map[string]Keypoint `json:"keypoints"`
}

// Get returns the named keypoint, reporting whether it was present.
func (f Frame) Get(name string) (Keypoint, bool) {
	kp, ok := f.Keypoints[name]
	return kp, ok
}
