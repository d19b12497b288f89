package sparring

import "time"

// HTTP status codes used by the client.
const (
	// StatusOK indicates a successful request.
	StatusOK = 200
	// StatusCreated indicates a session was opened.
	StatusCreated = 201
	// StatusNoContent indicates a session was closed.
	StatusNoContent = 204
)

// Frame transports.
const (
	// TransportWS streams frames over the websocket endpoint.
	TransportWS = "ws"
	// TransportHTTP submits frames as individual POSTs.
	TransportHTTP = "http"
)

// Streaming and pacing constants.
const (
	// FrameRate is the simulated camera rate baked into frame timestamps.
	FrameRate = 30
	// MaxFPS caps the send pacing to something a camera could plausibly do.
	MaxFPS = 240
	// ProgressInterval controls how often streaming progress is logged.
	ProgressInterval = 120
	// HealthCheckTimeout bounds the initial service health probe.
	HealthCheckTimeout = 5 * time.Second
	// PercentageMultiplier converts a ratio to a percentage.
	PercentageMultiplier = 100
)

// Geometry constants for the synthetic fighter, in shoulder-width units.
const (
	// GuardOffset is the resting wrist position in front of the shoulders.
	GuardOffset = 0.35
	// JabExtent is how far a jab travels beyond the shoulder line.
	JabExtent = 0.65
	// CalibrationReach is the arm extension shown during the calibration swing.
	CalibrationReach = 0.617
)
