package sparring

import "time"

// Config holds configuration for a sparring run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Sessions        int           // Number of concurrent sessions
	Rounds          int           // Rounds per session
	StrikesPerRound int           // Strikes thrown per round
	FPS             int           // Send pacing; 0 streams unpaced
	Jitter          float64       // Keypoint noise in normalized units
	Transport       string        // TransportWS or TransportHTTP
	Timeout         time.Duration // HTTP request timeout
	LogFile         string        // Log file for run output
	Verbose         bool          // Enable verbose logging
}

// Stats holds aggregate statistics across all sessions of a run.
type Stats struct {
	SessionsPlanned   int
	SessionsCompleted int
	SessionsFailed    int
	FramesSent        int
	ResultsReceived   int
	StrikesThrown     int
	StrikesScored     int
	LeftScored        int
	RightScored       int
	CalibrationsDone  int
	PercentSum        int
	PercentMax        int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
