package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/pugil/internal/sparring"
)

// Default configuration constants.
const (
	defaultSessions   = 1
	defaultRounds     = 3
	defaultStrikes    = 10
	defaultJitter     = 0.005
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		sessions  = flag.Int("sessions", defaultSessions, "Number of concurrent sessions to run")
		rounds    = flag.Int("rounds", defaultRounds, "Rounds per session")
		strikes   = flag.Int("strikes", defaultStrikes, "Strikes thrown per round")
		fps       = flag.Int("fps", 0, "Send pacing in frames per second; 0 streams unpaced")
		jitter    = flag.Float64("jitter", defaultJitter, "Keypoint noise in shoulder-width units")
		transport = flag.String("transport", sparring.TransportWS, "Frame transport: ws or http")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile   = flag.String("log", "", "Log file for run output (default: spar_log_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sparring.ShowHelp()
		return
	}

	// Setup logging
	if err := sparring.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Clamp the script shape to something playable
	if *sessions < 1 {
		*sessions = defaultSessions
	}
	if *rounds < 1 {
		*rounds = defaultRounds
	}
	if *strikes < 1 {
		*strikes = defaultStrikes
	}
	if *fps < 0 {
		*fps = 0
	}
	if *fps > sparring.MaxFPS {
		*fps = sparring.MaxFPS
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &sparring.Config{
		BaseURL:         *baseURL,
		Sessions:        *sessions,
		Rounds:          *rounds,
		StrikesPerRound: *strikes,
		FPS:             *fps,
		Jitter:          *jitter,
		Transport:       *transport,
		Timeout:         *timeout,
		LogFile:         *logFile,
		Verbose:         *verbose,
	}

	// Run the bout
	if err := sparring.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Sparring run failed: " + err.Error() + "\n")
		return
	}
}
