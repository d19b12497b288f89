package sparring

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/pugil/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "spar_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the sparring tool.
func ShowHelp() {
	os.Stdout.WriteString(`Pugil Sparring Tool
===================

A synthetic sparring partner for exercising the strike scoring service:
it streams scripted pose frames at a running instance and checks that the
strikes it throws come back scored.

Usage:
  go run cmd/spar/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -sessions int
        Number of concurrent sessions to run (default 1)
  -rounds int
        Rounds per session (default 3)
  -strikes int
        Strikes thrown per round (default 10)
  -fps int
        Send pacing in frames per second; 0 streams unpaced (default 0)
  -jitter float
        Keypoint noise in shoulder-width units (default 0.005)
  -transport string
        Frame transport: "ws" for the websocket stream or "http" for
        per-frame POSTs (default "ws")
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: spar_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Spar with default settings
  go run cmd/spar/main.go

  # Eight concurrent sessions over the websocket stream
  go run cmd/spar/main.go -sessions 8 -rounds 5 -strikes 20

  # Paced like a real camera, with noisy keypoints
  go run cmd/spar/main.go -fps 30 -jitter 0.01 -verbose

  # Exercise the per-frame REST endpoint instead of the stream
  go run cmd/spar/main.go -transport http -sessions 4
`)
}
