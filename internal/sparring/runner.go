package sparring

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/pugil/internal/domain/model"
	"github.com/okian/pugil/pkg/logger"
)

// sessionOutcome pairs one scripted bout with what the service made of it.
type sessionOutcome struct {
	label     string
	bout      *Bout
	played    *boutOutcome
	restLeft  int
	restRight int
	err       error
}

// Run executes a complete sparring run against a live service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime:       time.Now(),
		SessionsPlanned: config.Sessions,
	}

	logger.Get().Info(ctx, "starting sparring run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.Sessions),
		logger.Int("rounds", config.Rounds),
		logger.Int("strikesPerRound", config.StrikesPerRound),
		logger.String("transport", config.Transport),
		logger.Int("fps", config.FPS),
		logger.Float64("jitter", config.Jitter),
		logger.String("timeout", config.Timeout.String()))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Run all sessions concurrently
	outcomes := runSessions(ctx, client, config, stats)

	// Step 3: Fetch service-wide stats
	serviceStats, err := client.ServiceStats(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to fetch service stats: %v", err)
	}

	// Step 4: Verify outcomes
	verifyErr := verifyOutcomes(config, outcomes, serviceStats, stats)

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if verifyErr != nil {
		return fmt.Errorf("outcome verification failed: %w", verifyErr)
	}

	logger.Get().Info(ctx, "sparring run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *Client) error {
	logger.Get().Info(ctx, "checking service health")
	if err := client.CheckHealth(ctx); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// runSessions plays one bout per session, all sessions in parallel, and
// folds the outcomes into stats on the caller's goroutine.
func runSessions(ctx context.Context, client *Client, config *Config, stats *Stats) []*sessionOutcome {
	log.Printf("🥊 Sparring %d session(s) of %d round(s), %d strikes per round...",
		config.Sessions, config.Rounds, config.StrikesPerRound)

	resultChan := make(chan *sessionOutcome, config.Sessions)
	for i := 0; i < config.Sessions; i++ {
		go func(n int) {
			resultChan <- runSession(ctx, client, config, fmt.Sprintf("session-%d", n+1))
		}(i)
	}

	outcomes := make([]*sessionOutcome, 0, config.Sessions)
	for i := 0; i < config.Sessions; i++ {
		out := <-resultChan
		outcomes = append(outcomes, out)
		if out.err != nil {
			stats.SessionsFailed++
			log.Printf("❌ [%s] failed: %v", out.label, out.err)
			continue
		}

		stats.SessionsCompleted++
		stats.FramesSent += out.played.framesSent
		stats.ResultsReceived += out.played.resultsReceived
		stats.StrikesThrown += len(out.bout.Strikes)
		stats.StrikesScored += len(out.played.strikes)
		if out.played.calibrated {
			stats.CalibrationsDone++
		}
		for _, s := range out.played.strikes {
			if s.Side == model.SideLeft {
				stats.LeftScored++
			} else {
				stats.RightScored++
			}
			stats.PercentSum += s.Percent
			if s.Percent > stats.PercentMax {
				stats.PercentMax = s.Percent
			}
		}

		thrownLeft, thrownRight := out.bout.ThrownBySide()
		log.Printf("✅ [%s] scored %d/%d strikes (left %d/%d, right %d/%d)",
			out.label, len(out.played.strikes), len(out.bout.Strikes),
			countSide(out.played.strikes, model.SideLeft), thrownLeft,
			countSide(out.played.strikes, model.SideRight), thrownRight)
	}
	return outcomes
}

// runSession opens one session, plays a freshly scripted bout through the
// configured transport, cross-checks the REST snapshot, and closes up.
func runSession(ctx context.Context, client *Client, config *Config, label string) *sessionOutcome {
	out := &sessionOutcome{label: label}
	out.bout = NewGenerator(config.Jitter).BuildBout(config.Rounds, config.StrikesPerRound)

	id, err := client.CreateSession(ctx)
	if err != nil {
		out.err = fmt.Errorf("create session: %w", err)
		return out
	}
	if config.Verbose {
		log.Printf("🎬 [%s] opened as %s (%d frames scripted)", label, id, len(out.bout.Frames))
	}

	switch config.Transport {
	case TransportHTTP:
		out.played, err = playBout(ctx, out.bout, config.FPS, config.Verbose, label, func(frame model.Frame) (model.StepResult, error) {
			return client.StepFrame(ctx, id, frame)
		})
	default:
		var conn *websocket.Conn
		conn, err = client.DialStream(ctx, id)
		if err != nil {
			out.err = fmt.Errorf("dial stream: %w", err)
			return out
		}
		out.played, err = playBout(ctx, out.bout, config.FPS, config.Verbose, label, streamStep(conn))
		closeStream(conn)
	}
	if err != nil {
		out.err = fmt.Errorf("play bout: %w", err)
		return out
	}

	// Pull the REST snapshot before closing so its tallies can be compared
	// with what the stream reported.
	res, err := client.SessionStats(ctx, id)
	if err != nil {
		out.err = fmt.Errorf("session stats: %w", err)
		return out
	}
	out.restLeft = res.Left.Strikes
	out.restRight = res.Right.Strikes

	if err := client.CloseSession(ctx, id); err != nil {
		out.err = fmt.Errorf("close session: %w", err)
		return out
	}
	return out
}

// closeStream performs a polite websocket shutdown.
func closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}

// countSide counts scored strikes on one side.
func countSide(strikes []model.StrikeEvent, side model.Side) int {
	n := 0
	for _, s := range strikes {
		if s.Side == side {
			n++
		}
	}
	return n
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var scoreRate, framesPerSecond, avgPercent float64

	if stats.StrikesThrown > 0 {
		scoreRate = float64(stats.StrikesScored) / float64(stats.StrikesThrown) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		framesPerSecond = float64(stats.FramesSent) / stats.Duration.Seconds()
	}
	if stats.StrikesScored > 0 {
		avgPercent = float64(stats.PercentSum) / float64(stats.StrikesScored)
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("sessionsPlanned", stats.SessionsPlanned),
		logger.Int("sessionsCompleted", stats.SessionsCompleted),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("framesSent", stats.FramesSent),
		logger.Int("resultsReceived", stats.ResultsReceived),
		logger.Int("strikesThrown", stats.StrikesThrown),
		logger.Int("strikesScored", stats.StrikesScored),
		logger.Int("leftScored", stats.LeftScored),
		logger.Int("rightScored", stats.RightScored),
		logger.Int("calibrationsDone", stats.CalibrationsDone),
		logger.Int("percentMax", stats.PercentMax),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("scoreRate", scoreRate),
		logger.Float64("avgPercent", avgPercent),
		logger.Float64("framesPerSecond", framesPerSecond))
}
