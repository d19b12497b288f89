package sparring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/pugil/internal/domain/model"
)

// Client talks to a running service over its REST and websocket surfaces.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// sessionResponse mirrors the POST /v1/sessions reply.
type sessionResponse struct {
	ID string `json:"id"`
}

// errorResponse mirrors the error envelope the service writes.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// marshalJSON marshals a struct to JSON.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct.
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// apiError turns a non-success response into a readable error, using the
// service error envelope when the body carries one.
func apiError(resp *http.Response) error {
	body, _ := readResponseBody(resp)
	var envelope errorResponse
	if err := unmarshalJSON(body, &envelope); err == nil && envelope.Message != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, envelope.Message)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.httpClient.Do(req)
}

// post performs a POST request with an optional JSON body.
func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := marshalJSON(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// del performs a DELETE request.
func (c *Client) del(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.httpClient.Do(req)
}

// wsURL rewrites the base URL scheme for websocket dialing.
func (c *Client) wsURL(path string) string {
	u := c.baseURL + path
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// CheckHealth probes /healthz and fails on anything but 200.
func (c *Client) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return apiError(resp)
	}
	_, _ = readResponseBody(resp)
	return nil
}

// CreateSession opens a fresh session and returns its id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/v1/sessions", nil)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		return "", apiError(resp)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	var sess sessionResponse
	if err := unmarshalJSON(body, &sess); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if sess.ID == "" {
		return "", fmt.Errorf("service returned an empty session id")
	}
	return sess.ID, nil
}

// CloseSession ends a session, flushing its score history server side.
func (c *Client) CloseSession(ctx context.Context, id string) error {
	resp, err := c.del(ctx, "/v1/sessions/"+id)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != StatusNoContent {
		return apiError(resp)
	}
	_, _ = readResponseBody(resp)
	return nil
}

// StepFrame submits one frame over plain HTTP and returns its result.
func (c *Client) StepFrame(ctx context.Context, id string, frame model.Frame) (model.StepResult, error) {
	resp, err := c.post(ctx, "/v1/sessions/"+id+"/frames", frame)
	if err != nil {
		return model.StepResult{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return model.StepResult{}, apiError(resp)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return model.StepResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	var res model.StepResult
	if err := unmarshalJSON(body, &res); err != nil {
		return model.StepResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return res, nil
}

// SessionStats fetches the current engine snapshot for a session without
// advancing it.
func (c *Client) SessionStats(ctx context.Context, id string) (model.StepResult, error) {
	resp, err := c.get(ctx, "/v1/sessions/"+id+"/stats")
	if err != nil {
		return model.StepResult{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return model.StepResult{}, apiError(resp)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return model.StepResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	var res model.StepResult
	if err := unmarshalJSON(body, &res); err != nil {
		return model.StepResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return res, nil
}

// ServiceStats fetches the service-wide runtime counters.
func (c *Client) ServiceStats(ctx context.Context) (map[string]interface{}, error) {
	resp, err := c.get(ctx, "/stats")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, apiError(resp)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var stats map[string]interface{}
	if err := unmarshalJSON(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return stats, nil
}

// DialStream opens the websocket frame stream for a session.
func (c *Client) DialStream(ctx context.Context, id string) (*websocket.Conn, error) {
	u := c.wsURL("/v1/sessions/" + id + "/stream")
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream dial failed: HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("stream dial failed: %w", err)
	}
	return conn, nil
}

// boutOutcome tallies what one streamed bout produced.
type boutOutcome struct {
	framesSent      int
	resultsReceived int
	strikes         []model.StrikeEvent
	calibrated      bool
	last            model.StepResult
}

// playBout drives a scripted bout through step one frame at a time, pacing
// sends when fps is positive. Frames carry their own simulated timestamps,
// so pacing shapes network load, not engine time.
func playBout(ctx context.Context, bout *Bout, fps int, verbose bool, label string, step func(model.Frame) (model.StepResult, error)) (*boutOutcome, error) {
	var pace *time.Ticker
	if fps > 0 {
		pace = time.NewTicker(time.Second / time.Duration(fps))
		defer pace.Stop()
	}

	outcome := &boutOutcome{}
	for i, frame := range bout.Frames {
		if pace != nil {
			select {
			case <-ctx.Done():
				return outcome, ctx.Err()
			case <-pace.C:
			}
		} else if err := ctx.Err(); err != nil {
			return outcome, err
		}

		res, err := step(frame)
		if err != nil {
			return outcome, err
		}
		outcome.framesSent++
		outcome.resultsReceived++
		outcome.last = res

		if res.Calibration == model.CalibrationComplete {
			outcome.calibrated = true
		}
		if res.Strike != nil {
			outcome.strikes = append(outcome.strikes, *res.Strike)
			if verbose {
				log.Printf("🥊 [%s] %s strike at %.2fs (power %.2f, %d%%)",
					label, res.Strike.Side, res.Strike.At, res.Strike.Power, res.Strike.Percent)
			}
		}

		if verbose && (i+1)%ProgressInterval == 0 {
			log.Printf("📊 [%s] streamed %d/%d frames (%d strikes)",
				label, i+1, len(bout.Frames), len(outcome.strikes))
		}
	}
	return outcome, nil
}

// streamStep adapts a websocket connection into a step function: the stream
// answers every frame with exactly one result, in order.
func streamStep(conn *websocket.Conn) func(model.Frame) (model.StepResult, error) {
	return func(frame model.Frame) (model.StepResult, error) {
		if err := conn.WriteJSON(frame); err != nil {
			return model.StepResult{}, fmt.Errorf("frame write failed: %w", err)
		}
		var res model.StepResult
		if err := conn.ReadJSON(&res); err != nil {
			return model.StepResult{}, fmt.Errorf("result read failed: %w", err)
		}
		return res, nil
	}
}
