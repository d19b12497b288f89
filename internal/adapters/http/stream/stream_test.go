package stream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okian/pugil/internal/adapters/http/stream"
	"github.com/okian/pugil/internal/domain/model"
	logging "github.com/okian/pugil/pkg/logger"
)

type mockStepper struct {
	known   map[string]bool
	stepErr error
	steps   int
}

func (m *mockStepper) HasSession(ctx context.Context, id string) bool {
	return m.known[id]
}

func (m *mockStepper) Step(ctx context.Context, id string, frame model.Frame) (model.StepResult, error) {
	if m.stepErr != nil {
		return model.StepResult{}, m.stepErr
	}
	m.steps++
	return model.StepResult{
		Left:        model.LimbStats{Strikes: m.steps},
		Calibration: model.CalibrationCollecting,
	}, nil
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestStreamHandler_RoundTrip(t *testing.T) {
	_ = logging.Init()

	svc := &mockStepper{known: map[string]bool{"abc": true}}
	srv := httptest.NewServer(stream.NewHandler(svc))
	defer srv.Close()

	conn, resp, err := dial(t, srv, "/v1/sessions/abc/stream")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	}()

	frame := model.Frame{
		Timestamp: 0.5,
		Keypoints: map[string]model.Keypoint{
			model.KeyLeftWrist: {X: 0.4, Y: 0.5, Confidence: 0.9},
		},
	}
	for i := 0; i < 3; i++ {
		if err := conn.WriteJSON(frame); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
		var res model.StepResult
		if err := conn.ReadJSON(&res); err != nil {
			t.Fatalf("read result %d: %v", i, err)
		}
		if res.Left.Strikes != i+1 {
			t.Errorf("result %d: strikes = %d, want %d", i, res.Left.Strikes, i+1)
		}
		if res.Calibration != model.CalibrationCollecting {
			t.Errorf("result %d: calibration = %q", i, res.Calibration)
		}
	}
}

func TestStreamHandler_UnknownSession(t *testing.T) {
	_ = logging.Init()

	svc := &mockStepper{known: map[string]bool{}}
	srv := httptest.NewServer(stream.NewHandler(svc))
	defer srv.Close()

	conn, resp, err := dial(t, srv, "/v1/sessions/missing/stream")
	if err == nil {
		_ = conn.Close()
		t.Fatal("expected handshake to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
	_ = resp.Body.Close()
}

func TestStreamHandler_StepError(t *testing.T) {
	_ = logging.Init()

	svc := &mockStepper{
		known:   map[string]bool{"abc": true},
		stepErr: errors.New("session not found"),
	}
	srv := httptest.NewServer(stream.NewHandler(svc))
	defer srv.Close()

	conn, resp, err := dial(t, srv, "/v1/sessions/abc/stream")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(model.Frame{Timestamp: 1}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var res model.StepResult
	err = conn.ReadJSON(&res)
	if err == nil {
		t.Fatal("expected a close error after step failure")
	}
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Errorf("close code = %d, want %d", closeErr.Code, websocket.ClosePolicyViolation)
	}
}
