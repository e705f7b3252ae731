package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// signals coalesces notifications raised on publisher goroutines into a
// single wake-up for the stream writer. Names marked twice before the writer
// drains them are sent once.
type signals struct {
	mu      sync.Mutex
	pending []string
	wake    chan struct{}
}

func newSignals() *signals {
	return &signals{wake: make(chan struct{}, 1)}
}

func (s *signals) mark(name string) {
	s.mu.Lock()
	seen := false
	for _, p := range s.pending {
		if p == name {
			seen = true
			break
		}
	}
	if !seen {
		s.pending = append(s.pending, name)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *signals) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func startStream(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

func writeEvent(c echo.Context, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", event, b); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

func writeHeartbeat(c echo.Context) error {
	if _, err := fmt.Fprint(c.Response(), ": ping\n\n"); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
