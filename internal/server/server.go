// Package server is the websocket bridge to the browser extension: one
// connection, JSON requests in, one JSON response per request.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/lotas/tabsammlung/internal/applog"
	"github.com/lotas/tabsammlung/internal/organizer"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Server accepts the extension connection and dispatches its actions.
type Server struct {
	port        int
	org         *organizer.Organizer
	alarmStatus AlarmStatusFunc

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a Server.
func New(port int, org *organizer.Organizer, alarmStatus AlarmStatusFunc) *Server {
	return &Server{port: port, org: org, alarmStatus: alarmStatus}
}

// Handler returns an http.Handler that upgrades to websocket and serves
// the request/response loop. A handler panic or a bad payload never
// takes the loop down; per-request errors are answered in-band.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // large tab batches

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var req Request
			if err := json.Unmarshal(data, &req); err != nil {
				applog.Error("ws.parse", err)
				s.reply(ctx, conn, Response{Status: "error", Error: "malformed request"})
				continue
			}

			applog.Info("ws.recv", "action", req.Action)
			resp := Dispatch(ctx, s.org, s.alarmStatus, req)
			s.reply(ctx, conn, resp)
		}
	})
}

func (s *Server) reply(ctx context.Context, conn *websocket.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		applog.Error("ws.encode", err)
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		applog.Error("ws.send", err, "action", resp.Status)
	}
}

// Connected reports whether an extension is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// ListenAndServe serves the bridge until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return fmt.Errorf("websocket server: %w", err)
	}
}
