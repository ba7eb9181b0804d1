// Package feed streams a conversation transcript to WebSocket clients.
//
// A client first receives the transcript snapshot and then every event
// appended afterwards, each as one JSON text message encoding core.Event.
// Events are sent in Seq order without duplicates. The optional query
// parameter "since" skips events with Seq <= since, so reconnecting clients
// can resume.
package feed

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
)

// Source is the transcript consumer surface of an orchestrator.
type Source interface {
	Transcript() ([]core.Event, error)
	Subscribe() (<-chan core.Event, func())
}

// Options configures a Handler.
type Options struct {
	// AllowedOrigins restricts the Origin header. Empty allows same-host
	// requests only; "*" allows any origin.
	AllowedOrigins []string
	// WriteTimeout bounds each message write. Defaults to 10s.
	WriteTimeout time.Duration
	Logger       logging.Logger
}

// Handler serves one conversation's transcript over WebSocket.
type Handler struct {
	source   Source
	opts     Options
	upgrader websocket.Upgrader
}

// NewHandler creates a handler streaming events from src.
func NewHandler(src Source, optFns ...func(o *Options)) *Handler {
	opts := Options{WriteTimeout: 10 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	h := &Handler{source: src, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.opts.AllowedOrigins) == 0 {
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}

	// Subscribe before taking the snapshot so nothing appended in between
	// is lost; duplicates are filtered by Seq.
	live, cancel := h.source.Subscribe()
	defer cancel()

	backlog, err := h.source.Transcript()
	if err != nil {
		http.Error(w, "transcript unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last := since
	send := func(ev core.Event) bool {
		if ev.Seq <= last {
			return true
		}
		if err := conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout)); err != nil {
			return false
		}
		if err := conn.WriteJSON(ev); err != nil {
			h.opts.Logger.Debug("websocket write failed", "error", err)
			return false
		}
		last = ev.Seq
		return true
	}

	for _, ev := range backlog {
		if !send(ev) {
			return
		}
	}
	for {
		select {
		case ev, ok := <-live:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "transcript closed"),
					time.Now().Add(time.Second))
				return
			}
			if !send(ev) {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
