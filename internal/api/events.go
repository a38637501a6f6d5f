package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/navigator"
	"github.com/gorilla/websocket"
)

const (
	eventIdleTimeout  = 60 * time.Second
	eventWriteTimeout = 10 * time.Second
)

// Event is a message sent by the page over the events socket.
//
//	resize: the layout changed, Offsets holds the new heading offsets
//	scroll: the page scrolled to Offset
//	click:  a navigation entry Target was clicked while at Offset
type Event struct {
	Type    string             `json:"type"`
	Offsets map[string]float64 `json:"offsets,omitempty"`
	Offset  float64            `json:"offset,omitempty"`
	Target  string             `json:"target,omitempty"`
}

// Reply is a message sent back to the page. An empty Selected means no
// entry is selected and is always sent.
type Reply struct {
	Type      string          `json:"type"`
	Positions int             `json:"positions"`
	Selected  string          `json:"selected"`
	Scroll    *scrollResponse `json:"scroll,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(s.cfg.AllowedOrigins, "*") {
				return true
			}
			return slices.Contains(s.cfg.AllowedOrigins, origin)
		},
	}
}

// handleEvents streams page events to the session navigator. Scroll events
// are answered only when the selection changes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	defer conn.Close()

	log := s.log.With("session_id", sess.ID)
	log.Info("events connected")

	// Pings and replies share the connection; gorilla allows one writer.
	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		return conn.WriteMessage(messageType, data)
	}

	conn.SetReadDeadline(time.Now().Add(s.eventIdle))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.eventIdle))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(s.pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := write(websocket.PingMessage, nil); err != nil {
					log.Debug("events ping failed", "error", err)
					return
				}
			}
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("events closed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.eventIdle))
		sess.Touch()

		reply, ok := s.applyEvent(sess.Nav, ev)
		if !ok {
			continue
		}
		data, err := json.Marshal(reply)
		if err != nil {
			log.Error("events encode failed", "error", err)
			return
		}
		if err := write(websocket.TextMessage, data); err != nil {
			log.Warn("events write failed", "error", err)
			return
		}
	}
}

// applyEvent updates the navigator and returns the reply to send, if any.
func (s *Server) applyEvent(nav *navigator.Navigator, ev Event) (Reply, bool) {
	switch ev.Type {
	case "resize":
		n := nav.Rebuild(navigator.OffsetMap(ev.Offsets))
		return Reply{Type: "layout", Positions: n}, true
	case "scroll":
		selected, changed := nav.Update(ev.Offset)
		if !changed {
			return Reply{}, false
		}
		return Reply{Type: "select", Selected: selected}, true
	case "click":
		sc, err := nav.ScrollTo(ev.Target, ev.Offset)
		if err != nil {
			return Reply{Type: "error", Error: err.Error()}, true
		}
		resp := newScrollResponse(sc)
		return Reply{Type: "scroll", Scroll: &resp}, true
	default:
		return Reply{Type: "error", Error: "unknown event type: " + ev.Type}, true
	}
}
