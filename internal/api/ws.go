package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/reveal"
	"github.com/arcanaland/boosterpack/internal/session"
)

// outboxSize bounds the messages queued for one connection. A full reveal
// produces size+5 messages.
const outboxSize = 64

// Client message types.
const (
	msgOpen  = "open"
	msgReset = "reset"
	msgClose = "close"
)

// Server message types.
const (
	msgState    = "state"
	msgReveal   = "reveal"
	msgComplete = "complete"
	msgError    = "error"
)

type clientMessage struct {
	Type string `json:"type"`
}

type serverMessage struct {
	Type    string        `json:"type"`
	Session string        `json:"session,omitempty"`
	State   *reveal.State `json:"state,omitempty"`
	Index   *int          `json:"index,omitempty"`
	Slot    *pack.Slot    `json:"slot,omitempty"`
	Pack    *pack.Pack    `json:"pack,omitempty"`
	Code    string        `json:"code,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func stateMessage(s reveal.State) serverMessage {
	return serverMessage{Type: msgState, State: &s}
}

func eventMessage(e reveal.Event) serverMessage {
	if e.State == reveal.Revealing && e.Revealed >= 0 && e.Revealed < len(e.Pack.Slots) {
		i := e.Revealed
		slot := e.Pack.Slots[i]
		return serverMessage{Type: msgReveal, Index: &i, Slot: &slot}
	}
	return stateMessage(e.State)
}

func errorMessage(code string, err error) serverMessage {
	return serverMessage{Type: msgError, Code: code, Error: err.Error()}
}

// errorCode classifies an OpenPack failure. Cancellations and closed
// sessions return "" and are not reported to the client.
func errorCode(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, session.ErrClosed):
		return ""
	case errors.Is(err, reveal.ErrSequenceActive):
		return "busy"
	case errors.Is(err, pack.ErrEmptyCatalog):
		return "empty_catalog"
	}
	return "internal"
}

// handleOpenSocket plays pack reveals for one client. Each connection owns a
// session; {"type":"open"} opens a pack, {"type":"reset"} aborts the reveal
// and {"type":"close"} ends the session.
func (s *Server) handleOpenSocket(w http.ResponseWriter, r *http.Request) {
	exp, err := s.cfg.Catalog.Find(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), "Expansion not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.log.With().Str("expansion", exp.ID).Str("remote", r.RemoteAddr).Logger()

	// The observer runs under the sequencer lock, so sends never block.
	out := make(chan serverMessage, outboxSize)
	send := func(m serverMessage) {
		select {
		case out <- m:
		default:
			log.Warn().Str("type", m.Type).Msg("outbox full, dropping message")
		}
	}

	ctrl := s.newController(exp, func(e reveal.Event) { send(eventMessage(e)) }, session.Options{
		OnPackOpened: func(p pack.Pack) { s.record(context.Background(), p) },
	})
	log = log.With().Str("session", ctrl.ID()).Logger()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for m := range out {
			if err := conn.WriteJSON(m); err != nil {
				log.Debug().Err(err).Msg("write failed")
				for range out {
				}
				return
			}
		}
	}()

	hello := stateMessage(reveal.Closed)
	hello.Session = ctrl.ID()
	send(hello)
	log.Info().Msg("session started")

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	closedByClient := false

loop:
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			send(errorMessage("bad_message", err))
			continue
		}

		switch msg.Type {
		case msgOpen:
			wg.Add(1)
			go func() {
				defer wg.Done()
				p, err := ctrl.OpenPack(ctx)
				if err != nil {
					if code := errorCode(err); code != "" {
						send(errorMessage(code, err))
					}
					return
				}
				send(serverMessage{Type: msgComplete, Pack: &p})
			}()
		case msgReset:
			ctrl.Reset()
			send(stateMessage(reveal.Closed))
		case msgClose:
			closedByClient = true
			break loop
		default:
			send(errorMessage("bad_message", errors.New("unknown message type "+msg.Type)))
		}
	}

	ctrl.Close()
	cancel()
	wg.Wait()
	close(out)
	<-writerDone

	if closedByClient {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
	}
	log.Info().Msg("session ended")
}
