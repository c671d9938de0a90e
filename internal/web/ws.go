package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	appLog "calticker/internal/log"
	"calticker/internal/model"
)

// inboundMessage is the shape of client-to-server messages. Anything that
// fails to parse is logged and dropped without closing the connection.
type inboundMessage struct {
	Type string `json:"type"`
}

// handleWS upgrades the connection and hands it to serveClient.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		appLog.Error("ws: upgrade failed", err, "remote", r.RemoteAddr)
		return
	}
	go s.serveClient(conn)
}

// serveClient owns one connection: a reader goroutine handles inbound
// control messages, while this goroutine is the sole writer. It sends the
// current snapshot immediately, then every published snapshot in order. A
// write failure removes only this connection; other clients are untouched.
func (s *Server) serveClient(conn net.Conn) {
	id := uuid.NewString()[:8]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer conn.Close()

	total := s.clients.Add(1)
	appLog.Info("ws: client connected", "client_id", id, "clients", total)
	defer func() {
		appLog.Info("ws: client disconnected", "client_id", id, "clients", s.clients.Add(-1))
	}()

	// Subscribe before the initial send so a refresh landing in between is
	// not lost.
	sub := s.broker.Subscribe(ctx)
	pongs := make(chan struct{}, 4)

	go func() {
		defer cancel()
		for {
			data, op, err := wsutil.ReadClientData(conn)
			if err != nil {
				return
			}
			if op != ws.OpText {
				continue
			}
			var msg inboundMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				appLog.Error("ws: malformed message dropped", err, "client_id", id)
				continue
			}
			switch msg.Type {
			case "ping":
				select {
				case pongs <- struct{}{}:
				default:
				}
			case "refresh":
				s.trigger()
			}
		}
	}()

	// Late joiners get the current snapshot, not an empty payload.
	if err := s.writeSnapshot(conn, s.cell.Current()); err != nil {
		appLog.Error("ws: initial send failed", err, "client_id", id)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pongs:
			if err := writeTextMessage(conn, map[string]string{"type": "pong"}); err != nil {
				return
			}
		case snap, ok := <-sub:
			if !ok {
				return
			}
			if err := s.writeSnapshot(conn, snap); err != nil {
				appLog.Error("ws: send failed; removing client", err, "client_id", id)
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn net.Conn, snap model.Snapshot) error {
	return writeTextMessage(conn, model.NewEventsMessage(snap, s.cfg))
}

func writeTextMessage(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return wsutil.WriteServerMessage(conn, ws.OpText, data)
}
