package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/auth"
	"github.com/telecare/session-server/internal/proto"
	"github.com/telecare/session-server/internal/session"
)

// WSHandler authenticates and upgrades connections, bridging them into the
// registry and room index. It is a plain http.Handler mounted outside the
// REST router: websocket.Accept must hijack the raw ResponseWriter, which a
// wrapping framework writer does not allow.
type WSHandler struct {
	authService *auth.Service
	reg         *session.Registry
	rooms       *session.Rooms
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(authService *auth.Service, reg *session.Registry, rooms *session.Rooms, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		authService: authService,
		reg:         reg,
		rooms:       rooms,
		log:         logger,
	}
}

// ServeHTTP upgrades the connection. The bearer credential arrives as the
// `token` query parameter and must resolve to (subject, role) before
// anything is registered; failure refuses the handshake.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authService.ResolveCredential(r.URL.Query().Get("token"))
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake refused")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "invalid credential"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := session.NewClient(identity.SubjectID, identity.Role)
	// Closing the client cancels both loops, so an eviction from the
	// registry terminates the socket instead of leaving a ghost reader.
	// The hook must be in place before the client becomes visible.
	client.OnClose(cancel)
	h.reg.Register(client)
	h.log.Info().Int64("subject_id", client.SubjectID).Str("conn_id", client.ConnID).Msg("ws connection established")

	// Deregistration and room purge must complete before the close does, so
	// no later dispatch targets this connection.
	defer func() {
		h.reg.UnregisterClient(client)
		h.log.Info().Int64("subject_id", client.SubjectID).Str("conn_id", client.ConnID).Msg("ws connection closed")
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Int64("subject_id", client.SubjectID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop processes inbound messages for one connection in receipt order.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *session.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		client.Touch()

		switch inbound.Type {
		case proto.InboundTypePing:
			// The write loop is the only socket writer; PONG rides the
			// same queue as dispatched envelopes.
			client.Send(proto.NewEnvelope(proto.KindPong, nil))
		case proto.InboundTypeJoinConsultation:
			// A closed client must not re-enter rooms; its memberships are
			// being purged.
			if inbound.ConsultationID != 0 && client.Open() {
				h.rooms.Join(inbound.ConsultationID, client.SubjectID)
				h.log.Info().Int64("subject_id", client.SubjectID).Int64("consultation_id", inbound.ConsultationID).Msg("subject joined consultation room")
			}
		case proto.InboundTypeLeaveConsultation:
			if inbound.ConsultationID != 0 {
				h.rooms.Leave(inbound.ConsultationID, client.SubjectID)
				h.log.Info().Int64("subject_id", client.SubjectID).Int64("consultation_id", inbound.ConsultationID).Msg("subject left consultation room")
			}
		default:
			h.log.Warn().Str("type", inbound.Type).Int64("subject_id", client.SubjectID).Msg("unknown inbound message type")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *session.Client) error {
	for {
		select {
		case env := <-client.Events:
			if err := wsjson.Write(ctx, conn, env); err != nil {
				h.log.Error().Err(err).Int64("subject_id", client.SubjectID).Msg("write ws envelope")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
