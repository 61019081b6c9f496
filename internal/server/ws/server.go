package ws

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/common"
	"github.com/dmitrijs2005/chitchat/internal/logging"
	"github.com/dmitrijs2005/chitchat/internal/protocol"
	"github.com/dmitrijs2005/chitchat/internal/server/auth"
	"github.com/dmitrijs2005/chitchat/internal/server/services"
	"github.com/gorilla/websocket"
	"go.uber.org/ratelimit"
)

// Path is where the event channel is served.
const Path = "/ws"

// Services bundles the business logic the handlers call.
type Services struct {
	Users    *services.UserService
	Social   *services.SocialService
	Messages *services.MessageService
	Groups   *services.GroupService
}

// Options tune per-connection limits.
type Options struct {
	EventsPerSecond int
	MaxFrameBytes   int64
}

// Result holds the fields of a successful ack next to "success": true.
type Result map[string]any

type handlerFunc func(ctx context.Context, c *Conn, f protocol.Frame) (Result, error)

var (
	errUnauthenticated = common.NewError(common.ErrorUnauthorized, "Unauthorized")
	errUnknownEvent    = common.NewError(common.ErrorValidation, "Unknown event")
)

const internalErrorMessage = "Internal server error"

type Server struct {
	hub      *Hub
	auth     *auth.Authenticator
	svc      Services
	opts     Options
	log      logging.Logger
	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func NewServer(hub *Hub, a *auth.Authenticator, svc Services, opts Options, log logging.Logger) *Server {
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = 8 << 20
	}
	s := &Server{
		hub:  hub,
		auth: a,
		svc:  svc,
		opts: opts,
		log:  log.With("module", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are native and browser apps on other origins; the
			// credential check happens on the handshake itself.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.handlers = s.routes()
	return s
}

// Handler serves the event channel and a liveness probe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// serveWS authenticates the handshake unless it names a bootstrap event.
// Invalid or missing credentials are refused before the upgrade; expired
// ones are upgraded so the client can be told with forceLogout.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	event := q.Get(common.HandshakeEventQueryName)
	token := q.Get(common.AccessTokenQueryName)
	if token == "" {
		token = auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	}

	var (
		identity auth.Identity
		expired  bool
	)
	if !protocol.IsBootstrap(event) {
		var err error
		identity, err = s.auth.Authenticate(token)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrTokenExpired):
			expired = true
		default:
			s.log.Info(ctx, "handshake rejected", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "Authentication error: Invalid token", http.StatusUnauthorized)
			return
		}
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(ctx, "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	log := s.log.With("remote", r.RemoteAddr)
	if identity.UserID != "" {
		log = log.With("user_id", identity.UserID)
	}
	c := newConn(wsConn, identity.UserID, token, s.limiter(), log)

	if expired {
		go c.writePump()
		c.ForceLogout()
		c.readPump(s.opts.MaxFrameBytes, func(*Conn, protocol.Frame) {})
		return
	}

	if identity.UserID != "" {
		c.armExpiry(time.Until(identity.ExpiresAt))
	}
	go c.writePump()

	if identity.UserID != "" {
		s.hub.Connect(ctx, identity.UserID, c)
		defer s.hub.Disconnect(context.WithoutCancel(ctx), identity.UserID, c)
	} else {
		// anonymous connections still hear broadcasts
		s.hub.Attach(c)
		defer s.hub.Detach(c)
	}
	log.Info(ctx, "connection opened", "bootstrap_event", event)

	// handlers outlive the transport: a disconnect does not cancel them
	hctx := context.WithoutCancel(ctx)
	c.readPump(s.opts.MaxFrameBytes, func(c *Conn, f protocol.Frame) {
		s.dispatch(hctx, c, f)
	})
	log.Info(ctx, "connection closed")
}

func (s *Server) limiter() ratelimit.Limiter {
	if s.opts.EventsPerSecond <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(s.opts.EventsPerSecond)
}

// dispatch runs the handler of f and answers with an ack when the frame
// has an id. Handler failures never close the connection.
func (s *Server) dispatch(ctx context.Context, c *Conn, f protocol.Frame) {
	h, ok := s.handlers[f.Event]

	var (
		res Result
		err error
	)
	switch {
	case !ok:
		err = errUnknownEvent
	case c.userID == "" && !protocol.IsBootstrap(f.Event):
		err = errUnauthenticated
	default:
		res, err = h(ctx, c, f)
	}

	closeAfter := c.closeAfterAck
	if f.ID == 0 {
		if closeAfter {
			c.Close()
		}
		return
	}
	c.ack(f.ID, s.ackPayload(ctx, f.Event, res, err), closeAfter)
}

func (s *Server) ackPayload(ctx context.Context, event string, res Result, err error) map[string]any {
	if err != nil {
		msg, ok := common.PublicMessage(err)
		if !ok {
			if !errors.Is(err, common.ErrorInternal) {
				s.log.Error(ctx, "handler failed", "event", event, "error", err)
			}
			msg = internalErrorMessage
		}
		return map[string]any{"error": msg}
	}
	out := map[string]any{"success": true}
	maps.Copy(out, res)
	return out
}
