package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"muzmates/internal/adapter/api/middleware"
	"muzmates/internal/domain/entity"
	ws "muzmates/internal/infrastructure/websocket"
	"muzmates/internal/usecase"
	"muzmates/pkg/logger"
)

const resolveTimeout = 10 * time.Second

// IdentityResolver turns an ID token into the identity it was issued for.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*entity.Identity, error)
}

type WebSocketHandler struct {
	ctx       context.Context
	wsManager *ws.Manager
	sessions  *usecase.SessionManager
	resolver  IdentityResolver
	drafts    *usecase.DraftUseCase
	catalog   *usecase.CatalogStore
}

type sessionPayload struct {
	State    usecase.SessionState `json:"state"`
	Identity *entity.Identity     `json:"identity,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin
	},
}

// NewWebSocketHandler builds the handler. Sessions live until their connection closes
// or ctx is cancelled.
func NewWebSocketHandler(
	ctx context.Context,
	wsManager *ws.Manager,
	sessions *usecase.SessionManager,
	resolver IdentityResolver,
	drafts *usecase.DraftUseCase,
	catalog *usecase.CatalogStore,
) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:       ctx,
		wsManager: wsManager,
		sessions:  sessions,
		resolver:  resolver,
		drafts:    drafts,
		catalog:   catalog,
	}
}

// HandleWebSocket upgrades the connection and attaches a session to it. A token in the
// "token" query parameter or the Authorization header signs the session in right away.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.Request().Header.Get("Authorization"))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the request.
		logger.Warn("Websocket upgrade failed: %v", err)
		return nil
	}

	client := ws.NewClient(uuid.New().String(), conn)
	h.wsManager.Add(client)

	session := h.sessions.Open(h.ctx, usecase.SessionHooks{
		OnState: func(state usecase.SessionState, identity *entity.Identity) {
			h.onState(client, state, identity)
		},
		OnProfile: func(profile *entity.UserProfile) {
			h.wsManager.SendToClient(client, ws.MessageProfile, profile)
		},
	})

	h.wsManager.SendToClient(client, ws.MessageListings, h.catalog.Listings())
	h.signIn(client, session, token)

	go client.WritePump()
	go func() {
		client.ReadPump(h.wsManager, func(client *ws.Client, msg ws.InboundMessage) {
			h.onMessage(client, session, msg)
		})
		session.Close()
		logger.Debug("Websocket session %s closed", session.ID())
	}()

	return nil
}

func (h *WebSocketHandler) onMessage(client *ws.Client, session *usecase.Session, msg ws.InboundMessage) {
	switch msg.Type {
	case ws.MessageAuth:
		h.signIn(client, session, msg.Token)
	case ws.MessageSignOut:
		session.Observe(nil)
	default:
		h.wsManager.SendToClient(client, ws.MessageError, errorPayload{Message: "Unknown message type: " + msg.Type})
	}
}

// signIn observes the identity of token, or signed-out when there is none.
func (h *WebSocketHandler) signIn(client *ws.Client, session *usecase.Session, token string) {
	if token == "" {
		session.Observe(nil)
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, resolveTimeout)
	defer cancel()

	identity, err := h.resolver.ResolveIdentity(ctx, token)
	if err != nil {
		h.wsManager.SendToClient(client, ws.MessageError, errorPayload{Message: "Invalid or expired token"})
		session.Observe(nil)
		return
	}
	session.Observe(identity)
}

func (h *WebSocketHandler) onState(client *ws.Client, state usecase.SessionState, identity *entity.Identity) {
	payload := sessionPayload{State: state, Identity: identity}
	if state == usecase.SessionSignedIn && identity != nil {
		client.SetUserID(identity.ID)
		h.wsManager.SendToClient(client, ws.MessageSession, payload)
		h.wsManager.SendToClient(client, ws.MessageDraft, h.drafts.Get(identity.ID))
		return
	}

	client.SetUserID("")
	h.wsManager.SendToClient(client, ws.MessageSession, payload)
}
