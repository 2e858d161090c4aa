package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/careplace/chat-service/internal/domain"
	"github.com/careplace/chat-service/internal/security"

	"github.com/gorilla/websocket"
)

type TokenVerifier interface {
	Verify(token string) (*security.Identity, error)
}

type ConversationSvc interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

type MessageSvc interface {
	Send(ctx context.Context, senderID, conversationID, receiverID, content string) (*domain.Message, error)
	MarkRead(ctx context.Context, messageID string) error
}

type PresenceTracker interface {
	AddConnection(userID string) bool
	RemoveConnection(userID string) bool
	Snapshot() []string
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	verifier TokenVerifier
	presence PresenceTracker
	convSvc  ConversationSvc
	msgSvc   MessageSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, verifier TokenVerifier, presence PresenceTracker, conv ConversationSvc, msg MessageSvc, pingEvery time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		hub:      hub,
		verifier: verifier,
		presence: presence,
		convSvc:  conv,
		msgSvc:   msg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
	}
}

// WS endpoint: GET /ws?access_token=...
// Аутентификация до апгрейда: без валидного токена состояние не создаётся.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(auth[7:])
		}
	}
	if token == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}

	ident, err := s.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, ident.UserID)
	s.connect(c)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	s.disconnect(c)
}

// connect: персональный канал, presence, снапшот online новой сессии,
// анонс user-online остальным при первом соединении пользователя.
func (s *Server) connect(c Conn) {
	s.hub.Register(c)
	s.hub.Join(c, PersonalChannel(c.UserID()))

	wentOnline := s.presence.AddConnection(c.UserID())

	if err := c.Send(Message{
		Type:    TypeOnlineUsers,
		Payload: OnlineUsersPayload{UserIDs: s.presence.Snapshot()},
	}); err != nil {
		slog.Warn("ws send online snapshot failed", "user", c.UserID(), "err", err)
	}

	if wentOnline {
		s.hub.BroadcastAll(Message{
			Type:    TypeUserOnline,
			Payload: PresencePayload{UserID: c.UserID()},
		}, c)
	}
}

func (s *Server) disconnect(c Conn) {
	s.hub.Remove(c)

	if wentOffline := s.presence.RemoveConnection(c.UserID()); wentOffline {
		s.hub.BroadcastAll(Message{
			Type:    TypeUserOffline,
			Payload: PresencePayload{UserID: c.UserID()},
		}, c)
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", c.UserID(), "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.handleEvent(ctx, c, msg)
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func (s *Server) handleEvent(ctx context.Context, c Conn, msg Message) {
	switch msg.Type {
	case TypeJoinConversation:
		var p JoinConversationPayload
		if decode(msg.Payload, &p) != nil {
			s.sendError(c, domain.ErrInvalidID)
			return
		}
		// членство перепроверяется той же проверкой, что и при отправке:
		// подписка на чужой канал по угаданному id не проходит
		ok, err := s.convSvc.IsParticipant(ctx, p.ConversationID, c.UserID())
		if err != nil {
			s.sendError(c, err)
			return
		}
		if !ok {
			s.sendError(c, domain.ErrNotParticipant)
			return
		}
		s.hub.Join(c, ConversationChannel(p.ConversationID))

	case TypeLeaveConversation:
		var p JoinConversationPayload
		if decode(msg.Payload, &p) == nil {
			s.hub.Leave(c, ConversationChannel(p.ConversationID))
		}

	case TypeSendMessage:
		var p SendMessagePayload
		if decode(msg.Payload, &p) != nil {
			s.sendError(c, domain.ErrEmptyContent)
			return
		}
		m, err := s.msgSvc.Send(ctx, c.UserID(), p.ConversationID, p.ReceiverID, p.Content)
		if err != nil {
			slog.Debug("ws send message rejected", "user", c.UserID(), "err", err)
			s.sendError(c, err)
			return
		}
		out := messagePayload(m)
		// в канал диалога — всем, кто его сейчас смотрит;
		// в персональный канал получателя — чтобы нотификация дошла,
		// даже если у него открыт другой экран
		s.hub.Broadcast(ConversationChannel(m.ConversationID), Message{Type: TypeNewMessage, Payload: out})
		s.hub.Broadcast(PersonalChannel(m.ReceiverID), Message{Type: TypeMessageNotification, Payload: out})

	case TypeTyping:
		var p TypingPayload
		if decode(msg.Payload, &p) != nil {
			return
		}
		// эфемерный relay: не персистится, доверяет границе join-conversation
		s.hub.BroadcastExcept(ConversationChannel(p.ConversationID), Message{
			Type: TypeUserTyping,
			Payload: UserTypingPayload{
				ConversationID: p.ConversationID,
				UserID:         c.UserID(),
				IsTyping:       p.IsTyping,
			},
		}, c)

	case TypeMarkRead:
		var p MarkReadPayload
		if decode(msg.Payload, &p) != nil {
			s.sendError(c, domain.ErrInvalidID)
			return
		}
		if err := s.msgSvc.MarkRead(ctx, p.MessageID); err != nil {
			// отсутствующее сообщение — не фатально для соединения
			s.sendError(c, err)
			return
		}
		// read receipt второму участнику не рассылается — ack только вызывающему
		_ = c.Send(Message{Type: TypeReadAck, Payload: ReadAckPayload{MessageID: p.MessageID}})

	default:
		// ignore
	}
}

func (s *Server) sendError(c Conn, err error) {
	_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Reason: errorReason(err)}})
}

// errorReason — человекочитаемая причина для клиента; детали стораджа не утекают.
func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPairNotAllowed):
		return "you are not allowed to message this user"
	case errors.Is(err, domain.ErrNotParticipant):
		return "you are not a participant of this conversation"
	case errors.Is(err, domain.ErrEmptyContent):
		return "message content is required"
	case errors.Is(err, domain.ErrContentTooLong):
		return "message content is too long"
	case errors.Is(err, domain.ErrInvalidID):
		return "invalid id"
	case errors.Is(err, domain.ErrConversationNotFound):
		return "conversation not found"
	case errors.Is(err, domain.ErrMessageNotFound):
		return "message not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user not found"
	default:
		return "failed to send message"
	}
}

func messagePayload(m *domain.Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		Read:           m.Read,
		TSUnix:         m.CreatedAt.Unix(),
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn   *websocket.Conn
	userID string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, userID string) *wsConn {
	return &wsConn{
		conn:   c,
		userID: userID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) UserID() string { return c.userID }
