package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/careplace/chat-service/internal/domain"
	"github.com/careplace/chat-service/internal/postgres"
	"github.com/careplace/chat-service/internal/service"
	httpmw "github.com/careplace/chat-service/internal/transport/http/middleware"
	"github.com/careplace/chat-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// PresenceReader — online-флаг для проекции собеседника в списке диалогов.
type PresenceReader interface {
	IsOnline(userID string) bool
}

type Handler struct {
	convSvc   *service.ConversationService
	msgSvc    *service.MessageService
	unreadSvc *service.UnreadService
	presence  PresenceReader
}

func NewHandler(conv *service.ConversationService, msg *service.MessageService, unread *service.UnreadService, presence PresenceReader) *Handler {
	return &Handler{
		convSvc:   conv,
		msgSvc:    msg,
		unreadSvc: unread,
		presence:  presence,
	}
}

// GET /conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if ident == nil {
		httputil.Error(w, http.StatusUnauthorized, "missing identity")
		return
	}

	rows, err := h.convSvc.ListForUser(r.Context(), ident.UserID)
	if err != nil {
		h.writeErr(w, "ListConversations", err)
		return
	}

	items := lo.Map(rows, func(row postgres.ConversationListRow, _ int) ConversationItem {
		return h.conversationItem(row, ident.UserID)
	})
	httputil.JSON(w, http.StatusOK, ConversationsResponse{Items: items})
}

// POST /conversations
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if ident == nil {
		httputil.Error(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	conv, err := h.convSvc.GetOrCreate(r.Context(), ident.UserID, req.ReceiverID)
	if err != nil {
		h.writeErr(w, "CreateConversation", err)
		return
	}

	httputil.JSON(w, http.StatusOK, CreatedConversation{
		ID:           conv.ID,
		Participants: []string{conv.UserA, conv.UserB},
		CreatedAt:    conv.CreatedAt,
	})
}

// GET /conversations/{id}/messages?page=&limit=
// Побочный эффект: входящие вызывающего в этом диалоге помечаются прочитанными.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if ident == nil {
		httputil.Error(w, http.StatusUnauthorized, "missing identity")
		return
	}

	convID := chi.URLParam(r, "id")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)

	msgs, err := h.msgSvc.History(r.Context(), convID, ident.UserID, page, limit)
	if err != nil {
		h.writeErr(w, "GetMessages", err)
		return
	}

	items := lo.Map(msgs, func(m domain.Message, _ int) MessageItem {
		return messageItem(m)
	})
	httputil.JSON(w, http.StatusOK, MessagesResponse{Items: items, Page: page})
}

// POST /messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if ident == nil {
		httputil.Error(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	msg, err := h.msgSvc.Send(r.Context(), ident.UserID, req.ConversationID, req.ReceiverID, req.Content)
	if err != nil {
		h.writeErr(w, "SendMessage", err)
		return
	}

	httputil.JSON(w, http.StatusCreated, messageItem(*msg))
}

// GET /unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ident := httpmw.IdentityFromCtx(r.Context())
	if ident == nil {
		httputil.Error(w, http.StatusUnauthorized, "missing identity")
		return
	}

	sum, err := h.unreadSvc.Summary(r.Context(), ident.UserID)
	if err != nil {
		h.writeErr(w, "UnreadCount", err)
		return
	}

	httputil.JSON(w, http.StatusOK, UnreadResponse{
		TotalUnread: sum.Total,
		Conversations: lo.Map(sum.Conversations, func(cu domain.ConversationUnread, _ int) UnreadConversationItem {
			return UnreadConversationItem{ConversationID: cu.ConversationID, Count: cu.Count}
		}),
	})
}

// --- helpers ---

func (h *Handler) conversationItem(row postgres.ConversationListRow, userID string) ConversationItem {
	item := ConversationItem{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		Peer: PeerItem{
			ID:          row.PeerID,
			DisplayName: row.PeerDisplayName,
			AvatarURL:   row.PeerAvatarURL,
			Email:       row.PeerEmail,
			Role:        row.PeerRole,
			Online:      h.presence.IsOnline(row.PeerID),
		},
	}
	if row.LastMessageID != nil {
		receiver := row.PeerID
		if *row.LastMessageSenderID == row.PeerID {
			receiver = userID
		}
		item.LastMessage = &MessageItem{
			ID:             *row.LastMessageID,
			ConversationID: row.ID,
			SenderID:       *row.LastMessageSenderID,
			ReceiverID:     receiver,
			Content:        *row.LastMessageContent,
			Read:           *row.LastMessageRead,
			CreatedAt:      *row.LastMessageCreatedAt,
		}
	}
	return item
}

func messageItem(m domain.Message) MessageItem {
	return MessageItem{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func queryInt(r *http.Request, name string, def int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// writeErr — единая точка маппинга доменных ошибок в статусы.
func (h *Handler) writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrContentTooLong):
		httputil.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPairNotAllowed),
		errors.Is(err, domain.ErrNotParticipant):
		httputil.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		httputil.Error(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("handler."+op+":", slog.Any("err", err))
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}
