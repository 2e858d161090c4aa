package ws

import (
	"context"
	"testing"
	"time"

	"github.com/careplace/chat-service/internal/domain"
	"github.com/careplace/chat-service/internal/presence"
)

type fakeConvSvc struct {
	participants map[string][]string // conversationID -> user ids
}

func (f *fakeConvSvc) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	for _, id := range f.participants[conversationID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeMsgSvc struct {
	sendErr     error
	markReadErr error
	lastSent    *domain.Message
}

func (f *fakeMsgSvc) Send(_ context.Context, senderID, conversationID, receiverID, content string) (*domain.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if conversationID == "" {
		conversationID = "conv-1"
	}
	m := &domain.Message{
		ID:             "msg-1",
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	f.lastSent = m
	return m, nil
}

func (f *fakeMsgSvc) MarkRead(_ context.Context, _ string) error {
	return f.markReadErr
}

func testServer(conv *fakeConvSvc, msg *fakeMsgSvc) *Server {
	return NewServer(NewHub(), nil, presence.NewTracker(), conv, msg, time.Second)
}

func TestConnect_PresenceFlow(t *testing.T) {
	s := testServer(&fakeConvSvc{}, &fakeMsgSvc{})

	c1 := newFakeConn("u1")
	s.connect(c1)

	snaps := c1.messages(TypeOnlineUsers)
	if len(snaps) != 1 {
		t.Fatalf("new session must get exactly one snapshot, got %d", len(snaps))
	}

	// вторая сессия другого пользователя: первая получает user-online
	c2 := newFakeConn("u2")
	s.connect(c2)

	online := c1.messages(TypeUserOnline)
	if len(online) != 1 {
		t.Fatalf("user-online announcements = %d, want 1", len(online))
	}
	if online[0].Payload.(PresencePayload).UserID != "u2" {
		t.Fatalf("announced user = %+v", online[0].Payload)
	}

	// вторая вкладка u2 не анонсируется повторно
	c3 := newFakeConn("u2")
	s.connect(c3)
	if got := len(c1.messages(TypeUserOnline)); got != 1 {
		t.Fatalf("second session re-announced online: %d", got)
	}

	// одна из двух сессий u2 закрылась — offline нет
	s.disconnect(c3)
	if got := len(c1.messages(TypeUserOffline)); got != 0 {
		t.Fatalf("offline announced while a session is still open: %d", got)
	}

	// последняя сессия — offline ровно один раз
	s.disconnect(c2)
	offline := c1.messages(TypeUserOffline)
	if len(offline) != 1 || offline[0].Payload.(PresencePayload).UserID != "u2" {
		t.Fatalf("offline announcements = %+v", offline)
	}
}

func TestJoinConversation_MembershipRecheck(t *testing.T) {
	conv := &fakeConvSvc{participants: map[string][]string{"conv-1": {"u1", "u2"}}}
	s := testServer(conv, &fakeMsgSvc{})
	ctx := context.Background()

	member := newFakeConn("u1")
	stranger := newFakeConn("u3")
	s.connect(member)
	s.connect(stranger)

	s.handleEvent(ctx, member, Message{Type: TypeJoinConversation, Payload: JoinConversationPayload{ConversationID: "conv-1"}})
	s.handleEvent(ctx, stranger, Message{Type: TypeJoinConversation, Payload: JoinConversationPayload{ConversationID: "conv-1"}})

	if len(stranger.messages(TypeError)) != 1 {
		t.Fatal("stranger join must be rejected with an error event")
	}

	s.hub.Broadcast(ConversationChannel("conv-1"), Message{Type: TypeNewMessage})
	if len(member.messages(TypeNewMessage)) != 1 {
		t.Fatal("member must receive conversation broadcasts")
	}
	if len(stranger.messages(TypeNewMessage)) != 0 {
		t.Fatal("rejected join must not subscribe the stranger")
	}
}

func TestSendMessage_FanOut(t *testing.T) {
	conv := &fakeConvSvc{participants: map[string][]string{"conv-1": {"u1", "u2"}}}
	msgSvc := &fakeMsgSvc{}
	s := testServer(conv, msgSvc)
	ctx := context.Background()

	sender := newFakeConn("u1")
	viewer := newFakeConn("u2")   // смотрит диалог
	receiver := newFakeConn("u2") // другая вкладка получателя, диалог не открыт
	s.connect(sender)
	s.connect(viewer)
	s.connect(receiver)

	s.handleEvent(ctx, sender, Message{Type: TypeJoinConversation, Payload: JoinConversationPayload{ConversationID: "conv-1"}})
	s.handleEvent(ctx, viewer, Message{Type: TypeJoinConversation, Payload: JoinConversationPayload{ConversationID: "conv-1"}})

	s.handleEvent(ctx, sender, Message{Type: TypeSendMessage, Payload: SendMessagePayload{
		ConversationID: "conv-1",
		ReceiverID:     "u2",
		Content:        "Hello",
	}})

	if len(viewer.messages(TypeNewMessage)) != 1 {
		t.Fatal("viewer joined to the channel must get new-message")
	}
	if len(sender.messages(TypeNewMessage)) != 1 {
		t.Fatal("sender session in the channel must get new-message too")
	}
	// персональный канал: доставка получателю независимо от открытого диалога
	if len(receiver.messages(TypeMessageNotification)) != 1 {
		t.Fatal("receiver personal channel must get message-notification")
	}
	if len(sender.messages(TypeMessageNotification)) != 0 {
		t.Fatal("sender must not get the receiver notification")
	}
}

func TestSendMessage_RejectedEmitsErrorOnly(t *testing.T) {
	msgSvc := &fakeMsgSvc{sendErr: domain.ErrPairNotAllowed}
	s := testServer(&fakeConvSvc{}, msgSvc)

	sender := newFakeConn("u1")
	s.connect(sender)

	s.handleEvent(context.Background(), sender, Message{Type: TypeSendMessage, Payload: SendMessagePayload{
		ReceiverID: "u2",
		Content:    "Hi",
	}})

	errs := sender.messages(TypeError)
	if len(errs) != 1 {
		t.Fatalf("error events = %d, want 1", len(errs))
	}
	if errs[0].Payload.(ErrorPayload).Reason == "" {
		t.Fatal("error event must carry a human-readable reason")
	}
	if len(sender.messages(TypeNewMessage)) != 0 {
		t.Fatal("rejected send must not broadcast")
	}
}

func TestSendMessage_UnknownReceiverReason(t *testing.T) {
	s := testServer(&fakeConvSvc{}, &fakeMsgSvc{sendErr: domain.ErrUserNotFound})

	sender := newFakeConn("u1")
	s.connect(sender)

	s.handleEvent(context.Background(), sender, Message{Type: TypeSendMessage, Payload: SendMessagePayload{
		ReceiverID: "ghost",
		Content:    "Hi",
	}})

	errs := sender.messages(TypeError)
	if len(errs) != 1 {
		t.Fatalf("error events = %d, want 1", len(errs))
	}
	if got := errs[0].Payload.(ErrorPayload).Reason; got != "user not found" {
		t.Fatalf("reason = %q, want specific not-found reason", got)
	}
}

func TestTyping_RelayExcludesSender(t *testing.T) {
	conv := &fakeConvSvc{participants: map[string][]string{"conv-1": {"u1", "u2"}}}
	s := testServer(conv, &fakeMsgSvc{})
	ctx := context.Background()

	a, b := newFakeConn("u1"), newFakeConn("u2")
	s.connect(a)
	s.connect(b)
	s.handleEvent(ctx, a, Message{Type: TypeJoinConversation, Payload: JoinConversationPayload{ConversationID: "conv-1"}})
	s.handleEvent(ctx, b, Message{Type: TypeJoinConversation, Payload: JoinConversationPayload{ConversationID: "conv-1"}})

	s.handleEvent(ctx, a, Message{Type: TypeTyping, Payload: TypingPayload{ConversationID: "conv-1", IsTyping: true}})

	if len(a.messages(TypeUserTyping)) != 0 {
		t.Fatal("typing must not echo to the sender")
	}
	relayed := b.messages(TypeUserTyping)
	if len(relayed) != 1 {
		t.Fatalf("typing relays = %d, want 1", len(relayed))
	}
	p := relayed[0].Payload.(UserTypingPayload)
	if p.UserID != "u1" || !p.IsTyping {
		t.Fatalf("relay payload = %+v", p)
	}
}

func TestMarkRead_AckToCallerOnly(t *testing.T) {
	s := testServer(&fakeConvSvc{}, &fakeMsgSvc{})
	ctx := context.Background()

	caller := newFakeConn("u1")
	other := newFakeConn("u2")
	s.connect(caller)
	s.connect(other)

	s.handleEvent(ctx, caller, Message{Type: TypeMarkRead, Payload: MarkReadPayload{MessageID: "msg-1"}})

	acks := caller.messages(TypeReadAck)
	if len(acks) != 1 || acks[0].Payload.(ReadAckPayload).MessageID != "msg-1" {
		t.Fatalf("acks = %+v", acks)
	}
	if len(other.messages(TypeReadAck)) != 0 {
		t.Fatal("read receipt must not be broadcast to other participants")
	}
}

func TestMarkRead_NotFoundIsNonFatal(t *testing.T) {
	s := testServer(&fakeConvSvc{}, &fakeMsgSvc{markReadErr: domain.ErrMessageNotFound})

	caller := newFakeConn("u1")
	s.connect(caller)

	s.handleEvent(context.Background(), caller, Message{Type: TypeMarkRead, Payload: MarkReadPayload{MessageID: "msg-404"}})

	if len(caller.messages(TypeError)) != 1 {
		t.Fatal("missing message must produce an error event")
	}
	if len(caller.messages(TypeReadAck)) != 0 {
		t.Fatal("no ack for a missing message")
	}
}
