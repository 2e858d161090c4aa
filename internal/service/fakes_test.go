package service

import (
	"context"
	"fmt"
	"time"

	"github.com/careplace/chat-service/internal/domain"
	"github.com/careplace/chat-service/internal/postgres"
)

// uid — детерминированный uuid для тестов.
func uid(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

type fakeProfiles struct {
	byID map[string]*domain.Profile
}

func newFakeProfiles(profiles ...*domain.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: make(map[string]*domain.Profile)}
	for _, p := range profiles {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) Get(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return p, nil
}

type fakeMarket struct {
	assigned    map[[2]string]bool // {clientID, workerID}
	latestOwner map[string]string  // workerID -> клиент за последним proposal
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		assigned:    make(map[[2]string]bool),
		latestOwner: make(map[string]string),
	}
}

func (f *fakeMarket) HasAssignedJob(_ context.Context, clientID, workerID string) (bool, error) {
	return f.assigned[[2]string{clientID, workerID}], nil
}

func (f *fakeMarket) LatestProposalJobOwner(_ context.Context, workerID string) (string, bool, error) {
	owner, ok := f.latestOwner[workerID]
	return owner, ok, nil
}

type fakeConvRepo struct {
	byPair map[[2]string]*domain.Conversation
	byID   map[string]*domain.Conversation
	seq    int
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{
		byPair: make(map[[2]string]*domain.Conversation),
		byID:   make(map[string]*domain.Conversation),
	}
}

func (f *fakeConvRepo) Upsert(_ context.Context, userA, userB string) (*domain.Conversation, error) {
	a, b := domain.NormalizePair(userA, userB)
	if c, ok := f.byPair[[2]string{a, b}]; ok {
		return c, nil
	}
	f.seq++
	c := &domain.Conversation{
		ID:        uid(9000 + f.seq),
		UserA:     a,
		UserB:     b,
		CreatedAt: time.Now(),
	}
	f.byPair[[2]string{a, b}] = c
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeConvRepo) Get(_ context.Context, id string) (*domain.Conversation, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return c, nil
}

func (f *fakeConvRepo) ListForUser(_ context.Context, userID string) ([]postgres.ConversationListRow, error) {
	var out []postgres.ConversationListRow
	for _, c := range f.byID {
		if c.HasParticipant(userID) {
			out = append(out, postgres.ConversationListRow{ID: c.ID, PeerID: c.Peer(userID)})
		}
	}
	return out, nil
}

func (f *fakeConvRepo) SetLastMessage(_ context.Context, conversationID, messageID string, at time.Time) error {
	c, ok := f.byID[conversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	c.LastMessageID = &messageID
	c.LastMessageAt = &at
	return nil
}

type fakeMsgRepo struct {
	msgs []*domain.Message
	seq  int
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{}
}

func (f *fakeMsgRepo) Create(_ context.Context, conversationID, senderID, receiverID, content string) (*domain.Message, error) {
	f.seq++
	m := &domain.Message{
		ID:             uid(5000 + f.seq),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		Read:           false,
		CreatedAt:      time.Now().Add(time.Duration(f.seq) * time.Millisecond),
	}
	f.msgs = append(f.msgs, m)
	return m, nil
}

func (f *fakeMsgRepo) ListPage(_ context.Context, conversationID string, limit, offset int) ([]domain.Message, error) {
	var all []domain.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			all = append(all, *m)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeMsgRepo) MarkConversationRead(_ context.Context, conversationID, receiverID string) (int64, error) {
	var n int64
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMsgRepo) MarkRead(_ context.Context, messageID string) error {
	for _, m := range f.msgs {
		if m.ID == messageID {
			m.Read = true
			return nil
		}
	}
	return domain.ErrMessageNotFound
}

func (f *fakeMsgRepo) UnreadSummary(_ context.Context, userID string) (*domain.UnreadSummary, error) {
	sum := &domain.UnreadSummary{}
	perConv := make(map[string]int)
	for _, m := range f.msgs {
		if m.ReceiverID == userID && !m.Read {
			perConv[m.ConversationID]++
			sum.Total++
		}
	}
	for id, n := range perConv {
		sum.Conversations = append(sum.Conversations, domain.ConversationUnread{ConversationID: id, Count: n})
	}
	return sum, nil
}
