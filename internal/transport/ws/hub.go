package ws

import "sync"

type Conn interface {
	Send(msg Message) error
	Close() error
	UserID() string
}

// Имена каналов: персональный — на пользователя (нотификации вне открытого
// диалога), канал диалога — для сессий, которые его сейчас смотрят.
func PersonalChannel(userID string) string { return "user:" + userID }
func ConversationChannel(conversationID string) string { return "conversation:" + conversationID }

type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[Conn]struct{} // channel -> set of connections
	conns    map[Conn]map[string]struct{} // connection -> joined channels
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]map[Conn]struct{}),
		conns:    make(map[Conn]map[string]struct{}),
	}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		h.conns[c] = make(map[string]struct{})
	}
}

func (h *Hub) Join(c Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cs, ok := h.channels[channel]
	if !ok {
		cs = make(map[Conn]struct{})
		h.channels[channel] = cs
	}
	cs[c] = struct{}{}

	joined, ok := h.conns[c]
	if !ok {
		joined = make(map[string]struct{})
		h.conns[c] = joined
	}
	joined[channel] = struct{}{}
}

func (h *Hub) Leave(c Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, channel)
}

// Remove снимает соединение со всех каналов.
func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range h.conns[c] {
		h.leaveLocked(c, channel)
	}
	delete(h.conns, c)
}

func (h *Hub) leaveLocked(c Conn, channel string) {
	if cs, ok := h.channels[channel]; ok {
		delete(cs, c)
		if len(cs) == 0 {
			delete(h.channels, channel)
		}
	}
	if joined, ok := h.conns[c]; ok {
		delete(joined, channel)
	}
}

// Broadcast — доставка в канал; пустой канал — no-op.
func (h *Hub) Broadcast(channel string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.channels[channel] {
		_ = c.Send(msg) // best-effort
	}
}

func (h *Hub) BroadcastExcept(channel string, msg Message, except Conn) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.channels[channel] {
		if c == except {
			continue
		}
		_ = c.Send(msg)
	}
}

// BroadcastAll — всем живым соединениям (анонсы online/offline).
func (h *Hub) BroadcastAll(msg Message, except Conn) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if c == except {
			continue
		}
		_ = c.Send(msg)
	}
}
