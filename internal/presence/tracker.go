package presence

import "sync"

// Tracker — refcount живых соединений на пользователя.
// У пользователя может быть несколько вкладок/устройств; offline наступает
// только когда закрылось последнее соединение. Решение о переходе
// online/offline принимается в той же критической секции, что и счётчик,
// иначе возможны двойные анонсы при параллельных connect/disconnect.
type Tracker struct {
	mu    sync.Mutex
	conns map[string]int // userID -> число живых соединений
}

func NewTracker() *Tracker {
	return &Tracker{conns: make(map[string]int)}
}

// AddConnection увеличивает счётчик; true — пользователь только что стал online.
func (t *Tracker) AddConnection(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conns[userID]++
	return t.conns[userID] == 1
}

// RemoveConnection уменьшает счётчик; true — пользователь только что стал offline.
func (t *Tracker) RemoveConnection(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.conns[userID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.conns, userID)
		return true
	}
	t.conns[userID] = n - 1
	return false
}

// Snapshot — текущее множество online-пользователей для новой сессии.
func (t *Tracker) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.conns))
	for id := range t.conns {
		out = append(out, id)
	}
	return out
}

func (t *Tracker) IsOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conns[userID] > 0
}
