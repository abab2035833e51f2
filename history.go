package main

import (
	"sync"
	"time"
)

type historyItem struct {
	ID   string    // submission identifier
	Text string    // message text
	Sent time.Time // record addition time
}

// History remembers the last message submitted to each number.
type History struct {
	list map[string]historyItem // by destination number
	mu   sync.RWMutex
}

func (h *History) Add(to, id, text string) {
	h.mu.Lock()
	if h.list == nil {
		h.list = make(map[string]historyItem)
	}
	h.list[to] = historyItem{
		ID:   id,
		Text: text,
		Sent: time.Now(),
	}
	h.mu.Unlock()
}

// Recent returns the identifier of the same text sent to the number within
// window.
func (h *History) Recent(to, text string, window time.Duration) (id string, ok bool) {
	if window <= 0 {
		return "", false
	}
	h.mu.RLock()
	item, found := h.list[to]
	h.mu.RUnlock()
	if !found || item.Text != text || time.Since(item.Sent) > window {
		return "", false
	}
	return item.ID, true
}
