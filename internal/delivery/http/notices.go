package http

import (
	"sync"

	"github.com/smartcity/incidentmap/internal/service"
)

// Notices holds DataFetchFailure notices until the response that opened the
// session picks them up. Each notice is handed out once.
type Notices struct {
	mu      sync.Mutex
	pending map[string]service.Notice
}

// NewNotices creates an empty notice board
func NewNotices() *Notices {
	return &Notices{pending: make(map[string]service.Notice)}
}

// NotifyFetchFailure implements service.Notifier
func (n *Notices) NotifyFetchFailure(sessionID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[sessionID] = service.FetchFailureNotice()
}

// Take removes and returns the pending notice of a session
func (n *Notices) Take(sessionID string) *service.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	notice, ok := n.pending[sessionID]
	if !ok {
		return nil
	}
	delete(n.pending, sessionID)
	return &notice
}
