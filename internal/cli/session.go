package cli

import (
	"sync"

	"StockLens/internal/domain/models"
)

// Session carries state between REPL commands, such as the last analysis
// used by export and plot.
type Session struct {
	mu          sync.RWMutex
	lastPayload *models.ChartPayload
	lastTicker  string
}

func NewSession() *Session { return &Session{} }

func (s *Session) SetLast(ticker string, p *models.ChartPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTicker = ticker
	s.lastPayload = p
}

// Last returns the most recent payload, or nil when nothing was analyzed.
func (s *Session) Last() (string, *models.ChartPayload) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTicker, s.lastPayload
}
