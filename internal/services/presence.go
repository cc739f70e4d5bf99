package services

import "sync"

// Presence tracks which conversations are open on this instance.
type Presence struct {
	mu   sync.Mutex
	open map[string]map[string]int
}

func NewPresence() *Presence {
	return &Presence{open: make(map[string]map[string]int)}
}

func (p *Presence) Enter(selfID, partnerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open[selfID] == nil {
		p.open[selfID] = make(map[string]int)
	}
	p.open[selfID][partnerID]++
}

func (p *Presence) Leave(selfID, partnerID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	partners := p.open[selfID]
	if partners == nil {
		return
	}
	if partners[partnerID] <= 1 {
		delete(partners, partnerID)
	} else {
		partners[partnerID]--
	}
	if len(partners) == 0 {
		delete(p.open, selfID)
	}
}

// IsOpen reports whether selfID currently has the conversation with partnerID open.
func (p *Presence) IsOpen(selfID, partnerID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open[selfID][partnerID] > 0
}
