package application

import (
	"sync"

	"github.com/ericfisherdev/prwatch/internal/domain/port/driven"
)

// StatusClientProvider enables runtime hot-swap of the status client. It
// holds a mutex-protected reference to the current driven.StatusClient so a
// credential change takes effect on the next request without touching
// requests already in flight, which keep the client they started with.
type StatusClientProvider struct {
	mu     sync.RWMutex
	client driven.StatusClient
}

// NewStatusClientProvider creates a provider with the given initial client.
func NewStatusClientProvider(client driven.StatusClient) *StatusClientProvider {
	return &StatusClientProvider{client: client}
}

// Get returns the current status client.
func (p *StatusClientProvider) Get() driven.StatusClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Replace swaps the current client for a new one. The next caller of Get
// receives the new client.
func (p *StatusClientProvider) Replace(client driven.StatusClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
}
