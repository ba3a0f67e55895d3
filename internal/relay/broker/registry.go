package broker

import (
	"sort"
	"sync"
)

// registry - live peers keyed by address.
// Mutated on connect/disconnect, copied on every fan-out.
type registry struct {
	mu   sync.RWMutex
	list map[string]*Peer
}

func newRegistry() *registry {
	return &registry{
		list: make(map[string]*Peer),
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

func (r *registry) get(addr string) (p *Peer, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok = r.list[addr]
	return p, ok
}

// add - registers fully built peer, returns false if its address is taken already.
func (r *registry) add(p *Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[p.addr]; ok {
		return false
	}
	r.list[p.addr] = p
	return true
}

// delete - removes the peer if it is still registered under its address.
// Deleting of absent (or replaced) peer is a no-op, returns false in that case.
func (r *registry) delete(p *Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kept, ok := r.list[p.addr]; !ok || kept != p {
		return false
	}
	delete(r.list, p.addr)
	return true
}

// snapshot - returns copy of registered peers, the order is undefined.
func (r *registry) snapshot() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peers := make([]*Peer, 0, len(r.list))
	for _, p := range r.list {
		peers = append(peers, p)
	}
	return peers
}

func (r *registry) addresses() []string {
	r.mu.RLock()
	addrs := make([]string, 0, len(r.list))
	for addr := range r.list {
		addrs = append(addrs, addr)
	}
	r.mu.RUnlock()
	sort.Strings(addrs)
	return addrs
}
