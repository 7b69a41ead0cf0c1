package mediaserver

import (
	"context"
	"sync"
)

// InfoSource serves the unauthenticated system info. *Client satisfies it.
type InfoSource interface {
	GetPublicInfo(ctx context.Context) (*PublicSystemInfo, error)
}

// ServerIDs remembers the server id learned for each endpoint
// configuration until Clear. Failed lookups are not remembered.
type ServerIDs struct {
	mu  sync.Mutex
	ids map[string]string
	gen uint64
}

func NewServerIDs() *ServerIDs {
	return &ServerIDs{ids: make(map[string]string)}
}

// Lookup returns the id stored under key, asking src on a miss.
func (s *ServerIDs) Lookup(ctx context.Context, key string, src InfoSource) (string, error) {
	s.mu.Lock()
	id, ok := s.ids[key]
	gen := s.gen
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	info, err := src.GetPublicInfo(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	// an id learned across Clear belongs to the old configuration
	if s.gen == gen {
		s.ids[key] = info.ID
	}
	s.mu.Unlock()
	return info.ID, nil
}

// Clear forgets every learned id.
func (s *ServerIDs) Clear() {
	s.mu.Lock()
	s.ids = make(map[string]string)
	s.gen++
	s.mu.Unlock()
}
