package runtime

import (
	"fmt"
	"sync"
)

type Registry struct {
	mu     sync.RWMutex
	stages map[StageName]Stage
}

func NewRegistry() *Registry {
	return &Registry{stages: make(map[StageName]Stage)}
}

func (r *Registry) Register(s Stage) error {
	if s == nil {
		return fmt.Errorf("nil stage")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("stage Name() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stages[name]; exists {
		return fmt.Errorf("stage already registered for name=%s", name)
	}
	r.stages[name] = s
	return nil
}

func (r *Registry) Get(name StageName) (Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[name]
	return s, ok
}
