package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/joseph-ayodele/docfields/internal/entity"
)

// MemoryStore is a process-local Store, used in tests and when no database is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	templates    map[string]*entity.Template
	instructions map[string]map[string]string
	settings     map[string]string
	prompts      map[string][]entity.PromptVersion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates:    make(map[string]*entity.Template),
		instructions: make(map[string]map[string]string),
		settings:     make(map[string]string),
		prompts:      make(map[string][]entity.PromptVersion),
	}
}

func (s *MemoryStore) GetTemplate(_ context.Context, id string) (*entity.Template, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, false, nil
	}
	return tpl.Clone(), true, nil
}

func (s *MemoryStore) ListTemplates(context.Context) ([]*entity.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) PutTemplate(_ context.Context, tpl *entity.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.ID] = tpl.Clone()
	return nil
}

func (s *MemoryStore) DeleteTemplate(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.templates[id]
	delete(s.templates, id)
	delete(s.instructions, id)
	delete(s.prompts, id)
	return ok, nil
}

func (s *MemoryStore) GetInstructions(_ context.Context, templateID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.instructions[templateID]), nil
}

func (s *MemoryStore) PutInstructions(_ context.Context, templateID string, instructions map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(instructions) == 0 {
		delete(s.instructions, templateID)
		return nil
	}
	s.instructions[templateID] = maps.Clone(instructions)
	return nil
}

func (s *MemoryStore) GetSetting(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[name]
	return v, ok, nil
}

func (s *MemoryStore) PutSetting(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[name] = value
	return nil
}

func (s *MemoryStore) AppendPromptVersion(_ context.Context, v entity.PromptVersion, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.prompts[v.TemplateID]
	if n := len(history); n > 0 && history[n-1].Version == v.Version {
		return nil
	}
	history = append(history, v)
	if len(history) > keep {
		history = slices.Clone(history[len(history)-keep:])
	}
	s.prompts[v.TemplateID] = history
	return nil
}

func (s *MemoryStore) ListPromptVersions(_ context.Context, templateID string) ([]entity.PromptVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.prompts[templateID]), nil
}
