package notes

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"

	appLog "datecalc/internal/log"
	"datecalc/internal/model"
)

// MemoryStore keeps notes in process memory.
type MemoryStore struct {
	limits Limits
	now    func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element // value is *model.Note
	order *list.List               // front = most recently used
}

func NewMemoryStore(l Limits) *MemoryStore {
	return &MemoryStore{
		limits: l.normalize(),
		now:    time.Now,
		items:  make(map[string]*list.Element),
		order:  list.New(),
	}
}

func (s *MemoryStore) Limits() Limits { return s.limits }

func (s *MemoryStore) Put(_ context.Context, name, content string) (PutResult, error) {
	name, err := validate(name, content, s.limits)
	if err != nil {
		return PutResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Second)
	if el, ok := s.items[name]; ok {
		n := el.Value.(*model.Note)
		n.Content, n.UpdatedAt = content, now
		s.order.MoveToFront(el)
		return PutResult{Note: *n, Updated: true}, nil
	}

	var res PutResult
	if len(s.items) >= s.limits.MaxNotes {
		if back := s.order.Back(); back != nil {
			old := back.Value.(*model.Note)
			s.order.Remove(back)
			delete(s.items, old.Name)
			res.Evicted = old.Name
			appLog.Warn("note store full, evicted least recently used note", "evicted", old.Name, "max_notes", s.limits.MaxNotes)
		}
	}
	n := &model.Note{Name: name, Content: content, UpdatedAt: now}
	s.items[name] = s.order.PushFront(n)
	res.Note = *n
	return res, nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (model.Note, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return model.Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[name]
	if !ok {
		return model.Note{}, ErrNotFound
	}
	s.order.MoveToFront(el)
	return *el.Value.(*model.Note), nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Note, error) {
	s.mu.Lock()
	out := make([]model.Note, 0, len(s.items))
	for _, el := range s.items {
		out = append(out, *el.Value.(*model.Note))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[name]
	if !ok {
		return ErrNotFound
	}
	s.order.Remove(el)
	delete(s.items, name)
	return nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *MemoryStore) Close() error { return nil }
