package stor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/apex/log"
	"github.com/materials-commons/mcslides/pkg/lock"
	"github.com/materials-commons/mcslides/pkg/mcmodel"
)

// InMemoryPresentationStor keeps presentations in a map for the life of the process. Slide
// images live under slidesDir/<id>.
type InMemoryPresentationStor struct {
	mu            sync.RWMutex
	presentations map[string]*mcmodel.Presentation
	slidesDir     string
	deleteLocker  *lock.IdLocker[string]

	// removeAll is swapped out by tests to simulate a filesystem that won't let go.
	removeAll func(path string) error
}

func NewInMemoryPresentationStor(slidesDir string) *InMemoryPresentationStor {
	return &InMemoryPresentationStor{
		presentations: make(map[string]*mcmodel.Presentation),
		slidesDir:     slidesDir,
		deleteLocker:  lock.NewIdLocker[string](),
		removeAll:     os.RemoveAll,
	}
}

func (s *InMemoryPresentationStor) Put(p *mcmodel.Presentation) error {
	switch {
	case p == nil:
		return fmt.Errorf("presentation is nil")
	case !validID(p.ID):
		return fmt.Errorf("invalid presentation id %q", p.ID)
	case p.SlideCount != len(p.Slides):
		return fmt.Errorf("presentation %s has slideCount %d but %d slides", p.ID, p.SlideCount, len(p.Slides))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.presentations[p.ID]; exists {
		return fmt.Errorf("presentation %s already exists", p.ID)
	}

	s.presentations[p.ID] = p.Clone()
	return nil
}

func (s *InMemoryPresentationStor) Get(id string) (*mcmodel.Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presentations[id]
	if !ok {
		return nil, ErrNotFound
	}

	return p.Clone(), nil
}

func (s *InMemoryPresentationStor) List() []mcmodel.PresentationSummary {
	s.mu.RLock()
	summaries := make([]mcmodel.PresentationSummary, 0, len(s.presentations))
	for _, p := range s.presentations {
		summaries = append(summaries, p.Summary())
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ConvertedAt.Equal(summaries[j].ConvertedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].ConvertedAt.Before(summaries[j].ConvertedAt)
	})

	return summaries
}

func (s *InMemoryPresentationStor) Delete(id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	return s.deleteLocker.WithLock(id, func() error {
		if !s.exists(id) {
			return ErrNotFound
		}

		// Files before the record: Get must never return URLs to removed images.
		dir := s.SlideDir(id)
		if err := s.removeAll(dir); err != nil {
			log.Errorf("Unable to remove slides for %s in %s: %s", id, dir, err)
			return fmt.Errorf("unable to remove slides for %s: %w", id, err)
		}

		s.mu.Lock()
		delete(s.presentations, id)
		s.mu.Unlock()

		return nil
	})
}

func (s *InMemoryPresentationStor) GetSlide(id string, slideNumber int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presentations[id]
	if !ok {
		return "", ErrNotFound
	}

	url, ok := p.SlideURL(slideNumber)
	if !ok {
		return "", ErrNotFound
	}

	return url, nil
}

func (s *InMemoryPresentationStor) SlideDir(id string) string {
	return filepath.Join(s.slidesDir, id)
}

func (s *InMemoryPresentationStor) exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.presentations[id]
	return ok
}

// validID rejects ids that would resolve outside of slidesDir.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}

	return filepath.Base(id) == id
}
