package knowledge

import "github.com/maxzrff/KnowledgeMCP/internal/domain"

// Task returns a snapshot of an async processing task.
func (s *Service) Task(id string) (domain.ProcessingTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.ProcessingTask{}, false
	}
	return *t, true
}
