package allocator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/internal/models"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

// CountSource supplies the directory-side student counts the allocator
// derives its sequence numbers from.
type CountSource interface {
	TotalStudents(ctx context.Context) (int, error)
	CountByCodePrefix(ctx context.Context, prefix string) (int, error)
}

// Service issues candidate student codes. A single mutex serializes the
// count-then-compute critical section so no two in-process callers ever
// derive the same code; cross-process races are handled by the caller
// probing successive offsets.
type Service struct {
	mu     sync.Mutex
	counts CountSource
	prefix string
	logger *zap.Logger
}

// NewService constructs an allocator Service.
func NewService(counts CountSource, prefix string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{counts: counts, prefix: prefix, logger: logger}
}

// Allocate returns the candidate code for the given attempt offset. The
// offset lets the caller probe successive codes without re-deriving the base
// count for every collision.
func (s *Service) Allocate(ctx context.Context, offset int) (models.StudentCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.counts.TotalStudents(ctx)
	if err != nil {
		s.logger.Warn("primary student count failed, using prefix fallback", zap.Error(err))
		total, err = s.counts.CountByCodePrefix(ctx, s.prefix)
		if err != nil {
			return models.StudentCode{}, appErrors.Wrap(err, appErrors.ErrAllocationUnavailable.Code, appErrors.ErrAllocationUnavailable.Status, "both student count queries failed")
		}
	}

	return models.StudentCode{Prefix: s.prefix, Sequence: total + 1 + offset}, nil
}
