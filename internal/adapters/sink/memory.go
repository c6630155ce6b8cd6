package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/jobplan/internal/domain/model"
)

// MemorySink keeps descriptors in memory, keyed by iteration. Used for dry
// runs and tests.
type MemorySink struct {
	mu     sync.Mutex
	byIter map[int][]model.JobDescriptor
	// FailAfter makes Write fail once this many descriptors were accepted
	// in total. Zero disables.
	FailAfter int
	written   int
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{byIter: make(map[int][]model.JobDescriptor)}
}

// Clear implements Sink.
func (m *MemorySink) Clear(_ context.Context, iteration int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.byIter[iteration])
	delete(m.byIter, iteration)
	return n, nil
}

// Write implements Sink.
func (m *MemorySink) Write(ctx context.Context, d model.JobDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter > 0 && m.written >= m.FailAfter {
		return fmt.Errorf("%w: model %d: memory sink full", ErrWriteDescriptor, d.ModelNumber)
	}
	m.written++
	m.byIter[d.Metadata.Iteration] = append(m.byIter[d.Metadata.Iteration], d)
	return nil
}

// Descriptors returns a copy of what is stored for iteration.
func (m *MemorySink) Descriptors(iteration int) []model.JobDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.JobDescriptor(nil), m.byIter[iteration]...)
}
