package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/repository"
)

type memorySink struct {
	mu   sync.Mutex
	logs []*repository.AuditLog
	fail bool
}

func (s *memorySink) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("mongo down")
	}
	s.logs = append(s.logs, log)
	return nil
}

func (s *memorySink) snapshot() []*repository.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*repository.AuditLog(nil), s.logs...)
}

func TestRecorder_WritesInOrder(t *testing.T) {
	sink := &memorySink{}
	r, err := NewRecorder(sink, zap.NewNop())
	require.NoError(t, err)
	defer r.Stop()

	r.Record(Entry{Action: ActionPlaced, OrderID: 1, ActorID: 10, Data: map[string]interface{}{"total": "100"}})
	r.Record(Entry{Action: ActionStatusChanged, OrderID: 1, ActorID: 2, Data: map[string]interface{}{"to": "confirmed"}})
	r.Record(Entry{Action: ActionInvoiced, OrderID: 1})

	require.NoError(t, r.Flush(time.Second))

	logs := sink.snapshot()
	require.Len(t, logs, 3)
	assert.Equal(t, ActionPlaced, logs[0].Action)
	assert.Equal(t, ActionStatusChanged, logs[1].Action)
	assert.Equal(t, ActionInvoiced, logs[2].Action)
	assert.Equal(t, "1", logs[0].EntityID)
	assert.Equal(t, uint(10), logs[0].ActorID)
	assert.Equal(t, "order-service", logs[0].Service)
	assert.False(t, logs[2].CreatedAt.IsZero())
}

func TestRecorder_SinkErrorsAreSwallowed(t *testing.T) {
	sink := &memorySink{fail: true}
	r, err := NewRecorder(sink, zap.NewNop())
	require.NoError(t, err)
	defer r.Stop()

	r.Record(Entry{Action: ActionCancelled, OrderID: 3})
	require.NoError(t, r.Flush(time.Second))
	assert.Empty(t, sink.snapshot())
}
