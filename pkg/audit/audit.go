// Package audit records order state changes through a single actor so that
// audit writes never block or reorder the request path.
package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/example/shoppurs/pkg/repository"
)

const (
	ActionPlaced        = "order_placed"
	ActionCounterPlaced = "counter_order_placed"
	ActionStatusChanged = "status_changed"
	ActionCancelled     = "order_cancelled"
	ActionInvoiced      = "invoice_generated"
)

const service = "order-service"

// Sink persists audit entries. *repository.MongoRepository implements it.
type Sink interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type Entry struct {
	Action  string
	OrderID uint
	ActorID uint
	Data    map[string]interface{}
	At      time.Time
}

type record struct {
	entry Entry
}

type flush struct{}

type flushed struct{}

type auditActor struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger
}

func (a *auditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *record:
		a.write(msg.entry)

	case *flush:
		ctx.Respond(&flushed{})

	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopped:
		a.logger.Info("Audit actor stopped")
	}
}

func (a *auditActor) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	log := &repository.AuditLog{
		Service:   service,
		Action:    e.Action,
		EntityID:  strconv.FormatUint(uint64(e.OrderID), 10),
		ActorID:   e.ActorID,
		Data:      bson.M(e.Data),
		CreatedAt: e.At,
	}
	if err := a.sink.CreateAuditLog(ctx, log); err != nil {
		a.logger.Warn("Failed to write audit log",
			zap.String("action", e.Action),
			zap.Uint("order_id", e.OrderID),
			zap.Error(err))
	}
}

// Recorder is the handle the services hold.
type Recorder struct {
	system *actor.ActorSystem
	pid    *actor.PID
}

func NewRecorder(sink Sink, logger *zap.Logger) (*Recorder, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &auditActor{sink: sink, timeout: 5 * time.Second, logger: logger.Named("audit-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}

	return &Recorder{system: system, pid: pid}, nil
}

// Record enqueues the entry and returns immediately.
func (r *Recorder) Record(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	r.system.Root.Send(r.pid, &record{entry: e})
}

// Flush waits until every entry recorded before the call has been written.
func (r *Recorder) Flush(timeout time.Duration) error {
	_, err := r.system.Root.RequestFuture(r.pid, &flush{}, timeout).Result()
	return err
}

func (r *Recorder) Stop() {
	_ = r.system.Root.PoisonFuture(r.pid).Wait()
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(Entry) {}
