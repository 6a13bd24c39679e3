package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_store_operations_total",
			Help: "Total number of task store operations",
		},
		[]string{"op", "result"},
	)

	storeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_store_operation_duration_seconds",
			Help:    "Histogram of task store operation durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(storeOpsTotal, storeOpDuration)
}

type instrumented struct {
	next   Store
	tracer trace.Tracer
	logger *slog.Logger
}

// Instrument wraps store so every call records metrics, a span and a debug log.
func Instrument(store Store, logger *slog.Logger) Store {
	return &instrumented{
		next:   store,
		tracer: otel.Tracer("tasks"),
		logger: logger,
	}
}

func (s *instrumented) observe(ctx context.Context, op string, id int64, fn func(context.Context) error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "tasks."+op)
	defer span.End()
	if id != 0 {
		span.SetAttributes(attribute.Int64("task.id", id))
	}

	err := fn(ctx)

	result := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	dur := time.Since(start)
	storeOpsTotal.WithLabelValues(op, result).Inc()
	storeOpDuration.WithLabelValues(op).Observe(dur.Seconds())

	s.logger.DebugContext(ctx, "store_op",
		slog.String("op", op),
		slog.Int64("id", id),
		slog.String("result", result),
		slog.Float64("duration_ms", float64(dur.Microseconds())/1000.0),
	)
}

func (s *instrumented) GetAllTasks(ctx context.Context) (out []Task, err error) {
	s.observe(ctx, "GetAllTasks", 0, func(ctx context.Context) error {
		out, err = s.next.GetAllTasks(ctx)
		return err
	})
	return out, err
}

func (s *instrumented) GetTaskByID(ctx context.Context, id int64) (t Task, err error) {
	s.observe(ctx, "GetTaskByID", id, func(ctx context.Context) error {
		t, err = s.next.GetTaskByID(ctx, id)
		return err
	})
	return t, err
}

func (s *instrumented) InsertTask(ctx context.Context, in Task) (t Task, err error) {
	s.observe(ctx, "InsertTask", in.ID, func(ctx context.Context) error {
		t, err = s.next.InsertTask(ctx, in)
		return err
	})
	return t, err
}

func (s *instrumented) UpdateTask(ctx context.Context, t Task) (err error) {
	s.observe(ctx, "UpdateTask", t.ID, func(ctx context.Context) error {
		err = s.next.UpdateTask(ctx, t)
		return err
	})
	return err
}

func (s *instrumented) DeleteTask(ctx context.Context, t Task) (err error) {
	s.observe(ctx, "DeleteTask", t.ID, func(ctx context.Context) error {
		err = s.next.DeleteTask(ctx, t)
		return err
	})
	return err
}
