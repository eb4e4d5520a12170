package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/WessleyAI/towline/engine/domain"
	"github.com/WessleyAI/towline/engine/inventory"
	"github.com/WessleyAI/towline/engine/vin"
	"github.com/WessleyAI/towline/pkg/metrics"
	"github.com/WessleyAI/towline/pkg/natsutil"
)

// Subjects.
const (
	SubjectValidate = "vin.validate"
	SubjectIntake   = "vehicle.intake"
	SubjectAccepted = "vehicle.accepted"
	SubjectRejected = "vehicle.rejected"
)

// CheckRequest is the payload on vin.validate.
type CheckRequest struct {
	VIN string `json:"vin"`
}

// CheckReply answers a CheckRequest.
type CheckReply struct {
	VIN        string `json:"vin"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	CheckDigit string `json:"check_digit,omitempty"`
}

// Rejection is published on vehicle.rejected.
type Rejection struct {
	VIN    string `json:"vin"`
	Reason string `json:"reason"`
	// Code is one of "invalid", "duplicate", "error".
	Code string `json:"code"`
}

type intaker interface {
	Intake(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error)
}

type worker struct {
	nc    *nats.Conn
	store intaker
	log   *slog.Logger

	handled *prometheus.CounterVec
}

func newWorker(nc *nats.Conn, store intaker, reg *metrics.Registry, log *slog.Logger) *worker {
	return &worker{
		nc:      nc,
		store:   store,
		log:     log,
		handled: reg.Counter("worker_messages_total", "Messages handled, by subject and outcome.", "subject", "outcome"),
	}
}

// start subscribes every handler under the queue group.
func (w *worker) start(queue string) ([]*nats.Subscription, error) {
	check, err := natsutil.Handle(w.nc, SubjectValidate, queue, w.check)
	if err != nil {
		return nil, err
	}
	intake, err := natsutil.QueueSubscribe(w.nc, SubjectIntake, queue, w.intake)
	if err != nil {
		check.Unsubscribe()
		return nil, err
	}
	return []*nats.Subscription{check, intake}, nil
}

func (w *worker) check(_ context.Context, req CheckRequest) CheckReply {
	reply := CheckReply{VIN: req.VIN}
	if d, err := vin.CheckDigit(req.VIN); err == nil {
		reply.CheckDigit = string(d)
	}
	if err := vin.Validate(req.VIN); err != nil {
		reply.Error = err.Error()
		w.handled.WithLabelValues(SubjectValidate, "invalid").Inc()
		return reply
	}
	reply.Valid = true
	w.handled.WithLabelValues(SubjectValidate, "valid").Inc()
	return reply
}

func (w *worker) intake(ctx context.Context, v domain.Vehicle) {
	out, err := w.store.Intake(ctx, v)
	if err == nil {
		w.handled.WithLabelValues(SubjectIntake, "accepted").Inc()
		if err := natsutil.Publish(ctx, w.nc, SubjectAccepted, out); err != nil {
			w.log.Error("publish accepted", "vin", out.VIN, "err", err)
		}
		return
	}

	rej := Rejection{VIN: v.VIN, Reason: err.Error(), Code: "error"}
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		rej.Code = "invalid"
	case errors.Is(err, inventory.ErrDuplicate):
		rej.Code = "duplicate"
	default:
		w.log.Error("intake failed", "vin", v.VIN, "err", err)
	}
	w.handled.WithLabelValues(SubjectIntake, rej.Code).Inc()
	if err := natsutil.Publish(ctx, w.nc, SubjectRejected, rej); err != nil {
		w.log.Error("publish rejected", "vin", v.VIN, "err", err)
	}
}
