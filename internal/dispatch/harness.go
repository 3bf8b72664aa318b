// Package dispatch models the create/destroy/acknowledge lifecycle a real
// Wayland peer drives through the object table: allocating objects for
// outgoing requests or events, zombifying them on local destruction, and
// reconciling delete_id acknowledgements from the other side. It is the
// table's sole in-repository caller (spec.md scopes the table itself away
// from dispatch, wire format, and connection management; this package is
// the supplemented "realistic caller" SPEC_FULL.md adds).
package dispatch

import (
	"context"
	"fmt"

	"github.com/wl-go/wlgo/internal/logger"
	"github.com/wl-go/wlgo/internal/metrics"
	"github.com/wl-go/wlgo/internal/objtable"
	"github.com/wl-go/wlgo/internal/wire"
)

// Harness is a single peer's view of a connection: an object table plus the
// logging and metrics wired around it. It never touches a socket; callers
// feed it decoded wire.Message values (see Dispatch) from whatever
// transport they choose.
type Harness struct {
	side     objtable.Side
	connID   string
	table    *objtable.Table
	recorder *metrics.Recorder
}

// New constructs a Harness for one connection. rec may be nil to disable
// metrics collection entirely.
func New(side objtable.Side, connID string, rec *metrics.Recorder) *Harness {
	return &Harness{
		side:     side,
		connID:   connID,
		table:    objtable.New(side),
		recorder: rec,
	}
}

// Table exposes the underlying object table for callers that need direct
// access.
func (h *Harness) Table() *objtable.Table { return h.table }

// ctx returns a background context carrying this harness's connection and
// side, so every log line along the dispatch path is enriched without
// threading extra parameters through each call.
func (h *Harness) ctx() context.Context {
	lc := logger.NewLogContext(h.connID).WithSide(h.side.String())
	return logger.WithContext(context.Background(), lc)
}

// Create allocates a new object in this harness's own half, the path an
// outgoing creating request or event takes.
func (h *Harness) Create(flags uint32, payload any) (uint32, error) {
	id := h.table.InsertNew(flags, payload)
	if id == 0 && h.side == objtable.ServerSide {
		err := fmt.Errorf("dispatch: object table exhausted")
		h.recorder.ObserveOp(h.side, "insert_new", err)
		logger.ErrorCtx(h.ctx(), "object allocation failed")
		return 0, err
	}
	h.recorder.ObserveOp(h.side, "insert_new", nil)
	logger.DebugCtx(h.ctx(), "object allocated", logger.ObjectID(id), logger.Flags(flags))
	return id, nil
}

// MaterializeRemote records an id the peer allocated for the opposite half,
// e.g. recording a client-allocated id on the server's table via insert_at.
func (h *Harness) MaterializeRemote(id uint32, flags uint32, payload any) error {
	err := h.table.InsertAt(flags, id, payload)
	h.recorder.ObserveOp(h.side, "insert_at", err)
	if err != nil {
		logger.WarnCtx(h.ctx(), "materialize_remote failed", logger.ObjectID(id), logger.Err(err))
		return err
	}
	logger.DebugCtx(h.ctx(), "remote object materialized", logger.ObjectID(id))
	return nil
}

// ReserveRemote pre-reserves an id the peer is about to materialize,
// before the matching insert_at/new-object message arrives.
func (h *Harness) ReserveRemote(id uint32) error {
	err := h.table.ReserveNew(id)
	h.recorder.ObserveOp(h.side, "reserve_new", err)
	if err != nil {
		logger.WarnCtx(h.ctx(), "reserve_remote failed", logger.ObjectID(id), logger.Err(err))
	}
	return err
}

// Destroy zombifies id locally: the object is gone from this side's
// perspective, but interface metadata is kept so a late-arriving message
// naming it can be recognized and discarded instead of misrouted.
func (h *Harness) Destroy(id uint32, iface *Interface) error {
	evicted, err := h.table.Zombify(id, iface)
	h.recorder.ObserveOp(h.side, "zombify", err)
	if err != nil {
		logger.WarnCtx(h.ctx(), "destroy failed", logger.ObjectID(id), logger.Err(err))
		return err
	}
	if evicted {
		h.recorder.ObserveEviction()
		logger.InfoCtx(h.ctx(), "zombie fifo evicted oldest entry", logger.ObjectID(id))
	}
	logger.DebugCtx(h.ctx(), "object destroyed", logger.ObjectID(id), logger.Interface(iface.String()))
	return nil
}

// AckDelete reconciles a delete_id acknowledgement from the peer.
func (h *Harness) AckDelete(id uint32) error {
	err := h.table.MarkDeleted(id)
	h.recorder.ObserveOp(h.side, "mark_deleted", err)
	if err != nil {
		logger.WarnCtx(h.ctx(), "mark_deleted failed", logger.ObjectID(id), logger.Err(err))
		return err
	}
	logger.DebugCtx(h.ctx(), "delete_id acknowledged", logger.ObjectID(id))
	return nil
}

// DispatchOutcome classifies what Dispatch decided to do with an incoming
// message.
type DispatchOutcome int

const (
	// Routed means the id resolved to a Live payload; Payload is set.
	Routed DispatchOutcome = iota
	// Discarded means the id named a Zombie slot: the message is stale and
	// silently dropped, exactly the "hard part" of the library (spec.md §1).
	Discarded
	// Unknown means the id resolves to neither a Live payload nor a Zombie:
	// it was never allocated, or its slot has been freed (e.g. a zombie
	// reaped by a delete_id acknowledgement).
	Unknown
)

// DispatchResult is what Dispatch reports for one incoming message.
type DispatchResult struct {
	Outcome DispatchOutcome
	Payload any
}

// Dispatch resolves an incoming wire message's object id against the table
// and decides how to route it: to the Live payload, silently discarded
// because the object is a local zombie, or reported Unknown.
func (h *Harness) Dispatch(msg wire.Message) DispatchResult {
	if payload := h.table.Lookup(msg.ObjectID); payload != nil {
		logger.DebugCtx(h.ctx(), "message routed", logger.ObjectID(msg.ObjectID), logger.Opcode(msg.Opcode))
		return DispatchResult{Outcome: Routed, Payload: payload}
	}
	if iface := h.table.LookupZombie(msg.ObjectID); iface != nil {
		logger.InfoCtx(h.ctx(), "message discarded for zombie object",
			logger.ObjectID(msg.ObjectID), logger.Opcode(msg.Opcode))
		return DispatchResult{Outcome: Discarded}
	}
	logger.WarnCtx(h.ctx(), "message addressed unknown object",
		logger.ObjectID(msg.ObjectID), logger.Opcode(msg.Opcode))
	return DispatchResult{Outcome: Unknown}
}

// Snapshot reports the current table occupancy and publishes it to metrics.
func (h *Harness) Snapshot() objtable.Stats {
	s := h.table.Snapshot()
	h.recorder.ObserveSnapshot(s)
	return s
}
