package utility

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ExecutionID identifies one backtest run. Every bar, notification and
// account snapshot of the run carries it.
type ExecutionID = uuid.UUID

var execution atomic.Pointer[ExecutionID]

// GetExecutionID returns the id of the current run, creating one on first use.
func GetExecutionID() ExecutionID {
	if id := execution.Load(); id != nil {
		return *id
	}
	id := uuid.Must(uuid.NewV7())
	if execution.CompareAndSwap(nil, &id) {
		return id
	}
	return *execution.Load()
}

// NewExecutionID starts a new run.
func NewExecutionID() ExecutionID {
	id := uuid.Must(uuid.NewV7())
	execution.Store(&id)
	return id
}

// TraceID correlates the events produced by a single bar cycle.
// Layout: milliseconds since traceEpoch | 10 bit node | 13 bit sequence.
type TraceID = uint64

const (
	nodeBits = 10
	seqBits  = 13
	seqMask  = 1<<seqBits - 1
	nodeMask = 1<<nodeBits - 1
)

var (
	traceEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	traceSeq   atomic.Uint64
	traceNode  = uint64(uuid.New().ID()) & nodeMask
)

func CreateTraceID() TraceID {
	ms := uint64(time.Since(traceEpoch).Milliseconds())
	seq := traceSeq.Add(1) & seqMask
	if seq == 0 {
		time.Sleep(time.Millisecond)
		ms = uint64(time.Since(traceEpoch).Milliseconds())
	}
	return ms<<(nodeBits+seqBits) | traceNode<<seqBits | seq
}
