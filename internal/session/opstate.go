package session

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Operation states.
const (
	stateIdle    = "idle"
	stateBusy    = "busy"
	stateSuccess = "success"
	stateFailed  = "failed"
)

// Operation events.
const (
	evStart   = "start"
	evSucceed = "succeed"
	evFail    = "fail"
	evReset   = "reset"
	evCancel  = "cancel"
)

// Op names an operation kind.
type Op string

const (
	OpReview   Op = "review"
	OpRefactor Op = "refactor"
	OpChat     Op = "chat"
)

// Outcome is how the last call of an operation kind ended.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

type opContext struct {
	Op Op
}

// opMachine tracks idle -> busy -> {success, failed} -> idle for one
// operation kind. Completion resets to idle immediately and keeps the outcome.
// Callers serialize access.
type opMachine struct {
	interp *statekit.Interpreter[opContext]
	last   Outcome
}

func newOpMachine(op Op) (*opMachine, error) {
	builder := statekit.NewMachine[opContext](string(op)).
		WithInitial(statekit.StateID(stateIdle)).
		WithContext(opContext{Op: op})

	builder.State(stateIdle).
		On(evStart).Target(stateBusy).
		Done()

	builder.State(stateBusy).
		On(evSucceed).Target(stateSuccess).
		On(evFail).Target(stateFailed).
		On(evCancel).Target(stateIdle).
		Done()

	builder.State(stateSuccess).
		On(evReset).Target(stateIdle).
		Done()

	builder.State(stateFailed).
		On(evReset).Target(stateIdle).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build %s state machine: %w", op, err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &opMachine{interp: interp}, nil
}

func (m *opMachine) state() string {
	return string(m.interp.State().Value)
}

func (m *opMachine) send(event string) {
	m.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (m *opMachine) busy() bool {
	return m.state() == stateBusy
}

// start moves to busy, cancelling a call already in flight.
func (m *opMachine) start() {
	if m.busy() {
		m.cancel()
	}
	m.send(evStart)
}

// cancel abandons an in-flight call. It is a no-op when idle.
func (m *opMachine) cancel() {
	if !m.busy() {
		return
	}
	m.send(evCancel)
	m.last = OutcomeCancelled
}

// finish records the outcome and returns to idle.
func (m *opMachine) finish(ok bool) {
	if !m.busy() {
		return
	}
	if ok {
		m.send(evSucceed)
		m.last = OutcomeSuccess
	} else {
		m.send(evFail)
		m.last = OutcomeFailed
	}
	m.send(evReset)
}
