package sales

import (
	"context"

	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

// State is where one sale attempt currently is.
type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StateReservingStock  State = "reserving_stock"
	StatePersistingOrder State = "persisting_order"
	StateCompleted       State = "completed"
	StateErrored         State = "errored"
)

var validNext = map[State]map[State]bool{
	StateIdle:            {StateValidating: true},
	StateValidating:      {StateReservingStock: true, StateErrored: true},
	StateReservingStock:  {StatePersistingOrder: true, StateErrored: true},
	StatePersistingOrder: {StateCompleted: true, StateErrored: true},
	StateCompleted:       {},
	StateErrored:         {},
}

// CanTransition reports whether from may move directly to to.
func CanTransition(from, to State) bool {
	return validNext[from][to]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(validNext[s]) == 0
}

// attempt tracks one run through the pipeline and logs each move.
type attempt struct {
	state    State
	failedIn State
	logg     *logger.Logger
}

func newAttempt(logg *logger.Logger) *attempt {
	return &attempt{state: StateIdle, logg: logg}
}

func (a *attempt) advance(ctx context.Context, to State) error {
	if !CanTransition(a.state, to) {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "invalid sale transition %s -> %s", a.state, to)
	}
	a.logg.Info(a.logg.WithFields(ctx, map[string]any{
		"from": a.state,
		"to":   to,
	}), "sale.state")
	a.state = to
	return nil
}

// fail moves the attempt to Errored and records where it stopped.
func (a *attempt) fail(ctx context.Context, err error) {
	if a.state.Terminal() {
		return
	}
	a.failedIn = a.state
	fields := map[string]any{
		"state":  a.state,
		"reason": string(pkgerrors.CodeOf(err)),
	}
	if line, ok := failingLine(err); ok {
		fields["line"] = line
	}
	a.state = StateErrored
	a.logg.Warn(a.logg.WithFields(ctx, fields), "sale.failed")
}

func failingLine(err error) (int, bool) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return 0, false
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		return 0, false
	}
	line, ok := details["line"].(int)
	return line, ok
}
