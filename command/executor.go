/*
Package command implements spec.md §4.4: typed, validated builders over
the RESP wire format and the response parsers that turn replies back into
Go values. Per the teacher's flat command catalogue (l00pss-redkit's
commands.go) and spec.md §9's design note, there is exactly one
Executor — no per-family client hierarchy — and a set of thin façade
structs (Strings, Counters, Lists, Sets, SortedSets, Hashes, Geo, Keys)
that all route through the same Executor.
*/
package command

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/metrics"
	"github.com/nodewire/rediskit/resp"
	"github.com/nodewire/rediskit/rkerrors"
	"github.com/nodewire/rediskit/transcoder"
)

// Dispatcher is the one thing Executor needs from the routing layer:
// given a key (used to pick a node) and whether the command is a read,
// send cmd and return its resolved frame. cluster.Router and
// replication.Router both implement it; Executor never imports either,
// avoiding a dependency cycle through pool/channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, key string, readOnly bool, cmd *channel.Command) (resp.Data, error)
}

// Executor is the single point every typed operation funnels through:
// build RESP bytes, dispatch, classify the reply, record observability.
type Executor struct {
	Dispatcher Dispatcher
	Opaque     *transcoder.Opaque
	Raw        transcoder.Raw
	Metrics    *metrics.Collector // nil is a valid no-op collector
}

// NewExecutor wires a Dispatcher with the default opaque/raw transcoder
// pair. Metrics may be nil; all Executor methods tolerate it.
func NewExecutor(d Dispatcher, m *metrics.Collector) *Executor {
	return &Executor{
		Dispatcher: d,
		Opaque:     &transcoder.Opaque{Stats: m},
		Raw:        transcoder.Raw{},
		Metrics:    m,
	}
}

// call builds, dispatches, times, and classifies one command. name is
// used for observability only; key drives routing; readOnly selects the
// replication path; args are the RESP command's string arguments
// (command name first).
func (e *Executor) call(ctx context.Context, name, key string, readOnly bool, args ...string) (resp.Data, error) {
	start := time.Now()
	payload := resp.EncodeStrings(args...)
	cmd := channel.NewCommand(name, payload)

	data, err := e.Dispatcher.Dispatch(ctx, key, readOnly, cmd)

	elapsed := time.Since(start)
	e.observe(name, key, elapsed, err, args)
	return data, err
}

// observe records execution metrics for one call, including the
// command's own arguments as the parameter map spec.md §4.8 requires a
// slow-log record to carry.
func (e *Executor) observe(name, host string, elapsed time.Duration, err error, args []string) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.ObserveExecutionWithParams(name, host, elapsed, err, map[string]any{"args": args})
}

// validateKey is the one precondition every operation in spec.md §6
// shares: a key must be non-empty.
func validateKey(key string) error {
	if key == "" {
		return errors.Wrap(rkerrors.ErrInvalidArgument, "key must not be empty")
	}
	return nil
}

// invalidArg builds an ErrInvalidArgument carrying msg, for the
// parameter-specific preconditions each family file checks (non-nil
// member, non-negative count, and so on).
func invalidArg(msg string) error {
	return errors.Wrap(rkerrors.ErrInvalidArgument, msg)
}
