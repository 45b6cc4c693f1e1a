/*
Package replication implements spec.md §4.7: a master pool of size 1 and
a slave pool of size >= 1, writes always going to the master and reads
going to a slave chosen by the same selection algorithm cluster.Router
uses, restricted to the slave list, with optional fallback to the master
when every slave is down.
*/
package replication

import (
	"context"
	"errors"

	"github.com/nodewire/rediskit/channel"
	"github.com/nodewire/rediskit/cluster"
	"github.com/nodewire/rediskit/pool"
	"github.com/nodewire/rediskit/resp"
	"github.com/nodewire/rediskit/rkerrors"
)

// Router composes a master pool.Pool (size 1) and a slave cluster.Router,
// implementing command.Dispatcher.
type Router struct {
	Master *pool.Pool
	Slaves *cluster.Router

	// FallbackToMaster lets reads fall through to the master when every
	// slave is down (spec.md §4.7's default: yes).
	FallbackToMaster bool
}

// New builds a Router with fallbackToMaster taken as given; New applies
// no default (config.Config.Fallback supplies the default of true).
func New(master *pool.Pool, slaves *cluster.Router, fallbackToMaster bool) *Router {
	return &Router{Master: master, Slaves: slaves, FallbackToMaster: fallbackToMaster}
}

// Dispatch implements command.Dispatcher. Writes (readOnly == false)
// always go to the master slot; if it's down, the write fails outright.
// Reads go to a slave via Slaves' RoutingStrategy; if none is available
// and FallbackToMaster is set, the read is retried against the master.
func (r *Router) Dispatch(ctx context.Context, key string, readOnly bool, cmd *channel.Command) (resp.Data, error) {
	if !readOnly {
		return r.sendMaster(ctx, cmd)
	}

	data, err := r.Slaves.Dispatch(ctx, key, true, cmd)
	if err == nil {
		return data, nil
	}
	// spec.md §4.7 scopes the read fallback to "every slave is down", not
	// to any failure a live slave can return (a Timeout or a
	// RedisServerError is not a down slave); cluster.Router.Dispatch only
	// ever returns ErrIllegalState for the former.
	if !r.FallbackToMaster || !errors.Is(err, rkerrors.ErrIllegalState) {
		return resp.Data{}, err
	}
	// cmd is already (possibly) in-flight on a slave's private FIFO; a
	// timed-out Command is left there rather than removed (spec.md §5),
	// so the fallback needs its own Command rather than reusing cmd
	// against a second channel.
	retry := channel.NewCommand(cmd.Name, cmd.Payload)
	return r.sendMaster(ctx, retry)
}

func (r *Router) sendMaster(ctx context.Context, cmd *channel.Command) (resp.Data, error) {
	ch := r.Master.Channel(0)
	if ch == nil {
		return resp.Data{}, rkerrors.ErrIllegalState
	}
	return ch.Send(ctx, cmd)
}
