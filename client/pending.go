package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/luma/fcp/event"
	"github.com/luma/fcp/metrics"
	"github.com/luma/fcp/protocol"
)

// call is the resolution slot of one pending operation. It is resolved at
// most once, always from the read loop.
type call struct {
	done chan struct{}
	err  error
}

func newCall() *call {
	return &call{done: make(chan struct{})}
}

func (p *call) resolved() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// complete resolves the call successfully.
func (p *call) complete() {
	p.fail(nil)
}

func (p *call) fail(err error) {
	if p.resolved() {
		return
	}

	p.err = err
	close(p.done)
}

// execute subscribes handle, sends requests and waits for handle to resolve
// the call. Protocol errors, duplicate client name closures and connection
// closure resolve any pending call. The subscription is released on every
// return path; ctx expiry abandons the wait without closing the connection.
func (c *Client) execute(ctx context.Context, operation string, handle func(ev event.Event, p *call), requests ...*protocol.Message) error {
	p := newCall()

	sub := c.conn.Subscribe(func(ev event.Event) {
		// Resolution and every handle call happen on the read loop, so no
		// results are touched after the caller has been released
		if p.resolved() {
			return
		}

		switch e := ev.(type) {
		case *event.ProtocolError:
			p.fail(newProtocolError(e))
			return

		case *event.CloseConnectionDuplicateClientName:
			p.fail(ErrDuplicateClientName)
			return

		case event.ConnectionClosed:
			p.fail(&ConnectionClosedError{Cause: e.Err})
			return
		}

		handle(ev, p)
	})
	defer sub.Unsubscribe()

	log := c.log.With(zap.String("operation", operation))
	started := time.Now()
	c.metrics.RecordCallStart()

	err := c.wait(ctx, p, requests)

	c.metrics.RecordCallDone(operation, callResult(err), time.Since(started).Seconds())
	if err != nil {
		log.Debug("Operation failed", zap.Error(err))
	}

	return err
}

func (c *Client) wait(ctx context.Context, p *call, requests []*protocol.Message) error {
	for _, req := range requests {
		if err := c.conn.Send(req); err != nil {
			return err
		}
	}

	select {
	case <-p.done:
		return p.err

	case <-ctx.Done():
		return ctx.Err()
	}
}

func callResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	case errors.Is(err, ErrConnectionClosed), errors.Is(err, ErrDuplicateClientName):
		return metrics.ResultClosed
	}

	return metrics.ResultFailure
}

// matches reports whether identifier correlates with ours. Some replies
// don't echo the identifier at all.
func matches(identifier, ours string) bool {
	return identifier == "" || identifier == ours
}
