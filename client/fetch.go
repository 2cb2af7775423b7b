package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luma/fcp/event"
	"github.com/luma/fcp/protocol"
)

// GetResult is the outcome of GetURI. A fetch the node could not complete is
// not an error: Success is false and ErrorCode holds the failure code.
type GetResult struct {
	Success       bool
	ContentType   string
	ContentLength int64
	Payload       []byte

	// RealURI is the URI the data was finally fetched from, after redirects
	RealURI string

	ErrorCode int
}

// GetURI fetches uri, following redirects. The same identifier is reused for
// every hop. A redirect back to a URI already visited fails with
// ErrRedirectLoop instead of being followed again, so a redirect cycle ends
// the call rather than running until ctx expires.
func (c *Client) GetURI(ctx context.Context, uri string, filterData bool) (*GetResult, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("client-get")
	result := &GetResult{RealURI: uri, ErrorCode: protocol.DefaultInt}
	visited := map[string]bool{uri: true}

	log := c.log.With(zap.String("identifier", id))

	err := c.execute(ctx, protocol.ClientGet, func(ev event.Event, p *call) {
		switch e := ev.(type) {
		case *event.AllData:
			if e.Identifier() != id {
				return
			}

			result.Success = true
			result.ContentType = e.ContentType()
			result.ContentLength = e.DataLength()
			result.Payload = e.Payload
			p.complete()

		case *event.GetFailed:
			if e.Identifier() != id {
				return
			}

			if !e.Redirect() {
				result.ErrorCode = e.Code()
				p.complete()
				return
			}

			next := e.RedirectURI()
			if visited[next] {
				p.fail(fmt.Errorf("%s: %w", next, ErrRedirectLoop))
				return
			}

			visited[next] = true
			result.RealURI = next
			c.metrics.RecordRedirect()
			log.Debug("Following redirect", zap.String("uri", next), zap.Int("code", e.Code()))

			if err := c.conn.Send(protocol.NewClientGet(next, id, filterData)); err != nil {
				p.fail(err)
			}
		}
	}, protocol.NewClientGet(uri, id, filterData))

	if err != nil {
		return nil, err
	}

	return result, nil
}
