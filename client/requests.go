package client

import (
	"context"

	"github.com/luma/fcp/event"
	"github.com/luma/fcp/protocol"
)

type RequestKind int

const (
	KindGet RequestKind = iota
	KindPut
)

func (k RequestKind) String() string {
	if k == KindPut {
		return "put"
	}

	return "get"
}

func (k RequestKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Request is the folded state of one persistent request.
type Request struct {
	Identifier  string
	Kind        RequestKind
	URI         string
	ClientToken string
	Global      bool

	// Directory is set for directory inserts
	Directory bool

	PriorityClass int
	MaxRetries    int

	TotalBlocks         int
	RequiredBlocks      int
	FailedBlocks        int
	FatallyFailedBlocks int
	SucceededBlocks     int
	FinalizedTotal      bool

	Complete  bool
	Failed    bool
	Fatal     bool
	ErrorCode int

	ContentType string
	Length      int64
}

// RequestTable folds a stream of request events into one Request per
// identifier. It is not safe for concurrent use.
type RequestTable struct {
	includeGlobal bool
	order         []string
	requests      map[string]*Request
}

// NewRequestTable returns an empty table. Requests on the global queue are
// only added when includeGlobal is set.
func NewRequestTable(includeGlobal bool) *RequestTable {
	return &RequestTable{
		includeGlobal: includeGlobal,
		requests:      make(map[string]*Request),
	}
}

// Fold applies ev to the table. Events for identifiers without a
// descriptor are ignored.
func (t *RequestTable) Fold(ev event.Event) {
	switch e := ev.(type) {
	case *event.PersistentGet:
		t.insert(e.Identifier(), e.Global(), func() *Request {
			return &Request{
				Kind:          KindGet,
				URI:           e.URI(),
				ClientToken:   e.ClientToken(),
				PriorityClass: e.PriorityClass(),
				MaxRetries:    e.MaxRetries(),
			}
		})

	case *event.PersistentPut:
		t.insert(e.Identifier(), e.Global(), func() *Request {
			return &Request{
				Kind:          KindPut,
				URI:           e.URI(),
				ClientToken:   e.ClientToken(),
				PriorityClass: e.PriorityClass(),
				MaxRetries:    e.MaxRetries(),
				ContentType:   e.MetadataContentType(),
				Length:        e.DataLength(),
			}
		})

	case *event.PersistentPutDir:
		t.insert(e.Identifier(), e.Global(), func() *Request {
			return &Request{
				Kind:          KindPut,
				Directory:     true,
				URI:           e.URI(),
				ClientToken:   e.ClientToken(),
				PriorityClass: e.PriorityClass(),
				MaxRetries:    e.MaxRetries(),
			}
		})

	case *event.SimpleProgress:
		if r := t.requests[e.Identifier()]; r != nil {
			r.TotalBlocks = e.Total()
			r.RequiredBlocks = e.Required()
			r.FailedBlocks = e.Failed()
			r.FatallyFailedBlocks = e.FatallyFailed()
			r.SucceededBlocks = e.Succeeded()
			r.FinalizedTotal = e.FinalizedTotal()
		}

	case *event.DataFound:
		if r := t.requests[e.Identifier()]; r != nil {
			r.Complete = true
			r.Length = e.DataLength()
			r.ContentType = e.MetadataContentType()
		}

	case *event.GetFailed:
		if r := t.requests[e.Identifier()]; r != nil {
			t.failed(r, e.Fatal(), e.Code())
		}

	case *event.PutSuccessful:
		if r := t.requests[e.Identifier()]; r != nil {
			r.Complete = true
			if uri := e.URI(); uri != "" {
				r.URI = uri
			}
		}

	case *event.PutFailed:
		if r := t.requests[e.Identifier()]; r != nil {
			t.failed(r, e.Fatal(), e.Code())
		}
	}
}

func (t *RequestTable) insert(id string, global bool, build func() *Request) {
	if _, ok := t.requests[id]; ok {
		return
	}

	if global && !t.includeGlobal {
		return
	}

	r := build()
	r.Identifier = id
	r.Global = global
	r.ErrorCode = protocol.DefaultInt

	t.requests[id] = r
	t.order = append(t.order, id)
}

func (t *RequestTable) failed(r *Request, fatal bool, code int) {
	r.Complete = true
	r.Failed = true
	r.Fatal = fatal
	r.ErrorCode = code
}

func (t *RequestTable) Len() int {
	return len(t.order)
}

func (t *RequestTable) Get(identifier string) (*Request, bool) {
	r, ok := t.requests[identifier]
	return r, ok
}

// Requests returns the requests in the order their descriptors arrived.
func (t *RequestTable) Requests() []*Request {
	requests := make([]*Request, 0, len(t.order))
	for _, id := range t.order {
		requests = append(requests, t.requests[id])
	}

	return requests
}

// Requests lists the persistent requests visible to this client, folding
// every event the node sends until EndListPersistentRequests.
func (c *Client) Requests(ctx context.Context, includeGlobal bool) ([]*Request, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	table := NewRequestTable(includeGlobal)

	err := c.execute(ctx, protocol.ListPersistentRequests, func(ev event.Event, p *call) {
		if _, ok := ev.(*event.EndListPersistentRequests); ok {
			p.complete()
			return
		}

		table.Fold(ev)
	}, protocol.NewListPersistentRequests())

	if err != nil {
		return nil, err
	}

	requests := table.Requests()
	c.recordRequests(requests)

	return requests, nil
}

func (c *Client) GetRequests(ctx context.Context, includeGlobal bool) ([]*Request, error) {
	return c.requestsOfKind(ctx, includeGlobal, KindGet)
}

func (c *Client) PutRequests(ctx context.Context, includeGlobal bool) ([]*Request, error) {
	return c.requestsOfKind(ctx, includeGlobal, KindPut)
}

func (c *Client) requestsOfKind(ctx context.Context, includeGlobal bool, kind RequestKind) ([]*Request, error) {
	requests, err := c.Requests(ctx, includeGlobal)
	if err != nil {
		return nil, err
	}

	filtered := requests[:0]
	for _, r := range requests {
		if r.Kind == kind {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

func (c *Client) recordRequests(requests []*Request) {
	counts := map[RequestKind]map[string]int{
		KindGet: {"running": 0, "complete": 0, "failed": 0},
		KindPut: {"running": 0, "complete": 0, "failed": 0},
	}

	for _, r := range requests {
		switch {
		case r.Failed:
			counts[r.Kind]["failed"]++
		case r.Complete:
			counts[r.Kind]["complete"]++
		default:
			counts[r.Kind]["running"]++
		}
	}

	for kind, states := range counts {
		for state, n := range states {
			c.metrics.SetRequests(kind.String(), state, n)
		}
	}
}
