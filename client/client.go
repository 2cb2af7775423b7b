// Package client implements the FCP connection engine and the synchronous
// operations built on it.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/fcp/event"
	"github.com/luma/fcp/metrics"
	"github.com/luma/fcp/protocol"
	"github.com/luma/fcp/transport"
)

type Options struct {
	Dialer   transport.Dialer
	Registry *event.Registry
	Metrics  *metrics.Metrics

	// WatchGlobal is sent after the handshake. A nil value watches the global
	// queue.
	WatchGlobal *bool

	Log *zap.Logger
}

// Client runs synchronous operations over a single connection. Every
// operation blocks until the node's terminal reply arrives, ctx expires or
// the connection closes.
type Client struct {
	conn *Conn

	watchGlobal bool
	connected   int32

	mu        sync.Mutex
	nodeHello *event.NodeHello
	lifecycle *Subscription

	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(options Options) *Client {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	m := options.Metrics
	if m == nil {
		m = metrics.Default()
	}

	watchGlobal := true
	if options.WatchGlobal != nil {
		watchGlobal = *options.WatchGlobal
	}

	return &Client{
		conn: NewConn(ConnOptions{
			Dialer:   options.Dialer,
			Registry: options.Registry,
			Metrics:  m,
			Log:      log,
		}),
		watchGlobal: watchGlobal,
		metrics:     m,
		log:         log.Named("client"),
	}
}

// Conn returns the underlying connection, for sending raw messages and
// subscribing to events.
func (c *Client) Conn() *Conn {
	return c.conn
}

// Connect opens the connection and performs the ClientHello handshake as
// name.
func (c *Client) Connect(ctx context.Context, name string) error {
	if c.IsConnected() {
		return ErrAlreadyConnected
	}

	if err := c.conn.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.lifecycle = c.conn.Subscribe(func(ev event.Event) {
		switch ev.(type) {
		case event.ConnectionClosed, *event.CloseConnectionDuplicateClientName:
			c.setDisconnected()
		}
	})
	c.mu.Unlock()

	var hello *event.NodeHello

	err := c.execute(ctx, protocol.ClientHello, func(ev event.Event, p *call) {
		if e, ok := ev.(*event.NodeHello); ok {
			hello = e
			p.complete()
		}
	}, protocol.NewClientHello(name))

	if err != nil {
		c.conn.Close()
		return err
	}

	c.mu.Lock()
	c.nodeHello = hello
	c.mu.Unlock()

	atomic.StoreInt32(&c.connected, 1)

	// The read loop marks the conn closed before announcing it
	if c.conn.IsClosed() {
		c.setDisconnected()
		return &ConnectionClosedError{Cause: c.conn.Err()}
	}

	if err := c.conn.Send(protocol.NewWatchGlobal(c.watchGlobal)); err != nil {
		return err
	}

	c.log.Info("Handshake complete",
		zap.String("node", hello.Node()),
		zap.String("version", hello.Version().String()),
		zap.String("connectionIdentifier", hello.ConnectionIdentifier()))

	return nil
}

// NodeHello returns the node's handshake reply, or nil before Connect.
func (c *Client) NodeHello() *event.NodeHello {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nodeHello
}

func (c *Client) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

func (c *Client) setDisconnected() {
	atomic.StoreInt32(&c.connected, 0)
}

// Close disconnects politely from the node and closes the connection.
func (c *Client) Close() error {
	var err error

	if c.IsConnected() {
		err = multierr.Append(err, c.conn.Send(protocol.NewDisconnect()))
	}

	c.setDisconnected()
	err = multierr.Append(err, c.conn.Close())

	return err
}

// Detach stops the client from tracking the connection state. The
// connection stays open.
func (c *Client) Detach() {
	c.mu.Lock()
	lifecycle := c.lifecycle
	c.lifecycle = nil
	c.mu.Unlock()

	if lifecycle != nil {
		lifecycle.Unsubscribe()
	}
}

func (c *Client) checkConnected() error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// newIdentifier returns "<basename>-<unix millis>-<random>".
func newIdentifier(basename string) string {
	return fmt.Sprintf("%s-%d-%s", basename, time.Now().UnixMilli(), uuid.NewString())
}

// Peers lists every peer of the node.
func (c *Client) Peers(ctx context.Context, withMetadata, withVolatile bool) ([]*event.Peer, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("list-peers")
	var peers []*event.Peer

	err := c.execute(ctx, protocol.ListPeers, func(ev event.Event, p *call) {
		switch e := ev.(type) {
		case *event.Peer:
			if e.Identifier() == id {
				peers = append(peers, e)
			}

		case *event.EndListPeers:
			if e.Identifier() == id {
				p.complete()
			}
		}
	}, protocol.NewListPeers(id, withMetadata, withVolatile))

	if err != nil {
		return nil, err
	}

	return peers, nil
}

// DarknetPeers lists the peers that are neither opennet nor seed peers.
func (c *Client) DarknetPeers(ctx context.Context, withMetadata, withVolatile bool) ([]*event.Peer, error) {
	return c.filterPeers(ctx, withMetadata, withVolatile, func(p *event.Peer) bool {
		return !p.Opennet() && !p.Seed()
	})
}

func (c *Client) OpennetPeers(ctx context.Context, withMetadata, withVolatile bool) ([]*event.Peer, error) {
	return c.filterPeers(ctx, withMetadata, withVolatile, func(p *event.Peer) bool {
		return p.Opennet() && !p.Seed()
	})
}

func (c *Client) SeedPeers(ctx context.Context, withMetadata, withVolatile bool) ([]*event.Peer, error) {
	return c.filterPeers(ctx, withMetadata, withVolatile, (*event.Peer).Seed)
}

func (c *Client) filterPeers(ctx context.Context, withMetadata, withVolatile bool, keep func(*event.Peer) bool) ([]*event.Peer, error) {
	peers, err := c.Peers(ctx, withMetadata, withVolatile)
	if err != nil {
		return nil, err
	}

	filtered := peers[:0]
	for _, p := range peers {
		if keep(p) {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}

// AddPeer re-adds a peer using the noderef it was listed with.
func (c *Client) AddPeer(ctx context.Context, peer *event.Peer, trust protocol.Trust, visibility protocol.Visibility) (*event.Peer, error) {
	return c.AddPeerFromNodeRef(ctx, peer.NodeRef(), trust, visibility)
}

func (c *Client) AddPeerFromNodeRef(ctx context.Context, ref []protocol.Field, trust protocol.Trust, visibility protocol.Visibility) (*event.Peer, error) {
	id := newIdentifier("add-peer")
	return c.addPeer(ctx, id, identityOf(ref), protocol.NewAddPeerFromNodeRef(id, trust, visibility, ref))
}

// AddPeerFromFile adds a peer from a noderef file on the node's machine.
func (c *Client) AddPeerFromFile(ctx context.Context, file string, trust protocol.Trust, visibility protocol.Visibility) (*event.Peer, error) {
	id := newIdentifier("add-peer")
	return c.addPeer(ctx, id, "", protocol.NewAddPeerFromFile(id, trust, visibility, file))
}

// AddPeerFromURL adds a peer from a noderef the node downloads from u.
func (c *Client) AddPeerFromURL(ctx context.Context, u *url.URL, trust protocol.Trust, visibility protocol.Visibility) (*event.Peer, error) {
	id := newIdentifier("add-peer")
	return c.addPeer(ctx, id, "", protocol.NewAddPeerFromURL(id, trust, visibility, u))
}

// addPeer resolves on the Peer describing the added node: by identity when
// the noderef is known, by identifier otherwise.
func (c *Client) addPeer(ctx context.Context, id, identity string, msg *protocol.Message) (*event.Peer, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	var added *event.Peer

	err := c.execute(ctx, protocol.AddPeer, func(ev event.Event, p *call) {
		e, ok := ev.(*event.Peer)
		if !ok {
			return
		}

		if (identity != "" && e.Identity() == identity) || (identity == "" && matches(e.Identifier(), id)) {
			added = e
			p.complete()
		}
	}, msg)

	if err != nil {
		return nil, err
	}

	return added, nil
}

func identityOf(ref []protocol.Field) string {
	for _, f := range ref {
		if f.Key == "identity" {
			return f.Value
		}
	}

	return ""
}

// ModifyPeer changes the settings of peer and returns its new description.
func (c *Client) ModifyPeer(ctx context.Context, peer *event.Peer, options protocol.ModifyPeerOptions) (*event.Peer, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	identity := peer.Identity()
	var modified *event.Peer

	err := c.execute(ctx, protocol.ModifyPeer, func(ev event.Event, p *call) {
		switch e := ev.(type) {
		case *event.Peer:
			if e.Identity() == identity {
				modified = e
				p.complete()
			}

		case *event.UnknownNodeIdentifier:
			if e.NodeIdentifier() == identity {
				p.fail(fmt.Errorf("%s: %w", identity, ErrUnknownPeer))
			}
		}
	}, protocol.NewModifyPeer(newIdentifier("modify-peer"), identity, options))

	if err != nil {
		return nil, err
	}

	return modified, nil
}

// RemovePeer removes peer. Removing a peer the node doesn't know succeeds.
func (c *Client) RemovePeer(ctx context.Context, peer *event.Peer) error {
	if err := c.checkConnected(); err != nil {
		return err
	}

	identity := peer.Identity()

	return c.execute(ctx, protocol.RemovePeer, func(ev event.Event, p *call) {
		switch e := ev.(type) {
		case *event.PeerRemoved:
			if e.NodeIdentifier() == identity {
				p.complete()
			}

		case *event.UnknownNodeIdentifier:
			if e.NodeIdentifier() == identity {
				p.complete()
			}
		}
	}, protocol.NewRemovePeer(newIdentifier("remove-peer"), identity))
}

// PeerNotes lists the notes attached to peer.
func (c *Client) PeerNotes(ctx context.Context, peer *event.Peer) ([]*event.PeerNote, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("list-peer-notes")
	identity := peer.Identity()
	var notes []*event.PeerNote

	err := c.execute(ctx, protocol.ListPeerNotes, func(ev event.Event, p *call) {
		switch e := ev.(type) {
		case *event.PeerNote:
			if e.NodeIdentifier() == identity {
				notes = append(notes, e)
			}

		case *event.EndListPeerNotes:
			if matches(e.Identifier(), id) {
				p.complete()
			}
		}
	}, protocol.NewListPeerNotes(id, identity))

	if err != nil {
		return nil, err
	}

	return notes, nil
}

// PeerNote returns the last note of peer, or nil if it has none.
func (c *Client) PeerNote(ctx context.Context, peer *event.Peer) (*event.PeerNote, error) {
	notes, err := c.PeerNotes(ctx, peer)
	if err != nil || len(notes) == 0 {
		return nil, err
	}

	return notes[len(notes)-1], nil
}

// ModifyPeerNote replaces the private darknet comment of peer. noteText must
// be base64 encoded.
func (c *Client) ModifyPeerNote(ctx context.Context, peer *event.Peer, noteText string) error {
	if err := c.checkConnected(); err != nil {
		return err
	}

	identity := peer.Identity()

	return c.execute(ctx, protocol.ModifyPeerNote, func(ev event.Event, p *call) {
		switch e := ev.(type) {
		case *event.PeerNote:
			if e.NodeIdentifier() == identity {
				p.complete()
			}

		case *event.UnknownNodeIdentifier:
			if e.NodeIdentifier() == identity {
				p.fail(fmt.Errorf("%s: %w", identity, ErrUnknownPeer))
			}
		}
	}, protocol.NewModifyPeerNote(newIdentifier("modify-peer-note"), identity, noteText))
}

// GenerateKeyPair asks the node for a new SSK key pair.
func (c *Client) GenerateKeyPair(ctx context.Context) (*event.SSKKeypair, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("generate-ssk")
	var keypair *event.SSKKeypair

	err := c.execute(ctx, protocol.GenerateSSK, func(ev event.Event, p *call) {
		if e, ok := ev.(*event.SSKKeypair); ok && matches(e.Identifier(), id) {
			keypair = e
			p.complete()
		}
	}, protocol.NewGenerateSSK(id))

	if err != nil {
		return nil, err
	}

	return keypair, nil
}

func (c *Client) NodeInformation(ctx context.Context, giveOpennetRef, withPrivate, withVolatile bool) (*event.NodeData, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("get-node")
	var node *event.NodeData

	err := c.execute(ctx, protocol.GetNode, func(ev event.Event, p *call) {
		if e, ok := ev.(*event.NodeData); ok && matches(e.Identifier(), id) {
			node = e
			p.complete()
		}
	}, protocol.NewGetNode(id, giveOpennetRef, withPrivate, withVolatile))

	if err != nil {
		return nil, err
	}

	return node, nil
}

// GetConfig returns every config section of the node as one flattened map,
// keyed "<section>.<option>".
func (c *Client) GetConfig(ctx context.Context) (map[string]string, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("get-config")
	config := make(map[string]string)

	err := c.execute(ctx, protocol.GetConfig, func(ev event.Event, p *call) {
		e, ok := ev.(*event.ConfigData)
		if !ok || !matches(e.Identifier(), id) {
			return
		}

		for _, section := range protocol.ConfigSections {
			for option, value := range e.Section(section) {
				config[section+"."+option] = value
			}
		}

		p.complete()
	}, protocol.NewGetConfig(id))

	if err != nil {
		return nil, err
	}

	return config, nil
}

// ModifyConfig sets options, in order, and returns the node's resulting
// configuration.
func (c *Client) ModifyConfig(ctx context.Context, options []protocol.Field) (*event.ConfigData, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier("modify-config")
	var config *event.ConfigData

	err := c.execute(ctx, protocol.ModifyConfig, func(ev event.Event, p *call) {
		if e, ok := ev.(*event.ConfigData); ok && matches(e.Identifier(), id) {
			config = e
			p.complete()
		}
	}, protocol.NewModifyConfig(id, options))

	if err != nil {
		return nil, err
	}

	return config, nil
}

type PluginReply struct {
	Replies map[string]string

	// Payload is nil when the plugin sent no data
	Payload []byte
}

// SendPluginMessage calls pluginName with params and waits for its reply. A
// nil payload sends no data.
func (c *Client) SendPluginMessage(ctx context.Context, pluginName string, params []protocol.Field, payload []byte) (*PluginReply, error) {
	if err := c.checkConnected(); err != nil {
		return nil, err
	}

	id := newIdentifier(protocol.FCPPluginMessage)
	var reply *PluginReply

	err := c.execute(ctx, protocol.FCPPluginMessage, func(ev event.Event, p *call) {
		if e, ok := ev.(*event.FCPPluginReply); ok && e.Identifier() == id {
			reply = &PluginReply{
				Replies: e.Replies(),
				Payload: e.Payload,
			}
			p.complete()
		}
	}, protocol.NewFCPPluginMessage(id, pluginName, params, payload))

	if err != nil {
		return nil, err
	}

	return reply, nil
}
