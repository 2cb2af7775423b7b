// Package event turns decoded FCP messages into typed events.
package event

import (
	"sync"

	"github.com/luma/fcp/protocol"
)

// Event is anything delivered to subscribers of a connection: one decoded
// message, or the ConnectionClosed lifecycle event.
type Event interface {
	Name() string
}

// Identified events carry the correlation identifier of the request they
// belong to.
type Identified interface {
	Event
	Identifier() string
}

// Constructor wraps a decoded message into its typed event.
type Constructor func(msg *protocol.Message) Event

type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry that knows every node to client message.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor, len(builtin))}
	for name, ctor := range builtin {
		r.ctors[name] = ctor
	}

	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	r.ctors[name] = ctor
	r.mu.Unlock()
}

// Construct returns the typed event for msg, or a *Raw if its name is
// unknown.
func (r *Registry) Construct(msg *protocol.Message) Event {
	r.mu.RLock()
	ctor, ok := r.ctors[msg.Name()]
	r.mu.RUnlock()

	if !ok {
		return &Raw{msg}
	}

	return ctor(msg)
}

// Default is the registry used when a connection isn't given one.
var Default = NewRegistry()

var builtin = map[string]Constructor{
	protocol.NodeHello:                          func(m *protocol.Message) Event { return &NodeHello{m} },
	protocol.CloseConnectionDuplicateClientName: func(m *protocol.Message) Event { return &CloseConnectionDuplicateClientName{m} },
	protocol.ProtocolError:                      func(m *protocol.Message) Event { return &ProtocolError{identified{m}} },
	protocol.Peer:                               func(m *protocol.Message) Event { return &Peer{identified{m}} },
	protocol.EndListPeers:                       func(m *protocol.Message) Event { return &EndListPeers{identified{m}} },
	protocol.PeerNote:                           func(m *protocol.Message) Event { return &PeerNote{identified{m}} },
	protocol.EndListPeerNotes:                   func(m *protocol.Message) Event { return &EndListPeerNotes{identified{m}} },
	protocol.PeerRemoved:                        func(m *protocol.Message) Event { return &PeerRemoved{identified{m}} },
	protocol.UnknownNodeIdentifier:              func(m *protocol.Message) Event { return &UnknownNodeIdentifier{identified{m}} },
	protocol.UnknownPeerNoteType:                func(m *protocol.Message) Event { return &UnknownPeerNoteType{identified{m}} },
	protocol.SSKKeypair:                         func(m *protocol.Message) Event { return &SSKKeypair{identified{m}} },
	protocol.NodeData:                           func(m *protocol.Message) Event { return &NodeData{identified{m}} },
	protocol.ConfigData:                         func(m *protocol.Message) Event { return &ConfigData{identified{m}} },
	protocol.PersistentGet:                      func(m *protocol.Message) Event { return &PersistentGet{identified{m}} },
	protocol.PersistentPut:                      func(m *protocol.Message) Event { return &PersistentPut{identified{m}} },
	protocol.PersistentPutDir:                   func(m *protocol.Message) Event { return &PersistentPutDir{identified{m}} },
	protocol.EndListPersistentRequests:          func(m *protocol.Message) Event { return &EndListPersistentRequests{identified{m}} },
	protocol.PersistentRequestRemoved:           func(m *protocol.Message) Event { return &PersistentRequestRemoved{identified{m}} },
	protocol.PersistentRequestModified:          func(m *protocol.Message) Event { return &PersistentRequestModified{identified{m}} },
	protocol.DataFound:                          func(m *protocol.Message) Event { return &DataFound{identified{m}} },
	protocol.AllData:                            func(m *protocol.Message) Event { return &AllData{identified{m}} },
	protocol.GetFailed:                          func(m *protocol.Message) Event { return &GetFailed{identified{m}} },
	protocol.PutFailed:                          func(m *protocol.Message) Event { return &PutFailed{identified{m}} },
	protocol.PutSuccessful:                      func(m *protocol.Message) Event { return &PutSuccessful{identified{m}} },
	protocol.PutFetchable:                       func(m *protocol.Message) Event { return &PutFetchable{identified{m}} },
	protocol.URIGenerated:                       func(m *protocol.Message) Event { return &URIGenerated{identified{m}} },
	protocol.SimpleProgress:                     func(m *protocol.Message) Event { return &SimpleProgress{identified{m}} },
	protocol.StartedCompression:                 func(m *protocol.Message) Event { return &StartedCompression{identified{m}} },
	protocol.FinishedCompression:                func(m *protocol.Message) Event { return &FinishedCompression{identified{m}} },
	protocol.IdentifierCollision:                func(m *protocol.Message) Event { return &IdentifierCollision{identified{m}} },
	protocol.SubscribedUSK:                      func(m *protocol.Message) Event { return &SubscribedUSK{identified{m}} },
	protocol.SubscribedUSKUpdate:                func(m *protocol.Message) Event { return &SubscribedUSKUpdate{identified{m}} },
	protocol.PluginInfo:                         func(m *protocol.Message) Event { return &PluginInfo{identified{m}} },
	protocol.PluginRemoved:                      func(m *protocol.Message) Event { return &PluginRemoved{identified{m}} },
	protocol.FCPPluginReply:                     func(m *protocol.Message) Event { return &FCPPluginReply{identified{m}} },
	protocol.TestDDAReply:                       func(m *protocol.Message) Event { return &TestDDAReply{m} },
	protocol.TestDDAComplete:                    func(m *protocol.Message) Event { return &TestDDAComplete{m} },
	protocol.SentFeed:                           func(m *protocol.Message) Event { return &SentFeed{identified{m}} },
	protocol.ReceivedBookmarkFeed:               func(m *protocol.Message) Event { return &ReceivedBookmarkFeed{identified{m}} },
}
