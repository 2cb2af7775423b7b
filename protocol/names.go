package protocol

// Client to node messages.
const (
	ClientHello            = "ClientHello"
	WatchGlobal            = "WatchGlobal"
	ClientGet              = "ClientGet"
	ListPeers              = "ListPeers"
	AddPeer                = "AddPeer"
	ModifyPeer             = "ModifyPeer"
	RemovePeer             = "RemovePeer"
	ListPeerNotes          = "ListPeerNotes"
	ModifyPeerNote         = "ModifyPeerNote"
	GenerateSSK            = "GenerateSSK"
	ListPersistentRequests = "ListPersistentRequests"
	FCPPluginMessage       = "FCPPluginMessage"
	GetNode                = "GetNode"
	GetConfig              = "GetConfig"
	ModifyConfig           = "ModifyConfig"
	SubscribeUSK           = "SubscribeUSK"
	RemoveRequest          = "RemoveRequest"
	Disconnect             = "Disconnect"
)

// Node to client messages.
const (
	NodeHello                          = "NodeHello"
	CloseConnectionDuplicateClientName = "CloseConnectionDuplicateClientName"
	ProtocolError                      = "ProtocolError"
	Peer                               = "Peer"
	EndListPeers                       = "EndListPeers"
	PeerNote                           = "PeerNote"
	EndListPeerNotes                   = "EndListPeerNotes"
	PeerRemoved                        = "PeerRemoved"
	UnknownNodeIdentifier              = "UnknownNodeIdentifier"
	UnknownPeerNoteType                = "UnknownPeerNoteType"
	SSKKeypair                         = "SSKKeypair"
	NodeData                           = "NodeData"
	ConfigData                         = "ConfigData"
	PersistentGet                      = "PersistentGet"
	PersistentPut                      = "PersistentPut"
	PersistentPutDir                   = "PersistentPutDir"
	EndListPersistentRequests          = "EndListPersistentRequests"
	PersistentRequestRemoved           = "PersistentRequestRemoved"
	PersistentRequestModified          = "PersistentRequestModified"
	DataFound                          = "DataFound"
	AllData                            = "AllData"
	GetFailed                          = "GetFailed"
	PutFailed                          = "PutFailed"
	PutSuccessful                      = "PutSuccessful"
	PutFetchable                       = "PutFetchable"
	URIGenerated                       = "URIGenerated"
	SimpleProgress                     = "SimpleProgress"
	StartedCompression                 = "StartedCompression"
	FinishedCompression                = "FinishedCompression"
	IdentifierCollision                = "IdentifierCollision"
	SubscribedUSK                      = "SubscribedUSK"
	SubscribedUSKUpdate                = "SubscribedUSKUpdate"
	PluginInfo                         = "PluginInfo"
	PluginRemoved                      = "PluginRemoved"
	FCPPluginReply                     = "FCPPluginReply"
	TestDDAReply                       = "TestDDAReply"
	TestDDAComplete                    = "TestDDAComplete"
	SentFeed                           = "SentFeed"
	ReceivedBookmarkFeed               = "ReceivedBookmarkFeed"
)

// Terminators
const (
	EndMessage = "EndMessage"
	Data       = "Data"
)

// Field names shared by many messages.
const (
	FieldIdentifier     = "Identifier"
	FieldDataLength     = "DataLength"
	FieldNodeIdentifier = "NodeIdentifier"
	FieldURI            = "URI"
	FieldCode           = "Code"
	FieldGlobal         = "Global"
)

// DefaultPort is the node's well-known FCP port.
const DefaultPort = 9481

// ExpectedVersion is the protocol version announced in ClientHello.
const ExpectedVersion = "2.0"
