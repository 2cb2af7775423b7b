package protocol

import "net/url"

type Trust string

const (
	TrustLow    Trust = "LOW"
	TrustNormal Trust = "NORMAL"
	TrustHigh   Trust = "HIGH"
)

type Visibility string

const (
	VisibilityNo       Visibility = "NO"
	VisibilityNameOnly Visibility = "NAME_ONLY"
	VisibilityYes      Visibility = "YES"
)

// PeerNoteTypePrivateDarknetComment is the only peer note type nodes accept.
const PeerNoteTypePrivateDarknetComment = 1

func NewClientHello(name string) *Message {
	return NewMessage(ClientHello).
		SetField("Name", name).
		SetField("ExpectedVersion", ExpectedVersion)
}

func NewWatchGlobal(enabled bool) *Message {
	return NewMessage(WatchGlobal).SetBool("Enabled", enabled)
}

func NewClientGet(uri, identifier string, filterData bool) *Message {
	return NewMessage(ClientGet).
		SetField(FieldURI, uri).
		SetField(FieldIdentifier, identifier).
		SetField("ReturnType", "direct").
		SetBool("FilterData", filterData)
}

func NewListPeers(identifier string, withMetadata, withVolatile bool) *Message {
	return NewMessage(ListPeers).
		SetField(FieldIdentifier, identifier).
		SetBool("WithMetadata", withMetadata).
		SetBool("WithVolatile", withVolatile)
}

func newAddPeer(identifier string, trust Trust, visibility Visibility) *Message {
	msg := NewMessage(AddPeer).
		SetField("Trust", string(trust)).
		SetField("Visibility", string(visibility))

	if identifier != "" {
		msg.SetField(FieldIdentifier, identifier)
	}

	return msg
}

// NewAddPeerFromFile adds the peer whose noderef is in file. The file must be
// readable by the node, not by the client.
func NewAddPeerFromFile(identifier string, trust Trust, visibility Visibility, file string) *Message {
	return newAddPeer(identifier, trust, visibility).SetField("File", file)
}

func NewAddPeerFromURL(identifier string, trust Trust, visibility Visibility, u *url.URL) *Message {
	return newAddPeer(identifier, trust, visibility).SetField("URL", u.String())
}

// NewAddPeerFromNodeRef adds the peer described by the noderef fields in ref,
// copied in ref's field order.
func NewAddPeerFromNodeRef(identifier string, trust Trust, visibility Visibility, ref []Field) *Message {
	msg := newAddPeer(identifier, trust, visibility)
	for _, f := range ref {
		msg.SetField(f.Key, f.Value)
	}

	return msg
}

// ModifyPeerOptions holds the peer settings to change. Nil fields are left
// unchanged.
type ModifyPeerOptions struct {
	AllowLocalAddresses *bool
	Enabled             *bool
	ListenOnly          *bool
	BurstOnly           *bool
	IgnoreSourcePort    *bool
}

func NewModifyPeer(identifier, nodeIdentifier string, opts ModifyPeerOptions) *Message {
	msg := NewMessage(ModifyPeer).
		SetField(FieldIdentifier, identifier).
		SetField(FieldNodeIdentifier, nodeIdentifier)

	if opts.AllowLocalAddresses != nil {
		msg.SetBool("AllowLocalAddresses", *opts.AllowLocalAddresses)
	}

	if opts.Enabled != nil {
		msg.SetBool("IsDisabled", !*opts.Enabled)
	}

	if opts.ListenOnly != nil {
		msg.SetBool("IsListenOnly", *opts.ListenOnly)
	}

	if opts.BurstOnly != nil {
		msg.SetBool("IsBurstOnly", *opts.BurstOnly)
	}

	if opts.IgnoreSourcePort != nil {
		msg.SetBool("IgnoreSourcePort", *opts.IgnoreSourcePort)
	}

	return msg
}

func NewRemovePeer(identifier, nodeIdentifier string) *Message {
	return NewMessage(RemovePeer).
		SetField(FieldIdentifier, identifier).
		SetField(FieldNodeIdentifier, nodeIdentifier)
}

func NewListPeerNotes(identifier, nodeIdentifier string) *Message {
	return NewMessage(ListPeerNotes).
		SetField(FieldIdentifier, identifier).
		SetField(FieldNodeIdentifier, nodeIdentifier)
}

// NewModifyPeerNote replaces the private darknet comment of a peer. noteText
// must already be base64 encoded.
func NewModifyPeerNote(identifier, nodeIdentifier, noteText string) *Message {
	return NewMessage(ModifyPeerNote).
		SetField(FieldIdentifier, identifier).
		SetField(FieldNodeIdentifier, nodeIdentifier).
		SetInt("PeerNoteType", PeerNoteTypePrivateDarknetComment).
		SetField("NoteText", noteText)
}

func NewGenerateSSK(identifier string) *Message {
	return NewMessage(GenerateSSK).SetField(FieldIdentifier, identifier)
}

func NewListPersistentRequests() *Message {
	return NewMessage(ListPersistentRequests)
}

// NewFCPPluginMessage builds a plugin call. params is copied in order with
// every key prefixed by "Param.". A nil payload sends no data.
func NewFCPPluginMessage(identifier, pluginName string, params []Field, payload []byte) *Message {
	msg := NewMessage(FCPPluginMessage).
		SetField(FieldIdentifier, identifier).
		SetField("PluginName", pluginName)

	for _, f := range params {
		msg.SetField("Param."+f.Key, f.Value)
	}

	if payload != nil {
		msg.SetPayload(payload)
	}

	return msg
}

func NewGetNode(identifier string, giveOpennetRef, withPrivate, withVolatile bool) *Message {
	return NewMessage(GetNode).
		SetField(FieldIdentifier, identifier).
		SetBool("GiveOpennetRef", giveOpennetRef).
		SetBool("WithPrivate", withPrivate).
		SetBool("WithVolatile", withVolatile)
}

// ConfigSections are the ConfigData field prefixes requested by NewGetConfig.
var ConfigSections = []string{
	"current",
	"default",
	"shortDescription",
	"longDescription",
	"expertFlag",
	"dataType",
	"sortOrder",
	"forceWriteFlag",
}

// NewGetConfig requests every section of the node configuration.
func NewGetConfig(identifier string) *Message {
	return NewMessage(GetConfig).
		SetField(FieldIdentifier, identifier).
		SetBool("WithCurrent", true).
		SetBool("WithDefaults", true).
		SetBool("WithShortDescription", true).
		SetBool("WithLongDescription", true).
		SetBool("WithDataTypes", true).
		SetBool("WithExpertFlag", true).
		SetBool("WithForceWriteFlag", true).
		SetBool("WithSortOrder", true)
}

// NewModifyConfig sets each option of options, in order.
func NewModifyConfig(identifier string, options []Field) *Message {
	msg := NewMessage(ModifyConfig).SetField(FieldIdentifier, identifier)
	for _, f := range options {
		msg.SetField(f.Key, f.Value)
	}

	return msg
}

func NewSubscribeUSK(identifier, uri string, dontPoll bool) *Message {
	return NewMessage(SubscribeUSK).
		SetField(FieldURI, uri).
		SetField(FieldIdentifier, identifier).
		SetBool("DontPoll", dontPoll)
}

func NewRemoveRequest(identifier string, global bool) *Message {
	return NewMessage(RemoveRequest).
		SetField(FieldIdentifier, identifier).
		SetBool(FieldGlobal, global)
}

func NewDisconnect() *Message {
	return NewMessage(Disconnect)
}
