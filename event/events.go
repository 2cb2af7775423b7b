package event

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/luma/fcp/protocol"
)

// identified is embedded by every event that echoes a correlation
// identifier.
type identified struct {
	*protocol.Message
}

func (e identified) Identifier() string {
	return e.Field(protocol.FieldIdentifier)
}

func (e identified) Global() bool {
	return protocol.ParseBool(e.Field(protocol.FieldGlobal))
}

// Raw is a message whose name has no registered constructor.
type Raw struct {
	*protocol.Message
}

// ConnectionClosed is delivered exactly once per connection, after the read
// loop has stopped. Err is nil when the node closed the stream cleanly or the
// connection was closed locally.
type ConnectionClosed struct {
	Err error
}

const ConnectionClosedName = "ConnectionClosed"

func (ConnectionClosed) Name() string {
	return ConnectionClosedName
}

type NodeHello struct {
	*protocol.Message
}

func (e *NodeHello) ConnectionIdentifier() string { return e.Field("ConnectionIdentifier") }
func (e *NodeHello) FCPVersion() string           { return e.Field("FCPVersion") }
func (e *NodeHello) Node() string                 { return e.Field("Node") }
func (e *NodeHello) Version() Version             { return ParseVersion(e.Field("Version")) }
func (e *NodeHello) Build() int                   { return protocol.ParseInt(e.Field("Build"), protocol.DefaultInt) }
func (e *NodeHello) Revision() string             { return e.Field("Revision") }
func (e *NodeHello) Testnet() bool                { return protocol.ParseBool(e.Field("Testnet")) }
func (e *NodeHello) CompressionCodecs() string    { return e.Field("CompressionCodecs") }
func (e *NodeHello) NodeLanguage() string         { return e.Field("NodeLanguage") }

type CloseConnectionDuplicateClientName struct {
	*protocol.Message
}

type ProtocolError struct {
	identified
}

func (e *ProtocolError) Code() int                { return protocol.ParseInt(e.Field(protocol.FieldCode), protocol.DefaultInt) }
func (e *ProtocolError) CodeDescription() string  { return e.Field("CodeDescription") }
func (e *ProtocolError) ExtraDescription() string { return e.Field("ExtraDescription") }
func (e *ProtocolError) Fatal() bool              { return protocol.ParseBool(e.Field("Fatal")) }

// Peer describes one peer of the node. Its noderef fields are available
// through the embedded NodeRef accessors.
type Peer struct {
	identified
}

func (e *Peer) Identity() string    { return e.Field("identity") }
func (e *Peer) MyName() string      { return e.Field("myName") }
func (e *Peer) Opennet() bool       { return protocol.ParseBool(e.Field("opennet")) }
func (e *Peer) Seed() bool          { return protocol.ParseBool(e.Field("seed")) }
func (e *Peer) Testnet() bool       { return protocol.ParseBool(e.Field("testnet")) }
func (e *Peer) PhysicalUDP() string { return e.Field("physical.udp") }
func (e *Peer) Location() float64   { return protocol.ParseFloat(e.Field("location"), protocol.DefaultInt) }
func (e *Peer) Version() Version    { return ParseVersion(e.Field("version")) }

func (e *Peer) LastGoodVersion() Version {
	return ParseVersion(e.Field("lastGoodVersion"))
}

func (e *Peer) NegotiationTypes() []int {
	types, err := protocol.DecodeMultiInt(e.Field("auth.negTypes"))
	if err != nil {
		return nil
	}

	return types
}

func (e *Peer) ARK() ARK {
	return ARK{
		PublicURI:  e.Field("ark.pubURI"),
		PrivateURI: e.Field("ark.privURI"),
		Number:     protocol.ParseInt(e.Field("ark.number"), protocol.DefaultInt),
	}
}

func (e *Peer) DSAGroup() DSAGroup {
	return DSAGroup{
		Base:     e.Field("dsaGroup.g"),
		Prime:    e.Field("dsaGroup.p"),
		Subprime: e.Field("dsaGroup.q"),
	}
}

func (e *Peer) DSAPublicKey() string { return e.Field("dsaPubKey.y") }
func (e *Peer) Signature() string    { return e.Field("sig") }

// Metadata returns the "metadata." fields sent when ListPeers asked for them.
func (e *Peer) Metadata() map[string]string { return e.FieldsWithPrefix("metadata.") }

// Volatile returns the "volatile." fields sent when ListPeers asked for them.
func (e *Peer) Volatile() map[string]string { return e.FieldsWithPrefix("volatile.") }

// NodeRef returns the peer's noderef fields in the order the node sent them,
// suitable for re-adding the peer with AddPeer.
func (e *Peer) NodeRef() []protocol.Field {
	pairs := e.Pairs()
	ref := make([]protocol.Field, 0, len(pairs))

	for _, p := range pairs {
		if isPeerStateField(p.Key) {
			continue
		}

		ref = append(ref, p)
	}

	return ref
}

func isPeerStateField(key string) bool {
	return key == protocol.FieldIdentifier ||
		strings.HasPrefix(key, "metadata.") ||
		strings.HasPrefix(key, "volatile.")
}

type EndListPeers struct {
	identified
}

type PeerNote struct {
	identified
}

func (e *PeerNote) NodeIdentifier() string { return e.Field(protocol.FieldNodeIdentifier) }
func (e *PeerNote) NoteText() string       { return e.Field("NoteText") }

func (e *PeerNote) PeerNoteType() int {
	return protocol.ParseInt(e.Field("PeerNoteType"), protocol.DefaultInt)
}

// Text decodes NoteText. Notes that aren't valid base64 are returned as is.
func (e *PeerNote) Text() string {
	decoded, err := base64.StdEncoding.DecodeString(e.NoteText())
	if err != nil {
		return e.NoteText()
	}

	return string(decoded)
}

type EndListPeerNotes struct {
	identified
}

type PeerRemoved struct {
	identified
}

func (e *PeerRemoved) NodeIdentifier() string { return e.Field(protocol.FieldNodeIdentifier) }

type UnknownNodeIdentifier struct {
	identified
}

func (e *UnknownNodeIdentifier) NodeIdentifier() string { return e.Field(protocol.FieldNodeIdentifier) }

type UnknownPeerNoteType struct {
	identified
}

func (e *UnknownPeerNoteType) PeerNoteType() int {
	return protocol.ParseInt(e.Field("PeerNoteType"), protocol.DefaultInt)
}

type SSKKeypair struct {
	identified
}

func (e *SSKKeypair) InsertURI() string  { return e.Field("InsertURI") }
func (e *SSKKeypair) RequestURI() string { return e.Field("RequestURI") }

// NodeData describes the node itself. It shares its noderef layout with Peer.
type NodeData struct {
	identified
}

func (e *NodeData) Identity() string            { return e.Field("identity") }
func (e *NodeData) MyName() string              { return e.Field("myName") }
func (e *NodeData) Opennet() bool               { return protocol.ParseBool(e.Field("opennet")) }
func (e *NodeData) Version() Version            { return ParseVersion(e.Field("version")) }
func (e *NodeData) Location() float64           { return protocol.ParseFloat(e.Field("location"), protocol.DefaultInt) }
func (e *NodeData) Volatile() map[string]string { return e.FieldsWithPrefix("volatile.") }

type ConfigData struct {
	identified
}

// Section returns the fields of one config section, such as "current", keyed
// by option name.
func (e *ConfigData) Section(section string) map[string]string {
	return e.FieldsWithPrefix(section + ".")
}

type PersistentGet struct {
	identified
}

func (e *PersistentGet) URI() string          { return e.Field(protocol.FieldURI) }
func (e *PersistentGet) ClientToken() string  { return e.Field("ClientToken") }
func (e *PersistentGet) Persistence() string  { return e.Field("Persistence") }
func (e *PersistentGet) ReturnType() string   { return e.Field("ReturnType") }
func (e *PersistentGet) Filename() string     { return e.Field("Filename") }
func (e *PersistentGet) TempFilename() string { return e.Field("TempFilename") }
func (e *PersistentGet) Verbosity() int       { return protocol.ParseInt(e.Field("Verbosity"), protocol.DefaultInt) }
func (e *PersistentGet) PriorityClass() int   { return protocol.ParseInt(e.Field("PriorityClass"), protocol.DefaultInt) }
func (e *PersistentGet) MaxRetries() int      { return protocol.ParseInt(e.Field("MaxRetries"), protocol.DefaultInt) }

type PersistentPut struct {
	identified
}

func (e *PersistentPut) URI() string                 { return e.Field(protocol.FieldURI) }
func (e *PersistentPut) ClientToken() string         { return e.Field("ClientToken") }
func (e *PersistentPut) DataLength() int64           { return protocol.ParseInt64(e.Field(protocol.FieldDataLength), protocol.DefaultInt) }
func (e *PersistentPut) MetadataContentType() string { return e.Field("Metadata.ContentType") }
func (e *PersistentPut) Persistence() string         { return e.Field("Persistence") }
func (e *PersistentPut) PriorityClass() int          { return protocol.ParseInt(e.Field("PriorityClass"), protocol.DefaultInt) }
func (e *PersistentPut) MaxRetries() int             { return protocol.ParseInt(e.Field("MaxRetries"), protocol.DefaultInt) }
func (e *PersistentPut) Started() bool               { return protocol.ParseBool(e.Field("Started")) }
func (e *PersistentPut) Filename() string            { return e.Field("Filename") }
func (e *PersistentPut) TargetFilename() string      { return e.Field("TargetFilename") }
func (e *PersistentPut) UploadFrom() string          { return e.Field("UploadFrom") }
func (e *PersistentPut) PrivateURI() string          { return e.Field("PrivateURI") }
func (e *PersistentPut) TargetURI() string           { return e.Field("TargetURI") }
func (e *PersistentPut) CompatibilityMode() string   { return e.Field("CompatibilityMode") }
func (e *PersistentPut) DontCompress() bool          { return protocol.ParseBool(e.Field("DontCompress")) }
func (e *PersistentPut) Codecs() string              { return e.Field("Codecs") }
func (e *PersistentPut) RealTime() bool              { return protocol.ParseBool(e.Field("RealTime")) }
func (e *PersistentPut) BinaryBlob() bool            { return protocol.ParseBool(e.Field("BinaryBlob")) }

type PersistentPutDir struct {
	identified
}

func (e *PersistentPutDir) URI() string         { return e.Field(protocol.FieldURI) }
func (e *PersistentPutDir) ClientToken() string { return e.Field("ClientToken") }
func (e *PersistentPutDir) PriorityClass() int  { return protocol.ParseInt(e.Field("PriorityClass"), protocol.DefaultInt) }
func (e *PersistentPutDir) MaxRetries() int     { return protocol.ParseInt(e.Field("MaxRetries"), protocol.DefaultInt) }

// Files returns the "Files.N.*" entries of the directory insert, one map per
// file, in index order.
func (e *PersistentPutDir) Files() []map[string]string {
	var files []map[string]string

	for i := 0; ; i++ {
		file := e.FieldsWithPrefix("Files." + strconv.Itoa(i) + ".")
		if len(file) == 0 {
			return files
		}

		files = append(files, file)
	}
}

type EndListPersistentRequests struct {
	identified
}

type PersistentRequestRemoved struct {
	identified
}

type PersistentRequestModified struct {
	identified
}

func (e *PersistentRequestModified) ClientToken() string { return e.Field("ClientToken") }
func (e *PersistentRequestModified) PriorityClass() int {
	return protocol.ParseInt(e.Field("PriorityClass"), protocol.DefaultInt)
}

type DataFound struct {
	identified
}

func (e *DataFound) DataLength() int64           { return protocol.ParseInt64(e.Field(protocol.FieldDataLength), protocol.DefaultInt) }
func (e *DataFound) MetadataContentType() string { return e.Field("Metadata.ContentType") }

// AllData carries the fetched content as its payload.
type AllData struct {
	identified
}

func (e *AllData) DataLength() int64 {
	return protocol.ParseInt64(e.Field(protocol.FieldDataLength), protocol.DefaultInt)
}

func (e *AllData) ContentType() string {
	if e.HasField("Metadata.ContentType") {
		return e.Field("Metadata.ContentType")
	}

	return e.Field("ContentType")
}

func (e *AllData) StartupTime() int64    { return protocol.ParseInt64(e.Field("StartupTime"), protocol.DefaultInt) }
func (e *AllData) CompletionTime() int64 { return protocol.ParseInt64(e.Field("CompletionTime"), protocol.DefaultInt) }

// Fetch failure codes that carry a RedirectURI and ask the client to fetch
// again from there.
const (
	CodeNewURI            = 24
	CodePermanentRedirect = 27
)

type GetFailed struct {
	identified
}

func (e *GetFailed) Code() int                    { return protocol.ParseInt(e.Field(protocol.FieldCode), protocol.DefaultInt) }
func (e *GetFailed) CodeDescription() string      { return e.Field("CodeDescription") }
func (e *GetFailed) ExtraDescription() string     { return e.Field("ExtraDescription") }
func (e *GetFailed) ShortCodeDescription() string { return e.Field("ShortCodeDescription") }
func (e *GetFailed) Fatal() bool                  { return protocol.ParseBool(e.Field("Fatal")) }
func (e *GetFailed) RedirectURI() string          { return e.Field("RedirectURI") }
func (e *GetFailed) ExpectedDataLength() int64 {
	return protocol.ParseInt64(e.Field("ExpectedDataLength"), protocol.DefaultInt)
}
func (e *GetFailed) ExpectedMetadataContentType() string { return e.Field("ExpectedMetadata.ContentType") }

// Redirect reports whether the failure asks for the fetch to be retried at
// RedirectURI.
func (e *GetFailed) Redirect() bool {
	code := e.Code()
	return code == CodeNewURI || code == CodePermanentRedirect
}

type PutFailed struct {
	identified
}

func (e *PutFailed) Code() int                { return protocol.ParseInt(e.Field(protocol.FieldCode), protocol.DefaultInt) }
func (e *PutFailed) CodeDescription() string  { return e.Field("CodeDescription") }
func (e *PutFailed) ExtraDescription() string { return e.Field("ExtraDescription") }
func (e *PutFailed) Fatal() bool              { return protocol.ParseBool(e.Field("Fatal")) }
func (e *PutFailed) ExpectedURI() string      { return e.Field("ExpectedURI") }

type PutSuccessful struct {
	identified
}

func (e *PutSuccessful) URI() string           { return e.Field(protocol.FieldURI) }
func (e *PutSuccessful) StartupTime() int64    { return protocol.ParseInt64(e.Field("StartupTime"), protocol.DefaultInt) }
func (e *PutSuccessful) CompletionTime() int64 { return protocol.ParseInt64(e.Field("CompletionTime"), protocol.DefaultInt) }

type PutFetchable struct {
	identified
}

func (e *PutFetchable) URI() string { return e.Field(protocol.FieldURI) }

type URIGenerated struct {
	identified
}

func (e *URIGenerated) URI() string { return e.Field(protocol.FieldURI) }

type SimpleProgress struct {
	identified
}

func (e *SimpleProgress) Total() int                 { return e.count("Total") }
func (e *SimpleProgress) Required() int              { return e.count("Required") }
func (e *SimpleProgress) Failed() int                { return e.count("Failed") }
func (e *SimpleProgress) FatallyFailed() int         { return e.count("FatallyFailed") }
func (e *SimpleProgress) Succeeded() int             { return e.count("Succeeded") }
func (e *SimpleProgress) MinSuccessFetchBlocks() int { return e.count("MinSuccessFetchBlocks") }
func (e *SimpleProgress) FinalizedTotal() bool       { return protocol.ParseBool(e.Field("FinalizedTotal")) }
func (e *SimpleProgress) LastProgress() int64 {
	return protocol.ParseInt64(e.Field("LastProgress"), protocol.DefaultInt)
}

func (e *SimpleProgress) count(key string) int {
	return protocol.ParseInt(e.Field(key), protocol.DefaultInt)
}

type StartedCompression struct {
	identified
}

func (e *StartedCompression) Codec() string { return e.Field("Codec") }

type FinishedCompression struct {
	identified
}

func (e *FinishedCompression) Codec() string { return e.Field("Codec") }
func (e *FinishedCompression) OriginalSize() int64 {
	return protocol.ParseInt64(e.Field("OriginalSize"), protocol.DefaultInt)
}
func (e *FinishedCompression) CompressedSize() int64 {
	return protocol.ParseInt64(e.Field("CompressedSize"), protocol.DefaultInt)
}

type IdentifierCollision struct {
	identified
}

type SubscribedUSK struct {
	identified
}

func (e *SubscribedUSK) URI() string    { return e.Field(protocol.FieldURI) }
func (e *SubscribedUSK) DontPoll() bool { return protocol.ParseBool(e.Field("DontPoll")) }

type SubscribedUSKUpdate struct {
	identified
}

func (e *SubscribedUSKUpdate) URI() string        { return e.Field(protocol.FieldURI) }
func (e *SubscribedUSKUpdate) Edition() int       { return protocol.ParseInt(e.Field("Edition"), protocol.DefaultInt) }
func (e *SubscribedUSKUpdate) NewKnownGood() bool { return protocol.ParseBool(e.Field("NewKnownGood")) }
func (e *SubscribedUSKUpdate) NewSlotToo() bool   { return protocol.ParseBool(e.Field("NewSlotToo")) }

type PluginInfo struct {
	identified
}

func (e *PluginInfo) PluginName() string  { return e.Field("PluginName") }
func (e *PluginInfo) IsTalkable() bool    { return protocol.ParseBool(e.Field("IsTalkable")) }
func (e *PluginInfo) LongVersion() string { return e.Field("LongVersion") }
func (e *PluginInfo) Version() string     { return e.Field("Version") }
func (e *PluginInfo) OriginURI() string   { return e.Field("OriginUri") }
func (e *PluginInfo) Started() bool       { return protocol.ParseBool(e.Field("Started")) }

type PluginRemoved struct {
	identified
}

func (e *PluginRemoved) PluginName() string { return e.Field("PluginName") }

type FCPPluginReply struct {
	identified
}

func (e *FCPPluginReply) PluginName() string { return e.Field("PluginName") }
func (e *FCPPluginReply) DataLength() int64 {
	return protocol.ParseInt64(e.Field(protocol.FieldDataLength), protocol.DefaultInt)
}

func (e *FCPPluginReply) Reply(key string) string { return e.Field("Replies." + key) }

// Replies returns every "Replies." field with the prefix removed.
func (e *FCPPluginReply) Replies() map[string]string { return e.FieldsWithPrefix("Replies.") }

type TestDDAReply struct {
	*protocol.Message
}

func (e *TestDDAReply) Directory() string      { return e.Field("Directory") }
func (e *TestDDAReply) ReadFilename() string   { return e.Field("ReadFilename") }
func (e *TestDDAReply) WriteFilename() string  { return e.Field("WriteFilename") }
func (e *TestDDAReply) ContentToWrite() string { return e.Field("ContentToWrite") }

type TestDDAComplete struct {
	*protocol.Message
}

func (e *TestDDAComplete) Directory() string { return e.Field("Directory") }
func (e *TestDDAComplete) ReadDirectoryAllowed() bool {
	return protocol.ParseBool(e.Field("ReadDirectoryAllowed"))
}
func (e *TestDDAComplete) WriteDirectoryAllowed() bool {
	return protocol.ParseBool(e.Field("WriteDirectoryAllowed"))
}

type SentFeed struct {
	identified
}

func (e *SentFeed) NodeStatus() int { return protocol.ParseInt(e.Field("NodeStatus"), protocol.DefaultInt) }

type ReceivedBookmarkFeed struct {
	identified
}

func (e *ReceivedBookmarkFeed) NodeIdentifier() string { return e.Field(protocol.FieldNodeIdentifier) }
func (e *ReceivedBookmarkFeed) URI() string            { return e.Field(protocol.FieldURI) }
func (e *ReceivedBookmarkFeed) BookmarkName() string   { return e.Field("Name") }
func (e *ReceivedBookmarkFeed) HasAnActivelink() bool {
	return protocol.ParseBool(e.Field("HasAnActivelink"))
}
