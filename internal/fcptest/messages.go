package fcptest

import (
	"github.com/luma/fcp/protocol"
)

// Message builds a node message from alternating keys and values.
func Message(name string, keyValues ...string) *protocol.Message {
	msg := protocol.NewMessage(name)
	for i := 0; i+1 < len(keyValues); i += 2 {
		msg.SetField(keyValues[i], keyValues[i+1])
	}

	return msg
}

func NodeHello() *protocol.Message {
	return Message(protocol.NodeHello,
		"ConnectionIdentifier", "connection-1",
		"FCPVersion", protocol.ExpectedVersion,
		"Node", "Fred",
		"Version", "Fred,0.7,1.0,1497",
		"Build", "1497",
		"Testnet", "false",
		"CompressionCodecs", "3 - GZIP(0), BZIP2(1), LZMA_NEW(2)",
		"NodeLanguage", "ENGLISH",
	)
}

// Peer builds a peer description answering the ListPeers request identifier.
func Peer(identifier, identity string, keyValues ...string) *protocol.Message {
	msg := Message(protocol.Peer,
		protocol.FieldIdentifier, identifier,
		"identity", identity,
		"myName", identity+"-name",
		"version", "Fred,0.7,1.0,1497",
		"location", "0.5",
	)

	for i := 0; i+1 < len(keyValues); i += 2 {
		msg.SetField(keyValues[i], keyValues[i+1])
	}

	return msg
}

// Identifier returns the correlation identifier of a client request.
func Identifier(msg *protocol.Message) string {
	return msg.Field(protocol.FieldIdentifier)
}
