package protocol

import (
	"bytes"
	"io"
)

var (
	Terminal = []byte("\r\n")
)

// WriteMessage writes m to w as a single frame. The frame is built in memory
// first so that the whole message reaches w in one Write call.
func WriteMessage(w io.Writer, m *Message) error {
	_, err := w.Write(Encode(m))
	return err
}

// Encode returns the wire representation of m.
func Encode(m *Message) []byte {
	var buf bytes.Buffer

	writeLine(&buf, m.name)

	for _, k := range m.keys {
		buf.WriteString(k)
		buf.WriteByte('=')
		writeLine(&buf, m.values[k])
	}

	if m.Payload != nil {
		// No terminator follows the payload
		writeLine(&buf, Data)
		buf.Write(m.Payload)
		return buf.Bytes()
	}

	writeLine(&buf, EndMessage)
	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.Write(Terminal)
}
