package protocol_test

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/fcp/protocol"
)

var _ = Describe("Writer", func() {
	Describe("Encode()", func() {
		It("writes the name, the fields, and EndMessage", func() {
			msg := protocol.NewMessage("Test").SetField("Key", "Value")
			Expect(string(protocol.Encode(msg))).To(Equal("Test\r\nKey=Value\r\nEndMessage\r\n"))
		})

		It("writes fields in insertion order", func() {
			msg := protocol.NewMessage("Test").
				SetField("Zebra", "1").
				SetField("Apple", "2").
				SetField("Mango", "3")

			Expect(string(protocol.Encode(msg))).To(Equal("Test\r\nZebra=1\r\nApple=2\r\nMango=3\r\nEndMessage\r\n"))
		})

		It("keeps the original position when a field is overwritten", func() {
			msg := protocol.NewMessage("Test").
				SetField("A", "1").
				SetField("B", "2").
				SetField("A", "3")

			Expect(string(protocol.Encode(msg))).To(Equal("Test\r\nA=3\r\nB=2\r\nEndMessage\r\n"))
		})

		It("writes UTF-8 field values unchanged", func() {
			msg := protocol.NewMessage("TestMessage").SetField("Test field", "test välue")
			Expect(protocol.Encode(msg)).To(Equal([]byte("TestMessage\r\nTest field=test välue\r\nEndMessage\r\n")))
		})

		It("terminates a message with a payload with Data and no trailing line break", func() {
			msg := protocol.NewMessage("TestMessage")
			msg.Payload = []byte("Test")

			Expect(string(protocol.Encode(msg))).To(Equal("TestMessage\r\nData\r\nTest"))
		})

		It("sets DataLength when the payload is attached with SetPayload", func() {
			msg := protocol.NewMessage("TestMessage").SetPayload([]byte("Hello"))
			Expect(string(protocol.Encode(msg))).To(Equal("TestMessage\r\nDataLength=5\r\nData\r\nHello"))
		})
	})

	Describe("WriteMessage()", func() {
		It("writes the encoded frame", func() {
			w := bytes.NewBuffer([]byte{})

			Expect(protocol.WriteMessage(w, protocol.NewClientHello("Test Client"))).To(Succeed())
			Expect(w.String()).To(Equal("ClientHello\r\nName=Test Client\r\nExpectedVersion=2.0\r\nEndMessage\r\n"))
		})
	})
})
