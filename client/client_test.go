package client_test

import (
	"context"
	"errors"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/fcp/client"
	"github.com/luma/fcp/event"
	"github.com/luma/fcp/internal/fcptest"
	"github.com/luma/fcp/protocol"
)

func peerEvent(identity string, keyValues ...string) *event.Peer {
	return event.Default.Construct(fcptest.Peer("", identity, keyValues...)).(*event.Peer)
}

var _ = Describe("Client", func() {
	var server *fcptest.Server

	BeforeEach(func() {
		server = newServer()
	})

	AfterEach(func() {
		Expect(server.Close()).To(Succeed())
	})

	Describe("Connect()", func() {
		It("performs the handshake and watches the global queue", func() {
			c := client.New(client.Options{Dialer: server.Dialer(), Metrics: newMetrics()})
			defer c.Close()

			Expect(c.IsConnected()).To(BeFalse())
			Expect(c.Connect(ctx, "my-client")).To(Succeed())
			Expect(c.IsConnected()).To(BeTrue())

			var hello *protocol.Message
			Eventually(server.Received()).Should(Receive(&hello))
			Expect(hello.Name()).To(Equal(protocol.ClientHello))
			Expect(hello.Field("Name")).To(Equal("my-client"))
			Expect(hello.Field("ExpectedVersion")).To(Equal("2.0"))

			var watch *protocol.Message
			Eventually(server.Received()).Should(Receive(&watch))
			Expect(watch.Name()).To(Equal(protocol.WatchGlobal))
			Expect(watch.Field("Enabled")).To(Equal("true"))

			nodeHello := c.NodeHello()
			Expect(nodeHello).ToNot(BeNil())
			Expect(nodeHello.Node()).To(Equal("Fred"))
			Expect(nodeHello.ConnectionIdentifier()).To(Equal("connection-1"))
			Expect(nodeHello.Build()).To(Equal(1497))
		})

		It("can leave the global queue unwatched", func() {
			watchGlobal := false
			c := client.New(client.Options{
				Dialer:      server.Dialer(),
				Metrics:     newMetrics(),
				WatchGlobal: &watchGlobal,
			})
			defer c.Close()

			Expect(c.Connect(ctx, "my-client")).To(Succeed())

			Eventually(server.Received()).Should(Receive())
			var watch *protocol.Message
			Eventually(server.Received()).Should(Receive(&watch))
			Expect(watch.Field("Enabled")).To(Equal("false"))
		})

		It("refuses to connect twice", func() {
			c := connectClient(server)
			defer c.Close()

			Expect(c.Connect(ctx, "again")).To(MatchError(client.ErrAlreadyConnected))
		})

		It("fails when the node rejects the client name", func() {
			server.Handle(protocol.ClientHello, func(sess *fcptest.Session, _ *protocol.Message) {
				sess.Send(fcptest.Message(protocol.CloseConnectionDuplicateClientName))
				sess.Close()
			})

			c := client.New(client.Options{Dialer: server.Dialer(), Metrics: newMetrics()})
			defer c.Close()

			Expect(c.Connect(ctx, "taken")).To(MatchError(client.ErrDuplicateClientName))
			Expect(c.IsConnected()).To(BeFalse())
			Eventually(c.Conn().Done()).Should(BeClosed())
		})

		It("fails when the node sends a protocol error", func() {
			server.Handle(protocol.ClientHello, func(sess *fcptest.Session, _ *protocol.Message) {
				sess.Send(fcptest.Message(protocol.ProtocolError,
					"Code", "1",
					"CodeDescription", "ClientHello must be first message",
					"Fatal", "true",
					"Global", "true"))
			})

			c := client.New(client.Options{Dialer: server.Dialer(), Metrics: newMetrics()})
			defer c.Close()

			err := c.Connect(ctx, "my-client")

			var protoErr *client.ProtocolError
			Expect(errors.As(err, &protoErr)).To(BeTrue())
			Expect(protoErr.Code).To(Equal(1))
			Expect(c.IsConnected()).To(BeFalse())
		})
	})

	Context("when not connected", func() {
		It("fails every operation", func() {
			c := client.New(client.Options{Dialer: server.Dialer(), Metrics: newMetrics()})

			_, err := c.Peers(ctx, false, false)
			Expect(err).To(MatchError(client.ErrNotConnected))

			_, err = c.GetURI(ctx, "KSK@a", false)
			Expect(err).To(MatchError(client.ErrNotConnected))

			_, err = c.Requests(ctx, true)
			Expect(err).To(MatchError(client.ErrNotConnected))

			Expect(c.RemovePeer(ctx, peerEvent("abc"))).To(MatchError(client.ErrNotConnected))
		})
	})

	Context("when connected", func() {
		var c *client.Client

		BeforeEach(func() {
			c = connectClient(server)
		})

		AfterEach(func() {
			c.Close()
		})

		Describe("Peers()", func() {
			BeforeEach(func() {
				server.Handle(protocol.ListPeers, func(sess *fcptest.Session, msg *protocol.Message) {
					id := fcptest.Identifier(msg)
					sess.Send(fcptest.Peer(id, "darknet"))
					sess.Send(fcptest.Peer(id, "opennet", "opennet", "true"))
					sess.Send(fcptest.Peer(id, "seed", "opennet", "true", "seed", "true"))
					sess.Send(fcptest.Peer("someone-else", "stray"))
					sess.Send(fcptest.Message(protocol.EndListPeers, "Identifier", id))
				})
			})

			It("lists the peers answering its own request", func() {
				peers, err := c.Peers(ctx, true, false)
				Expect(err).To(Succeed())

				Expect(peers).To(HaveLen(3))
				Expect(peers[0].Identity()).To(Equal("darknet"))
				Expect(peers[1].Identity()).To(Equal("opennet"))
				Expect(peers[2].Identity()).To(Equal("seed"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("WithMetadata")).To(Equal("true"))
				Expect(msg.Field("WithVolatile")).To(Equal("false"))
			})

			It("filters peers by kind", func() {
				darknet, err := c.DarknetPeers(ctx, false, false)
				Expect(err).To(Succeed())
				Expect(darknet).To(HaveLen(1))
				Expect(darknet[0].Identity()).To(Equal("darknet"))

				opennet, err := c.OpennetPeers(ctx, false, false)
				Expect(err).To(Succeed())
				Expect(opennet).To(HaveLen(1))
				Expect(opennet[0].Identity()).To(Equal("opennet"))

				seeds, err := c.SeedPeers(ctx, false, false)
				Expect(err).To(Succeed())
				Expect(seeds).To(HaveLen(1))
				Expect(seeds[0].Identity()).To(Equal("seed"))
			})
		})

		It("fails the pending call on any protocol error", func() {
			server.Handle(protocol.ListPeers, func(sess *fcptest.Session, _ *protocol.Message) {
				sess.Send(fcptest.Message(protocol.ProtocolError,
					"Identifier", "X",
					"Code", "8",
					"CodeDescription", "Invalid field",
					"Global", "true"))
			})

			_, err := c.Peers(ctx, false, false)

			var protoErr *client.ProtocolError
			Expect(errors.As(err, &protoErr)).To(BeTrue())
			Expect(protoErr.Code).To(Equal(8))
			Expect(protoErr.Identifier).To(Equal("X"))
			Expect(protoErr.Global).To(BeTrue())

			Expect(c.IsConnected()).To(BeTrue())
		})

		It("fails the pending call when the connection closes", func() {
			server.Handle(protocol.ListPeers, func(sess *fcptest.Session, _ *protocol.Message) {
				sess.Close()
			})

			_, err := c.Peers(ctx, false, false)
			Expect(err).To(MatchError(client.ErrConnectionClosed))

			Eventually(c.IsConnected).Should(BeFalse())

			_, err = c.Peers(ctx, false, false)
			Expect(err).To(MatchError(client.ErrNotConnected))
		})

		It("abandons the wait when the context expires", func() {
			server.Handle(protocol.ListPeers, func(*fcptest.Session, *protocol.Message) {})
			subscribers := c.Conn().Len()

			short, cancelShort := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancelShort()

			_, err := c.Peers(short, false, false)
			Expect(err).To(MatchError(context.DeadlineExceeded))

			Expect(c.Conn().IsClosed()).To(BeFalse())
			Expect(c.IsConnected()).To(BeTrue())
			Expect(c.Conn().Len()).To(Equal(subscribers))
		})

		It("returns no result when a reply lands after the context expired", func() {
			server.Handle(protocol.ModifyPeer, func(sess *fcptest.Session, msg *protocol.Message) {
				time.Sleep(100 * time.Millisecond)
				sess.Send(fcptest.Peer("", msg.Field("NodeIdentifier")))
			})

			late := make(chan event.Event, 1)
			c.Conn().SubscribeTo(protocol.Peer, func(ev event.Event) { late <- ev })
			subscribers := c.Conn().Len()

			short, cancelShort := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancelShort()

			enabled := true
			peer, err := c.ModifyPeer(short, peerEvent("abc"), protocol.ModifyPeerOptions{Enabled: &enabled})
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(peer).To(BeNil())

			Eventually(late).Should(Receive())
			Expect(c.Conn().Len()).To(Equal(subscribers))
			Expect(c.IsConnected()).To(BeTrue())
		})

		Describe("AddPeer()", func() {
			It("resolves on the peer with the noderef's identity", func() {
				server.Handle(protocol.AddPeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Peer("", "unrelated"))
					sess.Send(fcptest.Peer("", msg.Field("identity")))
				})

				ref := []protocol.Field{
					{Key: "identity", Value: "abc"},
					{Key: "myName", Value: "friend"},
				}

				peer, err := c.AddPeerFromNodeRef(ctx, ref, protocol.TrustHigh, protocol.VisibilityNameOnly)
				Expect(err).To(Succeed())
				Expect(peer.Identity()).To(Equal("abc"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("Trust")).To(Equal("HIGH"))
				Expect(msg.Field("Visibility")).To(Equal("NAME_ONLY"))
				Expect(msg.Keys()[3:]).To(Equal([]string{"identity", "myName"}))
			})

			It("re-adds a listed peer from its noderef", func() {
				server.Handle(protocol.AddPeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Peer(fcptest.Identifier(msg), msg.Field("identity")))
				})

				peer, err := c.AddPeer(ctx, peerEvent("abc", "volatile.status", "CONNECTED"), protocol.TrustNormal, protocol.VisibilityNo)
				Expect(err).To(Succeed())
				Expect(peer.Identity()).To(Equal("abc"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.HasField("volatile.status")).To(BeFalse())
			})

			It("resolves by identifier when the noderef is on the node", func() {
				server.Handle(protocol.AddPeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Peer("someone-else", "stray"))
					sess.Send(fcptest.Peer(fcptest.Identifier(msg), "from-file"))
				})

				peer, err := c.AddPeerFromFile(ctx, "/tmp/noderef", protocol.TrustLow, protocol.VisibilityYes)
				Expect(err).To(Succeed())
				Expect(peer.Identity()).To(Equal("from-file"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("File")).To(Equal("/tmp/noderef"))
			})

			It("sends the noderef URL", func() {
				server.Handle(protocol.AddPeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Peer(fcptest.Identifier(msg), "from-url"))
				})

				u, err := url.Parse("http://example.com/noderef.txt")
				Expect(err).To(Succeed())

				peer, err := c.AddPeerFromURL(ctx, u, protocol.TrustLow, protocol.VisibilityYes)
				Expect(err).To(Succeed())
				Expect(peer.Identity()).To(Equal("from-url"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("URL")).To(Equal("http://example.com/noderef.txt"))
			})
		})

		Describe("ModifyPeer()", func() {
			It("returns the modified peer", func() {
				server.Handle(protocol.ModifyPeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Peer(fcptest.Identifier(msg), msg.Field("NodeIdentifier"), "volatile.status", "DISABLED"))
				})

				enabled := false
				peer, err := c.ModifyPeer(ctx, peerEvent("abc"), protocol.ModifyPeerOptions{Enabled: &enabled})
				Expect(err).To(Succeed())
				Expect(peer.Volatile()).To(HaveKeyWithValue("status", "DISABLED"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("IsDisabled")).To(Equal("true"))
				Expect(msg.HasField("IsListenOnly")).To(BeFalse())
			})

			It("fails for a peer the node doesn't know", func() {
				server.Handle(protocol.ModifyPeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.UnknownNodeIdentifier,
						"Identifier", fcptest.Identifier(msg),
						"NodeIdentifier", msg.Field("NodeIdentifier")))
				})

				_, err := c.ModifyPeer(ctx, peerEvent("abc"), protocol.ModifyPeerOptions{})
				Expect(err).To(MatchError(client.ErrUnknownPeer))
			})
		})

		Describe("RemovePeer()", func() {
			It("resolves when the peer is removed", func() {
				server.Handle(protocol.RemovePeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.PeerRemoved, "NodeIdentifier", msg.Field("NodeIdentifier")))
				})

				Expect(c.RemovePeer(ctx, peerEvent("abc"))).To(Succeed())
			})

			It("succeeds for a peer the node doesn't know", func() {
				server.Handle(protocol.RemovePeer, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.UnknownNodeIdentifier, "NodeIdentifier", msg.Field("NodeIdentifier")))
				})

				Expect(c.RemovePeer(ctx, peerEvent("abc"))).To(Succeed())
			})
		})

		Describe("peer notes", func() {
			It("lists the notes of one peer", func() {
				server.Handle(protocol.ListPeerNotes, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.PeerNote, "NodeIdentifier", "abc", "NoteText", "Zmlyc3Q=", "PeerNoteType", "1"))
					sess.Send(fcptest.Message(protocol.PeerNote, "NodeIdentifier", "other", "NoteText", "bm9wZQ==", "PeerNoteType", "1"))
					sess.Send(fcptest.Message(protocol.PeerNote, "NodeIdentifier", "abc", "NoteText", "aGVsbG8=", "PeerNoteType", "1"))
					sess.Send(fcptest.Message(protocol.EndListPeerNotes, "Identifier", fcptest.Identifier(msg)))
				})

				notes, err := c.PeerNotes(ctx, peerEvent("abc"))
				Expect(err).To(Succeed())
				Expect(notes).To(HaveLen(2))
				Expect(notes[0].Text()).To(Equal("first"))

				note, err := c.PeerNote(ctx, peerEvent("abc"))
				Expect(err).To(Succeed())
				Expect(note.Text()).To(Equal("hello"))
			})

			It("returns no note for a peer without notes", func() {
				server.Handle(protocol.ListPeerNotes, func(sess *fcptest.Session, _ *protocol.Message) {
					sess.Send(fcptest.Message(protocol.EndListPeerNotes))
				})

				note, err := c.PeerNote(ctx, peerEvent("abc"))
				Expect(err).To(Succeed())
				Expect(note).To(BeNil())
			})

			It("modifies the private darknet comment", func() {
				server.Handle(protocol.ModifyPeerNote, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.PeerNote,
						"NodeIdentifier", msg.Field("NodeIdentifier"),
						"NoteText", msg.Field("NoteText"),
						"PeerNoteType", msg.Field("PeerNoteType")))
				})

				Expect(c.ModifyPeerNote(ctx, peerEvent("abc"), "aGVsbG8=")).To(Succeed())

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("NodeIdentifier")).To(Equal("abc"))
				Expect(msg.Field("PeerNoteType")).To(Equal("1"))
				Expect(msg.Field("NoteText")).To(Equal("aGVsbG8="))
			})
		})

		It("generates key pairs", func() {
			server.Handle(protocol.GenerateSSK, func(sess *fcptest.Session, msg *protocol.Message) {
				sess.Send(fcptest.Message(protocol.SSKKeypair,
					"Identifier", fcptest.Identifier(msg),
					"InsertURI", "SSK@private/",
					"RequestURI", "SSK@public/"))
			})

			keypair, err := c.GenerateKeyPair(ctx)
			Expect(err).To(Succeed())
			Expect(keypair.InsertURI()).To(Equal("SSK@private/"))
			Expect(keypair.RequestURI()).To(Equal("SSK@public/"))
		})

		It("fetches node information", func() {
			server.Handle(protocol.GetNode, func(sess *fcptest.Session, msg *protocol.Message) {
				sess.Send(fcptest.Message(protocol.NodeData,
					"Identifier", fcptest.Identifier(msg),
					"identity", "me",
					"opennet", msg.Field("GiveOpennetRef"),
					"volatile.uptime", "42"))
			})

			node, err := c.NodeInformation(ctx, true, false, true)
			Expect(err).To(Succeed())
			Expect(node.Identity()).To(Equal("me"))
			Expect(node.Opennet()).To(BeTrue())
			Expect(node.Volatile()).To(HaveKeyWithValue("uptime", "42"))
		})

		Describe("config", func() {
			It("flattens every section", func() {
				server.Handle(protocol.GetConfig, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.ConfigData,
						"Identifier", fcptest.Identifier(msg),
						"current.node.name", "freddy",
						"default.node.name", "",
						"dataType.node.name", "string",
						"shortDescription.fcp.port", "FCP port"))
				})

				config, err := c.GetConfig(ctx)
				Expect(err).To(Succeed())
				Expect(config).To(Equal(map[string]string{
					"current.node.name":         "freddy",
					"default.node.name":         "",
					"dataType.node.name":        "string",
					"shortDescription.fcp.port": "FCP port",
				}))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("WithCurrent")).To(Equal("true"))
				Expect(msg.Field("WithSortOrder")).To(Equal("true"))
			})

			It("sends modified options in order", func() {
				server.Handle(protocol.ModifyConfig, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.ConfigData,
						"Identifier", fcptest.Identifier(msg),
						"current.node.name", msg.Field("node.name")))
				})

				config, err := c.ModifyConfig(ctx, []protocol.Field{
					{Key: "node.name", Value: "bob"},
					{Key: "fproxy.enabled", Value: "false"},
				})
				Expect(err).To(Succeed())
				Expect(config.Section("current")).To(HaveKeyWithValue("node.name", "bob"))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Keys()).To(Equal([]string{"Identifier", "node.name", "fproxy.enabled"}))
			})
		})

		It("calls plugins with a payload", func() {
			server.Handle(protocol.FCPPluginMessage, func(sess *fcptest.Session, msg *protocol.Message) {
				reply := fcptest.Message(protocol.FCPPluginReply,
					"Identifier", fcptest.Identifier(msg),
					"PluginName", msg.Field("PluginName"),
					"Replies.Status", "ok",
					"Replies.Echo", msg.Field("Param.Command"))
				reply.SetPayload(append([]byte("re: "), msg.Payload...))
				sess.Send(reply)
			})

			reply, err := c.SendPluginMessage(ctx, "plugins.Echo",
				[]protocol.Field{{Key: "Command", Value: "ping"}},
				[]byte("payload"))
			Expect(err).To(Succeed())
			Expect(reply.Replies).To(Equal(map[string]string{"Status": "ok", "Echo": "ping"}))
			Expect(reply.Payload).To(Equal([]byte("re: payload")))
		})

		Describe("GetURI()", func() {
			It("returns the data", func() {
				server.Handle(protocol.ClientGet, func(sess *fcptest.Session, msg *protocol.Message) {
					data := fcptest.Message(protocol.AllData,
						"Identifier", fcptest.Identifier(msg),
						"Metadata.ContentType", "text/plain")
					data.SetPayload([]byte("hello"))
					sess.Send(data)
				})

				result, err := c.GetURI(ctx, "KSK@hello", true)
				Expect(err).To(Succeed())
				Expect(result.Success).To(BeTrue())
				Expect(result.ContentType).To(Equal("text/plain"))
				Expect(result.ContentLength).To(Equal(int64(5)))
				Expect(result.Payload).To(Equal([]byte("hello")))
				Expect(result.RealURI).To(Equal("KSK@hello"))
				Expect(result.ErrorCode).To(Equal(protocol.DefaultInt))

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Field("ReturnType")).To(Equal("direct"))
				Expect(msg.Field("FilterData")).To(Equal("true"))
			})

			It("follows redirects with the same identifier", func() {
				server.Handle(protocol.ClientGet, func(sess *fcptest.Session, msg *protocol.Message) {
					id := fcptest.Identifier(msg)
					if msg.Field("URI") == "KSK@a" {
						sess.Send(fcptest.Message(protocol.GetFailed,
							"Identifier", id, "Code", "27", "RedirectURI", "KSK@b"))
						return
					}

					data := fcptest.Message(protocol.AllData, "Identifier", id)
					data.SetPayload([]byte("b"))
					sess.Send(data)
				})

				result, err := c.GetURI(ctx, "KSK@a", false)
				Expect(err).To(Succeed())
				Expect(result.Success).To(BeTrue())
				Expect(result.RealURI).To(Equal("KSK@b"))
				Expect(result.Payload).To(Equal([]byte("b")))

				var first, second *protocol.Message
				Eventually(server.Received()).Should(Receive(&first))
				Eventually(server.Received()).Should(Receive(&second))
				Expect(second.Field("URI")).To(Equal("KSK@b"))
				Expect(fcptest.Identifier(second)).To(Equal(fcptest.Identifier(first)))
			})

			It("reports failures in the result", func() {
				server.Handle(protocol.ClientGet, func(sess *fcptest.Session, msg *protocol.Message) {
					sess.Send(fcptest.Message(protocol.GetFailed,
						"Identifier", fcptest.Identifier(msg), "Code", "28", "Fatal", "true"))
				})

				result, err := c.GetURI(ctx, "KSK@missing", false)
				Expect(err).To(Succeed())
				Expect(result.Success).To(BeFalse())
				Expect(result.ErrorCode).To(Equal(28))
				Expect(result.Payload).To(BeNil())
			})

			It("detects redirect loops", func() {
				server.Handle(protocol.ClientGet, func(sess *fcptest.Session, msg *protocol.Message) {
					next := "KSK@a"
					if msg.Field("URI") == "KSK@a" {
						next = "KSK@b"
					}

					sess.Send(fcptest.Message(protocol.GetFailed,
						"Identifier", fcptest.Identifier(msg), "Code", "24", "RedirectURI", next))
				})

				_, err := c.GetURI(ctx, "KSK@a", false)
				Expect(err).To(MatchError(client.ErrRedirectLoop))
				Expect(c.IsConnected()).To(BeTrue())
			})
		})

		Describe("Requests()", func() {
			BeforeEach(func() {
				server.Handle(protocol.ListPersistentRequests, func(sess *fcptest.Session, _ *protocol.Message) {
					sess.Send(fcptest.Message(protocol.PersistentGet, "Identifier", "get1", "URI", "KSK@one", "Global", "false", "PriorityClass", "2"))
					sess.Send(fcptest.Message(protocol.SimpleProgress, "Identifier", "get1", "Total", "10", "Required", "8", "Succeeded", "4"))
					sess.Send(fcptest.Message(protocol.SimpleProgress, "Identifier", "unknown", "Total", "3"))
					sess.Send(fcptest.Message(protocol.PersistentPut, "Identifier", "put1", "URI", "CHK@", "Global", "true", "DataLength", "1024"))
					sess.Send(fcptest.Message(protocol.PutSuccessful, "Identifier", "put1", "URI", "CHK@abc"))
					sess.Send(fcptest.Message(protocol.PersistentGet, "Identifier", "get2", "URI", "KSK@two", "Global", "false"))
					sess.Send(fcptest.Message(protocol.GetFailed, "Identifier", "get2", "Code", "13", "Fatal", "true"))
					sess.Send(fcptest.Message(protocol.EndListPersistentRequests))
				})
			})

			identifiers := func(requests []*client.Request) []string {
				ids := make([]string, len(requests))
				for i, r := range requests {
					ids[i] = r.Identifier
				}
				return ids
			}

			It("folds the request events", func() {
				requests, err := c.Requests(ctx, true)
				Expect(err).To(Succeed())
				Expect(identifiers(requests)).To(Equal([]string{"get1", "put1", "get2"}))

				get1 := requests[0]
				Expect(get1.Kind).To(Equal(client.KindGet))
				Expect(get1.URI).To(Equal("KSK@one"))
				Expect(get1.PriorityClass).To(Equal(2))
				Expect(get1.TotalBlocks).To(Equal(10))
				Expect(get1.SucceededBlocks).To(Equal(4))
				Expect(get1.Complete).To(BeFalse())

				put1 := requests[1]
				Expect(put1.Kind).To(Equal(client.KindPut))
				Expect(put1.Global).To(BeTrue())
				Expect(put1.Complete).To(BeTrue())
				Expect(put1.URI).To(Equal("CHK@abc"))
				Expect(put1.Length).To(Equal(int64(1024)))

				get2 := requests[2]
				Expect(get2.Failed).To(BeTrue())
				Expect(get2.Fatal).To(BeTrue())
				Expect(get2.ErrorCode).To(Equal(13))
			})

			It("leaves out the global queue unless asked", func() {
				requests, err := c.Requests(ctx, false)
				Expect(err).To(Succeed())
				Expect(identifiers(requests)).To(Equal([]string{"get1", "get2"}))
			})

			It("filters by kind", func() {
				gets, err := c.GetRequests(ctx, true)
				Expect(err).To(Succeed())
				Expect(identifiers(gets)).To(Equal([]string{"get1", "get2"}))

				puts, err := c.PutRequests(ctx, true)
				Expect(err).To(Succeed())
				Expect(identifiers(puts)).To(Equal([]string{"put1"}))
			})
		})

		Describe("Close()", func() {
			It("says goodbye before closing", func() {
				Expect(c.Close()).To(Succeed())

				var msg *protocol.Message
				Eventually(server.Received()).Should(Receive(&msg))
				Expect(msg.Name()).To(Equal(protocol.Disconnect))

				Expect(c.IsConnected()).To(BeFalse())
				Eventually(c.Conn().Done()).Should(BeClosed())
				Expect(c.Conn().Err()).To(BeNil())
			})
		})
	})
})
