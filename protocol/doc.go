package protocol

// This package implements parsing and serialising of the Freenet Client
// Protocol (FCP), the text protocol used to control a Freenet node over a
// single TCP connection.
//
// - `Message` - A named, ordered set of `key=value` fields, optionally
//               followed by a binary payload.
// - `Frame`   - The wire representation of one message.
//
// === General Syntax
//
// - lines are `\r\n` delimited (`\n` is accepted when reading)
// - the first line is the message name, e.g. `ClientHello`
// - every following line containing `=` is a field, split on the first `=`
// - the first line without `=` terminates the message
//
//   ```
//     ClientHello\r\n
//     Name=My Client\r\n
//     ExpectedVersion=2.0\r\n
//     EndMessage\r\n
//   ```
//
// === Payloads
//
// A message terminated with `Data` instead of `EndMessage` is followed by
// exactly `DataLength` raw bytes. There is no terminator after the payload,
// the next frame starts immediately.
//
//   ```
//     AllData\r\n
//     Identifier=get-1\r\n
//     DataLength=4\r\n
//     Data\r\n
//     Test
//   ```
//
// Both sides may send at any time. Replies carry the `Identifier` field of
// the request they belong to so that many requests can be multiplexed over
// one connection.
//
