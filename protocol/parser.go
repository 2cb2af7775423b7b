package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrFraming = errors.New("malformed FCP frame")

	ErrUnterminatedMessage = fmt.Errorf("%w: stream ended before the message terminator", ErrFraming)
	ErrMissingDataLength   = fmt.Errorf("%w: Data terminator without a DataLength field", ErrFraming)
	ErrInvalidDataLength   = fmt.Errorf("%w: DataLength is not a non-negative integer", ErrFraming)
	ErrTruncatedPayload    = fmt.Errorf("%w: stream ended before the declared payload length", ErrFraming)
)

// ReadMessage reads one frame from r.
//
// It returns io.EOF, unwrapped, only when the stream ends cleanly between
// frames. A stream that ends part way through a frame is reported as one of
// the ErrFraming errors.
//
// The same bufio.Reader must be passed to every call for a connection, as it
// may buffer bytes belonging to the next frame.
func ReadMessage(r *bufio.Reader) (*Message, error) {
	name, err := readName(r)
	if err != nil {
		return nil, err
	}

	msg := NewMessage(name)

	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading %s: %w", name, ErrUnterminatedMessage)
			}

			return nil, err
		}

		// Blank lines inside a frame are tolerated like those between frames
		if line == "" {
			continue
		}

		if i := strings.IndexByte(line, '='); i >= 0 {
			msg.SetField(line[:i], line[i+1:])
			continue
		}

		// The first line without '=' terminates the message
		if line != Data {
			return msg, nil
		}

		payload, err := readPayload(r, msg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		msg.Payload = payload
		return msg, nil
	}
}

func readName(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
				return "", io.EOF
			}

			if errors.Is(err, io.EOF) {
				return "", ErrUnterminatedMessage
			}

			return "", err
		}

		if name := trimLineEnding(line); name != "" {
			return name, nil
		}
	}
}

// readLine reads a complete line. A final line without '\n' is reported as
// io.EOF as it can't be a complete line.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}

	return trimLineEnding(line), nil
}

func readPayload(r *bufio.Reader, msg *Message) ([]byte, error) {
	if !msg.HasField(FieldDataLength) {
		return nil, ErrMissingDataLength
	}

	length, err := strconv.ParseInt(msg.Field(FieldDataLength), 10, 64)
	if err != nil || length < 0 {
		return nil, ErrInvalidDataLength
	}

	// Grow as bytes arrive rather than trusting DataLength for the allocation
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, length); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrTruncatedPayload
		}

		return nil, err
	}

	payload := buf.Bytes()
	if payload == nil {
		payload = []byte{}
	}

	return payload, nil
}

func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return RemoveTrailingCR(line)
}

func RemoveTrailingCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}
