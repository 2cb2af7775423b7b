package protocol

import (
	"strconv"
	"strings"
)

// Field is a single key=value line.
type Field struct {
	Key   string
	Value string
}

// Message is a single FCP message. Field order is preserved because some
// requests must reproduce the caller's ordering on the wire.
type Message struct {
	name   string
	keys   []string
	values map[string]string

	// Payload is nil when the message has no payload.
	Payload []byte
}

func NewMessage(name string) *Message {
	return &Message{
		name:   name,
		keys:   make([]string, 0, 8),
		values: make(map[string]string),
	}
}

func (m *Message) Name() string {
	return m.name
}

// SetField sets key to value. Overwriting an existing key keeps its original
// position.
func (m *Message) SetField(key, value string) *Message {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
	return m
}

func (m *Message) SetBool(key string, value bool) *Message {
	return m.SetField(key, strconv.FormatBool(value))
}

func (m *Message) SetInt(key string, value int64) *Message {
	return m.SetField(key, strconv.FormatInt(value, 10))
}

// Field returns the value of key or "" if it isn't set.
func (m *Message) Field(key string) string {
	return m.values[key]
}

func (m *Message) HasField(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the field keys in insertion order.
func (m *Message) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Pairs returns the fields in insertion order.
func (m *Message) Pairs() []Field {
	pairs := make([]Field, len(m.keys))
	for i, k := range m.keys {
		pairs[i] = Field{Key: k, Value: m.values[k]}
	}

	return pairs
}

// Fields returns a copy of all fields.
func (m *Message) Fields() map[string]string {
	fields := make(map[string]string, len(m.values))
	for k, v := range m.values {
		fields[k] = v
	}

	return fields
}

// FieldsWithPrefix returns every field whose key starts with prefix, with the
// prefix removed from the returned keys.
func (m *Message) FieldsWithPrefix(prefix string) map[string]string {
	fields := make(map[string]string)
	for _, k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			fields[k[len(prefix):]] = m.values[k]
		}
	}

	return fields
}

// SetPayload attaches payload and sets the matching DataLength field.
func (m *Message) SetPayload(payload []byte) *Message {
	if payload == nil {
		payload = []byte{}
	}

	m.Payload = payload
	return m.SetInt(FieldDataLength, int64(len(payload)))
}

func (m *Message) HasPayload() bool {
	return m.Payload != nil
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	c := NewMessage(m.name)
	for _, k := range m.keys {
		c.SetField(k, m.values[k])
	}

	if m.Payload != nil {
		c.Payload = append([]byte{}, m.Payload...)
	}

	return c
}
