package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultInt is returned for integer fields that are missing or can't be
// parsed, unless the caller asks for a different default.
const DefaultInt = -1

var identifierCounter uint64

// UniqueIdentifier returns an identifier that is unique for the lifetime of
// the process.
func UniqueIdentifier() string {
	n := atomic.AddUint64(&identifierCounter, 1) - 1
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), n)
}

func ParseInt(value string, def int) int {
	i, err := strconv.Atoi(value)
	if err != nil {
		return def
	}

	return i
}

func ParseInt64(value string, def int64) int64 {
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}

	return i
}

func ParseFloat(value string, def float64) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}

	return f
}

// ParseBool is true only for "true", ignoring case. Anything else is false.
func ParseBool(value string) bool {
	return strings.EqualFold(value, "true")
}

// DecodeMultiInt decodes a ';' separated list of integers.
func DecodeMultiInt(value string) ([]int, error) {
	if value == "" {
		return []int{}, nil
	}

	parts := strings.Split(value, ";")
	values := make([]int, 0, len(parts))

	for _, p := range parts {
		i, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("Failed to decode '%s': %w", value, err)
		}

		values = append(values, i)
	}

	return values, nil
}

func EncodeMultiInt(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return EncodeMultiString(parts)
}

func EncodeMultiString(values []string) string {
	return strings.Join(values, ";")
}
