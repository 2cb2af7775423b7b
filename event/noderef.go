package event

import (
	"strconv"
	"strings"

	"github.com/luma/fcp/protocol"
)

// Version is the "<node>,<node version>,<protocol version>,<build>" tuple
// found in node and peer descriptions.
type Version struct {
	Node            string
	NodeVersion     string
	ProtocolVersion string
	BuildNumber     int
}

// ParseVersion splits a version field. Missing parts are left empty and a
// missing or invalid build number is -1.
func ParseVersion(value string) Version {
	parts := strings.SplitN(value, ",", 4)
	for len(parts) < 4 {
		parts = append(parts, "")
	}

	return Version{
		Node:            parts[0],
		NodeVersion:     parts[1],
		ProtocolVersion: parts[2],
		BuildNumber:     protocol.ParseInt(parts[3], protocol.DefaultInt),
	}
}

func (v Version) String() string {
	if v.Node == "" {
		return ""
	}

	return strings.Join([]string{v.Node, v.NodeVersion, v.ProtocolVersion, strconv.Itoa(v.BuildNumber)}, ",")
}

type ARK struct {
	PublicURI  string
	PrivateURI string
	Number     int
}

type DSAGroup struct {
	Base     string
	Prime    string
	Subprime string
}
