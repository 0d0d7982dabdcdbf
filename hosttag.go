package superq

import "strings"

// HostTag describes where a collection's authoritative copy lives: local
// to this process, or on a remote node reachable over plain TCP or TLS.
type HostTag struct {
	Local bool
	TLS   bool
	Addr  string // "host:port", empty when Local
}

// ParseHostTag parses a host tag in one of three forms: "local",
// "host:port", or "ssl:host:port".
func ParseHostTag(s string) (HostTag, error) {
	if s == "" || s == "local" {
		return HostTag{Local: true}, nil
	}
	if rest, ok := strings.CutPrefix(s, "ssl:"); ok {
		if rest == "" {
			return HostTag{}, &TypeError{Msg: "empty ssl host tag"}
		}
		return HostTag{TLS: true, Addr: rest}, nil
	}
	return HostTag{Addr: s}, nil
}

// String renders the tag back to its wire form.
func (h HostTag) String() string {
	switch {
	case h.Local:
		return "local"
	case h.TLS:
		return "ssl:" + h.Addr
	default:
		return h.Addr
	}
}

// PublicName computes the fully qualified name other nodes use to address
// a collection called name hosted at this tag: bare name when local,
// "addr/name" otherwise.
func (h HostTag) PublicName(name string) string {
	if h.Local {
		return name
	}
	return h.Addr + "/" + name
}

// SplitPublicName reverses PublicName: it separates an optional "addr/"
// prefix from the bare collection name. ok is false if name carries no
// host prefix (it names a local collection).
func SplitPublicName(publicName string) (addr, name string, ok bool) {
	idx := strings.LastIndex(publicName, "/")
	if idx < 0 {
		return "", publicName, false
	}
	return publicName[:idx], publicName[idx+1:], true
}
