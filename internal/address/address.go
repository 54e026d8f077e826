// Package address splits scheme-qualified http:// and ftp:// targets into their parts.
package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tanq16/fetchr/internal/utils"
)

const (
	DefaultHTTPPort = 80
	DefaultFTPPort  = 21
)

// Address is an immutable view of one parsed target. Redirects produce a new Address rather
// than editing an existing one.
type Address struct {
	Scheme   string
	Host     string
	Port     int
	Path     string // without the leading slash
	User     string
	Password string
	HasUser  bool
	HasPass  bool
}

// Parse recognizes exactly the http:// and ftp:// prefixes. The authority ends at the first
// slash; the first '@' splits off user[:password] and a trailing ":port" overrides the default
// port. No decoding or host validation is done.
func Parse(raw string) (Address, error) {
	var a Address
	var rest string
	switch {
	case strings.HasPrefix(raw, "http://"):
		a.Scheme, a.Port, rest = "http", DefaultHTTPPort, raw[len("http://"):]
	case strings.HasPrefix(raw, "ftp://"):
		a.Scheme, a.Port, rest = "ftp", DefaultFTPPort, raw[len("ftp://"):]
	default:
		return Address{}, fmt.Errorf("%w: %s", utils.ErrUnsupportedScheme, raw)
	}

	authority, path, _ := strings.Cut(rest, "/")
	a.Path = path

	if creds, host, found := strings.Cut(authority, "@"); found {
		a.HasUser = true
		a.User, a.Password, a.HasPass = strings.Cut(creds, ":")
		authority = host
	}

	if host, port, found := strings.Cut(authority, ":"); found {
		authority = host
		a.Port = leadingInt(port)
	}
	a.Host = authority
	return a, nil
}

// leadingInt parses the run of decimal digits at the start of s, yielding 0 when there is none.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func (a Address) IsFTP() bool {
	return a.Scheme == "ftp"
}

// HostPort is the dial target in host:port form.
func (a Address) HostPort() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// String renders the absolute form scheme://host:port/path used for proxied requests.
// Credentials are never included.
func (a Address) String() string {
	return fmt.Sprintf("%s://%s:%d/%s", a.Scheme, a.Host, a.Port, a.Path)
}

// Credentials returns the user[:password] pair as it appeared in the target.
func (a Address) Credentials() string {
	if !a.HasUser {
		return ""
	}
	if a.HasPass {
		return a.User + ":" + a.Password
	}
	return a.User
}

// WithPath returns a copy of the address on the same host with a new path.
func (a Address) WithPath(path string) Address {
	a.Path = path
	return a
}

// DefaultPort reports whether the port is the scheme's well-known one.
func (a Address) DefaultPort() bool {
	if a.IsFTP() {
		return a.Port == DefaultFTPPort
	}
	return a.Port == DefaultHTTPPort
}
