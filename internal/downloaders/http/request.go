package fetchhttp

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/tanq16/fetchr/internal/address"
	"github.com/tanq16/fetchr/internal/wire"
)

// request is everything one GET needs. Proxy is nil for a direct request.
type request struct {
	target    address.Address
	proxy     *address.Address
	userAgent string
	offset    int64 // resume offset, 0 for a full fetch
}

// writeTo composes the request head: absolute form through a proxy, origin form otherwise, and
// always Connection: close so each attempt is a fresh exchange.
func (r request) writeTo(conn *wire.Conn) error {
	var b strings.Builder
	uri := "/" + r.target.Path
	if r.proxy != nil {
		uri = r.target.String()
	}
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", uri)
	fmt.Fprintf(&b, "Host: %s\r\n", hostHeader(r.target))
	fmt.Fprintf(&b, "User-Agent: %s\r\n", r.userAgent)
	if r.target.HasUser {
		fmt.Fprintf(&b, "Authorization: Basic %s\r\n", basicAuth(r.target))
	}
	if r.proxy != nil && r.proxy.HasUser {
		fmt.Fprintf(&b, "Proxy-Authorization: Basic %s\r\n", basicAuth(*r.proxy))
	}
	if r.offset > 0 {
		fmt.Fprintf(&b, "Range: bytes=%d-\r\n", r.offset)
	}
	b.WriteString("Connection: close\r\n\r\n")

	if _, err := conn.Write([]byte(b.String())); err != nil {
		return err
	}
	return conn.Flush()
}

func hostHeader(a address.Address) string {
	if a.DefaultPort() {
		return a.Host
	}
	return a.HostPort()
}

func basicAuth(a address.Address) string {
	return base64.StdEncoding.EncodeToString([]byte(a.Credentials()))
}

// parseStatusCode skips the protocol token and the blanks after it and reads the numeric code.
// Anything unparsable yields 0. Digits past 9999 are not read; such a code is already out of
// range.
func parseStatusCode(line string) int {
	i := 0
	for i < len(line) && !isSpace(line[i]) {
		i++
	}
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	code := 0
	for ; i < len(line) && line[i] >= '0' && line[i] <= '9'; i++ {
		code = code*10 + int(line[i]-'0')
		if code > 999 {
			return code
		}
	}
	return code
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\v' || b == '\f'
}

// parseLength reads a Content-Length value, ignoring anything after the digits. It returns -1
// when there are no digits.
func parseLength(value string) int64 {
	value = strings.TrimLeft(value, " \t")
	var n int64 = -1
	for i := 0; i < len(value) && value[i] >= '0' && value[i] <= '9'; i++ {
		if n < 0 {
			n = 0
		}
		if n > (math.MaxInt64-9)/10 {
			return -1
		}
		n = n*10 + int64(value[i]-'0')
	}
	return n
}
