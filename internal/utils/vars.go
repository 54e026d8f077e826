package utils

import (
	"errors"
	"fmt"
)

const DefaultBufferSize = 32 * 1024
const ToolUserAgent = "fetchr/1.0"
const DefaultOutputName = "index.html"
const StdoutPath = "-"

const (
	JobTypeHTTP = "http"
	JobTypeFTP  = "ftp"
)

var (
	ErrUnsupportedScheme   = errors.New("not an http or ftp url")
	ErrNameResolution      = errors.New("cannot resolve host")
	ErrConnect             = errors.New("cannot connect")
	ErrMalformedHeader     = errors.New("bad header line")
	ErrHeaderTruncated     = fmt.Errorf("%w: value truncated", ErrMalformedHeader)
	ErrUnsupportedEncoding = errors.New("unsupported transfer encoding")
	ErrTooManyRedirects    = errors.New("too many redirections")
	ErrNetworkRead         = errors.New("network read error")
	ErrNoResponse          = fmt.Errorf("%w: no response from server", ErrNetworkRead)
	ErrOutputWrite         = errors.New("output write failure")
)

// StatusError is a final HTTP status the client does not accept. Line is the raw status line
// without its terminator.
type StatusError struct {
	Code int
	Line string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned error %d: %s", e.Code, e.Line)
}

// ReplyError is an FTP control reply that did not match the code the dialogue expected.
type ReplyError struct {
	Step    string
	Code    int
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Step, e.Code, e.Message)
}
