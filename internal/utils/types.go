package utils

import "time"

type FetchJob struct {
	ID         string
	JobType    string
	URL        string
	OutputPath string
	Continue   bool
	Config     ClientConfig
	Metadata   map[string]any
}

type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	HTTPProxy string
	FTPProxy  string
	RateLimit int64 // bytes per second, 0 disables the cap
	Continue  bool
	Quiet     bool
	Debug     bool
}

// ProxyFor returns the proxy address configured for the scheme of the target, if any.
func (c ClientConfig) ProxyFor(scheme string) string {
	switch scheme {
	case "http":
		return c.HTTPProxy
	case "ftp":
		return c.FTPProxy
	}
	return ""
}

type FetchEntry struct {
	OutputPath string `yaml:"op,omitempty"`
	URL        string `yaml:"link"`
}
