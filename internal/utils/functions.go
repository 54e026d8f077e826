package utils

import (
	"path"
	"strings"
)

// DetermineJobType picks the state machine for a target. An ftp:// target behind a proxy is
// fetched from the HTTP proxy, so only direct ftp:// targets use the FTP dialogue.
func DetermineJobType(url string, cfg ClientConfig) string {
	if strings.HasPrefix(url, "ftp://") && cfg.ProxyFor("ftp") == "" {
		return JobTypeFTP
	}
	return JobTypeHTTP
}

// GuessOutputName returns the last component of a target path, or DefaultOutputName when the
// path has none.
func GuessOutputName(targetPath string) string {
	if targetPath == "" || strings.HasSuffix(targetPath, "/") {
		return DefaultOutputName
	}
	name := path.Base(targetPath)
	if name == "." || name == "/" || name == "" {
		return DefaultOutputName
	}
	return name
}
