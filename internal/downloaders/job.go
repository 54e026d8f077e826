// Package downloaders holds the job preparation shared by the HTTP and FTP state machines.
package downloaders

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/fetchr/internal/address"
	"github.com/tanq16/fetchr/internal/utils"
)

const (
	targetKey = "target"
	proxyKey  = "proxy"
)

// ParseTargets parses the job URL and the proxy configured for its scheme and stores both in
// the job metadata.
func ParseTargets(job *utils.FetchJob) error {
	if job.Metadata == nil {
		job.Metadata = make(map[string]any)
	}
	target, err := address.Parse(job.URL)
	if err != nil {
		return err
	}
	job.Metadata[targetKey] = target
	if raw := job.Config.ProxyFor(target.Scheme); raw != "" {
		proxy, err := address.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid proxy for %s: %w", target.Scheme, err)
		}
		job.Metadata[proxyKey] = proxy
		log.Debug().Str("op", "downloaders/job").Str("job", job.ID).Msgf("using proxy %s", proxy.HostPort())
	}
	return nil
}

// ResolveOutput fills in the output path from the target path and drops resume for standard
// output, which has nothing to resume from.
func ResolveOutput(job *utils.FetchJob) {
	if job.OutputPath == "" {
		job.OutputPath = utils.GuessOutputName(Target(job).Path)
	}
	if job.Continue && job.OutputPath == utils.StdoutPath {
		log.Warn().Str("op", "downloaders/job").Str("job", job.ID).Msg("cannot continue a transfer to standard output, fetching from the start")
		job.Continue = false
	}
}

func Target(job *utils.FetchJob) address.Address {
	target, _ := job.Metadata[targetKey].(address.Address)
	return target
}

func Proxy(job *utils.FetchJob) (address.Address, bool) {
	proxy, ok := job.Metadata[proxyKey].(address.Address)
	return proxy, ok
}
