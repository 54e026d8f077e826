package fetchftp

import (
	"github.com/rs/zerolog/log"
	"github.com/tanq16/fetchr/internal/downloaders"
	"github.com/tanq16/fetchr/internal/utils"
)

const (
	AnonymousUser     = "anonymous"
	AnonymousPassword = "fetchr@"
)

type FTPDownloader struct{}

func (d *FTPDownloader) ValidateJob(job *utils.FetchJob) error {
	if err := downloaders.ParseTargets(job); err != nil {
		return err
	}
	log.Debug().Str("op", "ftp/initial").Str("job", job.ID).Msgf("job validated for %s", downloaders.Target(job).String())
	return nil
}

func (d *FTPDownloader) BuildJob(job *utils.FetchJob) error {
	downloaders.ResolveOutput(job)
	log.Debug().Str("op", "ftp/initial").Str("job", job.ID).Msgf("job built, writing to %s", job.OutputPath)
	return nil
}
