package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	fetchftp "github.com/tanq16/fetchr/internal/downloaders/ftp"
	fetchhttp "github.com/tanq16/fetchr/internal/downloaders/http"
	"github.com/tanq16/fetchr/internal/output"
	"github.com/tanq16/fetchr/internal/transfer"
	"github.com/tanq16/fetchr/internal/utils"
)

// Downloader drives one retrieval protocol.
type Downloader interface {
	ValidateJob(job *utils.FetchJob) error
	BuildJob(job *utils.FetchJob) error
	Download(ctx context.Context, job *utils.FetchJob, out *transfer.Sink, state *transfer.State) error
}

// downloaderRegistry maps job types to their respective downloader implementations
var downloaderRegistry = map[string]Downloader{
	utils.JobTypeHTTP: &fetchhttp.HTTPDownloader{},
	utils.JobTypeFTP:  &fetchftp.FTPDownloader{},
}

// ErrJobsFailed is returned by Run when at least one job did not complete.
var ErrJobsFailed = errors.New("encountered failed operation(s)")

// Result is the outcome of one job.
type Result struct {
	Job       utils.FetchJob
	Delivered int64
	Elapsed   time.Duration
	Err       error
}

// The meter only draws on a terminal; both are swapped out by tests.
var (
	meterWidth   = func() int { return output.TerminalWidth(os.Stderr) }
	meterEnabled = func() bool { return output.IsTerminal(os.Stderr) }
)

// Run executes the jobs one after another. A failed job does not stop the ones after it.
func Run(ctx context.Context, jobs []utils.FetchJob) ([]Result, error) {
	results := make([]Result, 0, len(jobs))
	failed := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := processJob(ctx, job)
		if res.Err != nil {
			failed++
			output.PrintError(fmt.Sprintf("%s %s: %v", output.StyleSymbols["fail"], res.Job.URL, res.Err))
		} else if len(jobs) > 1 {
			fmt.Fprintf(output.Stderr, "%s %s %s\n", output.FSuccess(output.StyleSymbols["pass"]), output.FDetail(res.Job.OutputPath),
				output.FDebug(fmt.Sprintf("(%s at %s)", output.FormatBytes(uint64(res.Delivered)), output.FormatSpeed(res.Delivered, res.Elapsed.Seconds()))))
		}
		results = append(results, res)
	}
	if len(jobs) > 1 {
		summarize(len(jobs), failed)
	}
	if failed > 0 {
		return results, ErrJobsFailed
	}
	return results, nil
}

func summarize(total, failed int) {
	output.PrintHeader("Summary")
	output.PrintSuccess(fmt.Sprintf("%s %d of %d completed", output.StyleSymbols["arrow"], total-failed, total))
	if failed > 0 {
		fmt.Fprintln(output.Stderr, output.FError(fmt.Sprintf("%s %d failed", output.StyleSymbols["arrow"], failed)))
	}
}

// processJob runs validate, build, download for one job and cleans up after a failure: the
// partial output is removed unless a resume was in progress.
func processJob(ctx context.Context, job utils.FetchJob) Result {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	logger := log.With().Str("op", "scheduler").Str("job", job.ID).Logger()
	res := Result{Job: job}

	downloader, exists := downloaderRegistry[job.JobType]
	if !exists {
		res.Err = fmt.Errorf("unknown job type: %s", job.JobType)
		return res
	}
	if err := downloader.ValidateJob(&job); err != nil {
		res.Err = err
		return res
	}
	if err := downloader.BuildJob(&job); err != nil {
		res.Err = err
		return res
	}
	res.Job = job

	sink, err := transfer.OpenSink(job.OutputPath, job.Continue)
	if err != nil {
		res.Err = err
		return res
	}
	state := transfer.NewState(job.Continue, sink.Offset())
	if state.Resuming() {
		logger.Debug().Msgf("resuming %s at byte %d", job.OutputPath, state.Offset())
	}

	var meter *output.Meter
	if !job.Config.Quiet && meterEnabled() {
		meter = output.NewMeter(meterName(sink), state, output.Stderr, meterWidth)
		meter.Start()
	}
	start := time.Now()
	err = downloader.Download(ctx, &job, sink, state)
	res.Elapsed = time.Since(start)
	res.Delivered = state.Delivered()
	if meter != nil {
		meter.Stop()
	}

	if err != nil {
		if meter != nil {
			fmt.Fprintln(output.Stderr)
		}
		logger.Debug().Err(err).Msg("download failed")
		sink.Abort(state.Resuming())
		res.Err = err
		return res
	}
	if err := sink.Close(); err != nil {
		res.Err = err
		return res
	}
	fmt.Fprintln(output.Stderr)
	logger.Debug().Msgf("wrote %d bytes to %s", res.Delivered, sink.Name())
	return res
}

func meterName(sink *transfer.Sink) string {
	if sink.IsStdout() {
		return utils.StdoutPath
	}
	return filepath.Base(sink.Name())
}
