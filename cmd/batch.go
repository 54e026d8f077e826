package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/fetchr/internal/output"
	"github.com/tanq16/fetchr/internal/utils"
	"gopkg.in/yaml.v3"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [OPTIONS]",
		Short: "Retrieve every link listed in a YAML file, one after another",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := readEntries(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			jobs := conf.buildJobs(entries)
			if len(jobs) == 0 {
				output.PrintError("No valid jobs found in the batch file")
				os.Exit(1)
			}
			runJobs(cmd.Context(), jobs)
		},
	}
	return cmd
}

func readEntries(path string) ([]utils.FetchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	var entries []utils.FetchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %w", err)
	}
	return entries, nil
}

func (c *config) buildJobs(entries []utils.FetchEntry) []utils.FetchJob {
	var jobs []utils.FetchJob
	for i, entry := range entries {
		if entry.URL == "" {
			output.PrintWarning(fmt.Sprintf("%s entry %d has no link, skipping", output.StyleSymbols["warning"], i+1))
			continue
		}
		jobs = append(jobs, c.newJob(entry.URL, entry.OutputPath))
	}
	return jobs
}
