package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tanq16/fetchr/internal/output"
	"github.com/tanq16/fetchr/internal/scheduler"
	"github.com/tanq16/fetchr/internal/utils"
)

var FetchrVersion = "dev"

var (
	cfgFile string
	conf    *config
)

var rootCmd = &cobra.Command{
	Use:     "fetchr [URL]",
	Short:   "fetchr retrieves a file over HTTP or FTP",
	Version: FetchrVersion,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd, cfgFile)
		if err != nil {
			return err
		}
		conf = c
		utils.InitLogger(conf.v.GetBool("debug"))
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			output.PrintError("No URL provided")
			cmd.Usage()
			os.Exit(1)
		}
		job := conf.newJob(args[0], conf.v.GetString("output"))
		runJobs(cmd.Context(), []utils.FetchJob{job})
	},
}

func runJobs(ctx context.Context, jobs []utils.FetchJob) {
	if _, err := scheduler.Run(ctx, jobs); err != nil {
		os.Exit(1)
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	registerFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML) with defaults for any flag")
	rootCmd.AddCommand(newBatchCmd())
}
