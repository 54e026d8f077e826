package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tanq16/fetchr/internal/utils"
)

// config resolves every setting from flags, FETCHR_* variables, the conventional proxy
// variables and an optional config file, in that order of precedence.
type config struct {
	v *viper.Viper
}

func registerFlags(cmd *cobra.Command) {
	addClientFlags(cmd.PersistentFlags())
	cmd.Flags().StringP("output", "O", "", "Output file path ('-' for standard output, inferred from the URL if not provided)")
}

// addClientFlags declares the settings shared by the root and batch commands.
func addClientFlags(pf *pflag.FlagSet) {
	pf.BoolP("continue", "c", false, "Continue retrieval of a partially written file")
	pf.BoolP("quiet", "q", false, "Do not show the progress meter")
	pf.DurationP("timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	pf.StringP("user-agent", "a", utils.ToolUserAgent, "User agent")
	pf.Int64("limit-rate", 0, "Limit the transfer rate in bytes per second (0 for no limit)")
	pf.String("proxy", "", "Proxy URL for the target's scheme, overrides http_proxy and ftp_proxy")
	pf.Bool("debug", false, "Enable debug logging")
}

func loadConfig(cmd *cobra.Command, file string) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix("FETCHR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := v.BindEnv("http-proxy", "http_proxy", "HTTP_PROXY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("ftp-proxy", "ftp_proxy", "FTP_PROXY"); err != nil {
		return nil, err
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}
	return &config{v: v}, nil
}

func (c *config) clientConfig() utils.ClientConfig {
	cfg := utils.ClientConfig{
		Timeout:   c.v.GetDuration("timeout"),
		UserAgent: c.v.GetString("user-agent"),
		HTTPProxy: c.v.GetString("http-proxy"),
		FTPProxy:  c.v.GetString("ftp-proxy"),
		RateLimit: c.v.GetInt64("limit-rate"),
		Continue:  c.v.GetBool("continue"),
		Quiet:     c.v.GetBool("quiet"),
		Debug:     c.v.GetBool("debug"),
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = utils.ToolUserAgent
	}
	return cfg
}

// newJob builds the job for one URL; --proxy replaces the proxy of that URL's scheme only.
func (c *config) newJob(url, outputPath string) utils.FetchJob {
	cfg := c.clientConfig()
	if proxy := c.v.GetString("proxy"); proxy != "" {
		if strings.HasPrefix(url, "ftp://") {
			cfg.FTPProxy = proxy
		} else {
			cfg.HTTPProxy = proxy
		}
	}
	return utils.FetchJob{
		JobType:    utils.DetermineJobType(url, cfg),
		URL:        url,
		OutputPath: outputPath,
		Continue:   cfg.Continue,
		Config:     cfg,
	}
}
