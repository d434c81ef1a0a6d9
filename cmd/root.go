package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/gamepowerx/kekupload-go/internal/api"
	"github.com/gamepowerx/kekupload-go/internal/config"
	"github.com/gamepowerx/kekupload-go/internal/upload"
	"github.com/gamepowerx/kekupload-go/utils"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	chunkSize   int64
	readSize    int64
	maxAttempts int
	timeout     time.Duration
	userAgent   string
	headers     []string
	configPath  string
	debug       bool

	cfg *config.Config
)

var KekupVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "kekup",
	Short:   "kekup is a chunked transfer client for KekUpload servers",
	Version: KekupVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		// explicit flags win over config file values
		if cmd.Flags().Changed("server") || cfg.ServerURL == "" {
			cfg.ServerURL = serverURL
		}
		if cmd.Flags().Changed("chunk-size") {
			cfg.ChunkSize = chunkSize
		}
		if cmd.Flags().Changed("read-size") {
			cfg.ReadSize = readSize
		}
		if cmd.Flags().Changed("max-attempts") {
			cfg.MaxAttempts = maxAttempts
		}
		if cmd.Flags().Changed("timeout") {
			cfg.Timeout = timeout
		}
		if cmd.Flags().Changed("user-agent") {
			cfg.UserAgent = userAgent
		}
		if cfg.ServerURL == "" {
			return fmt.Errorf("no server URL provided (use --server or a kekup.yaml)")
		}
		return nil
	},
}

func newAPIClient() *api.Client {
	return api.NewClient(cfg.ServerURL, api.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Headers:   utils.ParseHeaderArgs(headers),
	})
}

func transferConfig() upload.TransferConfig {
	return upload.TransferConfig{
		ReadSize:  cfg.ReadSize,
		ChunkSize: cfg.ChunkSize,
		Retry:     upload.RetryPolicy{MaxAttempts: cfg.MaxAttempts},
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "Base URL of the KekUpload API")
	rootCmd.PersistentFlags().Int64Var(&chunkSize, "chunk-size", upload.DefaultChunkSize, "Upload chunk size in bytes")
	rootCmd.PersistentFlags().Int64Var(&readSize, "read-size", upload.DefaultReadSize, "Source read-slice size in bytes")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 0, "Per-chunk upload attempts (0 retries until interrupted)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Per-request timeout (eg. 30s, 5m)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "KekUpload-Go", "User agent")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Bearer token'); can be specified multiple times")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Directory containing kekup.yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newBatchCmd())
}
