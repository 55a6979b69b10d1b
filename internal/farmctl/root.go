// Package farmctl is the command line front end of farmai. It drives the
// backend through internal/client the same way the web client does and can
// also score a site locally or follow the event stream.
package farmctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LeonardoBeccarini/farmai/internal/client"
	"github.com/LeonardoBeccarini/farmai/internal/config"
)

// Output formats accepted by --format.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// NewRootCmd builds the farmctl command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "farmctl",
		Short: "Analyze farm parcels from the command line",
		Long: `farmctl talks to the farmai API to analyze a parcel, run the
remediation, procurement and finance agents, chat with the agronomist and
browse the analysis history.

The API address comes from --api, then FARMAI_API_URL, then
http://localhost:8000.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var logCfg config.Logging
			if err := config.Load(&logCfg); err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				logCfg.Level = "debug"
			}
			config.SetupLogging(logCfg)
			logrus.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().String("api", "", "farmai API base URL")
	cmd.PersistentFlags().Duration("timeout", 2*time.Minute, "timeout of each API call")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewSwarmCmd(),
		NewChatCmd(),
		NewGeocodeCmd(),
		NewScoreCmd(),
		NewPlanCmd(),
		NewRecommendCmd(),
		NewHistoryCmd(),
		NewWatchCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// apiClient builds the backend client from the persistent flags.
func apiClient(cmd *cobra.Command) *client.Client {
	base, _ := cmd.Flags().GetString("api")
	if base == "" {
		base = os.Getenv("FARMAI_API_URL")
	}
	return client.New(base, nil)
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// commandContext also ends after --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signalContext(cmd)
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() { cancel(); stop() }
}

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", FormatText, "output format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "", "write the output to a file (creates directories if needed)")
}

func formatFlag(cmd *cobra.Command) (string, error) {
	f, _ := cmd.Flags().GetString("format")
	switch f {
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or markdown)", f)
}

// outputWriter returns stdout, or the --output file and its closer.
func outputWriter(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
