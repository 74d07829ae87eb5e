package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/picktoss/internal/config"
)

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd, closeApp := newRootCommand(config.Load, streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr})
	err := rootCmd.ExecuteContext(ctx)
	if err := errors.Join(err, closeApp(ctx)); err != nil {
		fmt.Fprintf(os.Stderr, "picktoss: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. The returned func releases the app
// the command built and must run after Execute, whether or not it failed.
func newRootCommand(loadConfig func() (*config.Config, error), s streams) (*cobra.Command, func(context.Context) error) {
	var (
		a        *app
		apiURL   string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "picktoss",
		Short: "Organize Markdown notes into categories and read your daily quiz",
		Long: `picktoss uploads Markdown documents into categories and shows the quiz the
server generates from them every day.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.APIBaseURL = apiURL
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			a, err = newApp(cmd.Context(), cfg, s)
			return err
		},
	}
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Override PICKTOSS_API_URL")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override PICKTOSS_LOG_LEVEL")

	get := func() *app { return a }
	cmd.AddCommand(
		newCategoryCmd(get),
		newDocCmd(get),
		newQuizCmd(get),
		newUserCmd(get),
		newPayCmd(get),
		newAuthCmd(get),
		newSyncCmd(get),
	)
	closeApp := func(ctx context.Context) error {
		if a == nil {
			return nil
		}
		err := a.close(ctx)
		a = nil
		return err
	}
	return cmd, closeApp
}
