package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/replyrelay/internal/config"
	"github.com/joshsymonds/replyrelay/internal/forward"
	"github.com/joshsymonds/replyrelay/internal/gmail"
	"github.com/joshsymonds/replyrelay/internal/quote"
	"github.com/joshsymonds/replyrelay/internal/rate"
	"github.com/joshsymonds/replyrelay/internal/relay"
	"github.com/joshsymonds/replyrelay/internal/runtime"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "replyrelay",
		Short:         "Forward Gmail replies to an HTTP API",
		Long:          "Polls a mailbox for unhandled mail, posts sender, subject and reply text to an API, then labels the mail as handled.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "optional YAML config file")
	pf.String("inbox", "", "mailbox owner to impersonate (INBOX)")
	pf.String("auth-mode", "service-account", "service-account, or local (gmailctl token; labels command only)")
	pf.String("service-account-file", "service-account-key.json", "service account JSON key")
	pf.String("gmailctl-dir", "", "gmailctl auth directory for --auth-mode=local")
	pf.Int("rps", 4, "max Gmail requests per second (0 disables limiting)")
	pf.String("log-level", "info", "debug, info, warn or error")

	root.AddCommand(newRunCmd(), newLabelsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every unhandled matching message once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			return runRelay(cmd, cfg)
		},
	}
	f := cmd.Flags()
	f.String("gmail-query", "", "Gmail search filter (GMAIL_QUERY)")
	f.String("handled-label-name", "", "label marking processed mail (HANDLED_LABEL_NAME)")
	f.String("handled-label-id", "", "id of the handled label; looked up or created when empty")
	f.String("api-endpoint", "", "URL receiving the JSON payload (API_ENDPOINT)")
	f.Duration("api-timeout", 0, "timeout for each API request (0 uses no timeout)")
	f.Int("page-size", 500, "Gmail list page size (<=500)")
	f.Bool("continue-on-error", false, "skip failing messages instead of stopping the run")
	f.Bool("dry-run", false, "fetch and parse only; skip forwarding and relabeling")
	return cmd
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List mailbox labels and their ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			client, err := newClient(cmd, cfg)
			if err != nil {
				return err
			}
			labels, err := client.ListLabels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list labels: %w", err)
			}
			return printLabels(cmd, labels)
		},
	}
}

func loadConfig(cmd *cobra.Command, forwarding bool) (config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(forwarding); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newClient(cmd *cobra.Command, cfg config.Config) (gmail.Client, error) {
	client, err := runtime.NewGmailClient(cmd.Context(), runtime.AuthConfig{
		Mode:        runtime.AuthMode(cfg.AuthMode),
		KeyFile:     cfg.KeyFile,
		Subject:     cfg.Inbox,
		GmailctlDir: cfg.GmailctlDir,
	})
	if err != nil {
		return nil, fmt.Errorf("create gmail client: %w", err)
	}
	return client, nil
}

func runRelay(cmd *cobra.Command, cfg config.Config) error {
	level, _ := cfg.Level()
	logger := runtime.NewLogger(level)

	client, err := newClient(cmd, cfg)
	if err != nil {
		return err
	}

	var limiter rate.Limiter = rate.Unlimited{}
	if cfg.RPS > 0 {
		bucket := rate.NewTokenBucket(cfg.RPS)
		defer bucket.Stop()
		limiter = bucket
	}

	quotes := quote.NewHeuristic()
	fwd := forward.New(forward.Config{
		Endpoint:      cfg.APIEndpoint,
		Authorization: cfg.APIAuthorization,
		Timeout:       cfg.APITimeout,
	}, nil, quotes)

	svc := relay.NewService(client, fwd, quotes, limiter, logger)
	spec := relay.Spec{
		Filter:          cfg.Query,
		HandledLabel:    cfg.HandledLabelName,
		HandledID:       gmail.LabelID(cfg.HandledLabelID),
		PageSize:        cfg.PageSize,
		DryRun:          cfg.DryRun,
		ContinueOnError: cfg.ContinueOnError,
	}
	if _, err := svc.Run(cmd.Context(), spec); err != nil {
		return fmt.Errorf("run relay: %w", err)
	}
	return nil
}

func printLabels(cmd *cobra.Command, labels []gmail.Label) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE")
	for _, l := range labels {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Name, l.Type)
	}
	return w.Flush()
}
