// SPDX-License-Identifier: GPL-3.0-or-later

// Package cli implements the nntp command line client.
package cli

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bassosimone/nntp"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the nntp command line client.
func Execute() error {
	return newRootCmd().Execute()
}

// rootOptions holds the state shared by all the subcommands.
type rootOptions struct {
	configPath string
	settings   Settings
	verbose    bool
}

// configOptional marks the commands that run without an existing config file.
const configOptional = "nntp:config-optional"

// boundFlags maps persistent flags to configuration keys.
var boundFlags = map[string]string{
	"host":     "host",
	"port":     "port",
	"tls":      "tls",
	"username": "username",
	"proxy":    "proxy",
	"timeout":  "timeout",
	"database": "database",
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "nntp",
		Short:         "Usenet (NNTP) client",
		Long:          "nntp reads newsgroups, fetches articles and headers, decodes yEnc bodies and posts articles over NNTP or NNTP over TLS.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "configuration file (default ~/.config/nntp/config.toml)")
	flags.String("host", "", "news server host name")
	flags.Uint16("port", 0, "news server port (default 119, or 563 with --tls)")
	flags.Bool("tls", false, "use NNTP over TLS")
	flags.String("username", "", "AUTHINFO user name")
	flags.String("proxy", "", "SOCKS5 proxy address (host:port)")
	flags.String("timeout", "", "per-I/O timeout (e.g. 30s)")
	flags.String("database", "", "header database path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log protocol events to stderr")

	rootCmd.AddCommand(
		newConfigCmd(opts),
		newCapabilitiesCmd(opts),
		newDateCmd(opts),
		newHelpCmd(opts),
		newGroupCmd(opts),
		newListGroupCmd(opts),
		newListCmd(opts),
		newXoverCmd(opts),
		newArticleCmd(opts, "article"),
		newArticleCmd(opts, "head"),
		newArticleCmd(opts, "body"),
		newStatCmd(opts),
		newPostCmd(opts),
		newFetchHeadersCmd(opts),
	)
	return rootCmd
}

// load reads the settings, giving precedence to the flags set on the command line.
func (o *rootOptions) load(cmd *cobra.Command) error {
	v := viper.New()
	for name, key := range boundFlags {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}
	_, optional := cmd.Annotations[configOptional]
	settings, err := loadSettings(v, o.configPath, optional)
	if err != nil {
		return err
	}
	o.settings = settings
	return nil
}

// logger returns the [nntp.SLogger] selected by --verbose.
func (o *rootOptions) logger(cmd *cobra.Command) nntp.SLogger {
	if !o.verbose {
		return nntp.DefaultSLogger()
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler)
}

// newConfig builds the [*nntp.Config] from the settings.
func (o *rootOptions) newConfig() (*nntp.Config, error) {
	cfg := nntp.NewConfig()
	timeout, err := o.settings.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	cfg.IOTimeout = timeout
	cfg.TLSConfig = &tls.Config{InsecureSkipVerify: o.settings.InsecureSkipVerify}
	if o.settings.Proxy != "" {
		dialer, err := nntp.NewSOCKS5Dialer(o.settings.Proxy, "", "")
		if err != nil {
			return nil, err
		}
		cfg.Dialer = dialer
	}
	return cfg, nil
}

// endpoint returns the server [nntp.Endpoint] from the settings.
func (o *rootOptions) endpoint() (nntp.Endpoint, error) {
	if o.settings.Host == "" {
		return nntp.Endpoint{}, fmt.Errorf("no server configured: use --host or run 'nntp config init'")
	}
	return nntp.NewEndpoint(o.settings.Host, o.settings.Port, o.settings.TLS), nil
}

// commandContext returns a context cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// connect opens an authenticated session: AUTHINFO when a username is
// configured, MODE READER otherwise.
func (o *rootOptions) connect(ctx context.Context, cmd *cobra.Command) (*nntp.Session, error) {
	endpoint, err := o.endpoint()
	if err != nil {
		return nil, err
	}
	cfg, err := o.newConfig()
	if err != nil {
		return nil, err
	}
	session := nntp.NewSession(cfg, o.logger(cmd))
	if err := session.Connect(ctx, endpoint); err != nil {
		return nil, err
	}
	if o.settings.Username != "" {
		err = session.Login(ctx, o.settings.Username, o.settings.Password)
	} else {
		err = session.ModeReader(ctx)
	}
	if err != nil {
		session.Disconnect(ctx)
		return nil, err
	}
	return session, nil
}

// withSession runs fn with an authenticated session and disconnects afterwards.
func (o *rootOptions) withSession(cmd *cobra.Command, fn func(ctx context.Context, session *nntp.Session) error) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	session, err := o.connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.Disconnect(ctx)
	return fn(ctx, session)
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	keyColor     = color.New(color.FgYellow)
	warnColor    = color.New(color.FgRed)
)
