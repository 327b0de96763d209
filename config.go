/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/memorybox/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	celebration    time.Duration
	images         string
	mismatchDelay  time.Duration
	pairs          int
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tick           time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	keys []string
	rand memory.Rand
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return ErrTLSPair
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("%w (must be between 1-65535 inclusive): %d", ErrInvalidPort, c.port)
	}
	if c.pairs < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPairs, c.pairs)
	}
	for name, d := range map[string]time.Duration{
		"--celebration":    c.celebration,
		"--mismatch-delay": c.mismatchDelay,
		"--tick":           c.tick,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s %s", ErrInvalidDuration, name, d)
		}
	}

	// zero disables reaping
	if c.sessionTimeout < 0 || (c.sessionTimeout > 0 && c.sessionTimeout < minReapInterval) {
		return fmt.Errorf("%w: --session-timeout %s (0 or at least %s)", ErrInvalidDuration, c.sessionTimeout, minReapInterval)
	}

	c.prefix = strings.TrimSuffix(c.prefix, "/")

	keys, err := pairKeys(c)
	if err != nil {
		return err
	}
	c.keys = keys

	return memory.ValidateKeys(c.keys)
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) gameOptions() memory.Options {
	return memory.Options{
		MismatchDelay:      c.mismatchDelay,
		CompletionDuration: c.celebration,
		TickInterval:       c.tick,
		Rand:               c.rand,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MEMORYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "memorybox",
		Short:         "A memory matching card game, served as a single self-contained webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MEMORYBOX_BIND)")
	fs.DurationVar(&cfg.celebration, "celebration", memory.DefaultCompletionDuration, "length of the completion animation (env: MEMORYBOX_CELEBRATION)")
	fs.StringVarP(&cfg.images, "images", "i", "", "directory of card images, one per pair (env: MEMORYBOX_IMAGES)")
	fs.DurationVar(&cfg.mismatchDelay, "mismatch-delay", memory.DefaultMismatchDelay, "time before a mismatched pair flips back on its own (env: MEMORYBOX_MISMATCH_DELAY)")
	fs.IntVarP(&cfg.pairs, "pairs", "n", 15, "number of pairs in each deck (env: MEMORYBOX_PAIRS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MEMORYBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MEMORYBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MEMORYBOX_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: MEMORYBOX_SESSION_TIMEOUT)")
	fs.DurationVar(&cfg.tick, "tick", memory.DefaultTickInterval, "how often the game clock is refreshed (env: MEMORYBOX_TICK)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MEMORYBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MEMORYBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MEMORYBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MEMORYBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("memorybox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
