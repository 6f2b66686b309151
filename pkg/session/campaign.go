package session

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/wardenlabs/bruteloom/pkg/creds"
	"github.com/wardenlabs/bruteloom/pkg/plugin"
	"github.com/wardenlabs/bruteloom/pkg/scheduler"
)

// Campaign is a parsed, ready-to-run argv: a scheduler configuration plus the
// bookkeeping fields a Session records about how it was started.
type Campaign struct {
	SchedulerConfig scheduler.Config
	PluginID        string
	TargetSpec      string
	SearchSpaceSize uint64
}

// ParseArgv parses a plugin-id-first, POSIX-long-option argv into a Campaign.
// argv[0] is the plugin id; the remainder may only hold the common
// dimension, target, concurrency, timeout, retry and rate flags every plugin
// accepts. Plugin-specific options are not read from argv: an unknown flag is
// a parse failure, and the plugin's options are its NewOptions value after
// Validate. Parse failures and unknown plugin ids are UserErrors (surfaced
// as 400).
func ParseArgv(argv []string, registry *plugin.Registry) (*Campaign, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty argv", ErrUserError)
	}

	pluginID := argv[0]
	p, err := registry.Lookup(pluginID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserError, err)
	}

	fs := pflag.NewFlagSet(pluginID, pflag.ContinueOnError)
	username := fs.String("username", "", "single username to try")
	usernames := fs.String("usernames", "", "path to a username wordlist")
	password := fs.String("password", "", "single password to try")
	passwords := fs.String("passwords", "", "path to a password wordlist")
	target := fs.String("target", "", "target spec: host[:port], CIDR, host range, or comma list")
	concurrency := fs.Int("concurrency", 10, "number of concurrent workers (W)")
	timeout := fs.Duration("timeout", 5*time.Second, "per-attempt deadline (T)")
	retries := fs.Int("retries", 2, "retry budget for transient errors (R)")
	rps := fs.Float64("rate", 0, "token-bucket rate limit in attempts/sec, 0 = unlimited")

	if err := fs.Parse(argv[1:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserError, err)
	}

	if *target == "" {
		return nil, fmt.Errorf("%w: --target is required", ErrUserError)
	}

	usernameIter, err := dimensionIterator(*username, *usernames, "username")
	if err != nil {
		return nil, err
	}
	passwordIter, err := dimensionIterator(*password, *passwords, "password")
	if err != nil {
		return nil, err
	}

	targets, err := creds.ExpandTargets(*target, p.DefaultPort())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserError, err)
	}

	opts := p.NewOptions()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserError, err)
	}

	searchSpace := usernameIter.SearchSpaceSize() * passwordIter.SearchSpaceSize() * uint64(len(targets))

	return &Campaign{
		PluginID:        pluginID,
		TargetSpec:      *target,
		SearchSpaceSize: searchSpace,
		SchedulerConfig: scheduler.Config{
			Plugin:         p,
			Options:        opts,
			Usernames:      usernameIter,
			Passwords:      passwordIter,
			Targets:        targets,
			Concurrency:    *concurrency,
			AttemptTimeout: *timeout,
			Retries:        *retries,
			RatePerSecond:  *rps,
		},
	}, nil
}

func dimensionIterator(single, wordlistPath, name string) (creds.Iterator, error) {
	switch {
	case wordlistPath != "":
		return creds.NewWordlist(wordlistPath), nil
	case single != "":
		return creds.NewConstant(single), nil
	default:
		return nil, fmt.Errorf("%w: one of --%s or --%ss is required", ErrUserError, name, name)
	}
}
