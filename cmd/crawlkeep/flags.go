package main

import (
	"flag"
	"fmt"
	"net/url"
	"time"
)

// cliFlags holds parsed command-line flags for one crawlkeep invocation.
type cliFlags struct {
	databaseURL string
	sessionID   int64
	userAgent   string
	timeout     time.Duration
	rateLimit   float64
	format      string
	outputJSON  bool
	outputCSV   bool
	outputFile  string
	seeds       []string
}

// parseFlags parses args (normally os.Args[1:]) into a cliFlags,
// validating the crawl subcommand and requiring at least one seed URL
// unless --crawl-session-id names a session to resume. Flags may appear
// before, between, or after the seed URLs.
func parseFlags(args []string) (*cliFlags, error) {
	if len(args) < 1 || args[0] != "crawl" {
		return nil, fmt.Errorf("usage: crawlkeep crawl <url>... [flags]")
	}
	args = args[1:]

	fs := flag.NewFlagSet("crawl", flag.ContinueOnError)
	opts := &cliFlags{}
	fs.StringVar(&opts.databaseURL, "database-url", "crawler.db", "path to the SQLite frontier database")
	fs.Int64Var(&opts.sessionID, "crawl-session-id", 0, "resume an existing session id instead of starting a new crawl")
	fs.StringVar(&opts.userAgent, "user-agent", "crawlkeep/1.0 (+https://github.com/lukemcguire/crawlkeep)", "user agent string sent with every request")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	fs.Float64Var(&opts.rateLimit, "rate-limit", 10, "advisory requests/sec across all hosts (0 disables)")
	fs.StringVar(&opts.format, "format", "tui", "progress output format: tui or stdout")
	fs.BoolVar(&opts.outputJSON, "json", false, "write the crawl summary as JSON")
	fs.BoolVar(&opts.outputCSV, "csv", false, "write the crawl summary's failed URLs as CSV")
	fs.StringVar(&opts.outputFile, "output", "", "write JSON/CSV summary to this file instead of stdout")

	var seeds []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		seeds = append(seeds, args[0])
		args = args[1:]
	}

	if opts.outputJSON && opts.outputCSV {
		return nil, fmt.Errorf("--json and --csv are mutually exclusive")
	}
	if opts.format != "tui" && opts.format != "stdout" {
		return nil, fmt.Errorf("--format must be tui or stdout, got %q", opts.format)
	}

	if opts.sessionID == 0 && len(seeds) < 1 {
		return nil, fmt.Errorf("at least one seed url is required unless --crawl-session-id resumes a session")
	}
	for _, s := range seeds {
		parsed, err := url.Parse(s)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("invalid seed url %q: must start with http:// or https://", s)
		}
	}
	opts.seeds = seeds

	return opts, nil
}
