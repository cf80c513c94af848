package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/okian/podium/internal/loadgen"
	"github.com/okian/podium/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := loadgen.DefaultConfig()
	var (
		baseURL     = flag.String("url", def.BaseURL, "Base URL of the service")
		submissions = flag.Int("n", def.Submissions, "Number of scores to submit")
		categories  = flag.String("difficulties", strings.Join(def.Categories, ","), "Comma-separated difficulties")
		topN        = flag.Int("top", def.TopN, "Board size the server is configured with")
		workers     = flag.Int("workers", def.Workers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		seed        = flag.Int64("seed", 0, "Faker seed (0 picks one from the clock)")
		verbose     = flag.Bool("verbose", false, "Log every failed request")
		logFormat   = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := loadgen.Config{
		BaseURL:     strings.TrimRight(*baseURL, "/"),
		Submissions: *submissions,
		Categories:  splitList(*categories),
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		Seed:        *seed,
		Verbose:     *verbose,
		Logger:      logger.Named("loadgen"),
	}

	if _, err := loadgen.Run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
