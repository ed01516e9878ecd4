package module

import (
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	"stackscout/internal/platform/config"
)

// Options controls the orchestrator and the worker. Values may also be read from env
type Options struct {
	PageSize   int
	Cooldown   time.Duration
	SweepEvery time.Duration
	JobTTL     time.Duration

	// LeaseName scopes the cross process sweep lease, empty disables it
	LeaseName  string
	LeaseOwner string
	LeaseTTL   time.Duration

	WorkDir         string
	TargetLocale    language.Tag
	CloneTimeout    time.Duration
	AnalyzerTimeout time.Duration
	MetadataTimeout time.Duration

	Concurrency int
	QueueSize   int

	// AnalyzerCommand is the analyzer argv with {dir} and {out} placeholders
	AnalyzerCommand []string
	GitBin          string

	// AdminToken guards the sweep trigger endpoint, empty leaves it open
	AdminToken string
}

// FromConfig reads options using the ANALYSIS_ prefix, plus ANALYZER_COMMAND
func FromConfig(cfg config.Conf) Options {
	a := cfg.Prefix("ANALYSIS_")
	host, _ := os.Hostname()
	if host == "" {
		host = "stackscout"
	}
	return Options{
		PageSize:        a.MayInt("PAGE_SIZE", 50),
		Cooldown:        a.MayDuration("COOLDOWN", 3*time.Minute),
		SweepEvery:      a.MayDuration("SWEEP_EVERY", 6*time.Hour),
		JobTTL:          a.MayDuration("JOB_TTL", 2*time.Hour),
		LeaseName:       a.MayString("LEASE_NAME", "analysis-sweep"),
		LeaseOwner:      a.MayString("LEASE_OWNER", host),
		LeaseTTL:        a.MayDuration("LEASE_TTL", 10*time.Minute),
		WorkDir:         a.MayString("WORKDIR", ""),
		TargetLocale:    a.MayLocale("TARGET_LOCALE", language.SimplifiedChinese),
		CloneTimeout:    a.MayDuration("CLONE_TIMEOUT", 5*time.Minute),
		AnalyzerTimeout: a.MayDuration("ANALYZER_TIMEOUT", 10*time.Minute),
		MetadataTimeout: a.MayDuration("METADATA_TIMEOUT", 30*time.Second),
		Concurrency:     a.MayInt("WORKER_CONCURRENCY", 2),
		QueueSize:       a.MayInt("WORKER_QUEUE", 0),
		AnalyzerCommand: strings.Fields(cfg.MayString("ANALYZER_COMMAND", "")),
		GitBin:          a.MayString("GIT_BIN", "git"),
		AdminToken:      a.MayString("ADMIN_TOKEN", ""),
	}
}
