package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wheelhouse/internal/artifact"
	"wheelhouse/internal/journal"
	"wheelhouse/internal/logging"
	"wheelhouse/internal/pip"
	"wheelhouse/internal/wheelcache"
)

// Tier identifies which resolution path satisfied an artifact.
type Tier int

const (
	// TierSkipped means the caller reported the artifact as already present.
	TierSkipped Tier = iota
	// TierCache installed from a wheel already in the cache directory.
	TierCache
	// TierFetch downloaded into the cache and installed from the new wheel.
	TierFetch
	// TierDirect installed straight from the index without caching.
	TierDirect
)

func (t Tier) String() string {
	switch t {
	case TierSkipped:
		return "skipped"
	case TierCache:
		return "cache"
	case TierFetch:
		return "fetch"
	case TierDirect:
		return "direct"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// PackageManager is the subset of pip the installer drives.
type PackageManager interface {
	Download(ctx context.Context, requirement, dest string, opts pip.Options) error
	Install(ctx context.Context, target string, opts pip.Options) error
}

// Recorder receives every Ensure outcome.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Request describes one artifact to make available.
type Request struct {
	Artifact artifact.Artifact
	// IndexURL overrides both the artifact's and the installer's index.
	IndexURL string
	// AlreadyPresent is the caller's precondition that the package imports.
	AlreadyPresent bool
}

// Result reports how an artifact was satisfied.
type Result struct {
	Artifact  artifact.Artifact
	Tier      Tier
	WheelPath string
	Duration  time.Duration
}

// Option configures the installer.
type Option func(*Installer)

// WithCache enables the cache tiers. A nil cache installs directly.
func WithCache(cache *wheelcache.Cache) Option {
	return func(i *Installer) {
		i.cache = cache
	}
}

// WithIndexURL sets the default package index.
func WithIndexURL(url string) Option {
	return func(i *Installer) {
		i.indexURL = strings.TrimSpace(url)
	}
}

// WithStrictOffline makes cache hits install with --no-index.
func WithStrictOffline(strict bool) Option {
	return func(i *Installer) {
		i.strictOffline = strict
	}
}

// WithRecorder attaches an outcome recorder such as the install journal.
func WithRecorder(recorder Recorder) Option {
	return func(i *Installer) {
		i.recorder = recorder
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) {
		i.logger = logging.NewComponentLogger(logger, "installer")
	}
}

// Installer resolves artifacts through cache hit, fetch then install, and
// direct install, in that order.
type Installer struct {
	pm            PackageManager
	cache         *wheelcache.Cache
	indexURL      string
	strictOffline bool
	recorder      Recorder
	logger        *slog.Logger
	now           func() time.Time
}

// New constructs an installer around a package manager.
func New(pm PackageManager, opts ...Option) (*Installer, error) {
	if pm == nil {
		return nil, errors.New("package manager required")
	}
	inst := &Installer{
		pm:     pm,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst, nil
}

// CacheEnabled reports whether the cache tiers are active.
func (i *Installer) CacheEnabled() bool {
	return i.cache != nil
}

// Ensure makes the artifact installed. Install failures are returned wrapped
// with the artifact name; a failed fetch falls through to a direct install.
func (i *Installer) Ensure(ctx context.Context, req Request) (Result, error) {
	art := req.Artifact
	if strings.TrimSpace(art.Name) == "" {
		return Result{}, errors.New("artifact name required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := i.now()
	logger := logging.WithContext(ctx, i.logger).With(logging.String(logging.FieldArtifact, art.String()))

	result, err := i.resolve(ctx, logger, req)
	result.Artifact = art
	result.Duration = i.now().Sub(start)
	i.record(ctx, logger, result, err)

	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		logging.ErrorWithContext(logger, "artifact install failed", "install_failed",
			logging.String(logging.FieldTier, result.Tier.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the pip output above and retry"),
		)
		return result, fmt.Errorf("install %s: %w", art.Name, err)
	}

	logger.Info("artifact ready",
		logging.String(logging.FieldEventType, "artifact_ready"),
		logging.String(logging.FieldTier, result.Tier.String()),
		logging.String("wheel", result.WheelPath),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (i *Installer) resolve(ctx context.Context, logger *slog.Logger, req Request) (Result, error) {
	art := req.Artifact
	if req.AlreadyPresent {
		logger.Debug("artifact already present", logging.String(logging.FieldEventType, "artifact_skipped"))
		return Result{Tier: TierSkipped}, nil
	}
	indexURL := i.indexFor(req)

	if i.cache != nil {
		entry, hit, err := i.cache.Lookup(art)
		if err != nil {
			logging.WarnWithContext(logger, "cache lookup failed", "cache_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "artifact will be fetched from the network"),
			)
		}
		if hit {
			logger.Info("cache hit",
				logging.String(logging.FieldEventType, "cache_hit"),
				logging.String("wheel", entry.Path))
			opts := pip.Options{FindLinks: i.cache.Dir(), NoIndex: i.strictOffline}
			if !i.strictOffline {
				opts.IndexURL = indexURL
			}
			target, wheelPath := i.cachedTarget(logger, art, entry)
			return Result{Tier: TierCache, WheelPath: wheelPath}, i.pm.Install(ctx, target, opts)
		}

		entry, fetched, fresh, err := i.fetch(ctx, art, indexURL)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Tier: TierFetch}, ctx.Err()
			}
			logging.WarnWithContext(logger, "fetch into cache failed", "fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check network access and the index URL"),
				logging.String(logging.FieldImpact, "installing directly without caching"),
			)
		} else if fetched {
			logger.Info("fetched into cache",
				logging.String(logging.FieldEventType, "cache_fetch"),
				logging.String("wheel", entry.Path))
			opts := pip.Options{FindLinks: i.cache.Dir(), IndexURL: indexURL}
			target, wheelPath := entry.Path, entry.Path
			if !fresh {
				target, wheelPath = i.cachedTarget(logger, art, entry)
			}
			return Result{Tier: TierFetch, WheelPath: wheelPath}, i.pm.Install(ctx, target, opts)
		} else {
			logger.Info("fetch produced no wheel",
				logging.String(logging.FieldEventType, "fetch_no_wheel"))
		}
	}

	return Result{Tier: TierDirect}, i.pm.Install(ctx, art.Requirement, pip.Options{IndexURL: indexURL})
}

// fetch downloads the artifact into the cache and selects its wheel. fresh
// reports whether the selected wheel was written by this download.
func (i *Installer) fetch(ctx context.Context, art artifact.Artifact, indexURL string) (entry wheelcache.Entry, ok, fresh bool, err error) {
	before, err := i.cache.Snapshot()
	if err != nil {
		return wheelcache.Entry{}, false, false, err
	}
	if err := i.pm.Download(ctx, art.Requirement, i.cache.Dir(), pip.Options{IndexURL: indexURL}); err != nil {
		return wheelcache.Entry{}, false, false, err
	}
	entry, ok, err = i.cache.SelectFetched(art, before)
	if err != nil || !ok {
		return entry, ok, false, err
	}
	_, seen := before[entry.Name()]
	return entry, true, !seen, nil
}

// cachedTarget returns the pip install target for a cached entry and the
// wheel path to report. With several candidate wheels in the cache (one per
// interpreter or platform tag) the requirement is installed against
// --find-links so pip picks the compatible file.
func (i *Installer) cachedTarget(logger *slog.Logger, art artifact.Artifact, entry wheelcache.Entry) (string, string) {
	candidates, err := i.cache.Candidates(art)
	if err != nil || len(candidates) <= 1 {
		return entry.Path, entry.Path
	}
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name())
	}
	logger.Info("several cached wheels match; pip selects by tag",
		logging.String(logging.FieldEventType, "cache_ambiguous"),
		logging.String("candidates", strings.Join(names, ", ")))
	return art.Requirement, ""
}

func (i *Installer) indexFor(req Request) string {
	if url := strings.TrimSpace(req.IndexURL); url != "" {
		return url
	}
	if url := strings.TrimSpace(req.Artifact.IndexURL); url != "" {
		return url
	}
	return i.indexURL
}

func (i *Installer) record(ctx context.Context, logger *slog.Logger, result Result, err error) {
	if i.recorder == nil {
		return
	}
	runID, _ := logging.RunIDFromContext(ctx)
	entry := journal.Entry{
		RunID:     runID,
		Artifact:  result.Artifact.String(),
		Tier:      result.Tier.String(),
		WheelPath: result.WheelPath,
		Success:   err == nil,
		Duration:  result.Duration,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	// The journal write must survive a cancelled run.
	if recErr := i.recorder.Record(context.WithoutCancel(ctx), entry); recErr != nil {
		logging.WarnWithContext(logger, "journal write failed", "journal_write_failed",
			logging.Error(recErr),
			logging.String(logging.FieldImpact, "install history will be incomplete"),
		)
	}
}
