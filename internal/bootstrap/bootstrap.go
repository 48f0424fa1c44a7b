package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"wheelhouse/internal/config"
	"wheelhouse/internal/console"
	"wheelhouse/internal/deps"
	"wheelhouse/internal/fonts"
	"wheelhouse/internal/gpu"
	"wheelhouse/internal/i18n"
	"wheelhouse/internal/installer"
	"wheelhouse/internal/logging"
	"wheelhouse/internal/manifest"
	"wheelhouse/internal/pip"
	"wheelhouse/internal/preflight"
)

// ErrPreflight reports filesystem checks that failed before any install.
var ErrPreflight = errors.New("preflight checks failed")

// KVStore is the application config the display language is written to.
type KVStore interface {
	Set(key string, value any) error
}

// PackageManager is the pip surface the sequence needs beyond the installer.
type PackageManager interface {
	InstallRequirements(ctx context.Context, file string, opts pip.Options) error
	CanImport(ctx context.Context, module string) (bool, error)
}

// Ensurer resolves one artifact.
type Ensurer interface {
	Ensure(ctx context.Context, req installer.Request) (installer.Result, error)
}

// FontInstaller installs Noto fonts.
type FontInstaller interface {
	Applies() bool
	Install(ctx context.Context) (fonts.Plan, error)
}

// Locker guards the wheel cache for the duration of a run.
type Locker interface {
	Lock() (func(), error)
}

// Sequence holds the collaborators of one bootstrap run.
type Sequence struct {
	Config    *config.Config
	Manifest  *manifest.Manifest
	Installer Ensurer
	Pip       PackageManager
	GPU       gpu.Detector
	Fonts     FontInstaller
	KV        KVStore
	Console   *console.Console
	// Lock is nil when no wheel cache is configured.
	Lock   Locker
	Logger *slog.Logger
	// FFmpeg reports ffmpeg availability; deps.CheckFFmpeg when nil.
	FFmpeg func() deps.Status
	// Preflight runs filesystem checks; preflight.RunAll when nil.
	Preflight func(ctx context.Context, cfg *config.Config) []preflight.Result
	// GOOS overrides runtime.GOOS.
	GOOS string
}

// Failure is a non-fatal step failure kept for the report.
type Failure struct {
	Step     string
	Artifact string
	Err      error
}

// Report summarizes one run.
type Report struct {
	RunID    string
	GPU      gpu.Info
	Torch    string
	Results  []installer.Result
	Failures []Failure
	FFmpeg   deps.Status
}

// Run executes the full sequence: banner, display language, mirror, bootstrap
// packages, PyTorch, fonts, requirements, ffmpeg, completion panels.
func (s *Sequence) Run(ctx context.Context) (*Report, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	report := &Report{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "bootstrap"))
	out := s.Console
	cfg := s.Config

	logger.Info("bootstrap started",
		logging.String(logging.FieldEventType, "bootstrap_start"),
		logging.Bool("cache_enabled", cfg.CacheEnabled()),
		logging.String("cache_dir", cfg.Paths.CacheDir),
		logging.String("manifest", s.Manifest.Source))

	if err := s.preflight(ctx, logger); err != nil {
		return report, err
	}
	if s.Lock != nil {
		unlock, err := s.Lock.Lock()
		if err != nil {
			return report, err
		}
		defer unlock()
	}

	out.Banner()
	s.setLanguage(logger)
	out.Panel(console.KindHeading, out.T(i18n.MsgStartingInstallation))
	if url := strings.TrimSpace(cfg.Python.IndexURL); url != "" {
		out.Panel(console.KindInfo, out.Tf(i18n.MsgMirrorConfigured, url))
	} else {
		out.Panel(console.KindInfo, out.T(i18n.MsgMirrorSkipped))
	}

	out.Panel(console.KindHeading, out.T(i18n.MsgBootstrapPackages))
	if err := s.installGroup(ctx, report, manifest.GroupBootstrap); err != nil {
		return report, err
	}

	if err := s.installTorch(ctx, logger, report); err != nil {
		out.Panel(console.KindError, out.Tf(i18n.MsgTorchFailed, err.Error()))
		return report, err
	}

	s.installFonts(ctx)

	if err := s.installRequirements(ctx, report); err != nil {
		out.Panel(console.KindError, out.Tf(i18n.MsgRequirementsFailed, err.Error()))
		report.Failures = append(report.Failures, Failure{Step: "requirements", Err: err})
		if !cfg.Requirements.ContinueOnError {
			return report, err
		}
		logging.WarnWithContext(logger, "requirements step failed", "requirements_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "continuing to the ffmpeg check"),
		)
	}

	report.FFmpeg = s.checkFFmpeg()
	if !report.FFmpeg.Available {
		s.ffmpegPanel(report.FFmpeg)
		logging.ErrorWithContext(logger, "ffmpeg missing", "ffmpeg_missing",
			logging.String(logging.FieldErrorHint, report.FFmpeg.Remediation))
		return report, fmt.Errorf("%s: %w", out.T(i18n.MsgFFmpegRequired), deps.ErrFFmpegMissing)
	}
	out.Panel(console.KindSuccess, out.T(i18n.MsgFFmpegPresent))

	s.completionPanels()
	logger.Info("bootstrap finished",
		logging.String(logging.FieldEventType, "bootstrap_complete"),
		logging.Int("artifacts", len(report.Results)),
		logging.Int("failures", len(report.Failures)))
	return report, nil
}

func (s *Sequence) validate() error {
	switch {
	case s.Config == nil:
		return errors.New("bootstrap: config required")
	case s.Manifest == nil:
		return errors.New("bootstrap: manifest required")
	case s.Installer == nil:
		return errors.New("bootstrap: installer required")
	case s.Pip == nil:
		return errors.New("bootstrap: package manager required")
	case s.Console == nil:
		return errors.New("bootstrap: console required")
	}
	return nil
}

func (s *Sequence) goos() string {
	if s.GOOS != "" {
		return s.GOOS
	}
	return runtime.GOOS
}

func (s *Sequence) preflight(ctx context.Context, logger *slog.Logger) error {
	run := s.Preflight
	if run == nil {
		run = preflight.RunAll
	}
	results := run(ctx, s.Config)
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		summary := preflight.Summary(results)
		s.Console.Panel(console.KindError, summary)
		logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
			logging.String("detail", summary),
			logging.String(logging.FieldErrorHint, "mount the drive or fix the cache directory, then rerun"))
		return fmt.Errorf("%w: %s", ErrPreflight, summary)
	}
	return nil
}

func (s *Sequence) setLanguage(logger *slog.Logger) {
	lang := s.Config.Display.Language
	if s.KV == nil || lang == "" {
		return
	}
	if err := s.KV.Set("display_language", lang); err != nil {
		logging.WarnWithContext(logger, "display language not saved", "kv_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "application starts in its default language"))
		s.Console.Panel(console.KindWarn, err.Error())
		return
	}
	s.Console.Panel(console.KindHeading, s.Console.Tf(i18n.MsgLanguageSet, lang))
}

// installGroup ensures every artifact of a group in order and stops at the
// first failure.
func (s *Sequence) installGroup(ctx context.Context, report *Report, name string) error {
	group, ok := s.Manifest.Group(name)
	if !ok {
		return fmt.Errorf("manifest group %q not found", name)
	}
	return s.ensureGroup(ctx, report, group)
}

func (s *Sequence) ensureGroup(ctx context.Context, report *Report, group manifest.Group) error {
	items, err := group.Items()
	if err != nil {
		return err
	}
	for _, item := range items {
		present := false
		if item.Import != "" {
			if present, err = s.Pip.CanImport(ctx, item.Import); err != nil {
				return err
			}
		}
		result, err := s.Installer.Ensure(ctx, installer.Request{Artifact: item.Artifact, AlreadyPresent: present})
		report.Results = append(report.Results, result)
		if err != nil {
			s.Console.Panel(console.KindError, s.Console.Tf(i18n.MsgInstallFailed, item.Artifact.Name, err.Error()))
			return err
		}
		s.resultPanel(result)
	}
	return nil
}

func (s *Sequence) resultPanel(result installer.Result) {
	name := result.Artifact.Requirement
	switch result.Tier {
	case installer.TierSkipped:
		s.Console.Panel(console.KindSuccess, s.Console.Tf(i18n.MsgAlreadyPresent, name))
	case installer.TierCache:
		s.Console.Panel(console.KindInfo, s.Console.Tf(i18n.MsgInstalledFromCache, name))
	case installer.TierFetch:
		s.Console.Panel(console.KindSuccess, s.Console.Tf(i18n.MsgFetchedIntoCache, name))
	default:
		s.Console.Panel(console.KindWarn, s.Console.Tf(i18n.MsgInstalledDirect, name))
	}
}

// TorchVariant decides between the CUDA and CPU builds. "cpu" skips GPU
// detection. "cuda" still detects so callers can flag a host without a GPU;
// the forced variant wins either way.
func TorchVariant(ctx context.Context, variant string, detector gpu.Detector) (bool, gpu.Info) {
	switch variant {
	case "cuda":
		var info gpu.Info
		if detector != nil {
			info = detector.Detect(ctx)
		}
		info.Detail = "forced by torch.variant"
		return true, info
	case "cpu":
		return false, gpu.Info{Detail: "forced by torch.variant"}
	}
	if detector == nil {
		return false, gpu.Info{Detail: "no detector"}
	}
	info := detector.Detect(ctx)
	return info.Available && info.Count > 0, info
}

func (s *Sequence) installTorch(ctx context.Context, logger *slog.Logger, report *Report) error {
	out := s.Console
	cuda, info := TorchVariant(ctx, s.Config.Torch.Variant, s.GPU)
	report.GPU = info
	group, ok := s.Manifest.TorchGroup(cuda)
	if !ok {
		return errors.New("torch group missing from manifest")
	}
	report.Torch = group.Name
	logger.Info("torch variant selected",
		logging.String(logging.FieldEventType, "torch_variant"),
		logging.String("group", group.Name),
		logging.Int("gpu_count", info.Count),
		logging.String("detail", info.Detail))
	if cuda && info.Count == 0 {
		logging.WarnWithContext(logger, "CUDA build forced without a detected GPU", "torch_variant_override",
			logging.String(logging.FieldImpact, "torch will install but CUDA calls fail on this host"),
			logging.String(logging.FieldErrorHint, "set torch.variant = \"auto\" unless the GPU is attached later"))
		out.Line(console.KindWarn, "torch.variant = \"cuda\" but no NVIDIA GPU was detected")
	}

	if group.ImportCheck != "" {
		present, err := s.Pip.CanImport(ctx, group.ImportCheck)
		if err != nil {
			return err
		}
		if present {
			out.Panel(console.KindSuccess, out.T(i18n.MsgTorchPresent))
			return nil
		}
	}

	switch {
	case cuda:
		out.Panel(console.KindInfo, out.T(i18n.MsgGPUDetected))
		for i, name := range info.Names {
			out.Line(console.KindInfo, fmt.Sprintf("GPU %d: %s", i, name))
		}
	case s.goos() == "darwin":
		out.Panel(console.KindWarn, out.T(i18n.MsgMacOSDetected))
	default:
		out.Panel(console.KindWarn, out.T(i18n.MsgNoGPU))
	}
	return s.ensureGroup(ctx, report, group)
}

func (s *Sequence) installFonts(ctx context.Context) {
	if !s.Config.Fonts.Enabled || s.Fonts == nil || !s.Fonts.Applies() {
		return
	}
	plan, err := s.Fonts.Install(ctx)
	switch {
	case errors.Is(err, fonts.ErrUnknownDistro):
		s.Console.Line(console.KindWarn, s.Console.T(i18n.MsgFontsUnknownDistro))
	case err != nil:
		s.Console.Line(console.KindError, s.Console.T(i18n.MsgFontsFailed))
	default:
		s.Console.Line(console.KindSuccess, s.Console.Tf(i18n.MsgFontsInstalled, plan.Manager))
	}
}

func (s *Sequence) installRequirements(ctx context.Context, report *Report) error {
	if file := strings.TrimSpace(s.Config.Requirements.File); file != "" {
		s.Console.Panel(console.KindInfo, s.Console.Tf(i18n.MsgRequirementsFile, file))
		return s.Pip.InstallRequirements(ctx, file, pip.Options{IndexURL: s.Config.Python.IndexURL})
	}
	s.Console.Panel(console.KindHeading, s.Console.T(i18n.MsgRequirements))
	return s.installGroup(ctx, report, manifest.GroupRequirements)
}

func (s *Sequence) checkFFmpeg() deps.Status {
	if s.FFmpeg != nil {
		return s.FFmpeg()
	}
	return deps.CheckFFmpeg(s.Config.FFmpegBinary())
}

func (s *Sequence) ffmpegPanel(status deps.Status) {
	out := s.Console
	var b strings.Builder
	b.WriteString(out.T(i18n.MsgFFmpegMissing))
	b.WriteString("\n\n")
	b.WriteString(out.T(i18n.MsgInstallUsing))
	b.WriteString("\n")
	b.WriteString(status.Remediation)
	b.WriteString("\n\n")
	b.WriteString(out.T(i18n.MsgRerunInstaller))
	b.WriteString("\nwheelhouse bootstrap")
	out.Panel(console.KindError, b.String())
}

func (s *Sequence) completionPanels() {
	out := s.Console
	out.Panel(console.KindSuccess, strings.Join([]string{
		out.T(i18n.MsgInstallCompleted),
		"",
		out.T(i18n.MsgStartCommand),
		"streamlit run st.py",
		out.T(i18n.MsgFirstStartup),
	}, "\n"))
	out.Panel(console.KindWarn, strings.Join([]string{
		out.T(i18n.MsgIfFailsToStart),
		"1. " + out.T(i18n.MsgCheckNetwork),
		"2. " + out.T(i18n.MsgRerunBootstrap) + " wheelhouse bootstrap",
	}, "\n"))
}
