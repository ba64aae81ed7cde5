package neoform

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/neoform/internal/compiler"
	"github.com/aretw0/neoform/internal/logging"
	"github.com/aretw0/neoform/internal/validator"
	"github.com/aretw0/neoform/pkg/domain"
)

// Engine compiles NeoForm archives into validated plans.
type Engine struct {
	compiler *compiler.Compiler
	logger   *slog.Logger
	opts     compiler.Options
	strict   bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAccessTransformers adds access transformer files to the source
// transformation.
func WithAccessTransformers(paths ...string) Option {
	return func(e *Engine) {
		e.opts.AccessTransformers = append(e.opts.AccessTransformers, paths...)
	}
}

// WithInterfaceInjectionData adds interface injection files. Recompilation
// then also consumes the generated stubs.
func WithInterfaceInjectionData(paths ...string) Option {
	return func(e *Engine) {
		e.opts.InterfaceInjectionData = append(e.opts.InterfaceInjectionData, paths...)
	}
}

// WithParchmentData sets the Parchment mappings used for parameter names.
func WithParchmentData(path string) Option {
	return func(e *Engine) {
		e.opts.ParchmentData = path
	}
}

// WithStrictParameters makes planning fail on parameter references that
// the compiled graph does not define.
func WithStrictParameters() Option {
	return func(e *Engine) {
		e.strict = true
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.compiler = compiler.New(compiler.WithLogger(e.logger))
	return e
}

// Plan is a compiled and validated task graph.
type Plan struct {
	Dist   string
	Config *domain.Config
	// Order lists every task after the tasks it consumes.
	Order []string

	key string
}

// Key identifies the plan's inputs: the descriptor bytes, the distribution
// and the caller options. Equal keys mean equal graphs.
func (p *Plan) Key() string { return p.key }

// Dependencies returns the producer names of every task.
func (p *Plan) Dependencies() (map[string][]string, error) {
	return validator.Dependencies(p.Config)
}

// Plan compiles archive for dist and validates the result. self is the
// value tasks use to refer back to the archive.
func (e *Engine) Plan(archive *zip.Reader, dist string, self domain.Value) (*Plan, error) {
	if self == nil {
		return nil, fmt.Errorf("self reference is required")
	}
	raw, err := compiler.ReadConfig(archive)
	if err != nil {
		return nil, err
	}
	desc, err := compiler.ParseDescriptor(raw)
	if err != nil {
		return nil, err
	}
	if _, ok := desc.Steps[dist]; !ok {
		return nil, fmt.Errorf("%w: no steps for distribution %q", domain.ErrInvalidDescriptor, dist)
	}

	cfg, err := e.compiler.Build(desc, dist, self, e.opts)
	if err != nil {
		return nil, err
	}

	var vopts []validator.Option
	if e.strict {
		vopts = append(vopts, validator.WithStrictParameters())
	}
	order, err := validator.Validate(cfg, vopts...)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Dist:   dist,
		Config: cfg,
		Order:  order,
		key:    planKey(raw, dist, self, e.opts),
	}
	e.logger.Info("plan ready", "version", desc.Version, "dist", dist, "tasks", len(order), "key", p.key[:12])
	return p, nil
}

// PlanFile opens the archive at path and plans it. The absolute path is
// used as the archive's self reference.
func (e *Engine) PlanFile(path, dist string) (*Plan, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	zr, err := zip.OpenReader(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()
	return e.Plan(&zr.Reader, dist, domain.String(abs))
}

// Distributions lists the distributions the archive declares steps for.
func Distributions(archive *zip.Reader) ([]string, error) {
	desc, err := compiler.LoadDescriptor(archive)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(desc.Steps))
	for d := range desc.Steps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func planKey(raw []byte, dist string, self domain.Value, opts compiler.Options) string {
	h := sha256.New()
	h.Write(raw)
	for _, part := range []string{
		dist,
		self.String(),
		strings.Join(opts.AccessTransformers, "\x1f"),
		strings.Join(opts.InterfaceInjectionData, "\x1f"),
		opts.ParchmentData,
	} {
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
