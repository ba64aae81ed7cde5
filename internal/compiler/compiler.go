package compiler

import (
	"archive/zip"
	"log/slog"
	"strconv"

	"github.com/aretw0/neoform/internal/logging"
	"github.com/aretw0/neoform/pkg/domain"
)

// DefaultJavaTarget is used when the descriptor does not declare java_target.
const DefaultJavaTarget = 17

// Names of the synthesized tasks.
const (
	RetrievePrefix       = "generated_retrieve_"
	TaskTransformSources = "transformSources"
	TaskRecompile        = "recompile"
)

// Options are the caller-supplied inputs of the finishing tasks.
// Empty fields leave the corresponding transform input unset.
type Options struct {
	AccessTransformers     []string
	InterfaceInjectionData []string
	ParchmentData          string
}

// Compiler turns NeoForm descriptor archives into task graphs.
// It holds no state besides its logger and is safe for concurrent use.
type Compiler struct {
	logger *slog.Logger
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for compile diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the task graph of archive for the given distribution.
// self is registered as the selfReference parameter.
func (c *Compiler) Compile(archive *zip.Reader, dist string, self domain.Value, opts Options) (*domain.Config, error) {
	d, err := LoadDescriptor(archive)
	if err != nil {
		return nil, err
	}
	return c.Build(d, dist, self, opts)
}

// Build compiles an already decoded descriptor.
func (c *Compiler) Build(d *Descriptor, dist string, self domain.Value, opts Options) (*domain.Config, error) {
	b := &builder{
		desc: d,
		dist: dist,
		cfg: &domain.Config{
			Parameters: make(map[string]domain.Value),
		},
	}

	if err := b.registerParameters(self, opts); err != nil {
		return nil, err
	}
	if err := b.addDataTasks(); err != nil {
		return nil, err
	}

	steps := d.Steps[dist]
	b.producers = scanProducers(steps)

	for _, s := range steps {
		task, err := b.convertStep(s)
		if err != nil {
			return nil, err
		}
		b.cfg.Tasks = append(b.cfg.Tasks, task)
	}

	b.addFinishingTasks(opts)

	c.logger.Debug("compiled descriptor",
		"version", d.Version,
		"dist", dist,
		"tasks", len(b.cfg.Tasks),
		"parameters", len(b.cfg.Parameters),
	)
	return b.cfg, nil
}

// builder carries the state of one compilation.
type builder struct {
	desc      *Descriptor
	dist      string
	cfg       *domain.Config
	producers producers
}

// producers records the step names that produce the outputs later steps
// depend on.
type producers struct {
	manifest  string
	versionJS string
	libraries string
	patch     string
}

func scanProducers(steps []Step) producers {
	p := producers{
		manifest:  "downloadManifest",
		versionJS: "downloadJson",
		libraries: "listLibraries",
		patch:     "patch",
	}
	for _, s := range steps {
		switch s.Type {
		case "downloadManifest":
			p.manifest = s.StepName()
		case "downloadJson":
			p.versionJS = s.StepName()
		case "listLibraries":
			p.libraries = s.StepName()
		case "patch":
			p.patch = s.StepName()
		}
	}
	return p
}

func (b *builder) registerParameters(self domain.Value, opts Options) error {
	b.cfg.Parameters[domain.ParamSelfReference] = self

	libs := domain.List{}
	for _, coord := range b.desc.Libraries[b.dist] {
		a, err := domain.ParseArtifact(coord)
		if err != nil {
			return domain.Errorf(domain.ErrInvalidDescriptor, "libraries", "%v", err)
		}
		libs = append(libs, a)
	}
	b.cfg.Parameters[domain.ParamAdditionalLibraries] = libs

	if len(opts.AccessTransformers) > 0 {
		b.cfg.Parameters[domain.ParamAccessTransformers] = stringList(opts.AccessTransformers)
	}
	if len(opts.InterfaceInjectionData) > 0 {
		b.cfg.Parameters[domain.ParamInterfaceInjectionData] = stringList(opts.InterfaceInjectionData)
	}
	if opts.ParchmentData != "" {
		b.cfg.Parameters[domain.ParamParchmentData] = domain.String(opts.ParchmentData)
	}
	return nil
}

func stringList(items []string) domain.List {
	l := make(domain.List, len(items))
	for i, s := range items {
		l[i] = domain.String(s)
	}
	return l
}

func (b *builder) addDataTasks() error {
	for _, key := range b.desc.DataKeys() {
		var path string
		switch v := b.desc.Data[key].(type) {
		case string:
			path = v
		case map[string]any:
			raw, ok := v[b.dist]
			if !ok {
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return domain.Errorf(domain.ErrInvalidDataEntry, key, "path for %q must be a string, got %T", b.dist, raw)
			}
			path = s
		default:
			return domain.Errorf(domain.ErrInvalidDataEntry, key, "expected a path or a per-distribution map, got %T", v)
		}

		b.cfg.Tasks = append(b.cfg.Tasks, domain.RetrieveData{
			Name:    RetrievePrefix + key,
			Archive: domain.ParameterInput{Name: domain.ParamSelfReference},
			Path:    domain.Direct(path),
		})
	}
	return nil
}

func (b *builder) convertStep(s Step) (domain.Task, error) {
	name := s.StepName()
	values, err := s.StepValues()
	if err != nil {
		return nil, err
	}
	input := func() (domain.Input, error) {
		v, ok := values["input"]
		if !ok {
			return nil, domain.Errorf(domain.ErrUnresolvableReference, name, "step has no input value")
		}
		return parseStepInput(name, v)
	}

	switch s.Type {
	case "downloadManifest":
		return domain.DownloadManifest{Name: name}, nil
	case "downloadJson":
		return domain.DownloadJSON{
			Name:     name,
			Manifest: domain.FromTask(b.producers.manifest),
			Version:  domain.Direct(b.desc.Version),
		}, nil
	case "downloadClient", "downloadServer":
		return domain.DownloadDistribution{
			Name:         name,
			Distribution: distributionOf(s.Type),
			VersionJSON:  domain.FromTask(b.producers.versionJS),
		}, nil
	case "downloadClientMappings", "downloadServerMappings":
		return domain.DownloadMappings{
			Name:         name,
			Distribution: distributionOf(s.Type),
			VersionJSON:  domain.FromTask(b.producers.versionJS),
		}, nil
	case "strip":
		in, err := input()
		if err != nil {
			return nil, err
		}
		return domain.SplitClassesResources{Name: name, Input: in}, nil
	case "listLibraries":
		return domain.ListClasspath{
			Name:                name,
			VersionJSON:         domain.FromTask(b.producers.versionJS),
			AdditionalLibraries: domain.ParameterInput{Name: domain.ParamAdditionalLibraries},
		}, nil
	case "inject":
		in, err := input()
		if err != nil {
			return nil, err
		}
		return domain.InjectSources{
			Name:      name,
			Input:     in,
			Injection: domain.FromTask(RetrievePrefix + "inject"),
		}, nil
	case "patch":
		in, err := input()
		if err != nil {
			return nil, err
		}
		return domain.PatchSources{
			Name:    name,
			Input:   in,
			Patches: domain.FromTask(RetrievePrefix + "patches"),
		}, nil
	}

	return b.convertTool(s, name, values)
}

func distributionOf(stepType string) string {
	switch stepType {
	case "downloadClient", "downloadClientMappings":
		return "client"
	default:
		return "server"
	}
}

func (b *builder) convertTool(s Step, name string, values map[string]string) (domain.Task, error) {
	fn, ok := b.desc.Functions[s.Type]
	if !ok {
		return nil, domain.Errorf(domain.ErrUnknownStepType, name, "no function declared for type %q", s.Type)
	}
	artifact, err := domain.ParseArtifact(fn.Version)
	if err != nil {
		return nil, domain.Errorf(domain.ErrInvalidDescriptor, name, "tool version: %v", err)
	}

	rc := resolveContext{
		step:      name,
		stepType:  s.Type,
		values:    values,
		version:   b.desc.Version,
		libraries: b.producers.libraries,
		tool:      fn.Version,
	}

	args := make([]domain.Argument, 0, len(fn.JvmArgs)+len(fn.Args)+2)
	for _, tmpl := range fn.JvmArgs {
		arg, err := resolveArgument(tmpl, rc)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	args = append(args,
		domain.Literal("-jar"),
		domain.FileArg{Input: domain.DirectInput{Value: artifact}, Sensitivity: domain.PathNone},
	)
	for _, tmpl := range fn.Args {
		arg, err := resolveArgument(tmpl, rc)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	return domain.Tool{
		Name:         name,
		StepType:     s.Type,
		ToolArtifact: artifact,
		Repository:   fn.Repo,
		Args:         args,
	}, nil
}

func (b *builder) addFinishingTasks(opts Options) {
	jst := domain.TransformSources{
		Name:      TaskTransformSources,
		Input:     domain.FromTask(b.producers.patch),
		Libraries: domain.FromTask(b.producers.libraries),
	}
	if len(opts.AccessTransformers) > 0 {
		jst.AccessTransformers = domain.ParameterInput{Name: domain.ParamAccessTransformers}
	}
	if len(opts.InterfaceInjectionData) > 0 {
		jst.InterfaceInjection = domain.ParameterInput{Name: domain.ParamInterfaceInjectionData}
	}
	if opts.ParchmentData != "" {
		jst.ParchmentData = domain.ParameterInput{Name: domain.ParamParchmentData}
	}

	recompile := domain.Compile{
		Name:      TaskRecompile,
		Args:      compilerFlags(b.desc.JavaTarget),
		Sources:   domain.FromTask(TaskTransformSources),
		Classpath: domain.FromTask(b.producers.libraries),
	}
	if jst.InterfaceInjection != nil {
		recompile.Stubs = []domain.Input{
			domain.TaskInput{Output: domain.Output{Task: TaskTransformSources, Slot: domain.SlotStubs}},
		}
	}

	b.cfg.Tasks = append(b.cfg.Tasks, jst, recompile)
}

func compilerFlags(javaTarget int) []domain.Argument {
	flags := []string{
		"--release", strconv.Itoa(javaTarget),
		"-proc:none",
		"-nowarn",
		"-g",
		"-XDuseUnsharedTable=true",
		"-implicit:none",
	}
	args := make([]domain.Argument, len(flags))
	for i, f := range flags {
		args[i] = domain.Literal(f)
	}
	return args
}

