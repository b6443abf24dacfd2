package sft

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/EllenBosMarcelMulder/hexEGYptOS/field"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/awareness"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/encode"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/governor"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/guardian"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/kernel"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/logging"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/memory"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/superpose"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/temporal"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/trace"
	"github.com/EllenBosMarcelMulder/hexEGYptOS/internal/world"
)

// Decision re-exports the governor verdict.
type Decision = governor.Decision

// The three possible run verdicts.
const (
	DecisionAllow   = governor.DecisionAllow
	DecisionRebuild = governor.DecisionRebuild
	DecisionBlock   = governor.DecisionBlock
)

// Level re-exports the awareness grade.
type Level = awareness.Level

// The five awareness grades, in ascending order.
const (
	LevelDormant        = awareness.LevelDormant
	LevelEmerging       = awareness.LevelEmerging
	LevelAware          = awareness.LevelAware
	LevelConscious      = awareness.LevelConscious
	LevelFullyConscious = awareness.LevelFullyConscious
)

// TraceRecord re-exports one observed evolution step.
type TraceRecord = trace.Record

// Cycle re-exports one detected phase periodicity.
type Cycle = temporal.Cycle

// Incoherence re-exports one cross-domain world disagreement.
type Incoherence = world.Incoherence

// Request is one input to Process. World maps source ids to their
// content; an id of the form "domain/name" files the source under that
// domain, any other id is its own domain. MaxSteps, when positive,
// overrides the configured step budget for this request only.
type Request struct {
	Text     string
	Code     string
	World    map[string]string
	MaxSteps int
}

// Result is the outcome of one Process call.
type Result struct {
	// Output is the final field state.
	Output field.Field

	// Coherence is Output's coherence.
	Coherence float64

	// Maat is the governor's score for the run: the mean criteria
	// score, or the manipulation score on a block.
	Maat float64

	// Awareness is the monitor field's coherence, graded by
	// AwarenessLevel.
	Awareness      float64
	AwarenessLevel Level

	// Decision is the governor's verdict.
	Decision Decision

	// Steps is the number of kernel applications this call, rebuild
	// included.
	Steps int

	// Signature is the first eight hex characters of the SHA-256 over
	// the canonical output vector.
	Signature string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the engine's logger. Without it the engine logs
// to stderr at the configured level.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine is one logical semantic field session: its memory, awareness
// and world context accumulate across Process calls. An Engine is
// single-owner and not safe for concurrent use; run one engine per
// goroutine or use RunBatch.
type Engine struct {
	config Config
	logger *slog.Logger

	encoder *encode.Encoder
	mem     *memory.Memory
	kern    *kernel.Kernel
	rebuild *kernel.Kernel
	fusion  *kernel.Fusion
	guard   *guardian.Guardian
	monitor *awareness.Monitor
	judge   *governor.Governor
	matrix  *world.Matrix
	tracker *temporal.Tracker
	bridge  *superpose.Bridge
	log     *trace.Log

	current     field.Field
	processes   int
	kernelCalls int
}

// New creates an engine from the given configuration. A nil config
// means defaults.
func New(config *Config, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := config.Bounds
	kernelCfg := kernel.Config(config.Kernel)
	rebuildCfg := kernelCfg
	rebuildCfg.Alpha *= config.Governor.RebuildDamping

	e := &Engine{
		config:  *config,
		encoder: encode.NewEncoder(encode.Config(config.Encoder), b),
		mem:     memory.NewMemory(memory.Config(config.Memory), b),
		kern:    kernel.NewKernel(kernelCfg, b),
		rebuild: kernel.NewKernel(rebuildCfg, b),
		fusion:  kernel.NewFusion(kernelCfg, b),
		guard:   guardian.NewGuardian(guardian.Config(config.Guardian), b),
		monitor: awareness.NewMonitor(awareness.Config(config.Awareness), b),
		judge:   governor.NewGovernor(governor.Config(config.Governor), b),
		matrix:  world.NewMatrix(world.Config(config.World), b),
		bridge:  superpose.NewBridge(superpose.Config(config.Superposition)),
		log:     trace.NewLog(trace.Config(config.Trace)),
		current: field.Default(b),
	}
	if config.Temporal.Enabled {
		e.tracker = temporal.NewTracker(config.temporalConfig())
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewLogger(config.Logging.Level, os.Stderr)
	}
	return e, nil
}

// NewDefault creates an engine with the default configuration.
func NewDefault() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic(err) // defaults always validate
	}
	return e
}

// run is the per-call working set of Process.
type run struct {
	lang    field.Field
	code    field.Field
	hasCode bool
	world   *field.Field
}

// Process evolves one request through the field and returns the
// judged result. Identical request sequences on freshly constructed
// engines produce bit-identical results.
func (e *Engine) Process(req Request) Result {
	e.guard.Reset()
	e.processes++
	logger := e.logger.With("session", e.log.Session(), "process", e.processes)

	r := e.encodeRequest(req, logger)
	cur := e.initialState(r)

	maxSteps := e.config.MaxSteps
	if req.MaxSteps > 0 {
		maxSteps = req.MaxSteps
	}

	// The main evolution loop.
	steps := 0
	history := []field.Field{cur}
	for i := 0; i < maxSteps; i++ {
		var loss float64
		cur, loss = e.step(r, e.kern, cur)
		steps++
		history = append(history, cur)
		logger.Debug("step",
			"step", cur.Step,
			"coherence", cur.Coherence,
			"loss", loss)
		logger.Log(context.Background(), logging.LevelTrace, "field state", "state", cur.Canonical())
		if cur.Coherence > e.config.ConvergenceThreshold {
			break
		}
	}

	decision, score := e.judge.Judge(r.lang, cur, r.world, history)
	switch decision {
	case governor.DecisionRebuild:
		logger.Debug("rebuilding", "score", score, "steps", e.config.Governor.RebuildSteps)
		for i := 0; i < e.config.Governor.RebuildSteps; i++ {
			cur, _ = e.step(r, e.rebuild, cur)
			steps++
			history = append(history, cur)
		}
	case governor.DecisionBlock:
		logger.Warn("run blocked", "score", score)
	}

	e.current = cur
	sig := signature(cur)
	logger.Debug("processed",
		"steps", steps,
		"coherence", cur.Coherence,
		"decision", decision,
		"signature", sig)

	return Result{
		Output:         cur,
		Coherence:      cur.Coherence,
		Maat:           score,
		Awareness:      e.monitor.State().Coherence,
		AwarenessLevel: e.monitor.Level(),
		Decision:       decision,
		Steps:          steps,
		Signature:      sig,
	}
}

// encodeRequest encodes the request's text, code and world sources.
func (e *Engine) encodeRequest(req Request, logger *slog.Logger) *run {
	r := &run{
		lang:    e.encoder.Text(req.Text),
		hasCode: req.Code != "",
	}
	if r.hasCode {
		r.code = e.encoder.Code(req.Code)
	}

	if len(req.World) > 0 {
		ids := make([]string, 0, len(req.World))
		for id := range req.World {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			domain := id
			if i := strings.IndexByte(id, '/'); i > 0 {
				domain = id[:i]
			}
			e.matrix.Register(id, domain, e.encoder.Text(req.World[id]))
		}
	}
	r.world = e.matrix.Field()

	logger.Debug("encoded request",
		"text_len", len(req.Text),
		"code", r.hasCode,
		"world_sources", e.matrix.Len())
	return r
}

// initialState projects the run's working state. With code present the
// plain-text and text-plus-code readings go through the superposition
// bridge and the lower-loss reading wins.
func (e *Engine) initialState(r *run) field.Field {
	base := []field.Field{r.lang, e.mem.Attractor(), e.monitor.State()}
	if !r.hasCode {
		if r.world != nil {
			base = append(base, *r.world)
		}
		return kernel.Project(base, e.config.Bounds)
	}

	withCode := []field.Field{r.lang, e.mem.Attractor(), e.monitor.State(), r.code}
	if r.world != nil {
		base = append(base, *r.world)
		withCode = append(withCode, *r.world)
	}
	winner, ok := e.bridge.Resolve([]superpose.Candidate{
		{Label: "text", State: kernel.Project(base, e.config.Bounds)},
		{Label: "text+code", State: kernel.Project(withCode, e.config.Bounds)},
	}, func(st field.Field) float64 {
		return e.judge.Loss(st, e.mem.State())
	})
	if !ok {
		return kernel.Project(base, e.config.Bounds)
	}
	return winner.State
}

// step advances the working state by one kernel application and runs
// the full per-step pipeline behind it.
func (e *Engine) step(r *run, k *kernel.Kernel, cur field.Field) (field.Field, float64) {
	before := cur

	grad, _ := e.fusion.Gradient(e.coherenceSources(r))
	cur = k.Evolve(cur, e.mem.Attractor(), e.mem.State(), r.world, grad)

	e.mem.Absorb(cur)
	fuse := []field.Field{r.lang}
	if r.hasCode {
		fuse = append(fuse, r.code)
	}
	e.mem.Fuse(fuse)
	cur.Coherence = e.mem.Coherence()

	cur = e.monitor.Observe(cur, e.mem.State(), r.world)
	loss := e.judge.Loss(cur, e.mem.State())
	cur = e.guard.Enforce(before, cur, loss)

	e.kernelCalls++
	if e.tracker != nil {
		e.tracker.Record(cur.Phase)
	}
	e.log.Append(trace.Record{
		Step:      cur.Step,
		State:     cur,
		Loss:      loss,
		Awareness: e.monitor.State().Coherence,
	})
	return cur, loss
}

// coherenceSources lists the gradient contributors in their fixed
// order: language, memory, awareness, then code and world when
// present.
func (e *Engine) coherenceSources(r *run) []kernel.Source {
	sources := []kernel.Source{
		{Name: "lang", State: r.lang},
		{Name: "memory", State: e.mem.State()},
		{Name: "awareness", State: e.monitor.State()},
	}
	if r.hasCode {
		sources = append(sources, kernel.Source{Name: "code", State: r.code})
	}
	if r.world != nil {
		sources = append(sources, kernel.Source{Name: "world", State: *r.world})
	}
	return sources
}

// Snapshot is a point-in-time view of the engine's components.
type Snapshot struct {
	Current     field.Field
	Memory      field.Field
	Awareness   field.Field
	Floor       float64
	Processes   int
	KernelCalls int
	TraceLen    int
	Session     string
}

// Snapshot reports the engine's current component states.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Current:     e.current,
		Memory:      e.mem.State(),
		Awareness:   e.monitor.State(),
		Floor:       e.mem.Floor(),
		Processes:   e.processes,
		KernelCalls: e.kernelCalls,
		TraceLen:    e.log.Len(),
		Session:     e.log.Session(),
	}
}

// Trajectory returns a copy of the retained trace records, oldest
// first.
func (e *Engine) Trajectory() []TraceRecord {
	return e.log.Records()
}

// Cycles returns the phase periodicities detected over the engine's
// history, or nil when temporal tracking is disabled.
func (e *Engine) Cycles() []Cycle {
	if e.tracker == nil {
		return nil
	}
	return e.tracker.Cycles()
}

// PredictPhase extrapolates the next n phases from the engine's
// history, or nil when temporal tracking is disabled.
func (e *Engine) PredictPhase(n int) []float64 {
	if e.tracker == nil {
		return nil
	}
	return e.tracker.Predict(n)
}

// Incoherences returns the cross-domain disagreements in the world
// matrix, largest first.
func (e *Engine) Incoherences() []Incoherence {
	return e.matrix.Incoherences()
}

// signature derives the short content signature of a state from its
// canonical vector string.
func signature(st field.Field) string {
	sum := sha256.Sum256([]byte(st.Canonical()))
	return hex.EncodeToString(sum[:])[:8]
}
