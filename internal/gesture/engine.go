package gesture

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ayusman/soundwave/internal/detector"
)

// ErrInvalidConfig is returned when an engine configuration is out of range.
var ErrInvalidConfig = errors.New("invalid engine config")

// Mode selects the control policy applied to extracted features.
type Mode string

const (
	// ModeContinuous integrates the thumb/index angle into the volume.
	ModeContinuous Mode = "continuous"
	// ModeDiscrete steps the volume while the index finger points sideways.
	ModeDiscrete Mode = "discrete"
)

// ParseMode returns the Mode named by s.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeContinuous, ModeDiscrete:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// Status is the per-tick signal reported for display.
type Status string

const (
	StatusHandDetected   Status = "HAND_DETECTED"
	StatusNoHandDetected Status = "NO_HAND_DETECTED"
)

// Config holds the tunable parameters of both modes.
type Config struct {
	Mode Mode `json:"mode" yaml:"mode"`

	MaxAngle           float64       `json:"max_angle" yaml:"max_angle"`
	MaxSpeed           float64       `json:"max_speed" yaml:"max_speed"`
	Deadband           float64       `json:"deadband" yaml:"deadband"`
	ContinuousInterval time.Duration `json:"continuous_interval" yaml:"continuous_interval"`

	DirectionThreshold float64       `json:"direction_threshold" yaml:"direction_threshold"`
	Step               float64       `json:"step" yaml:"step"`
	DiscreteInterval   time.Duration `json:"discrete_interval" yaml:"discrete_interval"`

	InitialVolume float64 `json:"initial_volume" yaml:"initial_volume"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeContinuous,
		MaxAngle:           DefaultMaxAngle,
		MaxSpeed:           DefaultMaxSpeed,
		Deadband:           DefaultDeadband,
		ContinuousInterval: DefaultContinuousInterval,
		DirectionThreshold: DefaultDirectionThreshold,
		Step:               DefaultStep,
		DiscreteInterval:   DefaultDiscreteInterval,
		InitialVolume:      70,
	}
}

// Validate checks that every parameter is in range.
func (c Config) Validate() error {
	// Comparisons are written so NaN fails them.
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	switch {
	case !(c.MaxAngle > 0):
		return fmt.Errorf("%w: max_angle must be positive", ErrInvalidConfig)
	case !(c.MaxSpeed > 0):
		return fmt.Errorf("%w: max_speed must be positive", ErrInvalidConfig)
	case !(c.Deadband >= 0):
		return fmt.Errorf("%w: deadband must not be negative", ErrInvalidConfig)
	case c.ContinuousInterval < 0 || c.DiscreteInterval < 0:
		return fmt.Errorf("%w: intervals must not be negative", ErrInvalidConfig)
	case !(c.DirectionThreshold >= 0):
		return fmt.Errorf("%w: direction_threshold must not be negative", ErrInvalidConfig)
	case !(c.Step > 0):
		return fmt.Errorf("%w: step must be positive", ErrInvalidConfig)
	case !(c.InitialVolume >= MinVolume && c.InitialVolume <= MaxVolume):
		return fmt.Errorf("%w: initial_volume must be within [0,100]", ErrInvalidConfig)
	}
	return nil
}

// Outcome is what a policy did with one hand.
type Outcome struct {
	Speed     float64
	Direction Direction
	Changed   bool
}

// Policy turns features into control state updates. Both modes read the
// same Features so landmark handling lives only in ExtractFeatures.
type Policy interface {
	Mode() Mode
	Apply(f Features, st *ControlState, now time.Time) Outcome
}

type continuousPolicy struct {
	mapper     SpeedMapper
	integrator Integrator
}

func (p continuousPolicy) Mode() Mode { return ModeContinuous }

func (p continuousPolicy) Apply(f Features, st *ControlState, now time.Time) Outcome {
	speed := p.mapper.Speed(f)
	return Outcome{Speed: speed, Changed: p.integrator.Apply(st, speed, now)}
}

type discretePolicy struct {
	threshold float64
	stepper   Stepper
}

func (p discretePolicy) Mode() Mode { return ModeDiscrete }

func (p discretePolicy) Apply(f Features, st *ControlState, now time.Time) Outcome {
	d := ClassifyDirection(f.IndexOffsetX, p.threshold)
	return Outcome{
		Speed:     p.stepper.Delta(d),
		Direction: d,
		Changed:   p.stepper.Apply(st, d, now),
	}
}

// NewPolicy builds the policy selected by cfg.Mode.
func NewPolicy(cfg Config) Policy {
	if cfg.Mode == ModeDiscrete {
		return discretePolicy{
			threshold: cfg.DirectionThreshold,
			stepper:   Stepper{Step: cfg.Step, Interval: cfg.DiscreteInterval},
		}
	}
	return continuousPolicy{
		mapper:     SpeedMapper{MaxAngle: cfg.MaxAngle, MaxSpeed: cfg.MaxSpeed},
		integrator: Integrator{Deadband: cfg.Deadband, Interval: cfg.ContinuousInterval},
	}
}

// Result describes one processed tick.
type Result struct {
	Status    Status    `json:"status"`
	Mode      Mode      `json:"mode"`
	Direction Direction `json:"direction,omitempty"`
	Volume    float64   `json:"volume"`
	Delta     float64   `json:"delta"`
	Changed   bool      `json:"changed"`
	Speed     float64   `json:"speed"`
	Features  *Features `json:"features,omitempty"`
	At        time.Time `json:"at"`
}

// Engine owns a ControlState and applies one policy to it per tick. Ticks
// are applied in call order; the mutex serializes callers so the
// deadband/throttle read-modify-write is never interleaved.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	policy Policy
	state  ControlState
	last   Result
}

// New creates an Engine at cfg.InitialVolume.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		policy: NewPolicy(cfg),
		state:  NewControlState(cfg.InitialVolume),
	}
	e.last = e.idleResult(time.Time{})
	return e, nil
}

// ProcessTick runs the pipeline for one frame. Only the first hand is used.
// An empty detection, or a first hand missing a required landmark, reports
// StatusNoHandDetected and leaves the state untouched.
func (e *Engine) ProcessTick(hands []detector.HandLandmarks, now time.Time) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(hands) == 0 {
		e.last = e.idleResult(now)
		return e.last
	}

	f, ok := ExtractFeatures(&hands[0])
	if !ok {
		e.last = e.idleResult(now)
		return e.last
	}

	before := e.state.Volume
	out := e.policy.Apply(f, &e.state, now)

	e.last = Result{
		Status:    StatusHandDetected,
		Mode:      e.policy.Mode(),
		Direction: out.Direction,
		Volume:    e.state.Volume,
		Delta:     e.state.Volume - before,
		Changed:   out.Changed,
		Speed:     out.Speed,
		Features:  &f,
		At:        now,
	}
	return e.last
}

func (e *Engine) idleResult(now time.Time) Result {
	r := Result{
		Status: StatusNoHandDetected,
		Mode:   e.policy.Mode(),
		Volume: e.state.Volume,
		At:     now,
	}
	if r.Mode == ModeDiscrete {
		r.Direction = DirectionCenter
	}
	return r
}

// State returns a snapshot of the control state.
func (e *Engine) State() ControlState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Last returns the result of the most recent tick.
func (e *Engine) Last() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Volume returns the current volume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Volume
}

// SetVolume overrides the volume, clamped to [0,100], and returns the value
// stored. NaN is ignored. The throttle timestamp is left alone.
func (e *Engine) SetVolume(v float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if math.IsNaN(v) {
		return e.state.Volume
	}
	e.state.Volume = ClampVolume(v)
	e.last.Volume = e.state.Volume
	return e.state.Volume
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Configure swaps in a new configuration. The control state carries over;
// InitialVolume only applies to New.
func (e *Engine) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	e.policy = NewPolicy(cfg)
	e.last.Mode = cfg.Mode
	if cfg.Mode == ModeDiscrete {
		if e.last.Direction == "" {
			e.last.Direction = DirectionCenter
		}
	} else {
		e.last.Direction = ""
	}
	return nil
}

// SetMode switches between continuous and discrete mode.
func (e *Engine) SetMode(m Mode) error {
	cfg := e.Config()
	cfg.Mode = m
	return e.Configure(cfg)
}
