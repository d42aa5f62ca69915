package fountain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Config is the JSON settings file. Missing fields keep their defaults.
type Config struct {
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	Renderer     string `json:"renderer"`
	HUD          bool   `json:"hud"`
	Debug        bool   `json:"debug"`

	Capacity     int        `json:"capacity"`
	SpawnRate    float32    `json:"spawn_rate"`
	SpawnCapDt   float32    `json:"spawn_cap_dt"`
	Gravity      mgl32.Vec3 `json:"gravity"`
	Spread       float32    `json:"spread"`
	Origin       mgl32.Vec3 `json:"origin"`
	BaseVelocity mgl32.Vec3 `json:"base_velocity"`
	LifeRange    [2]float32 `json:"life_range"`
	SizeRange    [2]float32 `json:"size_range"`
	BatchOrder   string     `json:"batch_order"`
	Seed         int64      `json:"seed"`

	CameraEye        mgl32.Vec3 `json:"camera_eye"`
	MoveSpeed        float32    `json:"move_speed"`
	MouseSensitivity float32    `json:"mouse_sensitivity"`

	Culling          bool       `json:"culling"`
	CullProjection   Projection `json:"cull_projection"`
	RenderProjection Projection `json:"render_projection"`
	ModelTranslation mgl32.Vec3 `json:"model_translation"`
}

func DefaultConfig() *Config {
	spawn := core.DefaultSpawnParams()
	emitter := core.DefaultEmitterConfig()
	return &Config{
		WindowWidth:  640,
		WindowHeight: 480,
		Renderer:     string(RendererWGPU),

		Capacity:     emitter.Capacity,
		SpawnRate:    emitter.SpawnRate,
		SpawnCapDt:   emitter.SpawnCapDt,
		Gravity:      emitter.Gravity,
		Spread:       spawn.Spread,
		Origin:       spawn.Origin,
		BaseVelocity: spawn.BaseVelocity,
		LifeRange:    spawn.LifeRange,
		SizeRange:    spawn.SizeRange,
		BatchOrder:   emitter.Order.String(),

		CameraEye:        mgl32.Vec3{0, 5, 25},
		MoveSpeed:        0.25,
		MouseSensitivity: core.DefaultMouseSensitivity,

		CullProjection:   DefaultCullProjection,
		RenderProjection: DefaultRenderProjection,
		ModelTranslation: emitter.Model.Col(3).Vec3(),
	}
}

// LoadConfig reads path over the defaults. An empty path yields the
// defaults; a missing file yields the defaults and is created. Content
// problems are logged and repaired, never returned.
func LoadConfig(path string, logger Logger) (*Config, error) {
	if logger == nil {
		logger = NewNopLogger()
	}
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Infof("Creating default config file at %s", path)
			if err := cfg.Save(path); err != nil {
				logger.Warnf("Failed to create default config file: %v", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warnf("Invalid config file, using defaults: %v", err)
		return cfg, nil
	}
	known := knownKeys(Config{})
	for key := range raw {
		if !known[key] {
			logger.Warnf("Unrecognised config key '%s'", key)
		}
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		logger.Warnf("Invalid config file, using defaults: %v", err)
		return DefaultConfig(), nil
	}

	cfg.Validate(logger)
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate resets out-of-range values to their defaults, one warning each.
func (c *Config) Validate(logger Logger) {
	if logger == nil {
		logger = NewNopLogger()
	}
	def := DefaultConfig()
	reset := func(name string, bad any, restore func()) {
		logger.Warnf("Invalid %s %v, using default", name, bad)
		restore()
	}

	if c.WindowWidth <= 0 {
		reset("window_width", c.WindowWidth, func() { c.WindowWidth = def.WindowWidth })
	}
	if c.WindowHeight <= 0 {
		reset("window_height", c.WindowHeight, func() { c.WindowHeight = def.WindowHeight })
	}
	if _, err := ParseRendererName(c.Renderer); err != nil {
		reset("renderer", c.Renderer, func() { c.Renderer = def.Renderer })
	}
	if c.Capacity <= 0 {
		reset("capacity", c.Capacity, func() { c.Capacity = def.Capacity })
	}
	if c.SpawnRate < 0 {
		reset("spawn_rate", c.SpawnRate, func() { c.SpawnRate = def.SpawnRate })
	}
	if c.SpawnCapDt <= 0 {
		reset("spawn_cap_dt", c.SpawnCapDt, func() { c.SpawnCapDt = def.SpawnCapDt })
	}
	if c.Spread < 0 {
		reset("spread", c.Spread, func() { c.Spread = def.Spread })
	}
	if c.LifeRange[0] <= 0 || c.LifeRange[0] > c.LifeRange[1] {
		reset("life_range", c.LifeRange, func() { c.LifeRange = def.LifeRange })
	}
	if c.SizeRange[0] > c.SizeRange[1] || c.SizeRange[0] < 0 {
		reset("size_range", c.SizeRange, func() { c.SizeRange = def.SizeRange })
	}
	if _, err := core.ParseBatchOrder(c.BatchOrder); err != nil {
		reset("batch_order", c.BatchOrder, func() { c.BatchOrder = def.BatchOrder })
	}
	if c.MoveSpeed <= 0 {
		reset("move_speed", c.MoveSpeed, func() { c.MoveSpeed = def.MoveSpeed })
	}
	if c.MouseSensitivity <= 0 {
		reset("mouse_sensitivity", c.MouseSensitivity, func() { c.MouseSensitivity = def.MouseSensitivity })
	}
	if !c.CullProjection.valid() {
		reset("cull_projection", c.CullProjection, func() { c.CullProjection = def.CullProjection })
	}
	if !c.RenderProjection.valid() {
		reset("render_projection", c.RenderProjection, func() { c.RenderProjection = def.RenderProjection })
	}
}

func (p Projection) valid() bool {
	return p.FovYDegrees > 0 && p.FovYDegrees < 180 && p.Near > 0 && p.Far > p.Near
}

// EmitterConfig converts the settings into the simulation's parameters.
// Call Validate first; an unknown batch order falls back to sorted.
func (c *Config) EmitterConfig() core.EmitterConfig {
	order, _ := core.ParseBatchOrder(c.BatchOrder)
	return core.EmitterConfig{
		Capacity:   c.Capacity,
		SpawnRate:  c.SpawnRate,
		SpawnCapDt: c.SpawnCapDt,
		Gravity:    c.Gravity,
		Spawn: core.SpawnParams{
			Origin:       c.Origin,
			BaseVelocity: c.BaseVelocity,
			Spread:       c.Spread,
			LifeRange:    c.LifeRange,
			SizeRange:    c.SizeRange,
		},
		Order: order,
		Model: mgl32.Translate3D(c.ModelTranslation.X(), c.ModelTranslation.Y(), c.ModelTranslation.Z()),
	}
}

// Modules returns the simulation modules configured by c, in install order.
func (c *Config) Modules() []Module {
	return []Module{
		TimeModule{},
		StatsModule{},
		CameraModule{
			Eye:         c.CameraEye,
			Speed:       c.MoveSpeed,
			Sensitivity: c.MouseSensitivity,
		},
		ParticleEmitterModule{
			Config:           c.EmitterConfig(),
			Culling:          c.Culling,
			CullProjection:   c.CullProjection,
			RenderProjection: c.RenderProjection,
			Seed:             c.Seed,
		},
	}
}

func knownKeys(v any) map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		if jsonTag := t.Field(i).Tag.Get("json"); jsonTag != "" {
			tagName := strings.Split(jsonTag, ",")[0]
			if tagName != "-" {
				keys[tagName] = true
			}
		}
	}
	return keys
}
