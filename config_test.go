package fountain

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/fountain/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*DefaultLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWriterLogger("test", false, &buf, &buf), &buf
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 640, cfg.WindowWidth)
	assert.Equal(t, 480, cfg.WindowHeight)
	assert.Equal(t, "wgpu", cfg.Renderer)
	assert.Equal(t, 100000, cfg.Capacity)
	assert.Equal(t, mgl32.Vec3{0, -10.5, 0}, cfg.Gravity)
	assert.Equal(t, float32(2.0), cfg.Spread)
	assert.Equal(t, mgl32.Vec3{0, 5, 25}, cfg.CameraEye)
	assert.Equal(t, mgl32.Vec3{0, 0, -5}, cfg.ModelTranslation)
	assert.Equal(t, "sorted", cfg.BatchOrder)
	assert.False(t, cfg.Culling)
	assert.Equal(t, Projection{FovYDegrees: 75, Near: 1, Far: 75}, cfg.CullProjection)
	assert.Equal(t, Projection{FovYDegrees: 45, Near: 0.1, Far: 50}, cfg.RenderProjection)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_MissingFileIsCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fountain.json")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	reloaded, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fountain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"capacity": 500, "renderer": "gl", "gravity": [0, -2, 0]}`), 0644))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Capacity)
	assert.Equal(t, "gl", cfg.Renderer)
	assert.Equal(t, mgl32.Vec3{0, -2, 0}, cfg.Gravity)
	assert.Equal(t, float32(2.0), cfg.Spread)
}

func TestLoadConfig_UnknownKeyWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fountain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"capacity": 10, "sparkles": true}`), 0644))

	logger, buf := captureLogger()
	cfg, err := LoadConfig(path, logger)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Capacity)
	assert.Contains(t, buf.String(), "Unrecognised config key 'sparkles'")
}

func TestLoadConfig_MalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fountain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"capacity": `), 0644))

	logger, buf := captureLogger()
	cfg, err := LoadConfig(path, logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Contains(t, buf.String(), "Invalid config file")
}

func TestLoadConfig_WrongTypeFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fountain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"capacity": "lots"}`), 0644))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_UnreadablePathErrors(t *testing.T) {
	_, err := LoadConfig(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestConfig_ValidateClampsToDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowWidth = 0
	cfg.Renderer = "vulkan"
	cfg.Capacity = -3
	cfg.Spread = -1
	cfg.LifeRange = [2]float32{5, 1}
	cfg.SizeRange = [2]float32{-0.1, 0.5}
	cfg.BatchOrder = "random"
	cfg.CullProjection = Projection{FovYDegrees: 75, Near: 10, Far: 5}
	cfg.RenderProjection = Projection{FovYDegrees: 190, Near: 0.1, Far: 50}
	cfg.SpawnCapDt = 0

	logger, buf := captureLogger()
	cfg.Validate(logger)

	assert.Equal(t, DefaultConfig(), cfg)
	for _, name := range []string{"window_width", "renderer", "capacity", "spread", "life_range", "size_range", "batch_order", "cull_projection", "render_projection", "spawn_cap_dt"} {
		assert.Contains(t, buf.String(), "Invalid "+name)
	}
}

func TestConfig_ValidateRejectsNonPositiveLifetime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LifeRange = [2]float32{-1, 5}

	logger, buf := captureLogger()
	cfg.Validate(logger)

	assert.Equal(t, DefaultConfig().LifeRange, cfg.LifeRange)
	assert.Contains(t, buf.String(), "Invalid life_range")

	cfg.LifeRange = [2]float32{0, 5}
	cfg.Validate(logger)
	assert.Equal(t, DefaultConfig().LifeRange, cfg.LifeRange)
}

func TestConfig_ValidKeepsValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spread = 0
	cfg.SpawnRate = 0
	cfg.BatchOrder = "update-pass"

	logger, buf := captureLogger()
	cfg.Validate(logger)

	assert.Empty(t, buf.String())
	assert.Equal(t, float32(0), cfg.Spread)
	assert.Equal(t, "update-pass", cfg.BatchOrder)
}

func TestConfig_EmitterConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchOrder = "update-pass"
	cfg.Capacity = 42

	ec := cfg.EmitterConfig()
	def := core.DefaultEmitterConfig()

	assert.Equal(t, 42, ec.Capacity)
	assert.Equal(t, core.BatchOrderUpdatePass, ec.Order)
	assert.Equal(t, def.Model, ec.Model)
	assert.Equal(t, def.Spawn, ec.Spawn)
	assert.Equal(t, def.Gravity, ec.Gravity)
}

func TestConfig_ModulesBuildSimulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 64
	cfg.Culling = true

	app := NewApp()
	app.addResources(&Input{})
	app.UseModules(cfg.Modules()...)
	app.Step()

	em := emitterOf(app)
	require.NotNil(t, em)
	assert.Equal(t, 64, em.Emitter.Pool().Capacity())
	assert.True(t, em.Controls.Culling)

	fp := cameraOf(app)
	require.NotNil(t, fp)
	assert.Equal(t, cfg.CameraEye, fp.Camera.EyePosition())
}
