package main

import (
	"flag"
	"log"
	"runtime"

	"github.com/gekko3d/fountain"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "Path to a JSON settings file (created with defaults if missing)")
	renderer := flag.String("renderer", "", "Renderer: wgpu, gl or terminal")
	width := flag.Int("width", 0, "Window width in pixels")
	height := flag.Int("height", 0, "Window height in pixels")
	capacity := flag.Int("capacity", 0, "Particle pool capacity")
	cull := flag.Bool("cull", false, "Start with frustum culling enabled")
	batchOrder := flag.String("batch-order", "", "Render batch order: sorted or update-pass")
	debug := flag.Bool("debug", false, "Enable debug logging")
	hud := flag.Bool("hud", false, "Show the statistics overlay")
	flag.Parse()

	if flag.NArg() > 0 {
		log.Fatalf("Unknown arguments: %v", flag.Args())
	}

	logger := fountain.NewDefaultLogger("fountain", *debug)

	cfg, err := fountain.LoadConfig(*configPath, logger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "renderer":
			cfg.Renderer = *renderer
		case "width":
			cfg.WindowWidth = *width
		case "height":
			cfg.WindowHeight = *height
		case "capacity":
			cfg.Capacity = *capacity
		case "cull":
			cfg.Culling = *cull
		case "batch-order":
			cfg.BatchOrder = *batchOrder
		case "debug":
			cfg.Debug = *debug
		case "hud":
			cfg.HUD = *hud
		}
	})
	cfg.Validate(logger)
	logger.SetDebug(cfg.Debug)

	name, err := fountain.ParseRendererName(cfg.Renderer)
	if err != nil {
		log.Fatal(err)
	}

	app := fountain.NewApp()
	app.UseModules(fountain.LoggingModule{Logger: logger})
	app.UseModules(cfg.Modules()...)

	switch name {
	case fountain.RendererGL:
		app.UseGL(cfg.WindowWidth, cfg.WindowHeight)
	case fountain.RendererTerminal:
		app.UseTerminal(cfg.HUD)
	default:
		app.UseWGPU(cfg.WindowWidth, cfg.WindowHeight, cfg.HUD)
	}

	app.Run()
}
