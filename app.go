package fountain

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type pendingAdd struct {
	eid        EntityId
	components []any
}

// Module installs resources and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

// App runs its systems stage by stage, one frame at a time, on the calling
// goroutine. Systems receive resources by declaring pointer parameters.
type App struct {
	modules   []Module
	installed int
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	ecs       *Ecs
	onExit    []func()

	// Entity changes requested by systems apply between stages.
	pendingAdds     []pendingAdd
	pendingCompAdds []pendingAdd
	pendingRemovals []EntityId

	exitRequested bool
	frame         uint64
}

func NewApp() *App {
	app := &App{
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
		ecs:       MakeEcs(),
	}
	for _, stage := range defaultStages {
		app.stages = append(app.stages, stage)
		app.systems[stage.Name] = make([]systemFn, 0)
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// UseModules queues modules; they are installed in order on the first frame.
func (app *App) UseModules(modules ...Module) *App {
	app.modules = append(app.modules, modules...)
	return app
}

func (app *App) build() {
	cmd := app.Commands()
	// Modules may queue further modules while installing.
	for app.installed < len(app.modules) {
		module := app.modules[app.installed]
		app.installed++
		module.Install(app, cmd)
		app.flushCommands()
	}
}

// Run steps frames until a system requests exit, then runs exit hooks.
func (app *App) Run() {
	app.build()
	app.Logger().Infof("Running %d modules over %d stages", len(app.modules), len(app.stages))

	for !app.exitRequested {
		app.Step()
	}
	app.shutdown()
}

// Step runs every stage once. A frame is never interrupted part-way.
func (app *App) Step() {
	app.build()
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		app.flushCommands()
	}
	app.frame++
}

func (app *App) Frame() uint64 {
	return app.frame
}

func (app *App) ExitRequested() bool {
	return app.exitRequested
}

func (app *App) requestExit() {
	app.exitRequested = true
}

// shutdown runs exit hooks in reverse registration order.
func (app *App) shutdown() {
	for i := len(app.onExit) - 1; i >= 0; i-- {
		app.onExit[i]()
	}
	app.onExit = nil
}

// flushCommands applies queued entity changes: removals, then new entities,
// then component additions.
func (app *App) flushCommands() {
	for _, eid := range app.pendingRemovals {
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdds {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdds = app.pendingAdds[:0]

	for _, add := range app.pendingCompAdds {
		if app.ecs.hasEntity(add.eid) {
			app.ecs.addComponents(add.eid, add.components...)
		}
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("%s is not a pointer resource", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T if one was added.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			app.unresolved(systemValue, systemType, argType)
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.unresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}
