package fountain

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: NewApp()}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)

	return b
}

// Build installs every module immediately and returns the ready App.
func (b *AppBuilder) Build() *App {
	app := b.app
	app.UseModules(b.modules...)
	app.build()

	return app
}
