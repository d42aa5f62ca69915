package fountain

// Commands is the handle systems and modules use to change the App.
type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// AddEntity reserves an id now; the entity becomes visible to queries at the
// end of the current stage or module install.
func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.reserveEntityId()
	cmd.app.pendingAdds = append(cmd.app.pendingAdds, pendingAdd{eid: eid, components: components})
	return eid
}

func (cmd *Commands) AddComponents(eid EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingAdd{eid: eid, components: components})
}

func (cmd *Commands) RemoveEntity(eid EntityId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, eid)
}

// Exit stops Run after the current frame completes.
func (cmd *Commands) Exit() {
	cmd.app.requestExit()
}

// OnExit registers cleanup that Run performs once the loop ends.
func (cmd *Commands) OnExit(fn func()) *Commands {
	cmd.app.onExit = append(cmd.app.onExit, fn)
	return cmd
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

func (cmd *Commands) Frame() uint64 {
	return cmd.app.frame
}
