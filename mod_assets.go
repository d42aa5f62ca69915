package fountain

import (
	"fmt"

	"github.com/google/uuid"
)

// ProgramHandle is an opaque reference to a registered shader program.
type ProgramHandle string

type ShaderLanguage int

const (
	ShaderLanguageWGSL ShaderLanguage = iota
	ShaderLanguageGLSL
)

func (l ShaderLanguage) String() string {
	switch l {
	case ShaderLanguageWGSL:
		return "wgsl"
	case ShaderLanguageGLSL:
		return "glsl"
	default:
		return fmt.Sprintf("ShaderLanguage(%d)", int(l))
	}
}

// ProgramSource is a vertex/fragment pair. WGSL programs keep both entry
// points in Vertex and leave Fragment empty.
type ProgramSource struct {
	Name     string
	Language ShaderLanguage
	Vertex   string
	Fragment string
}

type ShaderLibrary struct {
	programs map[ProgramHandle]ProgramSource
	byName   map[string]ProgramHandle
}

// ShaderLibraryModule installs an empty ShaderLibrary.
type ShaderLibraryModule struct{}

func (ShaderLibraryModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[ShaderLibrary](app); ok {
		return
	}
	cmd.AddResources(NewShaderLibrary())
}

func NewShaderLibrary() *ShaderLibrary {
	return &ShaderLibrary{
		programs: make(map[ProgramHandle]ProgramSource),
		byName:   make(map[string]ProgramHandle),
	}
}

// LoadProgram registers src and returns its handle. A name that is already
// registered returns the existing handle and keeps the first source.
func (lib *ShaderLibrary) LoadProgram(src ProgramSource) ProgramHandle {
	if handle, ok := lib.byName[src.Name]; ok {
		return handle
	}

	handle := makeProgramHandle()
	lib.programs[handle] = src
	lib.byName[src.Name] = handle
	return handle
}

func (lib *ShaderLibrary) Program(handle ProgramHandle) (ProgramSource, error) {
	src, ok := lib.programs[handle]
	if !ok {
		return ProgramSource{}, fmt.Errorf("unknown shader program %q", handle)
	}
	return src, nil
}

func (lib *ShaderLibrary) Lookup(name string) (ProgramHandle, bool) {
	handle, ok := lib.byName[name]
	return handle, ok
}

func (lib *ShaderLibrary) Len() int {
	return len(lib.programs)
}

func makeProgramHandle() ProgramHandle {
	return ProgramHandle(uuid.NewString())
}

// ensureShaderLibrary returns the app's library, adding one if needed.
func ensureShaderLibrary(app *App, cmd *Commands) *ShaderLibrary {
	if lib, ok := Resource[ShaderLibrary](app); ok {
		return lib
	}
	lib := NewShaderLibrary()
	cmd.AddResources(lib)
	return lib
}
