package shaders

import (
	_ "embed"
)

//go:embed particle.wgsl
var ParticleWGSL string

//go:embed text.wgsl
var TextWGSL string

//go:embed particle.vert
var ParticleVertexGLSL string

//go:embed particle.frag
var ParticleFragmentGLSL string
