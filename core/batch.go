package core

// Uniform names the particle programs are expected to declare.
const (
	UniformModelMatrix      = "u_ModelMatrix"
	UniformViewMatrix       = "u_ViewMatrix"
	UniformProjectionMatrix = "u_ProjectionMatrix"
)

// QuadVertices is the 6-vertex quad every particle instance is drawn with.
var QuadVertices = [18]float32{
	-0.5, -0.5, 0.0,
	0.5, -0.5, 0.0,
	-0.5, 0.5, 0.0,
	-0.5, 0.5, 0.0,
	0.5, -0.5, 0.0,
	0.5, 0.5, 0.0,
}

const QuadVertexCount = 6

// RenderBatch is the per-frame instancing payload: Count entries of
// pos.xyz+size and rgba8, both packed four values per instance.
type RenderBatch struct {
	Positions []float32
	Colors    []uint8
	Count     int
}

func NewRenderBatch(capacity int) *RenderBatch {
	return &RenderBatch{
		Positions: make([]float32, capacity*4),
		Colors:    make([]uint8, capacity*4),
	}
}

func (b *RenderBatch) Reset() {
	b.Count = 0
}

// Append copies p into the next free slot. It reports false when full.
func (b *RenderBatch) Append(p *Particle) bool {
	i := b.Count * 4
	if i+4 > len(b.Positions) {
		return false
	}
	b.Positions[i+0] = p.Pos[0]
	b.Positions[i+1] = p.Pos[1]
	b.Positions[i+2] = p.Pos[2]
	b.Positions[i+3] = p.Size

	b.Colors[i+0] = p.R
	b.Colors[i+1] = p.G
	b.Colors[i+2] = p.B
	b.Colors[i+3] = p.A

	b.Count++
	return true
}

// PositionData and ColorData are the live prefixes to upload.
func (b *RenderBatch) PositionData() []float32 {
	return b.Positions[:b.Count*4]
}

func (b *RenderBatch) ColorData() []uint8 {
	return b.Colors[:b.Count*4]
}
