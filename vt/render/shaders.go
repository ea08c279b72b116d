package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/spirv"
)

// Shader names the small fixed shader library §4.11 allows a GPU-backed
// Recorder to draw with: one pipeline per draw primitive (geometry, bitmap,
// label glyph) plus one per non-separable CompOp that needs a fragment
// blend equation instead of a fixed-function blend state
// (CompOp.NeedsShaderBlend).
type Shader int

const (
	ShaderGeometry Shader = iota
	ShaderBitmap
	ShaderLabel
	ShaderBlendMultiply
	ShaderBlendScreen
	ShaderBlendDarken
	ShaderBlendLighten
)

// shaderSource is the WGSL text for each Shader, compiled on demand via
// naga. Kept deliberately small and vertex-format-matched to
// GeometryLayoutParameters (position:short[2] normalized, attribs:sbyte[4]
// normalized, optional texCoord/binormal/height) rather than a general
// shading language abstraction.
var shaderSource = map[Shader]string{
	ShaderGeometry: `
struct VertexIn {
  @location(0) position: vec2<f32>,
  @location(1) attribs: vec4<f32>,
}
struct VertexOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) attribs: vec4<f32>,
}
@vertex
fn vs_main(in: VertexIn) -> VertexOut {
  var out: VertexOut;
  out.clip_position = vec4<f32>(in.position, 0.0, 1.0);
  out.attribs = in.attribs;
  return out;
}
@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
  return in.attribs;
}
`,
	ShaderBitmap: `
struct VertexIn {
  @location(0) position: vec2<f32>,
  @location(1) tex_coord: vec2<f32>,
}
struct VertexOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) tex_coord: vec2<f32>,
}
@group(0) @binding(0) var atlas_tex: texture_2d<f32>;
@group(0) @binding(1) var atlas_sampler: sampler;
@vertex
fn vs_main(in: VertexIn) -> VertexOut {
  var out: VertexOut;
  out.clip_position = vec4<f32>(in.position, 0.0, 1.0);
  out.tex_coord = in.tex_coord;
  return out;
}
@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
  return textureSample(atlas_tex, atlas_sampler, in.tex_coord);
}
`,
	ShaderLabel: `
struct VertexIn {
  @location(0) position: vec2<f32>,
  @location(1) tex_coord: vec2<f32>,
  @location(2) color: vec4<f32>,
}
struct VertexOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) tex_coord: vec2<f32>,
  @location(1) color: vec4<f32>,
}
@group(0) @binding(0) var glyph_tex: texture_2d<f32>;
@group(0) @binding(1) var glyph_sampler: sampler;
@vertex
fn vs_main(in: VertexIn) -> VertexOut {
  var out: VertexOut;
  out.clip_position = vec4<f32>(in.position, 0.0, 1.0);
  out.tex_coord = in.tex_coord;
  out.color = in.color;
  return out;
}
@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
  let a = textureSample(glyph_tex, glyph_sampler, in.tex_coord).a;
  return vec4<f32>(in.color.rgb, in.color.a * a);
}
`,
}

// blendEquation is the fragment-shader body swapped into the geometry
// shader's fs_main for a non-separable CompOp (§4.12): source and
// destination color are both sampled so the equation can mix channels that
// a fixed-function blend state cannot express.
var blendEquation = map[Shader]string{
	ShaderBlendMultiply: "src.rgb * dst.rgb",
	ShaderBlendScreen:   "vec3<f32>(1.0) - (vec3<f32>(1.0) - src.rgb) * (vec3<f32>(1.0) - dst.rgb)",
	ShaderBlendDarken:   "min(src.rgb, dst.rgb)",
	ShaderBlendLighten:  "max(src.rgb, dst.rgb)",
}

var (
	compileOnce sync.Map // Shader -> *compiledShader
)

type compiledShader struct {
	spirv []byte
	err   error
}

// Compile translates a Shader's WGSL source to SPIR-V via naga, caching the
// result since the library is fixed and frame-invariant. A GPU-backed
// Recorder calls this once per pipeline at initialization rather than per
// draw call.
func Compile(s Shader) ([]byte, error) {
	if cached, ok := compileOnce.Load(s); ok {
		c := cached.(*compiledShader)
		return c.spirv, c.err
	}
	src, ok := shaderSource[s]
	if !ok {
		eq, ok2 := blendEquation[s]
		if !ok2 {
			err := fmt.Errorf("render: unknown shader %d", s)
			compileOnce.Store(s, &compiledShader{err: err})
			return nil, err
		}
		src = compositeBlendShaderSource(eq)
	}
	opts := naga.CompileOptions{
		SPIRVVersion: spirv.Version1_3,
		Validate:     true,
	}
	bytes, err := naga.CompileWithOptions(src, opts)
	compileOnce.Store(s, &compiledShader{spirv: bytes, err: err})
	return bytes, err
}

// compositeBlendShaderSource builds a full shader module for a
// NeedsShaderBlend CompOp by splicing its blend equation into the geometry
// fragment shader, sampling both the incoming fragment color (src) and the
// current accumulator contents (dst) bound as a texture.
func compositeBlendShaderSource(equation string) string {
	return fmt.Sprintf(`
struct VertexIn {
  @location(0) position: vec2<f32>,
  @location(1) attribs: vec4<f32>,
}
struct VertexOut {
  @builtin(position) clip_position: vec4<f32>,
  @location(0) attribs: vec4<f32>,
}
@group(0) @binding(0) var accum_tex: texture_2d<f32>;
@vertex
fn vs_main(in: VertexIn) -> VertexOut {
  var out: VertexOut;
  out.clip_position = vec4<f32>(in.position, 0.0, 1.0);
  out.attribs = in.attribs;
  return out;
}
@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
  let src = in.attribs;
  let dst = textureLoad(accum_tex, vec2<i32>(in.clip_position.xy), 0);
  let blended = %s;
  return vec4<f32>(blended, src.a);
}
`, equation)
}
