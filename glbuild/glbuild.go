package glbuild

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/segfx"
)

const VersionStr = "#version 430\n"

// Binding points of the shader storage buffers used by the compute warp program.
const (
	BindingPositions = 0
	BindingSamples   = 1
	BindingSegments  = 2
)

// Uniform names shared by the GLSL renditions of the warp kernel.
const (
	UniformBounds      = "uBounds"
	UniformOffset      = "uOffset"
	UniformNumSegments = "uNumSegments"
	UniformContent     = "uContent"
)

// ShaderObject is a handle to a Shader Storage Buffer Object (SSBO) declared
// in a generated program: a 1D array of structured data bound at Binding.
type ShaderObject struct {
	// NamePtr is the name of the array inside of the SSBO.
	NamePtr []byte
	// BlockName is the name of the buffer block.
	BlockName string
	// Element is the element type of the buffer.
	Element reflect.Type
	// Binding specifies the resource's binding point during shader execution.
	Binding int
	// ReadOnly marks the buffer as only read by the shader.
	ReadOnly bool
}

// MakeShaderBuffer returns a [ShaderObject] for an SSBO holding elements of type T.
func MakeShaderBuffer[T any](blockName, name string, binding int, readOnly bool) (ssbo ShaderObject, err error) {
	var z T
	ssbo = ShaderObject{
		NamePtr:   []byte(name),
		BlockName: blockName,
		Element:   reflect.TypeOf(z),
		Binding:   binding,
		ReadOnly:  readOnly,
	}
	err = ssbo.Validate()
	if err != nil {
		return ShaderObject{}, err
	}
	return ssbo, nil
}

// Programmer implements shader generation logic for the warp kernel.
type Programmer struct {
	scratch       []byte
	computeHeader []byte
	// Invocations size in X (local group size) to give each compute work group.
	invocX int
}

var defaultComputeHeader = []byte("#shader compute\n" + VersionStr)

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch:       make([]byte, 0, 1024),
		computeHeader: defaultComputeHeader,
		invocX:        32,
	}
}

// SetComputeInvocations sets the work group local-sizes. x*y*z must be less than maximum number of invocations.
func (p *Programmer) SetComputeInvocations(x, y, z int) {
	if y != 1 || z != 1 {
		panic("unsupported")
	} else if x < 1 {
		panic("zero or negative X invocation size")
	}
	p.invocX = x
}

// ComputeInvocations returns the worker group invocation size in x y and z.
func (p *Programmer) ComputeInvocations() (int, int, int) {
	return p.invocX, 1, 1
}

// WarpObjects returns the storage buffers of the compute warp program in binding order:
// input positions, output samples and the flat segment buffer.
func (p *Programmer) WarpObjects() []ShaderObject {
	pos, _ := MakeShaderBuffer[ms2.Vec]("PositionsBuffer", "vbo_positions", BindingPositions, true)
	samples, _ := MakeShaderBuffer[ms2.Vec]("SamplesBuffer", "vbo_samples", BindingSamples, false)
	segs, _ := MakeShaderBuffer[float32]("SegmentsBuffer", "ssbo_segments", BindingSegments, true)
	return []ShaderObject{pos, samples, segs}
}

// WriteWarpDecl writes the GLSL declaration of the warp kernel: the segment
// buffer, the kernel uniforms and the function
//
//	vec2 segfxSample(vec2 p)
//
// which returns the content position drawn at pixel p.
func (p *Programmer) WriteWarpDecl(w io.Writer) (n int, err error) {
	b := p.scratch[:0]
	b = append(b, '\n')
	b = AppendFloatDecl(b, "const float segfxEps", segfx.Tolerance)
	b, err = AppendShaderBufferDecl(b, p.WarpObjects()[BindingSegments])
	if err != nil {
		return 0, err
	}
	b = append(b, glslWarpKernel...)
	p.scratch = b
	return w.Write(b)
}

// WriteComputeWarp creates the bare bones I/O compute program that evaluates
// the warp kernel for a buffer of positions and writes it to the writer.
// See [Programmer.WarpObjects] for the buffer bindings.
func (p *Programmer) WriteComputeWarp(w io.Writer) (int, error) {
	n, err := w.Write(p.computeHeader)
	if err != nil {
		return n, err
	}
	ngot, err := p.WriteWarpDecl(w)
	n += ngot
	if err != nil {
		return n, err
	}
	objs := p.WarpObjects()
	b := p.scratch[:0]
	b = fmt.Appendf(b, "\nlayout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;\n\n", p.invocX)
	b = append(b, "// Input: pixel positions at which to sample content.\n"...)
	b, err = AppendShaderBufferDecl(b, objs[BindingPositions])
	if err != nil {
		return n, err
	}
	b = append(b, "\n// Output: content positions. Maps to position buffer.\n"...)
	b, err = AppendShaderBufferDecl(b, objs[BindingSamples])
	if err != nil {
		return n, err
	}
	b = append(b, `
void main() {
	int idx = int( gl_GlobalInvocationID.x );
	if (idx >= vbo_positions.length()) {
		return;
	}
	vbo_samples[idx] = segfxSample(vbo_positions[idx]);
}
`...)
	p.scratch = b
	ngot, err = w.Write(b)
	n += ngot
	return n, err
}

// WriteFragmentWarp writes a fragment shader that draws the uContent texture
// through the warp kernel. It expects a full screen quad with texture
// coordinates in vTexCoord. Positions outside the content are transparent.
func (p *Programmer) WriteFragmentWarp(w io.Writer) (int, error) {
	n, err := w.Write([]byte("#version 460\n"))
	if err != nil {
		return n, err
	}
	ngot, err := p.WriteWarpDecl(w)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = w.Write([]byte(glslFragmentMain))
	n += ngot
	return n, err
}

// WriteKageWarp writes an ebiten Kage shader that draws source image 0
// through the warp kernel. Kage uniform arrays are fixed size so the shader
// supports at most maxSegments segments.
func (p *Programmer) WriteKageWarp(w io.Writer, maxSegments int) (int, error) {
	if maxSegments < 1 {
		return 0, errors.New("kage warp requires room for at least one segment")
	}
	b := p.scratch[:0]
	b = fmt.Appendf(b, kageWarp, maxSegments, maxSegments*5, AppendFloat(nil, '-', '.', segfx.Tolerance))
	p.scratch = b
	return w.Write(b)
}

// WriteWGSLComputeWarp writes the WGSL rendition of the compute warp program.
// Bindings 0 through 2 in group 0 match [Programmer.WarpObjects] and binding 3
// holds the kernel parameters as a uniform struct:
//
//	struct Params { bounds: vec4<f32>, vertical_offset: f32, num_segments: u32, pad0: u32, pad1: u32 }
func (p *Programmer) WriteWGSLComputeWarp(w io.Writer) (int, error) {
	b := p.scratch[:0]
	b = fmt.Appendf(b, wgslWarp, AppendFloat(nil, '-', '.', segfx.Tolerance), p.invocX)
	p.scratch = b
	return w.Write(b)
}

// AppendShaderBufferDecl appends the [ShaderObject] as a Shader Storage Buffer Object (SSBO) declaration.
//
//	layout(<ssbo.std>, binding = <base>) buffer <BlockName> {
//		<ssbo.Element> <ssbo.NamePtr>[];
//	};
func AppendShaderBufferDecl(dst []byte, ssbo ShaderObject) ([]byte, error) {
	err := ssbo.Validate()
	if err != nil {
		return dst, err
	} else if ssbo.BlockName == "" {
		return dst, errors.New("AppendShaderBufferDecl requires BlockName for a valid SSBO declaration")
	}
	typename, std, err := glTypename(ssbo.Element)
	if err != nil {
		return dst, fmt.Errorf("typename failed for %q: %w", ssbo.NamePtr, err)
	}
	dst = append(dst, "layout("...)
	dst = append(dst, std...)
	dst = append(dst, ", binding = "...)
	dst = strconv.AppendInt(dst, int64(ssbo.Binding), 10)
	dst = append(dst, ") "...)
	if ssbo.ReadOnly {
		dst = append(dst, "readonly "...)
	}
	dst = append(dst, "buffer "...)
	dst = append(dst, ssbo.BlockName...)
	dst = append(dst, " {\n\t"...)
	dst = append(dst, typename...)
	dst = append(dst, ' ')
	dst = append(dst, ssbo.NamePtr...)
	dst = append(dst, "[];\n};\n"...)
	return dst, nil
}

func (obj ShaderObject) Validate() error {
	if len(obj.NamePtr) == 0 {
		return errors.New("shader object zero-length name")
	} else if obj.Binding < 0 {
		return errors.New("shader object negative binding point")
	}
	_, _, err := glTypename(obj.Element)
	return err
}

func glTypename(tp reflect.Type) (typename, std string, err error) {
	std = "std430"
	switch tp {
	case reflect.TypeOf(float32(0)):
		typename = "float"
	case reflect.TypeOf(ms2.Vec{}):
		typename = "vec2"
	case reflect.TypeOf([2]ms2.Vec{}):
		typename = "vec4"
	case reflect.TypeOf(uint32(0)):
		typename = "uint"
	case reflect.TypeOf(int32(0)):
		typename = "int"
	case nil:
		err = errors.New("nil element type")
	default:
		err = fmt.Errorf("equivalent type not implemented for %s", tp.String())
	}
	return typename, std, err
}

// AppendFloatDecl appends a float declaration and assignment.
//
//	<floatVarname> = <v>;
func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, floatVarname...)
	b = append(b, " = "...)
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ";\n"...)
	return b
}

const decimalDigits = 9

// AppendFloat appends v in decimal notation to b with trailing zeros trimmed.
// neg and decimal replace the minus sign and decimal point.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Trim zeroes, keeping one decimal so the literal stays a float.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start+1 && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}
