package glbuild

// glslWarpKernel is the GLSL rendition of segfx.Sample. It expects segfxEps and
// the ssbo_segments buffer to be declared before it.
const glslWarpKernel = `
uniform vec4 uBounds; // Content rectangle: x, y, width, height.
uniform float uOffset;
uniform int uNumSegments;

float segfxRefY(vec2 a, vec2 b) {
	return 0.5*(a.y+b.y);
}

float segfxYAt(vec2 a, vec2 b, float x) {
	float dx = b.x - a.x;
	if (abs(dx) < segfxEps) {
		return segfxRefY(a, b);
	}
	return a.y + (b.y-a.y)*(x-a.x)/dx;
}

// segfxFrame returns the horizontal center and signed span of an edge.
vec2 segfxFrame(vec2 a, vec2 b, float width) {
	if (a.x == b.x && a.y == b.y) {
		return vec2(a.x, width);
	}
	return vec2(0.5*(a.x+b.x), b.x-a.x);
}

vec2 segfxSample(vec2 p) {
	int n = uNumSegments;
	if (n <= 0) {
		return p;
	}
	vec2 bmin = uBounds.xy;
	vec2 bmax = uBounds.xy + uBounds.zw;
	float width = uBounds.z;
	float centerX = bmin.x + 0.5*width;
	float x = p.x;
	float s = p.y + uOffset;
	if (s < bmin.y) {
		return vec2(x, s);
	}
	vec2 topA = bmin;
	vec2 topB = vec2(bmax.x, bmin.y);
	float srcTop = bmin.y;
	for (int i = 0; i <= n; i++) {
		vec2 botA = vec2(bmin.x, bmax.y);
		vec2 botB = bmax;
		float scale = 1.0;
		if (i < n) {
			int k = 5*i;
			botA = vec2(ssbo_segments[k], ssbo_segments[k+1]);
			botB = vec2(ssbo_segments[k+2], ssbo_segments[k+3]);
			scale = ssbo_segments[k+4];
		}
		float height = segfxRefY(botA, botB) - segfxRefY(topA, topB);
		float yB = segfxYAt(botA, botB, x);
		if (s < yB) {
			float yT = segfxYAt(topA, topB, x);
			float den = yB - yT;
			float t = abs(den) > segfxEps ? (s-yT)/den : 0.0;
			vec2 f = mix(segfxFrame(topA, topB, width), segfxFrame(botA, botB, width), t);
			float u = abs(f.y) > segfxEps ? (x-f.x)/f.y : 0.0;
			return vec2(centerX + u*width, srcTop + scale*t*height);
		}
		srcTop += scale*height;
		topA = botA;
		topB = botB;
	}
	return vec2(x, srcTop + s - bmax.y);
}
`

const glslFragmentMain = `
in vec2 vTexCoord;
out vec4 fragColor;

uniform sampler2D uContent;

void main() {
	// Texture rows are stored top first.
	vec2 uv = vec2(vTexCoord.x, 1.0-vTexCoord.y);
	vec2 q = segfxSample(uBounds.xy + uv*uBounds.zw);
	vec2 st = (q - uBounds.xy) / uBounds.zw;
	if (st.x < 0.0 || st.y < 0.0 || st.x > 1.0 || st.y > 1.0) {
		fragColor = vec4(0.0);
		return;
	}
	fragColor = texture(uContent, st);
}
`

// kageWarp is formatted with the maximum segment count, the uniform array
// length and the tolerance literal.
const kageWarp = `//kage:unit pixels

package main

const MaxSegments = %d

// Bounds is the content rectangle: x, y, width, height.
var Bounds vec4
var Offset float
var NumSegments float
var Segments [%d]float

const Eps = %s

func refY(a, b vec2) float {
	return 0.5 * (a.y + b.y)
}

func yAt(a, b vec2, x float) float {
	dx := b.x - a.x
	if abs(dx) < Eps {
		return refY(a, b)
	}
	return a.y + (b.y-a.y)*(x-a.x)/dx
}

func frame(a, b vec2, width float) vec2 {
	if a.x == b.x && a.y == b.y {
		return vec2(a.x, width)
	}
	return vec2(0.5*(a.x+b.x), b.x-a.x)
}

func segfxSample(p vec2) vec2 {
	n := int(NumSegments)
	if n <= 0 {
		return p
	}
	bmin := Bounds.xy
	bmax := Bounds.xy + Bounds.zw
	width := Bounds.z
	centerX := bmin.x + 0.5*width
	x := p.x
	s := p.y + Offset
	if s < bmin.y {
		return vec2(x, s)
	}
	topA := bmin
	topB := vec2(bmax.x, bmin.y)
	srcTop := bmin.y
	for i := 0; i <= MaxSegments; i++ {
		if i > n {
			break
		}
		botA := vec2(bmin.x, bmax.y)
		botB := bmax
		scale := 1.0
		if i < n {
			botA = vec2(Segments[i*5], Segments[i*5+1])
			botB = vec2(Segments[i*5+2], Segments[i*5+3])
			scale = Segments[i*5+4]
		}
		height := refY(botA, botB) - refY(topA, topB)
		yB := yAt(botA, botB, x)
		if s < yB {
			yT := yAt(topA, topB, x)
			den := yB - yT
			t := 0.0
			if abs(den) > Eps {
				t = (s - yT) / den
			}
			f := mix(frame(topA, topB, width), frame(botA, botB, width), t)
			u := 0.0
			if abs(f.y) > Eps {
				u = (x - f.x) / f.y
			}
			return vec2(centerX+u*width, srcTop+scale*t*height)
		}
		srcTop += scale * height
		topA = botA
		topB = botB
	}
	return vec2(x, srcTop+s-bmax.y)
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	q := segfxSample(srcPos - origin + Bounds.xy)
	return imageSrc0At(q - Bounds.xy + origin)
}
`

// wgslWarp is formatted with the tolerance literal and the workgroup size.
const wgslWarp = `struct Params {
    bounds: vec4<f32>,
    vertical_offset: f32,
    num_segments: u32,
    pad0: u32,
    pad1: u32,
}

@group(0) @binding(0) var<storage, read> positions: array<vec2<f32>>;
@group(0) @binding(1) var<storage, read_write> samples: array<vec2<f32>>;
@group(0) @binding(2) var<storage, read> segments: array<f32>;
@group(0) @binding(3) var<uniform> params: Params;

const EPS: f32 = %s;

fn segfx_ref_y(a: vec2<f32>, b: vec2<f32>) -> f32 {
    return 0.5 * (a.y + b.y);
}

fn segfx_y_at(a: vec2<f32>, b: vec2<f32>, x: f32) -> f32 {
    let dx = b.x - a.x;
    if (abs(dx) < EPS) {
        return segfx_ref_y(a, b);
    }
    return a.y + (b.y - a.y) * (x - a.x) / dx;
}

fn segfx_frame(a: vec2<f32>, b: vec2<f32>, width: f32) -> vec2<f32> {
    if (a.x == b.x && a.y == b.y) {
        return vec2<f32>(a.x, width);
    }
    return vec2<f32>(0.5 * (a.x + b.x), b.x - a.x);
}

fn segfx_sample(p: vec2<f32>) -> vec2<f32> {
    let n = i32(params.num_segments);
    if (n <= 0) {
        return p;
    }
    let bmin = params.bounds.xy;
    let bmax = params.bounds.xy + params.bounds.zw;
    let width = params.bounds.z;
    let center_x = bmin.x + 0.5 * width;
    let x = p.x;
    let s = p.y + params.vertical_offset;
    if (s < bmin.y) {
        return vec2<f32>(x, s);
    }
    var top_a = bmin;
    var top_b = vec2<f32>(bmax.x, bmin.y);
    var src_top = bmin.y;
    for (var i: i32 = 0; i <= n; i = i + 1) {
        var bot_a = vec2<f32>(bmin.x, bmax.y);
        var bot_b = bmax;
        var scale: f32 = 1.0;
        if (i < n) {
            let k = u32(5 * i);
            bot_a = vec2<f32>(segments[k], segments[k + 1u]);
            bot_b = vec2<f32>(segments[k + 2u], segments[k + 3u]);
            scale = segments[k + 4u];
        }
        let height = segfx_ref_y(bot_a, bot_b) - segfx_ref_y(top_a, top_b);
        let y_b = segfx_y_at(bot_a, bot_b, x);
        if (s < y_b) {
            let y_t = segfx_y_at(top_a, top_b, x);
            let den = y_b - y_t;
            var t: f32 = 0.0;
            if (abs(den) > EPS) {
                t = (s - y_t) / den;
            }
            let f = mix(segfx_frame(top_a, top_b, width), segfx_frame(bot_a, bot_b, width), vec2<f32>(t, t));
            var u: f32 = 0.0;
            if (abs(f.y) > EPS) {
                u = (x - f.x) / f.y;
            }
            return vec2<f32>(center_x + u * width, src_top + scale * t * height);
        }
        src_top = src_top + scale * height;
        top_a = bot_a;
        top_b = bot_b;
    }
    return vec2<f32>(x, src_top + s - bmax.y);
}

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let idx = id.x;
    if (idx >= arrayLength(&positions)) {
        return;
    }
    samples[idx] = segfx_sample(positions[idx]);
}
`
