package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Display blits a CPU-computed RGBA float image to the default framebuffer.
// The occlusion pipeline runs entirely on the CPU; this is only the window
// presentation path. Call from the main goroutine with the GL context
// current.
type Display struct {
	prog    uint32
	tex     uint32
	texLoc  int32
	quadVAO uint32 // empty VAO for the fullscreen triangle

	width, height int
}

// blitVertSrc — fullscreen triangle via gl_VertexID (no VBO needed).
const blitVertSrc = `
#version 410 core
out vec2 fragUV;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

const blitFragSrc = `
#version 410 core
in vec2 fragUV;
out vec4 outColor;
uniform sampler2D image;
void main() {
    // Image rows are stored top to bottom.
    vec2 uv = vec2(fragUV.x, 1.0 - fragUV.y);
    outColor = vec4(texture(image, uv).rgb, 1.0);
}
` + "\x00"

func NewDisplay() (*Display, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	prog, err := newProgram(blitVertSrc, blitFragSrc)
	if err != nil {
		return nil, fmt.Errorf("blit shader: %w", err)
	}

	d := &Display{
		prog:   prog,
		texLoc: gl.GetUniformLocation(prog, gl.Str("image\x00")),
	}

	gl.GenVertexArrays(1, &d.quadVAO)

	gl.GenTextures(1, &d.tex)
	gl.BindTexture(gl.TEXTURE_2D, d.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return d, nil
}

// Present uploads an RGB float image (3 floats per pixel, row-major from
// the top-left) and draws it over the whole viewport.
func (d *Display) Present(pixels []float32, width, height int) error {
	if len(pixels) != width*height*3 {
		return fmt.Errorf("pixel buffer size %d does not match %dx%d", len(pixels), width, height)
	}

	gl.BindTexture(gl.TEXTURE_2D, d.tex)
	if width != d.width || height != d.height {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB32F, int32(width), int32(height),
			0, gl.RGB, gl.FLOAT, gl.Ptr(pixels))
		d.width = width
		d.height = height
	} else {
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height),
			gl.RGB, gl.FLOAT, gl.Ptr(pixels))
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.UseProgram(d.prog)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.Uniform1i(d.texLoc, 0)
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.Enable(gl.DEPTH_TEST)
	return nil
}

// Destroy frees the GL objects.
func (d *Display) Destroy() {
	if d.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &d.quadVAO)
		d.quadVAO = 0
	}
	if d.tex != 0 {
		gl.DeleteTextures(1, &d.tex)
		d.tex = 0
	}
	if d.prog != 0 {
		gl.DeleteProgram(d.prog)
		d.prog = 0
	}
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
