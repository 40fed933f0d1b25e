package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const uniformCacheSize = 256

type program struct {
	id        uint32
	locations *lru.Cache[string, int32]
}

// location returns the cached uniform location, -1 when the program does not expose name.
func (p *program) location(name string) int32 {
	if loc, ok := p.locations.Get(name); ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations.Add(name, loc)
	return loc
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
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
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func (b *Backend) ShaderCreate(shader *metadata.Shader, config *metadata.ShaderConfig) error {
	id, err := newProgram(config.VertexSource, config.FragmentSource)
	if err != nil {
		return fmt.Errorf("shader %s: %w", config.Name, err)
	}
	cache, err := lru.New[string, int32](uniformCacheSize)
	if err != nil {
		gl.DeleteProgram(id)
		return err
	}
	shader.ID = id
	shader.Name = config.Name
	shader.InternalData = &program{id: id, locations: cache}
	return nil
}

func (b *Backend) ShaderDestroy(shader *metadata.Shader) {
	if p, ok := shader.InternalData.(*program); ok {
		gl.DeleteProgram(p.id)
	}
	shader.InternalData = nil
}

func (b *Backend) ShaderUse(shader *metadata.Shader) error {
	p, ok := shader.InternalData.(*program)
	if !ok {
		return fmt.Errorf("shader %s: %w", shader.Name, core.ErrShaderNotFound)
	}
	gl.UseProgram(p.id)
	return nil
}

func (b *Backend) SetUniform(shader *metadata.Shader, name string, value interface{}) error {
	p, ok := shader.InternalData.(*program)
	if !ok {
		return fmt.Errorf("shader %s: %w", shader.Name, core.ErrShaderNotFound)
	}
	loc := p.location(name)
	if loc < 0 {
		return fmt.Errorf("%s: %q: %w", shader.Name, name, core.ErrUniformNotFound)
	}
	switch v := value.(type) {
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.ProgramUniform1i(p.id, loc, i)
	case int32:
		gl.ProgramUniform1i(p.id, loc, v)
	case float32:
		gl.ProgramUniform1f(p.id, loc, v)
	case mgl32.Vec2:
		gl.ProgramUniform2fv(p.id, loc, 1, &v[0])
	case mgl32.Vec3:
		gl.ProgramUniform3fv(p.id, loc, 1, &v[0])
	case mgl32.Vec4:
		gl.ProgramUniform4fv(p.id, loc, 1, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(p.id, loc, 1, false, &v[0])
	default:
		return fmt.Errorf("%s: %q got %T: %w", shader.Name, name, value, core.ErrUniformType)
	}
	return nil
}
