package systems

import (
	"runtime"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type SystemManager struct {
	RendererSystem     *RendererSystem
	CameraSystem       *CameraSystem
	TextureSystem      *TextureSystem
	ShaderSystem       *ShaderSystem
	GeometrySystem     *GeometrySystem
	RenderTargetSystem *RenderTargetSystem
	RenderViewSystem   *RenderViewSystem
	JobSystem          *JobSystem
}

func NewSystemManager(cfg *config.Config, backend renderer.RendererBackend, am *assets.AssetManager) (*SystemManager, error) {
	rs, err := NewRendererSystem(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height, backend)
	if err != nil {
		return nil, err
	}
	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: 61,
	})
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: 1024,
		MaxTextureSize:  4096,
	}, am, backend)
	if err != nil {
		return nil, err
	}
	ssys, err := NewShaderSystem(&ShaderSystemConfig{
		MaxShaderCount: 32,
	}, am, backend)
	if err != nil {
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: 4096,
	}, backend)
	if err != nil {
		return nil, err
	}
	rts, err := NewRenderTargetSystem(&RenderTargetSystemConfig{
		MaxTargetCount: 16,
	}, backend)
	if err != nil {
		return nil, err
	}
	rvs, err := NewRenderViewSystem(&RenderViewSystemConfig{
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		BlurAmount:  cfg.Pipeline.BlurAmount,
		MSAASamples: cfg.Pipeline.MSAASamples,
	}, backend, rts, ssys, ts, gs)
	if err != nil {
		return nil, err
	}
	js, err := NewJobSystem(runtime.NumCPU(), 64)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		RendererSystem:     rs,
		CameraSystem:       cs,
		TextureSystem:      ts,
		ShaderSystem:       ssys,
		GeometrySystem:     gs,
		RenderTargetSystem: rts,
		RenderViewSystem:   rvs,
		JobSystem:          js,
	}, nil
}

// Initialize brings the backend up and creates every GPU resource the pipelines need.
func (sm *SystemManager) Initialize() error {
	if err := sm.RendererSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.ShaderSystem.Initialize(); err != nil {
		return err
	}
	return sm.RenderViewSystem.Initialize()
}

func (sm *SystemManager) OnResize(width, height uint32) {
	sm.RendererSystem.OnResize(width, height)
}

func (sm *SystemManager) DrawFrame(packet *metadata.RenderPacket) error {
	return sm.RendererSystem.DrawFrame(packet, sm.RenderViewSystem)
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.RenderViewSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.RenderTargetSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.GeometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ShaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.CameraSystem.Shutdown(); err != nil {
		return err
	}
	return sm.RendererSystem.Shutdown()
}
