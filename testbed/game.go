package testbed

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/systems"
)

const (
	tableTexture   = "textures/table.jpg"
	pyramidTexture = "textures/wall.jpg"
	skyboxName     = "skybox"

	nearPlane float32 = 0.1
	farPlane  float32 = 100

	speedStep float32 = 0.5
	minSpeed  float32 = 0.5
	maxSpeed  float32 = 20
)

var skyboxFaces = [6]string{
	"textures/skybox/right.jpg",
	"textures/skybox/left.jpg",
	"textures/skybox/top.jpg",
	"textures/skybox/bottom.jpg",
	"textures/skybox/front.jpg",
	"textures/skybox/back.jpg",
}

// Point light positions, each drawn as a small emissive cube.
var lampPositions = []mgl32.Vec3{
	{-4, 3, 4},
	{4, 3, 4},
	{4, 3, -4},
	{-4, 3, -4},
}

var lampColors = []mgl32.Vec3{
	{5, 5, 5},
	{10, 0, 0},
	{0, 0, 15},
	{0, 5, 0},
}

// Pipelines visited by the cycle key, in order.
type pipelineMode uint8

const (
	modeForwardHDR pipelineMode = iota
	modeDeferred
	modeMSAA
	modeCount
)

func (m pipelineMode) String() string {
	switch m {
	case modeForwardHDR:
		return "forward HDR"
	case modeDeferred:
		return "deferred"
	case modeMSAA:
		return "MSAA"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera

	width  uint32
	height uint32

	frameConfig metadata.FrameConfig
	exposure    *systems.ExposureControl
	mode        pipelineMode
	firstMouse  bool

	objects []*metadata.RenderObject
	lamps   []*metadata.RenderObject
	skybox  *metadata.Skybox
}

func NewTestGame(ac *engine.ApplicationConfig) *TestGame {
	frameConfig := ac.FrameConfig
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: ac,
			State: &gameState{
				frameConfig: frameConfig,
				exposure:    systems.NewExposureControl(frameConfig.Exposure, ac.ExposureStep, ac.ExposurePolicy),
				mode:        modeFor(frameConfig),
				firstMouse:  true,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func modeFor(c metadata.FrameConfig) pipelineMode {
	switch c.PipelineKind() {
	case metadata.PipelineDeferred:
		return modeDeferred
	case metadata.PipelineMSAA:
		return modeMSAA
	}
	return modeForwardHDR
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	state := g.State.(*gameState)

	state.WorldCamera = g.SystemManager.CameraSystem.GetDefault()
	state.WorldCamera.SetPosition(mgl32.Vec3{14, 14, 12})
	// looking back at the origin
	state.WorldCamera.SetRotation(-139, -38)

	cube, err := g.SystemManager.GeometrySystem.Cube()
	if err != nil {
		return err
	}
	pyramid, err := g.SystemManager.GeometrySystem.Pyramid()
	if err != nil {
		return err
	}
	skyboxGeometry, err := g.SystemManager.GeometrySystem.Skybox()
	if err != nil {
		return err
	}

	if err := g.SystemManager.TextureSystem.Preload(g.SystemManager.JobSystem, []string{tableTexture, pyramidTexture}); err != nil {
		return err
	}
	table, err := g.SystemManager.TextureSystem.Acquire(tableTexture)
	if err != nil {
		return err
	}
	wall, err := g.SystemManager.TextureSystem.Acquire(pyramidTexture)
	if err != nil {
		return err
	}
	cubemap, err := g.SystemManager.TextureSystem.AcquireCubemap(skyboxName, skyboxFaces)
	if err != nil {
		return err
	}
	state.skybox = &metadata.Skybox{Geometry: skyboxGeometry, Cubemap: cubemap}

	tableTextures := map[metadata.TextureRole]metadata.TextureHandle{metadata.RoleDiffuse: table}
	pyramidTextures := map[metadata.TextureRole]metadata.TextureHandle{metadata.RoleDiffuse: wall}

	// Table top and its four edges.
	state.objects = append(state.objects, &metadata.RenderObject{
		Name:     "table",
		Geometry: cube,
		Model:    mgl32.Scale3D(12.5, 0.1, 12.5),
		Textures: tableTextures,
	})
	edge := mgl32.HomogRotate3DX(mgl32.DegToRad(90)).Mul4(mgl32.Scale3D(12.5, 0.1, 1))
	side := mgl32.HomogRotate3DY(mgl32.DegToRad(90)).Mul4(edge)
	edges := []mgl32.Mat4{
		mgl32.Translate3D(0, 0, 12.5).Mul4(edge),
		mgl32.Translate3D(0, 0, -12.5).Mul4(edge),
		mgl32.Translate3D(12.5, 0, 0).Mul4(side),
		mgl32.Translate3D(-12.5, 0, 0).Mul4(side),
	}
	for i, model := range edges {
		state.objects = append(state.objects, &metadata.RenderObject{
			Name:     fmt.Sprintf("table_edge_%d", i),
			Geometry: cube,
			Model:    model,
			Textures: tableTextures,
		})
	}

	pyramids := []struct {
		position mgl32.Vec3
		scale    float32
	}{
		{mgl32.Vec3{-9, 0.1, 8.5}, 5},
		{mgl32.Vec3{-9, 0.1, 4.3}, 3},
		{mgl32.Vec3{-6.7, 0.1, 6}, 1},
	}
	for i, p := range pyramids {
		model := mgl32.Translate3D(p.position.X(), p.position.Y(), p.position.Z()).
			Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(20))).
			Mul4(mgl32.Scale3D(p.scale, p.scale, p.scale))
		state.objects = append(state.objects, &metadata.RenderObject{
			Name:     fmt.Sprintf("pyramid_%d", i),
			Geometry: pyramid,
			Model:    model,
			Textures: pyramidTextures,
		})
	}

	for i, pos := range lampPositions {
		state.lamps = append(state.lamps, &metadata.RenderObject{
			Name:     fmt.Sprintf("lamp_%d", i),
			Geometry: cube,
			Model:    mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).Mul4(mgl32.Scale3D(0.25, 0.25, 0.25)),
			Emissive: true,
			Color:    lampColors[i],
		})
	}

	core.LogInfo("scene ready: %d objects, %d lights, pipeline %s", len(state.objects), len(state.lamps), state.mode)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	camera := state.WorldCamera
	dt := float32(deltaTime)

	if core.InputIsKeyDown(core.KEY_W) {
		camera.Move(components.CameraForward, dt)
	}
	if core.InputIsKeyDown(core.KEY_S) {
		camera.Move(components.CameraBackward, dt)
	}
	if core.InputIsKeyDown(core.KEY_A) {
		camera.Move(components.CameraLeft, dt)
	}
	if core.InputIsKeyDown(core.KEY_D) {
		camera.Move(components.CameraRight, dt)
	}

	if core.InputIsKeyPressed(core.KEY_UP) {
		camera.MovementSpeed = min(camera.MovementSpeed+speedStep, maxSpeed)
		core.LogInfo("camera speed: %.1f", camera.MovementSpeed)
	}
	if core.InputIsKeyPressed(core.KEY_DOWN) {
		camera.MovementSpeed = max(camera.MovementSpeed-speedStep, minSpeed)
		core.LogInfo("camera speed: %.1f", camera.MovementSpeed)
	}

	dx, dy := core.InputGetMouseDelta()
	if state.firstMouse {
		// the first delta is the jump from the origin to the cursor
		state.firstMouse = dx == 0 && dy == 0
	} else if dx != 0 || dy != 0 {
		// screen y grows downwards
		camera.Look(float32(dx), float32(-dy))
	}
	if scroll := core.InputGetScroll(); scroll != 0 {
		camera.ZoomBy(float32(scroll))
	}

	if core.InputIsKeyPressed(core.KEY_P) {
		pos := camera.GetPosition()
		core.LogInfo("Pos: [%.2f, %.2f, %.2f] Yaw: %.2f Pitch: %.2f", pos.X(), pos.Y(), pos.Z(), camera.Yaw, camera.Pitch)
	}

	g.handleToggles(state)
	return nil
}

func (g *TestGame) handleToggles(state *gameState) {
	c := &state.frameConfig

	if core.InputIsKeyPressed(core.KEY_B) {
		c.Bloom = !c.Bloom
		core.LogInfo("bloom: %t", c.Bloom)
	}
	if core.InputIsKeyPressed(core.KEY_H) {
		c.HDR = !c.HDR
		core.LogInfo("hdr: %t", c.HDR)
	}
	if core.InputIsKeyPressed(core.KEY_F) {
		c.Flashlight = !c.Flashlight
		core.LogInfo("flashlight: %t", c.Flashlight)
	}
	if core.InputIsKeyPressed(core.KEY_M) {
		state.mode = (state.mode + 1) % modeCount
		switch state.mode {
		case modeForwardHDR:
			c.HDR, c.Deferred, c.MSAA = true, false, false
		case modeDeferred:
			c.HDR, c.Deferred, c.MSAA = true, true, false
		case modeMSAA:
			c.HDR, c.Deferred, c.MSAA = false, false, true
		}
		core.LogInfo("pipeline: %s", state.mode)
	}
	if core.InputIsKeyPressed(core.KEY_X) {
		core.LogInfo("exposure: %.2f", state.exposure.Increase())
	}
	if core.InputIsKeyPressed(core.KEY_Z) {
		core.LogInfo("exposure: %.2f", state.exposure.Decrease())
	}
	c.Exposure = state.exposure.Value
}

func (g *TestGame) Render(packet *metadata.RenderPacket, deltaTime float64) error {
	state := g.State.(*gameState)
	camera := state.WorldCamera

	packet.Projection = camera.Projection(state.width, state.height, nearPlane, farPlane)
	packet.View = camera.GetView()
	packet.ViewPos = camera.GetPosition()
	packet.Config = state.frameConfig
	packet.Skybox = state.skybox

	packet.Objects = make([]*metadata.RenderObject, 0, len(state.objects)+len(state.lamps))
	packet.Objects = append(packet.Objects, state.objects...)
	packet.Objects = append(packet.Objects, state.lamps...)

	packet.Lights = metadata.Lights{
		Directional: metadata.DirectionalLight{
			Direction: mgl32.Vec3{-0.2, -1, -0.3},
			Ambient:   mgl32.Vec3{0.05, 0.05, 0.05},
			Diffuse:   mgl32.Vec3{0.4, 0.4, 0.4},
			Specular:  mgl32.Vec3{0.5, 0.5, 0.5},
		},
		Spot: metadata.SpotLight{
			Position:    camera.GetPosition(),
			Direction:   camera.Front(),
			Diffuse:     mgl32.Vec3{1, 1, 1},
			Specular:    mgl32.Vec3{1, 1, 1},
			Constant:    1,
			Linear:      0.09,
			Quadratic:   0.032,
			CutOff:      cosDeg(12.5),
			OuterCutOff: cosDeg(15),
		},
	}
	for i, pos := range lampPositions {
		packet.Lights.Points = append(packet.Lights.Points, metadata.PointLight{
			Position:  pos,
			Ambient:   lampColors[i].Mul(0.05),
			Diffuse:   lampColors[i],
			Specular:  mgl32.Vec3{1, 1, 1},
			Constant:  1,
			Linear:    0.09,
			Quadratic: 0.032,
		})
	}
	return nil
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg))))
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	state.objects = nil
	state.lamps = nil
	core.LogDebug("TestGame shutdown")
	return nil
}
