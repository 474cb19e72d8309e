package main

import (
	"flag"
	"fmt"
	"log"
	stdmath "math"
	"time"

	"distfield-gi/core"
	"distfield-gi/dfao"
	"distfield-gi/internal/opengl"
	sceneio "distfield-gi/io"
	"distfield-gi/math"
	"distfield-gi/scene"
)

type viewMode int

const (
	viewLit viewMode = iota
	viewOcclusion
	viewBentNormal
	viewIrradiance
	viewMarchDebug
)

// demoState tracks the interactive toggles between frames.
type demoState struct {
	mode       viewMode
	orbiting   bool
	orbitAngle float32
	was        map[int]bool
}

func (d *demoState) pressed(w *core.Window, key int) bool {
	down := w.IsKeyPressed(key)
	fired := down && !d.was[key]
	d.was[key] = down
	return fired
}

func main() {
	scenePath := flag.String("scene", "", "path to a .dfscene file (default: built-in demo scene)")
	width := flag.Int("width", 480, "render width in pixels")
	height := flag.Int("height", 270, "render height in pixels")
	irradiance := flag.Bool("irradiance", true, "gather one-bounce irradiance")
	flag.Parse()

	if err := run(*scenePath, *width, *height, *irradiance); err != nil {
		log.Fatal(err)
	}
}

func run(scenePath string, width, height int, irradiance bool) error {
	var sf *sceneio.SceneFile
	if scenePath != "" {
		loaded, err := sceneio.LoadScene(scenePath)
		if err != nil {
			return err
		}
		sf = loaded
	} else {
		sf = sceneio.NewDefaultSceneFile("demo")
	}

	cfg := dfao.DefaultConfig()
	sceneio.ApplyConfig(&cfg, &sf.Settings)
	if irradiance {
		cfg.Features |= dfao.FeatureIrradiance
	}

	ratio := float32(width) / float32(height)
	s, cam, err := sceneio.BuildScene(sf, ratio)
	if err != nil {
		return err
	}

	winCfg := core.DefaultWindowConfig()
	winCfg.Title = "Distance Field GI - " + sf.Name
	window, err := core.NewWindow(winCfg)
	if err != nil {
		return err
	}
	defer window.Destroy()

	display, err := opengl.NewDisplay()
	if err != nil {
		return err
	}
	defer display.Destroy()

	pipeline := dfao.NewPipeline(cfg)
	image := make([]float32, width*height*3)
	output := dfao.NewOutputBuffer(width, height, cfg.Features.Has(dfao.FeatureIrradiance))

	target := toVec3(sf.Camera.Target)
	orbitRadius := cam.Position.Sub(target).Length()
	orbitHeight := cam.Position.Y

	state := &demoState{
		mode:     viewLit,
		orbiting: true,
		was:      map[int]bool{},
	}

	frame := 0
	lastReport := time.Now()
	for !window.ShouldClose() {
		window.PollEvents()
		handleInput(window, state, pipeline)
		if window.IsKeyPressed(core.KeyEscape) {
			break
		}

		if state.orbiting {
			state.orbitAngle += 0.004
			sin, cos := float32(stdmath.Sin(float64(state.orbitAngle))), float32(stdmath.Cos(float64(state.orbitAngle)))
			cam.SetPosition(math.Vec3{
				X: target.X + orbitRadius*sin,
				Y: orbitHeight,
				Z: target.Z + orbitRadius*cos,
			})
			cam.LookAt(target, math.Vec3Up)
		}

		s.BeginFrame()
		cam.BeginFrame()

		full := scene.RenderGBuffer(s, cam, width, height, 1)
		low := scene.RenderGBuffer(s, cam, width, height, cfg.DownsampleFactor)
		result := pipeline.RenderFrame(s, cam, low)
		pipeline.Upsample(result, full.Depth, full.FarDepth, output)

		composeImage(state.mode, s, full, output, pipeline.Visualization(), image)
		if err := display.Present(image, width, height); err != nil {
			return err
		}
		window.SwapBuffers()

		s.EndFrame()
		frame++
		if time.Since(lastReport) >= time.Second {
			lastReport = time.Now()
			t := pipeline.Timings
			fmt.Printf("frame %d: %d records, cull %v, records %v, splat %v, temporal %v, total %v\n",
				frame, t.NumRecords, t.Cull, t.Records, t.Splat, t.Reproject+t.Stabilize, t.Total)
		}
	}
	return nil
}

func handleInput(w *core.Window, state *demoState, p *dfao.Pipeline) {
	if state.pressed(w, core.Key1) {
		state.mode = viewLit
	}
	if state.pressed(w, core.Key2) {
		state.mode = viewOcclusion
	}
	if state.pressed(w, core.Key3) {
		state.mode = viewBentNormal
	}
	if state.pressed(w, core.Key4) {
		state.mode = viewIrradiance
	}
	if state.pressed(w, core.KeyV) {
		if state.mode == viewMarchDebug {
			state.mode = viewLit
			p.Config.Features &^= dfao.FeatureVisualization
		} else {
			state.mode = viewMarchDebug
			p.Config.Features |= dfao.FeatureVisualization
		}
	}
	if state.pressed(w, core.KeyP) {
		state.orbiting = !state.orbiting
	}
	if state.pressed(w, core.KeySpace) {
		p.ResetHistory()
	}
}

// composeImage turns the selected buffer into an RGB image.
func composeImage(mode viewMode, s *scene.Scene, g *scene.GBuffer, out *dfao.OutputBuffer, vis *dfao.VisualizationBuffer, image []float32) {
	sky := s.SkyColor.ToVec3()
	sun := s.SunColor.ToVec3()

	for i := 0; i < g.Width*g.Height; i++ {
		var c math.Vec3
		skyPixel := g.Depth[i] >= g.FarDepth
		x := i % g.Width
		y := i / g.Width

		switch mode {
		case viewLit:
			if skyPixel {
				c = sky
			} else {
				nl := math.Saturate(g.Normal[i].Dot(s.SunDirection))
				direct := sun.Mul(nl)
				ambient := sky.Mul(0.4 * out.Occlusion[i])
				if out.Irradiance != nil {
					ambient = ambient.Add(out.Irradiance[i])
				}
				c = direct.Add(ambient).Mul(0.5)
			}
		case viewOcclusion:
			v := out.Occlusion[i]
			if skyPixel {
				v = 1
			}
			c = math.Vec3{X: v, Y: v, Z: v}
		case viewBentNormal:
			if !skyPixel {
				bn := out.BentNormal[i]
				c = bn.Mul(0.5).Add(math.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
			}
		case viewIrradiance:
			if !skyPixel && out.Irradiance != nil {
				c = out.Irradiance[i]
			}
		case viewMarchDebug:
			if vis != nil {
				c = marchDebugColor(vis, x*vis.Width/g.Width, y*vis.Height/g.Height)
			}
		}

		image[i*3+0] = math.Saturate(c.X)
		image[i*3+1] = math.Saturate(c.Y)
		image[i*3+2] = math.Saturate(c.Z)
	}
}

// marchDebugColor maps step counts to a heat ramp; inconclusive marches
// show magenta.
func marchDebugColor(vis *dfao.VisualizationBuffer, x, y int) math.Vec3 {
	i := y*vis.Width + x
	heat := math.Smoothstep(0, 64, float32(vis.Steps[i]))
	switch vis.Hits[i] {
	case dfao.VisInconclusive:
		return math.Vec3{X: 1, Z: 1}
	case dfao.VisHit:
		return math.Vec3{X: heat, Y: 1 - heat}
	default:
		return math.Vec3{X: heat}.Mul(0.5)
	}
}

func toVec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}
