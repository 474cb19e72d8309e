package io

import (
	"encoding/json"
	"fmt"
	"os"

	"distfield-gi/core"
	"distfield-gi/dfao"
	"distfield-gi/math"
	"distfield-gi/scene"
)

// SceneFile is the top-level structure for the .dfscene format
type SceneFile struct {
	Version  string        `json:"version"`
	Name     string        `json:"name"`
	Camera   CameraData    `json:"camera"`
	Lighting LightingData  `json:"lighting"`
	Objects  []ObjectData  `json:"objects"`
	Settings SceneSettings `json:"settings"`
}

// CameraData stores camera state
type CameraData struct {
	Position [3]float32 `json:"position"`
	Target   [3]float32 `json:"target"`
	FOV      float32    `json:"fov"`
	Near     float32    `json:"near"`
	Far      float32    `json:"far"`
}

// LightingData stores the environment used by the irradiance gather
type LightingData struct {
	SkyColor     [4]float32 `json:"sky_color"`
	SunDirection [3]float32 `json:"sun_direction"`
	SunColor     [4]float32 `json:"sun_color"`
}

// ObjectData stores one distance-field object
type ObjectData struct {
	Name     string     `json:"name"`
	Shape    string     `json:"shape"` // "sphere", "box", "torus", "cylinder", "ground", "mesh"
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // quaternion (x,y,z,w)
	Scale    [3]float32 `json:"scale"`
	Albedo   [4]float32 `json:"albedo"`

	// Shape parameters; which apply depends on Shape.
	Radius     float32    `json:"radius,omitempty"`
	HalfExtent [3]float32 `json:"half_extent,omitempty"`
	Major      float32    `json:"major,omitempty"`
	Minor      float32    `json:"minor,omitempty"`
	HalfHeight float32    `json:"half_height,omitempty"`
	HalfSize   float32    `json:"half_size,omitempty"`
	Thickness  float32    `json:"thickness,omitempty"`
	MeshFile   string     `json:"mesh_file,omitempty"`
	Resolution int        `json:"resolution,omitempty"`
}

// SceneSettings stores pipeline overrides; zero fields keep the defaults
type SceneSettings struct {
	DownsampleFactor  int     `json:"downsample_factor,omitempty"`
	OcclusionDistance float32 `json:"occlusion_distance,omitempty"`
	MaxViewDistance   float32 `json:"max_view_distance,omitempty"`
	RecordSpacing     int     `json:"record_spacing,omitempty"`
	NumConeDirections int     `json:"num_cone_directions,omitempty"`
	HistoryWeight     float32 `json:"history_weight,omitempty"`
	Irradiance        bool    `json:"irradiance,omitempty"`
}

const defaultResolution = 33

// SaveScene serializes scene data to a .dfscene JSON file
func SaveScene(path string, sf *SceneFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadScene deserializes a .dfscene JSON file
func LoadScene(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	sf := &SceneFile{}
	if err := json.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("failed to parse scene file: %w", err)
	}
	return sf, nil
}

// NewDefaultSceneFile creates a scene file with a sphere hovering over a
// ground slab, the smallest setup that shows contact occlusion.
func NewDefaultSceneFile(name string) *SceneFile {
	return &SceneFile{
		Version: "1.0",
		Name:    name,
		Camera: CameraData{
			Position: [3]float32{6, 5, 8},
			Target:   [3]float32{0, 1, 0},
			FOV:      60.0,
			Near:     0.1,
			Far:      100.0,
		},
		Lighting: LightingData{
			SkyColor:     [4]float32{0.45, 0.55, 0.7, 1},
			SunDirection: [3]float32{0.3, 0.8, 0.5},
			SunColor:     [4]float32{1, 0.95, 0.85, 1},
		},
		Objects: []ObjectData{
			{
				Name:     "sphere",
				Shape:    "sphere",
				Position: [3]float32{0, 1.6, 0},
				Rotation: [4]float32{0, 0, 0, 1},
				Scale:    [3]float32{1, 1, 1},
				Albedo:   [4]float32{0.7, 0.3, 0.2, 1},
				Radius:   1,
			},
			{
				Name:      "ground",
				Shape:     "ground",
				Rotation:  [4]float32{0, 0, 0, 1},
				Scale:     [3]float32{1, 1, 1},
				Albedo:    [4]float32{0.6, 0.6, 0.6, 1},
				HalfSize:  20,
				Thickness: 0.5,
			},
		},
	}
}

// BuildScene instantiates the runtime scene and camera described by a scene
// file. Ratio is the display aspect ratio.
func BuildScene(sf *SceneFile, ratio float32) (*scene.Scene, *scene.Camera, error) {
	s := scene.NewScene()
	s.SkyColor = toColor(sf.Lighting.SkyColor)
	s.SunColor = toColor(sf.Lighting.SunColor)
	if dir := toVec3(sf.Lighting.SunDirection); dir.Length() > 0 {
		s.SunDirection = dir.Normalize()
	}

	for i := range sf.Objects {
		obj, err := buildObject(&sf.Objects[i])
		if err != nil {
			return nil, nil, fmt.Errorf("object %q: %w", sf.Objects[i].Name, err)
		}
		s.AddObject(obj)
	}

	fov := sf.Camera.FOV * math.DegToRad
	cam := scene.NewCamera(fov, ratio, sf.Camera.Near, sf.Camera.Far)
	cam.SetPosition(toVec3(sf.Camera.Position))
	cam.LookAt(toVec3(sf.Camera.Target), math.Vec3Up)
	return s, cam, nil
}

func buildObject(d *ObjectData) (*scene.Object, error) {
	res := d.Resolution
	if res <= 0 {
		res = defaultResolution
	}

	var obj *scene.Object
	switch d.Shape {
	case "sphere":
		obj = scene.NewSphereObject(d.Name, d.Radius, res)
	case "box":
		obj = scene.NewBoxObject(d.Name, toVec3(d.HalfExtent), res)
	case "torus":
		obj = scene.NewTorusObject(d.Name, d.Major, d.Minor, res)
	case "cylinder":
		obj = scene.NewCylinderObject(d.Name, d.Radius, d.HalfHeight, res)
	case "ground":
		obj = scene.NewGroundObject(d.Name, d.HalfSize, d.Thickness, res)
	case "mesh":
		var err error
		obj, err = scene.LoadGLTFObject(d.MeshFile, res)
		if err != nil {
			return nil, err
		}
		if d.Name != "" {
			obj.Name = d.Name
		}
	default:
		return nil, fmt.Errorf("unknown shape %q", d.Shape)
	}

	obj.Transform.Position = toVec3(d.Position)
	if q := toQuaternion(d.Rotation); q != (math.Quaternion{}) {
		obj.Transform.Rotation = q.Normalize()
	}
	if sc := toVec3(d.Scale); sc != math.Vec3Zero {
		obj.Transform.Scale = sc
	}
	if d.Albedo != ([4]float32{}) {
		obj.Albedo = toColor(d.Albedo)
	}
	obj.UpdateBounds()
	return obj, nil
}

// ApplyConfig overlays non-zero scene settings on a pipeline config.
func ApplyConfig(cfg *dfao.Config, st *SceneSettings) {
	if st.DownsampleFactor > 0 {
		cfg.DownsampleFactor = st.DownsampleFactor
	}
	if st.OcclusionDistance > 0 {
		cfg.OcclusionDistance = st.OcclusionDistance
	}
	if st.MaxViewDistance > 0 {
		cfg.MaxViewDistance = st.MaxViewDistance
	}
	if st.RecordSpacing > 0 {
		cfg.RecordSpacing = st.RecordSpacing
	}
	if st.NumConeDirections > 0 {
		cfg.NumConeDirections = st.NumConeDirections
	}
	if st.HistoryWeight > 0 {
		cfg.HistoryWeight = st.HistoryWeight
	}
	if st.Irradiance {
		cfg.Features |= dfao.FeatureIrradiance
	}
}

// --- Helper conversions ---

func toVec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func toColor(a [4]float32) core.Color {
	return core.Color{R: a[0], G: a[1], B: a[2], A: a[3]}
}

func toQuaternion(a [4]float32) math.Quaternion {
	return math.Quaternion{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}
