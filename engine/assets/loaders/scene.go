package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/lurekit/engine/config"
	"github.com/spaghettifunk/lurekit/engine/math"
	"github.com/spaghettifunk/lurekit/engine/resources"
	"github.com/spaghettifunk/lurekit/engine/scene"
)

// SceneExtension is the suffix of scene asset files.
const SceneExtension = ".lure.yaml"

// SceneLoader reads YAML scene descriptions into immutable scene assets.
type SceneLoader struct{}

type sceneFile struct {
	Materials map[string]materialSpec `yaml:"materials"`
	Root      nodeSpec                `yaml:"root"`
}

type materialSpec struct {
	Color     string   `yaml:"color"`
	Emissive  string   `yaml:"emissive"`
	Metalness float32  `yaml:"metalness"`
	Roughness *float32 `yaml:"roughness"`
}

type nodeSpec struct {
	Name     string         `yaml:"name"`
	Position *vec3Spec      `yaml:"position"`
	Rotation *vec3Spec      `yaml:"rotation"`
	Scale    *vec3Spec      `yaml:"scale"`
	Visible  *bool          `yaml:"visible"`
	Mesh     *meshSpec      `yaml:"mesh"`
	Material string         `yaml:"material"`
	Props    map[string]any `yaml:"props"`
	Children []nodeSpec     `yaml:"children"`
}

type meshSpec struct {
	Box       *vec3Spec  `yaml:"box"`
	Center    *vec3Spec  `yaml:"center"`
	Positions []vec3Spec `yaml:"positions"`
}

// vec3Spec accepts either a three-element sequence or a single scalar.
type vec3Spec math.Vec3

func (v *vec3Spec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s float32
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = vec3Spec{s, s, s}
		return nil
	case yaml.SequenceNode:
		var xs []float32
		if err := node.Decode(&xs); err != nil {
			return err
		}
		if len(xs) != 3 {
			return fmt.Errorf("line %d: expected 3 values, got %d", node.Line, len(xs))
		}
		*v = vec3Spec{xs[0], xs[1], xs[2]}
		return nil
	default:
		return fmt.Errorf("line %d: expected a number or a list of 3 numbers", node.Line)
	}
}

func (sl *SceneLoader) Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	asset, err := ParseScene(path, data)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		Name:     strings.TrimSuffix(filepath.Base(path), SceneExtension),
		FullPath: path,
		Type:     resources.ResourceTypeScene,
		DataSize: uint64(len(data)),
		Data:     asset,
	}, nil
}

func (sl *SceneLoader) Unload(*resources.Resource) error {
	return nil
}

// ParseScene builds an asset from YAML bytes. path is recorded on the asset.
func ParseScene(path string, data []byte) (*scene.Asset, error) {
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", path, err)
	}
	materials := make(map[string]*scene.Material, len(f.Materials))
	for name, spec := range f.Materials {
		m, err := buildMaterial(name, spec)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", path, err)
		}
		materials[name] = m
	}
	root, err := buildNode(f.Root, materials)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return scene.NewAsset(path, root), nil
}

func buildMaterial(name string, spec materialSpec) (*scene.Material, error) {
	color, err := parseColorOr(spec.Color, math.NewVec4One())
	if err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	m := scene.NewMaterial(name, color)
	if m.Emissive, err = parseColorOr(spec.Emissive, math.Vec4{}); err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	m.Metalness = spec.Metalness
	if spec.Roughness != nil {
		m.Roughness = *spec.Roughness
	}
	if err := validateMaterial(m); err != nil {
		return nil, err
	}
	return m, nil
}

func buildNode(spec nodeSpec, materials map[string]*scene.Material) (*scene.Node, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("node name is required")
	}
	n := scene.NewNode(spec.Name)

	position := math.NewVec3Zero()
	if spec.Position != nil {
		position = math.Vec3(*spec.Position)
	}
	rotation := math.NewQuatIdentity()
	if spec.Rotation != nil {
		rotation = math.NewQuatFromEulerDegrees(spec.Rotation.X, spec.Rotation.Y, spec.Rotation.Z)
	}
	scale := math.NewVec3One()
	if spec.Scale != nil {
		scale = math.Vec3(*spec.Scale)
		if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
			return nil, fmt.Errorf("node %q: scale components must be non-zero", spec.Name)
		}
	}
	n.Transform = math.TransformFromPositionRotationScale(position, rotation, scale)

	if spec.Visible != nil {
		n.Visible = *spec.Visible
	}
	for k, v := range spec.Props {
		n.SetProperty(k, v)
	}

	if spec.Mesh != nil {
		mesh, err := buildMesh(spec.Name, *spec.Mesh)
		if err != nil {
			return nil, err
		}
		n.Mesh = mesh
		n.Material = materials[scene.DefaultMaterialName]
	}
	if spec.Material != "" {
		m, ok := materials[spec.Material]
		if !ok {
			return nil, fmt.Errorf("node %q: unknown material %q", spec.Name, spec.Material)
		}
		n.Material = m
	}
	if n.Mesh != nil && n.Material == nil {
		n.Material = scene.NewMaterial(scene.DefaultMaterialName, math.NewVec4One())
	}

	for _, childSpec := range spec.Children {
		child, err := buildNode(childSpec, materials)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

func buildMesh(name string, spec meshSpec) (*scene.Mesh, error) {
	if len(spec.Positions) > 0 {
		positions := make([]math.Vec3, len(spec.Positions))
		for i, p := range spec.Positions {
			positions[i] = math.Vec3(p)
		}
		return scene.NewMesh(name, positions), nil
	}
	if spec.Box == nil {
		return nil, fmt.Errorf("mesh of node %q needs either box or positions", name)
	}
	size := math.Vec3(*spec.Box)
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return nil, fmt.Errorf("mesh of node %q has a negative box size", name)
	}
	center := math.NewVec3Zero()
	if spec.Center != nil {
		center = math.Vec3(*spec.Center)
	}
	return scene.NewBoxMesh(name, size, center), nil
}

func parseColorOr(hex string, fallback math.Vec4) (math.Vec4, error) {
	if strings.TrimSpace(hex) == "" {
		return fallback, nil
	}
	return config.ParseColor(hex)
}

func validateMaterial(material *scene.Material) error {
	if material.Name == "" {
		return fmt.Errorf("material name is required")
	}
	// Check that colour values are within [0.0, 1.0] range
	if !isValidVec4(material.Color) || !isValidVec4(material.Emissive) {
		return fmt.Errorf("material %q: colour values must be between 0.0 and 1.0", material.Name)
	}
	if !inRange(material.Metalness) || !inRange(material.Roughness) {
		return fmt.Errorf("material %q: metalness and roughness must be between 0.0 and 1.0", material.Name)
	}
	return nil
}

// Helper function to validate Vec4 fields (must be between 0.0 and 1.0)
func isValidVec4(v math.Vec4) bool {
	return inRange(v.X) && inRange(v.Y) && inRange(v.Z) && inRange(v.W)
}

// Check if a float32 value is within [0.0, 1.0]
func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}
