package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/notargets/fglopt/bc"
	"github.com/notargets/fglopt/mesh"
	"github.com/notargets/fglopt/plot"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound     = errors.New("config: file not found")
	ErrParse        = errors.New("config: malformed YAML")
	ErrMissingKey   = errors.New("config: missing required key")
	ErrInvalidValue = errors.New("config: invalid value")
)

var requiredKeys = []string{"input_stl", "mesh_resolution", "volume_fraction", "material"}
var requiredMaterialKeys = []string{"E", "nu"}

// Material holds the isotropic linear-elastic properties
type Material struct {
	E  float64 `yaml:"E"`
	Nu float64 `yaml:"nu"`
}

// MeshParams are the structured mesh dimensions derived from the config
type MeshParams struct {
	Nx, Ny int
	Lx, Ly float64
}

// document is the typed view of the keys the toolkit understands. Keys not
// listed here are kept in the raw map and reachable through Get.
type document struct {
	InputSTL           string   `yaml:"input_stl"`
	MeshResolution     int      `yaml:"mesh_resolution"`
	MeshHeight         *int     `yaml:"mesh_height"`
	LengthX            *float64 `yaml:"length_x"`
	LengthY            *float64 `yaml:"length_y"`
	VolumeFraction     float64  `yaml:"volume_fraction"`
	Material           Material `yaml:"material"`
	RenderMode         string   `yaml:"render_mode"`
	BoundaryConditions *bc.Spec `yaml:"boundary_conditions"`
}

// Config is a loaded and validated configuration file
type Config struct {
	path string
	data map[string]any
	keys []string // top-level keys in file order

	doc        document
	renderMode plot.RenderMode
}

// Load reads, parses and validates the YAML file at path
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Parse builds a Config from YAML bytes
func Parse(raw []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	cfg := &Config{data: map[string]any{}}
	var top *yaml.Node
	if len(root.Content) > 0 {
		top = root.Content[0]
	}
	if top != nil && !(top.Kind == yaml.ScalarNode && top.Tag == "!!null") {
		if top.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: top level (line %d) must be a mapping", ErrParse, top.Line)
		}
		if err := top.Decode(&cfg.data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		for i := 0; i < len(top.Content); i += 2 {
			cfg.keys = append(cfg.keys, top.Content[i].Value)
		}
	}

	if err := cfg.validateKeys(); err != nil {
		return nil, err
	}
	if err := top.Decode(&cfg.doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if err := cfg.validateValues(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateKeys() error {
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := c.data[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingKey, missing)
	}

	mat, _ := c.data["material"].(map[string]any)
	for _, k := range requiredMaterialKeys {
		if _, ok := mat[k]; !ok {
			missing = append(missing, "material."+k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingKey, missing)
	}
	return nil
}

func (c *Config) validateValues() error {
	d := c.doc
	if d.MeshResolution < 1 {
		return fmt.Errorf("%w: mesh_resolution must be >= 1, got %d", ErrInvalidValue, d.MeshResolution)
	}
	if d.MeshHeight != nil && *d.MeshHeight < 1 {
		return fmt.Errorf("%w: mesh_height must be >= 1, got %d", ErrInvalidValue, *d.MeshHeight)
	}
	if d.LengthX != nil && !(*d.LengthX > 0) {
		return fmt.Errorf("%w: length_x must be > 0, got %g", ErrInvalidValue, *d.LengthX)
	}
	if d.LengthY != nil && !(*d.LengthY > 0) {
		return fmt.Errorf("%w: length_y must be > 0, got %g", ErrInvalidValue, *d.LengthY)
	}
	if !(d.VolumeFraction > 0 && d.VolumeFraction <= 1) {
		return fmt.Errorf("%w: volume_fraction must be in (0, 1], got %g", ErrInvalidValue, d.VolumeFraction)
	}
	mode, err := plot.ParseRenderMode(d.RenderMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	c.renderMode = mode
	return nil
}

// Path is the file the config was loaded from, empty for Parse
func (c *Config) Path() string { return c.path }

// Get returns a top-level value, or def when the key is absent
func (c *Config) Get(key string, def any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return def
}

// GetNested walks keys through nested mappings, e.g. ("material", "E"),
// returning def as soon as a key is missing or a value is not a mapping
func (c *Config) GetNested(def any, keys ...string) any {
	var val any = c.data
	for _, k := range keys {
		m, ok := val.(map[string]any)
		if !ok {
			return def
		}
		if val, ok = m[k]; !ok {
			return def
		}
	}
	return val
}

// ToMap returns a shallow copy of the raw top-level mapping
func (c *Config) ToMap() map[string]any {
	return maps.Clone(c.data)
}

// Keys lists the top-level keys in the order they appear in the file
func (c *Config) Keys() []string {
	return append([]string(nil), c.keys...)
}

func (c *Config) InputSTL() string        { return c.doc.InputSTL }
func (c *Config) VolumeFraction() float64 { return c.doc.VolumeFraction }
func (c *Config) Material() Material      { return c.doc.Material }

// RenderMode is the configured render_mode, Headless when unset
func (c *Config) RenderMode() plot.RenderMode { return c.renderMode }

// MeshParams maps mesh_resolution to nx; mesh_height defaults to nx and the
// domain lengths default to 1
func (c *Config) MeshParams() MeshParams {
	p := MeshParams{Nx: c.doc.MeshResolution, Ny: c.doc.MeshResolution, Lx: 1.0, Ly: 1.0}
	if c.doc.MeshHeight != nil {
		p.Ny = *c.doc.MeshHeight
	}
	if c.doc.LengthX != nil {
		p.Lx = *c.doc.LengthX
	}
	if c.doc.LengthY != nil {
		p.Ly = *c.doc.LengthY
	}
	return p
}

// BuildMesh generates the structured mesh described by MeshParams
func (c *Config) BuildMesh() (*mesh.Mesh, error) {
	p := c.MeshParams()
	return mesh.NewStructured(p.Nx, p.Ny, p.Lx, p.Ly)
}

// BoundaryConditions returns the decoded boundary_conditions block; an absent
// block is an empty Spec
func (c *Config) BoundaryConditions() bc.Spec {
	if c.doc.BoundaryConditions == nil {
		return bc.Spec{}
	}
	return *c.doc.BoundaryConditions
}

// Resolver builds a bc.Resolver over BoundaryConditions
func (c *Config) Resolver() (*bc.Resolver, error) {
	return bc.NewResolver(c.BoundaryConditions())
}
