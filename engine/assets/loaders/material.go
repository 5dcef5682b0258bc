package loaders

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

/**
 * @brief Texture paths of a material file, relative to the file itself. Empty
 * paths fall back to the default textures.
 */
type MaterialMaps struct {
	Albedo    string `toml:"albedo,omitempty"`
	Normal    string `toml:"normal,omitempty"`
	AO        string `toml:"ao,omitempty"`
	Roughness string `toml:"roughness,omitempty"`
	Metallic  string `toml:"metallic,omitempty"`
}

/**
 * @brief The content of a .mat.toml file.
 */
type MaterialFile struct {
	Name           string       `toml:"name"`
	Color          [4]float32   `toml:"color"`
	UVScale        [2]float32   `toml:"uv_scale"`
	NormalStrength float32      `toml:"normal_strength"`
	FlipY          bool         `toml:"flip_y"`
	Maps           MaterialMaps `toml:"maps"`
}

type MaterialLoader struct{}

func (ml *MaterialLoader) Load(path string) (interface{}, error) {
	return ReadMaterialFile(path)
}

// DefaultMaterialFile is what a material file decodes to when it sets nothing.
func DefaultMaterialFile() MaterialFile {
	return MaterialFile{
		Color:          [4]float32{1, 1, 1, 1},
		UVScale:        [2]float32{1, 1},
		NormalStrength: 1,
	}
}

func ReadMaterialFile(path string) (*MaterialFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mf, err := ParseMaterial(data)
	if err != nil {
		return nil, fmt.Errorf("material file '%s': %w", path, err)
	}
	return mf, nil
}

// ParseMaterial decodes TOML material data. Keys that are missing keep their
// defaults; unknown keys are an error.
func ParseMaterial(data []byte) (*MaterialFile, error) {
	mf := DefaultMaterialFile()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&mf); err != nil {
		return nil, err
	}
	if err := validateMaterial(&mf); err != nil {
		return nil, err
	}
	return &mf, nil
}

func WriteMaterialFile(path string, mf *MaterialFile) error {
	if err := validateMaterial(mf); err != nil {
		return err
	}
	data, err := toml.Marshal(mf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func validateMaterial(material *MaterialFile) error {
	// Check that color values are within [0.0, 1.0] range
	for _, c := range material.Color {
		if !inRange(c) {
			return fmt.Errorf("color values must be between 0.0 and 1.0")
		}
	}

	if material.UVScale[0] == 0 || material.UVScale[1] == 0 {
		return fmt.Errorf("uv_scale components must be nonzero")
	}

	if material.NormalStrength < 0 {
		return fmt.Errorf("normal_strength must be a non-negative value")
	}

	return nil
}

// Check if a float32 value is within [0.0, 1.0]
func inRange(value float32) bool {
	return value >= 0.0 && value <= 1.0
}
