package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/solver"
)

// Metadata is written as metadata.json into every scene directory.
type Metadata struct {
	SceneID       int                         `json:"scene_id"`
	Blueprint     string                      `json:"blueprint,omitempty"`
	Seed          int64                       `json:"seed"`
	NumBeams      int                         `json:"num_beams"`
	Species       string                      `json:"species"`
	Beams         []BeamRecord                `json:"beams"`
	Connectivity  map[string][]solver.Contact `json:"connectivity"`
	IdentityPairs []solver.IdentityPair       `json:"identity_pairs"`
	Solve         SolveRecord                 `json:"solve"`
	TotalVolume   float64                     `json:"total_volume"`
	TotalMass     float64                     `json:"total_mass"`
}

// BeamRecord describes one solved beam.
type BeamRecord struct {
	BeamID        int                `json:"beam_id"`
	BeamType      string             `json:"beam_type"`
	SemanticLabel int                `json:"semantic_label"`
	STLFile       string             `json:"stl_file,omitempty"`
	Parameters    map[string]float64 `json:"parameters"`
	Volume        float64            `json:"volume"`
	Mass          float64            `json:"mass"`
}

// SolveRecord summarizes the optimization of a scene.
type SolveRecord struct {
	Mode       string  `json:"mode"`
	Status     string  `json:"status"`
	Objective  float64 `json:"objective"`
	Iterations int     `json:"iterations"`
	MaxGap     float64 `json:"max_gap"`
}

// Index is written as index.json into the dataset root.
type Index struct {
	NumScenes     int            `json:"num_scenes"`
	NumSuccessful int            `json:"num_successful"`
	NumFailed     int            `json:"num_failed"`
	BeamTypes     map[int]string `json:"beam_types"`
	SceneDirs     []string       `json:"scene_dirs"`

	// Failed is written separately to failed_scenes.json.
	Failed []Failure `json:"-"`
}

// Failure records a skipped scene.
type Failure struct {
	SceneID int    `json:"scene_id"`
	Error   string `json:"error"`
}

// SceneDir returns the directory name of a scene.
func SceneDir(id int) string {
	return fmt.Sprintf("scene_%04d", id)
}

func beamTypes() map[int]string {
	out := make(map[int]string)
	for _, k := range beam.Kinds() {
		out[int(k)] = k.GermanName()
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadIndex loads index.json and failed_scenes.json from a dataset root.
func ReadIndex(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index.json: %w", err)
	}
	data, err = os.ReadFile(filepath.Join(dir, "failed_scenes.json"))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &idx.Failed); err != nil {
			return nil, fmt.Errorf("decode failed_scenes.json: %w", err)
		}
	}
	return &idx, nil
}

// ReadMetadata loads the metadata.json of one scene directory.
func ReadMetadata(sceneDir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(sceneDir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata.json: %w", err)
	}
	return &m, nil
}
