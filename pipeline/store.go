package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/c360studio/pedal/artifact"
)

// persistedState is the on-disk snapshot of the pipeline.
type persistedState struct {
	Stages []StageState `json:"stages"`
}

// Store persists per-stage state between CLI invocations so approvals and
// completion survive process boundaries.
type Store struct {
	path string
}

// NewStore creates a state store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted states. A missing file yields no states and no
// error: the pipeline simply starts fresh.
func (s *Store) Load() ([]StageState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &artifact.IOError{Op: "read", Path: s.path, Err: err}
	}

	var snapshot persistedState
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, &artifact.ParseError{Path: s.path, Format: artifact.FormatJSON, Err: err}
	}
	return snapshot.Stages, nil
}

// Save writes the states atomically: a temp file in the same directory is
// renamed over the target so readers never observe a partial snapshot.
func (s *Store) Save(states []StageState) error {
	data, err := json.MarshalIndent(persistedState{Stages: states}, "", "  ")
	if err != nil {
		return &artifact.IOError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &artifact.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".pipeline_state_*.json")
	if err != nil {
		return &artifact.IOError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &artifact.IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &artifact.IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &artifact.IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
