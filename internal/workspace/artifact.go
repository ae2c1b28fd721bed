package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// maxArtifactSize bounds every artifact read.
const maxArtifactSize = 32 * 1024 * 1024

var (
	// ErrNotFound marks an artifact that does not exist on disk.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalid marks an artifact that exists but cannot be used.
	ErrInvalid = errors.New("artifact invalid")
)

// State is the validity of one artifact.
type State string

const (
	StateAbsent  State = "absent"
	StateInvalid State = "invalid"
	StateValid   State = "valid"
)

// Artifact is one observed document.
type Artifact struct {
	Path     string   `json:"path"`
	Category Category `json:"category"`
	State    State    `json:"state"`
	Detail   string   `json:"detail,omitempty"`
}

// DataError wraps a read or parse failure of a single artifact.
type DataError struct {
	Path string
	Kind error // ErrNotFound or ErrInvalid
	Err  error
}

func (e *DataError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *DataError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StateOf maps a read error onto an artifact state.
func StateOf(err error) State {
	switch {
	case err == nil:
		return StateValid
	case errors.Is(err, ErrNotFound):
		return StateAbsent
	default:
		return StateInvalid
	}
}

// ReadFile reads an artifact from disk, bounded by maxArtifactSize.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DataError{Path: path, Kind: ErrNotFound}
		}
		return nil, &DataError{Path: path, Kind: ErrInvalid, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &DataError{Path: path, Kind: ErrInvalid, Err: err}
	}
	if info.IsDir() {
		return nil, &DataError{Path: path, Kind: ErrInvalid, Err: errors.New("is a directory")}
	}
	if info.Size() > maxArtifactSize {
		return nil, &DataError{Path: path, Kind: ErrInvalid,
			Err: fmt.Errorf("too large: %d bytes (max %d)", info.Size(), maxArtifactSize)}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &DataError{Path: path, Kind: ErrInvalid, Err: err}
	}
	return data, nil
}

// ReadJSON reads and decodes a JSON artifact into v.
func ReadJSON(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	return DecodeJSON(path, data, v)
}

// DecodeJSON decodes already-read content, reporting failures as DataError.
func DecodeJSON(path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &DataError{Path: path, Kind: ErrInvalid, Err: err}
	}
	return nil
}

// RegularFile reports whether path exists and is a regular file.
func RegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
