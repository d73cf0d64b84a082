package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

const stateFileName = "state.toml"

// State is what the UI remembers between runs
type State struct {
	Mode      string `toml:"mode"`
	AutoSpeak bool   `toml:"auto_speak"`
	ExportDir string `toml:"export_dir"`
}

// NewState creates a new state with default values
func NewState() *State {
	return &State{Mode: "chat"}
}

// StatePath is where the state lives inside the data directory
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, stateFileName)
}

// SaveState writes the state to a TOML file
func SaveState(filePath string, state *State) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create state file %s: %w", filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := toml.NewEncoder(writer).Encode(state); err != nil {
		return fmt.Errorf("failed to encode state to TOML file %s: %w", filePath, err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush state file %s: %w", filePath, err)
	}

	log.Debug("state saved", "file", filePath)
	return nil
}

// LoadState loads the state, returning defaults when the file is missing
func LoadState(filePath string) (*State, error) {
	state := NewState()
	if _, err := toml.DecodeFile(filePath, state); err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to decode TOML from file %s: %w", filePath, err)
	}
	return state, nil
}
