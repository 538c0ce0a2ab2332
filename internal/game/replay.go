package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/catanforge/catan-server-go/internal/game/state"
)

const replayFormatVersion = 1

// Replay steps through a finished or running game one version at a time.
// It holds only the setup and the command log; states are rebuilt on demand.
type Replay struct {
	GameID       string
	Setup        state.Setup
	Commands     []Command
	CurrentIndex int

	mu     sync.RWMutex
	states []*state.GameState
}

// NewReplay creates a replay over commands.
func NewReplay(gameID string, setup state.Setup, commands []Command) *Replay {
	return &Replay{
		GameID:   gameID,
		Setup:    setup,
		Commands: append([]Command(nil), commands...),
	}
}

// build replays every command once and caches each version's state.
func (r *Replay) build() error {
	if r.states != nil {
		return nil
	}
	g, err := state.New(r.GameID, r.Setup)
	if err != nil {
		return err
	}
	d := NewDispatcher(false)
	states := make([]*state.GameState, 0, len(r.Commands)+1)
	states = append(states, g.Clone())
	for _, cmd := range r.Commands {
		if err := d.Apply(g, cmd); err != nil {
			return fmt.Errorf("%w: %w", ErrReplayInconsistency, err)
		}
		states = append(states, g.Clone())
	}
	r.states = states
	return nil
}

// Start resets the replay to the initial state.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state at the current index and moves forward.
func (r *Replay) Next() (*state.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.build(); err != nil {
		return nil, err
	}
	if r.CurrentIndex < len(r.states) {
		g := r.states[r.CurrentIndex]
		r.CurrentIndex++
		return g.Clone(), nil
	}
	return nil, nil
}

// Previous moves back one version and returns that state.
func (r *Replay) Previous() (*state.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.build(); err != nil {
		return nil, err
	}
	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.states[r.CurrentIndex].Clone(), nil
	}
	return nil, nil
}

// Skip moves by count versions, clamped to the recorded range.
func (r *Replay) Skip(count int) (*state.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.build(); err != nil {
		return nil, err
	}
	idx := r.CurrentIndex + count
	if idx >= len(r.states) {
		idx = len(r.states) - 1
	}
	if idx < 0 {
		idx = 0
	}
	r.CurrentIndex = idx
	return r.states[idx].Clone(), nil
}

// Size is the number of versions, including the initial state.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Commands) + 1
}

// StateAt returns the state at version.
func (r *Replay) StateAt(version int) (*state.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.build(); err != nil {
		return nil, err
	}
	if version < 0 || version >= len(r.states) {
		return nil, fmt.Errorf("version %d out of range [0, %d]", version, len(r.states)-1)
	}
	return r.states[version].Clone(), nil
}

// SaveToFile writes the replay to <directory>/<game id>.replay as
// gzip-compressed gob.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)
	metadata := replayMetadata{
		GameID:       r.GameID,
		Timestamp:    time.Now(),
		Version:      replayFormatVersion,
		CommandCount: len(r.Commands),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := encoder.Encode(&r.Setup); err != nil {
		return fmt.Errorf("failed to encode setup: %w", err)
	}
	for i := range r.Commands {
		if err := encoder.Encode(&r.Commands[i]); err != nil {
			return fmt.Errorf("failed to encode command %d: %w", i+1, err)
		}
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayFormatVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	var setup state.Setup
	if err := decoder.Decode(&setup); err != nil {
		return nil, fmt.Errorf("failed to decode setup: %w", err)
	}
	commands := make([]Command, 0, metadata.CommandCount)
	for i := 0; i < metadata.CommandCount; i++ {
		var cmd Command
		if err := decoder.Decode(&cmd); err != nil {
			return nil, fmt.Errorf("failed to decode command %d: %w", i+1, err)
		}
		commands = append(commands, cmd)
	}
	return NewReplay(metadata.GameID, setup, commands), nil
}

// replayMetadata heads a replay file.
type replayMetadata struct {
	GameID       string
	Timestamp    time.Time
	Version      int
	CommandCount int
}
