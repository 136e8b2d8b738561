package cart

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"group-order-service/internal/models"
)

// StorageNamespace keys persisted cart state, mirroring the namespace the
// web client uses for its durable cart.
const StorageNamespace = "group-order-cart"

// State is the persisted cart snapshot.
type State struct {
	Items        []models.CartItem         `json:"items"`
	GroupMode    bool                      `json:"groupMode"`
	Participants []models.GroupParticipant `json:"participants"`
}

// Storage persists cart state across restarts. Implementations are external
// collaborators; the core only depends on this interface.
type Storage interface {
	Save(state State) error
	Load() (State, bool, error)
}

// FileStorage keeps the snapshot as a JSON file, for kiosk and tablet
// deployments.
type FileStorage struct {
	dir string
}

// NewFileStorage stores snapshots under dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (s *FileStorage) path() string {
	return filepath.Join(s.dir, StorageNamespace+".json")
}

// Save writes the snapshot atomically.
func (s *FileStorage) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

// Load reads the snapshot. The second return is false when none exists.
func (s *FileStorage) Load() (State, bool, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, err
	}
	return state, true, nil
}

// Snapshot captures the cart for persistence.
func (c *Cart) Snapshot() State {
	return State{
		Items:        c.Items(),
		GroupMode:    c.groupMode,
		Participants: append([]models.GroupParticipant(nil), c.participants...),
	}
}

// Restore replaces the cart contents with a persisted snapshot.
func (c *Cart) Restore(state State) {
	c.ReplaceItems(state.Items)
	c.groupMode = state.GroupMode
	c.SetParticipants(state.Participants)
}
