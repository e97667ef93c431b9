package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/morning-alarm/internal/config"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	pb "github.com/oshokin/morning-alarm/internal/pb/v1"
)

// Snapshot is the persisted roster document.
type Snapshot struct {
	// Roster is the ordered list of children.
	Roster routine.Roster
	// LastUpdated is when the roster was last saved.
	LastUpdated time.Time
}

// Repository defines persistence operations for the roster.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
}

// FileRepository persists the roster to a JSON file on disk.
// JSON is produced and consumed via protobuf JSON (protojson) of the same
// Struct layout the API serves.
type FileRepository struct {
	// path is the filesystem location of the JSON roster file.
	path string
	// mu protects concurrent access to the roster file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the roster file does not exist yet.
	ErrNotFound = errors.New("roster not found")
	// errSnapshotIsNotSet is returned when Save receives nil.
	errSnapshotIsNotSet = errors.New("snapshot is not set")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the roster from disk.
func (r *FileRepository) Load(_ context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read roster file: %w", err)
	}

	var document structpb.Struct
	if err = protojson.Unmarshal(contents, &document); err != nil {
		return nil, fmt.Errorf("decode roster file: %w", err)
	}

	roster, lastUpdated, err := pb.RosterFromStruct(&document)
	if err != nil {
		return nil, fmt.Errorf("decode roster file: %w", err)
	}

	return &Snapshot{Roster: roster, LastUpdated: lastUpdated}, nil
}

// Save writes the roster to disk.
func (r *FileRepository) Save(_ context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return errSnapshotIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(pb.RosterToStruct(snapshot.Roster, snapshot.LastUpdated))
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write roster file: %w", err)
	}

	return nil
}
