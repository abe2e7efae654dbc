package manager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nibzard/taxocard/internal/card"
	"github.com/nibzard/taxocard/internal/editconfig"
)

// ErrNotFound is returned when a store has nothing under a key.
var ErrNotFound = errors.New("not found")

// Key identifies one card: a taxon drawn for one instrument.
type Key struct {
	TaxoID       int64
	InstrumentID string
}

func (k Key) String() string {
	return fmt.Sprintf("%d_%s", k.TaxoID, k.InstrumentID)
}

// CardFileName is the name a card is stored under.
func (k Key) CardFileName() string {
	return k.String() + ".html"
}

// ConfigFileName is the name the card's edit configuration is stored under.
func (k Key) ConfigFileName() string {
	return editconfig.FileName(k.TaxoID, k.InstrumentID)
}

// Check rejects keys that cannot name a file inside a store directory.
func (k Key) Check() error {
	if k.TaxoID < 0 {
		return fmt.Errorf("invalid key %s: negative taxoid", k)
	}
	if k.InstrumentID == "" {
		return fmt.Errorf("invalid key %s: empty instrument id", k)
	}
	if strings.ContainsAny(k.InstrumentID, `/\`) || strings.Contains(k.InstrumentID, "..") {
		return fmt.Errorf("invalid key %s: instrument id is not a plain name", k)
	}
	return nil
}

// KeyFromFileName parses a stored card or configuration name.
func KeyFromFileName(name string) (Key, bool) {
	base := filepath.Base(name)
	switch {
	case strings.HasSuffix(base, ".html"):
		base = strings.TrimSuffix(base, ".html") + ".json"
	case !strings.HasSuffix(base, ".json"):
		return Key{}, false
	}
	taxo, instr, ok := editconfig.ParseFileName(base)
	if !ok {
		return Key{}, false
	}
	return Key{TaxoID: taxo, InstrumentID: instr}, true
}

// ConfigStore reads edit configurations.
type ConfigStore interface {
	Snapshot(ctx context.Context, key Key) (editconfig.Snapshot, error)
}

// DirConfigStore reads {taxoid}_{instrumentid}.json files from a directory.
type DirConfigStore struct {
	Dir string
}

// NewDirConfigStore creates a config store rooted at dir.
func NewDirConfigStore(dir string) *DirConfigStore {
	return &DirConfigStore{Dir: dir}
}

// Snapshot loads and freezes the configuration for key. A missing file
// yields an error wrapping ErrNotFound; an invalid one wraps
// *editconfig.InvalidError.
func (s *DirConfigStore) Snapshot(ctx context.Context, key Key) (editconfig.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return editconfig.Snapshot{}, err
	}
	if err := key.Check(); err != nil {
		return editconfig.Snapshot{}, err
	}
	path := filepath.Join(s.Dir, key.ConfigFileName())
	snap, err := editconfig.LoadSnapshot(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return editconfig.Snapshot{}, fmt.Errorf("edit config %s: %w", key, ErrNotFound)
		}
		return editconfig.Snapshot{}, err
	}
	if snap.TaxoID() != key.TaxoID || snap.InstrumentID() != key.InstrumentID {
		return editconfig.Snapshot{}, fmt.Errorf("%s: describes %d_%s", path, snap.TaxoID(), snap.InstrumentID())
	}
	return snap, nil
}

// SnapshotFor loads the configuration named by a card's own identifiers.
// Its signature matches parallel.SnapshotFunc.
func (s *DirConfigStore) SnapshotFor(ctx context.Context, doc *card.Document) (editconfig.Snapshot, error) {
	key, err := keyOf(doc)
	if err != nil {
		return editconfig.Snapshot{}, err
	}
	return s.Snapshot(ctx, key)
}

// CardStore persists cards. Only Manager.Save calls Put.
type CardStore interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, data []byte) error
}

// DirStore keeps cards as {taxoid}_{instrumentid}.html files in a directory.
type DirStore struct {
	Dir string
}

// NewDirStore creates a card store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Get returns the stored card, or an error wrapping ErrNotFound.
func (s *DirStore) Get(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := key.Check(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, key.CardFileName()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("card %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("read card %s: %w", key, err)
	}
	return data, nil
}

// Put writes the card through a temporary file and a rename, so readers
// see either the previous card or the new one.
func (s *DirStore) Put(ctx context.Context, key Key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := key.Check(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create card dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.Dir, key.CardFileName()), data)
}

// List returns the keys of every stored card, in directory order.
func (s *DirStore) List() ([]Key, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cards: %w", err)
	}
	var keys []Key
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		if key, ok := KeyFromFileName(e.Name()); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
