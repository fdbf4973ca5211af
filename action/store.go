package action

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/vpn-tray/common"
)

// record is the on-disk form of a user-defined action.
type record struct {
	ID           string    `yaml:"id"`
	Title        string    `yaml:"title"`
	Executable   string    `yaml:"executable,omitempty"`
	Args         []string  `yaml:"args,omitempty"`
	TimeoutMS    int64     `yaml:"timeout_ms,omitempty"`
	ForceDisplay bool      `yaml:"force_display"`
	Anchor       Anchor    `yaml:"anchor"`
	Group        string    `yaml:"group,omitempty"`
	Created      time.Time `yaml:"created"`
}

func (r record) descriptor() Descriptor {
	return Descriptor{
		ID:           r.ID,
		Title:        r.Title,
		Executable:   r.Executable,
		Args:         append([]string(nil), r.Args...),
		Timeout:      time.Duration(r.TimeoutMS) * time.Millisecond,
		ForceDisplay: r.ForceDisplay,
		Anchor:       r.Anchor,
		Group:        r.Group,
		Scope:        UserScope{},
	}
}

func fromDescriptor(d Descriptor, created time.Time) record {
	return record{
		ID:           d.ID,
		Title:        d.Title,
		Executable:   d.Executable,
		Args:         append([]string(nil), d.Args...),
		TimeoutMS:    d.Timeout.Milliseconds(),
		ForceDisplay: d.ForceDisplay,
		Anchor:       d.Anchor,
		Group:        d.Group,
		Created:      created,
	}
}

// Store manages user-defined actions stored in actions.yaml.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []record
	path    string
}

// NewStore opens the store at path, creating the parent directory. A
// missing file means no user actions yet.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create actions directory: %w", err)
	}

	s := &Store{path: path}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}
	return s, nil
}

// Load re-reads the file.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read actions file: %w", err)
	}

	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse actions file: %w", err)
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

// saveLocked persists the records. Caller holds s.mu.
func (s *Store) saveLocked() error {
	data, err := yaml.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to serialize actions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write actions file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace actions file: %w", err)
	}
	return nil
}

// Add validates d, assigns it an id and saves it. It returns the stored
// descriptor.
func (s *Store) Add(d Descriptor) (Descriptor, error) {
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexByTitleLocked(d.Title, "") >= 0 {
		return Descriptor{}, fmt.Errorf("%w: %q", common.ErrDuplicateAction, d.Title)
	}
	if d.ID == "" {
		d.ID = common.GenerateID()
	}

	rec := fromDescriptor(d, time.Now())
	s.records = append(s.records, rec)
	if err := s.saveLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return Descriptor{}, err
	}
	return rec.descriptor(), nil
}

// Update replaces the action with the same id.
func (s *Store) Update(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(d.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", common.ErrActionNotFound, d.ID)
	}
	if s.indexByTitleLocked(d.Title, d.ID) >= 0 {
		return fmt.Errorf("%w: %q", common.ErrDuplicateAction, d.Title)
	}

	old := s.records[i]
	s.records[i] = fromDescriptor(d, old.Created)
	if err := s.saveLocked(); err != nil {
		s.records[i] = old
		return err
	}
	return nil
}

// Remove deletes an action by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", common.ErrActionNotFound, id)
	}

	old := s.records
	s.records = append(append([]record(nil), old[:i]...), old[i+1:]...)
	if err := s.saveLocked(); err != nil {
		s.records = old
		return err
	}
	return nil
}

// Get retrieves an action by id.
func (s *Store) Get(id string) (Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.records[i].descriptor(), nil
	}
	return Descriptor{}, fmt.Errorf("%w: %s", common.ErrActionNotFound, id)
}

// GetByTitle retrieves an action by title.
func (s *Store) GetByTitle(title string) (Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexByTitleLocked(title, ""); i >= 0 {
		return s.records[i].descriptor(), nil
	}
	return Descriptor{}, fmt.Errorf("%w: %q", common.ErrActionNotFound, title)
}

// List returns copies of all user actions in file order.
func (s *Store) List() []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Descriptor, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.descriptor())
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexByTitleLocked(title, exceptID string) int {
	for i, r := range s.records {
		if r.Title == title && r.ID != exceptID {
			return i
		}
	}
	return -1
}
