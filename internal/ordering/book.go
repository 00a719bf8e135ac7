package ordering

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"portfolio-backend/internal/models"
)

// StorageKey is the single key the order mapping is stored under
const StorageKey = "portfolio-image-order"

// OrderList maps a category to its ordered publicIds
type OrderList map[models.Category][]string

// Storage is a key/value store holding serialized state, the equivalent of
// browser local storage
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// State of a category inside a Book
type State int

const (
	Unloaded State = iota
	Loaded
	Reconciled
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Reconciled:
		return "reconciled"
	default:
		return "unloaded"
	}
}

// ErrNotReconciled is returned when a category is mutated before it was reconciled
var ErrNotReconciled = errors.New("category order has not been reconciled")

// Book holds the order list of every category and persists it wholesale on each
// mutation
type Book struct {
	mu      sync.Mutex
	storage Storage
	orders  OrderList
	states  map[models.Category]State
}

// NewBook creates a book backed by storage. Nothing is read until Load.
func NewBook(storage Storage) *Book {
	return &Book{
		storage: storage,
		orders:  OrderList{},
		states:  make(map[models.Category]State),
	}
}

// Load reads the persisted mapping. A missing or unreadable entry starts empty.
func (b *Book) Load() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw, ok, err := b.storage.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read order list: %w", err)
	}
	orders := OrderList{}
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &orders); err != nil {
			orders = OrderList{}
		}
	}
	b.orders = orders
	for _, c := range models.Categories() {
		b.states[c] = Loaded
	}
	return nil
}

// State returns the lifecycle state of category
func (b *Book) State(category models.Category) State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.states[category]
}

// Order returns a copy of the current order of category
func (b *Book) Order(category models.Category) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.orders[category]...)
}

// Reconcile merges the persisted order of category with the canonical store
// listing and persists the result
func (b *Book) Reconcile(category models.Category, canonical []string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.states[category] == Unloaded {
		return nil, fmt.Errorf("order list for %s is not loaded", category)
	}
	b.orders[category] = Reconcile(b.orders[category], canonical)
	b.states[category] = Reconciled
	if err := b.saveLocked(); err != nil {
		return nil, err
	}
	return append([]string(nil), b.orders[category]...), nil
}

// MoveUp moves the item at idx one position earlier
func (b *Book) MoveUp(category models.Category, idx int) ([]string, error) {
	return b.mutate(category, func(order []string) []string { return MoveUp(order, idx) })
}

// MoveDown moves the item at idx one position later
func (b *Book) MoveDown(category models.Category, idx int) ([]string, error) {
	return b.mutate(category, func(order []string) []string { return MoveDown(order, idx) })
}

// DragReorder moves the item at from to position to
func (b *Book) DragReorder(category models.Category, from, to int) ([]string, error) {
	return b.mutate(category, func(order []string) []string { return DragReorder(order, from, to) })
}

// Append records a newly uploaded id at the end of category
func (b *Book) Append(category models.Category, id string) ([]string, error) {
	return b.mutate(category, func(order []string) []string {
		for _, v := range order {
			if v == id {
				return order
			}
		}
		return append(order, id)
	})
}

// Forget removes a deleted id from every category
func (b *Book) Forget(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c, order := range b.orders {
		b.orders[c] = Remove(order, id)
	}
	return b.saveLocked()
}

func (b *Book) mutate(category models.Category, fn func([]string) []string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.states[category] != Reconciled {
		return nil, ErrNotReconciled
	}
	b.orders[category] = fn(b.orders[category])
	if err := b.saveLocked(); err != nil {
		return nil, err
	}
	return append([]string(nil), b.orders[category]...), nil
}

func (b *Book) saveLocked() error {
	data, err := json.Marshal(b.orders)
	if err != nil {
		return fmt.Errorf("failed to encode order list: %w", err)
	}
	if err := b.storage.Set(StorageKey, data); err != nil {
		return fmt.Errorf("failed to persist order list: %w", err)
	}
	return nil
}

// MemoryStorage keeps values in memory
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return append([]byte(nil), v...), ok, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// FileStorage keeps each key in its own file under a directory
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStorage) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the file atomically through a rename
func (f *FileStorage) Set(key string, value []byte) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}
