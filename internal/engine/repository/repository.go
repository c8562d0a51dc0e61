// Package repository holds the canonical in-memory meal collection and
// keeps it in sync with a key-value store.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/core/ports"
	"go.trai.ch/mealbook/internal/engine/dishedit"
	"go.trai.ch/mealbook/internal/engine/persist"
	"go.trai.ch/zerr"
)

// CopySuffix is appended to the name of a copied meal.
const CopySuffix = " (copy)"

// Option configures a Repository.
type Option func(*Repository)

// WithKey sets the store key holding the collection.
func WithKey(key string) Option {
	return func(r *Repository) {
		r.key = key
	}
}

// WithIDGenerator replaces the generator used for fresh meal ids.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

// WithWriteTimeout bounds every background store write.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Repository) {
		r.timeout = d
	}
}

type observer struct {
	id int
	fn func([]domain.Meal)
}

// Repository is the single source of truth for meals.
// Reads always reflect the latest mutation; the store catches up in the
// background. Every value handed out is a copy.
type Repository struct {
	store   ports.KVStore
	log     ports.Logger
	key     string
	newID   func() string
	timeout time.Duration
	writer  *persist.Writer

	mu        sync.Mutex
	meals     []domain.Meal
	observers []observer
	nextObs   int
	seq       uint64

	// notifyMu orders observer deliveries by seq.
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
}

// New creates a Repository backed by store.
func New(store ports.KVStore, log ports.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:   store,
		log:     log,
		key:     domain.DefaultStorageKey,
		newID:   uuid.NewString,
		timeout: domain.DefaultWriteTimeout,
		meals:   make([]domain.Meal, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.notifyCond = sync.NewCond(&r.notifyMu)
	r.writer = persist.NewWriter(store,
		persist.WithTimeout(r.timeout),
		persist.WithErrorHandler(r.writeFailed),
	)
	return r
}

func (r *Repository) writeFailed(_ string, err error) {
	r.log.Error(err)
}

// Load replaces the working set with the stored collection and returns it.
// Pending writes are flushed first so the store reflects every earlier
// mutation. A missing key yields an empty collection. Read and parse failures
// are logged and also yield an empty collection.
func (r *Repository) Load(ctx context.Context) []domain.Meal {
	// Write failures were already reported through writeFailed.
	if err := r.writer.Flush(ctx); err != nil && ctx.Err() != nil {
		r.log.Error(zerr.With(err, "key", r.key))
	}

	meals := r.read(ctx)

	r.mu.Lock()
	r.meals = meals
	snapshot := domain.CloneMeals(r.meals)
	seq := r.nextSeqLocked()
	r.mu.Unlock()

	r.notify(seq, snapshot)
	return domain.CloneMeals(snapshot)
}

func (r *Repository) read(ctx context.Context) []domain.Meal {
	data, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.log.Error(zerr.With(err, "key", r.key))
		return make([]domain.Meal, 0)
	}
	if !ok {
		return make([]domain.Meal, 0)
	}

	var stored []domain.Meal
	if err := json.Unmarshal(data, &stored); err != nil {
		wrapped := zerr.Wrap(err, domain.ErrCollectionUnmarshalFailed.Error())
		r.log.Error(zerr.With(wrapped, "key", r.key))
		return make([]domain.Meal, 0)
	}

	meals := make([]domain.Meal, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, m := range stored {
		if m.ID == "" {
			m.ID = r.freshID(seen)
			r.log.Warn(fmt.Sprintf("assigned id %s to stored meal %q without an id", m.ID, m.Name))
		}
		if _, dup := seen[m.ID]; dup {
			r.log.Warn(fmt.Sprintf("dropped stored meal %q with duplicate id %s", m.Name, m.ID))
			continue
		}
		seen[m.ID] = struct{}{}
		meals = append(meals, normalize(r.clean(m)))
	}
	return meals
}

// clean drops dish items with a blank name and groceries with a blank name,
// logging a warning for each meal that changed.
func (r *Repository) clean(m domain.Meal) domain.Meal {
	if len(m.DishItems) == 0 {
		return m
	}

	items := make([]domain.DishItem, 0, len(m.DishItems))
	droppedItems, droppedGroceries := 0, 0
	for _, item := range m.DishItems {
		cleaned, removed, ok := dishedit.Clean(item)
		if !ok {
			droppedItems++
			continue
		}
		droppedGroceries += removed
		items = append(items, cleaned)
	}

	if droppedItems > 0 || droppedGroceries > 0 {
		r.log.Warn(fmt.Sprintf("dropped %d dish items and %d groceries without a name from meal %q",
			droppedItems, droppedGroceries, m.Name))
	}
	m.DishItems = items
	return m
}

func (r *Repository) freshID(taken map[string]struct{}) string {
	for {
		id := r.newID()
		if _, ok := taken[id]; !ok && id != "" {
			return id
		}
	}
}

// Save submits the current working set to the store and returns immediately.
func (r *Repository) Save() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveLocked()
}

func (r *Repository) saveLocked() {
	payload, err := json.Marshal(r.meals)
	if err != nil {
		r.log.Error(zerr.Wrap(err, domain.ErrCollectionMarshalFailed.Error()))
		return
	}
	r.writer.Submit(r.key, payload)
}

// Flush blocks until every submitted write has reached the store.
// It returns the first write failure since the previous Flush.
func (r *Repository) Flush(ctx context.Context) error {
	return r.writer.Flush(ctx)
}

// AddMeal appends meal to the collection and returns the stored record.
// The name is trimmed; an empty name is ignored. Dish items and groceries
// without a name are dropped with a warning. A fresh id is assigned when
// meal has no id or its id is already taken.
func (r *Repository) AddMeal(meal domain.Meal) (domain.Meal, bool) {
	name := strings.TrimSpace(meal.Name)
	if name == "" {
		return domain.Meal{}, false
	}
	m := normalize(r.clean(meal.Clone()))
	m.Name = name

	r.mu.Lock()
	if m.ID == "" || r.indexLocked(m.ID) >= 0 {
		m.ID = r.freshID(r.idsLocked())
	}
	r.meals = append(r.meals, m)
	r.saveLocked()
	snapshot := domain.CloneMeals(r.meals)
	seq := r.nextSeqLocked()
	r.mu.Unlock()

	r.notify(seq, snapshot)
	return m.Clone(), true
}

// UpdateMeal replaces the meal with the same id, keeping its position.
// It reports false, and saves nothing, when no meal has that id.
func (r *Repository) UpdateMeal(meal domain.Meal) bool {
	r.mu.Lock()
	i := r.indexLocked(meal.ID)
	if i < 0 {
		r.mu.Unlock()
		return false
	}
	r.meals[i] = normalize(meal.Clone())
	r.saveLocked()
	snapshot := domain.CloneMeals(r.meals)
	seq := r.nextSeqLocked()
	r.mu.Unlock()

	r.notify(seq, snapshot)
	return true
}

// RenameMeal replaces the name of the meal with id.
func (r *Repository) RenameMeal(id, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	m, ok := r.Meal(id)
	if !ok {
		return false
	}
	m.Name = name
	return r.UpdateMeal(m)
}

// CopyMeal adds a deep copy of the meal with sourceID under a fresh id.
func (r *Repository) CopyMeal(sourceID string) (domain.Meal, bool) {
	src, ok := r.Meal(sourceID)
	if !ok {
		return domain.Meal{}, false
	}
	src.ID = ""
	src.Name += CopySuffix
	return r.AddMeal(src)
}

// ResetAll clears the collection and removes the key from the store.
func (r *Repository) ResetAll() {
	r.mu.Lock()
	r.meals = make([]domain.Meal, 0)
	r.writer.SubmitRemove(r.key)
	seq := r.nextSeqLocked()
	r.mu.Unlock()

	r.notify(seq, make([]domain.Meal, 0))
}

// Meals returns a snapshot of the collection.
func (r *Repository) Meals() []domain.Meal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.CloneMeals(r.meals)
}

// Meal returns a copy of the meal with id.
func (r *Repository) Meal(id string) (domain.Meal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return domain.Meal{}, false
	}
	return r.meals[i].Clone(), true
}

// Search returns the meals whose name contains query, ignoring case.
func (r *Repository) Search(query string) []domain.Meal {
	q := strings.ToLower(query)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Meal, 0, len(r.meals))
	for _, m := range r.meals {
		if strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// SaveDish merges draft into the meal with mealID.
// A nil target appends a dish item, otherwise the item at *target is replaced.
func (r *Repository) SaveDish(mealID string, draft dishedit.Draft, target *int) bool {
	m, ok := r.Meal(mealID)
	if !ok {
		return false
	}
	out, ok := dishedit.Apply(m, draft, target)
	if !ok {
		return false
	}
	return r.UpdateMeal(out)
}

// DeleteDish removes the dish item at index from the meal with mealID.
func (r *Repository) DeleteDish(mealID string, index int) bool {
	m, ok := r.Meal(mealID)
	if !ok {
		return false
	}
	out, ok := dishedit.Delete(m, index)
	if !ok {
		return false
	}
	return r.UpdateMeal(out)
}

// Subscribe registers fn to receive a snapshot after every change.
// Observers run synchronously in registration order, and snapshots arrive in
// the order the mutations were applied, also when several goroutines mutate
// at once. An observer may read the repository but must not mutate it.
// The returned function removes the observer.
func (r *Repository) Subscribe(fn func([]domain.Meal)) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextObs
	r.nextObs++
	r.observers = append(r.observers, observer{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.observers = slices.DeleteFunc(r.observers, func(o observer) bool {
			return o.id == id
		})
	}
}

func (r *Repository) nextSeqLocked() uint64 {
	r.seq++
	return r.seq
}

// notify delivers snapshot once every mutation numbered before seq has been
// delivered. It is called without mu held.
func (r *Repository) notify(seq uint64, snapshot []domain.Meal) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	for r.delivered+1 != seq {
		r.notifyCond.Wait()
	}

	r.mu.Lock()
	observers := slices.Clone(r.observers)
	r.mu.Unlock()

	for _, o := range observers {
		o.fn(domain.CloneMeals(snapshot))
	}

	r.delivered = seq
	r.notifyCond.Broadcast()
}

func (r *Repository) indexLocked(id string) int {
	return slices.IndexFunc(r.meals, func(m domain.Meal) bool {
		return m.ID == id
	})
}

func (r *Repository) idsLocked() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.meals))
	for _, m := range r.meals {
		ids[m.ID] = struct{}{}
	}
	return ids
}

// normalize replaces nil slices so the collection always serializes to arrays.
func normalize(m domain.Meal) domain.Meal {
	if m.DishItems == nil {
		m.DishItems = make([]domain.DishItem, 0)
	}
	for i := range m.DishItems {
		if m.DishItems[i].Groceries == nil {
			m.DishItems[i].Groceries = make([]domain.GroceryLine, 0)
		}
	}
	return m
}
