// Package app implements the application layer for mealbook.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/mealbook/internal/adapters/archive"
	"go.trai.ch/mealbook/internal/adapters/config"
	"go.trai.ch/mealbook/internal/adapters/kv"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/core/ports"
	"go.trai.ch/mealbook/internal/engine/dishedit"
	"go.trai.ch/mealbook/internal/engine/grouping"
	"go.trai.ch/mealbook/internal/engine/repository"
	"go.trai.ch/zerr"
)

// StoreOpener opens the key-value store described by settings.
type StoreOpener func(ctx context.Context, settings domain.Settings) (ports.KVStore, error)

// Overrides holds settings given on the command line. Empty fields keep the
// value from the config file.
type Overrides struct {
	DataDir   string
	Backend   string
	LogFormat string
}

// MealView is a meal together with its dish items grouped by category.
type MealView struct {
	Meal   domain.Meal
	Groups []grouping.Group
}

type formatter interface {
	SetFormat(format string) error
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	openStore    StoreOpener

	settings domain.Settings
	store    ports.KVStore
	repo     *repository.Repository
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, log ports.Logger) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		openStore:    kv.Open,
	}
}

// WithStoreOpener replaces the function used to open the store.
func (a *App) WithStoreOpener(fn StoreOpener) *App {
	a.openStore = fn
	return a
}

// Open loads the configuration at configPath, opens the store and loads the
// meal collection.
func (a *App) Open(ctx context.Context, configPath string, o Overrides) error {
	settings, err := a.configLoader.Load(configPath)
	if err != nil {
		return err
	}
	if o.DataDir != "" {
		settings.DataDir = o.DataDir
	}
	if o.Backend != "" {
		backend, err := config.ParseBackend(o.Backend)
		if err != nil {
			return err
		}
		settings.Backend = backend
	}
	if o.LogFormat != "" {
		settings.LogFormat = o.LogFormat
	}

	if f, ok := a.logger.(formatter); ok {
		if err := f.SetFormat(settings.LogFormat); err != nil {
			return err
		}
	}

	store, err := a.openStore(ctx, settings)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreOpenFailed.Error())
	}

	a.settings = settings
	a.store = store
	a.repo = repository.New(store, a.logger,
		repository.WithKey(settings.StorageKey),
		repository.WithWriteTimeout(settings.WriteTimeout),
	)
	a.repo.Load(ctx)
	return nil
}

// Close waits for pending writes and releases the store.
func (a *App) Close(ctx context.Context) error {
	if a.repo == nil {
		return nil
	}
	flushErr := a.repo.Flush(ctx)
	closeErr := a.store.Close()
	a.repo, a.store = nil, nil
	return errors.Join(flushErr, closeErr)
}

// Settings returns the settings the app was opened with.
func (a *App) Settings() domain.Settings {
	return a.settings
}

// Subscribe registers fn to receive the collection after every change.
func (a *App) Subscribe(fn func([]domain.Meal)) (func(), error) {
	if a.repo == nil {
		return nil, domain.ErrNotOpen
	}
	return a.repo.Subscribe(fn), nil
}

// Meals returns the meals whose name contains query, ignoring case.
func (a *App) Meals(query string) ([]domain.Meal, error) {
	if a.repo == nil {
		return nil, domain.ErrNotOpen
	}
	return a.repo.Search(query), nil
}

// Resolve finds a meal by id or by a unique id prefix.
func (a *App) Resolve(ref string) (domain.Meal, error) {
	if a.repo == nil {
		return domain.Meal{}, domain.ErrNotOpen
	}
	if m, ok := a.repo.Meal(ref); ok {
		return m, nil
	}

	var matches []domain.Meal
	if ref != "" {
		for _, m := range a.repo.Meals() {
			if strings.HasPrefix(m.ID, ref) {
				matches = append(matches, m)
			}
		}
	}

	switch len(matches) {
	case 0:
		return domain.Meal{}, zerr.With(domain.ErrMealNotFound, "meal", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Meal{}, zerr.With(zerr.With(domain.ErrAmbiguousMeal, "meal", ref), "matches", len(matches))
	}
}

// AddMeal creates a meal named name.
func (a *App) AddMeal(name string) (domain.Meal, error) {
	if a.repo == nil {
		return domain.Meal{}, domain.ErrNotOpen
	}
	m, ok := a.repo.AddMeal(domain.Meal{Name: name})
	if !ok {
		return domain.Meal{}, zerr.With(domain.ErrInvalidMealName, "name", name)
	}
	return m, nil
}

// RenameMeal renames the meal referenced by ref.
func (a *App) RenameMeal(ref, name string) (domain.Meal, error) {
	m, err := a.Resolve(ref)
	if err != nil {
		return domain.Meal{}, err
	}
	if !a.repo.RenameMeal(m.ID, name) {
		return domain.Meal{}, zerr.With(domain.ErrInvalidMealName, "name", name)
	}
	return a.current(m.ID)
}

// CopyMeal duplicates the meal referenced by ref.
func (a *App) CopyMeal(ref string) (domain.Meal, error) {
	m, err := a.Resolve(ref)
	if err != nil {
		return domain.Meal{}, err
	}
	cp, ok := a.repo.CopyMeal(m.ID)
	if !ok {
		return domain.Meal{}, zerr.With(domain.ErrMealNotFound, "meal", ref)
	}
	return cp, nil
}

// ShowMeal returns the meal referenced by ref with its grouped dish items.
func (a *App) ShowMeal(ref string) (MealView, error) {
	m, err := a.Resolve(ref)
	if err != nil {
		return MealView{}, err
	}
	return MealView{Meal: m, Groups: grouping.ByCategory(m.DishItems)}, nil
}

// AddDish appends the dish item described by draft to the meal referenced by ref.
func (a *App) AddDish(ref string, draft dishedit.Draft) (domain.Meal, error) {
	m, err := a.Resolve(ref)
	if err != nil {
		return domain.Meal{}, err
	}
	if !a.repo.SaveDish(m.ID, draft, nil) {
		return domain.Meal{}, zerr.With(domain.ErrInvalidDishName, "name", draft.Name)
	}
	return a.current(m.ID)
}

// EditDish opens an edit session on the dish item at index, lets edit change
// the pre-filled draft and saves the result in place. Nothing is saved when
// edit returns an error.
func (a *App) EditDish(ref string, index int, edit func(*dishedit.Draft) error) (domain.Meal, error) {
	m, err := a.Resolve(ref)
	if err != nil {
		return domain.Meal{}, err
	}
	session, ok := dishedit.Edit(m, index)
	if !ok {
		return domain.Meal{}, dishIndexError(m, index)
	}
	if edit != nil {
		if err := edit(&session.Draft); err != nil {
			return domain.Meal{}, err
		}
	}
	if !a.repo.SaveDish(m.ID, session.Draft, session.Target()) {
		return domain.Meal{}, zerr.With(domain.ErrInvalidDishName, "name", session.Draft.Name)
	}
	return a.current(m.ID)
}

// DeleteDish removes the dish item at index from the meal referenced by ref.
func (a *App) DeleteDish(ref string, index int) (domain.Meal, error) {
	m, err := a.Resolve(ref)
	if err != nil {
		return domain.Meal{}, err
	}
	if !a.repo.DeleteDish(m.ID, index) {
		return domain.Meal{}, dishIndexError(m, index)
	}
	return a.current(m.ID)
}

// Export writes every meal to w as a YAML archive.
func (a *App) Export(w io.Writer) error {
	if a.repo == nil {
		return domain.ErrNotOpen
	}
	return archive.Encode(w, a.repo.Meals())
}

// Import adds the meals of the YAML archive in r and returns how many were
// added. Meals whose id is already present receive a fresh id; meals with an
// empty name are skipped.
func (a *App) Import(r io.Reader) (int, error) {
	if a.repo == nil {
		return 0, domain.ErrNotOpen
	}
	meals, err := archive.Decode(r)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, m := range meals {
		if _, ok := a.repo.AddMeal(m); ok {
			added++
			continue
		}
		a.logger.Warn(fmt.Sprintf("skipped imported meal %s without a name", m.ID))
	}
	return added, nil
}

// Reset deletes every meal. It requires confirm to be true.
func (a *App) Reset(confirm bool) error {
	if a.repo == nil {
		return domain.ErrNotOpen
	}
	if !confirm {
		return domain.ErrResetNotConfirmed
	}
	a.repo.ResetAll()
	return nil
}

// Categories returns the selectable dish categories.
func (a *App) Categories() []string {
	return domain.Categories()
}

func (a *App) current(id string) (domain.Meal, error) {
	m, ok := a.repo.Meal(id)
	if !ok {
		return domain.Meal{}, zerr.With(domain.ErrMealNotFound, "meal", id)
	}
	return m, nil
}

func dishIndexError(m domain.Meal, index int) error {
	err := zerr.With(domain.ErrDishIndexOutOfRange, "index", index)
	return zerr.With(err, "dishes", len(m.DishItems))
}
