package repository_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mealbook/internal/adapters/kv"
	"go.trai.ch/mealbook/internal/core/domain"
	"go.trai.ch/mealbook/internal/core/ports/mocks"
	"go.trai.ch/mealbook/internal/engine/dishedit"
	"go.trai.ch/mealbook/internal/engine/repository"
	"go.uber.org/mock/gomock"
)

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newRepo(t *testing.T, store *kv.MemoryStore) *repository.Repository {
	t.Helper()
	ctrl := gomock.NewController(t)
	return repository.New(store, mocks.NewMockLogger(ctrl), repository.WithIDGenerator(sequentialIDs()))
}

func stored(t *testing.T, store *kv.MemoryStore) (string, bool) {
	t.Helper()
	data, ok, err := store.Get(t.Context(), domain.DefaultStorageKey)
	require.NoError(t, err)
	return string(data), ok
}

func TestAddMeal_UniqueIDs(t *testing.T) {
	repo := repository.New(kv.NewMemoryStore(), mocks.NewMockLogger(gomock.NewController(t)))

	seen := make(map[string]struct{})
	for i := range 50 {
		m, ok := repo.AddMeal(domain.Meal{Name: fmt.Sprintf("meal %d", i)})
		require.True(t, ok)
		require.NotEmpty(t, m.ID)
		_, dup := seen[m.ID]
		require.False(t, dup, "duplicate id %s", m.ID)
		seen[m.ID] = struct{}{}
	}
	assert.Len(t, repo.Meals(), 50)
}

func TestAddMeal_TrimsAndRejectsEmptyName(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	_, ok := repo.AddMeal(domain.Meal{Name: "   "})
	assert.False(t, ok)
	assert.Empty(t, repo.Meals())
	require.NoError(t, repo.Flush(t.Context()))
	_, present := stored(t, store)
	assert.False(t, present, "rejected add must not save")

	m, ok := repo.AddMeal(domain.Meal{Name: "  Sunday roast  "})
	require.True(t, ok)
	assert.Equal(t, "Sunday roast", m.Name)
	assert.NotNil(t, m.DishItems)
}

func TestAddMeal_ReplacesTakenID(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())

	first, ok := repo.AddMeal(domain.Meal{ID: "fixed", Name: "A"})
	require.True(t, ok)
	assert.Equal(t, "fixed", first.ID)

	second, ok := repo.AddMeal(domain.Meal{ID: "fixed", Name: "B"})
	require.True(t, ok)
	assert.NotEqual(t, "fixed", second.ID)
}

func TestRoundTrip(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	m, ok := repo.AddMeal(domain.Meal{Name: "Taco night"})
	require.True(t, ok)
	require.True(t, repo.SaveDish(m.ID, dishedit.Draft{
		Name:      "Tacos",
		Category:  domain.CategoryMeat,
		Groceries: []dishedit.GroceryEntry{{Name: "tortillas", Quantity: "8"}, {Name: "beef"}},
	}, nil))
	require.True(t, repo.SaveDish(m.ID, dishedit.Draft{
		Name:           "Horchata",
		Category:       domain.CategoryCustom,
		CustomCategory: "Beverage",
	}, nil))
	_, ok = repo.AddMeal(domain.Meal{Name: "Empty"})
	require.True(t, ok)

	want := repo.Meals()
	require.NoError(t, repo.Flush(t.Context()))

	fresh := newRepo(t, store)
	got := fresh.Load(t.Context())
	assert.Equal(t, want, got)
	assert.Equal(t, want, fresh.Meals())
}

func TestSave_WireShape(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	m, ok := repo.AddMeal(domain.Meal{Name: "Brunch"})
	require.True(t, ok)
	require.True(t, repo.SaveDish(m.ID, dishedit.Draft{
		Name:      "Pancakes",
		Category:  domain.CategoryDessert,
		Groceries: []dishedit.GroceryEntry{{Name: "flour"}},
	}, nil))
	require.NoError(t, repo.Flush(t.Context()))

	data, present := stored(t, store)
	require.True(t, present)
	assert.JSONEq(t, `[{
		"id": "id-1",
		"name": "Brunch",
		"dishItems": [{
			"name": "Pancakes",
			"category": "Dessert",
			"groceries": [{"name": "flour", "quantity": ""}]
		}]
	}]`, data)
}

func TestLoad(t *testing.T) {
	t.Run("absent key yields empty collection", func(t *testing.T) {
		repo := newRepo(t, kv.NewMemoryStore())
		got := repo.Load(t.Context())
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("read failure is logged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockKVStore(ctrl)
		log := mocks.NewMockLogger(ctrl)

		store.EXPECT().Get(gomock.Any(), "meals").Return(nil, false, errors.New("io error"))
		log.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorContains(t, err, "io error")
		})

		repo := repository.New(store, log)
		assert.Empty(t, repo.Load(t.Context()))
	})

	t.Run("corrupt data is logged", func(t *testing.T) {
		store := kv.NewMemoryStore()
		require.NoError(t, store.Set(t.Context(), "meals", []byte("{not json")))

		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorContains(t, err, domain.ErrCollectionUnmarshalFailed.Error())
		})

		repo := repository.New(store, log)
		assert.Empty(t, repo.Load(t.Context()))
	})

	t.Run("duplicate ids are dropped", func(t *testing.T) {
		store := kv.NewMemoryStore()
		require.NoError(t, store.Set(t.Context(), "meals", []byte(
			`[{"id":"a","name":"first"},{"id":"a","name":"second"},{"id":"","name":"anon"}]`)))

		ctrl := gomock.NewController(t)
		log := mocks.NewMockLogger(ctrl)
		log.EXPECT().Warn(gomock.Any()).Times(2)

		repo := repository.New(store, log, repository.WithIDGenerator(sequentialIDs()))
		got := repo.Load(t.Context())

		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Name)
		assert.Equal(t, "anon", got[1].Name)
		assert.Equal(t, "id-1", got[1].ID)
		assert.NotNil(t, got[0].DishItems)
	})

	t.Run("custom key", func(t *testing.T) {
		store := kv.NewMemoryStore()
		require.NoError(t, store.Set(t.Context(), "plans", []byte(`[{"id":"x","name":"Plan"}]`)))

		repo := repository.New(store, mocks.NewMockLogger(gomock.NewController(t)), repository.WithKey("plans"))
		got := repo.Load(t.Context())
		require.Len(t, got, 1)
		assert.Equal(t, "Plan", got[0].Name)
	})
}

func TestUpdateMeal(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	a, _ := repo.AddMeal(domain.Meal{Name: "A"})
	b, _ := repo.AddMeal(domain.Meal{Name: "B"})
	c, _ := repo.AddMeal(domain.Meal{Name: "C"})

	b.Name = "B2"
	b.DishItems = []domain.DishItem{{Name: "Soup", Category: "Custom soup"}}
	require.True(t, repo.UpdateMeal(b))

	got := repo.Meals()
	require.Len(t, got, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "B2", got[1].Name)
	assert.Equal(t, "Soup", got[1].DishItems[0].Name)
	assert.Equal(t, a, got[0])
	assert.Equal(t, c, got[2])
}

func TestUpdateMeal_MissingIDIsNoOp(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	assert.False(t, repo.UpdateMeal(domain.Meal{ID: "ghost", Name: "Ghost"}))
	assert.Empty(t, repo.Meals())
	require.NoError(t, repo.Flush(t.Context()))
	_, present := stored(t, store)
	assert.False(t, present)
}

func TestRenameMeal(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())
	m, _ := repo.AddMeal(domain.Meal{Name: "Old"})
	require.True(t, repo.SaveDish(m.ID, dishedit.Draft{Name: "Dish"}, nil))

	assert.False(t, repo.RenameMeal(m.ID, "  "))
	assert.False(t, repo.RenameMeal("ghost", "New"))
	require.True(t, repo.RenameMeal(m.ID, "  New  "))

	got, ok := repo.Meal(m.ID)
	require.True(t, ok)
	assert.Equal(t, "New", got.Name)
	assert.Len(t, got.DishItems, 1)
}

func TestCopyMeal(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())
	src, _ := repo.AddMeal(domain.Meal{Name: "Pasta"})
	require.True(t, repo.SaveDish(src.ID, dishedit.Draft{
		Name:      "Carbonara",
		Category:  domain.CategoryMeat,
		Groceries: []dishedit.GroceryEntry{{Name: "guanciale", Quantity: "100g"}},
	}, nil))
	src, _ = repo.Meal(src.ID)

	cp, ok := repo.CopyMeal(src.ID)
	require.True(t, ok)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, "Pasta (copy)", cp.Name)
	assert.Equal(t, src.DishItems, cp.DishItems)

	target := 0
	require.True(t, repo.SaveDish(cp.ID, dishedit.Draft{Name: "Amatriciana"}, &target))
	src2, _ := repo.Meal(src.ID)
	assert.Equal(t, "Carbonara", src2.DishItems[0].Name, "copy must be deep")

	_, ok = repo.CopyMeal("ghost")
	assert.False(t, ok)
}

func TestDishEdits(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())
	m, _ := repo.AddMeal(domain.Meal{Name: "Feast"})
	for _, n := range []string{"A", "B", "C"} {
		require.True(t, repo.SaveDish(m.ID, dishedit.Draft{Name: n}, nil))
	}

	dishNames := func() []string {
		got, _ := repo.Meal(m.ID)
		out := make([]string, 0, len(got.DishItems))
		for _, d := range got.DishItems {
			out = append(out, d.Name)
		}
		return out
	}

	target := 1
	require.True(t, repo.SaveDish(m.ID, dishedit.Draft{Name: "B2"}, &target))
	assert.Equal(t, []string{"A", "B2", "C"}, dishNames())

	require.True(t, repo.DeleteDish(m.ID, 0))
	assert.Equal(t, []string{"B2", "C"}, dishNames())

	assert.False(t, repo.DeleteDish(m.ID, 5))
	assert.False(t, repo.DeleteDish("ghost", 0))
	assert.False(t, repo.SaveDish(m.ID, dishedit.Draft{Name: " "}, nil))
	assert.False(t, repo.SaveDish("ghost", dishedit.Draft{Name: "X"}, nil))
	assert.Equal(t, []string{"B2", "C"}, dishNames())
}

func TestResetAll(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	_, _ = repo.AddMeal(domain.Meal{Name: "A"})
	_, _ = repo.AddMeal(domain.Meal{Name: "B"})
	repo.ResetAll()

	assert.Empty(t, repo.Meals())
	require.NoError(t, repo.Flush(t.Context()))
	_, present := stored(t, store)
	assert.False(t, present, "reset removes the key rather than writing an empty array")

	fresh := newRepo(t, store)
	assert.Empty(t, fresh.Load(t.Context()))
}

func TestSaveEmptyCollectionWritesArray(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	repo.Save()
	require.NoError(t, repo.Flush(t.Context()))

	data, present := stored(t, store)
	require.True(t, present)
	assert.Equal(t, "[]", data)
}

func TestSearch(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())
	for _, n := range []string{"Sunday Roast", "Roast chicken", "Salad"} {
		_, ok := repo.AddMeal(domain.Meal{Name: n})
		require.True(t, ok)
	}

	names := func(meals []domain.Meal) []string {
		out := make([]string, 0, len(meals))
		for _, m := range meals {
			out = append(out, m.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Sunday Roast", "Roast chicken"}, names(repo.Search("ROAST")))
	assert.Equal(t, []string{"Salad"}, names(repo.Search("sal")))
	assert.Len(t, repo.Search(""), 3)
	assert.Empty(t, repo.Search("pizza"))
}

func TestSnapshotsAreCopies(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())
	m, _ := repo.AddMeal(domain.Meal{Name: "A"})
	require.True(t, repo.SaveDish(m.ID, dishedit.Draft{Name: "Dish"}, nil))

	meals := repo.Meals()
	meals[0].Name = "mutated"
	meals[0].DishItems[0].Name = "mutated"

	got, _ := repo.Meal(m.ID)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "Dish", got.DishItems[0].Name)
}

func TestSubscribe(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	var order []string
	var last []domain.Meal
	cancelFirst := repo.Subscribe(func(meals []domain.Meal) {
		order = append(order, "first")
		last = meals
	})
	repo.Subscribe(func([]domain.Meal) {
		order = append(order, "second")
	})

	m, _ := repo.AddMeal(domain.Meal{Name: "A"})
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, last, 1)

	require.True(t, repo.RenameMeal(m.ID, "B"))
	assert.Equal(t, "B", last[0].Name)

	last[0].Name = "mutated"
	got, _ := repo.Meal(m.ID)
	assert.Equal(t, "B", got.Name)

	repo.ResetAll()
	assert.Empty(t, last)

	repo.Load(t.Context())
	assert.Len(t, order, 8)

	cancelFirst()
	_, _ = repo.AddMeal(domain.Meal{Name: "C"})
	assert.Len(t, order, 9)
	assert.Equal(t, "second", order[8])

	assert.False(t, repo.UpdateMeal(domain.Meal{ID: "ghost"}))
	assert.Len(t, order, 9, "no-ops do not notify")
}

func TestObserverMayReadRepository(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())
	var seen int
	repo.Subscribe(func([]domain.Meal) {
		seen = len(repo.Meals())
	})
	_, _ = repo.AddMeal(domain.Meal{Name: "A"})
	assert.Equal(t, 1, seen)
}

func TestWriteFailureIsLoggedAndMemoryStays(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKVStore(ctrl)
	log := mocks.NewMockLogger(ctrl)

	store.EXPECT().Set(gomock.Any(), "meals", gomock.Any()).Return(errors.New("disk full"))
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, "disk full")
	})

	repo := repository.New(store, log)
	_, ok := repo.AddMeal(domain.Meal{Name: "A"})
	require.True(t, ok)

	err := repo.Flush(t.Context())
	require.Error(t, err)
	assert.Len(t, repo.Meals(), 1)
}

func TestConcurrentMutations(t *testing.T) {
	store := kv.NewMemoryStore()
	repo := newRepo(t, store)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			_, ok := repo.AddMeal(domain.Meal{Name: fmt.Sprintf("meal %d", i)})
			assert.True(t, ok)
		})
	}
	wg.Wait()
	require.NoError(t, repo.Flush(t.Context()))

	data, present := stored(t, store)
	require.True(t, present)
	assert.Equal(t, 20, strings.Count(data, `"id"`))

	fresh := newRepo(t, store)
	assert.Len(t, fresh.Load(context.Background()), 20)
}

type slowStore struct {
	*kv.MemoryStore
	delay time.Duration
}

func (s *slowStore) Set(ctx context.Context, key string, value []byte) error {
	time.Sleep(s.delay)
	return s.MemoryStore.Set(ctx, key, value)
}

func TestLoad_WaitsForPendingWrites(t *testing.T) {
	store := &slowStore{MemoryStore: kv.NewMemoryStore(), delay: 20 * time.Millisecond}
	ctrl := gomock.NewController(t)
	repo := repository.New(store, mocks.NewMockLogger(ctrl), repository.WithIDGenerator(sequentialIDs()))

	_, ok := repo.AddMeal(domain.Meal{Name: "Pasta"})
	require.True(t, ok)

	got := repo.Load(t.Context())
	require.Len(t, got, 1)
	assert.Equal(t, "Pasta", got[0].Name)
	assert.Len(t, repo.Meals(), 1)

	_, ok = repo.AddMeal(domain.Meal{Name: "Soup"})
	require.True(t, ok)
	require.NoError(t, repo.Flush(t.Context()))

	fresh := repository.New(store, mocks.NewMockLogger(ctrl))
	assert.Len(t, fresh.Load(t.Context()), 2)
}

func TestLoad_InterruptedFlushIsLoggedAndStillReads(t *testing.T) {
	store := &slowStore{MemoryStore: kv.NewMemoryStore(), delay: 50 * time.Millisecond}
	require.NoError(t, store.MemoryStore.Set(t.Context(), domain.DefaultStorageKey, []byte(`[{"id":"a","name":"Kept"}]`)))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, "flush interrupted")
	})

	repo := repository.New(store, log)
	repo.Save()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	got := repo.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].Name)

	require.NoError(t, repo.Flush(t.Context()))
}

func TestAddMeal_DropsNamelessDishesAndGroceries(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "dropped 1 dish items and 1 groceries")
	})

	repo := repository.New(kv.NewMemoryStore(), log)
	m, ok := repo.AddMeal(domain.Meal{
		Name: "Imported",
		DishItems: []domain.DishItem{
			{Name: " ", Category: domain.CategoryMeat},
			{Name: "Salad ", Category: "Greens", Groceries: []domain.GroceryLine{{Name: ""}, {Name: "lettuce"}}},
		},
	})
	require.True(t, ok)
	assert.Equal(t, []domain.DishItem{
		{Name: "Salad", Category: "Greens", Groceries: []domain.GroceryLine{{Name: "lettuce"}}},
	}, m.DishItems)
}

func TestLoad_DropsNamelessDishes(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(t.Context(), "meals", []byte(
		`[{"id":"a","name":"Dinner","dishItems":[{"name":"","category":"Meat","groceries":[]},`+
			`{"name":"Soup","category":"Starter","groceries":[{"name":" ","quantity":"1"}]}]}]`)))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	repo := repository.New(store, log)
	got := repo.Load(t.Context())
	require.Len(t, got, 1)
	require.Len(t, got[0].DishItems, 1)
	assert.Equal(t, "Soup", got[0].DishItems[0].Name)
	assert.Empty(t, got[0].DishItems[0].Groceries)
}

func TestSubscribe_ConcurrentMutationsArriveInOrder(t *testing.T) {
	repo := newRepo(t, kv.NewMemoryStore())

	var sizes []int
	repo.Subscribe(func(meals []domain.Meal) {
		sizes = append(sizes, len(meals))
	})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			_, ok := repo.AddMeal(domain.Meal{Name: fmt.Sprintf("meal %d", i)})
			assert.True(t, ok)
		})
	}
	wg.Wait()

	want := make([]int, 20)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, sizes)
}
