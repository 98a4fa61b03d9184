package service

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foodgram/internal/errors"
	"foodgram/internal/model"
)

// memoryRegistry is an in-memory RelationRepository used to exercise toggle cycles.
type memoryRegistry struct {
	mu     sync.Mutex
	nextID uint
	rows   map[[3]interface{}]*model.RelationRecord
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{rows: make(map[[3]interface{}]*model.RelationRecord)}
}

func (r *memoryRegistry) key(kind model.RelationKind, s, o uint) [3]interface{} {
	return [3]interface{}{kind, s, o}
}

func (r *memoryRegistry) Exists(_ context.Context, kind model.RelationKind, s, o uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[r.key(kind, s, o)]
	return ok, nil
}

func (r *memoryRegistry) Find(_ context.Context, kind model.RelationKind, s, o uint) (*model.RelationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[r.key(kind, s, o)]
	if !ok {
		return nil, errors.NotFound(string(kind))
	}
	return rec, nil
}

func (r *memoryRegistry) Create(_ context.Context, kind model.RelationKind, s, o uint) (*model.RelationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == model.RelationFollow && s == o {
		return nil, errors.ErrSelfReference
	}
	k := r.key(kind, s, o)
	if _, ok := r.rows[k]; ok {
		return nil, errors.ErrAlreadyExists
	}
	r.nextID++
	rec := &model.RelationRecord{ID: r.nextID, Kind: kind, SubjectID: s, ObjectID: o}
	r.rows[k] = rec
	return rec, nil
}

func (r *memoryRegistry) Delete(_ context.Context, kind model.RelationKind, s, o uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(kind, s, o)
	if _, ok := r.rows[k]; !ok {
		return errors.ErrRelationNotFound
	}
	delete(r.rows, k)
	return nil
}

func (r *memoryRegistry) DeleteRecord(ctx context.Context, rec *model.RelationRecord) error {
	return r.Delete(ctx, rec.Kind, rec.SubjectID, rec.ObjectID)
}

func (r *memoryRegistry) ObjectIDs(_ context.Context, kind model.RelationKind, s uint, ids []uint) (map[uint]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint]bool)
	for _, id := range ids {
		if _, ok := r.rows[r.key(kind, s, id)]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func recipeRule(recipes map[uint]*model.Recipe) RelationRule[model.Recipe] {
	return RelationRule[model.Recipe]{
		Kind:          model.RelationFavorite,
		AlreadyExists: "recipe is already in favorites",
		NotFound:      "recipe is not in favorites",
		Lookup: func(_ context.Context, id uint) (*model.Recipe, error) {
			if r, ok := recipes[id]; ok {
				return r, nil
			}
			return nil, errors.NotFound("recipe")
		},
	}
}

func followRule(users map[uint]*model.User) RelationRule[model.User] {
	return RelationRule[model.User]{
		Kind:          model.RelationFollow,
		AlreadyExists: "you are already subscribed to this user",
		NotFound:      "you are not subscribed to this user",
		SelfReference: "you cannot subscribe to yourself",
		ForbidSelf:    true,
		Lookup: func(_ context.Context, id uint) (*model.User, error) {
			if u, ok := users[id]; ok {
				return u, nil
			}
			return nil, errors.NotFound("user")
		},
	}
}

func TestValidateRelation(t *testing.T) {
	alice := &model.User{ID: 1, Username: "alice"}
	recipes := map[uint]*model.Recipe{10: {ID: 10, Name: "Soup"}}
	existing := &model.RelationRecord{ID: 7, Kind: model.RelationFavorite, SubjectID: 1, ObjectID: 10}

	tests := []struct {
		name      string
		actor     *model.User
		method    RelationMethod
		targetID  uint
		setupMock func(*MockRelationRepository)
		wantErr   error
		wantMsg   string
	}{
		{
			name:     "add when absent",
			actor:    alice,
			method:   RelationAdd,
			targetID: 10,
			setupMock: func(m *MockRelationRepository) {
				m.On("Find", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(nil, errors.NotFound("favorite"))
			},
		},
		{
			name:     "add when present",
			actor:    alice,
			method:   RelationAdd,
			targetID: 10,
			setupMock: func(m *MockRelationRepository) {
				m.On("Find", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(existing, nil)
			},
			wantErr: errors.ErrAlreadyExists,
			wantMsg: "recipe is already in favorites",
		},
		{
			name:     "remove when present",
			actor:    alice,
			method:   RelationRemove,
			targetID: 10,
			setupMock: func(m *MockRelationRepository) {
				m.On("Find", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(existing, nil)
			},
		},
		{
			name:     "remove when absent",
			actor:    alice,
			method:   RelationRemove,
			targetID: 10,
			setupMock: func(m *MockRelationRepository) {
				m.On("Find", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(nil, nil)
			},
			wantErr: errors.ErrRelationNotFound,
			wantMsg: "recipe is not in favorites",
		},
		{
			name:      "missing target is checked before the pair",
			actor:     alice,
			method:    RelationRemove,
			targetID:  99,
			setupMock: func(m *MockRelationRepository) {},
			wantErr:   errors.ErrNotFound,
			wantMsg:   "recipe not found",
		},
		{
			name:      "anonymous actor",
			actor:     nil,
			method:    RelationAdd,
			targetID:  10,
			setupMock: func(m *MockRelationRepository) {},
			wantErr:   errors.ErrAuthRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := new(MockRelationRepository)
			tt.setupMock(registry)

			action, err := ValidateRelation(context.Background(), registry, recipeRule(recipes), tt.method, tt.actor, tt.targetID)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, err.Error())
				}
				assert.Nil(t, action)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.method, action.Method)
				assert.Equal(t, "Soup", action.Target.Name)
			}
			registry.AssertExpectations(t)
		})
	}
}

func TestValidateRelation_MissingTargetIsNotFoundNotRelation(t *testing.T) {
	registry := new(MockRelationRepository)
	_, err := ValidateRelation(context.Background(), registry, recipeRule(nil), RelationRemove, &model.User{ID: 1}, 5)

	require.Error(t, err)
	assert.False(t, stderrors.Is(err, errors.ErrRelationNotFound))
	assert.Equal(t, http.StatusNotFound, errors.MapErrorToHTTP(err).StatusCode)
	registry.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateRelation_SelfFollow(t *testing.T) {
	alice := &model.User{ID: 1, Username: "alice"}
	registry := new(MockRelationRepository)

	_, err := ValidateRelation(context.Background(), registry, followRule(map[uint]*model.User{1: alice}), RelationAdd, alice, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSelfReference)
	assert.Equal(t, "you cannot subscribe to yourself", err.Error())
	registry.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	registry.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateRelation_SelfUnfollowReportsAbsence(t *testing.T) {
	alice := &model.User{ID: 1, Username: "alice"}
	registry := newMemoryRegistry()

	_, err := ValidateRelation(context.Background(), registry, followRule(map[uint]*model.User{1: alice}), RelationRemove, alice, 1)

	assert.ErrorIs(t, err, errors.ErrRelationNotFound)
}

func TestRelationAction_ApplyRemapsConcurrentDuplicate(t *testing.T) {
	registry := new(MockRelationRepository)
	registry.On("Find", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(nil, nil)
	registry.On("Create", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(nil, errors.ErrAlreadyExists)

	action, err := ValidateRelation(context.Background(), registry, recipeRule(map[uint]*model.Recipe{10: {ID: 10}}), RelationAdd, &model.User{ID: 1}, 10)
	require.NoError(t, err)

	_, err = action.Apply(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
	assert.Equal(t, "recipe is already in favorites", err.Error())
	registry.AssertExpectations(t)
}

func TestRelationAction_ApplyRemoveUsesExistingRecord(t *testing.T) {
	existing := &model.RelationRecord{ID: 3, Kind: model.RelationFavorite, SubjectID: 1, ObjectID: 10}
	registry := new(MockRelationRepository)
	registry.On("Find", mock.Anything, model.RelationFavorite, uint(1), uint(10)).Return(existing, nil)
	registry.On("DeleteRecord", mock.Anything, existing).Return(nil)

	action, err := ValidateRelation(context.Background(), registry, recipeRule(map[uint]*model.Recipe{10: {ID: 10}}), RelationRemove, &model.User{ID: 1}, 10)
	require.NoError(t, err)

	rec, err := action.Apply(context.Background())
	require.NoError(t, err)
	assert.Same(t, existing, rec)
	registry.AssertExpectations(t)
	registry.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRelationToggleCycle(t *testing.T) {
	ctx := context.Background()
	alice := &model.User{ID: 1}
	rule := recipeRule(map[uint]*model.Recipe{10: {ID: 10}})
	registry := newMemoryRegistry()

	toggle := func(method RelationMethod) error {
		action, err := ValidateRelation(ctx, registry, rule, method, alice, 10)
		if err != nil {
			return err
		}
		_, err = action.Apply(ctx)
		return err
	}

	require.NoError(t, toggle(RelationAdd))
	assert.ErrorIs(t, toggle(RelationAdd), errors.ErrAlreadyExists)
	require.NoError(t, toggle(RelationRemove))
	assert.ErrorIs(t, toggle(RelationRemove), errors.ErrRelationNotFound)
	require.NoError(t, toggle(RelationAdd))

	ok, _ := registry.Exists(ctx, model.RelationFavorite, 1, 10)
	assert.True(t, ok)
}

func TestRelationService_SubscribeAndFavorite(t *testing.T) {
	ctx := context.Background()
	alice := &model.User{ID: 1, Username: "alice"}
	bob := &model.User{ID: 2, Username: "bob"}

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, uint(2)).Return(bob, nil)
	users.On("FindByID", mock.Anything, uint(1)).Return(alice, nil)
	recipes := new(MockRecipeRepository)
	recipes.On("FindByID", mock.Anything, uint(10)).Return(&model.Recipe{ID: 10, Name: "Soup", Image: "recipes/images/a.png", CookingTime: 5}, nil)

	registry := newMemoryRegistry()
	svc := NewRelationService(registry, recipes, users, NewPresenter(new(MockImageStore), registry))

	followed, err := svc.Subscribe(ctx, alice, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", followed.Username)

	_, err = svc.Subscribe(ctx, alice, 2)
	assert.Equal(t, "you are already subscribed to this user", err.Error())

	_, err = svc.Subscribe(ctx, alice, 1)
	assert.ErrorIs(t, err, errors.ErrSelfReference)

	short, err := svc.AddFavorite(ctx, alice, 10)
	require.NoError(t, err)
	assert.Equal(t, RecipeShortView{ID: 10, Name: "Soup", Image: "https://media.test/recipes/images/a.png", CookingTime: 5}, *short)

	// Favorites and cart are independent relations.
	_, err = svc.AddToCart(ctx, alice, 10)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveFavorite(ctx, alice, 10))
	inCart, _ := registry.Exists(ctx, model.RelationShoppingCart, 1, 10)
	assert.True(t, inCart)

	require.NoError(t, svc.Unsubscribe(ctx, alice, 2))
	err = svc.Unsubscribe(ctx, alice, 2)
	assert.Equal(t, "you are not subscribed to this user", err.Error())
	assert.Equal(t, http.StatusBadRequest, errors.MapErrorToHTTP(err).StatusCode)
}
