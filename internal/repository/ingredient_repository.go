package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/model"
)

// IngredientRepository defines ingredient catalog operations.
type IngredientRepository interface {
	Search(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
	FindByID(ctx context.Context, id uint) (*model.Ingredient, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Ingredient, error)
	Exists(ctx context.Context, name, unit string) (bool, error)
	CreateBatch(ctx context.Context, ingredients []model.Ingredient) error
}

type ingredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository.
func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

// Search returns ingredients whose name starts with namePrefix, case-insensitively.
// An empty prefix returns the whole catalog.
func (r *ingredientRepository) Search(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	q := r.db.WithContext(ctx).Model(&model.Ingredient{})
	if namePrefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", likePrefix(strings.ToLower(namePrefix)))
	}
	if err := q.Order("name").Order("id").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) FindByID(ctx context.Context, id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, translate(err, "ingredient")
	}
	return &ingredient, nil
}

func (r *ingredientRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) Exists(ctx context.Context, name, unit string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Ingredient{}).
		Where("name = ? AND measurement_unit = ?", name, unit).
		Count(&count).Error
	return count > 0, err
}

// CreateBatch inserts ingredients in chunks of 100.
func (r *ingredientRepository) CreateBatch(ctx context.Context, ingredients []model.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ingredients, 100).Error
}

// likePrefix escapes LIKE wildcards in s and appends %.
func likePrefix(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s) + "%"
}
