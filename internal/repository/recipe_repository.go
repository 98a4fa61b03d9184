package repository

import (
	"context"

	"gorm.io/gorm"

	"foodgram/internal/model"
)

// RecipeFilter narrows List. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID    uint
	TagSlugs    []string
	FavoritedBy uint
	InCartOf    uint
}

// RecipeRepository defines recipe persistence operations.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	FindByID(ctx context.Context, id uint) (*model.Recipe, error)
	FindWithDetails(ctx context.Context, id uint) (*model.Recipe, error)
	List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]model.Recipe, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]model.Recipe, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	UpdateScalars(ctx context.Context, recipe *model.Recipe) error
	ReplaceTags(ctx context.Context, recipe *model.Recipe, tags []model.Tag) error
	ReplaceIngredients(ctx context.Context, recipeID uint, items []model.RecipeIngredient) error
	Delete(ctx context.Context, id uint) error
	CartLines(ctx context.Context, userID uint) ([]model.CartLine, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RecipeRepository) error) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// Create inserts recipe with its tag links and ingredient rows. Tags are
// referenced, never upserted.
func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return translate(r.db.WithContext(ctx).Omit("Author", "Tags.*", "Ingredients.Ingredient").Create(recipe).Error, "recipe")
}

func (r *recipeRepository) FindByID(ctx context.Context, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, translate(err, "recipe")
	}
	return &recipe, nil
}

func (r *recipeRepository) FindWithDetails(ctx context.Context, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.withDetails(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, translate(err, "recipe")
	}
	return &recipe, nil
}

// List returns a page of recipes, newest first, with details preloaded.
func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]model.Recipe, int64, error) {
	var (
		recipes []model.Recipe
		total   int64
	)
	q := r.db.WithContext(ctx).Model(&model.Recipe{})
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		q = q.Where("recipes.id IN (?)", r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs))
	}
	if filter.FavoritedBy != 0 {
		q = q.Where("recipes.id IN (?)", r.db.Model(&model.Favorite{}).
			Select("recipe_id").Where("author_id = ?", filter.FavoritedBy))
	}
	if filter.InCartOf != 0 {
		q = q.Where("recipes.id IN (?)", r.db.Model(&model.ShoppingCart{}).
			Select("recipe_id").Where("author_id = ?", filter.InCartOf))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.withDetails(q).Order("recipes.created_at DESC").Order("recipes.id DESC").
		Offset(offset).Limit(limit).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListByAuthor returns the newest recipes of an author. limit <= 0 means all.
func (r *recipeRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]model.Recipe, error) {
	var recipes []model.Recipe
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func (r *recipeRepository) UpdateScalars(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Model(recipe).
		Select("name", "text", "image", "cooking_time", "updated_at").
		Updates(recipe).Error
}

// ReplaceTags swaps the full tag set of recipe.
func (r *recipeRepository) ReplaceTags(ctx context.Context, recipe *model.Recipe, tags []model.Tag) error {
	return r.db.WithContext(ctx).Model(recipe).Omit("Tags.*").Association("Tags").Replace(tags)
}

// ReplaceIngredients deletes every ingredient row of the recipe and inserts items.
func (r *recipeRepository) ReplaceIngredients(ctx context.Context, recipeID uint, items []model.RecipeIngredient) error {
	if err := r.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Delete(&model.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].RecipeID = recipeID
	}
	return translate(r.db.WithContext(ctx).Omit("Ingredient").Create(&items).Error, "recipe ingredient")
}

func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Recipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "recipe")
	}
	return nil
}

// CartLines flattens every RecipeIngredient row of every recipe in the user's
// cart, joined with the ingredient's name and unit. Rows are not grouped.
func (r *recipeRepository) CartLines(ctx context.Context, userID uint) ([]model.CartLine, error) {
	var lines []model.CartLine
	err := r.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("recipe_ingredients.ingredient_id AS ingredient_id, ingredients.name AS name, "+
			"ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.author_id = ?", userID).
		Order("shopping_carts.id").Order("recipe_ingredients.id").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// WithTransaction executes a function within a database transaction.
func (r *recipeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RecipeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &recipeRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
