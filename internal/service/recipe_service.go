package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

const recipeImageFolder = "recipes/images"

// RecipeQuery holds list filters. Relation filters are ignored for anonymous viewers.
type RecipeQuery struct {
	AuthorID         uint
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService defines recipe operations.
type RecipeService interface {
	List(ctx context.Context, viewer *model.User, query RecipeQuery, page PageRequest) (*Page[RecipeView], error)
	Get(ctx context.Context, viewer *model.User, id uint) (*RecipeView, error)
	Create(ctx context.Context, author *model.User, in RecipeInput) (*RecipeView, error)
	Update(ctx context.Context, actor *model.User, id uint, in RecipeInput) (*RecipeView, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
	ShortLink(ctx context.Context, id uint) (string, error)
	ResolveShortLink(ctx context.Context, code string) (uint, error)
}

type recipeService struct {
	recipeRepo     repository.RecipeRepository
	tagRepo        repository.TagRepository
	ingredientRepo repository.IngredientRepository
	images         storage.ImageStore
	presenter      *Presenter
	validator      *RecipeValidator
	baseURL        string
}

// NewRecipeService creates a new recipe service. baseURL prefixes short links.
func NewRecipeService(
	recipeRepo repository.RecipeRepository,
	tagRepo repository.TagRepository,
	ingredientRepo repository.IngredientRepository,
	images storage.ImageStore,
	presenter *Presenter,
	baseURL string,
) RecipeService {
	return &recipeService{
		recipeRepo:     recipeRepo,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
		images:         images,
		presenter:      presenter,
		validator:      NewRecipeValidator(),
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

func (s *recipeService) List(ctx context.Context, viewer *model.User, query RecipeQuery, page PageRequest) (*Page[RecipeView], error) {
	filter := repository.RecipeFilter{AuthorID: query.AuthorID, TagSlugs: query.Tags}
	if viewer != nil {
		if query.IsFavorited {
			filter.FavoritedBy = viewer.ID
		}
		if query.IsInShoppingCart {
			filter.InCartOf = viewer.ID
		}
	}

	recipes, total, err := s.recipeRepo.List(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	views, err := s.presenter.recipes(ctx, viewer, recipes)
	if err != nil {
		return nil, err
	}
	return &Page[RecipeView]{Items: views, Total: total, PageRequest: page}, nil
}

func (s *recipeService) Get(ctx context.Context, viewer *model.User, id uint) (*RecipeView, error) {
	recipe, err := s.recipeRepo.FindWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.presenter.recipes(ctx, viewer, []model.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Create validates in completely before touching storage, then inserts the
// recipe with its tags and ingredient rows in one transaction.
func (s *recipeService) Create(ctx context.Context, author *model.User, in RecipeInput) (*RecipeView, error) {
	if author == nil {
		return nil, errors.ErrAuthRequired
	}
	if verr := s.validator.Validate(in, WriteCreate); verr != nil {
		return nil, verr
	}
	tags, items, err := s.resolveAssociations(ctx, in)
	if err != nil {
		return nil, err
	}
	img, err := decodeImageField("image", *in.Image)
	if err != nil {
		return nil, err
	}

	imageKey, err := s.images.Save(ctx, recipeImageFolder, img)
	if err != nil {
		return nil, fmt.Errorf("store recipe image: %w", err)
	}

	recipe := &model.Recipe{
		AuthorID:    author.ID,
		Name:        strings.TrimSpace(*in.Name),
		Text:        *in.Text,
		Image:       imageKey,
		CookingTime: *in.CookingTime,
		Tags:        tags,
		Ingredients: items,
	}
	err = s.recipeRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.RecipeRepository) error {
		return repo.Create(ctx, recipe)
	})
	if err != nil {
		discardImage(ctx, s.images, imageKey)
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	log.Info().Uint("recipe_id", recipe.ID).Uint("author_id", author.ID).Msg("recipe created")
	return s.Get(ctx, author, recipe.ID)
}

// Update replaces tags and ingredients wholesale. Scalars are saved first,
// then tags, then ingredient rows, all inside one transaction.
func (s *recipeService) Update(ctx context.Context, actor *model.User, id uint, in RecipeInput) (*RecipeView, error) {
	if actor == nil {
		return nil, errors.ErrAuthRequired
	}
	recipe, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actor.ID {
		return nil, errors.ErrPermission
	}
	if verr := s.validator.Validate(in, WriteUpdate); verr != nil {
		return nil, verr
	}
	tags, items, err := s.resolveAssociations(ctx, in)
	if err != nil {
		return nil, err
	}

	var oldImage, newImage string
	if in.Image != nil {
		img, err := decodeImageField("image", *in.Image)
		if err != nil {
			return nil, err
		}
		key, err := s.images.Save(ctx, recipeImageFolder, img)
		if err != nil {
			return nil, fmt.Errorf("store recipe image: %w", err)
		}
		oldImage, newImage = recipe.Image, key
		recipe.Image = key
	}
	if in.Name != nil {
		recipe.Name = strings.TrimSpace(*in.Name)
	}
	if in.Text != nil {
		recipe.Text = *in.Text
	}
	if in.CookingTime != nil {
		recipe.CookingTime = *in.CookingTime
	}

	err = s.recipeRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.RecipeRepository) error {
		if err := repo.UpdateScalars(ctx, recipe); err != nil {
			return fmt.Errorf("save fields: %w", err)
		}
		if err := repo.ReplaceTags(ctx, recipe, tags); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}
		if err := repo.ReplaceIngredients(ctx, recipe.ID, items); err != nil {
			return fmt.Errorf("replace ingredients: %w", err)
		}
		return nil
	})
	if err != nil {
		discardImage(ctx, s.images, newImage)
		return nil, fmt.Errorf("update recipe %d: %w", id, err)
	}
	discardImage(ctx, s.images, oldImage)

	return s.Get(ctx, actor, recipe.ID)
}

func (s *recipeService) Delete(ctx context.Context, actor *model.User, id uint) error {
	if actor == nil {
		return errors.ErrAuthRequired
	}
	recipe, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != actor.ID {
		return errors.ErrPermission
	}
	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recipe %d: %w", id, err)
	}
	discardImage(ctx, s.images, recipe.Image)
	return nil
}

// ShortLink returns an absolute short URL for an existing recipe.
func (s *recipeService) ShortLink(ctx context.Context, id uint) (string, error) {
	if _, err := s.recipeRepo.FindByID(ctx, id); err != nil {
		return "", err
	}
	return s.baseURL + "/s/" + strconv.FormatUint(uint64(id), 36) + "/", nil
}

// ResolveShortLink maps a short code back to an existing recipe ID.
func (s *recipeService) ResolveShortLink(ctx context.Context, code string) (uint, error) {
	id, err := strconv.ParseUint(strings.ToLower(code), 36, 64)
	if err != nil || id == 0 {
		return 0, errors.NotFound("recipe")
	}
	recipe, err := s.recipeRepo.FindByID(ctx, uint(id))
	if err != nil {
		return 0, err
	}
	return recipe.ID, nil
}

// resolveAssociations checks that every referenced tag and ingredient exists.
func (s *recipeService) resolveAssociations(ctx context.Context, in RecipeInput) ([]model.Tag, []model.RecipeIngredient, error) {
	verr := errors.NewValidationError()

	tags, err := s.tagRepo.FindByIDs(ctx, in.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("load tags: %w", err)
	}
	tagByID := make(map[uint]model.Tag, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t
	}
	ordered := make([]model.Tag, 0, len(in.Tags))
	for _, id := range in.Tags {
		t, ok := tagByID[id]
		if !ok {
			verr.Add("tags", fmt.Sprintf("tag %d does not exist", id))
			continue
		}
		ordered = append(ordered, t)
	}

	ids := make([]uint, len(in.Ingredients))
	for i, item := range in.Ingredients {
		ids[i] = item.ID
	}
	found, err := s.ingredientRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load ingredients: %w", err)
	}
	known := make(map[uint]bool, len(found))
	for _, ing := range found {
		known[ing.ID] = true
	}
	items := make([]model.RecipeIngredient, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if !known[item.ID] {
			verr.Add("ingredients", fmt.Sprintf("ingredient %d does not exist", item.ID))
			continue
		}
		items = append(items, model.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount})
	}

	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}
	return ordered, items, nil
}

// discardImage deletes key from images, logging failures. Empty keys are ignored.
func discardImage(ctx context.Context, images storage.ImageStore, key string) {
	if key == "" {
		return
	}
	if err := images.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to delete image")
	}
}

// decodeImageField decodes a base64 payload, reporting failures against field.
func decodeImageField(field, payload string) (*storage.Image, error) {
	img, err := storage.DecodeImage(payload)
	if err != nil {
		if stderrors.Is(err, storage.ErrInvalidImage) {
			return nil, errors.FieldError(field, err.Error())
		}
		return nil, err
	}
	return img, nil
}
