package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"foodgram/internal/cache"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

const (
	catalogCacheTTL   = 10 * time.Minute
	tagsCacheKey      = "catalog:tags"
	ingredientsPrefix = "catalog:ingredients:"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// SeedResult counts rows touched by a seeding run.
type SeedResult struct {
	Created int
	Updated int
	Skipped int
}

// CatalogService serves the tag and ingredient reference data.
type CatalogService interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	GetTag(ctx context.Context, id uint) (*model.Tag, error)
	SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*model.Ingredient, error)
	SeedTags(ctx context.Context, tags []model.Tag) (SeedResult, error)
	SeedIngredients(ctx context.Context, ingredients []model.Ingredient) (SeedResult, error)
}

type catalogService struct {
	tagRepo        repository.TagRepository
	ingredientRepo repository.IngredientRepository
	cache          *cache.Client
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(tagRepo repository.TagRepository, ingredientRepo repository.IngredientRepository, cache *cache.Client) CatalogService {
	return &catalogService{tagRepo: tagRepo, ingredientRepo: ingredientRepo, cache: cache}
}

func (s *catalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if s.cache.GetJSON(ctx, tagsCacheKey, &tags) {
		return tags, nil
	}
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	s.cache.SetJSON(ctx, tagsCacheKey, tags, catalogCacheTTL)
	return tags, nil
}

func (s *catalogService) GetTag(ctx context.Context, id uint) (*model.Tag, error) {
	return s.tagRepo.FindByID(ctx, id)
}

// SearchIngredients matches a case-insensitive name prefix. Results are cached per prefix.
func (s *catalogService) SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	key := ingredientsPrefix + strings.ToLower(namePrefix)
	var ingredients []model.Ingredient
	if s.cache.GetJSON(ctx, key, &ingredients) {
		return ingredients, nil
	}
	ingredients, err := s.ingredientRepo.Search(ctx, namePrefix)
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	s.cache.SetJSON(ctx, key, ingredients, catalogCacheTTL)
	return ingredients, nil
}

func (s *catalogService) GetIngredient(ctx context.Context, id uint) (*model.Ingredient, error) {
	return s.ingredientRepo.FindByID(ctx, id)
}

// SeedTags upserts tags by slug.
func (s *catalogService) SeedTags(ctx context.Context, tags []model.Tag) (SeedResult, error) {
	var res SeedResult
	for i := range tags {
		tag := tags[i]
		if tag.Name == "" || utf8.RuneCountInString(tag.Name) > 32 || len(tag.Slug) > 32 || !slugPattern.MatchString(tag.Slug) {
			res.Skipped++
			continue
		}
		created, err := s.tagRepo.Upsert(ctx, &tag)
		if err != nil {
			return res, fmt.Errorf("seed tag %s: %w", tag.Slug, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	_ = s.cache.Delete(ctx, tagsCacheKey)
	return res, nil
}

// SeedIngredients inserts ingredients that are not present yet. Existing
// (name, unit) pairs are skipped. Cached searches expire on their own TTL.
func (s *catalogService) SeedIngredients(ctx context.Context, ingredients []model.Ingredient) (SeedResult, error) {
	var (
		res     SeedResult
		pending []model.Ingredient
		seen    = make(map[[2]string]bool, len(ingredients))
	)
	for _, ing := range ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.MeasurementUnit = strings.TrimSpace(ing.MeasurementUnit)
		key := [2]string{ing.Name, ing.MeasurementUnit}
		if ing.Name == "" || ing.MeasurementUnit == "" || utf8.RuneCountInString(ing.Name) > 128 || utf8.RuneCountInString(ing.MeasurementUnit) > 64 || seen[key] {
			res.Skipped++
			continue
		}
		seen[key] = true

		exists, err := s.ingredientRepo.Exists(ctx, ing.Name, ing.MeasurementUnit)
		if err != nil {
			return res, fmt.Errorf("check ingredient %s: %w", ing.Name, err)
		}
		if exists {
			res.Skipped++
			continue
		}
		pending = append(pending, model.Ingredient{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit})
	}

	if err := s.ingredientRepo.CreateBatch(ctx, pending); err != nil {
		return res, fmt.Errorf("create ingredients: %w", err)
	}
	res.Created = len(pending)
	return res, nil
}
