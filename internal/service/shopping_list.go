package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

// ShoppingListFilename is the attachment name of the downloaded list.
const ShoppingListFilename = "shopping_list.txt"

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	IngredientID    uint
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingList is the aggregated cart of one user.
type ShoppingList struct {
	Username string
	Items    []ShoppingItem
}

// ShoppingListService builds and renders shopping lists.
type ShoppingListService interface {
	Build(ctx context.Context, user *model.User) (*ShoppingList, error)
	Download(ctx context.Context, user *model.User) ([]byte, error)
}

type shoppingListService struct {
	recipeRepo repository.RecipeRepository
	now        func() time.Time
}

// NewShoppingListService creates a new shopping list service. now may be nil.
func NewShoppingListService(recipeRepo repository.RecipeRepository, now func() time.Time) ShoppingListService {
	if now == nil {
		now = time.Now
	}
	return &shoppingListService{recipeRepo: recipeRepo, now: now}
}

// Build aggregates the user's cart. An empty result is errors.ErrEmptyCart.
func (s *shoppingListService) Build(ctx context.Context, user *model.User) (*ShoppingList, error) {
	if user == nil {
		return nil, errors.ErrAuthRequired
	}
	lines, err := s.recipeRepo.CartLines(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart lines: %w", err)
	}
	items := AggregateShoppingList(lines)
	if len(items) == 0 {
		return nil, errors.ErrEmptyCart
	}
	return &ShoppingList{Username: user.Username, Items: items}, nil
}

// Download builds the list and renders it at the current time.
func (s *shoppingListService) Download(ctx context.Context, user *model.User) ([]byte, error) {
	list, err := s.Build(ctx, user)
	if err != nil {
		return nil, err
	}
	return RenderShoppingList(list, s.now()), nil
}

// AggregateShoppingList sums amounts per ingredient ID and sorts the result
// by name in byte order. Ingredients that share a name and unit but have
// different IDs stay separate lines; equal names are ordered by ID.
func AggregateShoppingList(lines []model.CartLine) []ShoppingItem {
	index := make(map[uint]int, len(lines))
	items := make([]ShoppingItem, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.IngredientID]; ok {
			items[i].Amount += line.Amount
			continue
		}
		index[line.IngredientID] = len(items)
		items = append(items, ShoppingItem{
			IngredientID:    line.IngredientID,
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].IngredientID < items[j].IngredientID
	})
	return items
}

// RenderShoppingList renders the plain-text report for list at time at.
func RenderShoppingList(list *ShoppingList, at time.Time) []byte {
	banner := strings.Repeat("=", 50)
	lines := []string{
		banner,
		"SHOPPING LIST",
		banner,
		"User: " + list.Username,
		"Date: " + at.Format("02.01.2006 15:04"),
		"",
		"Ingredients:",
		strings.Repeat("-", 30),
	}
	for i, item := range list.Items {
		lines = append(lines, fmt.Sprintf("%2d. %s (%s): %d", i+1, item.Name, item.MeasurementUnit, item.Amount))
	}
	lines = append(lines,
		"",
		banner,
		fmt.Sprintf("Total ingredients: %d", len(list.Items)),
		banner,
	)
	return []byte(strings.Join(lines, "\n"))
}
