package service

import (
	"context"
	"fmt"

	"foodgram/internal/auth"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	User   *model.User
	Claims *auth.Claims
}

// UserView is the public representation of a user.
type UserView struct {
	ID           uint    `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// RecipeIngredientView is an ingredient line inside a recipe.
type RecipeIngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full read representation of a recipe.
type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []model.Tag            `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeShortView is the minified recipe returned by favorite/cart actions
// and embedded in subscriptions.
type RecipeShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is a followed user with a preview of their recipes.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeShortView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

// Presenter turns models into views, resolving image URLs and the viewer's
// relations in batches.
type Presenter struct {
	images    storage.ImageStore
	relations repository.RelationRepository
}

// NewPresenter creates a presenter shared by the services.
func NewPresenter(images storage.ImageStore, relations repository.RelationRepository) *Presenter {
	return &Presenter{images: images, relations: relations}
}

func viewerID(viewer *model.User) uint {
	if viewer == nil {
		return 0
	}
	return viewer.ID
}

func (p *Presenter) imageURL(key string) string {
	if key == "" || p.images == nil {
		return ""
	}
	return p.images.URL(key)
}

func (p *Presenter) userView(u *model.User, subscribed bool) UserView {
	v := UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
	if u.Avatar != "" {
		url := p.imageURL(u.Avatar)
		v.Avatar = &url
	}
	return v
}

// users builds views for users as seen by viewer.
func (p *Presenter) users(ctx context.Context, viewer *model.User, users []model.User) ([]UserView, error) {
	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	following, err := p.relations.ObjectIDs(ctx, model.RelationFollow, viewerID(viewer), ids)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	out := make([]UserView, len(users))
	for i := range users {
		out[i] = p.userView(&users[i], following[users[i].ID])
	}
	return out, nil
}

func (p *Presenter) shortRecipe(r *model.Recipe) RecipeShortView {
	return RecipeShortView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.imageURL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// recipes builds full views. Recipes must have Author, Tags and Ingredients loaded.
func (p *Presenter) recipes(ctx context.Context, viewer *model.User, recipes []model.Recipe) ([]RecipeView, error) {
	vid := viewerID(viewer)
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	favorited, err := p.relations.ObjectIDs(ctx, model.RelationFavorite, vid, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	inCart, err := p.relations.ObjectIDs(ctx, model.RelationShoppingCart, vid, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}
	following, err := p.relations.ObjectIDs(ctx, model.RelationFollow, vid, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	out := make([]RecipeView, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]RecipeIngredientView, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			ingredients[j] = RecipeIngredientView{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		tags := r.Tags
		if tags == nil {
			tags = []model.Tag{}
		}
		out[i] = RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           p.userView(&r.Author, following[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            p.imageURL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}
