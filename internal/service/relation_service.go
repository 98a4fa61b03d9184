package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"foodgram/internal/model"
	"foodgram/internal/repository"
)

// RelationService toggles favorites, shopping cart entries and subscriptions.
type RelationService interface {
	AddFavorite(ctx context.Context, actor *model.User, recipeID uint) (*RecipeShortView, error)
	RemoveFavorite(ctx context.Context, actor *model.User, recipeID uint) error
	AddToCart(ctx context.Context, actor *model.User, recipeID uint) (*RecipeShortView, error)
	RemoveFromCart(ctx context.Context, actor *model.User, recipeID uint) error
	Subscribe(ctx context.Context, actor *model.User, userID uint) (*model.User, error)
	Unsubscribe(ctx context.Context, actor *model.User, userID uint) error
}

type relationService struct {
	registry  repository.RelationRepository
	presenter *Presenter

	favoriteRule RelationRule[model.Recipe]
	cartRule     RelationRule[model.Recipe]
	followRule   RelationRule[model.User]
}

// NewRelationService creates a new relation service.
func NewRelationService(
	registry repository.RelationRepository,
	recipeRepo repository.RecipeRepository,
	userRepo repository.UserRepository,
	presenter *Presenter,
) RelationService {
	return &relationService{
		registry:  registry,
		presenter: presenter,
		favoriteRule: RelationRule[model.Recipe]{
			Kind:          model.RelationFavorite,
			AlreadyExists: "recipe is already in favorites",
			NotFound:      "recipe is not in favorites",
			Lookup:        recipeRepo.FindByID,
		},
		cartRule: RelationRule[model.Recipe]{
			Kind:          model.RelationShoppingCart,
			AlreadyExists: "recipe is already in shopping cart",
			NotFound:      "recipe is not in shopping cart",
			Lookup:        recipeRepo.FindByID,
		},
		followRule: RelationRule[model.User]{
			Kind:          model.RelationFollow,
			AlreadyExists: "you are already subscribed to this user",
			NotFound:      "you are not subscribed to this user",
			SelfReference: "you cannot subscribe to yourself",
			ForbidSelf:    true,
			Lookup:        userRepo.FindByID,
		},
	}
}

func (s *relationService) addRecipe(ctx context.Context, rule RelationRule[model.Recipe], actor *model.User, recipeID uint) (*RecipeShortView, error) {
	action, err := ValidateRelation(ctx, s.registry, rule, RelationAdd, actor, recipeID)
	if err != nil {
		return nil, err
	}
	if _, err := action.Apply(ctx); err != nil {
		return nil, err
	}
	log.Debug().Str("relation", string(rule.Kind)).Uint("user_id", actor.ID).Uint("recipe_id", recipeID).Msg("relation added")
	view := s.presenter.shortRecipe(action.Target)
	return &view, nil
}

func (s *relationService) removeRecipe(ctx context.Context, rule RelationRule[model.Recipe], actor *model.User, recipeID uint) error {
	action, err := ValidateRelation(ctx, s.registry, rule, RelationRemove, actor, recipeID)
	if err != nil {
		return err
	}
	_, err = action.Apply(ctx)
	return err
}

func (s *relationService) AddFavorite(ctx context.Context, actor *model.User, recipeID uint) (*RecipeShortView, error) {
	return s.addRecipe(ctx, s.favoriteRule, actor, recipeID)
}

func (s *relationService) RemoveFavorite(ctx context.Context, actor *model.User, recipeID uint) error {
	return s.removeRecipe(ctx, s.favoriteRule, actor, recipeID)
}

func (s *relationService) AddToCart(ctx context.Context, actor *model.User, recipeID uint) (*RecipeShortView, error) {
	return s.addRecipe(ctx, s.cartRule, actor, recipeID)
}

func (s *relationService) RemoveFromCart(ctx context.Context, actor *model.User, recipeID uint) error {
	return s.removeRecipe(ctx, s.cartRule, actor, recipeID)
}

// Subscribe makes actor follow userID and returns the followed user.
func (s *relationService) Subscribe(ctx context.Context, actor *model.User, userID uint) (*model.User, error) {
	action, err := ValidateRelation(ctx, s.registry, s.followRule, RelationAdd, actor, userID)
	if err != nil {
		return nil, err
	}
	if _, err := action.Apply(ctx); err != nil {
		return nil, err
	}
	return action.Target, nil
}

func (s *relationService) Unsubscribe(ctx context.Context, actor *model.User, userID uint) error {
	action, err := ValidateRelation(ctx, s.registry, s.followRule, RelationRemove, actor, userID)
	if err != nil {
		return err
	}
	_, err = action.Apply(ctx)
	return err
}
