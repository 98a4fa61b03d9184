package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

const (
	avatarFolder = "users/avatars"
	// subscriptionFanOut bounds concurrent recipe queries per subscriptions page.
	subscriptionFanOut = 4
)

// UserService defines profile, avatar, password and subscription reads.
type UserService interface {
	List(ctx context.Context, viewer *model.User, page PageRequest) (*Page[UserView], error)
	Get(ctx context.Context, viewer *model.User, id uint) (*UserView, error)
	Me(ctx context.Context, viewer *model.User) (*UserView, error)
	SetAvatar(ctx context.Context, user *model.User, payload string) (string, error)
	DeleteAvatar(ctx context.Context, user *model.User) error
	SetPassword(ctx context.Context, user *model.User, currentPassword, newPassword string) error
	Subscriptions(ctx context.Context, viewer *model.User, page PageRequest, recipesLimit int) (*Page[SubscriptionView], error)
	Subscription(ctx context.Context, viewer *model.User, target *model.User, recipesLimit int) (*SubscriptionView, error)
}

type userService struct {
	userRepo   repository.UserRepository
	recipeRepo repository.RecipeRepository
	images     storage.ImageStore
	presenter  *Presenter
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	recipeRepo repository.RecipeRepository,
	images storage.ImageStore,
	presenter *Presenter,
) UserService {
	return &userService{
		userRepo:   userRepo,
		recipeRepo: recipeRepo,
		images:     images,
		presenter:  presenter,
	}
}

func (s *userService) List(ctx context.Context, viewer *model.User, page PageRequest) (*Page[UserView], error) {
	users, total, err := s.userRepo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	views, err := s.presenter.users(ctx, viewer, users)
	if err != nil {
		return nil, err
	}
	return &Page[UserView]{Items: views, Total: total, PageRequest: page}, nil
}

// Get returns a profile. IsSubscribed reports whether viewer follows the user.
func (s *userService) Get(ctx context.Context, viewer *model.User, id uint) (*UserView, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.presenter.users(ctx, viewer, []model.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *userService) Me(ctx context.Context, viewer *model.User) (*UserView, error) {
	if viewer == nil {
		return nil, errors.ErrAuthRequired
	}
	view := s.presenter.userView(viewer, false)
	return &view, nil
}

// SetAvatar stores a new avatar and returns its URL. The previous avatar is removed.
func (s *userService) SetAvatar(ctx context.Context, user *model.User, payload string) (string, error) {
	if user == nil {
		return "", errors.ErrAuthRequired
	}
	img, err := decodeImageField("avatar", payload)
	if err != nil {
		return "", err
	}
	key, err := s.images.Save(ctx, avatarFolder, img)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	if err := s.userRepo.UpdateAvatar(ctx, user.ID, key); err != nil {
		discardImage(ctx, s.images, key)
		return "", fmt.Errorf("update avatar: %w", err)
	}

	old := user.Avatar
	user.Avatar = key
	discardImage(ctx, s.images, old)
	return s.images.URL(key), nil
}

// DeleteAvatar clears the avatar. A user without avatar gets a not-found error.
func (s *userService) DeleteAvatar(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.ErrAuthRequired
	}
	if user.Avatar == "" {
		return errors.NotFound("avatar")
	}
	if err := s.userRepo.UpdateAvatar(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("clear avatar: %w", err)
	}
	discardImage(ctx, s.images, user.Avatar)
	user.Avatar = ""
	return nil
}

func (s *userService) SetPassword(ctx context.Context, user *model.User, currentPassword, newPassword string) error {
	if user == nil {
		return errors.ErrAuthRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.FieldError("current_password", "invalid password")
	}
	if msg := passwordPolicy(newPassword, user.Username, user.Email); msg != "" {
		return errors.FieldError("new_password", msg)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = string(hash)
	return nil
}

// Subscriptions pages through the users viewer follows. recipesLimit <= 0
// embeds every recipe.
func (s *userService) Subscriptions(ctx context.Context, viewer *model.User, page PageRequest, recipesLimit int) (*Page[SubscriptionView], error) {
	if viewer == nil {
		return nil, errors.ErrAuthRequired
	}
	users, total, err := s.userRepo.ListFollowing(ctx, viewer.ID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	views := make([]SubscriptionView, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(subscriptionFanOut)
	for i := range users {
		i := i
		g.Go(func() error {
			view, err := s.subscriptionView(gctx, &users[i], true, recipesLimit)
			if err != nil {
				return err
			}
			views[i] = *view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Page[SubscriptionView]{Items: views, Total: total, PageRequest: page}, nil
}

// Subscription renders target as seen by viewer, with a recipe preview.
func (s *userService) Subscription(ctx context.Context, viewer *model.User, target *model.User, recipesLimit int) (*SubscriptionView, error) {
	following, err := s.presenter.users(ctx, viewer, []model.User{*target})
	if err != nil {
		return nil, err
	}
	return s.subscriptionView(ctx, target, following[0].IsSubscribed, recipesLimit)
}

func (s *userService) subscriptionView(ctx context.Context, author *model.User, subscribed bool, recipesLimit int) (*SubscriptionView, error) {
	recipes, err := s.recipeRepo.ListByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return nil, fmt.Errorf("list recipes of %d: %w", author.ID, err)
	}
	count, err := s.recipeRepo.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("count recipes of %d: %w", author.ID, err)
	}

	short := make([]RecipeShortView, len(recipes))
	for i := range recipes {
		short[i] = s.presenter.shortRecipe(&recipes[i])
	}
	return &SubscriptionView{
		UserView:     s.presenter.userView(author, subscribed),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}
