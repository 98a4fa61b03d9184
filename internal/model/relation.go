package model

import "time"

// RelationKind names one of the toggleable (subject, object) sets.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationShoppingCart RelationKind = "shopping_cart"
	RelationFollow       RelationKind = "follow"
)

// RelationRecord is a kind-independent view of a Favorite, ShoppingCart or Follow row.
type RelationRecord struct {
	ID        uint
	Kind      RelationKind
	SubjectID uint
	ObjectID  uint
	CreatedAt time.Time
}

// Favorite marks a recipe as favorited by a user.
type Favorite struct {
	ID        uint `gorm:"primaryKey"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_favorite_author_recipe"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_favorite_author_recipe;index"`
	CreatedAt time.Time

	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// ShoppingCart is a cart entry: a recipe whose ingredients the user plans to buy.
type ShoppingCart struct {
	ID        uint `gorm:"primaryKey"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_cart_author_recipe"`
	RecipeID  uint `gorm:"not null;uniqueIndex:idx_cart_author_recipe;index"`
	CreatedAt time.Time

	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// Follow records that UserID follows FollowingID. Self-follow is rejected by a CHECK constraint.
type Follow struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowingID uint `gorm:"not null;uniqueIndex:idx_follow_pair;index;check:chk_follow_not_self,user_id <> following_id"`
	CreatedAt   time.Time

	User      User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}

// Record converts a row to its kind-independent view.
func (f *Favorite) Record() *RelationRecord {
	return &RelationRecord{ID: f.ID, Kind: RelationFavorite, SubjectID: f.AuthorID, ObjectID: f.RecipeID, CreatedAt: f.CreatedAt}
}

// Record converts a row to its kind-independent view.
func (c *ShoppingCart) Record() *RelationRecord {
	return &RelationRecord{ID: c.ID, Kind: RelationShoppingCart, SubjectID: c.AuthorID, ObjectID: c.RecipeID, CreatedAt: c.CreatedAt}
}

// Record converts a row to its kind-independent view.
func (f *Follow) Record() *RelationRecord {
	return &RelationRecord{ID: f.ID, Kind: RelationFollow, SubjectID: f.UserID, ObjectID: f.FollowingID, CreatedAt: f.CreatedAt}
}
