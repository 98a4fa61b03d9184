package db

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"foodgram/internal/model"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Tag{},
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.Favorite{},
		&model.ShoppingCart{},
		&model.Follow{},
	}
}

// Migrate creates or updates the schema. When reset is true, existing tables
// are dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	models := Models()

	if reset {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		for i := len(models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(models[i]); err != nil {
				log.Warn().Err(err).Msg("drop table failed (may not exist)")
			}
		}
		if err := db.Migrator().DropTable("recipe_tags"); err != nil {
			log.Warn().Err(err).Msg("drop recipe_tags failed (may not exist)")
		}
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
