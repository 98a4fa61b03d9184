package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"foodgram/internal/cache"
	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/model"
	"foodgram/internal/repository"
	"foodgram/internal/service"
)

// Loads the tag and ingredient catalog. Sources are file paths or http(s) URLs
// taken from SEED_TAGS and SEED_INGREDIENTS.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.Open(db.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := db.Migrate(gormDB, false); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database migrations completed")

	catalog := service.NewCatalogService(
		repository.NewTagRepository(gormDB),
		repository.NewIngredientRepository(gormDB),
		cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB),
	)
	ctx := context.Background()

	tagsSource := getEnv("SEED_TAGS", "data/tags.json")
	var tags []model.Tag
	if err := load(ctx, tagsSource, &tags); err != nil {
		log.Fatal().Err(err).Str("source", tagsSource).Msg("Failed to load tags")
	}
	res, err := catalog.SeedTags(ctx, tags)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed tags")
	}
	logResult("tags", res)

	ingredientsSource := getEnv("SEED_INGREDIENTS", "data/ingredients.json")
	var ingredients []model.Ingredient
	if err := load(ctx, ingredientsSource, &ingredients); err != nil {
		log.Fatal().Err(err).Str("source", ingredientsSource).Msg("Failed to load ingredients")
	}
	res, err = catalog.SeedIngredients(ctx, ingredients)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed ingredients")
	}
	logResult("ingredients", res)

	log.Info().Msg("Seed completed successfully!")
}

// load decodes a JSON array from a local file or an http(s) URL into dest.
func load(ctx context.Context, source string, dest interface{}) error {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("source returned status code: %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return err
		}
		r = f
	}
	defer r.Close()

	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func logResult(what string, res service.SeedResult) {
	log.Info().
		Str("catalog", what).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Msg("Seeded")
}

// getEnv returns the value of the environment variable key or a fallback value.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
