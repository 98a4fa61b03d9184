package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func validRecipeInput() RecipeInput {
	return RecipeInput{
		Name:        strPtr("Pancakes"),
		Text:        strPtr("Mix and fry."),
		Image:       strPtr("data:image/png;base64,AAAA"),
		CookingTime: intPtr(15),
		Tags:        []uint{1, 2},
		Ingredients: []IngredientAmount{{ID: 1, Amount: 200}, {ID: 2, Amount: 2}},
	}
}

func TestRecipeValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*RecipeInput)
		mode       WriteMode
		wantFields []string
	}{
		{
			name:   "valid create",
			mutate: func(in *RecipeInput) {},
			mode:   WriteCreate,
		},
		{
			name:       "duplicate ingredient",
			mutate:     func(in *RecipeInput) { in.Ingredients = []IngredientAmount{{ID: 1, Amount: 1}, {ID: 1, Amount: 2}} },
			mode:       WriteCreate,
			wantFields: []string{"ingredients"},
		},
		{
			name:       "duplicate tag",
			mutate:     func(in *RecipeInput) { in.Tags = []uint{3, 3} },
			mode:       WriteCreate,
			wantFields: []string{"tags"},
		},
		{
			name:       "empty lists",
			mutate:     func(in *RecipeInput) { in.Tags = []uint{}; in.Ingredients = []IngredientAmount{} },
			mode:       WriteCreate,
			wantFields: []string{"ingredients", "tags"},
		},
		{
			name:       "zero amount",
			mutate:     func(in *RecipeInput) { in.Ingredients = []IngredientAmount{{ID: 1, Amount: 0}} },
			mode:       WriteCreate,
			wantFields: []string{"ingredients"},
		},
		{
			name:       "cooking time below minimum",
			mutate:     func(in *RecipeInput) { in.CookingTime = intPtr(0) },
			mode:       WriteCreate,
			wantFields: []string{"cooking_time"},
		},
		{
			name:       "cooking time above maximum",
			mutate:     func(in *RecipeInput) { in.CookingTime = intPtr(361) },
			mode:       WriteCreate,
			wantFields: []string{"cooking_time"},
		},
		{
			name:   "cooking time at bounds",
			mutate: func(in *RecipeInput) { in.CookingTime = intPtr(360) },
			mode:   WriteCreate,
		},
		{
			name:       "blank and long names",
			mutate:     func(in *RecipeInput) { in.Name = strPtr(strings.Repeat("a", 257)); in.Text = strPtr("  ") },
			mode:       WriteCreate,
			wantFields: []string{"name", "text"},
		},
		{
			name:       "create requires scalars",
			mutate:     func(in *RecipeInput) { in.Name, in.Text, in.Image, in.CookingTime = nil, nil, nil, nil },
			mode:       WriteCreate,
			wantFields: []string{"cooking_time", "image", "name", "text"},
		},
		{
			name:   "update allows missing scalars",
			mutate: func(in *RecipeInput) { in.Name, in.Text, in.Image, in.CookingTime = nil, nil, nil, nil },
			mode:   WriteUpdate,
		},
		{
			name:       "update requires tags and ingredients",
			mutate:     func(in *RecipeInput) { in.Tags, in.Ingredients = nil, nil },
			mode:       WriteUpdate,
			wantFields: []string{"ingredients", "tags"},
		},
	}

	v := NewRecipeValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRecipeInput()
			tt.mutate(&in)

			verr := v.Validate(in, tt.mode)
			if len(tt.wantFields) == 0 {
				assert.Nil(t, verr)
				return
			}
			if assert.NotNil(t, verr) {
				got := make([]string, 0, len(verr.Fields))
				for field := range verr.Fields {
					got = append(got, field)
				}
				assert.ElementsMatch(t, tt.wantFields, got)
			}
		})
	}
}
