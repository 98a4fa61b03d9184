package service

import (
	stderrors "errors"

	"foodgram/internal/errors"
	"foodgram/internal/validation"
)

// IngredientAmount is one requested ingredient line of a recipe write.
type IngredientAmount struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gte=1"`
}

// RecipeInput is a recipe write payload. Nil pointers and nil slices mean the
// field was absent from the request.
type RecipeInput struct {
	Name        *string            `json:"name" validate:"omitempty,notblank,max=256"`
	Text        *string            `json:"text" validate:"omitempty,notblank"`
	Image       *string            `json:"image" validate:"omitempty,notblank"`
	CookingTime *int               `json:"cooking_time" validate:"omitempty,gte=1,lte=360"`
	Tags        []uint             `json:"tags" validate:"required,min=1,unique"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
}

// WriteMode selects which fields are mandatory.
type WriteMode int

const (
	// WriteCreate requires every field.
	WriteCreate WriteMode = iota
	// WriteUpdate requires tags and ingredients; scalars are optional.
	WriteUpdate
)

// RecipeValidator validates recipe write payloads.
type RecipeValidator struct {
	structs *validation.Validator
}

// NewRecipeValidator creates a new recipe validator.
func NewRecipeValidator() *RecipeValidator {
	return &RecipeValidator{structs: validation.New()}
}

// Validate runs the struct rules of RecipeInput, then the scalars that only
// create requires. The result is nil when in is valid.
func (v *RecipeValidator) Validate(in RecipeInput, mode WriteMode) *errors.ValidationError {
	verr := errors.NewValidationError()
	if err := v.structs.Validate(&in); err != nil {
		var fieldErrs *errors.ValidationError
		if !stderrors.As(err, &fieldErrs) {
			verr.Add("non_field_errors", err.Error())
			return verr
		}
		verr = fieldErrs
	}

	if mode == WriteCreate {
		required := map[string]bool{
			"name":         in.Name == nil,
			"text":         in.Text == nil,
			"image":        in.Image == nil,
			"cooking_time": in.CookingTime == nil,
		}
		for field, missing := range required {
			if missing && !verr.Has(field) {
				verr.Add(field, "this field is required")
			}
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}
