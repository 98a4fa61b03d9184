package model

// Tag labels recipes, e.g. breakfast or dinner.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:32;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;size:32;not null"`
}

// Ingredient is reference data: a name and the unit it is measured in.
type Ingredient struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"size:128;not null;index"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:64;not null"`
}
