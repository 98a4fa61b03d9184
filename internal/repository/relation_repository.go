package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"foodgram/internal/db"
	"foodgram/internal/errors"
	"foodgram/internal/model"
)

// RelationRepository stores the Favorite, ShoppingCart and Follow sets.
// Each kind is a set of (subject, object) pairs enforced by a unique index.
type RelationRepository interface {
	Exists(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) (bool, error)
	Find(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) (*model.RelationRecord, error)
	Create(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) (*model.RelationRecord, error)
	Delete(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) error
	DeleteRecord(ctx context.Context, record *model.RelationRecord) error
	// ObjectIDs returns which of objectIDs are related to subjectID.
	ObjectIDs(ctx context.Context, kind model.RelationKind, subjectID uint, objectIDs []uint) (map[uint]bool, error)
}

type relationRow interface {
	Record() *model.RelationRecord
}

// relationTable describes how a kind is stored.
type relationTable struct {
	subjectCol string
	objectCol  string
	entity     string
	newRow     func(subjectID, objectID uint) relationRow
	emptyRow   func() relationRow
}

var relationTables = map[model.RelationKind]relationTable{
	model.RelationFavorite: {
		subjectCol: "author_id",
		objectCol:  "recipe_id",
		entity:     "favorite",
		newRow: func(s, o uint) relationRow {
			return &model.Favorite{AuthorID: s, RecipeID: o}
		},
		emptyRow: func() relationRow { return &model.Favorite{} },
	},
	model.RelationShoppingCart: {
		subjectCol: "author_id",
		objectCol:  "recipe_id",
		entity:     "shopping cart entry",
		newRow: func(s, o uint) relationRow {
			return &model.ShoppingCart{AuthorID: s, RecipeID: o}
		},
		emptyRow: func() relationRow { return &model.ShoppingCart{} },
	},
	model.RelationFollow: {
		subjectCol: "user_id",
		objectCol:  "following_id",
		entity:     "subscription",
		newRow: func(s, o uint) relationRow {
			return &model.Follow{UserID: s, FollowingID: o}
		},
		emptyRow: func() relationRow { return &model.Follow{} },
	},
}

type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository creates a new relation registry.
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func tableFor(kind model.RelationKind) (relationTable, error) {
	t, ok := relationTables[kind]
	if !ok {
		return relationTable{}, fmt.Errorf("unknown relation kind %q", kind)
	}
	return t, nil
}

func (r *relationRepository) Exists(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(t.emptyRow()).
		Where(t.subjectCol+" = ? AND "+t.objectCol+" = ?", subjectID, objectID).
		Count(&count).Error
	return count > 0, err
}

func (r *relationRepository) Find(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) (*model.RelationRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	row := t.emptyRow()
	err = r.db.WithContext(ctx).
		Where(t.subjectCol+" = ? AND "+t.objectCol+" = ?", subjectID, objectID).
		First(row).Error
	if err != nil {
		return nil, translate(err, t.entity)
	}
	return row.Record(), nil
}

// Create inserts the pair. Follow rejects subjectID == objectID before
// touching storage; constraint violations raised by concurrent inserts are
// reported as the same domain errors the pre-checks produce.
func (r *relationRepository) Create(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) (*model.RelationRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if kind == model.RelationFollow && subjectID == objectID {
		return nil, errors.New(errors.ErrSelfReference, "you cannot subscribe to yourself")
	}

	row := t.newRow(subjectID, objectID)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return nil, errors.AlreadyExists(t.entity + " already exists")
		case db.IsCheckViolation(err):
			return nil, errors.New(errors.ErrSelfReference, "you cannot subscribe to yourself")
		case db.IsForeignKeyViolation(err):
			return nil, errors.NotFound(t.entity + " target")
		}
		return nil, fmt.Errorf("create %s: %w", t.entity, err)
	}
	return row.Record(), nil
}

func (r *relationRepository) Delete(ctx context.Context, kind model.RelationKind, subjectID, objectID uint) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Where(t.subjectCol+" = ? AND "+t.objectCol+" = ?", subjectID, objectID).
		Delete(t.emptyRow())
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", t.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.ErrRelationNotFound, t.entity+" not found")
	}
	return nil
}

// DeleteRecord removes a previously loaded record by primary key.
func (r *relationRepository) DeleteRecord(ctx context.Context, record *model.RelationRecord) error {
	if record == nil {
		return stderrors.New("nil relation record")
	}
	t, err := tableFor(record.Kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", record.ID).Delete(t.emptyRow())
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", t.entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.ErrRelationNotFound, t.entity+" not found")
	}
	return nil
}

func (r *relationRepository) ObjectIDs(ctx context.Context, kind model.RelationKind, subjectID uint, objectIDs []uint) (map[uint]bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]bool, len(objectIDs))
	if subjectID == 0 || len(objectIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err = r.db.WithContext(ctx).Model(t.emptyRow()).
		Where(t.subjectCol+" = ? AND "+t.objectCol+" IN ?", subjectID, objectIDs).
		Pluck(t.objectCol, &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
