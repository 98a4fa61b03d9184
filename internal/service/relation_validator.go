package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

// RelationMethod is the direction of a toggle action.
type RelationMethod int

const (
	// RelationAdd creates the pair if absent.
	RelationAdd RelationMethod = iota
	// RelationRemove deletes the pair if present.
	RelationRemove
)

func (m RelationMethod) String() string {
	if m == RelationAdd {
		return "add"
	}
	return "remove"
}

// RelationRule describes one relation kind for ValidateRelation.
type RelationRule[T any] struct {
	Kind model.RelationKind
	// Messages reported for the corresponding failures.
	AlreadyExists string
	NotFound      string
	SelfReference string
	// ForbidSelf rejects ADD when the target is the acting user.
	ForbidSelf bool
	// Lookup resolves the target; it must return an errors.ErrNotFound error when missing.
	Lookup func(ctx context.Context, id uint) (*T, error)
}

// RelationAction is a validated toggle request. It carries everything the
// mutation needs so Apply never queries the registry again.
type RelationAction[T any] struct {
	Method   RelationMethod
	Actor    *model.User
	Target   *T
	TargetID uint
	// Existing is the record to delete; nil for RelationAdd.
	Existing *model.RelationRecord

	rule     RelationRule[T]
	registry repository.RelationRepository
}

// ValidateRelation checks a toggle request against the registry. Checks run
// in a fixed order: authentication, target existence, self reference (ADD
// only), then a single lookup of the pair.
func ValidateRelation[T any](
	ctx context.Context,
	registry repository.RelationRepository,
	rule RelationRule[T],
	method RelationMethod,
	actor *model.User,
	targetID uint,
) (*RelationAction[T], error) {
	if actor == nil {
		return nil, errors.ErrAuthRequired
	}

	target, err := rule.Lookup(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if method == RelationAdd && rule.ForbidSelf && targetID == actor.ID {
		return nil, errors.New(errors.ErrSelfReference, rule.SelfReference)
	}

	existing, err := registry.Find(ctx, rule.Kind, actor.ID, targetID)
	if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
		return nil, fmt.Errorf("check %s: %w", rule.Kind, err)
	}

	switch method {
	case RelationAdd:
		if existing != nil {
			return nil, errors.AlreadyExists(rule.AlreadyExists)
		}
	case RelationRemove:
		if existing == nil {
			return nil, errors.New(errors.ErrRelationNotFound, rule.NotFound)
		}
	default:
		return nil, fmt.Errorf("unknown relation method %d", method)
	}

	return &RelationAction[T]{
		Method:   method,
		Actor:    actor,
		Target:   target,
		TargetID: targetID,
		Existing: existing,
		rule:     rule,
		registry: registry,
	}, nil
}

// Apply performs the single registry mutation for the action. Constraint
// violations from a concurrent request surface as the same errors the
// validation step reports.
func (a *RelationAction[T]) Apply(ctx context.Context) (*model.RelationRecord, error) {
	switch a.Method {
	case RelationAdd:
		rec, err := a.registry.Create(ctx, a.rule.Kind, a.Actor.ID, a.TargetID)
		switch {
		case err == nil:
			return rec, nil
		case stderrors.Is(err, errors.ErrAlreadyExists):
			return nil, errors.AlreadyExists(a.rule.AlreadyExists)
		case stderrors.Is(err, errors.ErrSelfReference):
			return nil, errors.New(errors.ErrSelfReference, a.rule.SelfReference)
		default:
			return nil, err
		}
	case RelationRemove:
		if err := a.registry.DeleteRecord(ctx, a.Existing); err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				return nil, errors.New(errors.ErrRelationNotFound, a.rule.NotFound)
			}
			return nil, err
		}
		return a.Existing, nil
	default:
		return nil, fmt.Errorf("unknown relation method %d", a.Method)
	}
}
