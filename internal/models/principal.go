package models

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildathon/scoring-api/internal/config"
)

type Permissions struct {
	Builder bool `json:"builder"`
	Judge   bool `json:"judge"`
	Admin   bool `json:"admin"`
}

// Principal is an API caller: a builder, a judge or an organizer.
type Principal struct {
	Token       string // argon2id hash
	DisplayName string // shown on the leaderboard, nonsensitive
	Model
	Permissions Permissions `gorm:"type:jsonb;serializer:json"`
	Active      datatypes.Null[bool]
}

func (Principal) TableName() string {
	return "principal"
}

func (p Principal) GetID() uuid.UUID {
	return p.ID
}

// Config is the authoritative principal list
//
// 1. Upsert principals with freshly hashed tokens
// 2. Deactivate principals not contained in the config
func LoadPrincipalsFromConfig(ctx context.Context, db *gorm.DB, principals []config.Principal) error {
	ctx, span := tracer.Start(ctx, "LoadPrincipalsFromConfig")
	defer span.End()

	db = db.WithContext(ctx)

	toUpsert := make([]*Principal, len(principals))
	inConfig := make([]uuid.UUID, len(principals))
	for i, principal := range principals {
		hash, err := argon2id.CreateHash(principal.Token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error creating hash for principal token")
			span.SetAttributes(attribute.String("failedPrincipal", principal.ID))
			return err
		}

		id, err := uuid.Parse(principal.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error parsing principal id")
			span.SetAttributes(attribute.String("failedPrincipal", principal.ID))
			return err
		}

		toUpsert[i] = &Principal{
			Model:       Model{ID: id},
			Token:       hash,
			DisplayName: principal.DisplayName,
			Active:      NewNull(principal.Active),
			Permissions: Permissions{
				Builder: principal.Permissions.Builder,
				Judge:   principal.Permissions.Judge,
				Admin:   principal.Permissions.Admin,
			},
		}
		inConfig[i] = id
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "LoadPrincipalsFromConfig/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		if len(toUpsert) != 0 {
			span.AddEvent("upserting configured principals")
			result := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(toUpsert)
			if result.Error != nil {
				span.RecordError(result.Error)
				span.SetStatus(codes.Error, "failed to upsert configured principals")
				return fmt.Errorf("failed to upsert configured principals: %w", result.Error)
			}
		} else {
			span.AddEvent("no configured principals to upsert")
		}

		span.AddEvent("deactivating principals not in config")

		query := tx.Model(&Principal{})
		if len(inConfig) != 0 {
			query = query.Where("id NOT IN ?", inConfig)
		} else {
			query = query.Where("1 = 1")
		}
		result := query.Updates(&Principal{Active: NewNullFromData(false)})
		if result.Error != nil {
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "failed to deactivate principals not in config")
			return fmt.Errorf("failed to deactivate principals not in config: %w", result.Error)
		}

		span.SetAttributes(attribute.Int64("deactivated", result.RowsAffected))
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load principals")
		return fmt.Errorf("failed to load principals: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "loaded principals")
	return nil
}
