package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound    = errors.New("schema not found")
	ErrInvalidName = errors.New("invalid schema name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName reports whether name can identify a stored schema.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Schema is a stored schema document.
type Schema struct {
	ID        string
	Name      string
	Text      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type schemaModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Name       string    `gorm:"column:name;not null;uniqueIndex"`
	SchemaJSON string    `gorm:"column:schema_json;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (schemaModel) TableName() string {
	return "schemas"
}

type Schemas struct {
	db *DB
}

func NewSchemas(db *DB) *Schemas {
	return &Schemas{db: db}
}

// Upsert stores text under name. An existing schema keeps its id and
// creation time.
func (r *Schemas) Upsert(ctx context.Context, name string, text []byte) (Schema, error) {
	if err := ValidateName(name); err != nil {
		return Schema{}, err
	}
	now := time.Now().UTC()
	model := schemaModel{
		ID:         uuid.NewString(),
		Name:       name,
		SchemaJSON: string(text),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var out Schema
	err := r.db.WriteTX(ctx, func(tx *Tx) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"schema_json", "updated_at"}),
		}).Create(&model).Error
		if err != nil {
			return fmt.Errorf("upsert schema: %w", err)
		}

		var saved schemaModel
		if err := tx.Where("name = ?", name).First(&saved).Error; err != nil {
			return fmt.Errorf("load upserted schema: %w", err)
		}
		out = toSchema(saved)
		return nil
	})
	if err != nil {
		return Schema{}, err
	}
	return out, nil
}

func (r *Schemas) Get(ctx context.Context, name string) (Schema, error) {
	var model schemaModel
	err := r.db.ReadTX(ctx, func(tx *Tx) error {
		return tx.Where("name = ?", name).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Schema{}, ErrNotFound
		}
		return Schema{}, fmt.Errorf("get schema: %w", err)
	}
	return toSchema(model), nil
}

// Delete removes name and reports whether it existed.
func (r *Schemas) Delete(ctx context.Context, name string) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *Tx) error {
		res := tx.Where("name = ?", name).Delete(&schemaModel{})
		if res.Error != nil {
			return fmt.Errorf("delete schema: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// List returns every stored schema ordered by name.
func (r *Schemas) List(ctx context.Context) ([]Schema, error) {
	var models []schemaModel
	err := r.db.ReadTX(ctx, func(tx *Tx) error {
		return tx.Order("name").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	out := make([]Schema, len(models))
	for i, m := range models {
		out[i] = toSchema(m)
	}
	return out, nil
}

func toSchema(model schemaModel) Schema {
	return Schema{
		ID:        model.ID,
		Name:      model.Name,
		Text:      []byte(model.SchemaJSON),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
