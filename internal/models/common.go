// models/common.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// BeforeCreate sets timestamps before creating a document
func (b *BaseModel) BeforeCreate() {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
}

// BeforeUpdate sets updated timestamp
func (b *BaseModel) BeforeUpdate() {
	b.UpdatedAt = time.Now()
}

// SoftDelete marks the document as deleted
func (b *BaseModel) SoftDelete() {
	now := time.Now()
	b.DeletedAt = &now
	b.UpdatedAt = now
}

// IsDeleted checks if the document is soft deleted
func (b *BaseModel) IsDeleted() bool {
	return b.DeletedAt != nil
}
