// Package domain contains the persistence model and service contract for
// plan features.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Feature is a named capability gated behind one or more plans. Features are
// deactivated rather than deleted while plans still reference them.
type Feature struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null;uniqueIndex:ux_features_name" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Feature) TableName() string { return "features" }
