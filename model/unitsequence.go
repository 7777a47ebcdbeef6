package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitSequence tracks the last unit index handed out on a floor of a property.
type UnitSequence struct {
	gorm.Model
	PropertyID uuid.UUID `json:"property_id" gorm:"type:char(36);not null;uniqueIndex:idx_sequence_property_floor"`
	Floor      int       `json:"floor" gorm:"not null;uniqueIndex:idx_sequence_property_floor"`
	LastIndex  int       `json:"last_index"`
	LastCode   string    `json:"last_code" gorm:"type:char(10)"`
}
