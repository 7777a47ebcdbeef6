package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	UnitStatusVacant   = "vacant"
	UnitStatusOccupied = "occupied"
	UnitStatusReserved = "reserved"
)

// Unit is a rentable space on a floor of a property.
// UnitNumber is unique across the table; the codec alone cannot guarantee that.
// @Description Rental unit information
type Unit struct {
	gorm.Model
	PropertyID  uuid.UUID `json:"property_id" gorm:"type:char(36);not null;index:idx_unit_property_floor" example:"1234abcd-0000-0000-0000-000000000000"`
	Floor       int       `json:"floor" gorm:"not null;index:idx_unit_property_floor" example:"5"`
	UnitIndex   int       `json:"unit_index" gorm:"not null" example:"102"`
	UnitNumber  string    `json:"unit_number" gorm:"type:char(10);uniqueIndex;not null" example:"9844510273"`
	Label       string    `json:"label" gorm:"type:varchar(100)" example:"5B"`
	Bedrooms    int       `json:"bedrooms" example:"2"`
	MonthlyRent int64     `json:"monthly_rent" example:"4500000"`
	Status      string    `json:"status" gorm:"type:varchar(20);default:'vacant'" example:"vacant"`
}
