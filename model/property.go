package model

import (
	"time"

	"github.com/ariebrainware/rental-unit-registry/unitcode"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is a building or block whose units receive unit numbers.
// @Description Property information
type Property struct {
	ID          uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey" example:"1234abcd-0000-0000-0000-000000000000"`
	Name        string         `json:"name" gorm:"type:varchar(191);not null" example:"Melati Residence"`
	Address     string         `json:"address" gorm:"type:varchar(255)" example:"Jl. Kenanga 12"`
	TotalFloors int            `json:"total_floors" example:"8"`
	CodePrefix  string         `json:"code_prefix" gorm:"type:char(4);index" example:"9844"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the id when the caller did not and derives the code prefix from it.
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CodePrefix = unitcode.PropertyHash(p.ID.String())
	return nil
}
