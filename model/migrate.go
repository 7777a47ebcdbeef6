package model

import (
	"fmt"

	"gorm.io/gorm"
)

// All lists every model owned by the registry, in migration order.
func All() []interface{} {
	return []interface{}{&Property{}, &Unit{}, &UnitSequence{}, &AuditLog{}}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
