package endpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/ariebrainware/rental-unit-registry/unitcode"
	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// maxAllocationAttempts bounds how many indexes one allocation may skip over
	// when generated numbers are already held by other units.
	maxAllocationAttempts  = 25
	maxTransactionAttempts = 3
	sequenceLockTimeout    = 3 * time.Second
)

type unitCollision struct {
	UnitNumber string
	Floor      int
	UnitIndex  int
}

func logCollisions(collisions []unitCollision) {
	for _, col := range collisions {
		util.LogUnitNumberCollision(col.UnitNumber, col.Floor, col.UnitIndex)
	}
}

// lockFloor takes the cross-instance allocation lock for one floor of a property.
func lockFloor(ctx context.Context, propertyID uuid.UUID, floor int) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, sequenceLockTimeout)
	defer cancel()
	return util.LockUnitSequence(ctx, propertyID.String(), floor)
}

// lockSequenceRow reads the floor's sequence row FOR UPDATE, creating it first
// when missing. Concurrent first allocations race on the insert; the loser's
// insert is a no-op and it then waits on the winner's row lock.
func lockSequenceRow(tx *gorm.DB, propertyID uuid.UUID, floor int) (model.UnitSequence, error) {
	forUpdate := func() *gorm.DB {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("property_id = ? AND floor = ?", propertyID, floor)
	}

	var seq model.UnitSequence
	err := forUpdate().First(&seq).Error
	if err == nil {
		return seq, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.UnitSequence{}, err
	}

	fresh := model.UnitSequence{PropertyID: propertyID, Floor: floor}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return model.UnitSequence{}, err
	}
	if err := forUpdate().First(&seq).Error; err != nil {
		return model.UnitSequence{}, err
	}
	return seq, nil
}

// reserveUnitIndexes advances the floor's sequence by n and returns the first
// reserved index. Indexes start at 1 on every floor.
func reserveUnitIndexes(tx *gorm.DB, propertyID uuid.UUID, floor, n int) (int, error) {
	seq, err := lockSequenceRow(tx, propertyID, floor)
	if err != nil {
		return 0, err
	}

	start := seq.LastIndex + 1
	if start+n-1 > unitcode.MaxUnitIndex {
		return 0, util.ErrFloorFull
	}
	seq.LastIndex = start + n - 1
	seq.LastCode = unitcode.Generate(propertyID.String(), floor, seq.LastIndex)
	if err := tx.Save(&seq).Error; err != nil {
		return 0, err
	}
	return start, nil
}

// withAllocationRetry runs fn in a transaction and reruns it when an insert
// loses a unique index race to a concurrent allocation. Aliased floors hold
// different sequence rows, so their availability checks are not serialised.
func withAllocationRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTransactionAttempts; attempt++ {
		err = db.Transaction(fn)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", util.ErrUnitNumberTaken, err)
}

// ensureUnitNumberAvailable fails with ErrUnitNumberTaken when any unit, deleted
// or not, holds unitNumber. Deleted units keep their number reserved.
func ensureUnitNumberAvailable(tx *gorm.DB, unitNumber string) error {
	var count int64
	if err := tx.Unscoped().Model(&model.Unit{}).Where("unit_number = ?", unitNumber).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", util.ErrUnitNumberTaken, unitNumber)
	}
	return nil
}

// allocateUnitNumber reserves the next free index on the floor and returns it
// with its unit number. Floors ten apart share a floor digit, so a generated
// number may already be held; those are skipped and reported as collisions.
func allocateUnitNumber(tx *gorm.DB, propertyID uuid.UUID, floor int) (int, string, []unitCollision, error) {
	var collisions []unitCollision
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		idx, err := reserveUnitIndexes(tx, propertyID, floor, 1)
		if err != nil {
			return 0, "", collisions, err
		}
		number := unitcode.Generate(propertyID.String(), floor, idx)
		err = ensureUnitNumberAvailable(tx, number)
		if errors.Is(err, util.ErrUnitNumberTaken) {
			collisions = append(collisions, unitCollision{UnitNumber: number, Floor: floor, UnitIndex: idx})
			continue
		}
		if err != nil {
			return 0, "", collisions, err
		}
		return idx, number, collisions, nil
	}
	return 0, "", collisions, fmt.Errorf("%w: no free index after %d attempts", util.ErrUnitNumberTaken, maxAllocationAttempts)
}

// allocateFloorBlock reserves count consecutive indexes on the floor and returns
// their unit numbers. The whole block fails when any number is already held.
func allocateFloorBlock(tx *gorm.DB, propertyID uuid.UUID, floor, count int) (int, []string, []unitCollision, error) {
	start, err := reserveUnitIndexes(tx, propertyID, floor, count)
	if err != nil {
		return 0, nil, nil, err
	}

	codes := unitcode.GenerateSequential(propertyID.String(), floor, count, start)
	var collisions []unitCollision
	for i, code := range codes {
		err := ensureUnitNumberAvailable(tx, code)
		if errors.Is(err, util.ErrUnitNumberTaken) {
			collisions = append(collisions, unitCollision{UnitNumber: code, Floor: floor, UnitIndex: start + i})
			continue
		}
		if err != nil {
			return 0, nil, collisions, err
		}
	}
	if len(collisions) > 0 {
		return 0, nil, collisions, fmt.Errorf("%w: %d of %d numbers", util.ErrUnitNumberTaken, len(collisions), count)
	}
	return start, codes, nil, nil
}
