package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/rental-unit-registry/middleware"
	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// helper: ensure DB is available in context or respond with server error
func ensureDB(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return nil, false
	}
	return db, true
}

// helper: read limit/offset query params with sane bounds
func parsePagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// helper: parse the :id path param as a property UUID
func getPropertyIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid property ID",
			Err: err,
		})
		return uuid.Nil, false
	}
	return id, true
}

// helper: fetch property by id, mapping a missing row to ErrPropertyNotFound
func fetchPropertyByID(db *gorm.DB, id uuid.UUID) (model.Property, error) {
	var p model.Property
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Property{}, util.ErrPropertyNotFound
		}
		return model.Property{}, err
	}
	return p, nil
}

// helper: load the property named by :id or respond with the matching error
func loadProperty(c *gin.Context, db *gorm.DB) (model.Property, bool) {
	id, ok := getPropertyIDParam(c)
	if !ok {
		return model.Property{}, false
	}
	property, err := fetchPropertyByID(db, id)
	if err != nil {
		respondRegistryError(c, "Failed to retrieve property", err)
		return model.Property{}, false
	}
	return property, true
}

// respondRegistryError maps registry errors onto HTTP responses.
func respondRegistryError(c *gin.Context, msg string, err error) {
	params := util.APIErrorParams{Msg: msg, Err: err}
	switch {
	case errors.Is(err, util.ErrPropertyNotFound), errors.Is(err, util.ErrUnitNotFound):
		util.CallErrorNotFound(c, params)
	case errors.Is(err, util.ErrUnitNumberTaken), errors.Is(err, util.ErrFloorFull), errors.Is(err, util.ErrSequenceBusy):
		util.CallConflict(c, params)
	case errors.Is(err, util.ErrInvalidUnitCode):
		util.CallUserError(c, params)
	default:
		util.CallServerError(c, params)
	}
}
