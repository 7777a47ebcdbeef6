package endpoint

import (
	"fmt"

	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type createPropertyRequest struct {
	ID          string `json:"id" binding:"omitempty,uuid" example:"1234abcd-0000-0000-0000-000000000000"`
	Name        string `json:"name" binding:"required" example:"Melati Residence"`
	Address     string `json:"address" example:"Jl. Kenanga 12"`
	TotalFloors int    `json:"total_floors" binding:"min=0" example:"8"`
}

func propertyExists(db *gorm.DB, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.Unscoped().Model(&model.Property{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateProperty godoc
// @Summary      Register a property
// @Description  Create a property; its code prefix is the property hash of its id
// @Tags         Property
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createPropertyRequest true "Property information"
// @Success      201 {object} util.APIResponse{data=model.Property} "Property created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      409 {object} util.APIResponse "Property id already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /property [post]
func CreateProperty(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	req.Name = util.NormalizeName(req.Name)
	if req.Name == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Property payload is empty or missing required fields",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db, ok := ensureDB(c)
	if !ok {
		return
	}

	property := model.Property{
		Name:        req.Name,
		Address:     req.Address,
		TotalFloors: req.TotalFloors,
	}
	if req.ID != "" {
		// binding already checked the format
		property.ID = uuid.MustParse(req.ID)
		exists, err := propertyExists(db, property.ID)
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to check existing property",
				Err: err,
			})
			return
		}
		if exists {
			util.CallConflict(c, util.APIErrorParams{
				Msg: "Property already registered",
				Err: fmt.Errorf("property id already registered"),
			})
			return
		}
	}

	if err := db.Create(&property).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create property",
			Err: err,
		})
		return
	}

	util.CallCreated(c, util.APISuccessParams{
		Msg:  "Property created",
		Data: property,
	})
}

// ListProperties godoc
// @Summary      List properties
// @Description  Get a paginated list of properties, optionally filtered by code prefix
// @Tags         Property
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        code_prefix query string false "Four-digit property hash"
// @Success      200 {object} util.APIResponse{data=object} "Properties retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /property [get]
func ListProperties(c *gin.Context) {
	db, ok := ensureDB(c)
	if !ok {
		return
	}
	limit, offset := parsePagination(c)

	query := db.Model(&model.Property{})
	if prefix := c.Query("code_prefix"); prefix != "" {
		query = query.Where("code_prefix = ?", prefix)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve properties",
			Err: err,
		})
		return
	}

	properties := []model.Property{}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&properties).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve properties",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Properties retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(properties), "properties": properties},
	})
}

// GetProperty godoc
// @Summary      Get property by ID
// @Description  Retrieve a property with its unit count
// @Tags         Property
// @Produce      json
// @Param        id path string true "Property ID"
// @Success      200 {object} util.APIResponse{data=object} "Property retrieved"
// @Failure      400 {object} util.APIResponse "Invalid property ID"
// @Failure      404 {object} util.APIResponse "Property not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /property/{id} [get]
func GetProperty(c *gin.Context) {
	db, ok := ensureDB(c)
	if !ok {
		return
	}
	property, ok := loadProperty(c, db)
	if !ok {
		return
	}

	var unitCount int64
	if err := db.Model(&model.Unit{}).Where("property_id = ?", property.ID).Count(&unitCount).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to count units",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Property retrieved",
		Data: map[string]interface{}{"property": property, "unit_count": unitCount},
	})
}
