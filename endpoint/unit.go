package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/ariebrainware/rental-unit-registry/unitcode"
	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UnitResponse is a registered unit with its formatted unit number.
type UnitResponse struct {
	model.Unit
	Formatted string `json:"formatted" example:"9844-5-102-73"`
}

func newUnitResponse(u model.Unit) UnitResponse {
	return UnitResponse{Unit: u, Formatted: unitcode.Format(u.UnitNumber)}
}

func newUnitResponses(units []model.Unit) []UnitResponse {
	resp := make([]UnitResponse, 0, len(units))
	for _, u := range units {
		resp = append(resp, newUnitResponse(u))
	}
	return resp
}

type createUnitRequest struct {
	Floor       *int   `json:"floor" binding:"required" example:"5"`
	Label       string `json:"label" example:"5B"`
	Bedrooms    int    `json:"bedrooms" binding:"min=0" example:"2"`
	MonthlyRent int64  `json:"monthly_rent" binding:"min=0" example:"4500000"`
	Status      string `json:"status" binding:"omitempty,oneof=vacant occupied reserved" example:"vacant"`
}

type createFloorUnitsRequest struct {
	Count       int    `json:"count" binding:"required,min=1,max=999" example:"10"`
	LabelPrefix string `json:"label_prefix" example:"5-"`
	Bedrooms    int    `json:"bedrooms" binding:"min=0" example:"1"`
	MonthlyRent int64  `json:"monthly_rent" binding:"min=0" example:"3000000"`
}

type resolveUnitsRequest struct {
	UnitNumbers []string `json:"unit_numbers" binding:"required,min=1,max=100,dive,unitcode" example:"9844510273,9844-5-103-64"`
}

type updateUnitRequest struct {
	Floor       *int    `json:"floor" example:"6"`
	Label       *string `json:"label" example:"6A"`
	Bedrooms    *int    `json:"bedrooms" binding:"omitnil,min=0" example:"3"`
	MonthlyRent *int64  `json:"monthly_rent" binding:"omitnil,min=0" example:"5000000"`
	Status      *string `json:"status" binding:"omitnil,oneof=vacant occupied reserved" example:"occupied"`
}

func checkFloorInRange(property model.Property, floor int) error {
	if property.TotalFloors > 0 && floor > property.TotalFloors {
		return fmt.Errorf("floor %d is above the property's %d floors", floor, property.TotalFloors)
	}
	return nil
}

func getUnitIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid unit ID",
			Err: fmt.Errorf("unit ID must be a positive integer"),
		})
		return 0, false
	}
	return uint(id), true
}

func fetchUnitByID(db *gorm.DB, id uint) (model.Unit, error) {
	var unit model.Unit
	if err := db.First(&unit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Unit{}, util.ErrUnitNotFound
		}
		return model.Unit{}, err
	}
	return unit, nil
}

// lookupUnitByNumber resolves the live unit holding code. A cached id is only
// trusted while that unit still holds code; a unit moved or deleted by another
// instance evicts the entry and the number is looked up again.
func lookupUnitByNumber(db *gorm.DB, code string) (model.Unit, error) {
	id, found := util.FindUnitIDByNumber(db, code)
	if !found {
		return model.Unit{}, util.ErrUnitNotFound
	}
	unit, err := fetchUnitByID(db, id)
	if err == nil && unit.UnitNumber == code {
		return unit, nil
	}
	if err != nil && !errors.Is(err, util.ErrUnitNotFound) {
		return model.Unit{}, err
	}

	util.UnitCacheDelete(code)
	var holder model.Unit
	if err := db.Where("unit_number = ?", code).First(&holder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Unit{}, util.ErrUnitNotFound
		}
		return model.Unit{}, err
	}
	util.UnitCacheSet(code, holder.ID)
	return holder, nil
}

// CreateUnit godoc
// @Summary      Register a unit
// @Description  Register a unit on a floor of the property; the next free index on that floor is assigned and its unit number generated
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Property ID"
// @Param        request body createUnitRequest true "Unit information"
// @Success      201 {object} util.APIResponse{data=UnitResponse} "Unit created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Property not found"
// @Failure      409 {object} util.APIResponse "Floor full or unit number taken"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /property/{id}/unit [post]
func CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	db, ok := ensureDB(c)
	if !ok {
		return
	}
	property, ok := loadProperty(c, db)
	if !ok {
		return
	}
	floor := *req.Floor
	if err := checkFloorInRange(property, floor); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid floor",
			Err: err,
		})
		return
	}

	release, err := lockFloor(c.Request.Context(), property.ID, floor)
	if err != nil {
		respondRegistryError(c, "Failed to lock floor", err)
		return
	}
	defer release()

	unit := model.Unit{
		PropertyID:  property.ID,
		Floor:       floor,
		Label:       req.Label,
		Bedrooms:    req.Bedrooms,
		MonthlyRent: req.MonthlyRent,
		Status:      req.Status,
	}
	if unit.Status == "" {
		unit.Status = model.UnitStatusVacant
	}

	var collisions []unitCollision
	err = withAllocationRetry(db, func(tx *gorm.DB) error {
		idx, number, cols, err := allocateUnitNumber(tx, property.ID, floor)
		collisions = cols
		if err != nil {
			return err
		}
		unit.UnitIndex = idx
		unit.UnitNumber = number
		return tx.Create(&unit).Error
	})
	logCollisions(collisions)
	if err != nil {
		respondRegistryError(c, "Failed to create unit", err)
		return
	}

	util.UnitCacheSet(unit.UnitNumber, unit.ID)
	util.LogUnitCreated(unit, c.ClientIP())

	util.CallCreated(c, util.APISuccessParams{
		Msg:  "Unit created",
		Data: newUnitResponse(unit),
	})
}

// CreateFloorUnits godoc
// @Summary      Register a block of units on a floor
// @Description  Register count units with consecutive indexes on one floor; nothing is created if any generated number is taken
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Property ID"
// @Param        floor path int true "Floor number"
// @Param        request body createFloorUnitsRequest true "Block information"
// @Success      201 {object} util.APIResponse{data=[]UnitResponse} "Units created"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Property not found"
// @Failure      409 {object} util.APIResponse "Floor full or unit number taken"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /property/{id}/floor/{floor}/units [post]
func CreateFloorUnits(c *gin.Context) {
	floor, err := strconv.Atoi(c.Param("floor"))
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid floor",
			Err: err,
		})
		return
	}

	var req createFloorUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	db, ok := ensureDB(c)
	if !ok {
		return
	}
	property, ok := loadProperty(c, db)
	if !ok {
		return
	}
	if err := checkFloorInRange(property, floor); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid floor",
			Err: err,
		})
		return
	}

	release, err := lockFloor(c.Request.Context(), property.ID, floor)
	if err != nil {
		respondRegistryError(c, "Failed to lock floor", err)
		return
	}
	defer release()

	var (
		units      []model.Unit
		collisions []unitCollision
	)
	err = withAllocationRetry(db, func(tx *gorm.DB) error {
		start, codes, cols, err := allocateFloorBlock(tx, property.ID, floor, req.Count)
		collisions = cols
		if err != nil {
			return err
		}
		units = make([]model.Unit, 0, len(codes))
		for i, code := range codes {
			label := ""
			if req.LabelPrefix != "" {
				label = fmt.Sprintf("%s%d", req.LabelPrefix, start+i)
			}
			units = append(units, model.Unit{
				PropertyID:  property.ID,
				Floor:       floor,
				UnitIndex:   start + i,
				UnitNumber:  code,
				Label:       label,
				Bedrooms:    req.Bedrooms,
				MonthlyRent: req.MonthlyRent,
				Status:      model.UnitStatusVacant,
			})
		}
		return tx.CreateInBatches(&units, 100).Error
	})
	logCollisions(collisions)
	if err != nil {
		respondRegistryError(c, "Failed to create units", err)
		return
	}

	for _, u := range units {
		util.UnitCacheSet(u.UnitNumber, u.ID)
		util.LogUnitCreated(u, c.ClientIP())
	}

	util.CallCreated(c, util.APISuccessParams{
		Msg:  "Units created",
		Data: newUnitResponses(units),
	})
}

// ListUnits godoc
// @Summary      List units of a property
// @Description  Get a paginated list of a property's units ordered by floor and index
// @Tags         Unit
// @Produce      json
// @Param        id path string true "Property ID"
// @Param        floor query int false "Only units on this floor"
// @Param        status query string false "Only units with this status (vacant, occupied, reserved)"
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Success      200 {object} util.APIResponse{data=object} "Units retrieved"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Property not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /property/{id}/unit [get]
func ListUnits(c *gin.Context) {
	db, ok := ensureDB(c)
	if !ok {
		return
	}
	property, ok := loadProperty(c, db)
	if !ok {
		return
	}
	limit, offset := parsePagination(c)

	query := db.Model(&model.Unit{}).Where("property_id = ?", property.ID)
	if floorStr := c.Query("floor"); floorStr != "" {
		floor, err := strconv.Atoi(floorStr)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid floor",
				Err: err,
			})
			return
		}
		query = query.Where("floor = ?", floor)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve units",
			Err: err,
		})
		return
	}

	var units []model.Unit
	if err := query.Order("floor ASC, unit_index ASC").Limit(limit).Offset(offset).Find(&units).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve units",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Units retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(units), "units": newUnitResponses(units)},
	})
}

// GetUnitByNumber godoc
// @Summary      Look up a unit by unit number
// @Description  Find the live unit holding a unit number; hyphenated input is accepted
// @Tags         Unit
// @Produce      json
// @Param        code path string true "Unit number" example(9844-5-102-73)
// @Success      200 {object} util.APIResponse{data=UnitResponse} "Unit retrieved"
// @Failure      400 {object} util.APIResponse "Invalid unit number"
// @Failure      404 {object} util.APIResponse "Unit not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /unit/{code} [get]
func GetUnitByNumber(c *gin.Context) {
	code := unitcode.Normalize(c.Param("code"))
	if !unitcode.Validate(code) {
		util.LogInvalidUnitCode(code, c.ClientIP(), c.Request.UserAgent())
		respondRegistryError(c, "Invalid unit number", util.ErrInvalidUnitCode)
		return
	}

	db, ok := ensureDB(c)
	if !ok {
		return
	}

	unit, err := lookupUnitByNumber(db, code)
	if err != nil {
		respondRegistryError(c, "Failed to retrieve unit", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit retrieved",
		Data: newUnitResponse(unit),
	})
}

// ResolveUnits godoc
// @Summary      Resolve several unit numbers
// @Description  Look up up to 100 unit numbers at once; numbers with no live unit are listed as missing
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Param        request body resolveUnitsRequest true "Unit numbers"
// @Success      200 {object} util.APIResponse{data=object} "Units resolved"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /unit/resolve [post]
func ResolveUnits(c *gin.Context) {
	var req resolveUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	db, ok := ensureDB(c)
	if !ok {
		return
	}

	numbers := make([]string, 0, len(req.UnitNumbers))
	seen := make(map[string]struct{}, len(req.UnitNumbers))
	for _, n := range req.UnitNumbers {
		code := unitcode.Normalize(n)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		numbers = append(numbers, code)
	}

	var units []model.Unit
	if err := db.Where("unit_number IN ?", numbers).Find(&units).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to resolve units",
			Err: err,
		})
		return
	}

	byNumber := make(map[string]model.Unit, len(units))
	for _, u := range units {
		byNumber[u.UnitNumber] = u
		util.UnitCacheSet(u.UnitNumber, u.ID)
	}
	found := make([]UnitResponse, 0, len(units))
	missing := []string{}
	for _, n := range numbers {
		if u, ok := byNumber[n]; ok {
			found = append(found, newUnitResponse(u))
		} else {
			missing = append(missing, n)
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Units resolved",
		Data: map[string]interface{}{"units": found, "missing": missing},
	})
}

func applyUnitUpdates(unit *model.Unit, req updateUnitRequest) {
	if req.Label != nil {
		unit.Label = *req.Label
	}
	if req.Bedrooms != nil {
		unit.Bedrooms = *req.Bedrooms
	}
	if req.MonthlyRent != nil {
		unit.MonthlyRent = *req.MonthlyRent
	}
	if req.Status != nil {
		unit.Status = *req.Status
	}
}

// UpdateUnit godoc
// @Summary      Update a unit
// @Description  Update unit details; moving a unit to another floor assigns it a new index and unit number
// @Tags         Unit
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Unit ID"
// @Param        request body updateUnitRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=UnitResponse} "Unit updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Unit not found"
// @Failure      409 {object} util.APIResponse "Floor full or unit number taken"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /unit/{id} [patch]
func UpdateUnit(c *gin.Context) {
	id, ok := getUnitIDParam(c)
	if !ok {
		return
	}

	var req updateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	db, ok := ensureDB(c)
	if !ok {
		return
	}
	unit, err := fetchUnitByID(db, id)
	if err != nil {
		respondRegistryError(c, "Failed to retrieve unit", err)
		return
	}

	applyUnitUpdates(&unit, req)
	previousNumber := unit.UnitNumber
	moved := req.Floor != nil && *req.Floor != unit.Floor

	if !moved {
		if err := db.Save(&unit).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to update unit",
				Err: err,
			})
			return
		}
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg:  "Unit updated",
			Data: newUnitResponse(unit),
		})
		return
	}

	newFloor := *req.Floor
	property, err := fetchPropertyByID(db, unit.PropertyID)
	if err != nil {
		respondRegistryError(c, "Failed to retrieve property", err)
		return
	}
	if err := checkFloorInRange(property, newFloor); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid floor",
			Err: err,
		})
		return
	}

	release, err := lockFloor(c.Request.Context(), unit.PropertyID, newFloor)
	if err != nil {
		respondRegistryError(c, "Failed to lock floor", err)
		return
	}
	defer release()

	var collisions []unitCollision
	err = withAllocationRetry(db, func(tx *gorm.DB) error {
		idx, number, cols, err := allocateUnitNumber(tx, unit.PropertyID, newFloor)
		collisions = cols
		if err != nil {
			return err
		}
		unit.Floor = newFloor
		unit.UnitIndex = idx
		unit.UnitNumber = number
		return tx.Save(&unit).Error
	})
	logCollisions(collisions)
	if err != nil {
		respondRegistryError(c, "Failed to move unit", err)
		return
	}

	util.UnitCacheDelete(previousNumber)
	util.UnitCacheSet(unit.UnitNumber, unit.ID)
	util.LogUnitMoved(unit, previousNumber, c.ClientIP())

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit moved",
		Data: newUnitResponse(unit),
	})
}

// DeleteUnit godoc
// @Summary      Delete a unit
// @Description  Soft-delete a unit; its unit number stays reserved and is never reissued
// @Tags         Unit
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Unit ID"
// @Success      200 {object} util.APIResponse "Unit deleted"
// @Failure      400 {object} util.APIResponse "Invalid unit ID"
// @Failure      404 {object} util.APIResponse "Unit not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /unit/{id} [delete]
func DeleteUnit(c *gin.Context) {
	id, ok := getUnitIDParam(c)
	if !ok {
		return
	}
	db, ok := ensureDB(c)
	if !ok {
		return
	}
	unit, err := fetchUnitByID(db, id)
	if err != nil {
		respondRegistryError(c, "Failed to retrieve unit", err)
		return
	}

	if err := db.Delete(&unit).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete unit",
			Err: err,
		})
		return
	}

	util.UnitCacheDelete(unit.UnitNumber)
	util.LogUnitDeleted(unit, c.ClientIP())

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit deleted",
		Data: nil,
	})
}
