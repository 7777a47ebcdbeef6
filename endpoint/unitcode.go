package endpoint

import (
	"github.com/ariebrainware/rental-unit-registry/middleware"
	"github.com/ariebrainware/rental-unit-registry/model"
	"github.com/ariebrainware/rental-unit-registry/unitcode"
	"github.com/ariebrainware/rental-unit-registry/util"
	"github.com/gin-gonic/gin"
)

type generateUnitCodeRequest struct {
	PropertyID string `json:"property_id" example:"1234abcd-0000-0000-0000-000000000000"`
	Floor      *int   `json:"floor" binding:"required" example:"5"`
	UnitIndex  *int   `json:"unit_index" binding:"required" example:"102"`
}

type generateSequenceRequest struct {
	PropertyID string `json:"property_id" example:"1234abcd-0000-0000-0000-000000000000"`
	Floor      *int   `json:"floor" binding:"required" example:"3"`
	Count      int    `json:"count" binding:"required,min=1,max=999" example:"5"`
	StartIndex *int   `json:"start_index" example:"1"`
}

// UnitCodeResponse is a unit number with its display form.
type UnitCodeResponse struct {
	UnitIndex  int    `json:"unit_index" example:"102"`
	UnitNumber string `json:"unit_number" example:"9844510273"`
	Formatted  string `json:"formatted" example:"9844-5-102-73"`
}

type parseUnitCodeResponse struct {
	unitcode.Parsed
	UnitNumber string           `json:"unit_number"`
	Formatted  string           `json:"formatted"`
	Properties []model.Property `json:"properties"`
}

func newUnitCodeResponse(unitIndex int, code string) UnitCodeResponse {
	return UnitCodeResponse{UnitIndex: unitIndex, UnitNumber: code, Formatted: unitcode.Format(code)}
}

// GenerateUnitCode godoc
// @Summary      Generate a unit number
// @Description  Derive the 10-digit unit number for a property, floor and unit index without registering a unit
// @Tags         UnitCode
// @Accept       json
// @Produce      json
// @Param        request body generateUnitCodeRequest true "Property, floor and index"
// @Success      200 {object} util.APIResponse{data=UnitCodeResponse} "Unit number generated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Router       /unit-code [post]
func GenerateUnitCode(c *gin.Context) {
	var req generateUnitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	code := unitcode.Generate(req.PropertyID, *req.Floor, *req.UnitIndex)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit number generated",
		Data: newUnitCodeResponse(*req.UnitIndex, code),
	})
}

// GenerateSequentialUnitCodes godoc
// @Summary      Generate consecutive unit numbers
// @Description  Derive count unit numbers for one floor starting at start_index (default 1)
// @Tags         UnitCode
// @Accept       json
// @Produce      json
// @Param        request body generateSequenceRequest true "Property, floor, count and start index"
// @Success      200 {object} util.APIResponse{data=[]UnitCodeResponse} "Unit numbers generated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Router       /unit-code/sequence [post]
func GenerateSequentialUnitCodes(c *gin.Context) {
	var req generateSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	start := 1
	if req.StartIndex != nil {
		start = *req.StartIndex
	}
	codes := unitcode.GenerateSequential(req.PropertyID, *req.Floor, req.Count, start)
	resp := make([]UnitCodeResponse, 0, len(codes))
	for i, code := range codes {
		resp = append(resp, newUnitCodeResponse(start+i, code))
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit numbers generated",
		Data: resp,
	})
}

// ValidateUnitCode godoc
// @Summary      Validate a unit number
// @Description  Check length, digits and check digits of a unit number; hyphenated input is accepted
// @Tags         UnitCode
// @Produce      json
// @Param        code path string true "Unit number" example(9844-5-102-73)
// @Success      200 {object} util.APIResponse{data=object} "Validation result"
// @Router       /unit-code/{code}/validate [get]
func ValidateUnitCode(c *gin.Context) {
	code := unitcode.Normalize(c.Param("code"))
	valid := unitcode.Validate(code)
	if !valid {
		util.LogInvalidUnitCode(code, c.ClientIP(), c.Request.UserAgent())
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit number checked",
		Data: gin.H{"unit_number": code, "valid": valid},
	})
}

// ParseUnitCode godoc
// @Summary      Parse a unit number
// @Description  Split a unit number into property hash, floor digit and unit index, and list properties sharing the hash
// @Tags         UnitCode
// @Produce      json
// @Param        code path string true "Unit number" example(9844510273)
// @Success      200 {object} util.APIResponse{data=parseUnitCodeResponse} "Parsed unit number"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /unit-code/{code} [get]
func ParseUnitCode(c *gin.Context) {
	code := unitcode.Normalize(c.Param("code"))
	parsed := unitcode.Parse(code)
	resp := parseUnitCodeResponse{
		Parsed:     parsed,
		UnitNumber: code,
		Formatted:  unitcode.Format(code),
		Properties: []model.Property{},
	}

	// Only a consistent code is worth matching against registered properties.
	if db := middleware.GetDB(c); db != nil && parsed.IsValid {
		if err := db.Where("code_prefix = ?", parsed.PropertyHash).Find(&resp.Properties).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to match properties",
				Err: err,
			})
			return
		}
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Unit number parsed",
		Data: resp,
	})
}
