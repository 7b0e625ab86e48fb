package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thermometer_alarm/internal/repository"
	"thermometer_alarm/internal/service"
)

const (
	errChemicalNotFound = "chemical not found"
	errInvalidID        = "invalid id"
	errLoadChemicals    = "failed to load chemicals"
	errSaveChemical     = "failed to save chemical"
	errDeleteChemical   = "failed to delete chemical"
)

// ChemicalRequest is an exported model for Swagger docs of the chemical payload.
type ChemicalRequest struct {
	Name          string   `json:"chemical_name" example:"Ethanol"`
	Formula       string   `json:"formula" example:"C2H5OH"`
	BoilingPoint  *float64 `json:"boiling_point,omitempty" example:"78.37"`
	FreezingPoint *float64 `json:"freezing_point,omitempty" example:"-114.1"`
	// Low, Medium or High; defaults to Low
	HazardLevel string `json:"hazard_level,omitempty" example:"Medium"`
	Notes       string `json:"notes,omitempty" example:"Flammable"`
}

func (r ChemicalRequest) input() service.ChemicalInput {
	return service.ChemicalInput{
		Name:          r.Name,
		Formula:       r.Formula,
		BoilingPoint:  r.BoilingPoint,
		FreezingPoint: r.FreezingPoint,
		HazardLevel:   r.HazardLevel,
		Notes:         r.Notes,
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrChemicalName) ||
		errors.Is(err, service.ErrFormula) ||
		errors.Is(err, service.ErrHazardLevel) ||
		errors.Is(err, service.ErrInvalidID)
}

// chemicalID parses :id; on failure it has already written a 400.
func chemicalID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return 0, false
	}
	return id, true
}

// writeChemicalError maps service errors for single-chemical endpoints.
func (h *Handler) writeChemicalError(c *gin.Context, userMsg, logKey string, err error, id int) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errChemicalNotFound})
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, userMsg, logKey, err, "id", id)
	}
}

// @Summary      List chemicals
// @Description  Optional case-insensitive search over name, formula, hazard level and notes.
// @Tags         chemicals
// @Produce      json
// @Param        search  query  string  false  "Search text"
// @Success      200  {object}  map[string]interface{}  "count, chemicals"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/chemicals [get]
// @Security     BearerAuth
func (h *Handler) listChemicals(c *gin.Context) {
	list, err := h.services.Chemicals.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadChemicals, "chemicals_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(list),
		"chemicals": list,
	})
}

// @Summary      Get chemical
// @Tags         chemicals
// @Produce      json
// @Param        id   path  int  true  "Chemical id"
// @Success      200  {object}  models.Chemical
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/chemicals/{id} [get]
// @Security     BearerAuth
func (h *Handler) getChemical(c *gin.Context) {
	id, ok := chemicalID(c)
	if !ok {
		return
	}
	chem, err := h.services.Chemicals.Get(c.Request.Context(), id)
	if err != nil {
		h.writeChemicalError(c, errLoadChemicals, "chemical_get_failed", err, id)
		return
	}
	c.JSON(http.StatusOK, chem)
}

// @Summary      Create chemical
// @Tags         chemicals
// @Accept       json
// @Produce      json
// @Param        body  body  ChemicalRequest  true  "Chemical payload"
// @Success      201  {object}  models.Chemical
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/chemicals [post]
// @Security     BearerAuth
func (h *Handler) createChemical(c *gin.Context) {
	var req ChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	chem, err := h.services.Chemicals.Create(c.Request.Context(), req.input())
	if err != nil {
		h.writeChemicalError(c, errSaveChemical, "chemical_create_failed", err, 0)
		return
	}
	c.JSON(http.StatusCreated, chem)
}

// @Summary      Update chemical
// @Tags         chemicals
// @Accept       json
// @Produce      json
// @Param        id    path  int              true  "Chemical id"
// @Param        body  body  ChemicalRequest  true  "Chemical payload"
// @Success      200  {object}  models.Chemical
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/chemicals/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateChemical(c *gin.Context) {
	id, ok := chemicalID(c)
	if !ok {
		return
	}
	var req ChemicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	chem, err := h.services.Chemicals.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.writeChemicalError(c, errSaveChemical, "chemical_update_failed", err, id)
		return
	}
	c.JSON(http.StatusOK, chem)
}

// @Summary      Delete chemical
// @Tags         chemicals
// @Param        id   path  int  true  "Chemical id"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/chemicals/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteChemical(c *gin.Context) {
	id, ok := chemicalID(c)
	if !ok {
		return
	}
	if err := h.services.Chemicals.Delete(c.Request.Context(), id); err != nil {
		h.writeChemicalError(c, errDeleteChemical, "chemical_delete_failed", err, id)
		return
	}
	c.Status(http.StatusNoContent)
}
