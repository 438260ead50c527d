package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/models"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// SLAHandler serves /sla: the sla_tabela uploads, the warehouse entry
// uploads and the indicators computed from both.
type SLAHandler struct {
	imports service.ImportService
	table   service.TableService
	entrada service.TableService
	sla     service.SLAService
	maxMB   int
}

func NewSLAHandler(imports service.ImportService, table, entrada service.TableService, sla service.SLAService, maxMB int) *SLAHandler {
	return &SLAHandler{imports: imports, table: table, entrada: entrada, sla: sla, maxMB: maxMB}
}

func (h *SLAHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	slaGroup := r.Group("/sla")
	{
		slaGroup.POST("", append(g.Import("sla"), h.Import)...)
		slaGroup.POST("/atualizar", append(g.Import("sla-atualizar"), h.Update)...)
		slaGroup.POST("/entrada-galpao", append(g.Import("sla-entrada-galpao"), h.ImportEntradaGalpao)...)

		slaGroup.GET("", append(g.Data(), h.List)...)
		slaGroup.GET("/datas", append(g.Data(), h.Dates)...)
		slaGroup.GET("/indicadores", append(g.Data(), h.Indicators)...)
		slaGroup.GET("/nao-entregues", append(g.Data(), h.NaoEntregues)...)
		slaGroup.GET("/entregues", append(g.Data(), h.Entregues)...)
		slaGroup.GET("/entrada-galpao", append(g.Data(), h.EntradaGalpao)...)

		slaGroup.DELETE("", append(g.Data(), h.DeleteAll)...)
		slaGroup.DELETE("/entrada-galpao", append(g.Data(), h.DeleteEntradaGalpao)...)
		slaGroup.DELETE("/:id", append(g.Data(), h.DeleteRow)...)
	}
}

// Import stores an SLA export
// @Summary Import SLA
// @Description Rows are tagged with the periodo (AM/PM) derived from the exit time
// @Tags sla
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx export"
// @Success 200 {object} models.ImportResult
// @Router /sla [post]
func (h *SLAHandler) Import(c *gin.Context) {
	handleImport(c, h.maxMB, h.imports.ImportSLA)
}

// Update merges an SLA export into the stored rows by JMS
// @Summary Update SLA
// @Tags sla
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx export"
// @Success 200 {object} models.SLAUpdateResult
// @Router /sla/atualizar [post]
func (h *SLAHandler) Update(c *gin.Context) {
	handleImport(c, h.maxMB, h.imports.UpdateSLA)
}

// @Summary Import warehouse entries
// @Tags sla
// @Accept multipart/form-data
// @Param file formData file true "xlsx export"
// @Success 200 {object} models.ImportResult
// @Router /sla/entrada-galpao [post]
func (h *SLAHandler) ImportEntradaGalpao(c *gin.Context) {
	handleImport(c, h.maxMB, h.imports.ImportEntradaGalpao)
}

func (h *SLAHandler) List(c *gin.Context) {
	res, err := h.table.Page(c.Request.Context(), middleware.UserID(c), pageQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SLAHandler) Dates(c *gin.Context) {
	respondDates(c, func() ([]string, error) {
		return h.table.Dates(c.Request.Context(), middleware.UserID(c))
	})
}

// Indicators groups the SLA rows by base and by motorista
// @Summary SLA indicators
// @Tags sla
// @Produce json
// @Param datas query string false "Import dates, comma separated"
// @Param bases query string false "Bases, comma separated"
// @Param cidades query string false "Destination cities, comma separated"
// @Param periodo query string false "AM or PM"
// @Success 200 {object} models.SLAIndicators
// @Router /sla/indicadores [get]
func (h *SLAHandler) Indicators(c *gin.Context) {
	res, err := h.sla.Indicators(c.Request.Context(), middleware.UserID(c), slaFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type driverList func(ctx context.Context, userID, motorista, base string, f service.SLAFilter) (*models.RowsWithHeader, error)

// driverRows serves the per motorista detail lists. Both query parameters
// must be present; blank values select the (sem motorista) and (sem base)
// groups.
func (h *SLAHandler) driverRows(c *gin.Context, list driverList) {
	motorista, okM := c.GetQuery("motorista")
	base, okB := c.GetQuery("base")
	if !okM || !okB {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrMotoristaBaseMissing})
		return
	}
	res, err := list(c.Request.Context(), middleware.UserID(c), motorista, base, slaFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// NaoEntregues lists the motorista's undelivered rows that are not in the
// warehouse
// @Summary Undelivered rows of a motorista
// @Tags sla
// @Param motorista query string true "Motorista"
// @Param base query string true "Base"
// @Success 200 {object} models.RowsWithHeader
// @Failure 400 {object} map[string]string
// @Router /sla/nao-entregues [get]
func (h *SLAHandler) NaoEntregues(c *gin.Context) {
	h.driverRows(c, h.sla.NaoEntregues)
}

// @Summary Delivered rows of a motorista
// @Tags sla
// @Param motorista query string true "Motorista"
// @Param base query string true "Base"
// @Success 200 {object} models.RowsWithHeader
// @Router /sla/entregues [get]
func (h *SLAHandler) Entregues(c *gin.Context) {
	h.driverRows(c, h.sla.Entregues)
}

// @Summary Rows of a motorista back in the warehouse
// @Tags sla
// @Param motorista query string true "Motorista"
// @Param base query string true "Base"
// @Success 200 {object} models.RowsWithHeader
// @Router /sla/entrada-galpao [get]
func (h *SLAHandler) EntradaGalpao(c *gin.Context) {
	h.driverRows(c, h.sla.EntradaGalpao)
}

func (h *SLAHandler) DeleteAll(c *gin.Context) {
	deleteAll(c, h.table)
}

func (h *SLAHandler) DeleteEntradaGalpao(c *gin.Context) {
	deleteAll(c, h.entrada)
}

func (h *SLAHandler) DeleteRow(c *gin.Context) {
	deleteRow(c, h.table)
}
