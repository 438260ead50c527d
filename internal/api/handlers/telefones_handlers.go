package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type TelefonesHandler struct {
	imports service.ImportService
	phones  service.PhoneService
	maxMB   int
}

func NewTelefonesHandler(imports service.ImportService, phones service.PhoneService, maxMB int) *TelefonesHandler {
	return &TelefonesHandler{imports: imports, phones: phones, maxMB: maxMB}
}

func (h *TelefonesHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	telefones := r.Group("/lista-telefones")
	{
		telefones.POST("", append(g.Import("lista-telefones"), h.Import)...)
		telefones.GET("", append(g.Data(), h.List)...)
		telefones.GET("/datas", append(g.Data(), h.Dates)...)
		telefones.GET("/contato", append(g.Data(), h.FindContact)...)
		telefones.PATCH("/contato", append(g.Data(), h.UpdateContact)...)
		telefones.PATCH("", append(g.Data(), h.RenameValues)...)
		telefones.DELETE("", append(g.Data(g.Limit("lista-telefones-delete", 20)), h.DeleteAll)...)
		telefones.DELETE("/:id", append(g.Data(g.Limit("lista-telefones-delete-row", 30)), h.DeleteRow)...)
	}
}

type UpdateContactRequest struct {
	DocID   string `json:"doc_id" binding:"required,min=1"`
	Contato string `json:"contato"`
}

type RenameValuesRequest struct {
	ColIndex    *int     `json:"col_index" binding:"required"`
	ValorAtuais []string `json:"valor_atuais"`
	ValorNovo   string   `json:"valor_novo"`
}

type DeleteConfirmRequest struct {
	Senha string `json:"senha" binding:"required,min=1"`
}

// Import stores a phone list
// @Summary Import lista de telefones
// @Tags lista-telefones
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx export"
// @Success 200 {object} models.ImportResult
// @Router /lista-telefones [post]
func (h *TelefonesHandler) Import(c *gin.Context) {
	handleImport(c, h.maxMB, h.imports.ImportTelefones)
}

// List returns the header row followed by the data rows
// @Summary List lista de telefones
// @Tags lista-telefones
// @Param datas query string false "Import dates, comma separated"
// @Router /lista-telefones [get]
func (h *TelefonesHandler) List(c *gin.Context) {
	rows, err := h.phones.List(c.Request.Context(), middleware.UserID(c), parseDates(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *TelefonesHandler) Dates(c *gin.Context) {
	respondDates(c, func() ([]string, error) {
		return h.phones.Dates(c.Request.Context(), middleware.UserID(c))
	})
}

// FindContact looks up a driver's phone by motorista and HUB
// @Summary Find a driver contact
// @Tags lista-telefones
// @Param motorista query string false "Motorista"
// @Param base query string false "HUB"
// @Success 200 {object} models.ContactResult
// @Router /lista-telefones/contato [get]
func (h *TelefonesHandler) FindContact(c *gin.Context) {
	res, err := h.phones.FindContact(c.Request.Context(), middleware.UserID(c), c.Query("motorista"), c.Query("base"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Update a driver contact
// @Tags lista-telefones
// @Param request body UpdateContactRequest true "Row id and contact"
// @Router /lista-telefones/contato [patch]
func (h *TelefonesHandler) UpdateContact(c *gin.Context) {
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	if err := h.phones.UpdateContact(c.Request.Context(), middleware.UserID(c), req.DocID, req.Contato); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": 1})
}

// RenameValues replaces the listed values of one column
// @Summary Rename column values
// @Tags lista-telefones
// @Param request body RenameValuesRequest true "Column and values"
// @Router /lista-telefones [patch]
func (h *TelefonesHandler) RenameValues(c *gin.Context) {
	var req RenameValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	n, err := h.phones.RenameValues(c.Request.Context(), middleware.UserID(c), *req.ColIndex, req.ValorAtuais, req.ValorNovo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// DeleteAll removes the whole list after the password check
// @Summary Delete lista de telefones
// @Tags lista-telefones
// @Param request body DeleteConfirmRequest true "Password"
// @Failure 401 {object} map[string]string
// @Router /lista-telefones [delete]
func (h *TelefonesHandler) DeleteAll(c *gin.Context) {
	var req DeleteConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	n, err := h.phones.DeleteAll(c.Request.Context(), middleware.UserID(c), req.Senha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *TelefonesHandler) DeleteRow(c *gin.Context) {
	var req DeleteConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	if err := h.phones.DeleteRow(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Senha); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": 1})
}
