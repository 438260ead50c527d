package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
)

// PedidosHandler serves /pedidos: the order export table.
type PedidosHandler struct {
	imports service.ImportService
	table   service.TableService
	maxMB   int
}

func NewPedidosHandler(imports service.ImportService, table service.TableService, maxMB int) *PedidosHandler {
	return &PedidosHandler{imports: imports, table: table, maxMB: maxMB}
}

func (h *PedidosHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	pedidos := r.Group("/pedidos")
	{
		pedidos.POST("", append(g.Import("pedidos"), h.Import)...)
		pedidos.GET("", append(g.Data(), h.List)...)
		pedidos.GET("/datas", append(g.Data(), h.Dates)...)
		pedidos.DELETE("", append(g.Data(), h.DeleteAll)...)
		pedidos.DELETE("/:id", append(g.Data(), h.DeleteRow)...)
	}
}

// Import stores an order export
// @Summary Import pedidos
// @Description Keeps the latest scan per JMS and skips JMS already stored
// @Tags pedidos
// @Accept multipart/form-data
// @Produce json
// @Param X-Table-Id header int true "Table id"
// @Param file formData file true "xlsx export"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /pedidos [post]
func (h *PedidosHandler) Import(c *gin.Context) {
	handleImport(c, h.maxMB, h.imports.ImportPedidos)
}

// List returns one page of pedidos, with the header on page 1
// @Summary List pedidos
// @Tags pedidos
// @Produce json
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Rows per page" default(100)
// @Param datas query string false "Import dates, comma separated"
// @Success 200 {object} models.PageResult
// @Router /pedidos [get]
func (h *PedidosHandler) List(c *gin.Context) {
	res, err := h.table.Page(c.Request.Context(), middleware.UserID(c), pageQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PedidosHandler) Dates(c *gin.Context) {
	respondDates(c, func() ([]string, error) {
		return h.table.Dates(c.Request.Context(), middleware.UserID(c))
	})
}

func (h *PedidosHandler) DeleteAll(c *gin.Context) {
	deleteAll(c, h.table)
}

func (h *PedidosHandler) DeleteRow(c *gin.Context) {
	deleteRow(c, h.table)
}

// ConsultaBipagensHandler serves /consulta-bipagens: scan lookups that feed
// pedidos_com_status.
type ConsultaBipagensHandler struct {
	imports service.ImportService
	table   service.TableService
	maxMB   int
}

func NewConsultaBipagensHandler(imports service.ImportService, table service.TableService, maxMB int) *ConsultaBipagensHandler {
	return &ConsultaBipagensHandler{imports: imports, table: table, maxMB: maxMB}
}

func (h *ConsultaBipagensHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	consulta := r.Group("/consulta-bipagens")
	{
		consulta.POST("", append(g.Import("consulta-bipagens"), h.Import)...)
		consulta.GET("", append(g.Data(), h.Total)...)
		consulta.GET("/datas", append(g.Data(), h.Dates)...)
		consulta.DELETE("", append(g.Data(), h.DeleteAll)...)
	}
}

// Import stores a scan lookup export
// @Summary Import consulta de bipagens
// @Description Requires the JMS and scan time columns; signature scans are dropped
// @Tags consulta-bipagens
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx export"
// @Success 200 {object} models.ImportResult
// @Router /consulta-bipagens [post]
func (h *ConsultaBipagensHandler) Import(c *gin.Context) {
	handleImport(c, h.maxMB, h.imports.ImportConsultaBipagens)
}

// Total counts the stored rows
// @Summary Count consulted orders
// @Tags consulta-bipagens
// @Param datas query string false "Import dates, comma separated"
// @Router /consulta-bipagens [get]
func (h *ConsultaBipagensHandler) Total(c *gin.Context) {
	total, err := h.table.Total(c.Request.Context(), middleware.UserID(c), parseDates(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (h *ConsultaBipagensHandler) Dates(c *gin.Context) {
	respondDates(c, func() ([]string, error) {
		return h.table.Dates(c.Request.Context(), middleware.UserID(c))
	})
}

func (h *ConsultaBipagensHandler) DeleteAll(c *gin.Context) {
	deleteAll(c, h.table)
}

// PedidosStatusHandler serves /pedidos-status, a read view over
// pedidos_com_status.
type PedidosStatusHandler struct {
	table service.TableService
}

func NewPedidosStatusHandler(table service.TableService) *PedidosStatusHandler {
	return &PedidosStatusHandler{table: table}
}

func (h *PedidosStatusHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	status := r.Group("/pedidos-status")
	{
		status.POST("/processar", append(g.Data(), h.Process)...)
		status.GET("", append(g.Data(), h.List)...)
		status.DELETE("", append(g.Data(), h.DeleteAll)...)
	}
}

// Process reports how many status rows are available. Rows are written
// by the consulta-bipagens import.
// @Summary Process pedidos with status
// @Tags pedidos-status
// @Router /pedidos-status/processar [post]
func (h *PedidosStatusHandler) Process(c *gin.Context) {
	saved, err := h.table.ProcessStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// @Summary List pedidos with status
// @Tags pedidos-status
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Rows per page" default(100)
// @Param datas query string false "Import dates, comma separated"
// @Success 200 {object} models.StatusPage
// @Router /pedidos-status [get]
func (h *PedidosStatusHandler) List(c *gin.Context) {
	res, err := h.table.StatusPage(c.Request.Context(), middleware.UserID(c), pageQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PedidosStatusHandler) DeleteAll(c *gin.Context) {
	deleteAll(c, h.table)
}

func deleteAll(c *gin.Context, table service.TableService) {
	n, err := table.DeleteAll(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func deleteRow(c *gin.Context, table service.TableService) {
	if err := table.DeleteRow(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": 1})
}
