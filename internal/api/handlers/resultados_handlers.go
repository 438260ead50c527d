package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// ResultadosHandler serves /resultados-consulta: the joined motorista and
// base collections.
type ResultadosHandler struct {
	joiner service.JoinerService
	maxMB  int
}

func NewResultadosHandler(joiner service.JoinerService, maxMB int) *ResultadosHandler {
	return &ResultadosHandler{joiner: joiner, maxMB: maxMB}
}

func (h *ResultadosHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	resultados := r.Group("/resultados-consulta")
	{
		resultados.POST("/processar", append(g.Data(), h.Process)...)
		resultados.POST("/auto-enviar-motorista", append(g.Data(), h.AutoSend)...)
		resultados.GET("/motorista", append(g.Data(), h.ListMotorista)...)
		resultados.GET("/motorista/datas", append(g.Data(), h.MotoristaDates)...)
		resultados.GET("/motorista/numeros-jms", append(g.Data(), h.MotoristaJMS)...)
		resultados.POST("/motorista/atualizar", append(g.Import("motorista-atualizar"), h.UpdateMotorista)...)
		resultados.DELETE("/motorista", append(g.Data(), h.DeleteMotorista)...)
	}
}

// ProcessRequest accepts the JMS list under either key the frontend sends.
type ProcessRequest struct {
	NumerosJMS      []interface{} `json:"numeros_jms"`
	NumerosJMSCamel []interface{} `json:"numerosJms"`
	Colecao         string        `json:"colecao"`
}

func (r ProcessRequest) numbers() []string {
	raw := r.NumerosJMS
	if len(raw) == 0 {
		raw = r.NumerosJMSCamel
	}
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		switch v := n.(type) {
		case nil:
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Process joins JMS numbers into the motorista or base collection
// @Summary Process results
// @Tags resultados-consulta
// @Accept json
// @Produce json
// @Param request body ProcessRequest true "JMS numbers and target collection"
// @Success 200 {object} models.ProcessResult
// @Failure 400 {object} map[string]string
// @Router /resultados-consulta/processar [post]
func (h *ResultadosHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	res, err := h.joiner.Process(c.Request.Context(), middleware.UserID(c), req.numbers(), req.Colecao)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AutoSend sends every undelivered JMS of the configured drivers to the
// motorista collection
// @Summary Auto send to motorista
// @Tags resultados-consulta
// @Success 200 {object} models.ProcessResult
// @Router /resultados-consulta/auto-enviar-motorista [post]
func (h *ResultadosHandler) AutoSend(c *gin.Context) {
	res, err := h.joiner.AutoSendMotorista(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListMotorista pages the motorista collection with days recomputed
// @Summary List motorista
// @Tags resultados-consulta
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Rows per page" default(100)
// @Param datas query string false "Import dates, comma separated"
// @Param incluir_nao_entregues_outras_datas query bool false "Add undelivered rows of other dates"
// @Success 200 {object} models.DeliveryPage
// @Router /resultados-consulta/motorista [get]
func (h *ResultadosHandler) ListMotorista(c *gin.Context) {
	include, _ := strconv.ParseBool(c.DefaultQuery("incluir_nao_entregues_outras_datas", "false"))
	q := service.MotoristaQuery{PageQuery: pageQuery(c), IncludeUndelivered: include}
	res, err := h.joiner.ListMotorista(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ResultadosHandler) MotoristaDates(c *gin.Context) {
	respondDates(c, func() ([]string, error) {
		return h.joiner.MotoristaDates(c.Request.Context(), middleware.UserID(c))
	})
}

func (h *ResultadosHandler) MotoristaJMS(c *gin.Context) {
	numeros, err := h.joiner.MotoristaJMS(c.Request.Context(), middleware.UserID(c), parseDates(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if numeros == nil {
		numeros = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"numeros": numeros})
}

// UpdateMotorista applies delivered rows of a spreadsheet to the motorista
// collection
// @Summary Update motorista from a spreadsheet
// @Tags resultados-consulta
// @Accept multipart/form-data
// @Param file formData file true "xlsx export"
// @Router /resultados-consulta/motorista/atualizar [post]
func (h *ResultadosHandler) UpdateMotorista(c *gin.Context) {
	data, err := readUpload(c, h.maxMB)
	if err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.joiner.UpdateMotoristaFromSheet(c.Request.Context(), middleware.UserID(c), data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *ResultadosHandler) DeleteMotorista(c *gin.Context) {
	n, err := h.joiner.DeleteMotorista(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
