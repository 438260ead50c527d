package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, g Guards) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", g.Limit("login", 10), h.Login)
		authGroup.POST("/criar-conta", g.Limit("criar-conta", 5), h.CreateAccount)
		authGroup.PATCH("/perfil", g.Auth, g.Limit("perfil", 20), h.UpdateProfile)
		authGroup.GET("/me", g.Auth, g.Limit("me", 30), h.Me)
		authGroup.PATCH("/config", g.Auth, g.Limit("config", 30), h.UpdateConfig)
	}
}

type LoginRequest struct {
	Nome  string `json:"nome" binding:"required,min=1,max=200"`
	Senha string `json:"senha" binding:"required,min=1"`
}

type CreateAccountRequest struct {
	Nome     string `json:"nome" binding:"required,min=1,max=200"`
	NomeBase string `json:"nome_base" binding:"required,min=1,max=200"`
	Senha    string `json:"senha" binding:"required,min=8,max=128"`
}

type UpdateProfileRequest struct {
	Foto string `json:"foto" binding:"required,min=1,max=2000"`
}

type UpdateConfigRequest struct {
	Config map[string]interface{} `json:"config"`
}

// Login issues an access token
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	res, err := h.service.Login(c.Request.Context(), req.Nome, req.Senha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateAccount registers a new user
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account"
// @Success 201 {object} models.AccountResponse
// @Failure 409 {object} map[string]string
// @Router /auth/criar-conta [post]
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	res, err := h.service.CreateAccount(c.Request.Context(), req.Nome, req.NomeBase, req.Senha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary Update the profile photo
// @Tags auth
// @Router /auth/perfil [patch]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	res, err := h.service.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.Foto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Current user
// @Tags auth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	res, err := h.service.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UpdateConfig merges the given keys into the user's config
// @Summary Update settings
// @Tags auth
// @Accept json
// @Produce json
// @Param request body UpdateConfigRequest true "Config keys"
// @Success 200 {object} models.ConfigResponse
// @Router /auth/config [patch]
func (h *AuthHandler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ErrInvalidRequest})
		return
	}
	if req.Config == nil {
		req.Config = map[string]interface{}{}
	}
	res, err := h.service.UpdateConfig(c.Request.Context(), middleware.UserID(c), req.Config)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
