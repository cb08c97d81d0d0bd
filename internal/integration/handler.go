package integration

import (
	"errors"
	"net/http"

	"bizdash/internal/auth"
	"bizdash/internal/httpx"
	"bizdash/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(s *Service, log logger.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  log,
	}
}

// RegisterRoutes mounts the callback publicly and everything else behind
// authMiddleware.
func (h *Handler) RegisterRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/oauth/callback", h.CallbackHandler)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/oauth/initiate", h.InitiateHandler)
		protected.GET("/oauth/status", h.StatusHandler)
		protected.GET("/v1/integrations", h.ListHandler)
		protected.DELETE("/v1/integrations/:provider", h.DisconnectHandler)
		protected.PUT("/v1/integrations/:provider/api-key", h.StoreAPIKeyHandler)
		protected.DELETE("/v1/integrations/:provider/api-key", h.DeleteAPIKeyHandler)
	}
}

type InitiateResponse struct {
	AuthURL string `json:"authUrl"`
}

// InitiateHandler godoc
// @Summary      Start an OAuth connection
// @Description  Returns the provider consent URL to open in a popup
// @Tags         oauth
// @Produce      json
// @Param        provider query string true  "Provider name, e.g. gmail"
// @Param        shop     query string false "Shopify shop domain"
// @Success      200 {object} InitiateResponse
// @Failure      400 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Security     BearerAuth
// @Router       /oauth/initiate [get]
func (h *Handler) InitiateHandler(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		httpx.SendError(c, httpx.Validation("provider is required"))
		return
	}

	authURL, err := h.service.Initiate(c.Request.Context(), auth.UserID(c), provider, c.Query("shop"))
	if err != nil {
		httpx.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, InitiateResponse{AuthURL: authURL})
}

// CallbackHandler godoc
// @Summary      OAuth redirect target
// @Description  Exchanges the code, stores the integration and renders a page that notifies the opener window
// @Tags         oauth
// @Produce      html
// @Param        code  query string false "Authorization code"
// @Param        state query string false "Opaque state from initiate"
// @Param        error query string false "Provider error"
// @Param        shop  query string false "Shopify shop domain"
// @Success      200 {string} string "HTML page"
// @Failure      400 {string} string "HTML page"
// @Router       /oauth/callback [get]
func (h *Handler) CallbackHandler(c *gin.Context) {
	res := h.service.HandleCallback(c.Request.Context(), CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
		Shop:             c.Query("shop"),
	})

	page, err := renderCallbackPage(res)
	if err != nil {
		h.logger.Error("failed to render callback page", logger.Err(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	status := http.StatusOK
	if res.Outcome == OutcomeMalformed {
		status = http.StatusBadRequest
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", page)
}

// StatusHandler godoc
// @Summary      Poll the outcome of an OAuth popup
// @Tags         oauth
// @Produce      json
// @Param        provider query string true "Provider name"
// @Success      200 {object} FlowStatus
// @Security     BearerAuth
// @Router       /oauth/status [get]
func (h *Handler) StatusHandler(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		httpx.SendError(c, httpx.Validation("provider is required"))
		return
	}
	st, err := h.service.Status(c.Request.Context(), auth.UserID(c), provider)
	if err != nil {
		httpx.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListHandler godoc
// @Summary      List the caller's integrations
// @Tags         integrations
// @Produce      json
// @Success      200 {array} Record
// @Security     BearerAuth
// @Router       /v1/integrations [get]
func (h *Handler) ListHandler(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		httpx.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": records})
}

// DisconnectHandler godoc
// @Summary      Disconnect an integration
// @Tags         integrations
// @Param        provider path string true "Provider name"
// @Success      204
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /v1/integrations/{provider} [delete]
func (h *Handler) DisconnectHandler(c *gin.Context) {
	if err := h.service.Disconnect(c.Request.Context(), auth.UserID(c), c.Param("provider")); err != nil {
		httpx.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type APIKeyRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
	Shop   string `json:"shop"`
}

// StoreAPIKeyHandler godoc
// @Summary      Connect an integration with an API key
// @Tags         integrations
// @Accept       json
// @Param        provider path string        true "Provider name"
// @Param        body     body APIKeyRequest true "Key and, for Shopify, the shop"
// @Success      204
// @Failure      400 {object} map[string]string
// @Security     BearerAuth
// @Router       /v1/integrations/{provider}/api-key [put]
func (h *Handler) StoreAPIKeyHandler(c *gin.Context) {
	var req APIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.SendError(c, httpx.Validation("apiKey is required"))
		return
	}
	err := h.service.StoreAPIKey(c.Request.Context(), auth.UserID(c), c.Param("provider"), APIKey{Key: req.APIKey, Shop: req.Shop})
	if errors.Is(err, ErrInvalidAPIKey) {
		h.logger.Debug("rejected api key", logger.Field{Key: "provider", Value: c.Param("provider")}, logger.Err(err))
		httpx.SendError(c, httpx.Validation("Invalid API key for this provider"))
		return
	}
	if err != nil {
		httpx.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAPIKeyHandler godoc
// @Summary      Remove a stored API key
// @Tags         integrations
// @Param        provider path string true "Provider name"
// @Success      204
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /v1/integrations/{provider}/api-key [delete]
func (h *Handler) DeleteAPIKeyHandler(c *gin.Context) {
	if err := h.service.DeleteAPIKey(c.Request.Context(), auth.UserID(c), c.Param("provider")); err != nil {
		httpx.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
