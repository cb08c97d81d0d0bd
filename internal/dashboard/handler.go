package dashboard

import (
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

func (h *Handler) RegisterRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	widgets := router.Group("/v1/widgets")
	widgets.Use(authMiddleware)
	{
		widgets.GET("/gmail/emails", h.EmailsHandler)
		widgets.GET("/gmail/stats", h.EmailStatsHandler)
		widgets.GET("/gmail/analysis", h.EmailAnalysisHandler)
		widgets.GET("/analytics/overview", h.AnalyticsHandler)
		widgets.GET("/calendar/events", h.CalendarHandler)
		widgets.GET("/github/repos", h.RepositoriesHandler)
		widgets.GET("/github/commits", h.CommitsHandler)
		widgets.GET("/slack/channels", h.ChannelsHandler)
		widgets.GET("/slack/messages", h.MessagesHandler)
		widgets.GET("/stripe/customers", h.CustomersHandler)
		widgets.GET("/shopify/products", h.ProductsHandler)
		widgets.GET("/sales", h.SalesHandler)
		widgets.GET("/overview", h.OverviewHandler)
	}
}

type EmailsQuery struct {
	Query      string `form:"q"`
	MaxResults int    `form:"maxResults" binding:"omitempty,min=1,max=50"`
}

type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type AnalyticsQuery struct {
	PropertyID string `form:"propertyId" binding:"required"`
}

type CommitsQuery struct {
	Owner string `form:"owner" binding:"required"`
	Repo  string `form:"repo" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type MessagesQuery struct {
	Channel string `form:"channel" binding:"required"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type SalesQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// bind parses query parameters into q and answers 400 on failure.
func (h *Handler) bind(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		h.logger.Debug("invalid widget query", logger.Field{Key: "path", Value: c.FullPath()}, logger.Err(err))
		httpx.SendError(c, httpx.Validation("Invalid request parameters"))
		return false
	}
	return true
}

func respond[T any](c *gin.Context, res *Result[T], err error) {
	if err != nil {
		httpx.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// EmailsHandler godoc
// @Summary      Recent Gmail messages
// @Tags         widgets
// @Produce      json
// @Param        q          query string false "Gmail search query, default in:inbox"
// @Param        maxResults query int    false "Maximum messages (1-50)"
// @Success      200 {object} Result[adapter.EmailList]
// @Failure      401 {object} map[string]any
// @Failure      404 {object} map[string]any
// @Security     BearerAuth
// @Router       /v1/widgets/gmail/emails [get]
func (h *Handler) EmailsHandler(c *gin.Context) {
	var q EmailsQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.Emails(c.Request.Context(), auth.UserID(c), q.Query, q.MaxResults)
	respond(c, res, err)
}

// EmailStatsHandler godoc
// @Summary      Gmail inbox and sent counters
// @Tags         widgets
// @Produce      json
// @Success      200 {object} Result[adapter.EmailStats]
// @Security     BearerAuth
// @Router       /v1/widgets/gmail/stats [get]
func (h *Handler) EmailStatsHandler(c *gin.Context) {
	res, err := h.service.EmailStats(c.Request.Context(), auth.UserID(c))
	respond(c, res, err)
}

// EmailAnalysisHandler godoc
// @Summary      Last week's email analysis
// @Tags         widgets
// @Produce      json
// @Success      200 {object} Result[adapter.EmailAnalysis]
// @Security     BearerAuth
// @Router       /v1/widgets/gmail/analysis [get]
func (h *Handler) EmailAnalysisHandler(c *gin.Context) {
	res, err := h.service.EmailAnalysis(c.Request.Context(), auth.UserID(c))
	respond(c, res, err)
}

// AnalyticsHandler godoc
// @Summary      Google Analytics 30 day overview
// @Tags         widgets
// @Produce      json
// @Param        propertyId query string true "GA4 property id"
// @Success      200 {object} Result[adapter.AnalyticsOverview]
// @Failure      400 {object} map[string]any
// @Security     BearerAuth
// @Router       /v1/widgets/analytics/overview [get]
func (h *Handler) AnalyticsHandler(c *gin.Context) {
	var q AnalyticsQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.AnalyticsOverview(c.Request.Context(), auth.UserID(c), q.PropertyID)
	respond(c, res, err)
}

// CalendarHandler godoc
// @Summary      Upcoming calendar events
// @Tags         widgets
// @Produce      json
// @Param        limit query int false "Maximum events"
// @Success      200 {object} Result[[]adapter.CalendarEvent]
// @Security     BearerAuth
// @Router       /v1/widgets/calendar/events [get]
func (h *Handler) CalendarHandler(c *gin.Context) {
	var q LimitQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.CalendarEvents(c.Request.Context(), auth.UserID(c), q.Limit)
	respond(c, res, err)
}

// RepositoriesHandler godoc
// @Summary      Recently updated repositories
// @Tags         widgets
// @Produce      json
// @Param        limit query int false "Maximum repositories"
// @Success      200 {object} Result[[]adapter.Repository]
// @Security     BearerAuth
// @Router       /v1/widgets/github/repos [get]
func (h *Handler) RepositoriesHandler(c *gin.Context) {
	var q LimitQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.Repositories(c.Request.Context(), auth.UserID(c), q.Limit)
	respond(c, res, err)
}

// CommitsHandler godoc
// @Summary      Recent commits of a repository
// @Tags         widgets
// @Produce      json
// @Param        owner query string true  "Repository owner"
// @Param        repo  query string true  "Repository name"
// @Param        limit query int    false "Maximum commits"
// @Success      200 {object} Result[[]adapter.Commit]
// @Security     BearerAuth
// @Router       /v1/widgets/github/commits [get]
func (h *Handler) CommitsHandler(c *gin.Context) {
	var q CommitsQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.Commits(c.Request.Context(), auth.UserID(c), q.Owner, q.Repo, q.Limit)
	respond(c, res, err)
}

// ChannelsHandler godoc
// @Summary      Slack channels
// @Tags         widgets
// @Produce      json
// @Param        limit query int false "Maximum channels"
// @Success      200 {object} Result[[]adapter.Channel]
// @Security     BearerAuth
// @Router       /v1/widgets/slack/channels [get]
func (h *Handler) ChannelsHandler(c *gin.Context) {
	var q LimitQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.SlackChannels(c.Request.Context(), auth.UserID(c), q.Limit)
	respond(c, res, err)
}

// MessagesHandler godoc
// @Summary      Recent messages of a Slack channel
// @Tags         widgets
// @Produce      json
// @Param        channel query string true  "Channel id"
// @Param        limit   query int    false "Maximum messages"
// @Success      200 {object} Result[[]adapter.Message]
// @Security     BearerAuth
// @Router       /v1/widgets/slack/messages [get]
func (h *Handler) MessagesHandler(c *gin.Context) {
	var q MessagesQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.SlackMessages(c.Request.Context(), auth.UserID(c), q.Channel, q.Limit)
	respond(c, res, err)
}

// CustomersHandler godoc
// @Summary      Recent Stripe customers
// @Tags         widgets
// @Produce      json
// @Param        limit query int false "Maximum customers"
// @Success      200 {object} Result[[]adapter.Customer]
// @Security     BearerAuth
// @Router       /v1/widgets/stripe/customers [get]
func (h *Handler) CustomersHandler(c *gin.Context) {
	var q LimitQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.StripeCustomers(c.Request.Context(), auth.UserID(c), q.Limit)
	respond(c, res, err)
}

// ProductsHandler godoc
// @Summary      Shopify product catalogue
// @Tags         widgets
// @Produce      json
// @Param        limit query int false "Maximum products"
// @Success      200 {object} Result[[]adapter.Product]
// @Security     BearerAuth
// @Router       /v1/widgets/shopify/products [get]
func (h *Handler) ProductsHandler(c *gin.Context) {
	var q LimitQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.ShopifyProducts(c.Request.Context(), auth.UserID(c), q.Limit)
	respond(c, res, err)
}

// SalesHandler godoc
// @Summary      Combined Stripe and Shopify sales
// @Tags         widgets
// @Produce      json
// @Param        days query int false "Window in days (1-365), default 30"
// @Success      200 {object} Result[adapter.SalesData]
// @Failure      404 {object} map[string]any
// @Security     BearerAuth
// @Router       /v1/widgets/sales [get]
func (h *Handler) SalesHandler(c *gin.Context) {
	var q SalesQuery
	if !h.bind(c, &q) {
		return
	}
	res, err := h.service.Sales(c.Request.Context(), auth.UserID(c), q.Days)
	respond(c, res, err)
}

// OverviewHandler godoc
// @Summary      Summary of every connected integration
// @Tags         widgets
// @Produce      json
// @Success      200 {object} Overview
// @Security     BearerAuth
// @Router       /v1/widgets/overview [get]
func (h *Handler) OverviewHandler(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), auth.UserID(c))
	if err != nil {
		httpx.SendError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
