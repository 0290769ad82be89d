package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/middleware"
	"github.com/linkyoself/linkyoself/internal/http/response"
	"go.uber.org/zap"
)

// LinkHandler implements the link management API.
type LinkHandler struct {
	logger *zap.Logger
	links  service.LinkService
}

func NewLinkHandler(logger *zap.Logger, links service.LinkService) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{logger: logger, links: links}
}

// Register wires link routes. Only the click endpoint is public.
func (h *LinkHandler) Register(router fiber.Router, requireAuth, limit fiber.Handler) {
	links := router.Group("/api/links")
	{
		links.Post("/", requireAuth, h.CreateLink)
		links.Get("/", requireAuth, h.ListLinks)
		links.Get("/search", requireAuth, h.SearchLinks)
		links.Get("/analytics/summary", requireAuth, h.Analytics)
		links.Post("/reorder", requireAuth, h.ReorderLinks)
		links.Get("/:id", requireAuth, h.GetLink)
		links.Put("/:id", requireAuth, h.UpdateLink)
		links.Delete("/:id", requireAuth, h.DeleteLink)
		links.Patch("/:id/toggle", requireAuth, h.ToggleLink)
		links.Get("/:id/clicks", requireAuth, h.ClickHistory)
		if limit != nil {
			links.Post("/:id/click", limit, h.Click)
		} else {
			links.Post("/:id/click", h.Click)
		}
	}
}

type createLinkRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=255"`
	URL             string  `json:"url" validate:"required,max=2048,url"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	IconURL         *string `json:"icon_url" validate:"omitempty,max=500"`
	BackgroundColor *string `json:"background_color" validate:"omitempty,max=20"`
	TextColor       *string `json:"text_color" validate:"omitempty,max=20"`
	BorderRadius    *int    `json:"border_radius" validate:"omitempty,min=0,max=50"`
	IsActive        *bool   `json:"is_active"`
}

// CreateLink handles POST /api/links
func (h *LinkHandler) CreateLink(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	var req createLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	link, err := h.links.CreateLink(c.UserContext(), user.ID, service.CreateLinkInput{
		Title:           req.Title,
		URL:             req.URL,
		Description:     req.Description,
		IconURL:         req.IconURL,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
		BorderRadius:    req.BorderRadius,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return err
	}

	return response.Created(c, "Link created successfully", link)
}

// ListLinks handles GET /api/links?include_inactive=&status=active|inactive
func (h *LinkHandler) ListLinks(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	ctx := c.UserContext()

	var (
		links []model.Link
		err   error
	)
	switch c.Query("status") {
	case "":
		links, err = h.links.ListLinks(ctx, user.ID, c.QueryBool("include_inactive", false))
	case "active":
		links, err = h.links.ListByStatus(ctx, user.ID, true)
	case "inactive":
		links, err = h.links.ListByStatus(ctx, user.ID, false)
	default:
		return service.NewValidationError("status", "must be one of: active inactive")
	}
	if err != nil {
		return err
	}

	return response.OK(c, "Links retrieved successfully", nonNil(links))
}

// SearchLinks handles GET /api/links/search?q=
func (h *LinkHandler) SearchLinks(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	links, err := h.links.SearchLinks(c.UserContext(), user.ID, c.Query("q"))
	if err != nil {
		return err
	}
	return response.OK(c, "Search completed", nonNil(links))
}

// Analytics handles GET /api/links/analytics/summary
func (h *LinkHandler) Analytics(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	summary, err := h.links.Analytics(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Analytics retrieved successfully", summary)
}

type reorderRequest struct {
	LinkIDs []uint `json:"link_ids" validate:"required"`
}

// ReorderLinks handles POST /api/links/reorder
func (h *LinkHandler) ReorderLinks(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	var req reorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	links, err := h.links.ReorderLinks(c.UserContext(), user.ID, req.LinkIDs)
	if err != nil {
		return err
	}
	return response.OK(c, "Links reordered successfully", nonNil(links))
}

// GetLink handles GET /api/links/:id
func (h *LinkHandler) GetLink(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}

	link, err := h.links.GetLink(c.UserContext(), id, user.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Link retrieved successfully", link)
}

type updateLinkRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	URL             *string `json:"url" validate:"omitempty,max=2048,url"`
	Description     *string `json:"description" validate:"omitempty,max=500"`
	IconURL         *string `json:"icon_url" validate:"omitempty,max=500"`
	BackgroundColor *string `json:"background_color" validate:"omitempty,max=20"`
	TextColor       *string `json:"text_color" validate:"omitempty,max=20"`
	BorderRadius    *int    `json:"border_radius" validate:"omitempty,min=0,max=50"`
	IsActive        *bool   `json:"is_active"`
}

func (r updateLinkRequest) patch() model.LinkPatch {
	return model.LinkPatch{
		Title:           r.Title,
		URL:             r.URL,
		Description:     r.Description,
		IconURL:         r.IconURL,
		BackgroundColor: r.BackgroundColor,
		TextColor:       r.TextColor,
		BorderRadius:    r.BorderRadius,
		IsActive:        r.IsActive,
	}
}

// UpdateLink handles PUT /api/links/:id
func (h *LinkHandler) UpdateLink(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}

	var req updateLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	patch := req.patch()
	patch.Clear = nulledFields(c)

	link, err := h.links.UpdateLink(c.UserContext(), id, user.ID, patch)
	if err != nil {
		return err
	}
	return response.OK(c, "Link updated successfully", link)
}

// nulledFields returns the clearable link fields the JSON body sets to null.
func nulledFields(c *fiber.Ctx) []model.LinkField {
	if !c.Is("json") {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil
	}

	var fields []model.LinkField
	for _, f := range model.ClearableLinkFields {
		if v, ok := raw[string(f)]; ok && string(v) == "null" {
			fields = append(fields, f)
		}
	}
	return fields
}

// DeleteLink handles DELETE /api/links/:id
func (h *LinkHandler) DeleteLink(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}

	if err := h.links.DeleteLink(c.UserContext(), id, user.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLink handles PATCH /api/links/:id/toggle
func (h *LinkHandler) ToggleLink(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}

	link, err := h.links.ToggleLink(c.UserContext(), id, user.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Link status toggled", link)
}

// ClickHistory handles GET /api/links/:id/clicks?limit=
func (h *LinkHandler) ClickHistory(c *fiber.Ctx) error {
	user, id, err := h.target(c)
	if err != nil {
		return err
	}

	events, err := h.links.ClickHistory(c.UserContext(), id, user.ID, c.QueryInt("limit", 100))
	if err != nil {
		return err
	}
	if events == nil {
		events = []model.ClickEvent{}
	}
	return response.OK(c, "Click history retrieved", events)
}

// Click handles POST /api/links/:id/click. Anyone may click a live link.
func (h *LinkHandler) Click(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	link, err := h.links.RecordClick(c.UserContext(), id, clickInfo(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Click recorded", fiber.Map{"redirect_url": link.URL})
}

func (h *LinkHandler) target(c *fiber.Ctx) (*model.User, uint, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, 0, service.ErrUnauthorized
	}
	id, err := paramID(c, "id")
	if err != nil {
		return nil, 0, err
	}
	return user, id, nil
}

func clickInfo(c *fiber.Ctx) service.ClickInfo {
	return service.ClickInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referer:   c.Get(fiber.HeaderReferer),
	}
}

func nonNil(links []model.Link) []model.Link {
	if links == nil {
		return []model.Link{}
	}
	return links
}
