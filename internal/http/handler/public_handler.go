package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/response"
	"github.com/linkyoself/linkyoself/internal/http/view"
	"go.uber.org/zap"
)

// PublicHandler serves the unauthenticated link-in-bio surface: the HTML
// profile page, its JSON twin and the counting redirect.
type PublicHandler struct {
	logger  *zap.Logger
	links   service.LinkService
	baseURL string
}

// NewPublicHandler creates a public handler. baseURL prefixes redirect links
// on rendered pages; empty means site-relative.
func NewPublicHandler(logger *zap.Logger, links service.LinkService, baseURL string) *PublicHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		logger:  logger,
		links:   links,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Register wires public routes. limit, when non-nil, throttles the redirect.
func (h *PublicHandler) Register(router fiber.Router, limit fiber.Handler) {
	router.Get("/u/:username", h.ProfilePage)
	router.Get("/api/public/:username/links", h.PublicLinks)
	if limit != nil {
		router.Get("/r/:id", limit, h.Redirect)
	} else {
		router.Get("/r/:id", h.Redirect)
	}
}

type publicProfile struct {
	Username        string       `json:"username"`
	DisplayName     *string      `json:"display_name"`
	Bio             *string      `json:"bio"`
	ProfileImageURL *string      `json:"profile_image_url"`
	PageTitle       *string      `json:"page_title"`
	ThemeColor      string       `json:"theme_color"`
	BackgroundType  string       `json:"background_type"`
	BackgroundValue *string      `json:"background_value"`
	Links           []model.Link `json:"links"`
}

// PublicLinks handles GET /api/public/:username/links
func (h *PublicHandler) PublicLinks(c *fiber.Ctx) error {
	user, links, err := h.links.PublicLinks(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}

	return response.OK(c, "Public links retrieved", publicProfile{
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		Bio:             user.Bio,
		ProfileImageURL: user.ProfileImageURL,
		PageTitle:       user.PageTitle,
		ThemeColor:      user.ThemeColor,
		BackgroundType:  user.BackgroundType,
		BackgroundValue: user.BackgroundValue,
		Links:           nonNil(links),
	})
}

// ProfilePage handles GET /u/:username
func (h *PublicHandler) ProfilePage(c *fiber.Ctx) error {
	user, links, err := h.links.PublicLinks(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}

	html, err := view.RenderProfilePage(view.NewProfilePageData(user, links, h.clickPath))
	if err != nil {
		h.logger.Error("failed to render profile page", zap.Error(err), zap.String("username", user.Username))
		return err
	}

	return c.Type("html", "utf-8").SendString(html)
}

// Redirect handles GET /r/:id: it counts the click and redirects to the target.
func (h *PublicHandler) Redirect(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	link, err := h.links.RecordClick(c.UserContext(), id, clickInfo(c))
	if err != nil {
		return err
	}

	h.logger.Debug("redirecting link", zap.Uint("link_id", link.ID), zap.String("target", link.URL))
	return c.Redirect(link.URL, fiber.StatusFound)
}

func (h *PublicHandler) clickPath(l model.Link) string {
	return fmt.Sprintf("%s/r/%d", h.baseURL, l.ID)
}
