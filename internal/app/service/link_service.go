package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/repository"
	"go.uber.org/zap"
)

// LinkService defines behaviour-level operations on a user's links.
// Every mutating call checks that the requester owns the link.
type LinkService interface {
	CreateLink(ctx context.Context, userID uint, input CreateLinkInput) (*model.Link, error)
	GetLink(ctx context.Context, linkID, userID uint) (*model.Link, error)
	UpdateLink(ctx context.Context, linkID, userID uint, patch model.LinkPatch) (*model.Link, error)
	DeleteLink(ctx context.Context, linkID, userID uint) error
	ToggleLink(ctx context.Context, linkID, userID uint) (*model.Link, error)
	RecordClick(ctx context.Context, linkID uint, info ClickInfo) (*model.Link, error)
	ListLinks(ctx context.Context, userID uint, includeInactive bool) ([]model.Link, error)
	ListByStatus(ctx context.Context, userID uint, active bool) ([]model.Link, error)
	SearchLinks(ctx context.Context, userID uint, term string) ([]model.Link, error)
	ReorderLinks(ctx context.Context, userID uint, orderedIDs []uint) ([]model.Link, error)
	Analytics(ctx context.Context, userID uint) (*LinkSummary, error)
	PublicLinks(ctx context.Context, username string) (*model.User, []model.Link, error)
	ClickHistory(ctx context.Context, linkID, userID uint, limit int) ([]model.ClickEvent, error)
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	Title           string
	URL             string
	Description     *string
	IconURL         *string
	BackgroundColor *string
	TextColor       *string
	BorderRadius    *int
	IsActive        *bool
}

// ClickInfo describes the visitor behind a click.
type ClickInfo struct {
	IP        string
	UserAgent string
	Referer   string
}

// LinkStat is one row of the analytics breakdown.
type LinkStat struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	ClickCount int64  `json:"click_count"`
	IsActive   bool   `json:"is_active"`
}

// LinkSummary aggregates click statistics over a user's links.
type LinkSummary struct {
	TotalLinks  int        `json:"total_links"`
	ActiveLinks int        `json:"active_links"`
	TotalClicks int64      `json:"total_clicks"`
	Links       []LinkStat `json:"links"`
}

// LinkDependencies wires a LinkService.
type LinkDependencies struct {
	Links     repository.LinkRepository
	Users     repository.UserRepository
	Clicks    repository.ClickEventRepository
	Publisher ClickEventPublisher
	Metrics   Metrics
	Logger    *zap.Logger
}

type linkService struct {
	links     repository.LinkRepository
	users     repository.UserRepository
	clicks    repository.ClickEventRepository
	publisher ClickEventPublisher
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewLinkService returns a service implementation backed by the given repositories.
// Publisher and Clicks may be nil when the click stream is disabled.
func NewLinkService(deps LinkDependencies) LinkService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		links:     deps.Links,
		users:     deps.Users,
		clicks:    deps.Clicks,
		publisher: deps.Publisher,
		metrics:   metricsOrNop(deps.Metrics),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *linkService) CreateLink(ctx context.Context, userID uint, input CreateLinkInput) (*model.Link, error) {
	link := &model.Link{
		UserID:          userID,
		Title:           input.Title,
		URL:             input.URL,
		Description:     input.Description,
		IconURL:         input.IconURL,
		BackgroundColor: input.BackgroundColor,
		TextColor:       input.TextColor,
		BorderRadius:    model.DefaultBorderRadius,
		IsActive:        true,
	}
	if input.BorderRadius != nil {
		link.BorderRadius = *input.BorderRadius
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}

	if err := s.links.Append(ctx, link); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("create link: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("create link: %w", err)
	}

	s.metrics.LinkCreated()
	return link, nil
}

func (s *linkService) GetLink(ctx context.Context, linkID, userID uint) (*model.Link, error) {
	return s.ownedLink(ctx, "get link", linkID, userID)
}

func (s *linkService) UpdateLink(ctx context.Context, linkID, userID uint, patch model.LinkPatch) (*model.Link, error) {
	link, err := s.ownedLink(ctx, "update link", linkID, userID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return link, nil
	}

	updated, err := s.links.Update(ctx, link.ID, userID, patch)
	if err != nil {
		return nil, translateLinkErr("update link", err)
	}
	return updated, nil
}

func (s *linkService) DeleteLink(ctx context.Context, linkID, userID uint) error {
	link, err := s.ownedLink(ctx, "delete link", linkID, userID)
	if err != nil {
		return err
	}
	if err := s.links.SoftDelete(ctx, link); err != nil {
		return translateLinkErr("delete link", err)
	}
	return nil
}

func (s *linkService) ToggleLink(ctx context.Context, linkID, userID uint) (*model.Link, error) {
	if _, err := s.ownedLink(ctx, "toggle link", linkID, userID); err != nil {
		return nil, err
	}

	link, err := s.links.ToggleActive(ctx, linkID, userID)
	if err != nil {
		return nil, translateLinkErr("toggle link", err)
	}
	return link, nil
}

// RecordClick counts a visit on any live link, whoever the caller is. The
// click event is published best effort after the counter is written.
func (s *linkService) RecordClick(ctx context.Context, linkID uint, info ClickInfo) (*model.Link, error) {
	link, err := s.links.IncrementClicks(ctx, linkID)
	if err != nil {
		return nil, translateLinkErr("record click", err)
	}
	s.metrics.LinkClicked()

	if s.publisher != nil {
		event := model.ClickEvent{
			ID:        uuid.NewString(),
			LinkID:    link.ID,
			OwnerID:   link.UserID,
			IP:        info.IP,
			UserAgent: info.UserAgent,
			Referer:   info.Referer,
			Timestamp: s.now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish click event",
				zap.Uint("link_id", link.ID),
				zap.Error(err),
			)
		}
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, userID uint, includeInactive bool) ([]model.Link, error) {
	links, err := s.links.ListByUser(ctx, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) ListByStatus(ctx context.Context, userID uint, active bool) ([]model.Link, error) {
	links, err := s.links.ListByStatus(ctx, userID, active)
	if err != nil {
		return nil, fmt.Errorf("list links by status: %w", err)
	}
	return links, nil
}

func (s *linkService) SearchLinks(ctx context.Context, userID uint, term string) ([]model.Link, error) {
	if term == "" {
		return nil, NewValidationError("q", "search term is required")
	}
	links, err := s.links.Search(ctx, userID, term)
	if err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}
	return links, nil
}

// ReorderLinks requires orderedIDs to be exactly the user's live links.
// Anything else is rejected with ErrPermissionDenied and nothing is written.
func (s *linkService) ReorderLinks(ctx context.Context, userID uint, orderedIDs []uint) ([]model.Link, error) {
	if err := s.links.Reorder(ctx, userID, orderedIDs); err != nil {
		if errors.Is(err, repository.ErrLinkSetMismatch) {
			return nil, fmt.Errorf("reorder links: %w", ErrPermissionDenied)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("reorder links: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("reorder links: %w", err)
	}
	return s.ListLinks(ctx, userID, true)
}

// Analytics breaks clicks down per link, busiest first. Links with equal
// counts keep their page order.
func (s *linkService) Analytics(ctx context.Context, userID uint) (*LinkSummary, error) {
	links, err := s.links.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}

	summary := &LinkSummary{
		TotalLinks: len(links),
		Links:      make([]LinkStat, 0, len(links)),
	}
	for _, l := range links {
		if l.IsActive {
			summary.ActiveLinks++
		}
		summary.TotalClicks += l.ClickCount
		summary.Links = append(summary.Links, LinkStat{
			ID:         l.ID,
			Title:      l.Title,
			URL:        l.URL,
			ClickCount: l.ClickCount,
			IsActive:   l.IsActive,
		})
	}

	sort.SliceStable(summary.Links, func(i, j int) bool {
		return summary.Links[i].ClickCount > summary.Links[j].ClickCount
	})
	return summary, nil
}

// PublicLinks returns the owner and the active links shown on a public page.
func (s *linkService) PublicLinks(ctx context.Context, username string) (*model.User, []model.Link, error) {
	user, err := s.users.GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("public links: %w", ErrNotFound)
		}
		return nil, nil, fmt.Errorf("public links: %w", err)
	}

	links, err := s.links.ListByUser(ctx, user.ID, false)
	if err != nil {
		return nil, nil, fmt.Errorf("public links: %w", err)
	}
	return user, links, nil
}

func (s *linkService) ClickHistory(ctx context.Context, linkID, userID uint, limit int) ([]model.ClickEvent, error) {
	if _, err := s.ownedLink(ctx, "click history", linkID, userID); err != nil {
		return nil, err
	}
	if s.clicks == nil {
		return []model.ClickEvent{}, nil
	}

	events, err := s.clicks.ListByLink(ctx, linkID, limit)
	if err != nil {
		return nil, fmt.Errorf("click history: %w", err)
	}
	return events, nil
}

// ownedLink loads a live link and checks that userID owns it.
func (s *linkService) ownedLink(ctx context.Context, op string, linkID, userID uint) (*model.Link, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, translateLinkErr(op, err)
	}
	if err := AssertOwnership(link.UserID, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return link, nil
}

func translateLinkErr(op string, err error) error {
	if errors.Is(err, repository.ErrLinkNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
