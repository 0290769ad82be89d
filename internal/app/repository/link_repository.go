package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxOrderAttempts bounds the retries of Append on order-index conflicts.
const maxOrderAttempts = 3

// LinkRepository defines the data access contract for user links.
//
// Append, Reorder and SoftDelete each run in a single transaction holding the
// owner's user row lock, so concurrent writers for one user are serialized.
type LinkRepository interface {
	Append(ctx context.Context, link *model.Link) error
	GetByID(ctx context.Context, id uint) (*model.Link, error)
	ListByUser(ctx context.Context, userID uint, includeInactive bool) ([]model.Link, error)
	ListByStatus(ctx context.Context, userID uint, active bool) ([]model.Link, error)
	Search(ctx context.Context, userID uint, term string) ([]model.Link, error)
	Update(ctx context.Context, id, userID uint, patch model.LinkPatch) (*model.Link, error)
	ToggleActive(ctx context.Context, id, userID uint) (*model.Link, error)
	SoftDelete(ctx context.Context, link *model.Link) error
	Reorder(ctx context.Context, userID uint, orderedIDs []uint) error
	IncrementClicks(ctx context.Context, id uint) (*model.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Append inserts link at the end of its owner's ordering.
func (r *linkRepository) Append(ctx context.Context, link *model.Link) error {
	var err error
	for attempt := 0; attempt < maxOrderAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockOwner(tx, link.UserID); err != nil {
				return err
			}

			var maxOrder int
			if err := live(tx, link.UserID).
				Select("COALESCE(MAX(order_index), 0)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}

			link.ID = 0
			link.OrderIndex = maxOrder + 1
			return tx.Create(link).Error
		})
		if !isUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrOrderConflict, err)
}

func (r *linkRepository) GetByID(ctx context.Context, id uint) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) ListByUser(ctx context.Context, userID uint, includeInactive bool) ([]model.Link, error) {
	q := live(r.db.WithContext(ctx), userID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var result []model.Link
	if err := q.Order("order_index ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) ListByStatus(ctx context.Context, userID uint, active bool) ([]model.Link, error) {
	var result []model.Link
	if err := live(r.db.WithContext(ctx), userID).
		Where("is_active = ?", active).
		Order("order_index ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) Search(ctx context.Context, userID uint, term string) ([]model.Link, error) {
	pattern := likePattern(term)

	var result []model.Link
	if err := live(r.db.WithContext(ctx), userID).
		Where("(title ILIKE ? OR description ILIKE ? OR url ILIKE ?)", pattern, pattern, pattern).
		Order("order_index ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Update writes only the columns set in patch and returns the stored link.
func (r *linkRepository) Update(ctx context.Context, id, userID uint, patch model.LinkPatch) (*model.Link, error) {
	cols := patch.Columns()
	if len(cols) == 0 {
		return r.owned(ctx, id, userID)
	}

	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Updates(cols)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}
	return r.owned(ctx, id, userID)
}

// ToggleActive flips is_active in place and returns the stored link.
func (r *linkRepository) ToggleActive(ctx context.Context, id, userID uint) (*model.Link, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Update("is_active", gorm.Expr("NOT is_active"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}
	return r.owned(ctx, id, userID)
}

func (r *linkRepository) owned(ctx context.Context, id, userID uint) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// SoftDelete hides link and closes the gap it leaves in the ordering.
func (r *linkRepository) SoftDelete(ctx context.Context, link *model.Link) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, link.UserID); err != nil {
			return err
		}

		var current model.Link
		if err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", link.ID, link.UserID, false).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLinkNotFound
			}
			return err
		}

		if err := tx.Model(&model.Link{}).
			Where("id = ?", current.ID).
			Update("is_deleted", true).Error; err != nil {
			return err
		}

		// Two passes: shifted rows are parked on negative values first so the
		// (user_id, order_index) index never sees two live rows on one slot.
		if err := live(tx, link.UserID).
			Where("order_index > ?", current.OrderIndex).
			Update("order_index", gorm.Expr("-(order_index - 1)")).Error; err != nil {
			return err
		}
		if err := live(tx, link.UserID).
			Where("order_index < 0").
			Update("order_index", gorm.Expr("-order_index")).Error; err != nil {
			return err
		}

		link.IsDeleted = true
		return nil
	})
}

// Reorder rewrites the owner's order_index values to 1..N following orderedIDs.
// It returns ErrLinkSetMismatch without writing anything when orderedIDs is not
// exactly the set of the owner's live links.
func (r *linkRepository) Reorder(ctx context.Context, userID uint, orderedIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, userID); err != nil {
			return err
		}

		var current []uint
		if err := live(tx, userID).Pluck("id", &current).Error; err != nil {
			return err
		}
		if !SameLinkSet(current, orderedIDs) {
			return ErrLinkSetMismatch
		}

		// Park every row on -id so no final position is occupied.
		if err := live(tx, userID).
			Update("order_index", gorm.Expr("-id")).Error; err != nil {
			return err
		}

		for i, id := range orderedIDs {
			if err := tx.Model(&model.Link{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("order_index", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// IncrementClicks atomically bumps click_count and returns the updated link.
func (r *linkRepository) IncrementClicks(ctx context.Context, id uint) (*model.Link, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}
	return r.GetByID(ctx, id)
}

// SameLinkSet reports whether requested holds exactly the ids in current,
// each once.
func SameLinkSet(current, requested []uint) bool {
	if len(current) != len(requested) {
		return false
	}
	want := make(map[uint]struct{}, len(current))
	for _, id := range current {
		want[id] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := want[id]; !ok {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}

func live(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&model.Link{}).Where("user_id = ? AND is_deleted = ?", userID, false)
}

// lockOwner takes a row lock on the owning user for the rest of the transaction.
func lockOwner(tx *gorm.DB, userID uint) error {
	var owner model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Take(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
