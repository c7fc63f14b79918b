package parts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a parts repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new part.
func (r *Repository) Create(ctx context.Context, part *models.Part) (*models.Part, error) {
	if err := r.db.WithContext(ctx).Create(part).Error; err != nil {
		return nil, err
	}
	return part, nil
}

// FindByID loads a part regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// FindActiveByID loads a part that is currently listed.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// FindByIDs returns the parts matching ids keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Part, error) {
	out := make(map[uuid.UUID]models.Part, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Part
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// ListBySeller pages through a seller's parts newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Part, string, error) {
	return r.page(r.db.WithContext(ctx).Where("seller_id = ?", sellerID), params)
}

// ListActive pages through the public catalog newest first. Empty filter
// fields match everything; set ones compare case-insensitively.
func (r *Repository) ListActive(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Part, string, error) {
	qb := r.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.Category != "" {
		qb = qb.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Brand != "" {
		qb = qb.Where("LOWER(brand) = LOWER(?)", filter.Brand)
	}
	return r.page(qb, params)
}

func (r *Repository) page(qb *gorm.DB, params pagination.Params) ([]models.Part, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Part
	if err := qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, params.Limit, func(p models.Part) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return rows, next, nil
}
