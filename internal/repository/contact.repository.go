package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrContactNotFound = errors.New("contact not found")
)

type ContactRepository struct {
	*pg.DB
}

func NewContactRepository(db *pg.DB) *ContactRepository {
	return &ContactRepository{
		db,
	}
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	entity := toContactEntity(c)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toContactModel(entity), nil
}

func (r *ContactRepository) Get(ctx context.Context, tenantID, id int64) (*model.Contact, error) {
	var entity ContactEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return toContactModel(&entity), nil
}

func (r *ContactRepository) List(ctx context.Context, tenantID int64, f model.ContactFilter) ([]*model.Contact, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ContactEntity{}).
		Where("tenant_id = ?", tenantID)
	if f.Query != "" {
		needle := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", needle, needle, needle)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var entities []*ContactEntity
	err := q.Order("id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}
	return toContactModels(entities), total, nil
}

func (r *ContactRepository) Patch(ctx context.Context, tenantID, id int64, p model.ContactPatch) (*model.Contact, error) {
	if p.Empty() {
		return r.Get(ctx, tenantID, id)
	}
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.Phone != nil {
		updates["phone"] = *p.Phone
	}
	res := r.Write(ctx).WithContext(ctx).Model(&ContactEntity{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrContactNotFound
	}
	return r.Get(ctx, tenantID, id)
}

func (r *ContactRepository) Delete(ctx context.Context, tenantID, id int64) error {
	res := r.Write(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&ContactEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}
