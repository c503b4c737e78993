package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/admux/ad-gateway/pkg/pg"
)

// PromoterReport summarizes one run over due scheduled ads.
type PromoterReport struct {
	Due      int       `json:"due"`
	Promoted int       `json:"promoted"`
	Rejected int       `json:"rejected"`
	Ts       time.Time `json:"ts"`
}

// Promoter flips scheduled ads to sent once their due time passes,
// charging each promotion against the tenant's daily send quota. Ads
// rejected by quota stay scheduled and are retried on the next run.
type Promoter struct {
	db    *pg.DB
	ads   *repository.AdRepository
	quota *quota.Service
	now   func() time.Time
}

func NewPromoter(db *pg.DB, ads *repository.AdRepository, q *quota.Service) *Promoter {
	return &Promoter{
		db:    db,
		ads:   ads,
		quota: q,
		now:   time.Now,
	}
}

func (p *Promoter) WithClock(now func() time.Time) *Promoter {
	p.now = now
	return p
}

// RunDue processes every scheduled ad whose due time has passed. Each
// ad is settled in its own transaction; overlapping runs are safe
// because the sent transition is guarded on the scheduled status.
func (p *Promoter) RunDue(ctx context.Context) (*PromoterReport, error) {
	now := p.now().UTC()
	report := &PromoterReport{Ts: now}

	due, err := p.ads.SelectDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("select due ads: %w", err)
	}
	report.Due = len(due)

	for _, ad := range due {
		promoted, err := p.promoteOne(ctx, ad)
		if err != nil {
			logger.Error("ad promotion failed", "ad_id", ad.ID, "error", err)
			continue
		}
		if promoted {
			report.Promoted++
		} else {
			report.Rejected++
		}
	}

	if report.Due > 0 {
		logger.Info("scheduled ads processed",
			"due", report.Due,
			"promoted", report.Promoted,
			"rejected", report.Rejected)
	}
	return report, nil
}

func (p *Promoter) promoteOne(ctx context.Context, ad *model.Ad) (bool, error) {
	promoted := false

	err := p.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		now := p.now().UTC()

		if err := p.quota.CheckDailySend(txCtx, ad.TenantID); err != nil {
			if !quotaRejection(err) {
				return err
			}
			// Quota rejections leave the ad scheduled for the next
			// run and are recorded on the delivery trail.
			return p.ads.AddDeliveryNote(txCtx, ad.ID, "fail", err.Error(), now)
		}

		ok, err := p.ads.MarkSentIfScheduled(txCtx, ad.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if err := p.ads.AddDeliveryNote(txCtx, ad.ID, "ok", "", now); err != nil {
			return err
		}
		if err := p.quota.IncrementDailySend(txCtx, ad.TenantID, ad.Channel); err != nil {
			return err
		}
		promoted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return promoted, nil
}

func quotaRejection(err error) bool {
	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		return true
	}
	var inactive *quota.InactiveError
	return errors.As(err, &inactive)
}
