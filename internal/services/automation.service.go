package services

import (
	"context"
	"errors"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/google/uuid"
)

type SegmentRepository interface {
	Get(ctx context.Context, tenantID, id int64) (*model.Segment, error)
	Members(ctx context.Context, tenantID, segmentID int64) ([]*model.Contact, error)
}

type TemplateReader interface {
	Get(ctx context.Context, tenantID, id int64) (*model.Template, error)
}

// AutomationService fans one message out to every contact of a
// segment as individual queue entries.
type AutomationService struct {
	segments   SegmentRepository
	templates  TemplateReader
	deliveries *DeliveryService
}

func NewAutomationService(segments SegmentRepository, templates TemplateReader, deliveries *DeliveryService) *AutomationService {
	return &AutomationService{
		segments:   segments,
		templates:  templates,
		deliveries: deliveries,
	}
}

// BroadcastSegment enqueues one delivery per segment member. Contacts
// without an address for the channel are skipped. The run stops at the
// first quota rejection since every following enqueue would be
// rejected the same way.
func (s *AutomationService) BroadcastSegment(ctx context.Context, req model.SegmentBroadcastRequest) (*model.SegmentBroadcastResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := req.Body
	if req.TemplateID != nil {
		tpl, err := s.templates.Get(ctx, req.TenantID, *req.TemplateID)
		if err != nil {
			if errors.Is(err, repository.ErrTemplateNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		body = tpl.Body
	}
	body = RenderTemplate(body, req.Variables)

	members, err := s.segments.Members(ctx, req.TenantID, req.SegmentID)
	if err != nil {
		if errors.Is(err, repository.ErrSegmentNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result := &model.SegmentBroadcastResult{}
	for _, contact := range members {
		addr := contact.AddrFor(req.Channel)
		if addr == "" {
			result.Skipped++
			continue
		}

		_, created, err := s.deliveries.Enqueue(ctx, model.DeliveryEnqueueRequest{
			TenantID:       req.TenantID,
			CampaignID:     req.CampaignID,
			Channel:        req.Channel,
			ToAddr:         addr,
			Payload:        map[string]any{"body": body, "contact_id": contact.ID},
			IdempotencyKey: uuid.NewString(),
		})
		if err != nil {
			if quotaRejection(err) {
				result.Failed++
				logger.Warn("segment broadcast stopped by quota",
					"tenant_id", req.TenantID,
					"segment_id", req.SegmentID,
					"queued", result.Queued)
				break
			}
			return nil, err
		}
		if created {
			result.Queued++
		}
	}
	return result, nil
}

func quotaRejection(err error) bool {
	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		return true
	}
	var inactive *quota.InactiveError
	return errors.As(err, &inactive)
}
