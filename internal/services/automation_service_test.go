package services

import (
	"context"
	"testing"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSegmentRepository struct {
	mock.Mock
}

func (m *MockSegmentRepository) Get(ctx context.Context, tenantID, id int64) (*model.Segment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Segment), args.Error(1)
}

func (m *MockSegmentRepository) Members(ctx context.Context, tenantID, segmentID int64) ([]*model.Contact, error) {
	args := m.Called(ctx, tenantID, segmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Contact), args.Error(1)
}

type automationEnv struct {
	svc        *AutomationService
	deliveries *DeliveryService
	segments   *MockSegmentRepository
	quota      *quota.Service
	templates  *TemplateService
}

func setupAutomation(t *testing.T) *automationEnv {
	db := helpers.SetupTestDB(t)
	q := quota.NewService(repository.NewPlanRepository(db), repository.NewUsageRepository(db))
	deliveries := NewDeliveryService(db, repository.NewDeliveryRepository(db), repository.NewCampaignRepository(db), q)
	templates := NewTemplateService(db, repository.NewTemplateRepository(db), q)
	segments := new(MockSegmentRepository)
	svc := NewAutomationService(segments, repository.NewTemplateRepository(db), deliveries)
	return &automationEnv{
		svc:        svc,
		deliveries: deliveries,
		segments:   segments,
		quota:      q,
		templates:  templates,
	}
}

func contactsFixture() []*model.Contact {
	return []*model.Contact{
		{ID: 1, TenantID: 1, Name: "Ada", Email: "ada@example.com", Phone: "+15550001"},
		{ID: 2, TenantID: 1, Name: "Brian", Email: "", Phone: "+15550002"},
		{ID: 3, TenantID: 1, Name: "Carol", Email: "carol@example.com", Phone: ""},
	}
}

func TestAutomationService_BroadcastSegment(t *testing.T) {
	ctx := context.Background()

	t.Run("queues one delivery per addressable contact", func(t *testing.T) {
		env := setupAutomation(t)
		env.segments.On("Members", mock.Anything, int64(1), int64(10)).Return(contactsFixture(), nil)

		result, err := env.svc.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
			TenantID:  1,
			SegmentID: 10,
			Channel:   "email",
			Body:      "Hello {{name}}!",
			Variables: map[string]string{"name": "there"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Queued)
		assert.Equal(t, 1, result.Skipped) // Brian has no email
		assert.Zero(t, result.Failed)

		items, total, err := env.deliveries.List(ctx, 1, model.DeliveryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, d := range items {
			assert.Equal(t, "Hello there!", d.Payload["body"])
		}
	})

	t.Run("phone channels use the phone field", func(t *testing.T) {
		env := setupAutomation(t)
		env.segments.On("Members", mock.Anything, int64(1), int64(10)).Return(contactsFixture(), nil)

		result, err := env.svc.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
			TenantID:  1,
			SegmentID: 10,
			Channel:   "whatsapp",
			Body:      "hi",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Queued)
		assert.Equal(t, 1, result.Skipped) // Carol has no phone
	})

	t.Run("template body wins over inline body", func(t *testing.T) {
		env := setupAutomation(t)
		tpl, err := env.templates.Create(ctx, model.TemplateCreateRequest{
			TenantID: 1,
			Name:     "welcome",
			Channel:  "email",
			Body:     "Welcome {{name}}",
		})
		require.NoError(t, err)
		env.segments.On("Members", mock.Anything, int64(1), int64(10)).Return(contactsFixture()[:1], nil)

		_, err = env.svc.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
			TenantID:   1,
			SegmentID:  10,
			TemplateID: &tpl.ID,
			Channel:    "email",
			Body:       "ignored",
			Variables:  map[string]string{"name": "Ada"},
		})
		require.NoError(t, err)

		items, _, err := env.deliveries.List(ctx, 1, model.DeliveryFilter{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Welcome Ada", items[0].Payload["body"])
	})

	t.Run("missing template rejects the run", func(t *testing.T) {
		env := setupAutomation(t)
		missing := int64(404)

		_, err := env.svc.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
			TenantID:   1,
			SegmentID:  10,
			TemplateID: &missing,
			Channel:    "email",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stops at the first quota rejection", func(t *testing.T) {
		env := setupAutomation(t)
		for i := 0; i < 199; i++ {
			require.NoError(t, env.quota.IncrementDailySend(ctx, 1, "email"))
		}
		env.segments.On("Members", mock.Anything, int64(1), int64(10)).Return(contactsFixture(), nil)

		result, err := env.svc.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
			TenantID:  1,
			SegmentID: 10,
			Channel:   "email",
			Body:      "hi",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Queued) // Ada fits under the ceiling
		assert.Equal(t, 1, result.Failed) // Brian is skipped, Carol hits the ceiling
	})

	t.Run("missing segment surfaces not found", func(t *testing.T) {
		env := setupAutomation(t)
		env.segments.On("Members", mock.Anything, int64(1), int64(99)).Return(nil, repository.ErrSegmentNotFound)

		_, err := env.svc.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
			TenantID:  1,
			SegmentID: 99,
			Channel:   "email",
			Body:      "hi",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		body string
		vars map[string]string
		want string
	}{
		{"simple substitution", "Hi {{name}}", map[string]string{"name": "Ada"}, "Hi Ada"},
		{"whitespace inside braces", "Hi {{ name }}", map[string]string{"name": "Ada"}, "Hi Ada"},
		{"unknown placeholder kept", "Hi {{name}}, see {{link}}", map[string]string{"name": "Ada"}, "Hi Ada, see {{link}}"},
		{"no variables", "Hi {{name}}", nil, "Hi {{name}}"},
		{"repeated placeholder", "{{x}} and {{x}}", map[string]string{"x": "1"}, "1 and 1"},
		{"no placeholders", "plain text", map[string]string{"x": "1"}, "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.body, tt.vars))
		})
	}
}
