package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/storifal/storifal/internal/domain"
	"github.com/storifal/storifal/internal/dto"
	"github.com/storifal/storifal/internal/observability/metrics"
	"github.com/storifal/storifal/internal/observability/middleware"
	"github.com/storifal/storifal/internal/store"
)

type contactStore interface {
	Create(ctx context.Context, m *domain.Contact) error
}

type ContactServiceImpl struct {
	Contacts contactStore
	Logger   *slog.Logger
}

func NewContactServiceImpl(st *store.Store, logger *slog.Logger) *ContactServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactServiceImpl{Contacts: st.Contacts(), Logger: logger}
}

// Submit stores a contact form message. The email is stored as given; only
// presence is checked.
func (c *ContactServiceImpl) Submit(ctx context.Context, r dto.ContactRequest) (*domain.Contact, error) {
	result := "failure"
	defer func() {
		metrics.ContactSubmissionsTotal.WithLabelValues(result).Inc()
	}()

	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	if strings.TrimSpace(r.Message) == "" {
		r.Message = ""
	}
	if err := checkRequired(r); err != nil {
		result = "invalid"
		return nil, err
	}

	m := &domain.Contact{
		ID:        uuid.New(),
		FullName:  r.FullName,
		Email:     r.Email,
		Message:   r.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.Contacts.Create(ctx, m); err != nil {
		return nil, oops.In("contact").Code("CONTACT_CREATE_FAILED").Wrap(err)
	}

	result = "success"
	c.Logger.Info("contact submitted", append(middleware.LogAttrs(ctx), "contact_id", m.ID)...)
	return m, nil
}
