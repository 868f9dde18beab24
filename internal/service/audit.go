package service

import (
	"context"
	"strings"

	"github.com/faerion/keygate/internal/domain"
	"go.uber.org/zap"
)

// DefaultAuditDenylist lists event kinds that are pure polling noise and must
// never reach durable storage.
func DefaultAuditDenylist() []string {
	return []string{
		domain.EventValidate,
		domain.EventInit,
		"token_valid",
		"token_verified",
		"license_check",
		"license_valid",
		"license_validated",
		"admin_authenticated",
	}
}

// AuditFilter decides which event kinds are durable-logged. The denylist is
// fixed at construction.
type AuditFilter struct {
	denied map[string]struct{}
}

func NewAuditFilter(denylist []string) *AuditFilter {
	denied := make(map[string]struct{}, len(denylist))
	for _, kind := range denylist {
		denied[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	return &AuditFilter{denied: denied}
}

// Allows reports whether an event of this kind should be persisted.
// Empty kinds, denylisted kinds, and "get "-style read actions are dropped.
func (f *AuditFilter) Allows(kind string) bool {
	k := strings.ToLower(strings.TrimSpace(kind))
	if k == "" {
		return false
	}
	if _, ok := f.denied[k]; ok {
		return false
	}
	if strings.HasPrefix(k, "get ") {
		return false
	}
	return true
}

// AuditService writes authentication events through the filter. A failed
// audit write is logged but never fails the request that produced it.
type AuditService struct {
	store  domain.AuthEventStore
	filter *AuditFilter
	logger *zap.Logger
}

func NewAuditService(store domain.AuthEventStore, filter *AuditFilter, logger *zap.Logger) *AuditService {
	return &AuditService{store: store, filter: filter, logger: logger}
}

func (s *AuditService) Record(ctx context.Context, e *domain.AuthEvent) {
	if !s.filter.Allows(e.Kind) {
		return
	}
	if err := s.store.Create(ctx, e); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("kind", e.Kind),
			zap.String("app_id", e.AppID.String()),
			zap.Error(err))
	}
}
