package services

import (
	"context"
	"net/http"

	"courtstream/internal/core/domain"
	"courtstream/internal/core/ports"
	apperrors "courtstream/pkg/errors"

	"go.uber.org/zap"
)

// AccessService decides admit or deny for join requests against the room's
// stored access configuration.
type AccessService struct {
	configs ports.RoomConfigStore
	logger  *zap.SugaredLogger
}

func NewAccessService(configs ports.RoomConfigStore, logger *zap.SugaredLogger) *AccessService {
	return &AccessService{
		configs: configs,
		logger:  logger,
	}
}

// Authorize returns nil to admit. A nil error never carries side effects;
// registration happens in the relay after admission.
//
// The director bypass is deliberate policy: the director is the operator and
// must always regain control of their own broadcast, passcode or not.
func (s *AccessService) Authorize(ctx context.Context, room domain.RoomID, role domain.Role, passcode string) error {
	cfg, err := s.configs.Get(ctx, room)
	if err != nil {
		s.logger.Infow("join denied, unknown room", "room", room)
		return apperrors.NewNotFoundError("room")
	}

	if role == domain.RoleDirector {
		return nil
	}

	if cfg.ModeFor(role) == domain.AccessProtected && passcode != cfg.Passcode {
		s.logger.Infow("join denied, invalid passcode", "room", room, "role", role)
		return apperrors.WrapError(domain.ErrInvalidPasscode, apperrors.ErrCodeAccessDenied, "invalid passcode", http.StatusForbidden)
	}

	return nil
}
