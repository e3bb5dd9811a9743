package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"lightbnb/internal/domain"
)

type CommandService struct {
	users      domain.UserRepository
	properties domain.PropertyWriter
}

func NewCommandService(u domain.UserRepository, p domain.PropertyWriter) *CommandService {
	return &CommandService{users: u, properties: p}
}

// AddUser stores a user. A taken email surfaces as domain.ErrConflict.
func (s *CommandService) AddUser(ctx context.Context, u domain.NewUser) (domain.User, error) {
	out, err := s.users.AddUser(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	log.Info().Int64("id", out.ID).Msg("user added")
	return out, nil
}

// AddProperty writes to the in-memory property store, not to the relational
// store that backs search.
func (s *CommandService) AddProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	out, err := s.properties.AddProperty(ctx, p)
	if err != nil {
		return domain.Property{}, err
	}
	log.Info().Int64("id", out.ID).Int64("owner_id", out.OwnerID).Msg("property added")
	return out, nil
}
