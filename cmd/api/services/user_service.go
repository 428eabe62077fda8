package services

import (
	"context"
	"strings"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/models"
	"sitecms/repositories"
)

// UserService keeps the author directory. Identities are issued elsewhere; the token subject is
// the user id.
type UserService struct {
	store repositories.Store
}

func NewUserService(store repositories.Store) *UserService {
	return &UserService{store: store}
}

func toAuthorDTO(u *models.User) *dto.AuthorDTO {
	return &dto.AuthorDTO{ID: u.ID, Name: u.Name, Bio: u.Bio, AvatarURL: u.AvatarURL, URL: u.URL}
}

func (s *UserService) GetAuthor(ctx context.Context, id string) (*dto.AuthorDTO, error) {
	u, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		logStoreError(ctx, "get author", err)
		return nil, err
	}
	return toAuthorDTO(u), nil
}

// UpsertProfile writes the caller's own author profile.
func (s *UserService) UpsertProfile(ctx context.Context, author Author, email string, in dto.AuthorInputDTO) (*dto.AuthorDTO, error) {
	if author.ID == "" {
		return nil, apperr.Unauthorized("missing subject")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("author name is required")
	}
	u := &models.User{
		ID:        author.ID,
		Name:      name,
		Email:     email,
		Bio:       strings.TrimSpace(in.Bio),
		AvatarURL: in.AvatarURL,
		URL:       in.URL,
	}
	if err := s.store.Users.Upsert(ctx, u); err != nil {
		logStoreError(ctx, "upsert author", err)
		return nil, err
	}
	return toAuthorDTO(u), nil
}
