package services

import (
	"context"
	"strings"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/slug"
)

// TaxonomyService manages categories and tags. Counters are owned by PostService.
type TaxonomyService struct {
	store repositories.Store
}

func NewTaxonomyService(store repositories.Store) *TaxonomyService {
	return &TaxonomyService{store: store}
}

func (s *TaxonomyService) ListCategories(ctx context.Context) ([]models.BlogCategory, error) {
	cats, err := s.store.Categories.List(ctx)
	logStoreError(ctx, "list categories", err)
	return cats, err
}

func (s *TaxonomyService) GetCategory(ctx context.Context, slug string) (*models.BlogCategory, error) {
	c, err := s.store.Categories.FindBySlug(ctx, slug)
	logStoreError(ctx, "get category", err)
	return c, err
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, in dto.CategoryInputDTO) (*models.BlogCategory, error) {
	c := &models.BlogCategory{}
	if err := s.applyCategory(ctx, c, in, true); err != nil {
		return nil, err
	}
	if err := s.store.Categories.Insert(ctx, c); err != nil {
		logStoreError(ctx, "create category", err)
		return nil, err
	}
	return c, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, hexID string, in dto.CategoryInputDTO) (*models.BlogCategory, error) {
	id, err := parseID(hexID, "category")
	if err != nil {
		return nil, err
	}
	c, err := s.store.Categories.FindByID(ctx, id)
	if err != nil {
		logStoreError(ctx, "update category", err)
		return nil, err
	}
	if err := s.applyCategory(ctx, c, in, false); err != nil {
		return nil, err
	}
	if err := s.store.Categories.Replace(ctx, c); err != nil {
		logStoreError(ctx, "update category", err)
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a category and detaches its posts. Child categories become top-level.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, hexID string) error {
	id, err := parseID(hexID, "category")
	if err != nil {
		return err
	}
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		if err := s.store.Categories.Delete(ctx, id); err != nil {
			return err
		}
		cats, err := s.store.Categories.List(ctx)
		if err != nil {
			return err
		}
		for i := range cats {
			if cats[i].ParentID != nil && *cats[i].ParentID == id {
				cats[i].ParentID = nil
				if err := s.store.Categories.Replace(ctx, &cats[i]); err != nil {
					return err
				}
			}
		}
		_, err = s.store.Posts.UnsetCategory(ctx, id)
		return err
	})
	logStoreError(ctx, "delete category", err)
	return err
}

func (s *TaxonomyService) applyCategory(ctx context.Context, c *models.BlogCategory, in dto.CategoryInputDTO, creating bool) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.InvalidInput("category name is required")
	}
	excludeID := ""
	if !creating {
		excludeID = c.ID.Hex()
	}
	sl, err := taxonomySlug(ctx, s.store.Categories, in.Slug, name, c.Slug, excludeID)
	if err != nil {
		return err
	}
	c.ParentID = nil
	if in.ParentID != "" {
		pid, err := parseID(in.ParentID, "parent category")
		if err != nil {
			return err
		}
		if !creating && pid == c.ID {
			return apperr.InvalidInput("a category cannot be its own parent")
		}
		if _, err := s.store.Categories.FindByID(ctx, pid); err != nil {
			if apperr.CodeOf(err) == apperr.CodeNotFound {
				return apperr.InvalidInput("parent category does not exist")
			}
			return err
		}
		c.ParentID = &pid
	}
	c.Name = name
	c.Slug = sl
	c.Description = strings.TrimSpace(in.Description)
	c.Color = in.Color
	c.SEO = in.SEO
	return nil
}

func (s *TaxonomyService) ListTags(ctx context.Context) ([]models.BlogTag, error) {
	tags, err := s.store.Tags.List(ctx)
	logStoreError(ctx, "list tags", err)
	return tags, err
}

func (s *TaxonomyService) GetTag(ctx context.Context, slug string) (*models.BlogTag, error) {
	t, err := s.store.Tags.FindBySlug(ctx, slug)
	logStoreError(ctx, "get tag", err)
	return t, err
}

func (s *TaxonomyService) CreateTag(ctx context.Context, in dto.TagInputDTO) (*models.BlogTag, error) {
	t := &models.BlogTag{}
	if err := s.applyTag(ctx, t, in, true); err != nil {
		return nil, err
	}
	if err := s.store.Tags.Insert(ctx, t); err != nil {
		logStoreError(ctx, "create tag", err)
		return nil, err
	}
	return t, nil
}

func (s *TaxonomyService) UpdateTag(ctx context.Context, hexID string, in dto.TagInputDTO) (*models.BlogTag, error) {
	id, err := parseID(hexID, "tag")
	if err != nil {
		return nil, err
	}
	t, err := s.store.Tags.FindByID(ctx, id)
	if err != nil {
		logStoreError(ctx, "update tag", err)
		return nil, err
	}
	if err := s.applyTag(ctx, t, in, false); err != nil {
		return nil, err
	}
	if err := s.store.Tags.Replace(ctx, t); err != nil {
		logStoreError(ctx, "update tag", err)
		return nil, err
	}
	return t, nil
}

// DeleteTag removes a tag and pulls it from every post.
func (s *TaxonomyService) DeleteTag(ctx context.Context, hexID string) error {
	id, err := parseID(hexID, "tag")
	if err != nil {
		return err
	}
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		if err := s.store.Tags.Delete(ctx, id); err != nil {
			return err
		}
		_, err := s.store.Posts.PullTag(ctx, id)
		return err
	})
	logStoreError(ctx, "delete tag", err)
	return err
}

func (s *TaxonomyService) applyTag(ctx context.Context, t *models.BlogTag, in dto.TagInputDTO, creating bool) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.InvalidInput("tag name is required")
	}
	excludeID := ""
	if !creating {
		excludeID = t.ID.Hex()
	}
	sl, err := taxonomySlug(ctx, s.store.Tags, in.Slug, name, t.Slug, excludeID)
	if err != nil {
		return err
	}
	t.Name = name
	t.Slug = sl
	t.Description = strings.TrimSpace(in.Description)
	return nil
}

// taxonomySlug keeps current unless an explicit slug is given. New documents get a unique slug
// derived from name.
func taxonomySlug(ctx context.Context, checker slug.Checker, explicit, name, current, excludeID string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		want := slug.ToSlug(explicit)
		taken, err := checker.SlugExists(ctx, want, excludeID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", apperr.Conflict("slug already in use")
		}
		return want, nil
	}
	if current != "" {
		return current, nil
	}
	return slug.UniqueSlugFor(ctx, name, checker, excludeID)
}
