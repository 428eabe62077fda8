package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/trace"
	"sitecms/cmd/internal/logger"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/textutil"
)

const maxCommentLength = 5000

// RequestMeta is the client information stored with a comment for moderation.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type CommentService struct {
	store repositories.Store
	now   func() time.Time
}

func NewCommentService(store repositories.Store) *CommentService {
	return &CommentService{store: store, now: utcNow}
}

// ListForPost returns the approved comments of a published post as a reply tree. Replies whose
// parent is not approved are shown at the top level.
func (s *CommentService) ListForPost(ctx context.Context, postSlug string) ([]dto.CommentDTO, error) {
	p, err := publishedPost(ctx, s.store, postSlug)
	if err != nil {
		logStoreError(ctx, "list comments", err)
		return nil, err
	}
	comments, err := s.store.Comments.ListApproved(ctx, p.ID)
	if err != nil {
		logStoreError(ctx, "list comments", err)
		return nil, err
	}
	return thread(comments), nil
}

func thread(comments []models.BlogComment) []dto.CommentDTO {
	present := make(map[primitive.ObjectID]bool, len(comments))
	for _, c := range comments {
		present[c.ID] = true
	}
	children := map[primitive.ObjectID][]models.BlogComment{}
	var roots []models.BlogComment
	for _, c := range comments {
		if c.ParentID != nil && present[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}
	var build func(cs []models.BlogComment) []dto.CommentDTO
	build = func(cs []models.BlogComment) []dto.CommentDTO {
		out := make([]dto.CommentDTO, 0, len(cs))
		for _, c := range cs {
			node := dto.CommentDTO{
				ID:         c.ID.Hex(),
				AuthorName: c.AuthorName,
				AuthorURL:  c.AuthorURL,
				Content:    c.Content,
				CreatedAt:  c.CreatedAt,
				Replies:    build(children[c.ID]),
			}
			if c.ParentID != nil {
				node.ParentID = c.ParentID.Hex()
			}
			out = append(out, node)
		}
		return out
	}
	return build(roots)
}

// Create stores a pending comment on a published post.
func (s *CommentService) Create(ctx context.Context, postSlug string, in dto.CommentInputDTO, meta RequestMeta) (*dto.CommentDTO, error) {
	p, err := publishedPost(ctx, s.store, postSlug)
	if err != nil {
		logStoreError(ctx, "create comment", err)
		return nil, err
	}
	if !p.AllowComments {
		return nil, apperr.Forbidden("comments are closed for this post")
	}

	content := strings.TrimSpace(textutil.StripHTML(in.Content))
	name := strings.TrimSpace(in.AuthorName)
	switch {
	case name == "":
		return nil, apperr.InvalidInput("author name is required")
	case strings.TrimSpace(in.AuthorEmail) == "":
		return nil, apperr.InvalidInput("author email is required")
	case content == "":
		return nil, apperr.InvalidInput("comment content is required")
	case len([]rune(content)) > maxCommentLength:
		return nil, apperr.InvalidInputf("comment content exceeds %d characters", maxCommentLength)
	}

	c := &models.BlogComment{
		PostID:      p.ID,
		AuthorName:  name,
		AuthorEmail: strings.ToLower(strings.TrimSpace(in.AuthorEmail)),
		AuthorURL:   strings.TrimSpace(in.AuthorURL),
		Content:     content,
		Status:      models.CommentStatusPending,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
	}
	if in.ParentID != "" {
		pid, err := parseID(in.ParentID, "parent comment")
		if err != nil {
			return nil, err
		}
		parent, err := s.store.Comments.FindByID(ctx, pid)
		if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
			logStoreError(ctx, "create comment", err)
			return nil, err
		}
		if err != nil || parent.PostID != p.ID || parent.Status != models.CommentStatusApproved {
			return nil, apperr.InvalidInput("parent comment does not exist")
		}
		c.ParentID = &pid
	}

	if err := s.store.Comments.Insert(ctx, c); err != nil {
		logStoreError(ctx, "create comment", err)
		return nil, err
	}
	logger.InfoWithFields("comment submitted", trace.Fields(ctx, logger.Fields{"post_id": p.ID.Hex(), "comment_id": c.ID.Hex()}))
	out := thread([]models.BlogComment{*c})[0]
	return &out, nil
}

func (s *CommentService) AdminList(ctx context.Context, status, postID string, page, limit int) (dto.Page[models.BlogComment], error) {
	f := repositories.CommentListFilter{Page: page, Limit: limit}
	if status != "" {
		st := models.CommentStatus(status)
		if !st.Valid() {
			return dto.Page[models.BlogComment]{}, apperr.InvalidInputf("unknown status %q", status)
		}
		f.Status = st
	}
	if postID != "" {
		id, err := parseID(postID, "post")
		if err != nil {
			return dto.Page[models.BlogComment]{}, err
		}
		f.PostID = &id
	}
	f = f.Normalize()
	items, total, err := s.store.Comments.List(ctx, f)
	if err != nil {
		logStoreError(ctx, "list comments", err)
		return dto.Page[models.BlogComment]{}, err
	}
	return dto.Page[models.BlogComment]{Items: items, Pagination: dto.NewPagination(f.Page, f.Limit, total)}, nil
}

// Moderate changes a comment status and keeps the post's comment counter equal to its approved
// comments.
func (s *CommentService) Moderate(ctx context.Context, hexID string, status models.CommentStatus) (*models.BlogComment, error) {
	if !status.Valid() {
		return nil, apperr.InvalidInputf("unknown status %q", status)
	}
	id, err := parseID(hexID, "comment")
	if err != nil {
		return nil, err
	}
	var out *models.BlogComment
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		c, err := s.store.Comments.FindByID(ctx, id)
		if err != nil {
			return err
		}
		out = c
		if c.Status == status {
			return nil
		}
		delta := approvedDelta(c.Status, status)
		if err := s.store.Comments.SetStatus(ctx, id, status); err != nil {
			return err
		}
		c.Status = status
		c.UpdatedAt = s.now()
		if delta != 0 {
			_, err := s.store.Posts.IncrementAnalytics(ctx, c.PostID, repositories.FieldComments, delta)
			if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logStoreError(ctx, "moderate comment", err)
		return nil, err
	}
	return out, nil
}

func approvedDelta(from, to models.CommentStatus) int64 {
	switch {
	case from != models.CommentStatusApproved && to == models.CommentStatusApproved:
		return 1
	case from == models.CommentStatusApproved && to != models.CommentStatusApproved:
		return -1
	}
	return 0
}

func (s *CommentService) Delete(ctx context.Context, hexID string) error {
	id, err := parseID(hexID, "comment")
	if err != nil {
		return err
	}
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		c, err := s.store.Comments.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.Comments.Delete(ctx, id); err != nil {
			return err
		}
		if c.Status != models.CommentStatusApproved {
			return nil
		}
		_, err = s.store.Posts.IncrementAnalytics(ctx, c.PostID, repositories.FieldComments, -1)
		if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
			return err
		}
		return nil
	})
	logStoreError(ctx, "delete comment", err)
	return err
}
