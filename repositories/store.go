package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sitecms/models"
	"sitecms/slug"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PostSort orders post listings.
type PostSort string

const (
	SortNewest  PostSort = "newest"
	SortOldest  PostSort = "oldest"
	SortPopular PostSort = "popular"
	SortTitle   PostSort = "title"
)

func (s PostSort) Valid() bool {
	switch s {
	case "", SortNewest, SortOldest, SortPopular, SortTitle:
		return true
	}
	return false
}

// PostListFilter narrows a post listing. Zero values mean "any".
type PostListFilter struct {
	Status         models.PostStatus
	CategoryID     *primitive.ObjectID
	TagIDs         []primitive.ObjectID // any of
	AuthorID       string
	Search         string
	Featured       *bool
	PublishedSince *time.Time
	ExcludeID      *primitive.ObjectID
	Sort           PostSort

	Page  int
	Limit int
	// NoLimit returns every match; Page and Limit are ignored.
	NoLimit bool
}

// Normalize applies the paging defaults: page 1, 20 per page, at most 100.
func (f PostListFilter) Normalize() PostListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = DefaultPageSize
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	return f
}

type CommentListFilter struct {
	PostID *primitive.ObjectID
	Status models.CommentStatus
	Page   int
	Limit  int
}

func (f CommentListFilter) Normalize() CommentListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = DefaultPageSize
	}
	return f
}

type EventListFilter struct {
	Status models.EventStatus
	// EndsAfter keeps events that have not finished by this time.
	EndsAfter *time.Time
	Page      int
	Limit     int
	NoLimit   bool
}

func (f EventListFilter) Normalize() EventListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = DefaultPageSize
	}
	return f
}

// AnalyticsField names an atomically incremented post counter.
type AnalyticsField string

const (
	FieldViews    AnalyticsField = "views"
	FieldLikes    AnalyticsField = "likes"
	FieldShares   AnalyticsField = "shares"
	FieldComments AnalyticsField = "comments"
)

type PostRepository interface {
	slug.Checker
	Insert(ctx context.Context, p *models.BlogPost) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogPost, error)
	FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	List(ctx context.Context, f PostListFilter) ([]models.BlogPost, int64, error)
	Replace(ctx context.Context, p *models.BlogPost) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementAnalytics(ctx context.Context, id primitive.ObjectID, field AnalyticsField, delta int64) (*models.Analytics, error)
	SetAIOptimization(ctx context.Context, id primitive.ObjectID, opt models.AIOptimization) error
	UnsetCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	PullTag(ctx context.Context, tagID primitive.ObjectID) (int64, error)
}

type CategoryRepository interface {
	slug.Checker
	Insert(ctx context.Context, c *models.BlogCategory) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogCategory, error)
	FindBySlug(ctx context.Context, slug string) (*models.BlogCategory, error)
	List(ctx context.Context) ([]models.BlogCategory, error)
	Replace(ctx context.Context, c *models.BlogCategory) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementPostCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

type TagRepository interface {
	slug.Checker
	Insert(ctx context.Context, t *models.BlogTag) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogTag, error)
	FindBySlug(ctx context.Context, slug string) (*models.BlogTag, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.BlogTag, error)
	List(ctx context.Context) ([]models.BlogTag, error)
	Replace(ctx context.Context, t *models.BlogTag) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementUsage(ctx context.Context, ids []primitive.ObjectID, delta int) error
}

type CommentRepository interface {
	Insert(ctx context.Context, c *models.BlogComment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogComment, error)
	List(ctx context.Context, f CommentListFilter) ([]models.BlogComment, int64, error)
	// ListApproved returns every approved comment of a post, oldest first.
	ListApproved(ctx context.Context, postID primitive.ObjectID) ([]models.BlogComment, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.CommentStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type PageRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Page, error)
	List(ctx context.Context) ([]models.Page, error)
	// Upsert creates or replaces the page identified by its slug.
	Upsert(ctx context.Context, p *models.Page) error
	Delete(ctx context.Context, slug string) error
}

type EventRepository interface {
	slug.Checker
	Insert(ctx context.Context, e *models.Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	FindBySlug(ctx context.Context, slug string) (*models.Event, error)
	List(ctx context.Context, f EventListFilter) ([]models.Event, int64, error)
	Replace(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, u *models.User) error
}

type ChatbotRepository interface {
	// Get returns the stored config, or the default one when none was saved.
	Get(ctx context.Context) (*models.ChatbotConfig, error)
	Save(ctx context.Context, cfg *models.ChatbotConfig) error
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn take part in
// the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a function to Transactor.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Store bundles every repository of one tenant database.
type Store struct {
	Posts      PostRepository
	Categories CategoryRepository
	Tags       TagRepository
	Comments   CommentRepository
	Pages      PageRepository
	Events     EventRepository
	Users      UserRepository
	Chatbot    ChatbotRepository
	Tx         Transactor
}

// NewMongoStore wires every Mongo repository onto db.
func NewMongoStore(db *mongo.Database, tx Transactor) Store {
	return Store{
		Posts:      NewMongoPostRepository(db),
		Categories: NewMongoCategoryRepository(db),
		Tags:       NewMongoTagRepository(db),
		Comments:   NewMongoCommentRepository(db),
		Pages:      NewMongoPageRepository(db),
		Events:     NewMongoEventRepository(db),
		Users:      NewMongoUserRepository(db),
		Chatbot:    NewMongoChatbotRepository(db),
		Tx:         tx,
	}
}
