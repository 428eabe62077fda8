// Package memory is an in-process content store with the same semantics as the Mongo
// repositories. It backs the "memory" store driver and the service/handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/apperr"
	"sitecms/models"
	"sitecms/repositories"
)

type data struct {
	posts      map[primitive.ObjectID]models.BlogPost
	categories map[primitive.ObjectID]models.BlogCategory
	tags       map[primitive.ObjectID]models.BlogTag
	comments   map[primitive.ObjectID]models.BlogComment
	pages      map[string]models.Page
	events     map[primitive.ObjectID]models.Event
	users      map[string]models.User
	chatbot    *models.ChatbotConfig
}

func newData() data {
	return data{
		posts:      map[primitive.ObjectID]models.BlogPost{},
		categories: map[primitive.ObjectID]models.BlogCategory{},
		tags:       map[primitive.ObjectID]models.BlogTag{},
		comments:   map[primitive.ObjectID]models.BlogComment{},
		pages:      map[string]models.Page{},
		events:     map[primitive.ObjectID]models.Event{},
		users:      map[string]models.User{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d data) clone() data {
	c := data{
		posts:      cloneMap(d.posts),
		categories: cloneMap(d.categories),
		tags:       cloneMap(d.tags),
		comments:   cloneMap(d.comments),
		pages:      cloneMap(d.pages),
		events:     cloneMap(d.events),
		users:      cloneMap(d.users),
	}
	if d.chatbot != nil {
		cb := *d.chatbot
		c.chatbot = &cb
	}
	return c
}

// DB holds every collection. Values are stored by copy, so callers never share memory with it.
type DB struct {
	mu sync.RWMutex
	// txMu serializes transactions against other writes.
	txMu sync.Mutex
	d    data
	now  func() time.Time
	// failWith, when set, is returned by every call; tests use it to simulate outages.
	failMu   sync.RWMutex
	failWith error
}

func New() *DB {
	return &DB{d: newData(), now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the timestamp source.
func (db *DB) SetClock(now func() time.Time) { db.now = now }

// Fail makes every subsequent call return err until Fail(nil).
func (db *DB) Fail(err error) {
	db.failMu.Lock()
	db.failWith = err
	db.failMu.Unlock()
}

func (db *DB) failure(op string) error {
	db.failMu.RLock()
	defer db.failMu.RUnlock()
	if db.failWith != nil {
		return apperr.Upstream(op, db.failWith)
	}
	return nil
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (db *DB) read(op string, fn func(d *data) error) error {
	if err := db.failure(op); err != nil {
		return err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(&db.d)
}

func (db *DB) write(ctx context.Context, op string, fn func(d *data) error) error {
	if err := db.failure(op); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Upstream(op, err)
	}
	if !inTx(ctx) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.d)
}

// WithTransaction runs fn with exclusive write access and restores the previous state when fn fails.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.d.clone()
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.d = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// Store exposes db through the repository interfaces.
func (db *DB) Store() repositories.Store {
	return repositories.Store{
		Posts:      &Posts{db},
		Categories: &Categories{db},
		Tags:       &Tags{db},
		Comments:   &Comments{db},
		Pages:      &Pages{db},
		Events:     &Events{db},
		Users:      &Users{db},
		Chatbot:    &Chatbot{db},
		Tx:         db,
	}
}

// NewStore is a fresh memory-backed store.
func NewStore() repositories.Store { return New().Store() }

func notFound(entity string) error { return apperr.NotFoundf("%s not found", entity) }

func conflict(entity string) error { return apperr.Conflict(entity + " already exists") }

func excluded(id primitive.ObjectID, excludeID string) bool {
	return excludeID != "" && id.Hex() == excludeID
}

func page[T any](items []T, pg, limit int) []T {
	start := (pg - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Posts implements repositories.PostRepository.
type Posts struct{ db *DB }

func (r *Posts) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var found bool
	err := r.db.read("slug lookup", func(d *data) error {
		for id, p := range d.posts {
			if p.Slug == slug && !excluded(id, excludeID) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *Posts) Insert(ctx context.Context, p *models.BlogPost) error {
	return r.db.write(ctx, "insert post", func(d *data) error {
		for _, other := range d.posts {
			if other.Slug == p.Slug {
				return conflict("post")
			}
		}
		now := r.db.now()
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		d.posts[p.ID] = *p
		return nil
	})
}

func (r *Posts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogPost, error) {
	var out *models.BlogPost
	err := r.db.read("find post", func(d *data) error {
		p, ok := d.posts[id]
		if !ok {
			return notFound("post")
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *Posts) FindBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var out *models.BlogPost
	err := r.db.read("find post", func(d *data) error {
		for _, p := range d.posts {
			if p.Slug == slug {
				out = &p
				return nil
			}
		}
		return notFound("post")
	})
	return out, err
}

func matchPost(p *models.BlogPost, f repositories.PostListFilter) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if len(f.TagIDs) > 0 {
		tagged := false
		for _, id := range f.TagIDs {
			if p.HasTag(id) {
				tagged = true
				break
			}
		}
		if !tagged {
			return false
		}
	}
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.PublishedSince != nil && (p.PublishedAt == nil || p.PublishedAt.Before(*f.PublishedSince)) {
		return false
	}
	if f.ExcludeID != nil && p.ID == *f.ExcludeID {
		return false
	}
	if f.Search != "" {
		hit := containsFold(p.Title, f.Search) || containsFold(p.Excerpt, f.Search)
		for _, k := range p.SEO.Keywords {
			hit = hit || containsFold(k, f.Search)
		}
		if !hit {
			return false
		}
	}
	return true
}

// publishedUnix sorts posts without a publish date as the oldest.
func publishedUnix(p *models.BlogPost) int64 {
	if p.PublishedAt == nil {
		return -1 << 62
	}
	return p.PublishedAt.UnixNano()
}

func sortPosts(posts []models.BlogPost, s repositories.PostSort) {
	idDesc := func(i, j int) bool { return posts[i].ID.Hex() > posts[j].ID.Hex() }
	idAsc := func(i, j int) bool { return posts[i].ID.Hex() < posts[j].ID.Hex() }
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := &posts[i], &posts[j]
		switch s {
		case repositories.SortOldest:
			if publishedUnix(a) != publishedUnix(b) {
				return publishedUnix(a) < publishedUnix(b)
			}
			return idAsc(i, j)
		case repositories.SortPopular:
			if a.Analytics.Views != b.Analytics.Views {
				return a.Analytics.Views > b.Analytics.Views
			}
			return idDesc(i, j)
		case repositories.SortTitle:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
			return idAsc(i, j)
		default:
			if publishedUnix(a) != publishedUnix(b) {
				return publishedUnix(a) > publishedUnix(b)
			}
			return idDesc(i, j)
		}
	})
}

func (r *Posts) List(ctx context.Context, f repositories.PostListFilter) ([]models.BlogPost, int64, error) {
	f = f.Normalize()
	var out []models.BlogPost
	var total int64
	err := r.db.read("list posts", func(d *data) error {
		matched := []models.BlogPost{}
		for _, p := range d.posts {
			if matchPost(&p, f) {
				matched = append(matched, p)
			}
		}
		sortPosts(matched, f.Sort)
		total = int64(len(matched))
		if f.NoLimit {
			out = matched
		} else {
			out = page(matched, f.Page, f.Limit)
		}
		return nil
	})
	return out, total, err
}

func (r *Posts) Replace(ctx context.Context, p *models.BlogPost) error {
	return r.db.write(ctx, "update post", func(d *data) error {
		stored, ok := d.posts[p.ID]
		if !ok {
			return notFound("post")
		}
		for id, other := range d.posts {
			if id != p.ID && other.Slug == p.Slug {
				return conflict("post")
			}
		}
		p.Analytics = stored.Analytics
		p.CreatedAt = stored.CreatedAt
		p.UpdatedAt = r.db.now()
		d.posts[p.ID] = *p
		return nil
	})
}

func (r *Posts) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.write(ctx, "delete post", func(d *data) error {
		if _, ok := d.posts[id]; !ok {
			return notFound("post")
		}
		delete(d.posts, id)
		return nil
	})
}

func (r *Posts) IncrementAnalytics(ctx context.Context, id primitive.ObjectID, field repositories.AnalyticsField, delta int64) (*models.Analytics, error) {
	var out models.Analytics
	err := r.db.write(ctx, "increment analytics."+string(field), func(d *data) error {
		p, ok := d.posts[id]
		if !ok {
			return notFound("post")
		}
		switch field {
		case repositories.FieldViews:
			p.Analytics.Views += delta
		case repositories.FieldLikes:
			p.Analytics.Likes += delta
		case repositories.FieldShares:
			p.Analytics.Shares += delta
		case repositories.FieldComments:
			p.Analytics.Comments += delta
		default:
			return apperr.InvalidInputf("unknown counter %q", field)
		}
		d.posts[id] = p
		out = p.Analytics
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Posts) SetAIOptimization(ctx context.Context, id primitive.ObjectID, opt models.AIOptimization) error {
	return r.db.write(ctx, "update ai optimization", func(d *data) error {
		p, ok := d.posts[id]
		if !ok {
			return notFound("post")
		}
		p.AIOptimization = opt
		d.posts[id] = p
		return nil
	})
}

func (r *Posts) UnsetCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	var n int64
	err := r.db.write(ctx, "unset category", func(d *data) error {
		for id, p := range d.posts {
			if p.CategoryID != nil && *p.CategoryID == categoryID {
				p.CategoryID = nil
				p.UpdatedAt = r.db.now()
				d.posts[id] = p
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *Posts) PullTag(ctx context.Context, tagID primitive.ObjectID) (int64, error) {
	var n int64
	err := r.db.write(ctx, "pull tag", func(d *data) error {
		for id, p := range d.posts {
			if !p.HasTag(tagID) {
				continue
			}
			kept := make([]primitive.ObjectID, 0, len(p.TagIDs))
			for _, t := range p.TagIDs {
				if t != tagID {
					kept = append(kept, t)
				}
			}
			p.TagIDs = kept
			p.UpdatedAt = r.db.now()
			d.posts[id] = p
			n++
		}
		return nil
	})
	return n, err
}
