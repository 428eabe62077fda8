package memory

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/models"
	"sitecms/repositories"
)

// Categories implements repositories.CategoryRepository.
type Categories struct{ db *DB }

func (r *Categories) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var found bool
	err := r.db.read("slug lookup", func(d *data) error {
		for id, c := range d.categories {
			if c.Slug == slug && !excluded(id, excludeID) {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *Categories) Insert(ctx context.Context, c *models.BlogCategory) error {
	return r.db.write(ctx, "insert category", func(d *data) error {
		for _, other := range d.categories {
			if other.Slug == c.Slug {
				return conflict("category")
			}
		}
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		now := r.db.now()
		c.CreatedAt, c.UpdatedAt = now, now
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *Categories) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogCategory, error) {
	var out *models.BlogCategory
	err := r.db.read("find category", func(d *data) error {
		c, ok := d.categories[id]
		if !ok {
			return notFound("category")
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *Categories) FindBySlug(ctx context.Context, slug string) (*models.BlogCategory, error) {
	var out *models.BlogCategory
	err := r.db.read("find category", func(d *data) error {
		for _, c := range d.categories {
			if c.Slug == slug {
				out = &c
				return nil
			}
		}
		return notFound("category")
	})
	return out, err
}

func (r *Categories) List(ctx context.Context) ([]models.BlogCategory, error) {
	out := []models.BlogCategory{}
	err := r.db.read("list categories", func(d *data) error {
		for _, c := range d.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *Categories) Replace(ctx context.Context, c *models.BlogCategory) error {
	return r.db.write(ctx, "update category", func(d *data) error {
		stored, ok := d.categories[c.ID]
		if !ok {
			return notFound("category")
		}
		for id, other := range d.categories {
			if id != c.ID && other.Slug == c.Slug {
				return conflict("category")
			}
		}
		c.PostCount = stored.PostCount
		c.CreatedAt = stored.CreatedAt
		c.UpdatedAt = r.db.now()
		d.categories[c.ID] = *c
		return nil
	})
}

func (r *Categories) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.write(ctx, "delete category", func(d *data) error {
		if _, ok := d.categories[id]; !ok {
			return notFound("category")
		}
		delete(d.categories, id)
		return nil
	})
}

func (r *Categories) IncrementPostCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	return r.db.write(ctx, "increment post_count", func(d *data) error {
		c, ok := d.categories[id]
		if !ok {
			return notFound("category")
		}
		c.PostCount += int64(delta)
		d.categories[id] = c
		return nil
	})
}

// Tags implements repositories.TagRepository.
type Tags struct{ db *DB }

func (r *Tags) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var found bool
	err := r.db.read("slug lookup", func(d *data) error {
		for id, t := range d.tags {
			if t.Slug == slug && !excluded(id, excludeID) {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *Tags) Insert(ctx context.Context, t *models.BlogTag) error {
	return r.db.write(ctx, "insert tag", func(d *data) error {
		for _, other := range d.tags {
			if other.Slug == t.Slug {
				return conflict("tag")
			}
		}
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		now := r.db.now()
		t.CreatedAt, t.UpdatedAt = now, now
		d.tags[t.ID] = *t
		return nil
	})
}

func (r *Tags) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogTag, error) {
	var out *models.BlogTag
	err := r.db.read("find tag", func(d *data) error {
		t, ok := d.tags[id]
		if !ok {
			return notFound("tag")
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *Tags) FindBySlug(ctx context.Context, slug string) (*models.BlogTag, error) {
	var out *models.BlogTag
	err := r.db.read("find tag", func(d *data) error {
		for _, t := range d.tags {
			if t.Slug == slug {
				out = &t
				return nil
			}
		}
		return notFound("tag")
	})
	return out, err
}

func (r *Tags) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.BlogTag, error) {
	out := []models.BlogTag{}
	err := r.db.read("find tags", func(d *data) error {
		for _, id := range ids {
			if t, ok := d.tags[id]; ok {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *Tags) List(ctx context.Context) ([]models.BlogTag, error) {
	out := []models.BlogTag{}
	err := r.db.read("list tags", func(d *data) error {
		for _, t := range d.tags {
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (r *Tags) Replace(ctx context.Context, t *models.BlogTag) error {
	return r.db.write(ctx, "update tag", func(d *data) error {
		stored, ok := d.tags[t.ID]
		if !ok {
			return notFound("tag")
		}
		for id, other := range d.tags {
			if id != t.ID && other.Slug == t.Slug {
				return conflict("tag")
			}
		}
		t.UsageCount = stored.UsageCount
		t.CreatedAt = stored.CreatedAt
		t.UpdatedAt = r.db.now()
		d.tags[t.ID] = *t
		return nil
	})
}

func (r *Tags) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.write(ctx, "delete tag", func(d *data) error {
		if _, ok := d.tags[id]; !ok {
			return notFound("tag")
		}
		delete(d.tags, id)
		return nil
	})
}

func (r *Tags) IncrementUsage(ctx context.Context, ids []primitive.ObjectID, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.write(ctx, "increment usage_count", func(d *data) error {
		for _, id := range ids {
			if t, ok := d.tags[id]; ok {
				t.UsageCount += int64(delta)
				d.tags[id] = t
			}
		}
		return nil
	})
}

// Comments implements repositories.CommentRepository.
type Comments struct{ db *DB }

func (r *Comments) Insert(ctx context.Context, c *models.BlogComment) error {
	return r.db.write(ctx, "insert comment", func(d *data) error {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		now := r.db.now()
		c.CreatedAt, c.UpdatedAt = now, now
		d.comments[c.ID] = *c
		return nil
	})
}

func (r *Comments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlogComment, error) {
	var out *models.BlogComment
	err := r.db.read("find comment", func(d *data) error {
		c, ok := d.comments[id]
		if !ok {
			return notFound("comment")
		}
		out = &c
		return nil
	})
	return out, err
}

func sortComments(cs []models.BlogComment, newestFirst bool) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt) == newestFirst
		}
		return (a.ID.Hex() > b.ID.Hex()) == newestFirst
	})
}

func (r *Comments) List(ctx context.Context, f repositories.CommentListFilter) ([]models.BlogComment, int64, error) {
	f = f.Normalize()
	matched := []models.BlogComment{}
	err := r.db.read("list comments", func(d *data) error {
		for _, c := range d.comments {
			if f.PostID != nil && c.PostID != *f.PostID {
				continue
			}
			if f.Status != "" && c.Status != f.Status {
				continue
			}
			matched = append(matched, c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortComments(matched, true)
	return page(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (r *Comments) ListApproved(ctx context.Context, postID primitive.ObjectID) ([]models.BlogComment, error) {
	out := []models.BlogComment{}
	err := r.db.read("list comments", func(d *data) error {
		for _, c := range d.comments {
			if c.PostID == postID && c.Status == models.CommentStatusApproved {
				out = append(out, c)
			}
		}
		return nil
	})
	sortComments(out, false)
	return out, err
}

func (r *Comments) SetStatus(ctx context.Context, id primitive.ObjectID, status models.CommentStatus) error {
	return r.db.write(ctx, "update comment", func(d *data) error {
		c, ok := d.comments[id]
		if !ok {
			return notFound("comment")
		}
		c.Status = status
		c.UpdatedAt = r.db.now()
		d.comments[id] = c
		return nil
	})
}

func (r *Comments) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.write(ctx, "delete comment", func(d *data) error {
		if _, ok := d.comments[id]; !ok {
			return notFound("comment")
		}
		delete(d.comments, id)
		return nil
	})
}

func (r *Comments) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	var n int64
	err := r.db.write(ctx, "delete comments", func(d *data) error {
		for id, c := range d.comments {
			if c.PostID == postID {
				delete(d.comments, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// Pages implements repositories.PageRepository.
type Pages struct{ db *DB }

func (r *Pages) FindBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var out *models.Page
	err := r.db.read("find page", func(d *data) error {
		p, ok := d.pages[slug]
		if !ok {
			return notFound("page")
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *Pages) List(ctx context.Context) ([]models.Page, error) {
	out := []models.Page{}
	err := r.db.read("list pages", func(d *data) error {
		for _, p := range d.pages {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, err
}

func (r *Pages) Upsert(ctx context.Context, p *models.Page) error {
	return r.db.write(ctx, "upsert page", func(d *data) error {
		now := r.db.now()
		if stored, ok := d.pages[p.Slug]; ok {
			p.ID = stored.ID
			p.CreatedAt = stored.CreatedAt
		} else {
			if p.ID.IsZero() {
				p.ID = primitive.NewObjectID()
			}
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		d.pages[p.Slug] = *p
		return nil
	})
}

func (r *Pages) Delete(ctx context.Context, slug string) error {
	return r.db.write(ctx, "delete page", func(d *data) error {
		if _, ok := d.pages[slug]; !ok {
			return notFound("page")
		}
		delete(d.pages, slug)
		return nil
	})
}

// Events implements repositories.EventRepository.
type Events struct{ db *DB }

func (r *Events) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var found bool
	err := r.db.read("slug lookup", func(d *data) error {
		for id, e := range d.events {
			if e.Slug == slug && !excluded(id, excludeID) {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *Events) Insert(ctx context.Context, e *models.Event) error {
	return r.db.write(ctx, "insert event", func(d *data) error {
		for _, other := range d.events {
			if other.Slug == e.Slug {
				return conflict("event")
			}
		}
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		now := r.db.now()
		e.CreatedAt, e.UpdatedAt = now, now
		d.events[e.ID] = *e
		return nil
	})
}

func (r *Events) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var out *models.Event
	err := r.db.read("find event", func(d *data) error {
		e, ok := d.events[id]
		if !ok {
			return notFound("event")
		}
		out = &e
		return nil
	})
	return out, err
}

func (r *Events) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var out *models.Event
	err := r.db.read("find event", func(d *data) error {
		for _, e := range d.events {
			if e.Slug == slug {
				out = &e
				return nil
			}
		}
		return notFound("event")
	})
	return out, err
}

func (r *Events) List(ctx context.Context, f repositories.EventListFilter) ([]models.Event, int64, error) {
	f = f.Normalize()
	matched := []models.Event{}
	err := r.db.read("list events", func(d *data) error {
		for _, e := range d.events {
			if f.Status != "" && e.Status != f.Status {
				continue
			}
			if f.EndsAfter != nil {
				end := e.StartDate
				if e.EndDate != nil {
					end = *e.EndDate
				}
				if end.Before(*f.EndsAfter) {
					continue
				}
			}
			matched = append(matched, e)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].StartDate.Equal(matched[j].StartDate) {
			return matched[i].StartDate.Before(matched[j].StartDate)
		}
		return matched[i].ID.Hex() < matched[j].ID.Hex()
	})
	total := int64(len(matched))
	if f.NoLimit {
		return matched, total, nil
	}
	return page(matched, f.Page, f.Limit), total, nil
}

func (r *Events) Replace(ctx context.Context, e *models.Event) error {
	return r.db.write(ctx, "update event", func(d *data) error {
		stored, ok := d.events[e.ID]
		if !ok {
			return notFound("event")
		}
		for id, other := range d.events {
			if id != e.ID && other.Slug == e.Slug {
				return conflict("event")
			}
		}
		e.CreatedAt = stored.CreatedAt
		e.UpdatedAt = r.db.now()
		d.events[e.ID] = *e
		return nil
	})
}

func (r *Events) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.db.write(ctx, "delete event", func(d *data) error {
		if _, ok := d.events[id]; !ok {
			return notFound("event")
		}
		delete(d.events, id)
		return nil
	})
}

// Users implements repositories.UserRepository.
type Users struct{ db *DB }

func (r *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.db.read("find user", func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return notFound("user")
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *Users) Upsert(ctx context.Context, u *models.User) error {
	return r.db.write(ctx, "upsert user", func(d *data) error {
		now := r.db.now()
		if stored, ok := d.users[u.ID]; ok {
			u.CreatedAt = stored.CreatedAt
		} else {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
		d.users[u.ID] = *u
		return nil
	})
}

// Chatbot implements repositories.ChatbotRepository.
type Chatbot struct{ db *DB }

func (r *Chatbot) Get(ctx context.Context) (*models.ChatbotConfig, error) {
	var out models.ChatbotConfig
	err := r.db.read("find chatbot config", func(d *data) error {
		if d.chatbot == nil {
			out = models.DefaultChatbotConfig()
			return nil
		}
		out = *d.chatbot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Chatbot) Save(ctx context.Context, cfg *models.ChatbotConfig) error {
	return r.db.write(ctx, "save chatbot config", func(d *data) error {
		cfg.ID = models.ChatbotConfigID
		cfg.UpdatedAt = r.db.now()
		cp := *cfg
		d.chatbot = &cp
		return nil
	})
}
