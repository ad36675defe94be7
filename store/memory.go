package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryStore returns process-local stores for development and tests.
// Documents are deep-copied on every read and write like a real database.
func NewMemoryStore() *Store {
	return &Store{
		Users:     &memUsers{docs: map[primitive.ObjectID]*models.User{}},
		Products:  &memProducts{docs: map[primitive.ObjectID]*models.Product{}},
		Carts:     &memCarts{docs: map[primitive.ObjectID]*models.Cart{}},
		Orders:    &memOrders{docs: map[primitive.ObjectID]*models.Order{}},
		Wishlists: &memWishlists{docs: map[primitive.ObjectID]*models.Wishlist{}},
		Settings:  &memSettings{},
	}
}

// clone copies v through its bson encoding. Model types always encode.
func clone[T any](v *T) *T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := bson.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

type memUsers struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]*models.User
}

func (s *memUsers) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range s.docs {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (s *memUsers) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	if s.emailTaken(u.Email, primitive.NilObjectID) {
		return ErrDuplicate
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.docs[u.ID] = clone(u)
	return nil
}

func (s *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.docs {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return s.find(func(u *models.User) bool { return u.Email == email })
}

func (s *memUsers) FindByVerificationToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return hash != "" && u.EmailVerificationToken == hash &&
			u.EmailVerificationExpire != nil && u.EmailVerificationExpire.After(now)
	})
}

func (s *memUsers) FindByResetToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return hash != "" && u.ResetPasswordToken == hash &&
			u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now)
	})
}

func (s *memUsers) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[u.ID]; !ok {
		return ErrNotFound
	}
	u.Email = strings.ToLower(u.Email)
	if s.emailTaken(u.Email, u.ID) {
		return ErrDuplicate
	}
	u.UpdatedAt = time.Now()
	s.docs[u.ID] = clone(u)
	return nil
}

func (s *memUsers) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.docs))
	for _, u := range s.docs {
		out = append(out, *clone(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

// newer orders documents newest first, falling back to the id for equal timestamps.
func newer(ta time.Time, a primitive.ObjectID, tb time.Time, b primitive.ObjectID) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.Hex() > b.Hex()
}

type memProducts struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]*models.Product
}

func (s *memProducts) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := s.docs[p.ID]; ok {
		return ErrDuplicate
	}
	now := time.Now()
	prepareProduct(p, now)
	p.CreatedAt = now
	s.docs[p.ID] = clone(p)
	return nil
}

func (s *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (s *memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[primitive.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.docs[id]; ok {
			found[id] = clone(p)
		}
	}
	return found, nil
}

func (s *memProducts) collect(match func(*models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range s.docs {
		if match(p) {
			out = append(out, *clone(p))
		}
	}
	return out
}

func (s *memProducts) List(_ context.Context, q ProductQuery) ([]models.Product, int64, error) {
	q.Normalize()
	s.mu.RLock()
	matches := s.collect(func(p *models.Product) bool { return matchProduct(q, p) })
	s.mu.RUnlock()

	sortProducts(matches, q.Sort)
	total := int64(len(matches))

	start := int(min(max(q.Skip(), 0), total))
	end := min(start+q.Limit, len(matches))
	page := make([]models.Product, 0, end-start)
	for _, p := range matches[start:end] {
		page = append(page, listView(p))
	}
	return page, total, nil
}

func (s *memProducts) ListInactive(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	out := s.collect(func(p *models.Product) bool { return !p.IsActive })
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].UpdatedAt, out[i].ID, out[j].UpdatedAt, out[j].ID)
	})
	for i := range out {
		out[i] = listView(out[i])
	}
	return out, nil
}

func (s *memProducts) ListByCategory(_ context.Context, category string) ([]models.Product, error) {
	s.mu.RLock()
	out := s.collect(func(p *models.Product) bool { return p.IsActive && p.Category == category })
	s.mu.RUnlock()
	sortProducts(out, SortNewest)
	for i := range out {
		out[i] = listView(out[i])
	}
	return out, nil
}

func (s *memProducts) Search(_ context.Context, keyword string) ([]models.Product, error) {
	terms := searchTerms(keyword)
	s.mu.RLock()
	out := s.collect(func(p *models.Product) bool { return p.IsActive && textScore(terms, p) > 0 })
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := textScore(terms, &out[i]), textScore(terms, &out[j])
		if si != sj {
			return si > sj
		}
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	for i := range out {
		out[i] = listView(out[i])
	}
	return out, nil
}

func (s *memProducts) Update(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[p.ID]; !ok {
		return ErrNotFound
	}
	prepareProduct(p, time.Now())
	s.docs[p.ID] = clone(p)
	return nil
}

func (s *memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// matchProduct applies the same predicates as buildProductFilter.
func matchProduct(q ProductQuery, p *models.Product) bool {
	if !p.IsActive {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Subcategory != "" && p.Subcategory != q.Subcategory {
		return false
	}
	if len(q.Brands) > 0 && !containsString(q.Brands, p.Brand) {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.MinRating != nil && p.Ratings < *q.MinRating {
		return false
	}
	if q.Size != "" && !hasSize(p, q.Size) {
		return false
	}
	if q.Color != "" && !hasColor(p, q.Color) {
		return false
	}
	if q.Keyword != "" && textScore(searchTerms(q.Keyword), p) == 0 {
		return false
	}
	return true
}

func sortProducts(products []models.Product, key string) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch key {
		case SortPriceLow:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortPriceHigh:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case SortRating:
			if a.Ratings != b.Ratings {
				return a.Ratings > b.Ratings
			}
		}
		return newer(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func hasSize(p *models.Product, size string) bool {
	for _, s := range p.Sizes {
		if s.Size == size {
			return true
		}
	}
	return false
}

func hasColor(p *models.Product, color string) bool {
	for _, c := range p.Colors {
		if c.Name == color {
			return true
		}
	}
	return false
}

func searchTerms(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// textScore counts keyword terms found among the words of the indexed fields.
func textScore(terms []string, p *models.Product) int {
	words := map[string]bool{}
	for _, field := range []string{p.Name, p.Description, p.Brand} {
		for _, w := range searchTerms(field) {
			words[w] = true
		}
	}
	score := 0
	for _, t := range terms {
		if words[t] {
			score++
		}
	}
	return score
}

type memCarts struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Cart // keyed by user
}

func (s *memCarts) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.docs[userID]; ok {
		return clone(c), nil
	}
	c := models.NewCart(userID)
	c.ID = primitive.NewObjectID()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.docs[userID] = clone(c)
	return c, nil
}

func (s *memCarts) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *memCarts) Save(_ context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[c.User]; !ok || existing.ID != c.ID {
		return ErrNotFound
	}
	c.Recalculate()
	c.UpdatedAt = time.Now()
	s.docs[c.User] = clone(c)
	return nil
}

func (s *memCarts) ClearItems(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.docs[userID]; ok {
		c.Clear()
		c.UpdatedAt = time.Now()
	}
	return nil
}

type memOrders struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]*models.Order
}

func (s *memOrders) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, ok := s.docs[o.ID]; ok {
		return ErrDuplicate
	}
	o.SyncTotal()
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	s.docs[o.ID] = clone(o)
	return nil
}

func (s *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(o), nil
}

func (s *memOrders) list(match func(*models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Order{}
	for _, o := range s.docs {
		if o.OrderStatus != models.StatusCancelled && match(o) {
			out = append(out, *clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out
}

func (s *memOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.User == userID }), nil
}

func (s *memOrders) ListAll(_ context.Context) ([]models.Order, error) {
	return s.list(func(*models.Order) bool { return true }), nil
}

func (s *memOrders) Update(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[o.ID]; !ok {
		return ErrNotFound
	}
	o.SyncTotal()
	o.UpdatedAt = time.Now()
	s.docs[o.ID] = clone(o)
	return nil
}

func (s *memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

type memWishlists struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Wishlist // keyed by user
}

func (s *memWishlists) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.docs[userID]; ok {
		return clone(w), nil
	}
	w := models.NewWishlist(userID)
	w.ID = primitive.NewObjectID()
	now := time.Now()
	w.CreatedAt, w.UpdatedAt = now, now
	s.docs[userID] = clone(w)
	return w, nil
}

func (s *memWishlists) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.docs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(w), nil
}

func (s *memWishlists) Save(_ context.Context, w *models.Wishlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.docs[w.User]; !ok || existing.ID != w.ID {
		return ErrNotFound
	}
	if w.Products == nil {
		w.Products = []primitive.ObjectID{}
	}
	w.UpdatedAt = time.Now()
	s.docs[w.User] = clone(w)
	return nil
}

type memSettings struct {
	mu  sync.Mutex
	doc *models.Settings
}

func (s *memSettings) Get(_ context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		defaults := models.DefaultSettings()
		defaults.ID = primitive.NewObjectID()
		now := time.Now()
		defaults.CreatedAt, defaults.UpdatedAt = now, now
		s.doc = &defaults
	}
	return clone(s.doc), nil
}

func (s *memSettings) Update(_ context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotFound
	}
	settings.ID = s.doc.ID
	settings.Key = models.SettingsKey
	settings.UpdatedAt = time.Now()
	s.doc = clone(settings)
	return nil
}
