package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"petshop/internal/domain"
	"petshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the database shared by the mock repositories
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	products map[uuid.UUID]*domain.Product
	cart     map[uuid.UUID]*domain.CartLine
	orders   map[uuid.UUID]*domain.Order
	ratings  map[uuid.UUID]*domain.Rating
	comments map[uuid.UUID]*domain.Comment
	votes    map[uuid.UUID]map[string]domain.VoteValue
	seq      int

	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]*domain.Product),
		cart:     make(map[uuid.UUID]*domain.CartLine),
		orders:   make(map[uuid.UUID]*domain.Order),
		ratings:  make(map[uuid.UUID]*domain.Rating),
		comments: make(map[uuid.UUID]*domain.Comment),
		votes:    make(map[uuid.UUID]map[string]domain.VoteValue),
	}
}

var errInjected = errors.New("injected storage failure")

func (m *memStore) addProduct(name, price string, stock int, category string) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	p := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.products[p.ID] = p
	cp := *p
	return &cp
}

func (m *memStore) product(id uuid.UUID) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.products[id]
	return &cp
}

func (m *memStore) cartLines(sessionID string) []*domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cartLinesLocked(sessionID)
}

func (m *memStore) cartLinesLocked(sessionID string) []*domain.CartLine {
	lines := []*domain.CartLine{}
	for _, l := range m.cart {
		if l.SessionID == sessionID {
			cp := *l
			if p, ok := m.products[l.ProductID]; ok {
				pc := *p
				cp.Product = &pc
			}
			lines = append(lines, &cp)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CreatedAt.Before(lines[j].CreatedAt) })
	return lines
}

// mockProductRepository

type mockProductRepository struct{ s *memStore }

func (r *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *product
	r.s.products[product.ID] = &cp
	return nil
}

func (r *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	cp := *product
	cp.Stock = existing.Stock
	r.s.products[product.ID] = &cp
	return nil
}

func (r *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	for _, o := range r.s.orders {
		for _, item := range o.Items {
			if item.ProductID == id {
				return repository.ErrProductInUse
			}
		}
	}
	delete(r.s.products, id)
	return nil
}

func (r *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *mockProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (r *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	all, _ := r.All(ctx)
	matched := []*domain.Product{}
	for _, p := range all {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, p)
	}

	start := (filter.Page - 1) * filter.PerPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r *mockProductRepository) All(ctx context.Context) ([]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "all" {
		return nil, errInjected
	}
	products := []*domain.Product{}
	for _, p := range r.s.products {
		cp := *p
		products = append(products, &cp)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *mockProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return nil, repository.ErrStockConflict
	}
	p.Stock += delta
	cp := *p
	return &cp, nil
}

func (r *mockProductRepository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

type mockCategoryRepository struct{ s *memStore }

func (r *mockCategoryRepository) List(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	categories := []string{}
	for _, p := range r.s.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// mockCartRepository

type mockCartRepository struct{ s *memStore }

func (r *mockCartRepository) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[productID]; !ok {
		return nil, repository.ErrProductNotFound
	}
	for _, l := range r.s.cart {
		if l.SessionID == sessionID && l.ProductID == productID {
			l.Quantity += quantity
			cp := *l
			return &cp, nil
		}
	}
	r.s.seq++
	line := &domain.CartLine{
		ID:        uuid.New(),
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Unix(int64(r.s.seq), 0),
	}
	r.s.cart[line.ID] = line
	cp := *line
	return &cp, nil
}

func (r *mockCartRepository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) (*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.cart[id]
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	l.Quantity = quantity
	cp := *l
	return &cp, nil
}

func (r *mockCartRepository) Remove(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cart[id]; !ok {
		return repository.ErrCartItemNotFound
	}
	delete(r.s.cart, id)
	return nil
}

func (r *mockCartRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	return r.s.cartLines(sessionID), nil
}

func (r *mockCartRepository) ClearSession(ctx context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, l := range r.s.cart {
		if l.SessionID == sessionID {
			delete(r.s.cart, id)
		}
	}
	return nil
}

// mockCheckoutStore serializes transactions and restores a snapshot when fn fails

type mockCheckoutStore struct{ s *memStore }

type memSnapshot struct {
	products map[uuid.UUID]domain.Product
	cart     map[uuid.UUID]domain.CartLine
	orders   map[uuid.UUID]*domain.Order
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		products: make(map[uuid.UUID]domain.Product, len(m.products)),
		cart:     make(map[uuid.UUID]domain.CartLine, len(m.cart)),
		orders:   make(map[uuid.UUID]*domain.Order, len(m.orders)),
	}
	for id, p := range m.products {
		snap.products[id] = *p
	}
	for id, l := range m.cart {
		snap.cart[id] = *l
	}
	for id, o := range m.orders {
		snap.orders[id] = o
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = make(map[uuid.UUID]*domain.Product, len(snap.products))
	for id, p := range snap.products {
		cp := p
		m.products[id] = &cp
	}
	m.cart = make(map[uuid.UUID]*domain.CartLine, len(snap.cart))
	for id, l := range snap.cart {
		cp := l
		m.cart[id] = &cp
	}
	m.orders = snap.orders
}

func (c *mockCheckoutStore) RunInTx(ctx context.Context, fn func(tx repository.CheckoutTx) error) error {
	c.s.txMu.Lock()
	defer c.s.txMu.Unlock()

	snap := c.s.snapshot()
	if err := fn(&mockCheckoutTx{s: c.s}); err != nil {
		c.s.restore(snap)
		return err
	}
	return nil
}

type mockCheckoutTx struct{ s *memStore }

func (t *mockCheckoutTx) CartLines(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	if t.s.failOn == "cart" {
		return nil, errInjected
	}
	return t.s.cartLines(sessionID), nil
}

func (t *mockCheckoutTx) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	ordered := append([]uuid.UUID(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return bytes.Compare(ordered[i][:], ordered[j][:]) < 0 })

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	locked := map[uuid.UUID]*domain.Product{}
	for _, id := range ordered {
		p, ok := t.s.products[id]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		cp := *p
		locked[id] = &cp
	}
	return locked, nil
}

func (t *mockCheckoutTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cp := *order
	cp.Items = nil
	t.s.orders[order.ID] = &cp
	return nil
}

func (t *mockCheckoutTx) AddOrderItem(ctx context.Context, item *domain.OrderItem) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.failOn == "item" {
		return errInjected
	}
	o, ok := t.s.orders[item.OrderID]
	if !ok {
		return errors.New("order does not exist")
	}
	cp := *item
	updated := *o
	updated.Items = append(append([]*domain.OrderItem(nil), o.Items...), &cp)
	t.s.orders[item.OrderID] = &updated
	return nil
}

func (t *mockCheckoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.products[productID]
	if !ok || p.Stock < quantity {
		return repository.ErrStockConflict
	}
	p.Stock -= quantity
	return nil
}

func (t *mockCheckoutTx) ClearCart(ctx context.Context, sessionID string) error {
	return (&mockCartRepository{s: t.s}).ClearSession(ctx, sessionID)
}

// mockOrderRepository

type mockOrderRepository struct{ s *memStore }

func (r *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *mockOrderRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	orders := []*domain.Order{}
	for _, o := range r.s.orders {
		if o.SessionID == sessionID {
			cp := *o
			orders = append(orders, &cp)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// mockRatingRepository

type mockRatingRepository struct{ s *memStore }

func (r *mockRatingRepository) Upsert(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.ratings {
		if existing.ProductID == rating.ProductID && existing.UserName == rating.UserName {
			existing.Rating = rating.Rating
			existing.UpdatedAt = rating.UpdatedAt
			cp := *existing
			return &cp, nil
		}
	}
	cp := *rating
	r.s.ratings[rating.ID] = &cp
	out := cp
	return &out, nil
}

func (r *mockRatingRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "ratings" {
		return nil, errInjected
	}
	ratings := []*domain.Rating{}
	for _, rating := range r.s.ratings {
		if rating.ProductID == productID {
			cp := *rating
			ratings = append(ratings, &cp)
		}
	}
	return ratings, nil
}

// mockCommentRepository

type mockCommentRepository struct{ s *memStore }

func (r *mockCommentRepository) withTally(c *domain.Comment) *domain.Comment {
	cp := *c
	if c.SentimentScore != nil {
		score := *c.SentimentScore
		cp.SentimentScore = &score
	}
	cp.Votes = domain.VoteTally{}
	for _, v := range r.s.votes[c.ID] {
		if v == domain.VoteUp {
			cp.Votes.Up++
		} else {
			cp.Votes.Down++
		}
	}
	return &cp
}

func (r *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[comment.ProductID]; !ok {
		return repository.ErrProductNotFound
	}
	r.s.comments[comment.ID] = r.withTally(comment)
	return nil
}

func (r *mockCommentRepository) Update(ctx context.Context, id uuid.UUID, text string, score float64, updatedAt time.Time) (*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	c.Comment = text
	c.SentimentScore = &score
	c.UpdatedAt = updatedAt
	return r.withTally(c), nil
}

func (r *mockCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(r.s.comments, id)
	delete(r.s.votes, id)
	return nil
}

func (r *mockCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	return r.withTally(c), nil
}

func (r *mockCommentRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comments := []*domain.Comment{}
	for _, c := range r.s.comments {
		if c.ProductID == productID {
			comments = append(comments, r.withTally(c))
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.After(comments[j].CreatedAt) })
	return comments, nil
}

// mockVoteRepository

type mockVoteRepository struct{ s *memStore }

func (r *mockVoteRepository) Upsert(ctx context.Context, vote *domain.CommentVote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[vote.CommentID]; !ok {
		return repository.ErrCommentNotFound
	}
	if r.s.votes[vote.CommentID] == nil {
		r.s.votes[vote.CommentID] = map[string]domain.VoteValue{}
	}
	r.s.votes[vote.CommentID][vote.UserName] = vote.Value
	return nil
}

func (r *mockVoteRepository) Delete(ctx context.Context, commentID uuid.UUID, userName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.votes[commentID], userName)
	return nil
}

func (r *mockVoteRepository) Tally(ctx context.Context, commentID uuid.UUID) (domain.VoteTally, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var tally domain.VoteTally
	for _, v := range r.s.votes[commentID] {
		if v == domain.VoteUp {
			tally.Up++
		} else {
			tally.Down++
		}
	}
	return tally, nil
}
