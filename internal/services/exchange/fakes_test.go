package exchange

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/models"
)

var errMockStorage = errors.New("mock storage error")

// memProducts хранит товары в памяти
type memProducts struct {
	mu           sync.Mutex
	items        map[uuid.UUID]*models.Product
	IncrementErr error
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{items: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) ListAvailable(ctx context.Context, excludeSellerID uuid.UUID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.items {
		if p.Status == models.ProductApproved && p.SellerID != excludeSellerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) IncrementExchangeCount(ctx context.Context, ids ...uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IncrementErr != nil {
		return m.IncrementErr
	}
	for _, id := range ids {
		if _, ok := m.items[id]; !ok {
			return db.ErrNotFound
		}
	}
	for _, id := range ids {
		m.items[id].ExchangeCount++
	}
	return nil
}

func (m *memProducts) count(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].ExchangeCount
}

// memExchanges повторяет семантику ExchangeStore, включая условный переход
type memExchanges struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*models.Exchange
	clock   time.Time
	ListErr error
}

func newMemExchanges() *memExchanges {
	return &memExchanges{
		items: make(map[uuid.UUID]*models.Exchange),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memExchanges) CreateExchange(ctx context.Context, e *models.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.FromProductID == e.FromProductID && existing.ToProductID == e.ToProductID &&
			existing.Status == models.ExchangePending {
			return db.ErrDuplicatePending
		}
	}
	m.clock = m.clock.Add(time.Minute)
	e.CreatedAt = m.clock
	e.UpdatedAt = m.clock
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *memExchanges) HasPending(ctx context.Context, fromProductID, toProductID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.FromProductID == fromProductID && e.ToProductID == toProductID && e.Status == models.ExchangePending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memExchanges) GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memExchanges) ListByUser(ctx context.Context, userID uuid.UUID, f models.ExchangeFilter) ([]models.Exchange, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Exchange{}
	for _, e := range m.items {
		var match bool
		switch f.Direction {
		case "incoming":
			match = e.ToUserID == userID
		case "outgoing":
			match = e.FromUserID == userID
		default:
			match = e.InvolvesUser(userID)
		}
		if match && (f.Status == "" || f.Status == e.Status) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memExchanges) Transition(ctx context.Context, id uuid.UUID, to models.ExchangeStatus, responseMessage string, at time.Time) (*models.Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok || e.Status != models.ExchangePending {
		return nil, db.ErrNotPending
	}
	e.Status = to
	e.ResponseMessage = responseMessage
	e.RespondedAt = &at
	e.UpdatedAt = at
	cp := *e
	return &cp, nil
}

// forceStatus имитирует конкурента, успевшего ответить между чтением и записью
func (m *memExchanges) forceStatus(id uuid.UUID, status models.ExchangeStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].Status = status
}

type memUsers map[uuid.UUID]*models.User

func (m memUsers) GetUserBrief(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

// memActivity запоминает уведомления и историю
type memActivity struct {
	mu            sync.Mutex
	notifications []models.Notification
	history       []models.HistoryStatus
	NotifyErr     error
}

func (m *memActivity) SaveNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NotifyErr != nil {
		return m.NotifyErr
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *memActivity) SaveHistoryStatus(ctx context.Context, h *models.HistoryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *h)
	return nil
}

func (m *memActivity) notificationsFor(userID uuid.UUID) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID.String() {
			out = append(out, n)
		}
	}
	return out
}

// fixture два продавца, у каждого по одобренному товару, у первого ещё один
type fixture struct {
	svc       *ExchangeService
	products  *memProducts
	exchanges *memExchanges
	activity  *memActivity

	u1, u2, u3          uuid.UUID
	productA, productA2 *models.Product
	productB, productC  *models.Product
}

func newFixture() *fixture {
	f := &fixture{u1: uuid.New(), u2: uuid.New(), u3: uuid.New()}
	f.productA = &models.Product{ID: uuid.New(), SellerID: f.u1, Title: "Old bike", Status: models.ProductApproved,
		Images: []models.ProductImage{
			{URL: "https://cdn.example/bike-side.jpg", Position: 0},
			{URL: "https://cdn.example/bike-main.jpg", IsMain: true, Position: 1},
		}}
	f.productA2 = &models.Product{ID: uuid.New(), SellerID: f.u1, Title: "Guitar", Status: models.ProductApproved}
	f.productB = &models.Product{ID: uuid.New(), SellerID: f.u2, Title: "Camera", Status: models.ProductApproved}
	f.productC = &models.Product{ID: uuid.New(), SellerID: f.u3, Title: "Lamp", Status: models.ProductPending}

	f.products = newMemProducts(f.productA, f.productA2, f.productB, f.productC)
	f.exchanges = newMemExchanges()
	f.activity = &memActivity{}
	users := memUsers{
		f.u1: {ID: f.u1, Username: "u1"},
		f.u2: {ID: f.u2, Username: "u2"},
		f.u3: {ID: f.u3, Username: "u3"},
	}

	f.svc = NewExchangeService(f.products, f.exchanges, users, f.activity)
	f.svc.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) propose(from, to *models.Product, actor uuid.UUID) (*models.Exchange, error) {
	return f.svc.Propose(context.Background(), actor, ProposeInput{
		FromProductID: from.ID,
		ToProductID:   to.ID,
		Message:       "swap?",
	})
}
