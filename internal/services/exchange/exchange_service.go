package exchange

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/models"
)

// ProductStore доступ к товарам, участвующим в обмене
type ProductStore interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListAvailable(ctx context.Context, excludeSellerID uuid.UUID) ([]models.Product, error)
	IncrementExchangeCount(ctx context.Context, ids ...uuid.UUID) error
}

// ExchangeStore журнал предложений обмена
type ExchangeStore interface {
	CreateExchange(ctx context.Context, e *models.Exchange) error
	HasPending(ctx context.Context, fromProductID, toProductID uuid.UUID) (bool, error)
	GetExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f models.ExchangeFilter) ([]models.Exchange, error)
	Transition(ctx context.Context, id uuid.UUID, to models.ExchangeStatus, responseMessage string, at time.Time) (*models.Exchange, error)
}

// UserDirectory краткие профили пользователей для ответа API
type UserDirectory interface {
	GetUserBrief(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ActivityLog приёмник уведомлений и истории статусов
type ActivityLog interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	SaveHistoryStatus(ctx context.Context, h *models.HistoryStatus) error
}

// Сообщения об ошибках, которые видит клиент
const (
	msgProductNotFound  = "product not found"
	msgExchangeNotFound = "exchange proposal not found"
	msgNotOwner         = "you do not own this product"
	msgSelfExchange     = "cannot exchange with yourself"
	msgNotAvailable     = "product is not available for exchange"
	msgDuplicate        = "duplicate proposal"
	msgAlreadyProcessed = "already processed"
	msgMessageRequired  = "message is required"
	msgOnlyRecipient    = "only the recipient can accept or reject this proposal"
	msgOnlyProposer     = "only the proposer can cancel this proposal"
	msgNotParticipant   = "you are not a party to this proposal"
	msgBadDecision      = "response must be accepted or rejected"
)

// ExchangeService реализует процесс обмена товарами: предложение, ответ, отмена
type ExchangeService struct {
	products  ProductStore
	exchanges ExchangeStore
	users     UserDirectory
	activity  ActivityLog
	now       func() time.Time
}

// NewExchangeService создает новый экземпляр ExchangeService
func NewExchangeService(products ProductStore, exchanges ExchangeStore, users UserDirectory, activity ActivityLog) *ExchangeService {
	return &ExchangeService{
		products:  products,
		exchanges: exchanges,
		users:     users,
		activity:  activity,
		now:       time.Now,
	}
}

// ProposeInput данные нового предложения обмена
type ProposeInput struct {
	FromProductID uuid.UUID
	ToProductID   uuid.UUID
	Message       string
}

// Propose создает предложение обменять свой товар fromProduct на чужой toProduct
func (s *ExchangeService) Propose(ctx context.Context, actor uuid.UUID, in ProposeInput) (*models.Exchange, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperr.InvalidRequest(msgMessageRequired)
	}

	fromProduct, err := s.loadProduct(ctx, in.FromProductID)
	if err != nil {
		return nil, err
	}
	toProduct, err := s.loadProduct(ctx, in.ToProductID)
	if err != nil {
		return nil, err
	}

	if fromProduct.SellerID != actor {
		return nil, apperr.Forbidden(msgNotOwner)
	}
	if fromProduct.SellerID == toProduct.SellerID {
		return nil, apperr.InvalidRequest(msgSelfExchange)
	}
	// Предлагать обмен можно только на товар с витрины
	if toProduct.Status != models.ProductApproved {
		return nil, apperr.InvalidRequest(msgNotAvailable)
	}

	pending, err := s.exchanges.HasPending(ctx, fromProduct.ID, toProduct.ID)
	if err != nil {
		return nil, apperr.Internal("failed to check existing proposals", err)
	}
	if pending {
		return nil, apperr.Conflict(msgDuplicate)
	}

	exchange := &models.Exchange{
		ID:            uuid.New(),
		FromProductID: fromProduct.ID,
		ToProductID:   toProduct.ID,
		FromUserID:    fromProduct.SellerID,
		ToUserID:      toProduct.SellerID,
		Message:       message,
		Status:        models.ExchangePending,
	}

	if err := s.exchanges.CreateExchange(ctx, exchange); err != nil {
		// Параллельное предложение успело занять пару раньше нас
		if errors.Is(err, db.ErrDuplicatePending) {
			return nil, apperr.Conflict(msgDuplicate)
		}
		return nil, apperr.Internal("failed to save proposal", err)
	}

	s.notify(ctx, &models.Notification{
		UserID:   exchange.ToUserID.String(),
		Type:     models.NotificationExchangeOffer,
		Title:    "New exchange offer",
		Message:  fmt.Sprintf("You received an offer to exchange %q for your %q", fromProduct.Title, toProduct.Title),
		ImageURL: fromProduct.MainImageURL(),
	}, exchange.ID)

	exchange.FromProduct = fromProduct
	exchange.ToProduct = toProduct
	exchange.FromUser = s.userBrief(ctx, exchange.FromUserID)
	exchange.ToUser = s.userBrief(ctx, exchange.ToUserID)

	return exchange, nil
}

// ListMine возвращает отправленные и полученные предложения пользователя, новые первыми.
// Пагинации нет: список читается целиком.
func (s *ExchangeService) ListMine(ctx context.Context, actor uuid.UUID, f models.ExchangeFilter) ([]models.Exchange, error) {
	exchanges, err := s.exchanges.ListByUser(ctx, actor, f)
	if err != nil {
		return nil, apperr.Internal("failed to load proposals", err)
	}

	r := s.newResolver()
	for i := range exchanges {
		r.resolve(ctx, &exchanges[i])
	}
	return exchanges, nil
}

// Get возвращает одно предложение, доступное только его участникам
func (s *ExchangeService) Get(ctx context.Context, actor, id uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.loadExchange(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exchange.InvolvesUser(actor) {
		return nil, apperr.Forbidden(msgNotParticipant)
	}

	s.newResolver().resolve(ctx, exchange)
	return exchange, nil
}

// Respond принимает или отклоняет предложение. Отвечать может только владелец toProduct.
func (s *ExchangeService) Respond(ctx context.Context, actor, id uuid.UUID, decision models.ExchangeStatus, responseMessage string) (*models.Exchange, error) {
	if decision != models.ExchangeAccepted && decision != models.ExchangeRejected {
		return nil, apperr.InvalidRequest(msgBadDecision)
	}

	current, err := s.loadExchange(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ToUserID != actor {
		return nil, apperr.Forbidden(msgOnlyRecipient)
	}

	updated, err := s.transition(ctx, actor, current, decision, responseMessage)
	if err != nil {
		return nil, err
	}

	r := s.newResolver()
	r.resolve(ctx, updated)

	switch decision {
	case models.ExchangeAccepted:
		// Статус уже зафиксирован; сбой счётчика только логируем
		if err := s.products.IncrementExchangeCount(ctx, updated.FromProductID, updated.ToProductID); err != nil {
			log.Printf("Ошибка увеличения счётчика обменов для предложения %s: %v", updated.ID, err)
		} else {
			for _, p := range []*models.Product{updated.FromProduct, updated.ToProduct} {
				if p != nil {
					p.ExchangeCount++
				}
			}
		}

		s.notify(ctx, &models.Notification{
			UserID:   updated.FromUserID.String(),
			Type:     models.NotificationExchangeAccepted,
			Title:    "Exchange offer accepted",
			Message:  fmt.Sprintf("Your offer for %q was accepted", productTitle(updated.ToProduct)),
			ImageURL: productImage(updated.ToProduct),
		}, updated.ID)
	case models.ExchangeRejected:
		s.notify(ctx, &models.Notification{
			UserID:   updated.FromUserID.String(),
			Type:     models.NotificationExchangeRejected,
			Title:    "Exchange offer rejected",
			Message:  fmt.Sprintf("Your offer for %q was rejected", productTitle(updated.ToProduct)),
			ImageURL: productImage(updated.ToProduct),
		}, updated.ID)
	}

	return updated, nil
}

// Cancel отзывает ожидающее предложение. Отменить может только автор предложения;
// получатель не уведомляется.
func (s *ExchangeService) Cancel(ctx context.Context, actor, id uuid.UUID, responseMessage string) (*models.Exchange, error) {
	current, err := s.loadExchange(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.FromUserID != actor {
		return nil, apperr.Forbidden(msgOnlyProposer)
	}

	updated, err := s.transition(ctx, actor, current, models.ExchangeCancelled, responseMessage)
	if err != nil {
		return nil, err
	}

	s.newResolver().resolve(ctx, updated)
	return updated, nil
}

// AvailableProducts возвращает одобренные товары других продавцов, на которые можно предложить обмен
func (s *ExchangeService) AvailableProducts(ctx context.Context, actor uuid.UUID) ([]models.Product, error) {
	products, err := s.products.ListAvailable(ctx, actor)
	if err != nil {
		return nil, apperr.Internal("failed to load products", err)
	}
	return products, nil
}

// transition применяет условный переход pending -> to и пишет историю
func (s *ExchangeService) transition(ctx context.Context, actor uuid.UUID, current *models.Exchange, to models.ExchangeStatus, responseMessage string) (*models.Exchange, error) {
	if current.Status != models.ExchangePending {
		return nil, apperr.InvalidRequest(msgAlreadyProcessed)
	}

	updated, err := s.exchanges.Transition(ctx, current.ID, to, strings.TrimSpace(responseMessage), s.now())
	if errors.Is(err, db.ErrNotPending) {
		return nil, apperr.InvalidRequest(msgAlreadyProcessed)
	}
	if err != nil {
		return nil, apperr.Internal("failed to update proposal", err)
	}

	history := &models.HistoryStatus{
		RelatedID:   updated.ID.String(),
		RelatedType: "exchange",
		OldStatus:   string(models.ExchangePending),
		NewStatus:   string(to),
		ChangedBy:   actor.String(),
		Timestamp:   s.now(),
	}
	if err := s.activity.SaveHistoryStatus(ctx, history); err != nil {
		log.Printf("Не удалось сохранить историю статусов предложения %s: %v", updated.ID, err)
	}

	return updated, nil
}

func (s *ExchangeService) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgProductNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load product", err)
	}
	return product, nil
}

func (s *ExchangeService) loadExchange(ctx context.Context, id uuid.UUID) (*models.Exchange, error) {
	exchange, err := s.exchanges.GetExchange(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound(msgExchangeNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load proposal", err)
	}
	return exchange, nil
}

// notify сохраняет уведомление; ошибка не прерывает основной сценарий
func (s *ExchangeService) notify(ctx context.Context, n *models.Notification, exchangeID uuid.UUID) {
	n.RelatedType = "exchange"
	n.RelatedID = exchangeID.String()
	n.CreatedAt = s.now()

	if err := s.activity.SaveNotification(ctx, n); err != nil {
		log.Printf("Не удалось сохранить уведомление для пользователя %s: %v", n.UserID, err)
	}
}

func (s *ExchangeService) userBrief(ctx context.Context, id uuid.UUID) *models.User {
	user, err := s.users.GetUserBrief(ctx, id)
	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", id, err)
		return nil
	}
	return user
}

func productImage(p *models.Product) string {
	if p == nil {
		return ""
	}
	return p.MainImageURL()
}

func productTitle(p *models.Product) string {
	if p == nil {
		return "your product"
	}
	return p.Title
}

// resolver подгружает товары и пользователей для ответа, запоминая уже прочитанные
type resolver struct {
	svc      *ExchangeService
	products map[uuid.UUID]*models.Product
	users    map[uuid.UUID]*models.User
}

func (s *ExchangeService) newResolver() *resolver {
	return &resolver{
		svc:      s,
		products: make(map[uuid.UUID]*models.Product),
		users:    make(map[uuid.UUID]*models.User),
	}
}

func (r *resolver) resolve(ctx context.Context, e *models.Exchange) {
	e.FromProduct = r.product(ctx, e.FromProductID)
	e.ToProduct = r.product(ctx, e.ToProductID)
	e.FromUser = r.user(ctx, e.FromUserID)
	e.ToUser = r.user(ctx, e.ToUserID)
}

func (r *resolver) product(ctx context.Context, id uuid.UUID) *models.Product {
	if p, ok := r.products[id]; ok {
		return p
	}
	p, err := r.svc.products.GetProduct(ctx, id)
	if err != nil {
		log.Printf("Ошибка получения товара %s: %v", id, err)
		p = nil
	}
	r.products[id] = p
	return p
}

func (r *resolver) user(ctx context.Context, id uuid.UUID) *models.User {
	if u, ok := r.users[id]; ok {
		return u
	}
	u := r.svc.userBrief(ctx, id)
	r.users[id] = u
	return u
}
