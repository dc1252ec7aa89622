package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clinicshop/storefront/internal/cart"
	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/events"
	"github.com/clinicshop/storefront/internal/pricing"
	"github.com/clinicshop/storefront/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSubmitTimeout  = 15 * time.Second
	defaultPublishTimeout = 5 * time.Second
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, token, idempotencyKey string, draft domain.OrderDraft) (*domain.Order, error)
}

type Result struct {
	Order     *domain.Order
	Breakdown pricing.Breakdown
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// Service submits carts as orders. At most one submission per cart runs at a time.
type Service struct {
	orders    OrderCreator
	pricing   *pricing.Calculator
	publisher events.Publisher
	log       *zap.Logger
	timeout   time.Duration
	newKey    func() string

	mu       sync.Mutex
	sessions map[string]domain.CheckoutStatus
}

func NewService(orders OrderCreator, calc *pricing.Calculator, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		pricing:   calc,
		publisher: events.NopPublisher{},
		log:       log,
		timeout:   DefaultSubmitTimeout,
		newKey:    uuid.NewString,
		sessions:  make(map[string]domain.CheckoutStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports where the cart's current submission is; IDLE when none runs.
func (s *Service) Status(cartID string) domain.CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.sessions[cartID]; ok {
		return status
	}
	return domain.CheckoutStatusIdle
}

// Submit validates req against the cart held by store and creates the order.
// The cart is cleared only when the store API accepted the order; on any
// failure it is left as it was and a *Error describes what went wrong.
func (s *Service) Submit(ctx context.Context, store *cart.Store, token string, req Request) (*Result, error) {
	cartID := store.ID()
	log := logger.WithTrace(ctx, s.log).With(zap.String("cart_id", cartID))

	if err := s.begin(cartID); err != nil {
		return nil, err
	}
	defer s.finish(cartID)

	lines := store.Lines()
	if fields := Validate(req, lines, s.pricing); len(fields) > 0 {
		if err := s.transition(cartID, domain.CheckoutStatusInvalid); err != nil {
			return nil, err
		}
		var err error
		if _, empty := fields["cart"]; empty {
			err = ErrEmptyCart
		}
		return nil, &Error{Kind: KindValidation, Message: msgValidation, Fields: fields, Err: err}
	}

	method := req.shippingMethod()
	breakdown, err := s.pricing.Calculate(lines, method)
	if err != nil {
		if tErr := s.transition(cartID, domain.CheckoutStatusInvalid); tErr != nil {
			return nil, tErr
		}
		return nil, &Error{
			Kind:    KindValidation,
			Message: msgValidation,
			Fields:  map[string]string{"shippingMethod": "Unsupported shipping method"},
			Err:     err,
		}
	}

	if err := s.transition(cartID, domain.CheckoutStatusSubmitting); err != nil {
		return nil, err
	}

	if token == "" {
		if err := s.transition(cartID, domain.CheckoutStatusFailed); err != nil {
			return nil, err
		}
		return nil, newFailure(ErrMissingToken)
	}

	draft := domain.OrderDraft{
		Items:           domain.NewOrderDraftItems(lines),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.Billing(),
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  method,
		Notes:           req.Notes,
	}
	key := s.newKey()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.orders.CreateOrder(callCtx, token, key, draft)
	if err != nil {
		if tErr := s.transition(cartID, domain.CheckoutStatusFailed); tErr != nil {
			return nil, tErr
		}
		failure := newFailure(err)
		log.Warn("checkout failed",
			zap.String("kind", string(failure.Kind)),
			zap.String("idempotency_key", key),
			zap.Error(err))
		return nil, failure
	}

	if err := s.transition(cartID, domain.CheckoutStatusSucceeded); err != nil {
		return nil, err
	}
	store.Clear()

	log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(draft.Items)))

	s.publish(ctx, log, events.NewOrderPlaced(cartID, order, draft))

	return &Result{Order: order, Breakdown: breakdown}, nil
}

// publish is best-effort; the order already exists.
func (s *Service) publish(ctx context.Context, log *zap.Logger, ev events.OrderPlaced) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderPlaced(pubCtx, ev); err != nil {
		log.Error("failed to publish order event", zap.String("order_id", ev.OrderID), zap.Error(err))
	}
}

func (s *Service) begin(cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.sessions[cartID]; busy {
		return ErrSubmissionInProgress
	}
	s.sessions[cartID] = domain.CheckoutStatusValidating
	return nil
}

func (s *Service) finish(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status := s.sessions[cartID]; !status.IsTerminal() {
		s.log.Warn("checkout left in non-terminal status", zap.String("cart_id", cartID), zap.Stringer("status", status))
	}
	delete(s.sessions, cartID)
}

func (s *Service) transition(cartID string, to domain.CheckoutStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.sessions[cartID]
	if !domain.CanTransitionTo(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	s.sessions[cartID] = to
	return nil
}
