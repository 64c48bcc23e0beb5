package billing

import (
	"context"
	"errors"
	"log"

	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// Service is the webhook reconciliation engine. It maps the unordered,
// at-least-once delivered Lemon Squeezy event stream onto local subscription
// and payment state using idempotent upserts keyed by external identifiers.
type Service struct {
	repo Repository
}

// NewService creates a reconciliation service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordWebhookEvent appends the delivery to the audit log. The log never
// gates processing; it exists for operator visibility.
func (s *Service) RecordWebhookEvent(ctx context.Context, eventType string, payload []byte, signatureValid bool) (*models.BillingWebhookEvent, error) {
	_ = ctx
	event := &models.BillingWebhookEvent{
		EventType:      eventType,
		PayloadJSON:    string(payload),
		SignatureValid: signatureValid,
	}
	if err := s.repo.CreateWebhookEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

// MarkWebhookProcessed marks an audit row as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// HandleEvent applies one parsed webhook event to local state. Every branch
// runs inside a single transaction; subscription rows are locked before being
// mutated so concurrent deliveries for the same external id cannot clobber
// each other. A non-nil error is a hard failure (storage); all reference
// misses come back as soft results.
func (s *Service) HandleEvent(ctx context.Context, evt *WebhookEvent) (Result, error) {
	_ = ctx
	var result Result
	err := s.repo.Transaction(func(tx Repository) error {
		var txErr error
		switch evt.Type {
		case EventOrderCreated:
			// Orders are acknowledged only; subscription state is created by
			// the subscription_created event that follows.
			log.Printf("[billing] order created: order_id=%s email=%s", evt.OrderID(), evt.Attrs.UserEmail)
			result = okResult()
		case EventSubscriptionCreated:
			result, txErr = s.applySubscriptionCreated(tx, evt)
		case EventSubscriptionPaymentSuccess:
			result, txErr = s.applyPaymentSuccess(tx, evt)
		case EventSubscriptionUpdated:
			result, txErr = s.applySubscriptionUpdated(tx, evt)
		case EventSubscriptionCancelled:
			result, txErr = s.applyStatusTransition(tx, evt, models.SubscriptionStatusCancelled)
		case EventSubscriptionExpired:
			result, txErr = s.applyStatusTransition(tx, evt, models.SubscriptionStatusExpired)
		case EventSubscriptionPaymentFailed:
			result, txErr = s.applyStatusTransition(tx, evt, models.SubscriptionStatusPaymentFailed)
		default:
			log.Printf("[billing] webhook event ignored: %s", evt.Type)
			result = ignoredResult()
		}
		return txErr
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

// resolveUser maps the event's identity hints to a local user: internal id,
// then external customer id, then email. It never creates a user; absence is
// reported as nil and the caller decides whether that is fatal for the event.
func (s *Service) resolveUser(tx Repository, evt *WebhookEvent) (*models.User, error) {
	if id := evt.UserID(); id != 0 {
		user, err := tx.FindUserByID(id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if customerID := evt.CustomerID(); customerID != "" {
		user, err := tx.FindUserByLemonCustomerID(customerID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if email := evt.Attrs.UserEmail; email != "" {
		user, err := tx.FindUserByEmail(email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *Service) applySubscriptionCreated(tx Repository, evt *WebhookEvent) (Result, error) {
	variantID := evt.VariantID()
	plan, err := tx.FindPlanByVariantID(variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[billing] plan not found for variant_id=%s, event soft-skipped", variantID)
			return softError("Plan not found"), nil
		}
		return Result{}, err
	}

	user, err := s.resolveUser(tx, evt)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		log.Printf("[billing] user not found: user_id=%s customer_id=%s email=%s",
			evt.UserIDHint, evt.CustomerID(), evt.Attrs.UserEmail)
		return softError("User not found"), nil
	}

	// First contact with the processor's customer mapping: remember it so
	// later events resolve without the checkout custom field.
	if user.LemonCustomerID == "" && evt.CustomerID() != "" {
		user.LemonCustomerID = evt.CustomerID()
		if err := tx.SaveUser(user); err != nil {
			return Result{}, err
		}
	}

	sub, err := tx.FindSubscriptionByUserIDForUpdate(user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, err
		}
		sub = &models.UserSubscription{UserID: user.ID}
	}

	// Idempotent upsert: replays and re-subscribes overwrite the single
	// current row in place instead of appending.
	sub.SubscriptionPlanID = plan.ID
	sub.LemonSubscriptionID = evt.SubscriptionID()
	sub.Status = evt.Attrs.Status
	sub.StartDate = evt.CreatedAt()
	sub.CurrentPeriodEnd = evt.RenewsAt()
	sub.TrialEnd = evt.TrialEndsAt()
	if err := tx.SaveSubscription(sub); err != nil {
		return Result{}, err
	}

	log.Printf("[billing] subscription upserted: user_id=%d plan=%s lemon_subscription_id=%s status=%s",
		user.ID, plan.Code, sub.LemonSubscriptionID, sub.Status)
	return okResult(), nil
}

func (s *Service) applyPaymentSuccess(tx Repository, evt *WebhookEvent) (Result, error) {
	var sub *models.UserSubscription
	if subID := evt.SubscriptionID(); subID != "" {
		found, err := tx.FindSubscriptionByLemonIDForUpdate(subID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, err
		}
		sub = found
	}

	user, err := s.resolveUser(tx, evt)
	if err != nil {
		return Result{}, err
	}
	if user == nil && sub != nil {
		owner, err := tx.FindUserByID(sub.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return Result{}, err
		}
		user = owner
	}

	currency := evt.Attrs.Currency
	if currency == "" {
		currency = "usd"
	}

	// The ledger is append-only: the payment row is created even when the
	// subscription or user cannot be resolved. Orphans keep nil references
	// and are backfilled by a later administrative reconciliation.
	payment := &models.Payment{
		LemonOrderID:  evt.OrderID(),
		AmountInCents: evt.Attrs.Total,
		Currency:      currency,
		Status:        models.PaymentStatusSucceeded,
		PaidAt:        evt.CreatedAt(),
		ReceiptURL:    evt.Attrs.URLs.InvoiceURL,
	}
	if user != nil {
		payment.UserID = &user.ID
	}
	if sub != nil {
		payment.UserSubscriptionID = &sub.ID
	}
	if err := tx.CreatePayment(payment); err != nil {
		return Result{}, err
	}

	log.Printf("[billing] payment recorded: order_id=%s subscription_id=%s reconciled=%t",
		payment.LemonOrderID, evt.SubscriptionID(), payment.IsReconciled())
	return okResult(), nil
}

func (s *Service) applySubscriptionUpdated(tx Repository, evt *WebhookEvent) (Result, error) {
	subID := evt.SubscriptionID()
	sub, err := s.findSubscriptionForEvent(tx, evt, subID)
	if err != nil || sub == nil {
		return okResult(), err
	}

	if variantID := evt.VariantID(); variantID != "" {
		plan, err := tx.FindPlanByVariantID(variantID)
		switch {
		case err == nil:
			sub.SubscriptionPlanID = plan.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Unknown variants never auto-create plans; keep the current one.
			log.Printf("[billing] unknown variant_id=%s on subscription update %s, plan unchanged", variantID, subID)
		default:
			return Result{}, err
		}
	}
	if evt.Attrs.Status != "" {
		sub.Status = evt.Attrs.Status
	}
	// Never null out a known value with an absent field.
	if renewsAt := evt.RenewsAt(); renewsAt != nil {
		sub.CurrentPeriodEnd = renewsAt
	}
	if evt.Attrs.Cancelled != nil {
		sub.CancelAtPeriodEnd = *evt.Attrs.Cancelled
	}
	if err := tx.SaveSubscription(sub); err != nil {
		return Result{}, err
	}

	log.Printf("[billing] subscription updated: lemon_subscription_id=%s status=%s", subID, sub.Status)
	return okResult(), nil
}

func (s *Service) applyStatusTransition(tx Repository, evt *WebhookEvent, status string) (Result, error) {
	subID := evt.SubscriptionID()
	sub, err := s.findSubscriptionForEvent(tx, evt, subID)
	if err != nil || sub == nil {
		return okResult(), err
	}

	sub.Status = status
	if status == models.SubscriptionStatusCancelled && sub.CanceledAt == nil {
		sub.CanceledAt = evt.CreatedAt()
	}
	if err := tx.SaveSubscription(sub); err != nil {
		return Result{}, err
	}

	log.Printf("[billing] subscription %s: lemon_subscription_id=%s", status, subID)
	return okResult(), nil
}

// findSubscriptionForEvent locks and returns the subscription referenced by an
// update-type event, or nil when it cannot be resolved. The miss is logged and
// acknowledged: retrying a permanently unknown id would never succeed.
func (s *Service) findSubscriptionForEvent(tx Repository, evt *WebhookEvent, subID string) (*models.UserSubscription, error) {
	if subID == "" {
		log.Printf("[billing] %s event without subscription id, soft-skipped", evt.Type)
		return nil, nil
	}
	sub, err := tx.FindSubscriptionByLemonIDForUpdate(subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[billing] subscription not found: lemon_subscription_id=%s event=%s, soft-skipped", subID, evt.Type)
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}
