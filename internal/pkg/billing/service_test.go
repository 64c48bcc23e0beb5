package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository so engine semantics can be exercised
// without a database. Transaction runs the callback against the same store;
// the locking contract is covered by the GORM repository itself.
type fakeRepo struct {
	plans    []*models.SubscriptionPlan
	users    []*models.User
	subs     []*models.UserSubscription
	payments []*models.Payment
	events   []*models.BillingWebhookEvent
	nextID   uint
}

func newFakeRepo() *fakeRepo { return &fakeRepo{nextID: 1} }

func (r *fakeRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeRepo) Transaction(fn func(Repository) error) error { return fn(r) }

func (r *fakeRepo) FindPlanByVariantID(variantID string) (*models.SubscriptionPlan, error) {
	for _, p := range r.plans {
		if p.LemonVariantID == variantID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindUserByID(id uint) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindUserByLemonCustomerID(customerID string) (*models.User, error) {
	for _, u := range r.users {
		if u.LemonCustomerID == customerID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) SaveUser(user *models.User) error {
	if user.ID == 0 {
		user.ID = r.id()
		r.users = append(r.users, user)
	}
	return nil
}

func (r *fakeRepo) FindSubscriptionByUserIDForUpdate(userID uint) (*models.UserSubscription, error) {
	for _, s := range r.subs {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindSubscriptionByLemonIDForUpdate(lemonID string) (*models.UserSubscription, error) {
	for _, s := range r.subs {
		if s.LemonSubscriptionID == lemonID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) SaveSubscription(sub *models.UserSubscription) error {
	if sub.ID == 0 {
		sub.ID = r.id()
		r.subs = append(r.subs, sub)
	}
	return nil
}

func (r *fakeRepo) CreatePayment(payment *models.Payment) error {
	payment.ID = r.id()
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakeRepo) CreateWebhookEvent(event *models.BillingWebhookEvent) error {
	event.ID = r.id()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepo) addUser(id uint, email string) *models.User {
	u := &models.User{ID: id, Email: email}
	r.users = append(r.users, u)
	return u
}

func (r *fakeRepo) addPlan(id uint, code, variantID string) *models.SubscriptionPlan {
	p := &models.SubscriptionPlan{ID: id, Code: code, LemonVariantID: variantID, IsActive: true}
	r.plans = append(r.plans, p)
	return p
}

func mustParse(t *testing.T, raw string) *WebhookEvent {
	t.Helper()
	evt, err := ParseWebhookEvent([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return evt
}

func subscriptionCreatedJSON(userID, variantID, subID int) string {
	return fmt.Sprintf(`{
		"meta": {"event_name": "subscription_created", "custom_data": {"user_id": "%d"}},
		"data": {"id": "%d", "attributes": {
			"customer_id": 9001,
			"variant_id": %d,
			"status": "active",
			"created_at": "2024-01-01T00:00:00Z",
			"renews_at": "2024-02-01T00:00:00Z",
			"first_subscription_item": {"subscription_id": %d}
		}}
	}`, userID, subID, variantID, subID)
}

func TestHandleEvent_SubscriptionCreated(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, "u1@example.com")
	repo.addPlan(10, "pro", "12345")
	svc := NewService(repo)

	evt := mustParse(t, subscriptionCreatedJSON(1, 12345, 991))
	res, err := svc.HandleEvent(context.Background(), evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOK {
		t.Fatalf("expected ok result, got %+v", res)
	}

	if len(repo.subs) != 1 {
		t.Fatalf("expected one subscription row, got %d", len(repo.subs))
	}
	sub := repo.subs[0]
	if sub.UserID != 1 || sub.SubscriptionPlanID != 10 {
		t.Fatalf("unexpected subscription ownership: %+v", sub)
	}
	if sub.LemonSubscriptionID != "991" || sub.Status != "active" {
		t.Fatalf("unexpected subscription fields: %+v", sub)
	}
	if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.Format("2006-01-02") != "2024-02-01" {
		t.Fatalf("unexpected current period end: %v", sub.CurrentPeriodEnd)
	}
}

func TestHandleEvent_SubscriptionCreated_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, "u1@example.com")
	repo.addPlan(10, "pro", "12345")
	svc := NewService(repo)

	evt := mustParse(t, subscriptionCreatedJSON(1, 12345, 991))
	for i := 0; i < 2; i++ {
		if _, err := svc.HandleEvent(context.Background(), evt); err != nil {
			t.Fatalf("unexpected error on delivery %d: %v", i+1, err)
		}
	}

	if len(repo.subs) != 1 {
		t.Fatalf("replay must converge to one row, got %d", len(repo.subs))
	}
	sub := repo.subs[0]
	if sub.SubscriptionPlanID != 10 || sub.LemonSubscriptionID != "991" || sub.Status != "active" {
		t.Fatalf("replay changed final state: %+v", sub)
	}
}

func TestHandleEvent_SubscriptionCreated_UpsertNotDuplicate(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, "u1@example.com")
	repo.addPlan(10, "pro", "12345")
	repo.addPlan(11, "enterprise", "67890")
	svc := NewService(repo)

	if _, err := svc.HandleEvent(context.Background(), mustParse(t, subscriptionCreatedJSON(1, 12345, 991))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.HandleEvent(context.Background(), mustParse(t, subscriptionCreatedJSON(1, 67890, 992))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.subs) != 1 {
		t.Fatalf("expected single current row per user, got %d", len(repo.subs))
	}
	if repo.subs[0].SubscriptionPlanID != 11 {
		t.Fatalf("expected second plan to win, got plan %d", repo.subs[0].SubscriptionPlanID)
	}
	if repo.subs[0].LemonSubscriptionID != "992" {
		t.Fatalf("expected external id from second event, got %q", repo.subs[0].LemonSubscriptionID)
	}
}

func TestHandleEvent_SubscriptionCreated_SoftErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, "u1@example.com")
	svc := NewService(repo)

	// Unknown variant: acknowledged, never auto-creates a plan.
	res, err := svc.HandleEvent(context.Background(), mustParse(t, subscriptionCreatedJSON(1, 99999, 991)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSoftError || res.Detail != "Plan not found" {
		t.Fatalf("expected plan-not-found soft error, got %+v", res)
	}
	if len(repo.plans) != 0 || len(repo.subs) != 0 {
		t.Fatalf("soft error must not mutate the store")
	}

	// Unknown user: same treatment.
	repo.addPlan(10, "pro", "12345")
	res, err = svc.HandleEvent(context.Background(), mustParse(t, subscriptionCreatedJSON(777, 12345, 991)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusSoftError || res.Detail != "User not found" {
		t.Fatalf("expected user-not-found soft error, got %+v", res)
	}
	if len(repo.subs) != 0 {
		t.Fatalf("soft error must not create a subscription")
	}
}

func TestHandleEvent_SubscriptionCreated_BackfillsCustomerID(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser(1, "u1@example.com")
	repo.addPlan(10, "pro", "12345")
	svc := NewService(repo)

	if _, err := svc.HandleEvent(context.Background(), mustParse(t, subscriptionCreatedJSON(1, 12345, 991))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.LemonCustomerID != "9001" {
		t.Fatalf("expected customer id backfill on first contact, got %q", user.LemonCustomerID)
	}
}

func TestHandleEvent_UserResolutionFallbacks(t *testing.T) {
	repo := newFakeRepo()
	byCustomer := repo.addUser(2, "other@example.com")
	byCustomer.LemonCustomerID = "9001"
	repo.addPlan(10, "pro", "12345")
	svc := NewService(repo)

	// No usable user_id hint: falls back to the customer id.
	raw := `{
		"meta": {"event_name": "subscription_created"},
		"data": {"id": "991", "attributes": {
			"customer_id": 9001,
			"user_email": "unknown@example.com",
			"variant_id": 12345,
			"status": "active",
			"first_subscription_item": {"subscription_id": 991}
		}}
	}`
	if _, err := svc.HandleEvent(context.Background(), mustParse(t, raw)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.subs) != 1 || repo.subs[0].UserID != 2 {
		t.Fatalf("expected resolution via customer id, got %+v", repo.subs)
	}

	// Email is the last fallback.
	repo2 := newFakeRepo()
	repo2.addUser(3, "mail@example.com")
	repo2.addPlan(10, "pro", "12345")
	svc2 := NewService(repo2)
	raw = `{
		"meta": {"event_name": "subscription_created"},
		"data": {"id": "991", "attributes": {
			"user_email": "mail@example.com",
			"variant_id": 12345,
			"status": "active",
			"first_subscription_item": {"subscription_id": 991}
		}}
	}`
	if _, err := svc2.HandleEvent(context.Background(), mustParse(t, raw)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo2.subs) != 1 || repo2.subs[0].UserID != 3 {
		t.Fatalf("expected resolution via email, got %+v", repo2.subs)
	}
}

func paymentSuccessJSON(orderID, subID int) string {
	return fmt.Sprintf(`{
		"meta": {"event_name": "subscription_payment_success"},
		"data": {"id": "%d", "attributes": {
			"order_id": %d,
			"subscription_id": %d,
			"total": 1900,
			"currency": "usd",
			"created_at": "2024-01-15T00:00:00Z",
			"urls": {"invoice_url": "https://app.lemonsqueezy.com/my-orders/x"}
		}}
	}`, orderID, orderID, subID)
}

func TestHandleEvent_PaymentSuccess_AppendOnlyLedger(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	// Even with an unresolvable subscription, N deliveries produce N rows.
	for i := 0; i < 3; i++ {
		res, err := svc.HandleEvent(context.Background(), mustParse(t, paymentSuccessJSON(100+i, 991)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Status != StatusOK {
			t.Fatalf("orphan payments must still be acknowledged ok, got %+v", res)
		}
	}

	if len(repo.payments) != 3 {
		t.Fatalf("expected 3 payment rows, got %d", len(repo.payments))
	}
	for _, p := range repo.payments {
		if p.UserID != nil || p.UserSubscriptionID != nil {
			t.Fatalf("orphan payment must keep nil references: %+v", p)
		}
		if p.Status != models.PaymentStatusSucceeded || p.AmountInCents != 1900 {
			t.Fatalf("unexpected payment fields: %+v", p)
		}
	}
	if repo.payments[0].LemonOrderID != "100" {
		t.Fatalf("unexpected order id: %q", repo.payments[0].LemonOrderID)
	}
}

func TestHandleEvent_PaymentSuccess_InfersUserFromSubscription(t *testing.T) {
	repo := newFakeRepo()
	repo.addUser(1, "u1@example.com")
	repo.subs = append(repo.subs, &models.UserSubscription{ID: 5, UserID: 1, LemonSubscriptionID: "991"})
	svc := NewService(repo)

	if _, err := svc.HandleEvent(context.Background(), mustParse(t, paymentSuccessJSON(200, 991))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.payments) != 1 {
		t.Fatalf("expected one payment, got %d", len(repo.payments))
	}
	p := repo.payments[0]
	if p.UserID == nil || *p.UserID != 1 {
		t.Fatalf("expected user inferred from subscription owner: %+v", p)
	}
	if p.UserSubscriptionID == nil || *p.UserSubscriptionID != 5 {
		t.Fatalf("expected subscription reference: %+v", p)
	}
}

func TestHandleEvent_SubscriptionUpdated_SoftSkipUnknown(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	raw := `{
		"meta": {"event_name": "subscription_updated"},
		"data": {"id": "404", "attributes": {"status": "active"}}
	}`
	res, err := svc.HandleEvent(context.Background(), mustParse(t, raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusOK {
		t.Fatalf("unknown subscription must be acknowledged ok, got %+v", res)
	}
	if len(repo.subs) != 0 || len(repo.payments) != 0 {
		t.Fatalf("soft skip must leave the store unchanged")
	}
}

func TestHandleEvent_SubscriptionUpdated_PartialFieldPreservation(t *testing.T) {
	repo := newFakeRepo()
	repo.addPlan(10, "pro", "12345")
	periodEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.subs = append(repo.subs, &models.UserSubscription{
		ID: 5, UserID: 1, SubscriptionPlanID: 10,
		LemonSubscriptionID: "991", Status: "active", CurrentPeriodEnd: &periodEnd,
	})
	svc := NewService(repo)

	// No variant_id, no renews_at: plan and period end stay; status applies.
	raw := `{
		"meta": {"event_name": "subscription_updated"},
		"data": {"id": "991", "attributes": {"status": "paused"}}
	}`
	if _, err := svc.HandleEvent(context.Background(), mustParse(t, raw)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := repo.subs[0]
	if sub.Status != "paused" {
		t.Fatalf("expected status update, got %q", sub.Status)
	}
	if sub.SubscriptionPlanID != 10 {
		t.Fatalf("absent variant must not change plan, got %d", sub.SubscriptionPlanID)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("absent renews_at must not null out period end: %v", sub.CurrentPeriodEnd)
	}
}

func TestHandleEvent_SubscriptionUpdated_UnknownVariantKeepsPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.addPlan(10, "pro", "12345")
	repo.subs = append(repo.subs, &models.UserSubscription{
		ID: 5, UserID: 1, SubscriptionPlanID: 10, LemonSubscriptionID: "991", Status: "active",
	})
	svc := NewService(repo)

	raw := `{
		"meta": {"event_name": "subscription_updated"},
		"data": {"id": "991", "attributes": {"variant_id": 88888, "status": "active", "cancelled": true}}
	}`
	if _, err := svc.HandleEvent(context.Background(), mustParse(t, raw)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.subs[0].SubscriptionPlanID != 10 {
		t.Fatalf("unknown variant must not change plan, got %d", repo.subs[0].SubscriptionPlanID)
	}
	if !repo.subs[0].CancelAtPeriodEnd {
		t.Fatalf("expected cancelled flag to apply")
	}
}

func TestHandleEvent_StatusTransitions(t *testing.T) {
	tests := []struct {
		event string
		want  string
	}{
		{event: "subscription_cancelled", want: models.SubscriptionStatusCancelled},
		{event: "subscription_expired", want: models.SubscriptionStatusExpired},
		{event: "subscription_payment_failed", want: models.SubscriptionStatusPaymentFailed},
	}

	for _, tt := range tests {
		repo := newFakeRepo()
		repo.subs = append(repo.subs, &models.UserSubscription{
			ID: 5, UserID: 1, SubscriptionPlanID: 10, LemonSubscriptionID: "991", Status: "active",
		})
		svc := NewService(repo)

		raw := fmt.Sprintf(`{
			"meta": {"event_name": "%s"},
			"data": {"id": "991", "attributes": {"created_at": "2024-03-01T00:00:00Z"}}
		}`, tt.event)
		res, err := svc.HandleEvent(context.Background(), mustParse(t, raw))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.event, err)
		}
		if res.Status != StatusOK {
			t.Fatalf("%s: expected ok, got %+v", tt.event, res)
		}
		if repo.subs[0].Status != tt.want {
			t.Fatalf("%s: status = %q, want %q", tt.event, repo.subs[0].Status, tt.want)
		}
		if tt.want == models.SubscriptionStatusCancelled && repo.subs[0].CanceledAt == nil {
			t.Fatalf("cancelled transition must record canceled_at")
		}
	}
}

func TestHandleEvent_OrderCreatedAndIgnored(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	res, err := svc.HandleEvent(context.Background(), mustParse(t, `{
		"meta": {"event_name": "order_created"},
		"data": {"id": "1", "attributes": {"order_id": 55}}
	}`))
	if err != nil || res.Status != StatusOK {
		t.Fatalf("order_created must be acknowledged without mutation: %+v %v", res, err)
	}

	res, err = svc.HandleEvent(context.Background(), mustParse(t, `{
		"meta": {"event_name": "license_key_created"},
		"data": {"id": "1", "attributes": {}}
	}`))
	if err != nil || res.Status != StatusIgnored {
		t.Fatalf("unrecognized events must be marked ignored: %+v %v", res, err)
	}
	if len(repo.subs) != 0 && len(repo.payments) != 0 {
		t.Fatalf("acknowledge-only events must not mutate the store")
	}
}
