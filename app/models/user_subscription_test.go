package models

import (
	"testing"
	"time"
)

func TestIsEntitling(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	cases := []struct {
		name string
		sub  UserSubscription
		want bool
	}{
		{"active", UserSubscription{Status: SubscriptionStatusActive}, true},
		{"on trial", UserSubscription{Status: SubscriptionStatusOnTrial}, true},
		{"cancelled inside period", UserSubscription{Status: SubscriptionStatusCancelled, CurrentPeriodEnd: &future}, true},
		{"cancelled after period", UserSubscription{Status: SubscriptionStatusCancelled, CurrentPeriodEnd: &past}, false},
		{"cancelled without period end", UserSubscription{Status: SubscriptionStatusCancelled}, false},
		{"expired", UserSubscription{Status: SubscriptionStatusExpired}, false},
		{"payment failed", UserSubscription{Status: SubscriptionStatusPaymentFailed}, false},
	}
	for _, tc := range cases {
		if got := tc.sub.IsEntitling(); got != tc.want {
			t.Errorf("%s: IsEntitling() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
