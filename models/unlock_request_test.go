package models

import (
	"testing"
	"time"
)

func TestUnlockRequestExpiredAt(t *testing.T) {
	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		req  UnlockRequest
		want bool
	}{
		{"approved and window closed", UnlockRequest{Decision: UnlockApproved, ExpiresAt: &before}, true},
		{"approved and window open", UnlockRequest{Decision: UnlockApproved, ExpiresAt: &after}, false},
		{"approved at the exact boundary", UnlockRequest{Decision: UnlockApproved, ExpiresAt: &now}, false},
		{"pending never expires", UnlockRequest{Decision: UnlockPending}, false},
		{"denied never expires", UnlockRequest{Decision: UnlockDenied, ExpiresAt: &before}, false},
		{"approved without expiry", UnlockRequest{Decision: UnlockApproved}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.ExpiredAt(now); got != tt.want {
				t.Errorf("ExpiredAt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnlockRequestActiveAt(t *testing.T) {
	now := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name string
		req  UnlockRequest
		want bool
	}{
		{"pending blocks new requests", UnlockRequest{Decision: UnlockPending}, true},
		{"approved with open window blocks", UnlockRequest{Decision: UnlockApproved, ExpiresAt: &after}, true},
		{"approved with closed window does not", UnlockRequest{Decision: UnlockApproved, ExpiresAt: &before}, false},
		{"denied does not", UnlockRequest{Decision: UnlockDenied}, false},
		{"approved without expiry does not", UnlockRequest{Decision: UnlockApproved}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.ActiveAt(now); got != tt.want {
				t.Errorf("ActiveAt = %v, want %v", got, tt.want)
			}
		})
	}
}
