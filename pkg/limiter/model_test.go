package limiter

import (
	"testing"
	"time"
)

func TestPolicy_Validate(t *testing.T) {
	valid := Policy{MaxRequests: 10, Window: time.Minute, KeyPrefix: "rl:test"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}

	cases := []struct {
		name string
		pol  Policy
	}{
		{"zero max requests", Policy{MaxRequests: 0, Window: time.Minute, KeyPrefix: "p"}},
		{"negative max requests", Policy{MaxRequests: -1, Window: time.Minute, KeyPrefix: "p"}},
		{"zero window", Policy{MaxRequests: 1, Window: 0, KeyPrefix: "p"}},
		{"negative window", Policy{MaxRequests: 1, Window: -time.Second, KeyPrefix: "p"}},
		{"empty prefix", Policy{MaxRequests: 1, Window: time.Minute}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.pol.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestPolicy_StorageKey(t *testing.T) {
	pol := Policy{MaxRequests: 1, Window: time.Minute, KeyPrefix: "rl:auth"}
	if got := pol.storageKey("1.2.3.4:/login"); got != "rl:auth:1.2.3.4:/login" {
		t.Errorf("unexpected storage key %q", got)
	}
}
