package cache_test

import (
	"testing"
	"time"

	"github.com/artpar/relay/domain/cache"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestSignature_DeterministicForEqualInputs(t *testing.T) {
	a, err := cache.Signature("Billing.GetInvoice", map[string]any{"ID": "1", "Expand": true})
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	b, err := cache.Signature("Billing.GetInvoice", map[string]any{"Expand": true, "ID": "1"})
	if err != nil {
		t.Fatalf("Signature() error = %v", err)
	}
	if a != b {
		t.Errorf("signatures differ for equal inputs: %s vs %s", a, b)
	}
}

func TestSignature_VariesByContractAndFields(t *testing.T) {
	params := map[string]any{"ID": "1"}
	a, _ := cache.Signature("Billing.GetInvoice", params)
	b, _ := cache.Signature("Billing.DeleteInvoice", params)
	if a == b {
		t.Error("different contracts produced the same signature")
	}

	c, _ := cache.Signature("Billing.GetInvoice", map[string]any{"ID": "2"})
	if a == c {
		t.Error("different field values produced the same signature")
	}
}

func TestSignature_UnencodableParams(t *testing.T) {
	if _, err := cache.Signature("X", func() {}); err == nil {
		t.Error("Signature() = nil error for unencodable params")
	}
}

func TestEntryExpired(t *testing.T) {
	entry := cache.Entry{StoredAt: baseTime, TTL: time.Minute}

	if entry.Expired(baseTime.Add(30 * time.Second)) {
		t.Error("entry expired inside TTL")
	}
	if !entry.Expired(baseTime.Add(2 * time.Minute)) {
		t.Error("entry not expired after TTL")
	}
}

func TestEntryExpired_ZeroTTLNeverExpires(t *testing.T) {
	entry := cache.Entry{StoredAt: baseTime}
	if entry.Expired(baseTime.Add(24 * 365 * time.Hour)) {
		t.Error("zero-TTL entry expired")
	}
}
