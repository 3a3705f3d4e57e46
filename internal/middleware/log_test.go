package middleware

import (
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	got := redact([]byte(`{"email":"a@b.c","password":"Secret123","confirm_password":"Secret123","id_token":"xyz"}`))
	if strings.Contains(got, "Secret123") || strings.Contains(got, "xyz") {
		t.Errorf("credentials leaked: %s", got)
	}
	if !strings.Contains(got, "a@b.c") {
		t.Errorf("email dropped: %s", got)
	}

	if got := redact([]byte("not json")); got != "" {
		t.Errorf("non-JSON body kept: %q", got)
	}
}
