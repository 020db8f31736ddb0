package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty falls back", "", "/#my-reservations"},
		{"relative path passes", "/?rid=42#my-reservations", "/?rid=42#my-reservations"},
		{"plain path passes", "/my/reservations", "/my/reservations"},
		{"absolute url rejected", "https://evil.example/phish", "/#my-reservations"},
		{"protocol-relative rejected", "//evil.example/phish", "/#my-reservations"},
		{"missing leading slash rejected", "evil.example", "/#my-reservations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeNext(tt.in))
		})
	}
}
