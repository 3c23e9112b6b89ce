package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "static path unchanged",
			path: "/api/v1/campaigns",
			want: "/api/v1/campaigns",
		},
		{
			name: "uuid segment replaced",
			path: "/api/v1/campaigns/1b4e28ba-2fa1-11d2-883f-0016d3cca427",
			want: "/api/v1/campaigns/{id}",
		},
		{
			name: "numeric segment replaced",
			path: "/api/v1/campaigns/12345",
			want: "/api/v1/campaigns/{id}",
		},
		{
			name: "multiple ids replaced",
			path: "/api/v1/campaigns/1b4e28ba-2fa1-11d2-883f-0016d3cca427/targets/42/journey",
			want: "/api/v1/campaigns/{id}/targets/{id}/journey",
		},
		{
			name: "tracking path unchanged",
			path: "/t/pixel",
			want: "/t/pixel",
		},
		{
			name: "root",
			path: "/",
			want: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizePath(tt.path))
		})
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		segment string
		want    bool
	}{
		{"1b4e28ba-2fa1-11d2-883f-0016d3cca427", true},
		{"1B4E28BA-2FA1-11D2-883F-0016D3CCA427", true},
		{"42", true},
		{"campaigns", false},
		{"", false},
		{"not-a-uuid-but-with-dashes-and-36char", false},
		{"123456789012345678901", false}, // 21 digits, too long
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			assert.Equal(t, tt.want, isID(tt.segment))
		})
	}
}
