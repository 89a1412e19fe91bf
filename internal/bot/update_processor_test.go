package bot

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestGetUN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *api.User
		want string
	}{
		{"nil user", nil, ""},
		{"username wins", &api.User{UserName: "spammer", FirstName: "Ivan"}, "spammer"},
		{"falls back to names", &api.User{FirstName: "Ivan", LastName: "Petrov"}, "Ivan Petrov"},
		{"first name only", &api.User{FirstName: "Ivan"}, "Ivan"},
	}
	for _, tt := range tests {
		if got := GetUN(tt.user); got != tt.want {
			t.Fatalf("%s: GetUN = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetFullName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *api.User
		want string
	}{
		{"nil user", nil, ""},
		{"full name wins", &api.User{UserName: "spammer", FirstName: "Ivan", LastName: "Petrov"}, "Ivan Petrov"},
		{"falls back to username", &api.User{UserName: "spammer"}, "spammer"},
	}
	for _, tt := range tests {
		if got := GetFullName(tt.user); got != tt.want {
			t.Fatalf("%s: GetFullName = %q, want %q", tt.name, got, tt.want)
		}
	}
}
