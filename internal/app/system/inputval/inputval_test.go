package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"listing contact", "info@foodbank.org", true},
		{"plus tag", "intake+pantry@hopehouse.org", true},
		{"country tld", "help@shelter.co.uk", true},
		{"staff domain", "jo@thecontributor.org", true},
		{"vendor identity", "vAB12@internal.contributor", true},
		{"single label host", "ops@localhost", true},
		{"surrounding space trimmed", "  info@foodbank.org ", true},

		{"empty", "", false},
		{"blank", "  ", false},
		{"no at", "foodbank.org", false},
		{"no local", "@foodbank.org", false},
		{"no domain", "info@", false},
		{"leading dot", ".info@foodbank.org", false},
		{"doubled dot", "info@foodbank..org", false},
		{"domain leading dot", "info@.foodbank.org", false},
		{"display name", "Food Bank <info@foodbank.org>", false},
		{"inner space", "info desk@foodbank.org", false},
		{"two ats", "info@desk@foodbank.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
