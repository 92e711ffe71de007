package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
		{"Jo@TheContributor.ORG", "jo@thecontributor.org"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jo Smith", "Jo Smith"},
		{"  Jo Smith  ", "Jo Smith"},
		{"Jo   Smith", "Jo Smith"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVendorCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ab12", "AB12"},
		{"  V001 ", "V001"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := VendorCode(tt.input)
			if got != tt.want {
				t.Errorf("VendorCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input  string
		want   int64
		wantOK bool
	}{
		{"555-1234", 5551234, true},
		{"(573) 555-0100", 5735550100, true},
		{"+1 573.555.0100", 15735550100, true},
		{"5551234", 5551234, true},
		{"call me", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false}, // overflows int64
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Phone(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Phone(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Organization Name", "organizationname"},
		{"organization_name", "organizationname"},
		{"organizationName", "organizationname"},
		{"  Bus Line(s)? ", "buslines"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Key(tt.input)
			if got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBearer(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Bearer(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Bearer(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
