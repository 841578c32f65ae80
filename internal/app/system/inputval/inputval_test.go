package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.rw", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"a@b.co", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
		{"user@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  Abahizi   Dairy ", "Abahizi Dairy"},
		{"<b>Bold</b> name", "Bold name"},
		{"Coop<script>alert(1)</script>", "Coop"},
		{"tab\tand\nnewline", "tab and newline"},
		{"Tom & Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanMultiline_KeepsLineBreaks(t *testing.T) {
	got := CleanMultiline("  line one  \n<i>line</i> two\n")
	if got != "line one\nline two" {
		t.Fatalf("got %q", got)
	}
}

func TestResult(t *testing.T) {
	var v Result
	v.Required("Name", " ")
	v.Email("not-an-email")
	v.MinLen("Password", "abc", 6)
	if v.OK() {
		t.Fatal("expected problems")
	}
	want := "Name is required. Email address is not valid. Password is too short."
	if got := v.Message(); got != want {
		t.Fatalf("Message = %q, want %q", got, want)
	}

	var ok Result
	ok.Required("Name", "x")
	ok.Email("a@b.co")
	if !ok.OK() {
		t.Fatalf("unexpected problems: %v", ok.Messages())
	}
}
