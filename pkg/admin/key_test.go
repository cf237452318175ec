package admin

import "testing"

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "simple address",
			email: "admin@example.com",
			want:  "admin_example_com",
		},
		{
			name:  "mixed case is normalized",
			email: "Admin@Example.COM",
			want:  "admin_example_com",
		},
		{
			name:  "dots in local part",
			email: "first.last@school.edu",
			want:  "first_last_school_edu",
		},
		{
			name:  "plus addressing preserved",
			email: "ops+admin@example.com",
			want:  "ops+admin_example_com",
		},
		{
			name:  "subdomain",
			email: "a@mail.courses.example.com",
			want:  "a_mail_courses_example_com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveKey(tt.email); got != tt.want {
				t.Errorf("DeriveKey(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	email := "instructor@example.com"
	first := DeriveKey(email)
	for i := 0; i < 10; i++ {
		if got := DeriveKey(email); got != first {
			t.Fatalf("DeriveKey not stable: got %q, want %q", got, first)
		}
	}
}

func TestDeriveKey_DistinctEmails(t *testing.T) {
	emails := []string{
		"admin@example.com",
		"admin@example.org",
		"admin2@example.com",
		"ad.min@example.com",
		"support@courses.example.com",
	}

	seen := make(map[string]string)
	for _, email := range emails {
		key := DeriveKey(email)
		if prev, ok := seen[key]; ok {
			t.Errorf("key collision: %q and %q both derive %q", prev, email, key)
		}
		seen[key] = email
	}
}
