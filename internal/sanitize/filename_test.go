package sanitize

import "testing"

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean", "cover.png", "cover.png"},
		{"case_preserved", "Photo.PNG", "Photo.PNG"},
		{"path_stripped", "/etc/passwd", "passwd"},
		{"traversal_stripped", "../../etc/passwd", "passwd"},
		{"windows_path_stripped", `C:\Users\bob\photo.jpg`, "photo.jpg"},
		{"null_bytes_removed", "pho\x00to.png", "photo.png"},
		{"leading_dots_trimmed", ".hidden", "hidden"},
		{"only_dots", "...", ""},
		{"dot", ".", ""},
		{"dotdot", "..", ""},
		{"empty", "", ""},
		{"illegal_chars_replaced", `co<ver>.png`, "co_ver_.png"},
		{"control_chars_replaced", "cov\ter.png", "cov_er.png"},
		{"spaces_kept", "album cover.png", "album cover.png"},
		{"unicode_kept", "портрет.jpg", "портрет.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filename(tc.input); got != tc.expected {
				t.Errorf("Filename(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestFilenameLengthCapped(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	got := Filename(string(long))
	if len(got) > 255 {
		t.Errorf("sanitized name is %d bytes, want <= 255", len(got))
	}
}

func TestRenameTarget(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"slug", "user-42", "user-42"},
		{"entity_id", "release_2024", "release_2024"},
		{"traversal_rejected", "../admin", ""},
		{"separator_rejected", "a/b", ""},
		{"backslash_rejected", `a\b`, ""},
		{"encoded_traversal_rejected", "%2e%2e%2fadmin", ""},
		{"null_rejected", "user\x00", ""},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenameTarget(tc.input); got != tc.expected {
				t.Errorf("RenameTarget(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestIsPathTraversal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"user-42", false},
		{"cover.png", false},
		{"", false},
		{"../x", true},
		{"a/b", true},
		{`a\b`, true},
		{"..", true},
		{"%2F", true},
		{"%5c", true},
		{"%2e%2e", true},
		{"%00", true},
		{"%c0%af", true},
		{"a\x00b", true},
	}

	for _, tc := range tests {
		if got := IsPathTraversal(tc.input); got != tc.want {
			t.Errorf("IsPathTraversal(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
