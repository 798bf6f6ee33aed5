package policy

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "root slash",
			input: "/",
			want:  []string{},
		},
		{
			name:  "single segment",
			input: "DCIM",
			want:  []string{"DCIM"},
		},
		{
			name:  "nested path",
			input: "DCIM/Camera/IMG_0001.jpg",
			want:  []string{"DCIM", "Camera", "IMG_0001.jpg"},
		},
		{
			name:  "leading and trailing separators",
			input: "/Music/song.mp3/",
			want:  []string{"Music", "song.mp3"},
		},
		{
			name:  "multiple root slashes",
			input: "///",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if err != nil {
				t.Fatalf("ParsePath(%q) returned error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParsePath(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePath_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "empty interior segment", input: "DCIM//file.jpg"},
		{name: "dot segment", input: "DCIM/./file.jpg"},
		{name: "dotdot segment", input: "DCIM/../Music"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePath(tt.input)
			if err == nil {
				t.Fatalf("ParsePath(%q) succeeded, want ErrInvalidPath", tt.input)
			}
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("ParsePath(%q) error = %v, want ErrInvalidPath", tt.input, err)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	p, err := ParsePath("Music/album/track.mp3")
	if err != nil {
		t.Fatalf("ParsePath returned error: %v", err)
	}
	if p.String() != "Music/album/track.mp3" {
		t.Errorf("String() = %q", p.String())
	}
	if p.Base() != "track.mp3" {
		t.Errorf("Base() = %q", p.Base())
	}

	root := Path{}
	if root.String() != "/" {
		t.Errorf("root String() = %q, want \"/\"", root.String())
	}
	if !root.IsRoot() {
		t.Error("root IsRoot() = false")
	}
	if root.Base() != "" {
		t.Errorf("root Base() = %q, want \"\"", root.Base())
	}
}
