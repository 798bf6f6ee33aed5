package policy

import (
	"testing"
)

const testCallerID = "com.example.legacy"

func mustParse(t *testing.T, s string) Path {
	t.Helper()
	p, err := ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q) returned error: %v", s, err)
	}
	return p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want PathClass
	}{
		{
			name: "shared root",
			path: "/",
			want: PathClass{Kind: ClassSharedRoot},
		},
		{
			name: "own files dir",
			path: "Android/data/" + testCallerID,
			want: PathClass{Kind: ClassOwnFilesDir},
		},
		{
			name: "file under own files dir",
			path: "Android/data/" + testCallerID + "/files/cache.bin",
			want: PathClass{Kind: ClassOwnFilesDir},
		},
		{
			name: "own obb dir",
			path: "Android/obb/" + testCallerID + "/main.obb",
			want: PathClass{Kind: ClassOwnFilesDir},
		},
		{
			name: "own media dir",
			path: "Android/media/" + testCallerID + "/clip.mp4",
			want: PathClass{Kind: ClassOwnMediaDir},
		},
		{
			name: "other app data dir",
			path: "Android/data/com.android.shell/file.txt",
			want: PathClass{Kind: ClassOtherAppDir, Owner: "com.android.shell"},
		},
		{
			name: "other app media dir",
			path: "Android/media/com.other.app",
			want: PathClass{Kind: ClassOtherAppDir, Owner: "com.other.app"},
		},
		{
			name: "music file under DCIM",
			path: "DCIM/track.mp3",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "DCIM", Media: MediaMusic},
		},
		{
			name: "document under Music",
			path: "Music/notes.pdf",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Music", Media: MediaDocument},
		},
		{
			name: "image deep under Pictures",
			path: "Pictures/Screenshots/shot.PNG",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Pictures", Media: MediaImage},
		},
		{
			name: "video under Movies",
			path: "Movies/film.mkv",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Movies", Media: MediaVideo},
		},
		{
			name: "unrecognized extension",
			path: "Download/archive.zip",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Download", Media: MediaOther},
		},
		{
			name: "no extension",
			path: "Documents/README",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Documents", Media: MediaOther},
		},
		{
			name: "trailing dot",
			path: "Download/file.",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Download", Media: MediaOther},
		},
		{
			name: "file directly under root",
			path: "LegacyAccess.mp3",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "LegacyAccess.mp3", Media: MediaMusic},
		},
		{
			name: "unrecognized top-level dir",
			path: "MyStuff/things.txt",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "MyStuff", Media: MediaDocument},
		},
		{
			name: "case-sensitive top-level match",
			path: "music/track.mp3",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "music", Media: MediaMusic},
		},
		{
			name: "Android dir without private prefix",
			path: "Android/other/thing",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Android", Media: MediaOther},
		},
		{
			name: "Android data without app id",
			path: "Android/data",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Android", Media: MediaOther},
		},
		{
			name: "Android dir itself is a recognized top-level name",
			path: "Android",
			want: PathClass{Kind: ClassTopLevelDir, Dir: "Android", Media: MediaOther},
		},
	}

	if !topLevelDirs["Android"] {
		t.Error("Android should be in the recognized top-level set; the private prefixes are matched first")
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(mustParse(t, tt.path), testCallerID)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// Private prefixes must win over top-level matching even when the
// owner segment looks like a recognized directory name.
func TestClassify_PrivatePrefixPrecedence(t *testing.T) {
	got := Classify(mustParse(t, "Android/data/Music/track.mp3"), testCallerID)
	if got.Kind != ClassOtherAppDir || got.Owner != "Music" {
		t.Errorf("Classify = %v, want other-app-dir(Music)", got)
	}
}

func TestClassify_Pure(t *testing.T) {
	p := mustParse(t, "DCIM/track.mp3")
	first := Classify(p, testCallerID)
	for i := 0; i < 10; i++ {
		if got := Classify(p, testCallerID); got != first {
			t.Fatalf("Classify not deterministic: %v != %v", got, first)
		}
	}
}
