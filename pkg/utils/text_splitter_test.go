package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "empty input",
			text:       "",
			chunkSize:  10,
			overlap:    0,
			wantChunks: 0,
		},
		{
			name:       "whitespace only",
			text:       "   \n\t  ",
			chunkSize:  10,
			overlap:    0,
			wantChunks: 0,
		},
		{
			name:       "fits in one chunk",
			text:       "short text",
			chunkSize:  100,
			overlap:    10,
			wantChunks: 1,
		},
		{
			name:       "exact chunk boundary",
			text:       strings.Repeat("a", 10),
			chunkSize:  10,
			overlap:    0,
			wantChunks: 1,
		},
		{
			name:       "splits without overlap",
			text:       strings.Repeat("a", 25),
			chunkSize:  10,
			overlap:    0,
			wantChunks: 3,
		},
		{
			name:       "splits with overlap",
			text:       strings.Repeat("a", 20),
			chunkSize:  10,
			overlap:    5,
			wantChunks: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if len(got) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", len(got), tt.wantChunks)
			}
		})
	}
}

func TestSplitTextOverlapRepeatsBoundary(t *testing.T) {
	text := "abcdefghijklmnopqrst"
	chunks := SplitText(text, 10, 4)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	// The tail of each chunk must reappear at the head of the next.
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-4:]
		if !strings.HasPrefix(chunks[i+1], tail) {
			t.Errorf("chunk %d head %q does not repeat chunk %d tail %q", i+1, chunks[i+1], i, tail)
		}
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	// overlap >= chunkSize must not loop forever.
	chunks := SplitText(strings.Repeat("a", 30), 10, 10)
	if len(chunks) != 3 {
		t.Errorf("chunk count = %d, want 3", len(chunks))
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 10)
	chunks := SplitText(text, 20, 5)

	// Rune-based slicing must never split a multibyte character.
	for i, c := range chunks {
		if strings.ContainsRune(c, '�') {
			t.Errorf("chunk %d contains a broken rune: %q", i, c)
		}
	}
}
