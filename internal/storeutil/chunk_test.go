package storeutil

import "testing"

func TestChunk_PreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	chunks := Chunk(items, 3)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	want := [][]int{{1, 2, 3}, {4, 5, 6}, {7}}
	for i, chunk := range chunks {
		if len(chunk) != len(want[i]) {
			t.Fatalf("chunk %d: expected len %d, got %d", i, len(want[i]), len(chunk))
		}
		for j, v := range chunk {
			if v != want[i][j] {
				t.Errorf("chunk %d[%d]: expected %d, got %d", i, j, want[i][j], v)
			}
		}
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	chunks := Chunk([]int{}, 5)
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestChunk_SizeLargerThanInput(t *testing.T) {
	items := []string{"a", "b"}
	chunks := Chunk(items, 100)
	if len(chunks) != 1 || len(chunks[0]) != 2 {
		t.Errorf("expected a single chunk of 2, got %v", chunks)
	}
}

func TestChunk_NonPositiveSizeReturnsSingleChunk(t *testing.T) {
	items := []int{1, 2, 3}
	chunks := Chunk(items, 0)
	if len(chunks) != 1 || len(chunks[0]) != 3 {
		t.Errorf("expected a single passthrough chunk, got %v", chunks)
	}
}
