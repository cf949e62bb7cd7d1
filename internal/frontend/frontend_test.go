package frontend

import "testing"

func TestBufferFrontendRecordsLines(t *testing.T) {
	f := NewBufferFrontend()
	f.Printf("matchcount: %d", 3)
	f.Printf("0x%x = %d\n", 0x1000, 42)

	lines := f.Lines()
	if len(lines) != 2 {
		t.Fatalf("Lines() = %v, want 2 entries", lines)
	}
	if lines[0] != "matchcount: 3" {
		t.Errorf("lines[0] = %q, want %q", lines[0], "matchcount: 3")
	}
	if lines[1] != "0x1000 = 42" {
		t.Errorf("lines[1] = %q, want %q", lines[1], "0x1000 = 42")
	}
	if f.Last() != lines[1] {
		t.Errorf("Last() = %q, want %q", f.Last(), lines[1])
	}
}

func TestBufferFrontendReset(t *testing.T) {
	f := NewBufferFrontend()
	f.Printf("hello")
	f.Reset()
	if len(f.Lines()) != 0 {
		t.Fatalf("Lines() after Reset() = %v, want empty", f.Lines())
	}
	if f.Last() != "" {
		t.Fatalf("Last() after Reset() = %q, want empty", f.Last())
	}
}
