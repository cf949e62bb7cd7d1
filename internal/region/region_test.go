package region

import (
	"os"
	"testing"
)

func TestParseLineAndScannable(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantOK     bool
		wantScan   bool
		wantStart  uint64
		wantEnd    uint64
		wantPerms  string
	}{
		{
			name:      "anonymous heap rw",
			line:      "00400000-00401000 rw-p 00000000 00:00 0 ",
			wantOK:    true,
			wantScan:  true,
			wantStart: 0x400000,
			wantEnd:   0x401000,
			wantPerms: "rw-p",
		},
		{
			name:     "named heap",
			line:     "55a000-55b000 rw-p 00000000 00:00 0 [heap]",
			wantOK:   true,
			wantScan: true,
		},
		{
			name:     "stack",
			line:     "7fff0000-7fff1000 rw-p 00000000 00:00 0 [stack]",
			wantOK:   true,
			wantScan: true,
		},
		{
			name:     "vvar is never scannable",
			line:     "7fffaaaa-7fffbbbb r--p 00000000 00:00 0 [vvar]",
			wantOK:   true,
			wantScan: false,
		},
		{
			name:     "read-only file backed text segment",
			line:     "400000-401000 r-xp 00000000 08:01 123 /bin/target",
			wantOK:   true,
			wantScan: false,
		},
		{
			name:     "writable file backed mapping counts as scannable",
			line:     "7f0000-7f1000 rw-p 00001000 08:01 123 /bin/target",
			wantOK:   true,
			wantScan: true,
		},
		{
			name:     "unreadable region never scannable",
			line:     "7f2000-7f3000 -w-p 00000000 00:00 0 ",
			wantOK:   true,
			wantScan: false,
		},
		{
			name:   "malformed line",
			line:   "not a maps line",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, ok, err := parseLine(tc.line)
			if ok != tc.wantOK {
				t.Fatalf("parseLine(%q) ok = %v, err = %v, want %v", tc.line, ok, err, tc.wantOK)
			}
			if !ok {
				return
			}
			if tc.wantStart != 0 && uint64(r.Start) != tc.wantStart {
				t.Errorf("Start = 0x%x, want 0x%x", r.Start, tc.wantStart)
			}
			if tc.wantEnd != 0 && uint64(r.End) != tc.wantEnd {
				t.Errorf("End = 0x%x, want 0x%x", r.End, tc.wantEnd)
			}
			if tc.wantPerms != "" && r.Perms != tc.wantPerms {
				t.Errorf("Perms = %q, want %q", r.Perms, tc.wantPerms)
			}
			if r.scannable() != tc.wantScan {
				t.Errorf("scannable() = %v, want %v", r.scannable(), tc.wantScan)
			}
		})
	}
}

func TestListSelf(t *testing.T) {
	regions, err := List(os.Getpid())
	if err != nil {
		t.Fatalf("List(self): %v", err)
	}
	if len(regions) == 0 {
		t.Fatalf("expected at least one scannable region in our own maps")
	}
	for i := 1; i < len(regions); i++ {
		if regions[i].Start < regions[i-1].Start {
			t.Errorf("regions not in ascending order: %s before %s", regions[i-1].Start, regions[i].Start)
		}
	}
}

func TestListMissingProcess(t *testing.T) {
	// PID unlikely to exist.
	_, err := List(1 << 30)
	if err == nil {
		t.Fatalf("expected error for nonexistent pid")
	}
}
