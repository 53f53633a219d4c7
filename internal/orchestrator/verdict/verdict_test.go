package verdict

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{"yes", true},
		{"Yes.", true},
		{"YES, twitter is open", true},
		{"yES", true},
		{"The answer is: yes", true},
		{"no, there isn't... yes there could be", true},
		{"eyesight", true}, // substring match, not word match
		{"no social media detected", false},
		{"No.", false},
		{"", false},
		{"y e s", false},
	}

	for _, tt := range tests {
		if got := Extract(tt.output); got != tt.want {
			t.Errorf("Extract(%q) = %v, want %v", tt.output, got, tt.want)
		}
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult("Yes, Instagram is visible.")
	if r.ModelOutput != "Yes, Instagram is visible." {
		t.Errorf("ModelOutput = %q", r.ModelOutput)
	}
	if !r.Verdict {
		t.Error("Verdict should be true")
	}

	if NewResult("Nope").Verdict {
		t.Error("Verdict should be false for a reply without yes")
	}
}
