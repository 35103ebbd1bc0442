package metadata

import "testing"

func TestLineParser_Parse(t *testing.T) {
	p := NewLineParser()

	body := []byte("# comment\ncodec = \"h264\"\nbitrate = 2500000\n\nempty_ignored\n")
	got, err := p.Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got["codec"] != "h264" {
		t.Errorf("expected codec=h264, got %q", got["codec"])
	}
	if got["bitrate"] != "2500000" {
		t.Errorf("expected bitrate=2500000, got %q", got["bitrate"])
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d: %v", len(got), got)
	}
}

func TestLineParser_Parse_empty(t *testing.T) {
	p := NewLineParser()

	got, err := p.Parse([]byte("# nothing but comments\n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
