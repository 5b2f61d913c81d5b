package resolver

import "testing"

func TestDefaultCandidates(t *testing.T) {
	cs := DefaultCandidates()
	want := []Candidate{
		{Name: "direct", BaseURL: "http://localhost:3000"},
		{Name: "same-origin", BaseURL: "http://localhost:8080/api"},
		{Name: "proxy-server", BaseURL: "http://localhost:8090/api"},
	}
	if len(cs) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(cs), len(want))
	}
	for i := range want {
		if cs[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, cs[i], want[i])
		}
	}
}

func TestParseCandidates(t *testing.T) {
	cs, err := ParseCandidates("local=http://localhost:3000/, http://db.internal:3000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cs) != 2 {
		t.Fatalf("got %d candidates", len(cs))
	}
	if cs[0].Name != "local" || cs[0].BaseURL != "http://localhost:3000" {
		t.Errorf("first = %+v", cs[0])
	}
	if cs[1].Name != "candidate-2" || cs[1].BaseURL != "http://db.internal:3000" {
		t.Errorf("second = %+v", cs[1])
	}
}

func TestParseCandidatesQueryString(t *testing.T) {
	cs, err := ParseCandidates("http://h/api?x=1, named=http://h/api?y=2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cs[0].Name != "candidate-1" || cs[0].BaseURL != "http://h/api?x=1" {
		t.Errorf("unnamed = %+v", cs[0])
	}
	if cs[1].Name != "named" || cs[1].BaseURL != "http://h/api?y=2" {
		t.Errorf("named = %+v", cs[1])
	}
}

func TestParseCandidatesErrors(t *testing.T) {
	tests := []string{
		"",
		" , ",
		"bad=ftp://x",
		"bad=not a url",
		"=http://localhost:3000",
	}
	for _, in := range tests {
		if _, err := ParseCandidates(in); err == nil {
			t.Errorf("ParseCandidates(%q) should fail", in)
		}
	}
}

func TestLoadCandidatesEmpty(t *testing.T) {
	if _, err := LoadCandidates([]byte("candidates: []\n")); err == nil {
		t.Error("empty list should fail")
	}
}
