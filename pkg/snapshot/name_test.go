package snapshot

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNameJSON(t *testing.T) {
	tests := []struct {
		name     string
		in       Name
		wantJSON string
	}{
		{"empty", "", `""`},
		{"ascii", "src/a.txt", `"src/a.txt"`},
		{"utf8", "dir/ñ.txt", `"dir/ñ.txt"`},
		{"invalid byte", "a\xff.txt", `{"base64":"Yf8udHh0"}`},
		{"replacement char stays a string", "a�", `"a` + "�" + `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("Marshal(%q) = %s, want %s", tt.in, data, tt.wantJSON)
			}
			var got Name
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if got != tt.in {
				t.Errorf("round trip = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestNameDistinctInvalidBytes(t *testing.T) {
	a, _ := json.Marshal(Name("a\xfe"))
	b, _ := json.Marshal(Name("a\xff"))
	if string(a) == string(b) {
		t.Errorf("distinct names encoded identically: %s", a)
	}
}

func TestNameUnmarshalRejectsRedundantBase64(t *testing.T) {
	var n Name
	err := json.Unmarshal([]byte(`{"base64":"YWJj"}`), &n)
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("err = %v, want ErrInvalidSnapshot for valid UTF-8 in base64 form", err)
	}
}

func TestDecodeInvalidUTF8Names(t *testing.T) {
	root := "/ws/r\xff"
	snap := &Snapshot{
		rootPath:  root,
		algorithm: SHA256,
		root:      NewDirectory(root, nil, Present(Digest{1})),
		descendants: []PathEntry{
			NewRegularFile(root+"/a\xfe", ParseRelativePath("a\xfe"), Present(Digest{2})),
			NewRegularFile(root+"/a\xff", ParseRelativePath("a\xff"), Present(Digest{3})),
		},
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	data := mustEncode(t, snap)
	if strings.ContainsRune(string(data), '�') {
		t.Errorf("encoded snapshot contains a replacement character: %s", data)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if got.RootPath() != root {
		t.Errorf("RootPath() = %q, want %q", got.RootPath(), root)
	}
	for _, rel := range []string{"a\xfe", "a\xff"} {
		e, ok := got.Lookup(rel)
		if !ok {
			t.Errorf("Lookup(%q) not found after decode", rel)
			continue
		}
		if e.Path() != root+"/"+rel {
			t.Errorf("Path() = %q, want %q", e.Path(), root+"/"+rel)
		}
	}
}
