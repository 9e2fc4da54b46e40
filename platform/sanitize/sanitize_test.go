package sanitize

import "testing"

func TestTextStripsEncodedTags(t *testing.T) {
	got := Text(" Vazamento &lt;script&gt;alert(1)&lt;/script&gt; no tanque <b>2</b> ")
	if got != "Vazamento alert(1) no tanque 2" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestTextPtrBlankBecomesNil(t *testing.T) {
	blank := "<br>"
	if TextPtr(&blank) != nil {
		t.Fatal("expected blank note to become nil")
	}
	if TextPtr(nil) != nil {
		t.Fatal("expected nil passthrough")
	}
}
