package capitol

import (
	"encoding/json"
	"testing"

	"github.com/sumiran35/capitol-shill/date"
)

func TestJsonObjectWriter(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		var w jsonObjectWriter
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "{}"; string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("nullable fields", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("a", 0)
		w.Append("c", "hello")
		w.Nullable("d", "")
		w.Nullable("e", "x")
		got, err := w.MarshalJSON()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `{"a":0,"c":"hello","d":null,"e":"x"}`
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("error is sticky", func(t *testing.T) {
		var w jsonObjectWriter
		w.Append("f", func() {})
		w.Append("a", 1)
		if _, err := w.MarshalJSON(); err == nil {
			t.Errorf("expected an error for an unsupported value")
		}
	})
}

func TestTradeJSON(t *testing.T) {
	tr := T("2025-11-20", "Jane Doe", "HBAN", 175000, "Buy")
	got, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"senator":"Jane Doe","ticker":"HBAN","asset_description":"HBAN Inc","transaction_date":"2025-11-20","disclosure_date":null,"type":"Buy","amount_est":175000,"asset_type":"Stock","sector":null}`
	if string(got) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
	}

	var back Trade
	if err := json.Unmarshal(got, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !back.Equal(tr) {
		t.Errorf("Unmarshal() = %v, want %v", back, tr)
	}

	tr.Sector = "Financial Services"
	tr.DisclosureDate = date.MustParse("2025-11-25")
	got, _ = json.Marshal(tr)
	back = Trade{}
	if err := json.Unmarshal(got, &back); err != nil || !back.Equal(tr) {
		t.Errorf("Unmarshal(%s) = %v, %v", got, back, err)
	}
}
