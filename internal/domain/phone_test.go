package domain

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "already canonical", input: "+33612345678", want: "+33612345678"},
		{name: "spaces and dashes", input: " +33 6-12-34-56-78 ", want: "+33612345678"},
		{name: "double zero prefix", input: "0033612345678", want: "+33612345678"},
		{name: "parentheses", input: "+1 (415) 555-0134", want: "+14155550134"},
		{name: "dots", input: "+90.555.111.22.33", want: "+905551112233"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "letters", input: "+33ABC45678", wantErr: true},
		{name: "too short", input: "+1234567", wantErr: true},
		{name: "too long", input: "+1234567890123456", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("NormalizePhone(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("NormalizePhone(%q) unexpected error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizePhone(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
