package pipeline

import (
	"errors"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "new style", id: "2301.00001", want: "2301.00001"},
		{name: "new style four digits", id: "0704.0001", want: "0704.0001"},
		{name: "new style versioned", id: "2301.12345v2", want: "2301.12345v2"},
		{name: "old style", id: "hep-th/9901001", want: "hep-th/9901001"},
		{name: "old style dotted class", id: "math.GT/0309136", want: "math.GT/0309136"},
		{name: "old style versioned", id: "cond-mat/0703001v1", want: "cond-mat/0703001v1"},
		{name: "old style digit in class", id: "solv-int2/9701001", want: "solv-int2/9701001"},
		{name: "old style digit-led class", id: "2solv/9701001", wantErr: true},
		{name: "surrounding whitespace", id: "  2301.00001\n", want: "2301.00001"},
		{name: "empty", id: "", wantErr: true},
		{name: "whitespace only", id: "   ", wantErr: true},
		{name: "too few digits", id: "2301.001", wantErr: true},
		{name: "too many digits", id: "2301.123456", wantErr: true},
		{name: "missing slash digits", id: "hep-th/99010", wantErr: true},
		{name: "bad version suffix", id: "2301.00001vx", wantErr: true},
		{name: "url instead of id", id: "https://arxiv.org/abs/2301.00001", wantErr: true},
		{name: "path traversal attempt", id: "../etc/passwd", wantErr: true},
		{name: "embedded whitespace", id: "2301. 00001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateID(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateID(%q) accepted", tt.id)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error %v does not wrap ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateID(%q): %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("ValidateID(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}
