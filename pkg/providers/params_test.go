package providers

import (
	"testing"

	"github.com/finbridge/investor-agent/pkg/errors"
)

func TestValidateTicker(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"aapl", "AAPL", false},
		{"  msft ", "MSFT", false},
		{"BRK.B", "BRK.B", false},
		{"^GSPC", "^GSPC", false},
		{"BTC-USD", "BTC-USD", false},
		{"", "", true},
		{"   ", "", true},
		{"AAPL;DROP", "", true},
		{"WAYTOOLONGSYMBOL", "", true},
	}
	for _, tc := range cases {
		got, err := ValidateTicker(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ValidateTicker(%q): expected error", tc.in)
			} else if !errors.IsInvalidInput(err) {
				t.Errorf("ValidateTicker(%q): expected INVALID_* code, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateTicker(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ValidateTicker(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateTickers(t *testing.T) {
	got, err := ValidateTickers([]string{"aapl", "msft"})
	if err != nil {
		t.Fatalf("ValidateTickers: %v", err)
	}
	if got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("got %v", got)
	}

	if _, err := ValidateTickers(nil); err == nil {
		t.Error("expected error for empty list")
	}
	if _, err := ValidateTickers([]string{"AAPL", ""}); err == nil {
		t.Error("expected error for empty element")
	}
}

func TestValidateAccountNumber(t *testing.T) {
	if _, err := ValidateAccountNumber("123456"); err != nil {
		t.Errorf("valid account rejected: %v", err)
	}
	for _, in := range []string{"", "  ", "12a456", "123-456"} {
		_, err := ValidateAccountNumber(in)
		if err == nil {
			t.Errorf("ValidateAccountNumber(%q): expected error", in)
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidAccount) {
			t.Errorf("ValidateAccountNumber(%q): wrong code %v", in, errors.GetCode(err))
		}
	}
}

func TestValidateDate(t *testing.T) {
	if _, err := ValidateDate("2024-01-15"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	for _, in := range []string{"", "01/15/2024", "2024-13-01", "yesterday"} {
		if _, err := ValidateDate(in); !errors.Is(err, errors.ErrCodeInvalidDate) {
			t.Errorf("ValidateDate(%q): expected INVALID_DATE, got %v", in, err)
		}
	}
}

func TestValidateDateRange(t *testing.T) {
	if err := ValidateDateRange("2024-01-01", "2024-06-30"); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if err := ValidateDateRange("", ""); err != nil {
		t.Errorf("empty range rejected: %v", err)
	}
	if err := ValidateDateRange("2024-01-01", ""); err != nil {
		t.Errorf("open-ended range rejected: %v", err)
	}
	if err := ValidateDateRange("2024-06-30", "2024-01-01"); err == nil {
		t.Error("expected error for inverted range")
	}
	if err := ValidateDateRange("junk", "2024-01-01"); err == nil {
		t.Error("expected error for malformed start date")
	}
	if err := ValidateDateRange("2024-01-01T00:00:00-05:00", "2024-06-30T00:00:00-05:00"); err != nil {
		t.Errorf("valid RFC 3339 range rejected: %v", err)
	}
	if err := ValidateDateRange("2024-06-30T00:00:00-05:00", "2024-01-01T00:00:00-05:00"); err == nil {
		t.Error("expected error for inverted RFC 3339 range")
	}
}

func TestValidateEnum(t *testing.T) {
	if err := ValidateEnum("interval", "OneDay", false, "OneMinute", "OneDay"); err != nil {
		t.Errorf("valid choice rejected: %v", err)
	}
	if err := ValidateEnum("interval", "TwoWeeks", false, "OneMinute", "OneDay"); err == nil {
		t.Error("expected error for unknown choice")
	}
	if err := ValidateEnum("type", "", true, "C", "P"); err != nil {
		t.Errorf("optional empty value rejected: %v", err)
	}
	if err := ValidateEnum("interval", "", false, "OneDay"); err == nil {
		t.Error("expected error for missing required value")
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("count", 5); err != nil {
		t.Errorf("positive rejected: %v", err)
	}
	if err := ValidatePositive("count", 0); err == nil {
		t.Error("expected error for zero")
	}
}
