package providers

import (
	"strings"
	"time"
	"unicode"

	"github.com/finbridge/investor-agent/pkg/errors"
)

// DateFormat is the wire format for all date parameters.
const DateFormat = "2006-01-02"

// ValidateTicker normalizes and validates a ticker symbol.
// Symbols are upper-cased and trimmed; an empty or malformed symbol fails
// fast with an INVALID_SYMBOL error before any network call.
func ValidateTicker(ticker string) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", errors.New(errors.ErrCodeInvalidSymbol, "ticker symbol cannot be empty")
	}
	if len(ticker) > 12 {
		return "", errors.New(errors.ErrCodeInvalidSymbol, "ticker symbol too long: %q", ticker)
	}
	for _, r := range ticker {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-' && r != '^' && r != '=' {
			return "", errors.New(errors.ErrCodeInvalidSymbol, "ticker symbol contains invalid character %q", r)
		}
	}
	return ticker, nil
}

// ValidateTickers validates a list of ticker symbols, returning the
// normalized list. The list itself must be non-empty.
func ValidateTickers(tickers []string) ([]string, error) {
	if len(tickers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSymbol, "at least one ticker symbol is required")
	}
	out := make([]string, len(tickers))
	for i, tk := range tickers {
		normalized, err := ValidateTicker(tk)
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}

// ValidateAccountNumber validates a brokerage account identifier.
func ValidateAccountNumber(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", errors.New(errors.ErrCodeInvalidAccount, "account number is required")
	}
	for _, r := range account {
		if !unicode.IsDigit(r) {
			return "", errors.New(errors.ErrCodeInvalidAccount, "account number must be numeric: %q", account)
		}
	}
	return account, nil
}

// ValidateDate parses a date string in YYYY-MM-DD format.
func ValidateDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.New(errors.ErrCodeInvalidDate, "invalid date format: %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

// ValidateDateRange validates an optional start/end date pair.
// Either side may be empty and may be a YYYY-MM-DD date or a full RFC 3339
// timestamp; when both are present, start must not be after end.
func ValidateDateRange(start, end string) error {
	var startDate, endDate time.Time
	var err error

	if start != "" {
		if startDate, err = parseDateTime(start); err != nil {
			return err
		}
	}
	if end != "" {
		if endDate, err = parseDateTime(end); err != nil {
			return err
		}
	}
	if start != "" && end != "" && startDate.After(endDate) {
		return errors.New(errors.ErrCodeInvalidDate, "start date %s is after end date %s", start, end)
	}
	return nil
}

// parseDateTime accepts the two shapes date parameters arrive in: a bare
// date or an RFC 3339 timestamp.
func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateFormat, s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New(errors.ErrCodeInvalidDate, "invalid date %q (use YYYY-MM-DD or RFC 3339)", s)
}

// ValidatePositive rejects non-positive counts and windows.
func ValidatePositive(name string, n int) error {
	if n <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s must be positive, got %d", name, n)
	}
	return nil
}

// ValidateEnum checks that value is one of the allowed choices.
// An empty value is allowed only when allowEmpty is set.
func ValidateEnum(name, value string, allowEmpty bool, choices ...string) error {
	if value == "" {
		if allowEmpty {
			return nil
		}
		return errors.New(errors.ErrCodeInvalidInput, "%s is required", name)
	}
	for _, c := range choices {
		if value == c {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s must be one of %s, got %q", name, strings.Join(choices, ", "), value)
}
