// Package target validates the user-entered compression target.
package target

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
)

// ValidationError is returned for malformed or out-of-range targets.
type ValidationError struct {
	Input string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Enter a valid target size (minimum %d KB).", domain.MinTargetKb)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate parses raw as a whole number of kilobytes. There is no upper
// bound here; the service decides whether a large target is feasible.
func Validate(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	kb, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Input: raw, Err: err}
	}
	if kb < domain.MinTargetKb {
		return 0, &ValidationError{Input: raw, Err: fmt.Errorf("%d below minimum %d", kb, domain.MinTargetKb)}
	}
	return kb, nil
}
