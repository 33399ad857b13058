// Package selector accepts or rejects candidate files for compression.
//
// A candidate reaches Select the same way whether it was chosen in the file
// picker or dropped onto the terminal, so neither origin can skip a check.
package selector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
	"github.com/Pavankumarbhedam/Pdf-compressior/pkg/utils"
)

// Origin is where a candidate came from.
type Origin int

const (
	OriginPick Origin = iota
	OriginDrop
)

func (o Origin) String() string {
	if o == OriginDrop {
		return "drop"
	}
	return "pick"
}

// Constraint names the check a candidate failed.
type Constraint string

const (
	ConstraintMIME    Constraint = "mime_type"
	ConstraintSize    Constraint = "max_size"
	ConstraintMissing Constraint = "readable_file"
)

// Candidate is a file offered for selection, not yet validated.
type Candidate struct {
	Name      string
	Path      string
	SizeBytes int64
	MIMEType  string
	Origin    Origin
}

// Constraints bound what Select accepts.
type Constraints struct {
	MIMEType string
	MaxBytes int64
}

// DefaultConstraints matches what the compression service accepts.
func DefaultConstraints() Constraints {
	return Constraints{
		MIMEType: domain.PDFMIMEType,
		MaxBytes: domain.MaxUploadBytes,
	}
}

// ValidationError reports the violated constraint in user-facing terms.
type ValidationError struct {
	Constraint Constraint
	Message    string
	Err        error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Select applies the constraints to c.
func Select(c Candidate, cons Constraints) (domain.SelectedFile, error) {
	if c.MIMEType != cons.MIMEType {
		return domain.SelectedFile{}, &ValidationError{
			Constraint: ConstraintMIME,
			Message:    "Please upload a valid PDF file.",
		}
	}
	if c.SizeBytes < 0 || c.SizeBytes > cons.MaxBytes {
		return domain.SelectedFile{}, &ValidationError{
			Constraint: ConstraintSize,
			Message:    fmt.Sprintf("Max file size is %s. Please upload a smaller PDF.", sizeLimit(cons.MaxBytes)),
		}
	}
	return domain.SelectedFile{
		Name:      c.Name,
		Path:      c.Path,
		SizeBytes: c.SizeBytes,
		MIMEType:  c.MIMEType,
	}, nil
}

// Inspect stats and sniffs a local file and describes it as a candidate.
func Inspect(path string, origin Origin) (Candidate, error) {
	if path == "" {
		return Candidate{}, &ValidationError{Constraint: ConstraintMissing, Message: "Please select a PDF file first."}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, &ValidationError{
			Constraint: ConstraintMissing,
			Message:    fmt.Sprintf("Cannot read %s.", filepath.Base(path)),
			Err:        err,
		}
	}
	if info.IsDir() {
		return Candidate{}, &ValidationError{
			Constraint: ConstraintMissing,
			Message:    fmt.Sprintf("%s is a directory. Please upload a valid PDF file.", filepath.Base(path)),
		}
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Candidate{}, &ValidationError{
			Constraint: ConstraintMissing,
			Message:    fmt.Sprintf("Cannot read %s.", filepath.Base(path)),
			Err:        err,
		}
	}

	return Candidate{
		Name:      filepath.Base(path),
		Path:      path,
		SizeBytes: info.Size(),
		MIMEType:  mt.String(),
		Origin:    origin,
	}, nil
}

// Label is the human readable description of the current selection.
func Label(f domain.SelectedFile) string {
	return fmt.Sprintf("Selected: %s (%s)", f.Name, utils.FormatKB(f.SizeBytes))
}

func sizeLimit(b int64) string {
	const mb = 1024 * 1024
	if b%mb == 0 {
		return fmt.Sprintf("%d MB", b/mb)
	}
	return humanize.IBytes(uint64(b))
}
