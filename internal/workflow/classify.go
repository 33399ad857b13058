package workflow

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/compressor"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
)

// User-facing messages for each failure kind.
const (
	MsgTooLarge    = "File too large. Max allowed is 8 MB."
	MsgServerError = "Server error during compression. Try increasing target KB."
	MsgUnexpected  = "Unexpected server error."
	MsgTransport   = "Unexpected error occurred. Please try again."
)

// Classify maps a service answer onto an outcome. err is the transport
// error, if the request did not complete.
func Classify(status int, body []byte, err error) domain.Outcome {
	if err != nil {
		if errors.Is(err, compressor.ErrResponseTooLarge) {
			return failure(domain.Unexpected, MsgUnexpected, status, err)
		}
		return failure(domain.TransportError, MsgTransport, status, err)
	}

	switch {
	case status >= 200 && status <= 299:
		return domain.Outcome{Success: &domain.Success{
			CompressedSizeBytes: int64(len(body)),
			Data:                body,
		}}
	case status == http.StatusRequestEntityTooLarge:
		return failure(domain.TooLarge, MsgTooLarge, status, nil)
	case status == http.StatusInternalServerError:
		return failure(domain.ServerError, MsgServerError, status, nil)
	default:
		return failure(domain.Unexpected, MsgUnexpected, status, fmt.Errorf("status %d", status))
	}
}

func failure(kind domain.FailureKind, msg string, status int, err error) domain.Outcome {
	return domain.Outcome{Failure: &domain.Failure{
		Kind:       kind,
		Message:    msg,
		StatusCode: status,
		Err:        err,
	}}
}
