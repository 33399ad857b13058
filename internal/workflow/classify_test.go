package workflow

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/compressor"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    []byte
		err     error
		kind    domain.FailureKind
		message string
	}{
		{name: "too large", status: http.StatusRequestEntityTooLarge, kind: domain.TooLarge, message: MsgTooLarge},
		{name: "server error", status: http.StatusInternalServerError, kind: domain.ServerError, message: MsgServerError},
		{name: "bad request", status: http.StatusBadRequest, kind: domain.Unexpected, message: MsgUnexpected},
		{name: "bad gateway", status: http.StatusBadGateway, kind: domain.Unexpected, message: MsgUnexpected},
		{name: "redirect", status: http.StatusFound, kind: domain.Unexpected, message: MsgUnexpected},
		{name: "transport", err: errors.New("connection refused"), kind: domain.TransportError, message: MsgTransport},
		{name: "oversized response", status: http.StatusOK, err: fmt.Errorf("read: %w", compressor.ErrResponseTooLarge), kind: domain.Unexpected, message: MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.status, tt.body, tt.err)
			require.False(t, out.OK())
			require.NotNil(t, out.Failure)
			assert.Equal(t, tt.kind, out.Failure.Kind)
			assert.Equal(t, tt.message, out.Failure.Message)
		})
	}
}

func TestClassify_SuccessUsesPayloadLength(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, 299} {
		out := Classify(status, []byte("12345"), nil)
		require.True(t, out.OK())
		assert.Equal(t, int64(5), out.Success.CompressedSizeBytes)
		assert.Equal(t, []byte("12345"), out.Success.Data)
	}
}

func TestServerErrorSuggestsHigherTarget(t *testing.T) {
	assert.Contains(t, MsgServerError, "increasing target")
	assert.Contains(t, MsgTooLarge, "too large")
}
