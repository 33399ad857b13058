// Package stubserver is a local stand-in for the compression service. It
// speaks the same protocol and enforces the same upload limits but does not
// compress anything itself.
package stubserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/presenter"
)

const defaultTargetKb = 100

// Behavior decides the response for an accepted upload.
type Behavior func(name string, data []byte, targetKb int) (status int, body []byte)

// Echo returns the upload unchanged.
func Echo(_ string, data []byte, _ int) (int, []byte) {
	return http.StatusOK, data
}

// Status always answers with the given status code.
func Status(code int) Behavior {
	return func(string, []byte, int) (int, []byte) {
		return code, []byte(http.StatusText(code))
	}
}

func NewRouter(b Behavior, logger log.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/pdf/compress", CompressHandler(b, logger)).Methods(http.MethodPost)
	return r
}

func NewHTTPServer(addr string, b Behavior, logger log.Logger) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewRouter(b, logger),
	}
}

func CompressHandler(b Behavior, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")

		targetKb := defaultTargetKb
		if raw := r.URL.Query().Get("targetKb"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				writeErr(w, errors.New("targetKb must be an integer"), http.StatusBadRequest)
				return
			}
			targetKb = v
		}

		// leave room for the multipart envelope around the file
		r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes+64*1024)

		file, header, err := r.FormFile("file")
		if err != nil {
			var mbErr *http.MaxBytesError
			if errors.As(err, &mbErr) || strings.Contains(err.Error(), "request body too large") {
				writeErr(w, errors.New("File too large. Max allowed is 8 MB on this server."), http.StatusRequestEntityTooLarge)
				return
			}
			level.Error(logger).Log("msg", "FormFile error", "request_id", requestID, "err", err)
			writeErr(w, errors.New("No file uploaded."), http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			level.Error(logger).Log("msg", "read upload", "request_id", requestID, "err", err)
			writeErr(w, err, http.StatusInternalServerError)
			return
		}
		if len(data) == 0 {
			writeErr(w, errors.New("No file uploaded."), http.StatusBadRequest)
			return
		}
		if len(data) > domain.MaxUploadBytes {
			writeErr(w, errors.New("File too large. Max allowed is 8 MB on this server."), http.StatusRequestEntityTooLarge)
			return
		}

		status, body := b(header.Filename, data, targetKb)

		level.Info(logger).Log("msg", "compression handled",
			"request_id", requestID,
			"file", header.Filename,
			"target_kb", targetKb,
			"status", status,
		)

		if status < 200 || status > 299 {
			writeErr(w, errors.New(string(body)), status)
			return
		}

		w.Header().Set("Content-Type", domain.PDFMIMEType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(header.Filename)))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(status)
		if _, err = w.Write(body); err != nil {
			level.Error(logger).Log("msg", "error body write", "request_id", requestID, "err", err)
		}
	}
}

func downloadName(name string) string {
	if name == "" {
		name = "document.pdf"
	}
	return presenter.DownloadName(name)
}

func writeErr(w http.ResponseWriter, err error, status int) {
	w.WriteHeader(status)
	_, err = w.Write([]byte(err.Error()))
	if err != nil {
		fmt.Println("can't write response ", err)
	}
}
