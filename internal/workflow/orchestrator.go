// Package workflow owns the upload, compress and result lifecycle: which
// file is selected, whether a request is in flight, and what the user sees
// when it ends.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/compressor"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/presenter"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/progress"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/selector"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/target"
)

var (
	ErrBusy           = errors.New("a compression is already in progress")
	ErrNoSelection    = errors.New("no file selected")
	ErrUnknownRequest = errors.New("request is not in flight")
)

const (
	msgNoSelection = "Please select a PDF file first."
	msgCompressing = "Compressing…"
	msgDone        = "Done."
)

// State is a copy of what the UI renders.
type State struct {
	UI            domain.UIState
	Selected      *domain.SelectedFile
	Label         string
	Result        *presenter.Presentation
	Failure       *domain.Failure
	Notice        string
	Progress      float64
	SubmitEnabled bool
}

type Option func(*Orchestrator)

func WithConstraints(c selector.Constraints) Option {
	return func(o *Orchestrator) {
		o.constraints = c
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator replaces the request id source.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// Orchestrator is the only writer of the UI state, the selection binding and
// the progress token. It is safe for concurrent use; at most one request is
// in flight at any time.
type Orchestrator struct {
	mu         sync.Mutex
	ui         domain.UIState
	selected   *domain.SelectedFile
	token      progress.Token
	inflight   *domain.CompressionRequest
	result     *presenter.Presentation
	failure    *domain.Failure
	notice     string

	constraints selector.Constraints
	service     compressor.Service
	animator    *progress.Animator
	presenter   *presenter.Presenter
	logger      log.Logger
	newID       func() string
}

func New(service compressor.Service, animator *progress.Animator, pres *presenter.Presenter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ui:          domain.Idle,
		constraints: selector.DefaultConstraints(),
		service:     service,
		animator:    animator,
		presenter:   pres,
		logger:      log.NewNopLogger(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectPath inspects a local file and offers it for selection.
func (o *Orchestrator) SelectPath(path string, origin selector.Origin) (domain.SelectedFile, error) {
	if o.busy() {
		level.Info(o.logger).Log("msg", "selection ignored while compressing", "path", path, "origin", origin)
		return domain.SelectedFile{}, ErrBusy
	}
	c, err := selector.Inspect(path, origin)
	if err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.ui == domain.Compressing {
			return domain.SelectedFile{}, ErrBusy
		}
		o.rejectLocked(err, origin)
		return domain.SelectedFile{}, err
	}
	return o.Select(c)
}

// Select validates c and makes it the current selection. A rejected
// candidate clears the selection. Selections are ignored while a request is
// in flight.
func (o *Orchestrator) Select(c selector.Candidate) (domain.SelectedFile, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ui == domain.Compressing {
		level.Info(o.logger).Log("msg", "selection ignored while compressing", "file", c.Name, "origin", c.Origin)
		return domain.SelectedFile{}, ErrBusy
	}

	f, err := selector.Select(c, o.constraints)
	if err != nil {
		o.rejectLocked(err, c.Origin)
		return domain.SelectedFile{}, err
	}

	o.selected = &f
	o.failure = nil
	o.notice = selector.Label(f)
	o.transitionLocked(domain.FileSelected)

	level.Info(o.logger).Log("msg", "file selected", "file", f.Name, "size", f.SizeBytes, "origin", c.Origin)
	return f, nil
}

// Dismiss closes the result or error panel.
func (o *Orchestrator) Dismiss() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ui != domain.ResultReady && o.ui != domain.Failed {
		return
	}
	o.failure = nil
	o.notice = ""
	if o.selected != nil {
		o.transitionLocked(domain.FileSelected)
	} else {
		o.transitionLocked(domain.Idle)
	}
}

// Begin enters Compressing for the current selection and starts the
// progress animation. The returned request must be passed to Await.
func (o *Orchestrator) Begin(targetKb int) (domain.CompressionRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ui == domain.Compressing {
		return domain.CompressionRequest{}, ErrBusy
	}
	if o.selected == nil {
		o.noticeLocked(msgNoSelection, ErrNoSelection)
		return domain.CompressionRequest{}, ErrNoSelection
	}
	if targetKb < domain.MinTargetKb {
		err := &target.ValidationError{Input: fmt.Sprint(targetKb)}
		o.noticeLocked(err.Error(), err)
		return domain.CompressionRequest{}, err
	}

	// the file may have changed on disk since it was selected
	c, err := selector.Inspect(o.selected.Path, selector.OriginPick)
	if err == nil {
		var fresh domain.SelectedFile
		fresh, err = selector.Select(c, o.constraints)
		if err == nil {
			fresh.Name = o.selected.Name
			o.selected = &fresh
		}
	}
	if err != nil {
		o.rejectLocked(err, selector.OriginPick)
		return domain.CompressionRequest{}, err
	}

	req := domain.CompressionRequest{
		ID:         o.newID(),
		File:       *o.selected,
		TargetKb:   targetKb,
	}
	o.inflight = &req
	o.failure = nil
	o.notice = msgCompressing

	if o.token != 0 {
		o.animator.Cancel(o.token)
	}
	o.token = o.animator.Start()
	o.transitionLocked(domain.Compressing)

	return req, nil
}

// Await sends req and completes the lifecycle started by Begin. The progress
// animation is stopped on every path.
func (o *Orchestrator) Await(ctx context.Context, req domain.CompressionRequest) domain.Outcome {
	o.mu.Lock()
	if o.inflight == nil || o.inflight.ID != req.ID {
		o.mu.Unlock()
		return failure(domain.Unexpected, MsgUnexpected, 0, ErrUnknownRequest)
	}
	o.mu.Unlock()

	resp, err := o.service.Compress(ctx, req)
	out := Classify(resp.StatusCode, resp.Body, err)

	var pr *presenter.Presentation
	if out.OK() {
		p, perr := o.presenter.Present(req.File, req.TargetKb, out.Success.Data)
		if perr != nil {
			out = failure(domain.Unexpected, "Could not store the compressed file.", resp.StatusCode, perr)
		} else {
			out.Success.FileName = p.FileName
			out.Success.Download = p.Artifact
			pr = &p
		}
	}

	o.mu.Lock()
	o.completeLocked(req, out, pr)
	o.mu.Unlock()

	return out
}

// Submit runs Begin and Await. The error is non-nil only when no request
// was started.
func (o *Orchestrator) Submit(ctx context.Context, targetKb int) (domain.Outcome, error) {
	req, err := o.Begin(targetKb)
	if err != nil {
		return domain.Outcome{}, err
	}
	return o.Await(ctx, req), nil
}

// SubmitRaw validates user input before submitting.
func (o *Orchestrator) SubmitRaw(ctx context.Context, rawTarget string) (domain.Outcome, error) {
	kb, err := o.ParseTarget(rawTarget)
	if err != nil {
		return domain.Outcome{}, err
	}
	return o.Submit(ctx, kb)
}

// ParseTarget validates the entered target and records the rejection as
// the current notice. It returns ErrBusy while a request is in flight.
func (o *Orchestrator) ParseTarget(raw string) (int, error) {
	kb, err := target.Validate(raw)
	if err == nil {
		return kb, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ui == domain.Compressing {
		return 0, ErrBusy
	}
	o.noticeLocked(err.Error(), err)
	return 0, err
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := State{
		UI:            o.ui,
		Notice:        o.notice,
		Progress:      o.animator.Percent(),
		SubmitEnabled: o.ui != domain.Compressing,
	}
	if o.selected != nil {
		f := *o.selected
		st.Selected = &f
		st.Label = selector.Label(f)
	}
	if o.result != nil {
		r := *o.result
		st.Result = &r
	}
	if o.failure != nil {
		f := *o.failure
		st.Failure = &f
	}
	return st
}

// Save stores the current result in dir.
func (o *Orchestrator) Save(dir string) (string, error) {
	return o.presenter.Save(dir)
}

func (o *Orchestrator) busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ui == domain.Compressing
}

func (o *Orchestrator) completeLocked(req domain.CompressionRequest, out domain.Outcome, pr *presenter.Presentation) {
	if out.OK() {
		o.animator.Finish(o.token)
	} else {
		o.animator.Cancel(o.token)
	}
	o.token = 0
	o.inflight = nil

	if out.OK() {
		o.result = pr
		o.failure = nil
		o.notice = msgDone
		o.transitionLocked(domain.ResultReady)
		level.Info(o.logger).Log("msg", "compression succeeded",
			"request_id", req.ID,
			"file", out.Success.FileName,
			"compressed_bytes", out.Success.CompressedSizeBytes,
		)
		return
	}

	f := *out.Failure
	o.failure = &f
	o.notice = f.Message
	o.transitionLocked(domain.Failed)
	level.Error(o.logger).Log("msg", "compression failed",
		"request_id", req.ID,
		"kind", f.Kind,
		"status", f.StatusCode,
		"err", f.Err,
	)
}

func (o *Orchestrator) rejectLocked(err error, origin selector.Origin) {
	o.selected = nil
	o.noticeLocked(err.Error(), err)
	o.transitionLocked(domain.Idle)
	level.Warn(o.logger).Log("msg", "selection rejected", "origin", origin, "err", err)
}

func (o *Orchestrator) noticeLocked(msg string, err error) {
	o.notice = msg
	o.failure = &domain.Failure{Kind: domain.ValidationError, Message: msg, Err: err}
}

func (o *Orchestrator) transitionLocked(to domain.UIState) {
	if o.ui == to {
		return
	}
	level.Debug(o.logger).Log("msg", "state transition", "from", o.ui, "to", to)
	o.ui = to
}
