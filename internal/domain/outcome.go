package domain

import "fmt"

type FailureKind int

const (
	ValidationError FailureKind = iota
	TooLarge
	ServerError
	TransportError
	Unexpected
)

func (k FailureKind) String() string {
	switch k {
	case ValidationError:
		return "validation"
	case TooLarge:
		return "too_large"
	case ServerError:
		return "server_error"
	case TransportError:
		return "transport"
	case Unexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Success carries the compressed payload as opaque bytes.
type Success struct {
	CompressedSizeBytes int64
	FileName            string
	Data                []byte
	// Download is the local reference to the stored result, set once presented.
	Download string
}

// Failure is a classified, user-presentable error.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome holds exactly one of Success or Failure.
type Outcome struct {
	Success *Success
	Failure *Failure
}

func (o Outcome) OK() bool {
	return o.Success != nil
}

// UIState is the state of the upload workflow.
type UIState int

const (
	Idle UIState = iota
	FileSelected
	Compressing
	ResultReady
	Failed
)

func (s UIState) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file_selected"
	case Compressing:
		return "compressing"
	case ResultReady:
		return "result_ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
