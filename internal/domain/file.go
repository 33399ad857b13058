package domain

// Limits shared with the remote compression service.
const (
	// MaxUploadBytes is the largest payload the service accepts.
	MaxUploadBytes = 8 * 1024 * 1024
	// MinTargetKb is the smallest target the service can produce useful output for.
	MinTargetKb = 20
	// PDFMIMEType is the only accepted media type.
	PDFMIMEType = "application/pdf"
)

// SelectedFile is the currently selected local PDF.
type SelectedFile struct {
	Name      string
	Path      string
	SizeBytes int64
	MIMEType  string
}

// CompressionRequest exists only for the duration of one submission.
type CompressionRequest struct {
	ID       string
	File     SelectedFile
	TargetKb int
}
