package evidence

import "time"

// Evidence is a metadata record for a file attached to a compliance task.
// The binary itself lives in external storage; the core keeps the
// checksum and enough context for an auditor to trace it.
type Evidence struct {
	ID          string    `json:"id"`
	TaskID      int64     `json:"taskId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	SHA256      string    `json:"sha256"`
	Note        string    `json:"note"`
	UploadedBy  int64     `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}
