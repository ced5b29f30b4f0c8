package insights

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Upload statuses.
const (
	UploadUploading  = "uploading"
	UploadProcessing = "processing"
	UploadCompleted  = "completed"
	UploadFailed     = "error"
)

// UploadStep is the progress added per simulated step, UploadSteps the number
// of steps from a fresh upload to completed.
const (
	UploadStep  = 10
	UploadSteps = 100/UploadStep + 2
)

// ErrUploadNotFound is returned when an upload id is unknown.
var ErrUploadNotFound = errors.New("insights: upload not found")

// Upload is one document moving through the upload pipeline.
type Upload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      string    `json:"size"`
	Type      string    `json:"type"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	StartedAt time.Time `json:"started_at"`
}

// NewUpload returns an upload at zero progress.
func NewUpload(id, name, mime string, bytes int64, at time.Time) Upload {
	return Upload{
		ID:        id,
		Name:      name,
		Size:      FormatFileSize(bytes),
		Type:      mime,
		Kind:      FileKind(mime),
		Status:    UploadUploading,
		StartedAt: at,
	}
}

// Advance moves the upload one step: progress first, then processing, then
// completed. Finished and failed uploads do not change.
func (u Upload) Advance() Upload {
	switch {
	case u.Status != UploadUploading && u.Status != UploadProcessing:
	case u.Progress < 100:
		u.Progress = min(u.Progress+UploadStep, 100)
	case u.Status == UploadUploading:
		u.Status = UploadProcessing
	default:
		u.Status = UploadCompleted
		u.Progress = 100
	}
	return u
}

// AdvanceBy applies n steps.
func (u Upload) AdvanceBy(n int) Upload {
	for i := 0; i < n; i++ {
		u = u.Advance()
	}
	return u
}

// Done reports whether the upload reached a final status.
func (u Upload) Done() bool {
	return u.Status == UploadCompleted || u.Status == UploadFailed
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders bytes with a binary unit and at most two decimals.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	value, unit := float64(bytes), 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[unit]
}

// FileKind buckets a MIME type into image, archive or document.
func FileKind(mime string) string {
	switch {
	case strings.Contains(mime, "image"):
		return "image"
	case strings.Contains(mime, "archive"), strings.Contains(mime, "zip"):
		return "archive"
	default:
		return "document"
	}
}

// UploadQueue is the upload hub view model, oldest first.
type UploadQueue struct {
	Uploads []Upload `json:"uploads"`
}

// Add returns a copy of the queue with u appended.
func (q UploadQueue) Add(u Upload) UploadQueue {
	out := UploadQueue{Uploads: make([]Upload, 0, len(q.Uploads)+1)}
	out.Uploads = append(out.Uploads, q.Uploads...)
	out.Uploads = append(out.Uploads, u)
	return out
}

// Replace returns a copy of the queue with the upload of the same id swapped for u.
func (q UploadQueue) Replace(u Upload) (UploadQueue, error) {
	out := UploadQueue{Uploads: append([]Upload(nil), q.Uploads...)}
	for i := range out.Uploads {
		if out.Uploads[i].ID == u.ID {
			out.Uploads[i] = u
			return out, nil
		}
	}
	return q, ErrUploadNotFound
}

// Upload returns the upload with id.
func (q UploadQueue) Upload(id string) (Upload, bool) {
	for _, u := range q.Uploads {
		if u.ID == id {
			return u, true
		}
	}
	return Upload{}, false
}

// Counts tallies uploads per status.
func (q UploadQueue) Counts() map[string]int {
	counts := map[string]int{}
	for _, u := range q.Uploads {
		counts[u.Status]++
	}
	return counts
}
