package extract

import (
	"strings"

	"docgarden/features/job"
)

// DetectType maps an HTTP Content-Type header to a document type.
func DetectType(contentType string) job.DocumentType {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"):
		return job.TypeHTML
	case strings.Contains(ct, "application/pdf"):
		return job.TypePDF
	default:
		return job.TypeUnknown
	}
}
