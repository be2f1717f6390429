// Package submissions holds the read-only view of stored form submissions
// and the audit trail of forwarding attempts. Submissions are produced by
// the intake pipeline and are immutable here.
package submissions

import "fmt"

// SubmitterType distinguishes the identity behind a submission.
type SubmitterType string

const (
	SubmitterPerson       SubmitterType = "person"
	SubmitterOrganisation SubmitterType = "organisation"
	SubmitterAnonymous    SubmitterType = "anonymous"
)

// ParseSubmitterType rejects unknown submitter types. The worker calls
// this before any external call is made.
func ParseSubmitterType(value string) (SubmitterType, error) {
	switch SubmitterType(value) {
	case SubmitterPerson, SubmitterOrganisation, SubmitterAnonymous:
		return SubmitterType(value), nil
	default:
		return "", fmt.Errorf("unknown submitter type %q", value)
	}
}

// Submission is the metadata of one stored form submission.
type Submission struct {
	// Key is the business reference, e.g. "R01.123". It doubles as the
	// zaak identificatie for idempotent creation.
	Key string
	// SubmitterID is the BSN for persons, the KvK number for organisations,
	// empty for anonymous submissions.
	SubmitterID   string
	SubmitterType SubmitterType
	AppID         string
	FormName      string
	FormTitle     string
	// AttachmentNames lists the uploaded files, excluding the rendered
	// submission PDF.
	AttachmentNames []string
	// PDFKey is the object key of the rendered submission PDF.
	PDFKey string
	// Content is the raw submission JSON, loaded on demand from object
	// storage. Used only for best-effort contact extraction.
	Content map[string]any
}
