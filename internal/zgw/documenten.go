package zgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// unlockSuccessStatus is the one status the Documenten API defines for a
// successful unlock. Anything else, 2xx included, is KindUnlockFailed.
const unlockSuccessStatus = http.StatusNoContent

// DocumentStub is a freshly created enkelvoudiginformatieobject before its
// binary content has been uploaded. UploadSlotURL points at the single
// bestandsdeel the API allocated for the content; Lock is the token every
// subsequent mutation of the document must carry.
type DocumentStub struct {
	URL           string
	Lock          string
	UploadSlotURL string
}

// CreateDocumentStubParams are the inputs for CreateDocumentStub.
type CreateDocumentStubParams struct {
	Informatieobjecttype string
	Bronorganisatie      string
	Titel                string
	Bestandsnaam         string
	Bestandsomvang       int64
	Auteur               string
	Taal                 string
}

type documentResponse struct {
	URL           string `json:"url"`
	Lock          string `json:"lock"`
	Bestandsdelen []struct {
		URL        string `json:"url"`
		Volgnummer int    `json:"volgnummer"`
		Omvang     int64  `json:"omvang"`
	} `json:"bestandsdelen"`
}

// ZaakInformatieObject is the relation between a document and a zaak.
type ZaakInformatieObject struct {
	URL              string `json:"url"`
	Zaak             string `json:"zaak"`
	Informatieobject string `json:"informatieobject"`
	Titel            string `json:"titel"`
}

// CreateDocumentStub creates a document without content. Because a
// bestandsomvang is declared, the API responds with a locked document and
// the bestandsdeel slot the content must be uploaded to. A response missing
// either the slot or the lock violates the upload protocol and is fatal.
func (c *Client) CreateDocumentStub(ctx context.Context, params CreateDocumentStubParams) (DocumentStub, error) {
	const op = "documenten.CreateDocumentStub"

	taal := params.Taal
	if taal == "" {
		taal = "nld"
	}

	body := map[string]any{
		"informatieobjecttype": params.Informatieobjecttype,
		"bronorganisatie":      params.Bronorganisatie,
		"creatiedatum":         time.Now().Format("2006-01-02"),
		"titel":                params.Titel,
		"auteur":               params.Auteur,
		"taal":                 taal,
		"bestandsnaam":         params.Bestandsnaam,
		"bestandsomvang":       params.Bestandsomvang,
		"status":               "definitief",
	}

	var doc documentResponse
	if err := c.doJSON(ctx, op, "POST", c.documentenBase+"/enkelvoudiginformatieobjecten", body, &doc); err != nil {
		return DocumentStub{}, err
	}

	if len(doc.Bestandsdelen) == 0 || doc.Bestandsdelen[0].URL == "" {
		return DocumentStub{}, NewError(KindProtocolViolation, op, "stub response has no bestandsdeel upload slot")
	}
	if doc.Lock == "" {
		return DocumentStub{}, NewError(KindProtocolViolation, op, "stub response has no lock token")
	}

	return DocumentStub{
		URL:           doc.URL,
		Lock:          doc.Lock,
		UploadSlotURL: doc.Bestandsdelen[0].URL,
	}, nil
}

// PutFileBytes uploads the binary content to a bestandsdeel slot as a
// multipart body carrying the content and the lock token. This step is the
// one most likely to need a retry; the client does not retry it itself.
func (c *Client) PutFileBytes(ctx context.Context, uploadSlotURL, lock string, content []byte) error {
	const op = "documenten.PutFileBytes"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("inhoud", "inhoud.bin")
	if err != nil {
		return WrapError(KindUploadFailed, op, "build multipart body", err)
	}
	if _, err := part.Write(content); err != nil {
		return WrapError(KindUploadFailed, op, "write multipart content", err)
	}
	if err := writer.WriteField("lock", lock); err != nil {
		return WrapError(KindUploadFailed, op, "write lock field", err)
	}
	if err := writer.Close(); err != nil {
		return WrapError(KindUploadFailed, op, "finalize multipart body", err)
	}

	req, err := c.newRequest(ctx, http.MethodPut, uploadSlotURL, &buf)
	if err != nil {
		return WrapError(KindUploadFailed, op, "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return WrapError(KindUploadFailed, op, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &Error{
			Kind:    KindUploadFailed,
			Op:      op,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(detail)),
		}
	}
	return nil
}

// UnlockDocument releases the lock on a fully uploaded document. Only the
// API's defined success status counts; any other outcome is KindUnlockFailed.
func (c *Client) UnlockDocument(ctx context.Context, documentURL, lock string) error {
	const op = "documenten.UnlockDocument"

	data, err := json.Marshal(map[string]any{"lock": lock})
	if err != nil {
		return WrapError(KindUnlockFailed, op, "encode request body", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, documentURL+"/unlock", bytes.NewReader(data))
	if err != nil {
		return WrapError(KindUnlockFailed, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return WrapError(KindUnlockFailed, op, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != unlockSuccessStatus {
		return NewError(KindUnlockFailed, op,
			fmt.Sprintf("expected status %d, got %d", unlockSuccessStatus, resp.StatusCode))
	}
	return nil
}

// ListZaakInformatieObjecten lists the document relations of a zaak. The
// endpoint returns a plain array, not a paginated page.
func (c *Client) ListZaakInformatieObjecten(ctx context.Context, zaakURL string) ([]ZaakInformatieObject, error) {
	const op = "documenten.ListZaakInformatieObjecten"

	params := url.Values{}
	params.Set("zaak", zaakURL)
	reqURL := c.zakenBase + "/zaakinformatieobjecten?" + params.Encode()

	var relations []ZaakInformatieObject
	if err := c.doJSON(ctx, op, "GET", reqURL, nil, &relations); err != nil {
		return nil, err
	}
	return relations, nil
}

// RelateDocumentToZaak links an unlocked document to a zaak. The relation
// must only be created after the unlock succeeded; that ordering is part of
// the Documenten API contract, not a local preference.
func (c *Client) RelateDocumentToZaak(ctx context.Context, zaakURL, documentURL, titel string) (ZaakInformatieObject, error) {
	const op = "documenten.RelateDocumentToZaak"

	body := map[string]any{
		"zaak":             zaakURL,
		"informatieobject": documentURL,
		"titel":            titel,
	}

	var relation ZaakInformatieObject
	if err := c.doJSON(ctx, op, "POST", c.zakenBase+"/zaakinformatieobjecten", body, &relation); err != nil {
		return ZaakInformatieObject{}, err
	}

	if relation.URL == "" {
		return ZaakInformatieObject{}, NewError(KindRelateFailed, op, "relation response has no url")
	}
	return relation, nil
}
