// Package documents attaches binary files to a zaak via the Documenten
// API's multi-step bestandsdelen protocol.
package documents

import (
	"context"

	"zaakbrug_backend/internal/zgw"
	"zaakbrug_backend/platform/logger"
)

// DocumentAPI is the slice of the ZGW client the uploader needs.
type DocumentAPI interface {
	CreateDocumentStub(ctx context.Context, params zgw.CreateDocumentStubParams) (zgw.DocumentStub, error)
	PutFileBytes(ctx context.Context, uploadSlotURL, lock string, content []byte) error
	UnlockDocument(ctx context.Context, documentURL, lock string) error
	RelateDocumentToZaak(ctx context.Context, zaakURL, documentURL, titel string) (zgw.ZaakInformatieObject, error)
}

// Uploader attaches one file to one zaak. It follows the protocol order
// the Documenten API requires: stub, upload, unlock, relate. It never
// retries internally; the caller decides whether a failed upload is worth
// another invocation.
type Uploader struct {
	api DocumentAPI
	log *logger.Logger
}

// File is the input for one upload.
type File struct {
	Name                 string
	Content              []byte
	Informatieobjecttype string
	Bronorganisatie      string
}

// New creates a document uploader.
func New(api DocumentAPI, log *logger.Logger) *Uploader {
	return &Uploader{api: api, log: log}
}

// Upload runs the full protocol for one file. Any failure aborts this
// upload only; sibling uploads run independently. A failure after the stub
// was created leaves an orphaned, possibly locked document behind; it is
// logged so operators can sweep it, and a later retry starts over from a
// fresh stub.
func (u *Uploader) Upload(ctx context.Context, zaakURL string, file File) error {
	stub, err := u.api.CreateDocumentStub(ctx, zgw.CreateDocumentStubParams{
		Informatieobjecttype: file.Informatieobjecttype,
		Bronorganisatie:      file.Bronorganisatie,
		Titel:                file.Name,
		Bestandsnaam:         file.Name,
		Bestandsomvang:       int64(len(file.Content)),
		Auteur:               "zaakbrug",
	})
	if err != nil {
		return err
	}

	if err := u.api.PutFileBytes(ctx, stub.UploadSlotURL, stub.Lock, file.Content); err != nil {
		u.log.Warn("upload failed, document stub left behind",
			"zaak", zaakURL, "file", file.Name, "stub", stub.URL, "error", err)
		return err
	}

	if err := u.api.UnlockDocument(ctx, stub.URL, stub.Lock); err != nil {
		u.log.Warn("unlock failed, document left locked",
			"zaak", zaakURL, "file", file.Name, "stub", stub.URL, "error", err)
		return err
	}

	relation, err := u.api.RelateDocumentToZaak(ctx, zaakURL, stub.URL, file.Name)
	if err != nil {
		return err
	}

	u.log.Info("document related to zaak",
		"zaak", zaakURL, "file", file.Name, "document", stub.URL, "relation", relation.URL)
	return nil
}
