// Package forwarder projects stored form submissions into the external
// Zaken and Documenten APIs. The external system is the sole source of
// truth for idempotency: every invocation inspects the current zaak state
// and performs only the missing steps.
package forwarder

import (
	"context"
	"fmt"

	"zaakbrug_backend/internal/events"
	"zaakbrug_backend/internal/forwarder/casetypes"
	"zaakbrug_backend/internal/forwarder/documents"
	"zaakbrug_backend/internal/submissions"
	"zaakbrug_backend/internal/submissions/repository"
	"zaakbrug_backend/internal/zgw"
	"zaakbrug_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds the attachment fan-out.
const uploadConcurrency = 5

// ZakenAPI is the slice of the ZGW client the orchestrator uses directly.
type ZakenAPI interface {
	GetZaak(ctx context.Context, zaakURL string) (zgw.Zaak, error)
	GetZaakByIdentification(ctx context.Context, identificatie string) (zgw.Zaak, error)
	CreateZaak(ctx context.Context, params zgw.CreateZaakParams) (zgw.Zaak, error)
	AddStatus(ctx context.Context, zaakURL, statustype, toelichting string) (zgw.Status, error)
	AddZaakProperty(ctx context.Context, zaakURL, eigenschap, waarde string) (zgw.Eigenschap, error)
	ListZaakInformatieObjecten(ctx context.Context, zaakURL string) ([]zgw.ZaakInformatieObject, error)
}

// ReferenceStore is the fast-path idempotency record.
type ReferenceStore interface {
	Set(ctx context.Context, submissionKey, zaakURL string) error
	Get(ctx context.Context, submissionKey string) (string, bool, error)
}

// SubmissionReader loads submission metadata.
type SubmissionReader interface {
	GetByKey(ctx context.Context, key string) (submissions.Submission, error)
}

// AttemptRecorder writes the forward-attempt audit trail.
type AttemptRecorder interface {
	RecordForwardAttempt(ctx context.Context, params repository.RecordForwardAttemptParams) (repository.ForwardAttempt, error)
}

// PayloadStore reads submission content and file bytes from object storage.
type PayloadStore interface {
	GetSubmissionJSON(ctx context.Context, key string) (map[string]any, error)
	GetPDF(ctx context.Context, pdfKey string) ([]byte, error)
	GetAttachment(ctx context.Context, submissionKey, name string) ([]byte, string, error)
}

// RoleAssigner creates the initiator rol.
type RoleAssigner interface {
	EnsureRole(ctx context.Context, zaak zgw.Zaak, sub submissions.Submission, props casetypes.Properties) error
}

// DocumentUploader attaches one file to one zaak.
type DocumentUploader interface {
	Upload(ctx context.Context, zaakURL string, file documents.File) error
}

// Orchestrator coordinates one forwarding invocation per submission event.
//
// Known race, by design of the at-least-once delivery model: two truly
// concurrent invocations for the same submission key can both pass the
// not-found check and create two zaken. There is no distributed lock; the
// task queue's per-key task IDs deduplicate the common duplicate-enqueue
// path, and that is the only guard.
type Orchestrator struct {
	resolver *casetypes.Resolver
	branch   string
	zaken    ZakenAPI
	refs     ReferenceStore
	repo     SubmissionReader
	attempts AttemptRecorder
	payloads PayloadStore
	assigner RoleAssigner
	uploader DocumentUploader
	bus      events.Bus
	log      *logger.Logger
}

// New creates an orchestrator. The case-type resolver is loaded and
// validated by the caller at process start.
func New(
	resolver *casetypes.Resolver,
	branch string,
	zaken ZakenAPI,
	refs ReferenceStore,
	repo SubmissionReader,
	attempts AttemptRecorder,
	payloads PayloadStore,
	assigner RoleAssigner,
	uploader DocumentUploader,
	bus events.Bus,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		branch:   branch,
		zaken:    zaken,
		refs:     refs,
		repo:     repo,
		attempts: attempts,
		payloads: payloads,
		assigner: assigner,
		uploader: uploader,
		bus:      bus,
		log:      log,
	}
}

// Forward runs the state machine for one submission key. It returns an
// error when the task queue should redeliver; nil means the zaak is
// complete (or was already complete).
func (o *Orchestrator) Forward(ctx context.Context, submissionKey string) error {
	log := o.log.WithSubmissionKey(submissionKey)

	state := StateIdempotencyCheck
	zaakURL := ""

	err := o.forward(ctx, log, submissionKey, &state, &zaakURL)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		log.ForwardError(submissionKey, state.String(), err)
	}
	if _, auditErr := o.attempts.RecordForwardAttempt(ctx, repository.RecordForwardAttemptParams{
		SubmissionKey: submissionKey,
		StateReached:  state.String(),
		ZaakURL:       zaakURL,
		ErrorMessage:  errMsg,
	}); auditErr != nil {
		log.DatabaseError("record forward attempt", auditErr)
	}

	if err != nil {
		o.bus.Publish(ctx, events.ZaakForwardingFailed{
			BaseEvent:     events.NewBaseEvent(),
			SubmissionKey: submissionKey,
			StateReached:  state.String(),
			Error:         errMsg,
		})
	}
	return err
}

func (o *Orchestrator) forward(ctx context.Context, log *logger.Logger, submissionKey string, state *State, zaakURL *string) error {
	// Everything up to and including zaak creation is fatal on error: no
	// local state is recorded and the event is redelivered.
	sub, err := o.repo.GetByKey(ctx, submissionKey)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}

	props, err := o.resolveProperties(sub)
	if err != nil {
		return err
	}

	snap, err := o.idempotencyCheck(ctx, log, submissionKey)
	if err != nil {
		return err
	}

	*state = StateCreateOrReuse
	if snap == nil {
		snap, err = o.createZaak(ctx, log, sub, props)
		if err != nil {
			return err
		}
	}
	snap.attachments = len(sub.AttachmentNames)
	*zaakURL = snap.zaak.URL

	for *state = nextState(*state, *snap); *state != StateDone; *state = nextState(*state, *snap) {
		switch *state {
		case StateEnsureStatus:
			o.ensureStatus(ctx, log, sub, props, snap.zaak)
		case StateEnsureRole:
			if err := o.ensureRole(ctx, sub, props, snap.zaak); err != nil {
				return err
			}
		case StateEnsureDocuments:
			if err := o.ensureDocuments(ctx, log, sub, props, snap.zaak); err != nil {
				return err
			}
		}
	}

	log.Info("submission forwarded", "zaak", snap.zaak.URL, "reused", snap.reused)
	o.bus.Publish(ctx, events.ZaakForwarded{
		BaseEvent:     events.NewBaseEvent(),
		SubmissionKey: submissionKey,
		ZaakURL:       snap.zaak.URL,
		Reused:        snap.reused,
	})
	return nil
}

func (o *Orchestrator) resolveProperties(sub submissions.Submission) (casetypes.Properties, error) {
	sel := casetypes.Selector{AppID: sub.AppID}
	if sub.AppID == "" {
		sel = casetypes.Selector{FormName: sub.FormName}
	}
	return o.resolver.Resolve(o.branch, sel)
}

// idempotencyCheck returns the existing zaak snapshot, or nil when the
// zaak must still be created. The reference store is the fast path; the
// identification lookup against the Zaken API is authoritative.
func (o *Orchestrator) idempotencyCheck(ctx context.Context, log *logger.Logger, submissionKey string) (*snapshot, error) {
	zaakURL, found, err := o.refs.Get(ctx, submissionKey)
	if err != nil {
		return nil, fmt.Errorf("reference store lookup: %w", err)
	}
	if found {
		zaak, err := o.zaken.GetZaak(ctx, zaakURL)
		if err != nil {
			return nil, err
		}
		log.Info("reusing zaak from reference store", "zaak", zaak.URL)
		return &snapshot{zaak: zaak, reused: true}, nil
	}

	zaak, err := o.zaken.GetZaakByIdentification(ctx, submissionKey)
	if err != nil {
		if zgw.IsZaakNotFound(err) {
			// Expected happy path: nothing exists yet, proceed to create.
			return nil, nil
		}
		return nil, err
	}

	log.Info("reusing zaak found by identification", "zaak", zaak.URL)
	return &snapshot{zaak: zaak, reused: true}, nil
}

// createZaak creates the zaak and immediately persists the reference,
// before any subsequent step, so a retry after a later failure
// short-circuits straight past creation.
func (o *Orchestrator) createZaak(ctx context.Context, log *logger.Logger, sub submissions.Submission, props casetypes.Properties) (*snapshot, error) {
	identificatie := sub.Key
	if props.UseServerIdentification {
		identificatie = ""
	}

	zaak, err := o.zaken.CreateZaak(ctx, zgw.CreateZaakParams{
		Identificatie:       identificatie,
		Bronorganisatie:     props.Bronorganisatie,
		Zaaktype:            props.Zaaktype,
		Omschrijving:        sub.FormTitle,
		Toelichting:         "Aanvraag via formulier " + sub.FormName,
		ProductenOfDiensten: []string{props.ProductOfDienst},
	})
	if err != nil {
		return nil, err
	}

	if err := o.refs.Set(ctx, sub.Key, zaak.URL); err != nil {
		// The reference write must happen before any later step; without
		// it a crash would leave the fast path cold. The identification
		// lookup still prevents a duplicate zaak on the next delivery.
		return nil, fmt.Errorf("persist zaak reference: %w", err)
	}

	log.Info("zaak created", "zaak", zaak.URL, "identificatie", zaak.Identificatie)
	return &snapshot{zaak: zaak}, nil
}

// ensureStatus sets the initial status and, when configured, the form
// reference property. Failures here are logged and never fatal: a zaak
// without a status is still usable for documents.
func (o *Orchestrator) ensureStatus(ctx context.Context, log *logger.Logger, sub submissions.Submission, props casetypes.Properties, zaak zgw.Zaak) {
	if _, err := o.zaken.AddStatus(ctx, zaak.URL, props.Statustype, "Aanvraag ontvangen"); err != nil {
		log.Warn("set status failed, continuing", "zaak", zaak.URL, "error", err)
	}

	if props.FormReferenceEigenschap == "" {
		return
	}
	if _, err := o.zaken.AddZaakProperty(ctx, zaak.URL, props.FormReferenceEigenschap, sub.Key); err != nil {
		log.Warn("set form reference property failed, continuing", "zaak", zaak.URL, "error", err)
	}
}

// ensureRole creates the initiator rol. Only reached when the snapshot
// shows zero roles.
func (o *Orchestrator) ensureRole(ctx context.Context, sub submissions.Submission, props casetypes.Properties, zaak zgw.Zaak) error {
	if sub.Content == nil {
		content, err := o.payloads.GetSubmissionJSON(ctx, sub.Key)
		if err != nil {
			return fmt.Errorf("load submission content: %w", err)
		}
		sub.Content = content
	}
	return o.assigner.EnsureRole(ctx, zaak, sub, props)
}

// ensureDocuments uploads the rendered PDF first, then every attachment
// concurrently. Documents already related to the zaak are skipped by
// title, so a redelivered event revisits only the still-missing ones. All
// remaining uploads must succeed; a single failure fails the invocation.
func (o *Orchestrator) ensureDocuments(ctx context.Context, log *logger.Logger, sub submissions.Submission, props casetypes.Properties, zaak zgw.Zaak) error {
	related, err := o.relatedTitles(ctx, zaak)
	if err != nil {
		return err
	}

	var uploaded int
	pdfName := sub.Key + ".pdf"
	if !related[pdfName] {
		uploaded++
		pdfBytes, err := o.payloads.GetPDF(ctx, sub.PDFKey)
		if err != nil {
			return fmt.Errorf("load submission pdf: %w", err)
		}
		if err := o.uploader.Upload(ctx, zaak.URL, documents.File{
			Name:                 pdfName,
			Content:              pdfBytes,
			Informatieobjecttype: props.Informatieobjecttypen.Aanvraag,
			Bronorganisatie:      props.Bronorganisatie,
		}); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for _, name := range sub.AttachmentNames {
		if related[name] {
			continue
		}
		uploaded++
		name := name
		g.Go(func() error {
			content, _, err := o.payloads.GetAttachment(gctx, sub.Key, name)
			if err != nil {
				return fmt.Errorf("load attachment %s: %w", name, err)
			}
			return o.uploader.Upload(gctx, zaak.URL, documents.File{
				Name:                 name,
				Content:              content,
				Informatieobjecttype: props.Informatieobjecttypen.Bijlage,
				Bronorganisatie:      props.Bronorganisatie,
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("documents uploaded", "zaak", zaak.URL, "uploaded", uploaded, "skipped", len(related))
	return nil
}

// relatedTitles returns the titles of documents already related to the
// zaak. Skipped entirely when the snapshot shows no relations.
func (o *Orchestrator) relatedTitles(ctx context.Context, zaak zgw.Zaak) (map[string]bool, error) {
	titles := make(map[string]bool)
	if len(zaak.Zaakinformatieobjecten) == 0 {
		return titles, nil
	}

	relations, err := o.zaken.ListZaakInformatieObjecten(ctx, zaak.URL)
	if err != nil {
		return nil, fmt.Errorf("list related documents: %w", err)
	}
	for _, rel := range relations {
		titles[rel.Titel] = true
	}
	return titles, nil
}
