package forwarder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"zaakbrug_backend/internal/events"
	"zaakbrug_backend/internal/forwarder/casetypes"
	"zaakbrug_backend/internal/forwarder/documents"
	"zaakbrug_backend/internal/submissions"
	"zaakbrug_backend/internal/submissions/repository"
	"zaakbrug_backend/internal/zgw"
	"zaakbrug_backend/platform/logger"
)

// fakeZaken is an in-memory Zaken API double. The zaak snapshot returned
// by lookups reflects roles and relations added through it.
type fakeZaken struct {
	mu sync.Mutex

	zaak      *zgw.Zaak
	relations []zgw.ZaakInformatieObject
	created   int
	getByID   int
	listCalls int

	statusCalls   int
	propertyCalls []string
	statusErr     error

	createErr error
	lookupErr error
}

func (f *fakeZaken) GetZaak(ctx context.Context, zaakURL string) (zgw.Zaak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zaak == nil || f.zaak.URL != zaakURL {
		return zgw.Zaak{}, zgw.NewError(zgw.KindAPI, "zaken.GetZaak", "not found")
	}
	return *f.zaak, nil
}

func (f *fakeZaken) GetZaakByIdentification(ctx context.Context, identificatie string) (zgw.Zaak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getByID++
	if f.lookupErr != nil {
		return zgw.Zaak{}, f.lookupErr
	}
	if f.zaak == nil || f.zaak.Identificatie != identificatie {
		return zgw.Zaak{}, zgw.NewError(zgw.KindZaakNotFound, "zaken.GetZaakByIdentification", "no zaak")
	}
	return *f.zaak, nil
}

func (f *fakeZaken) CreateZaak(ctx context.Context, params zgw.CreateZaakParams) (zgw.Zaak, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return zgw.Zaak{}, f.createErr
	}
	f.created++
	identificatie := params.Identificatie
	if identificatie == "" {
		identificatie = "ZAAK-0001"
	}
	f.zaak = &zgw.Zaak{
		URL:           "https://example.nl/zaken/api/v1/zaken/1",
		Identificatie: identificatie,
		Zaaktype:      params.Zaaktype,
	}
	return *f.zaak, nil
}

func (f *fakeZaken) AddStatus(ctx context.Context, zaakURL, statustype, toelichting string) (zgw.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return zgw.Status{}, f.statusErr
	}
	return zgw.Status{URL: "https://example.nl/statussen/1"}, nil
}

func (f *fakeZaken) ListZaakInformatieObjecten(ctx context.Context, zaakURL string) ([]zgw.ZaakInformatieObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]zgw.ZaakInformatieObject(nil), f.relations...), nil
}

func (f *fakeZaken) AddZaakProperty(ctx context.Context, zaakURL, eigenschap, waarde string) (zgw.Eigenschap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.propertyCalls = append(f.propertyCalls, waarde)
	return zgw.Eigenschap{URL: "https://example.nl/zaakeigenschappen/1"}, nil
}

type fakeRefs struct {
	mu     sync.Mutex
	refs   map[string]string
	setErr error
}

func newFakeRefs() *fakeRefs { return &fakeRefs{refs: map[string]string{}} }

func (f *fakeRefs) Set(ctx context.Context, submissionKey, zaakURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.refs[submissionKey] = zaakURL
	return nil
}

func (f *fakeRefs) Get(ctx context.Context, submissionKey string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url, ok := f.refs[submissionKey]
	return url, ok, nil
}

type fakeSubmissions struct {
	subs map[string]submissions.Submission
}

func (f *fakeSubmissions) GetByKey(ctx context.Context, key string) (submissions.Submission, error) {
	sub, ok := f.subs[key]
	if !ok {
		return submissions.Submission{}, repository.ErrSubmissionNotFound
	}
	return sub, nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts []repository.RecordForwardAttemptParams
}

func (f *fakeAttempts) RecordForwardAttempt(ctx context.Context, params repository.RecordForwardAttemptParams) (repository.ForwardAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, params)
	return repository.ForwardAttempt{SubmissionKey: params.SubmissionKey, StateReached: params.StateReached}, nil
}

type fakePayloads struct {
	content map[string]any
	pdfErr  error
}

func (f *fakePayloads) GetSubmissionJSON(ctx context.Context, key string) (map[string]any, error) {
	return f.content, nil
}

func (f *fakePayloads) GetPDF(ctx context.Context, pdfKey string) ([]byte, error) {
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return []byte("pdf-bytes"), nil
}

func (f *fakePayloads) GetAttachment(ctx context.Context, submissionKey, name string) ([]byte, string, error) {
	return []byte("attachment-bytes"), "application/octet-stream", nil
}

type fakeAssigner struct {
	mu    sync.Mutex
	calls int
	zaken *fakeZaken
	err   error
}

func (f *fakeAssigner) EnsureRole(ctx context.Context, zaak zgw.Zaak, sub submissions.Submission, props casetypes.Properties) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.zaken.mu.Lock()
	f.zaken.zaak.Rollen = append(f.zaken.zaak.Rollen, "https://example.nl/rollen/1")
	f.zaken.mu.Unlock()
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	files   []documents.File
	zaken   *fakeZaken
	failFor string
}

func (f *fakeUploader) Upload(ctx context.Context, zaakURL string, file documents.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor != "" && file.Name == f.failFor {
		return errors.New("upload failed for " + file.Name)
	}
	f.files = append(f.files, file)
	f.zaken.mu.Lock()
	f.zaken.zaak.Zaakinformatieobjecten = append(f.zaken.zaak.Zaakinformatieobjecten, "https://example.nl/zaakinformatieobjecten/"+file.Name)
	f.zaken.relations = append(f.zaken.relations, zgw.ZaakInformatieObject{
		URL:   "https://example.nl/zaakinformatieobjecten/" + file.Name,
		Zaak:  zaakURL,
		Titel: file.Name,
	})
	f.zaken.mu.Unlock()
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {}

func (b *recordingBus) byName(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			matched = append(matched, e)
		}
	}
	return matched
}

type orchestratorFixture struct {
	orch     *Orchestrator
	zaken    *fakeZaken
	refs     *fakeRefs
	attempts *fakeAttempts
	assigner *fakeAssigner
	uploader *fakeUploader
	bus      *recordingBus
}

func newFixture(t *testing.T, subs map[string]submissions.Submission) *orchestratorFixture {
	t.Helper()

	resolver, err := casetypes.Load()
	if err != nil {
		t.Fatalf("failed to load case types: %v", err)
	}

	zaken := &fakeZaken{}
	refs := newFakeRefs()
	attempts := &fakeAttempts{}
	assigner := &fakeAssigner{zaken: zaken}
	uploader := &fakeUploader{zaken: zaken}
	bus := &recordingBus{}

	orch := New(
		resolver,
		"development",
		zaken,
		refs,
		&fakeSubmissions{subs: subs},
		attempts,
		&fakePayloads{content: map[string]any{"naam": "J. de Vries"}},
		assigner,
		uploader,
		bus,
		logger.New("development"),
	)

	return &orchestratorFixture{
		orch:     orch,
		zaken:    zaken,
		refs:     refs,
		attempts: attempts,
		assigner: assigner,
		uploader: uploader,
		bus:      bus,
	}
}

func personSubmission(key string, attachments ...string) submissions.Submission {
	return submissions.Submission{
		Key:             key,
		SubmitterID:     "999990317",
		SubmitterType:   submissions.SubmitterPerson,
		AppID:           "R01",
		FormName:        "kamerverhuurvergunningaanvragen",
		FormTitle:       "Kamerverhuurvergunning",
		PDFKey:          key + "/rendered.pdf",
		AttachmentNames: attachments,
	}
}

func TestForwardFreshSubmissionHappyPath(t *testing.T) {
	sub := personSubmission("SUB-1", "plattegrond.pdf", "huurcontract.pdf")
	fix := newFixture(t, map[string]submissions.Submission{"SUB-1": sub})

	if err := fix.orch.Forward(context.Background(), "SUB-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fix.zaken.created != 1 {
		t.Fatalf("expected one zaak created, got %d", fix.zaken.created)
	}
	if fix.zaken.statusCalls != 1 {
		t.Fatalf("expected one status call, got %d", fix.zaken.statusCalls)
	}
	if fix.assigner.calls != 1 {
		t.Fatalf("expected one role call, got %d", fix.assigner.calls)
	}
	if len(fix.uploader.files) != 3 {
		t.Fatalf("expected pdf plus two attachments uploaded, got %d", len(fix.uploader.files))
	}
	if fix.uploader.files[0].Name != "SUB-1.pdf" {
		t.Fatalf("expected rendered pdf uploaded first, got %q", fix.uploader.files[0].Name)
	}

	// The form reference property is written from the R01 configuration.
	if len(fix.zaken.propertyCalls) != 1 || fix.zaken.propertyCalls[0] != "SUB-1" {
		t.Fatalf("expected form reference property with submission key, got %v", fix.zaken.propertyCalls)
	}

	if url, ok := fix.refs.refs["SUB-1"]; !ok || url == "" {
		t.Fatalf("expected reference persisted after create")
	}

	forwarded := fix.bus.byName("forwarder.zaak.forwarded")
	if len(forwarded) != 1 {
		t.Fatalf("expected one forwarded event, got %d", len(forwarded))
	}
	if forwarded[0].(events.ZaakForwarded).Reused {
		t.Fatalf("expected fresh forward, not reuse")
	}

	if len(fix.attempts.attempts) != 1 {
		t.Fatalf("expected one audit row, got %d", len(fix.attempts.attempts))
	}
	if fix.attempts.attempts[0].ErrorMessage != "" {
		t.Fatalf("expected success audit row, got error %q", fix.attempts.attempts[0].ErrorMessage)
	}
}

func TestForwardSecondRunIsNoOp(t *testing.T) {
	sub := personSubmission("SUB-2", "plattegrond.pdf")
	fix := newFixture(t, map[string]submissions.Submission{"SUB-2": sub})

	if err := fix.orch.Forward(context.Background(), "SUB-2"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := fix.orch.Forward(context.Background(), "SUB-2"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if fix.zaken.created != 1 {
		t.Fatalf("expected exactly one zaak across runs, got %d", fix.zaken.created)
	}
	if fix.assigner.calls != 1 {
		t.Fatalf("expected role creation once, got %d", fix.assigner.calls)
	}
	if len(fix.uploader.files) != 2 {
		t.Fatalf("expected uploads only on first run, got %d", len(fix.uploader.files))
	}
	if fix.zaken.listCalls != 0 {
		t.Fatalf("expected no relation listing when the snapshot is complete, got %d", fix.zaken.listCalls)
	}

	// The status step is always attempted, also on reuse.
	if fix.zaken.statusCalls != 2 {
		t.Fatalf("expected status call per run, got %d", fix.zaken.statusCalls)
	}

	forwarded := fix.bus.byName("forwarder.zaak.forwarded")
	if len(forwarded) != 2 {
		t.Fatalf("expected forwarded event per run, got %d", len(forwarded))
	}
	if !forwarded[1].(events.ZaakForwarded).Reused {
		t.Fatalf("expected second run to report reuse")
	}
}

func TestForwardResumesViaIdentificationWhenReferenceMissing(t *testing.T) {
	sub := personSubmission("SUB-3", "plattegrond.pdf")
	fix := newFixture(t, map[string]submissions.Submission{"SUB-3": sub})

	// Simulate an earlier partial run that created the zaak, its rol and
	// the rendered pdf but crashed before the reference write and the
	// attachment.
	fix.zaken.zaak = &zgw.Zaak{
		URL:                    "https://example.nl/zaken/api/v1/zaken/9",
		Identificatie:          "SUB-3",
		Rollen:                 []string{"https://example.nl/rollen/9"},
		Zaakinformatieobjecten: []string{"https://example.nl/zaakinformatieobjecten/SUB-3.pdf"},
	}
	fix.zaken.relations = []zgw.ZaakInformatieObject{{
		URL:   "https://example.nl/zaakinformatieobjecten/SUB-3.pdf",
		Zaak:  fix.zaken.zaak.URL,
		Titel: "SUB-3.pdf",
	}}

	if err := fix.orch.Forward(context.Background(), "SUB-3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fix.zaken.created != 0 {
		t.Fatalf("expected no new zaak, got %d", fix.zaken.created)
	}
	if fix.zaken.getByID != 1 {
		t.Fatalf("expected identification lookup, got %d calls", fix.zaken.getByID)
	}
	if fix.assigner.calls != 0 {
		t.Fatalf("expected role step skipped with existing rol, got %d calls", fix.assigner.calls)
	}
	if len(fix.uploader.files) != 1 || fix.uploader.files[0].Name != "plattegrond.pdf" {
		t.Fatalf("expected only the missing attachment uploaded, got %v", fix.uploader.files)
	}
}

func TestForwardDuplicateZakenIsFatal(t *testing.T) {
	sub := personSubmission("SUB-4")
	fix := newFixture(t, map[string]submissions.Submission{"SUB-4": sub})
	fix.zaken.lookupErr = zgw.NewError(zgw.KindMultipleZakenFound, "zaken.GetZaakByIdentification", "2 zaken share identificatie SUB-4")

	err := fix.orch.Forward(context.Background(), "SUB-4")
	if !zgw.IsKind(err, zgw.KindMultipleZakenFound) {
		t.Fatalf("expected multiple-zaken error, got %v", err)
	}
	if fix.zaken.created != 0 {
		t.Fatalf("expected no zaak created on data-integrity error, got %d", fix.zaken.created)
	}

	failed := fix.bus.byName("forwarder.zaak.forwarding_failed")
	if len(failed) != 1 {
		t.Fatalf("expected one failure event, got %d", len(failed))
	}
	if len(fix.attempts.attempts) != 1 || fix.attempts.attempts[0].ErrorMessage == "" {
		t.Fatalf("expected failure audit row, got %v", fix.attempts.attempts)
	}
}

func TestForwardAttachmentFailureIsRetryable(t *testing.T) {
	sub := personSubmission("SUB-5", "plattegrond.pdf", "huurcontract.pdf")
	fix := newFixture(t, map[string]submissions.Submission{"SUB-5": sub})
	fix.uploader.failFor = "huurcontract.pdf"

	if err := fix.orch.Forward(context.Background(), "SUB-5"); err == nil {
		t.Fatalf("expected failed upload to fail the invocation")
	}

	// The reference survived, so the retry reuses the zaak and only the
	// missing attachment is uploaded.
	fix.uploader.failFor = ""
	if err := fix.orch.Forward(context.Background(), "SUB-5"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if fix.zaken.created != 1 {
		t.Fatalf("expected one zaak across retry, got %d", fix.zaken.created)
	}

	var names []string
	for _, f := range fix.uploader.files {
		names = append(names, f.Name)
	}
	// First run: pdf + plattegrond. The retry sees both already related
	// and uploads only the attachment that failed.
	want := []string{"SUB-5.pdf", "plattegrond.pdf", "huurcontract.pdf"}
	if len(names) != len(want) {
		t.Fatalf("expected retry to upload only the missing attachment, got %v", names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected uploads %v, got %v", want, names)
		}
	}

	failed := fix.bus.byName("forwarder.zaak.forwarding_failed")
	if len(failed) != 1 {
		t.Fatalf("expected one failure event, got %d", len(failed))
	}
}

func TestForwardReferenceWriteFailureIsFatal(t *testing.T) {
	sub := personSubmission("SUB-6")
	fix := newFixture(t, map[string]submissions.Submission{"SUB-6": sub})
	fix.refs.setErr = errors.New("redis down")

	if err := fix.orch.Forward(context.Background(), "SUB-6"); err == nil {
		t.Fatalf("expected reference write failure to be fatal")
	}
	if fix.assigner.calls != 0 || len(fix.uploader.files) != 0 {
		t.Fatalf("expected no later steps after reference failure")
	}
}

func TestForwardUnknownSubmissionFails(t *testing.T) {
	fix := newFixture(t, map[string]submissions.Submission{})

	err := fix.orch.Forward(context.Background(), "ONBEKEND")
	if !errors.Is(err, repository.ErrSubmissionNotFound) {
		t.Fatalf("expected submission-not-found, got %v", err)
	}
}

func TestForwardResolvesByFormNameWithoutAppID(t *testing.T) {
	sub := personSubmission("SUB-7")
	sub.AppID = ""
	sub.FormName = "splitsingsvergunningaanvragen"
	fix := newFixture(t, map[string]submissions.Submission{"SUB-7": sub})

	if err := fix.orch.Forward(context.Background(), "SUB-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fix.zaken.created != 1 {
		t.Fatalf("expected zaak created via form-name resolution, got %d", fix.zaken.created)
	}

	// R02 carries no form reference property.
	if len(fix.zaken.propertyCalls) != 0 {
		t.Fatalf("expected no property write for R02, got %v", fix.zaken.propertyCalls)
	}
}
