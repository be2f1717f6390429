package zgw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateDocumentStubParsesSlotAndLock(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["bestandsomvang"] != float64(12) {
			t.Fatalf("expected bestandsomvang 12, got %v", body["bestandsomvang"])
		}
		if body["taal"] != "nld" {
			t.Fatalf("expected taal default nld, got %v", body["taal"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"url": "https://example.nl/documenten/1",
			"lock": "slot-token",
			"bestandsdelen": [{"url": "https://example.nl/bestandsdelen/1", "volgnummer": 1, "omvang": 12}]
		}`))
	}))

	stub, err := client.CreateDocumentStub(context.Background(), CreateDocumentStubParams{
		Informatieobjecttype: "https://example.nl/informatieobjecttypen/1",
		Bronorganisatie:      "001479179",
		Titel:                "aanvraag.pdf",
		Bestandsnaam:         "aanvraag.pdf",
		Bestandsomvang:       12,
		Auteur:               "zaakbrug",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.Lock != "slot-token" {
		t.Fatalf("expected lock token, got %q", stub.Lock)
	}
	if stub.UploadSlotURL != "https://example.nl/bestandsdelen/1" {
		t.Fatalf("expected upload slot url, got %q", stub.UploadSlotURL)
	}
}

func TestCreateDocumentStubWithoutSlotIsProtocolViolation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url": "https://example.nl/documenten/1", "lock": "x", "bestandsdelen": []}`))
	}))

	_, err := client.CreateDocumentStub(context.Background(), CreateDocumentStubParams{Bestandsomvang: 5})
	if !IsKind(err, KindProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestCreateDocumentStubWithoutLockIsProtocolViolation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"url": "https://example.nl/documenten/1",
			"bestandsdelen": [{"url": "https://example.nl/bestandsdelen/1"}]
		}`))
	}))

	_, err := client.CreateDocumentStub(context.Background(), CreateDocumentStubParams{Bestandsomvang: 5})
	if !IsKind(err, KindProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestPutFileBytesSendsMultipartContentAndLock(t *testing.T) {
	content := []byte("pdf-bytes")
	var handled bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body: %v", err)
		}
		if got := r.FormValue("lock"); got != "slot-token" {
			t.Fatalf("expected lock field, got %q", got)
		}
		file, _, err := r.FormFile("inhoud")
		if err != nil {
			t.Fatalf("expected inhoud file part: %v", err)
		}
		defer file.Close()

		buf := make([]byte, len(content))
		if _, err := file.Read(buf); err != nil {
			t.Fatalf("failed to read inhoud: %v", err)
		}
		if string(buf) != string(content) {
			t.Fatalf("expected %q, got %q", content, buf)
		}
		handled = true
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(t, http.NotFoundHandler())
	if err := client.PutFileBytes(context.Background(), srv.URL+"/bestandsdelen/1", "slot-token", content); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatalf("expected upload request to reach the server")
	}
}

func TestPutFileBytesNon2xxIsUploadFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(t, http.NotFoundHandler())
	err := client.PutFileBytes(context.Background(), srv.URL+"/bestandsdelen/1", "slot-token", []byte("x"))
	if !IsKind(err, KindUploadFailed) {
		t.Fatalf("expected upload-failed, got %v", err)
	}
}

func TestUnlockDocumentAcceptsOnly204(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusAccepted, http.StatusLocked} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client, _ := newTestClient(t, http.NotFoundHandler())
		err := client.UnlockDocument(context.Background(), srv.URL+"/documenten/1", "slot-token")
		srv.Close()

		if !IsKind(err, KindUnlockFailed) {
			t.Fatalf("expected unlock to fail for status %d, got %v", status, err)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/documenten/1/unlock" {
			t.Fatalf("expected unlock subresource, got %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["lock"] != "slot-token" {
			t.Fatalf("expected lock token in body, got %v", body["lock"])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(t, http.NotFoundHandler())
	if err := client.UnlockDocument(context.Background(), srv.URL+"/documenten/1", "slot-token"); err != nil {
		t.Fatalf("expected 204 unlock to succeed, got %v", err)
	}
}

func TestListZaakInformatieObjectenFiltersByZaak(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("zaak"); got != "https://example.nl/zaken/1" {
			t.Fatalf("expected zaak query parameter, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"url": "https://example.nl/zaakinformatieobjecten/1", "zaak": "https://example.nl/zaken/1", "informatieobject": "https://example.nl/documenten/1", "titel": "aanvraag.pdf"},
			{"url": "https://example.nl/zaakinformatieobjecten/2", "zaak": "https://example.nl/zaken/1", "informatieobject": "https://example.nl/documenten/2", "titel": "plattegrond.pdf"}
		]`))
	}))

	relations, err := client.ListZaakInformatieObjecten(context.Background(), "https://example.nl/zaken/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(relations) != 2 {
		t.Fatalf("expected two relations, got %d", len(relations))
	}
	if relations[0].Titel != "aanvraag.pdf" || relations[1].Titel != "plattegrond.pdf" {
		t.Fatalf("unexpected titles: %+v", relations)
	}
}

func TestRelateDocumentWithoutURLIsRelateFailed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"zaak": "z", "informatieobject": "d"}`))
	}))

	_, err := client.RelateDocumentToZaak(context.Background(), "https://example.nl/zaken/1", "https://example.nl/documenten/1", "aanvraag.pdf")
	if !IsKind(err, KindRelateFailed) {
		t.Fatalf("expected relate-failed, got %v", err)
	}
}
