package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/assetpipe/internal/handle"
	"github.com/samcharles93/assetpipe/internal/loader"
	"github.com/samcharles93/assetpipe/internal/testutil"
)

const sceneGLTF = `{
	"asset": {"version": "2.0"},
	"nodes": [{"name": "car"}],
	"buffers": [{"uri": "scene.bin", "byteLength": 4}],
	"images": [{"uri": "tex.png"}]
}`

func newTestEcho(t *testing.T, cfg Config) (*echo.Echo, *Server) {
	t.Helper()
	store := handle.NewMemoryStore()
	cfg.Blobs = store
	cfg.Loader = loader.New(store)
	server := NewServer(cfg)
	t.Cleanup(func() { server.Close() })
	e := echo.New()
	server.Register(e)
	return e, server
}

func testBundle(t *testing.T) []byte {
	t.Helper()
	return testutil.Zip(t,
		testutil.ZipEntry{Name: "model/scene.gltf", Data: sceneGLTF},
		testutil.ZipEntry{Name: "model/scene.bin", Data: "\x00\x01\x02\x03"},
		testutil.ZipEntry{Name: "model/tex.png", Data: "\x89PNG\r\n\x1a\nrest"},
	)
}

func doUpload(t *testing.T, e *echo.Echo, path, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	} else if err := mw.WriteField("other", "x"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func do(t *testing.T, e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ResponseError {
	t.Helper()
	var body struct {
		Error ResponseError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestSceneLifecycle(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, Config{})
	createRec := doUpload(t, e, "/v1/models", "bundle.zip", testBundle(t))
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}

	var created SceneView
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" || created.Kind != "gltf" || created.Path != "model/scene.gltf" {
		t.Fatalf("unexpected scene: %+v", created)
	}
	if len(created.References) != 2 || created.Handles != 3 {
		t.Fatalf("expected 2 references and 3 handles, got %d / %d", len(created.References), created.Handles)
	}
	if created.Root == nil || created.Root.Find("car") == nil {
		t.Fatalf("missing scene tree: %s", createRec.Body.String())
	}

	var binToken string
	for _, r := range created.References {
		if r.Reference == "scene.bin" {
			binToken = r.Token
		}
	}
	blobRec := do(t, e, http.MethodGet, "/v1/blobs/"+binToken)
	if blobRec.Code != http.StatusOK || blobRec.Body.String() != "\x00\x01\x02\x03" {
		t.Fatalf("blob: got %d %q", blobRec.Code, blobRec.Body.String())
	}

	getRec := do(t, e, http.MethodGet, "/v1/models/"+created.ID)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}

	listRec := do(t, e, http.MethodGet, "/v1/models")
	var list SceneList
	if err := json.Unmarshal(listRec.Body.Bytes(), &list); err != nil || len(list.Data) != 1 {
		t.Fatalf("list: %v %s", err, listRec.Body.String())
	}

	delRec := do(t, e, http.MethodDelete, "/v1/models/"+created.ID)
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if !strings.Contains(delRec.Body.String(), `"released":3`) {
		t.Fatalf("delete should release 3 handles: %s", delRec.Body.String())
	}

	if rec := do(t, e, http.MethodGet, "/v1/blobs/"+binToken); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for released blob, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/models/"+created.ID); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodDelete, "/v1/models/"+created.ID); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for second delete, got %d", rec.Code)
	}
}

func TestCreateSceneErrors(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, Config{})
	bundle := testBundle(t)

	tests := []struct {
		name     string
		filename string
		data     []byte
		status   int
		errType  string
		stage    string
	}{
		{"unsupported", "model.xyz", []byte("x"), http.StatusUnsupportedMediaType, "unsupported_format", "detecting"},
		{"corrupt", "bundle.zip", testutil.Corrupt(t, bundle, "\x89PNG"), http.StatusUnprocessableEntity, "archive_corrupt", "extracting-archive"},
		{"no primary", "bundle.zip", testutil.Zip(t, testutil.ZipEntry{Name: "a.txt", Data: "a"}), http.StatusUnprocessableEntity, "missing_primary_asset", "locating-primary-asset"},
		{"decode", "empty.obj", []byte("# nothing"), http.StatusUnprocessableEntity, "decode_failure", "decoding"},
		{"no file", "", nil, http.StatusBadRequest, "invalid_request_error", ""},
	}
	for _, tc := range tests {
		rec := doUpload(t, e, "/v1/models", tc.filename, tc.data)
		if rec.Code != tc.status {
			t.Errorf("%s: expected %d, got %d body=%s", tc.name, tc.status, rec.Code, rec.Body.String())
			continue
		}
		got := decodeError(t, rec)
		if got.Type != tc.errType || got.Stage != tc.stage {
			t.Errorf("%s: unexpected error %+v", tc.name, got)
		}
	}
}

func TestUploadTooLarge(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, Config{MaxUploadBytes: 16})
	rec := doUpload(t, e, "/v1/models", "big.obj", bytes.Repeat([]byte("v 0 0 0\n"), 8))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, Config{LoadsPerSecond: 0.001, LoadBurst: 1})
	first := doUpload(t, e, "/v1/models", "a.obj", []byte("v 0 0 0\n"))
	if first.Code != http.StatusCreated {
		t.Fatalf("first upload: got %d body=%s", first.Code, first.Body.String())
	}
	second := doUpload(t, e, "/v1/models", "b.obj", []byte("v 0 0 0\n"))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	// Reads are not limited.
	if rec := do(t, e, http.MethodGet, "/v1/models"); rec.Code != http.StatusOK {
		t.Fatalf("list should not be limited, got %d", rec.Code)
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	e, server := newTestEcho(t, Config{})
	rec := doUpload(t, e, "/v1/inspect", "bundle.zip", testBundle(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("inspect status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var view InspectView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Primary != "model/scene.gltf" || view.PrimaryKind != "gltf" || len(view.Entries) != 3 || len(view.References) != 2 {
		t.Fatalf("unexpected inspection: %+v", view)
	}
	if server.blobs.Len() != 0 {
		t.Fatalf("inspect created %d handles", server.blobs.Len())
	}
}

func TestUnknownBlob(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t, Config{})
	rec := do(t, e, http.MethodGet, "/v1/blobs/blob:nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Type != "not_found_error" {
		t.Fatalf("unexpected error %+v", got)
	}
}
