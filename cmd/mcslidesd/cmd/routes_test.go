package cmd

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcslides/pkg/config"
	"github.com/materials-commons/mcslides/pkg/convert"
	"github.com/materials-commons/mcslides/pkg/stor"
	"github.com/materials-commons/mcslides/pkg/toolchain"
	"github.com/materials-commons/mcslides/pkg/tusupload"
	"github.com/materials-commons/mcslides/pkg/webapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the real routes with a converter that can never find soffice, so every
// conversion produces placeholders.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	settings, err := config.LoadSettings(config.NewMapConfig(map[string]string{
		config.DataDirKey:    t.TempDir(),
		config.ConvertersKey: "mcslides-no-such-converter",
		config.InstallCmdKey: "none",
	}))
	require.NoError(t, err)

	for _, dir := range settings.Dirs() {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	probe := newProbe(settings)
	presentations := stor.NewInMemoryPresentationStor(settings.SlidesDir)
	opts := convert.DefaultOptions()
	opts.WorkDir = settings.WorkDir
	converter := convert.NewConverter(opts, toolchain.NewExecRunner(settings.ToolTimeout), probe, presentations)

	uploads, err := tusupload.New(settings.TusDir, "/uploads/", settings.MaxUploadBytes)
	require.NoError(t, err)

	e := echo.New()
	setupRoutes(RouteDependencies{
		e:             e,
		settings:      settings,
		converter:     converter,
		presentations: presentations,
		probe:         probe,
		uploads:       uploads,
		logs:          webapi.NewLogController(),
	})

	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesConvertWithoutToolchain(t *testing.T) {
	e := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("presentation", "deck.pptx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("deck"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp webapi.ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "placeholders_created", string(resp.Status))
	assert.Equal(t, 5, resp.SlideCount)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/slides/"+resp.ID+"/3", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	slideURL := rec.Header().Get(echo.HeaderLocation)
	assert.Equal(t, "/static/slides/"+resp.ID+"/slide-3.svg", slideURL)

	rec = serve(e, httptest.NewRequest(http.MethodGet, slideURL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Slide 3")

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/presentations", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), resp.ID)

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/presentation/"+resp.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/presentation/"+resp.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutesToolchain(t *testing.T) {
	e := newTestServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/toolchain", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":false,"converter":"","version":""}`, rec.Body.String())
}

func TestRoutesTusUpload(t *testing.T) {
	e := newTestServer(t)
	content := []byte("deck")

	req := httptest.NewRequest(http.MethodPost, "/uploads/", nil)
	req.Header.Set("Tus-Resumable", "1.0.0")
	req.Header.Set("Upload-Length", "4")
	req.Header.Set("Upload-Metadata", "filename ZGVjay5wcHR4") // deck.pptx
	rec := serve(e, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := path.Base(rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodPatch, "/uploads/"+id, bytes.NewReader(content))
	req.Header.Set("Tus-Resumable", "1.0.0")
	req.Header.Set("Content-Type", "application/offset+octet-stream")
	req.Header.Set("Upload-Offset", "0")
	rec = serve(e, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/convert/uploads/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"originalName":"deck.pptx"`)

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/convert/uploads/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
