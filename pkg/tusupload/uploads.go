package tusupload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/materials-commons/mcslides/pkg/mcmodel"
	"github.com/tus/tusd/v2/pkg/filelocker"
	"github.com/tus/tusd/v2/pkg/filestore"
	tusd "github.com/tus/tusd/v2/pkg/handler"
)

var (
	ErrUnknownUpload    = errors.New("unknown upload")
	ErrIncompleteUpload = errors.New("upload is not complete")
)

// Uploads accepts resumable presentation uploads over the tus protocol. Completed uploads stay
// in tus storage until they are claimed for conversion.
type Uploads struct {
	dir      string
	basePath string
	store    filestore.FileStore
	locker   filelocker.FileLocker
	handler  *tusd.Handler
}

// Claimed is an upload moved out of tus storage.
type Claimed struct {
	Path     string
	Filename string
}

// New stores uploads under dir and serves the protocol under basePath, for example "/uploads/".
func New(dir, basePath string, maxSize int64) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create tus dir %s: %w", dir, err)
	}

	u := &Uploads{
		dir:      dir,
		basePath: "/" + strings.Trim(basePath, "/") + "/",
		store:    filestore.New(dir),
		locker:   filelocker.New(dir),
	}

	composer := tusd.NewStoreComposer()
	u.store.UseIn(composer)
	u.locker.UseIn(composer)

	handler, err := tusd.NewHandler(tusd.Config{
		BasePath:                u.basePath,
		StoreComposer:           composer,
		MaxSize:                 maxSize,
		RespectForwardedHeaders: true,
		PreUploadCreateCallback: checkFilename,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create tus handler: %w", err)
	}

	u.handler = handler
	return u, nil
}

// checkFilename rejects uploads that don't name a presentation in their filename metadata.
func checkFilename(hook tusd.HookEvent) (tusd.HTTPResponse, tusd.FileInfoChanges, error) {
	filename := hook.Upload.MetaData["filename"]
	if !mcmodel.IsPresentationFile(filename) {
		return tusd.HTTPResponse{}, tusd.FileInfoChanges{},
			tusd.NewError("ERR_NOT_A_PRESENTATION", "filename metadata must name a .ppt, .pptx or .key file", http.StatusBadRequest)
	}

	return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, nil
}

// Handler serves the tus protocol. It expects requests still carrying the base path, with or
// without the trailing slash.
func (u *Uploads) Handler() http.Handler {
	base := strings.TrimSuffix(u.basePath, "/")
	withSlash := http.StripPrefix(u.basePath, u.handler)
	withoutSlash := http.StripPrefix(base, u.handler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == base {
			withoutSlash.ServeHTTP(w, r)
			return
		}

		withSlash.ServeHTTP(w, r)
	})
}

func (u *Uploads) BasePath() string {
	return u.basePath
}

// Claim moves the finished upload uploadID into destDir and removes it from tus storage. The
// returned path is owned by the caller.
func (u *Uploads) Claim(ctx context.Context, uploadID, destDir string) (*Claimed, error) {
	if uploadID == "" || filepath.Base(uploadID) != uploadID || uploadID == "." || uploadID == ".." {
		return nil, ErrUnknownUpload
	}

	if _, err := os.Stat(filepath.Join(u.dir, uploadID+".info")); err != nil {
		return nil, ErrUnknownUpload
	}

	lock, err := u.locker.NewLock(uploadID)
	if err != nil {
		return nil, fmt.Errorf("unable to create lock for %s: %w", uploadID, err)
	}

	if err := lock.Lock(ctx, func() {}); err != nil {
		return nil, fmt.Errorf("upload %s is busy: %w", uploadID, err)
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			clog.Global().Warnf("Unable to unlock upload %s: %s", uploadID, err)
		}
	}()

	upload, err := u.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, ErrUnknownUpload
	}

	info, err := upload.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to read upload %s: %w", uploadID, err)
	}

	if info.SizeIsDeferred || info.Offset != info.Size {
		return nil, ErrIncompleteUpload
	}

	filename := info.MetaData["filename"]
	if filename == "" {
		filename = uploadID
	}

	binPath := info.Storage["Path"]
	if binPath == "" {
		binPath = filepath.Join(u.dir, uploadID)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create %s: %w", destDir, err)
	}

	dest := filepath.Join(destDir, "tus-"+uploadID+strings.ToLower(filepath.Ext(filename)))
	if err := os.Rename(binPath, dest); err != nil {
		return nil, fmt.Errorf("unable to move upload %s: %w", uploadID, err)
	}

	// The bin file is gone; Terminate only has the info file left to remove.
	if t, ok := upload.(tusd.TerminatableUpload); ok {
		if err := t.Terminate(ctx); err != nil {
			clog.Global().Warnf("Unable to remove tus info for %s: %s", uploadID, err)
		}
	}

	return &Claimed{Path: dest, Filename: filename}, nil
}
