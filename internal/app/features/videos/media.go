// internal/app/features/videos/media.go
package videos

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/inputval"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/app/workflow/lifecycle"
	"go.uber.org/zap"
)

// Form parts above this size spill to temporary files.
const multipartMemory = 32 << 20

type metadataRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Tags        *[]string `json:"tags"`
	Category    *string   `json:"category" validate:"omitempty,max=10"`
	Privacy     *string   `json:"privacy" validate:"omitempty,privacy"`
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, op string) error {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Validation(op, "upload is too large")
		}
		return apperr.Validation(op, "expected a multipart form")
	}
	return nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formFile returns the named file part, or nil when it is absent.
func formFile(r *http.Request, op, name string) (*lifecycle.Media, func(), error) {
	f, hdr, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperr.Validation(op, "unreadable "+name+" file")
	}
	return &lifecycle.Media{FileName: hdr.Filename, Body: f}, func() { _ = f.Close() }, nil
}

// formValue returns the named field, or nil when the form does not carry it.
func formValue(form *multipart.Form, name string) *string {
	vs, ok := form.Value[name]
	if !ok || len(vs) == 0 {
		return nil
	}
	s := vs[0]
	return &s
}

// formTags accepts repeated "tags" fields, comma-separated lists, or both.
func formTags(form *multipart.Form) *[]string {
	vs, ok := form.Value["tags"]
	if !ok {
		return nil
	}
	tags := []string{}
	for _, v := range vs {
		tags = append(tags, normalize.SplitTags(v)...)
	}
	return &tags
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// HandleUpload handles POST /api/videos (multipart: title, description,
// tags, category, privacy, video).
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "lifecycle.Upload"
	if err := h.parseForm(w, r, op); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	defer cleanupForm(r)

	media, closeFile, err := formFile(r, op, "video")
	defer closeFile()
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if media == nil {
		h.ErrLog.Write(w, r, apperr.Validation(op, "video file is required"))
		return
	}

	form := r.MultipartForm
	in := lifecycle.UploadInput{
		Title:       deref(formValue(form, "title")),
		Description: deref(formValue(form, "description")),
		Category:    deref(formValue(form, "category")),
		Privacy:     deref(formValue(form, "privacy")),
		Media:       *media,
	}
	if tags := formTags(form); tags != nil {
		in.Tags = *tags
	}

	v, err := h.Videos.Upload(r.Context(), actor.Email(r.Context()), in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.JSON(w, http.StatusCreated, v)
}

// HandleEdit handles PATCH /api/videos/{id}. A JSON body edits fields; a
// multipart body may also carry a "thumbnail" image.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	const op = "lifecycle.EditMetadata"
	id, err := api.ObjectID(r, op, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	var req metadataRequest
	var thumb *lifecycle.Media
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/") {
		if err := h.parseForm(w, r, op); err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
		defer cleanupForm(r)

		var closeFile func()
		thumb, closeFile, err = formFile(r, op, "thumbnail")
		defer closeFile()
		if err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
		form := r.MultipartForm
		req = metadataRequest{
			Title:       formValue(form, "title"),
			Description: formValue(form, "description"),
			Tags:        formTags(form),
			Category:    formValue(form, "category"),
			Privacy:     formValue(form, "privacy"),
		}
		if err := inputval.Struct(op, &req); err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
	} else if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	patch := lifecycle.MetadataPatch{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Category:    req.Category,
		Privacy:     req.Privacy,
		Thumbnail:   thumb,
	}

	res, err := h.Videos.EditMetadata(r.Context(), actor.Email(r.Context()), id, patch)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, res)
}

// HandleReplace handles POST /api/videos/{id}/replace (multipart "video").
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	const op = "lifecycle.ReplaceMedia"
	id, err := api.ObjectID(r, op, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.parseForm(w, r, op); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	defer cleanupForm(r)

	media, closeFile, err := formFile(r, op, "video")
	defer closeFile()
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if media == nil {
		h.ErrLog.Write(w, r, apperr.Validation(op, "video file is required"))
		return
	}

	v, err := h.Videos.ReplaceMedia(r.Context(), actor.Email(r.Context()), id, *media)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, v)
}

// ServeDownload handles GET /api/videos/{id}/download.
func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "lifecycle.OpenMedia", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	v, rc, err := h.Videos.OpenMedia(r.Context(), actor.Email(r.Context()), id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(v.FilePath)))
	if _, err := io.Copy(w, rc); err != nil {
		h.Log.Warn("video download interrupted", zap.String("video_id", v.ID.Hex()), zap.Error(err))
	}
}
