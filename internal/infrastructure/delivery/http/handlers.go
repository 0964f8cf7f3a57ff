package httprouter

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"vidgrab/internal/consts"
	"vidgrab/internal/download"
	"vidgrab/internal/entity"
	"vidgrab/internal/format"
	"vidgrab/internal/infrastructure/delivery/http/request"
	"vidgrab/internal/infrastructure/delivery/http/response"
	"vidgrab/internal/infrastructure/delivery/http/web"
	"vidgrab/pkg/gen"
)

// jobCookie tracks the media the browser is currently working with, the
// session-equivalent of the original flow.
const jobCookie = "vidgrab_job"

func (ro *Router) setJobCookie(w http.ResponseWriter, jobID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     jobCookie,
		Value:    jobID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ro *Router) currentJob(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(jobCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return cookie.Value, true
}

func redirectWithError(w http.ResponseWriter, r *http.Request, target, msg string) {
	http.Redirect(w, r, target+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// Index renders the URL submission page.
func (ro *Router) Index(w http.ResponseWriter, r *http.Request) {
	data := struct{ Error string }{Error: r.URL.Query().Get("error")}

	if err := web.Render(w, "index.html", data); err != nil {
		ro.log.ErrorContext(r.Context(), "render index", slog.Any("error", err))
	}
}

// SubmitURL resolves a pasted URL through the extraction engine and stores
// the resulting media record for format selection.
func (ro *Router) SubmitURL(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "SubmitURL")

	ctx, cancel := context.WithTimeout(r.Context(), ro.cfg.HTTP.HandlerTimeout)
	defer cancel()

	in := request.SubmitFromForm(r)
	if err := in.Validate(); err != nil {
		redirectWithError(w, r, "/", consts.RespInvalidURL)

		return
	}

	info, err := ro.engine.Resolve(ctx, in.URL)
	if err != nil {
		log.ErrorContext(ctx, consts.RespResolveFail, slog.String("url", in.URL), slog.Any("error", err))
		redirectWithError(w, r, "/", consts.RespResolveFail)

		return
	}

	jobID := info.ID
	if jobID == "" {
		jobID = gen.UUIDv5(in.URL, "media")
	}

	now := time.Now()
	media := &entity.Media{
		ID:        jobID,
		SourceURL: in.URL,
		Title:     info.Title,
		Duration:  info.Duration,
		Thumbnail: info.Thumbnail,
		Formats:   format.Normalize(info.RawFormats),
		CreatedAt: now,
		ExpiresAt: now.Add(ro.cfg.Storage.TTL),
	}

	ro.store.SetMedia(ctx, media)
	ro.setJobCookie(w, jobID)

	log.InfoContext(ctx, "media resolved", "media", *media)

	http.Redirect(w, r, "/select_format", http.StatusSeeOther)
}

// SelectFormat lists the normalized formats for the current media.
func (ro *Router) SelectFormat(w http.ResponseWriter, r *http.Request) {
	jobID, ok := ro.currentJob(r)
	if !ok {
		redirectWithError(w, r, "/", consts.RespNoMediaSelected)

		return
	}

	media, err := ro.store.GetMedia(r.Context(), jobID)
	if err != nil {
		redirectWithError(w, r, "/", consts.RespNoMediaSelected)

		return
	}

	data := struct {
		JobID     string
		Title     string
		Thumbnail string
		Duration  int
		Formats   []entity.DisplayFormat
		Error     string
	}{
		JobID:     media.ID,
		Title:     media.Title,
		Thumbnail: media.Thumbnail,
		Duration:  media.Duration,
		Formats:   media.Formats,
		Error:     r.URL.Query().Get("error"),
	}

	if err := web.Render(w, "select_format.html", data); err != nil {
		ro.log.ErrorContext(r.Context(), "render select_format", slog.Any("error", err))
	}
}

// StartDownload validates trim markers, launches the orchestrator through
// the service and redirects to the progress page.
func (ro *Router) StartDownload(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "StartDownload")
	ctx := r.Context()

	in := request.StartDownloadFromForm(r)
	if err := in.Validate(); err != nil {
		log.DebugContext(ctx, consts.RespInvalidTrimTime, slog.Any("error", err))
		redirectWithError(w, r, "/select_format", consts.RespInvalidTrimTime)

		return
	}

	jobID, ok := ro.currentJob(r)
	if !ok {
		redirectWithError(w, r, "/", consts.RespNoMediaSelected)

		return
	}

	media, err := ro.store.GetMedia(ctx, jobID)
	if err != nil {
		redirectWithError(w, r, "/", consts.RespNoMediaSelected)

		return
	}

	chosen, ok := media.FormatByID(in.FormatID)
	if !ok {
		redirectWithError(w, r, "/select_format", consts.RespMediaNotFound)

		return
	}

	filename := download.OutputName(media.Title, chosen.FormatID, chosen.Height, in.ExtractAudio)

	// Already downloaded by this media: skip the job and serve the file.
	// Keyed on the media id so another media with a colliding title never
	// matches; trim requests always produce a fresh download.
	if in.StartTime == "" && in.EndTime == "" {
		existing, ok := ro.store.GetDownload(ctx, media.ID, download.FileKey(chosen.FormatID, in.ExtractAudio))
		if ok {
			if _, err := os.Stat(filepath.Join(ro.cfg.Dir.Downloads, existing)); err == nil {
				http.Redirect(w, r, "/downloads/"+url.PathEscape(existing), http.StatusSeeOther)

				return
			}
		}
	}

	job := download.Job{
		JobID:     media.ID,
		URL:       media.SourceURL,
		FormatID:  chosen.FormatID,
		Title:     media.Title,
		Height:    chosen.Height,
		AudioOnly: in.ExtractAudio,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}

	if err := ro.svc.Enqueue(ctx, job); err != nil {
		log.ErrorContext(ctx, consts.RespJobEnqueueFail, slog.Any("error", err))
		redirectWithError(w, r, "/select_format", consts.RespJobEnqueueFail)

		return
	}

	http.Redirect(w, r,
		"/progress/"+url.PathEscape(media.ID)+"/"+url.PathEscape(filename),
		http.StatusSeeOther)
}

// ProgressStatus returns the raw progress record for a job id. Polled by
// the progress page; unknown ids yield the not_started default.
func (ro *Router) ProgressStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	response.Raw(w, http.StatusOK, ro.store.GetProgress(r.Context(), jobID))
}

// ProgressPage renders the polling UI.
func (ro *Router) ProgressPage(w http.ResponseWriter, r *http.Request) {
	data := struct {
		JobID    string
		Filename string
	}{
		JobID:    r.PathValue("job_id"),
		Filename: r.PathValue("filename"),
	}

	if err := web.Render(w, "progress.html", data); err != nil {
		ro.log.ErrorContext(r.Context(), "render progress", slog.Any("error", err))
	}
}

// DownloadFile serves a completed download as an attachment.
func (ro *Router) DownloadFile(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(r.PathValue("filename"))
	path := filepath.Join(ro.cfg.Dir.Downloads, filename)

	if _, err := os.Stat(path); err != nil {
		response.NotFound(w, consts.RespFileNotFound, nil)

		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeFile(w, r, path)
}

type previewResponse struct {
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// GeneratePreview produces (or reuses) a short preview clip for a
// job/format pair. Generation is synchronous; the transcoder call is
// bounded by the preview timeout.
func (ro *Router) GeneratePreview(w http.ResponseWriter, r *http.Request) {
	log := ro.log.With("handler", "GeneratePreview")

	jobID := r.PathValue("job_id")
	formatID := r.PathValue("format_id")

	filename, err := ro.previews.Generate(r.Context(), jobID, formatID)
	if err != nil {
		log.ErrorContext(r.Context(), consts.RespPreviewFail,
			slog.String("job_id", jobID),
			slog.String("format_id", formatID),
			slog.Any("error", err))

		response.Raw(w, http.StatusOK, previewResponse{
			Status:  "error",
			Message: consts.RespPreviewFail,
		})

		return
	}

	response.Raw(w, http.StatusOK, previewResponse{
		Status: "ready",
		URL:    "/previews/" + url.PathEscape(filename),
	})
}

// PreviewFile serves a generated preview clip.
func (ro *Router) PreviewFile(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(r.PathValue("filename"))
	path := filepath.Join(ro.cfg.Dir.Previews, filename)

	if _, err := os.Stat(path); err != nil {
		response.NotFound(w, consts.RespFileNotFound, nil)

		return
	}

	http.ServeFile(w, r, path)
}
