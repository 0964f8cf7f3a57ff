package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"vidgrab/internal/config"
	"vidgrab/internal/consts"
	"vidgrab/internal/entity"
	"vidgrab/pkg/calc"
	"vidgrab/pkg/maths"

	"github.com/lrstanley/go-ytdlp"
)

const defaultProgressFreq = 200 * time.Millisecond

// YTdlp implements Engine on top of the yt-dlp binary.
type YTdlp struct {
	log        *slog.Logger
	cfg        *config.Config
	ffmpegPath string // passed through so postprocessors find the transcoder
}

// NewYTdlp creates a new yt-dlp engine instance. ffmpegPath may be empty
// when no transcoder was discovered; audio extraction is gated upstream.
func NewYTdlp(log *slog.Logger, cfg *config.Config, ffmpegPath string) *YTdlp {
	return &YTdlp{
		log:        log.With(slog.String("package", "engine"), slog.String("engine", consts.EngineYTdlp)),
		cfg:        cfg,
		ffmpegPath: ffmpegPath,
	}
}

// Install provisions the yt-dlp binary if it is not already present.
func Install(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}

	return nil
}

// infoJSON is the subset of the engine's JSON dump we consume. The engine's
// output is parsed into our own structs rather than relying on its typed
// bindings, so nullable fields stay explicit.
type infoJSON struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail"`
	Duration  float64      `json:"duration"`
	Formats   []formatJSON `json:"formats"`
}

type formatJSON struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	Height         *int     `json:"height"`
	TBR            *float64 `json:"tbr"`
	ABR            *float64 `json:"abr"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
	FormatNote     string   `json:"format_note"`
	Format         string   `json:"format"`
	URL            string   `json:"url"`
}

// Resolve fetches media metadata and raw formats without downloading.
func (e *YTdlp) Resolve(ctx context.Context, url string) (*Info, error) {
	command := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		Quiet().
		CacheDir(e.cfg.Dir.Cache)

	res, err := command.Run(ctx, url)
	if err != nil {
		e.log.ErrorContext(ctx, "ytdlp resolve", slog.String("url", url), slog.Any("error", err))

		return nil, fmt.Errorf("ytdlp resolve: %w", err)
	}

	return parseInfo(res.Stdout)
}

func parseInfo(stdout string) (*Info, error) {
	var raw infoJSON
	if err := json.Unmarshal([]byte(stdout), &raw); err != nil {
		return nil, fmt.Errorf("parse info json: %w", err)
	}

	info := &Info{
		ID:         raw.ID,
		Title:      raw.Title,
		Thumbnail:  raw.Thumbnail,
		Duration:   maths.RoundFloat64ToInt(raw.Duration),
		RawFormats: make([]entity.RawFormat, 0, len(raw.Formats)),
	}

	for _, f := range raw.Formats {
		note := f.FormatNote
		if note == "" {
			note = f.Format
		}

		info.RawFormats = append(info.RawFormats, entity.RawFormat{
			FormatID:       f.FormatID,
			Ext:            f.Ext,
			Height:         f.Height,
			TBR:            f.TBR,
			ABR:            f.ABR,
			Filesize:       f.Filesize,
			FilesizeApprox: f.FilesizeApprox,
			FormatNote:     note,
			URL:            f.URL,
		})
	}

	return info, nil
}

// Download runs one download with resume/retry configuration, reporting
// ticks through req.Progress.
func (e *YTdlp) Download(ctx context.Context, req Request) error {
	command := ytdlp.New().
		Format(req.FormatID).
		Output(req.OutputTemplate).
		NoPlaylist().
		Continue().
		Retries(strconv.Itoa(consts.FragmentRetries)).
		FragmentRetries(strconv.Itoa(consts.FragmentRetries)).
		SocketTimeout(consts.SocketTimeout.Seconds()).
		HTTPChunkSize(strconv.Itoa(consts.HTTPChunkSize)).
		UserAgent(consts.UserAgent).
		CacheDir(e.cfg.Dir.Cache).
		ProgressFunc(defaultProgressFreq, e.progressAdapter(ctx, req.Progress))

	if req.AudioOnly {
		command = command.
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality("192K")
	}

	if e.ffmpegPath != "" {
		command = command.FFmpegLocation(e.ffmpegPath)
	}

	res, err := command.Run(ctx, req.URL)
	if err != nil {
		e.log.ErrorContext(ctx, "ytdlp download", slog.String("url", req.URL), slog.Any("error", err))

		if req.Progress != nil {
			req.Progress(ProgressEvent{Status: EventError, Message: err.Error()})
		}

		return fmt.Errorf("ytdlp download: %w", err)
	}

	e.log.DebugContext(ctx, "ytdlp download done",
		slog.String("url", req.URL),
		slog.String("stdout", res.Stdout))

	return nil
}

// progressAdapter translates engine progress updates into ProgressEvents.
// The engine's own ETA estimate (average rate so far) is carried as the
// fallback for callers that cannot compute a sharper one.
func (e *YTdlp) progressAdapter(ctx context.Context, fn ProgressFunc) func(ytdlp.ProgressUpdate) {
	return func(prog ytdlp.ProgressUpdate) {
		if fn == nil {
			return
		}

		downloaded := int64(prog.DownloadedBytes)
		total := int64(prog.TotalBytes)

		event := ProgressEvent{
			Downloaded: downloaded,
			Total:      total,
			Speed:      calc.Speed(downloaded, prog.Started),
		}

		if eta := calc.ETA(downloaded, total, prog.Started); eta > 0 {
			seconds := int(eta.Seconds())
			event.ETA = &seconds
		}

		switch prog.Status {
		case ytdlp.ProgressStatusFinished:
			event.Status = EventFinished
		case ytdlp.ProgressStatusError:
			event.Status = EventError
		default:
			event.Status = EventDownloading
		}

		e.log.DebugContext(ctx, "ytdlp progress",
			slog.String("status", string(event.Status)),
			slog.Int64("downloaded_bytes", downloaded),
			slog.Int64("total_bytes", total),
			slog.Int("progress", calc.Progress(downloaded, total)))

		fn(event)
	}
}
