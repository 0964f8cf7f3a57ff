// Package format normalizes raw extractor formats into a deduplicated,
// ranked list for display and selection.
package format

import (
	"fmt"
	"sort"
	"strings"

	"vidgrab/internal/entity"
	"vidgrab/pkg/human"
	"vidgrab/pkg/ptr"
)

// Video containers plus the common audio containers worth offering.
var allowedExts = map[string]struct{}{
	"mp4":  {},
	"m4a":  {},
	"webm": {},
	"mkv":  {},
	"mp3":  {},
}

type key struct {
	height int
	ext    string
}

// Normalize filters, dedupes, ranks and labels raw formats.
//
// At most one output entry exists per (height, ext) pair, chosen as the
// candidate with the largest size, ties broken by bitrate. Video formats
// sort before audio-only, descending by height, then bitrate, then size.
// Pure function of its input; an empty input yields an empty output.
func Normalize(raw []entity.RawFormat) []entity.DisplayFormat {
	dedup := make(map[key]entity.DisplayFormat)

	for _, rf := range raw {
		ext := strings.ToLower(rf.Ext)
		if _, ok := allowedExts[ext]; !ok {
			continue
		}

		cand := entity.DisplayFormat{
			FormatID: rf.FormatID,
			Ext:      ext,
			Height:   rf.Height,
			Bitrate:  effectiveBitrate(rf),
			Filesize: effectiveSize(rf),
			Note:     rf.FormatNote,
			URL:      rf.URL,
		}

		k := key{height: ptr.Deref(rf.Height), ext: ext}

		prev, exists := dedup[k]
		if !exists || better(cand, prev) {
			dedup[k] = cand
		}
	}

	out := make([]entity.DisplayFormat, 0, len(dedup))
	for _, f := range dedup {
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})

	for i := range out {
		out[i].Label = label(out[i])
	}

	return out
}

func effectiveBitrate(rf entity.RawFormat) float64 {
	if rf.TBR != nil {
		return *rf.TBR
	}

	return ptr.Deref(rf.ABR)
}

func effectiveSize(rf entity.RawFormat) int64 {
	if rf.Filesize != nil {
		return *rf.Filesize
	}

	return ptr.Deref(rf.FilesizeApprox)
}

// better reports whether a beats b lexicographically on (size, bitrate).
func better(a, b entity.DisplayFormat) bool {
	if a.Filesize != b.Filesize {
		return a.Filesize > b.Filesize
	}

	return a.Bitrate > b.Bitrate
}

// less orders video before audio-only, then by descending height, bitrate
// and size.
func less(a, b entity.DisplayFormat) bool {
	aAudio, bAudio := a.Height == nil, b.Height == nil
	if aAudio != bAudio {
		return !aAudio
	}

	if ha, hb := ptr.Deref(a.Height), ptr.Deref(b.Height); ha != hb {
		return ha > hb
	}

	if a.Bitrate != b.Bitrate {
		return a.Bitrate > b.Bitrate
	}

	return a.Filesize > b.Filesize
}

func label(f entity.DisplayFormat) string {
	note := f.Note
	if note == "" {
		if f.Height != nil {
			note = fmt.Sprintf("%dp", *f.Height)
		} else {
			note = "audio"
		}
	}

	sizeText := "Size unknown"
	if f.Filesize > 0 {
		sizeText = human.Size(float64(f.Filesize))
	}

	parts := []string{note, f.Ext}

	if f.Bitrate > 0 {
		parts = append(parts, fmt.Sprintf("~%d kbps", int(f.Bitrate)))
	}

	parts = append(parts, sizeText)

	return strings.Join(parts, " • ")
}
