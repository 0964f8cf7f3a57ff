package request_test

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"vidgrab/internal/errs"
	"vidgrab/internal/infrastructure/delivery/http/request"
)

func TestSubmitValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"valid_https", "https://example.com/watch?v=abc", nil},
		{"valid_http", "http://example.com/clip", nil},
		{"empty", "", errs.ErrInvalidURL},
		{"no_scheme", "example.com/watch", errs.ErrInvalidURL},
		{"ftp", "ftp://example.com/file", errs.ErrInvalidURL},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := request.Submit{URL: tc.url}

			err := in.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v; want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSubmitFromFormNormalizes(t *testing.T) {
	form := url.Values{"url": {"  https://example.com/watch?v=abc  "}}

	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got := request.SubmitFromForm(req)
	if got.URL != "https://example.com/watch?v=abc" {
		t.Fatalf("expected trimmed url, got %q", got.URL)
	}
}

func TestStartDownloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      request.StartDownload
		wantErr error
	}{
		{
			name:    "format only",
			in:      request.StartDownload{FormatID: "22"},
			wantErr: nil,
		},
		{
			name:    "valid trim markers",
			in:      request.StartDownload{FormatID: "22", StartTime: "0:10", EndTime: "1:30"},
			wantErr: nil,
		},
		{
			name:    "bare seconds markers",
			in:      request.StartDownload{FormatID: "22", StartTime: "10", EndTime: "90"},
			wantErr: nil,
		},
		{
			name:    "missing format id",
			in:      request.StartDownload{},
			wantErr: errs.ErrInvalidFormatID,
		},
		{
			name:    "bad start time",
			in:      request.StartDownload{FormatID: "22", StartTime: "abc"},
			wantErr: errs.ErrInvalidTimeFormat,
		},
		{
			name:    "bad end time",
			in:      request.StartDownload{FormatID: "22", EndTime: "1:2:3:4"},
			wantErr: errs.ErrInvalidTimeFormat,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v; want %v", err, tc.wantErr)
			}
		})
	}
}

func TestStartDownloadFromForm(t *testing.T) {
	form := url.Values{
		"format_id":     {"22"},
		"extract_audio": {"yes"},
		"start_time":    {"0:10"},
		"end_time":      {"0:30"},
	}

	req := httptest.NewRequest("POST", "/start_download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got := request.StartDownloadFromForm(req)

	if got.FormatID != "22" {
		t.Errorf("expected format 22, got %q", got.FormatID)
	}

	if !got.ExtractAudio {
		t.Error("expected extract audio set")
	}

	if got.StartTime != "0:10" || got.EndTime != "0:30" {
		t.Errorf("unexpected trim markers: %q %q", got.StartTime, got.EndTime)
	}
}

func TestExtractAudioRequiresYes(t *testing.T) {
	form := url.Values{"format_id": {"22"}, "extract_audio": {"on"}}

	req := httptest.NewRequest("POST", "/start_download", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if got := request.StartDownloadFromForm(req); got.ExtractAudio {
		t.Error("only the literal \"yes\" should enable audio extraction")
	}
}
