package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/model"
)

type fakeFetcher struct {
	err     error
	fetched []model.Content
}

func (f *fakeFetcher) Fetch(_ context.Context, content model.Content) (string, error) {
	f.fetched = append(f.fetched, content)
	if f.err != nil {
		return "", f.err
	}
	switch content.(type) {
	case model.PhotoContent:
		return "/media/photos/p.jpg", nil
	default:
		return "/media/voices/v.oga", nil
	}
}

type fakeOCR struct {
	err  error
	text string
	path string
}

func (f *fakeOCR) Recognize(_ context.Context, path string) (string, error) {
	f.path = path
	return f.text, f.err
}

type fakeTranscriber struct {
	err  error
	text string
	path string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.path = path
	return f.text, f.err
}

func TestExtract(t *testing.T) {
	photo := model.PhotoContent{Sizes: []model.FileRef{{FileID: "p", Width: 10, Height: 10}}}
	voice := model.VoiceContent{Voice: model.FileRef{FileID: "v"}}
	fetchErr := errors.New("fetch failed")
	ocrErr := errors.New("tesseract crashed")
	whisperErr := errors.New("whisper down")

	tests := []struct {
		content     model.Content
		fetcher     *fakeFetcher
		ocr         *fakeOCR
		transcriber *fakeTranscriber
		wantErr     error
		name        string
		want        string
		wantFetches int
	}{
		{
			name:    "text passes through trimmed",
			content: model.TextContent{Text: "  кава 55 грн \n"},
			want:    "кава 55 грн",
		},
		{
			name:    "blank text",
			content: model.TextContent{Text: "   "},
			wantErr: common.ErrNoContent,
		},
		{
			name:    "unsupported",
			content: model.UnsupportedContent{},
			wantErr: common.ErrNoContent,
		},
		{
			name:        "photo is recognized",
			content:     photo,
			ocr:         &fakeOCR{text: "АТБ\nСУМА 245,50"},
			want:        "АТБ\nСУМА 245,50",
			wantFetches: 1,
		},
		{
			name: "photo caption is appended",
			content: model.PhotoContent{
				Caption: "продукти",
				Sizes:   photo.Sizes,
			},
			ocr:         &fakeOCR{text: "СУМА 245,50"},
			want:        "СУМА 245,50\nпродукти",
			wantFetches: 1,
		},
		{
			name: "caption rescues unreadable photo",
			content: model.PhotoContent{
				Caption: "таксі 120",
				Sizes:   photo.Sizes,
			},
			ocr:         &fakeOCR{text: "  "},
			want:        "таксі 120",
			wantFetches: 1,
		},
		{
			name:        "unreadable photo",
			content:     photo,
			ocr:         &fakeOCR{text: "\n"},
			wantErr:     common.ErrNoContent,
			wantFetches: 1,
		},
		{
			name:        "ocr failure",
			content:     photo,
			ocr:         &fakeOCR{err: ocrErr},
			wantErr:     ocrErr,
			wantFetches: 1,
		},
		{
			name:        "voice is transcribed",
			content:     voice,
			transcriber: &fakeTranscriber{text: "Купив хліб за тридцять гривень"},
			want:        "Купив хліб за тридцять гривень",
			wantFetches: 1,
		},
		{
			name:        "silent voice",
			content:     voice,
			transcriber: &fakeTranscriber{text: ""},
			wantErr:     common.ErrNoContent,
			wantFetches: 1,
		},
		{
			name:        "transcription failure",
			content:     voice,
			transcriber: &fakeTranscriber{err: whisperErr},
			wantErr:     whisperErr,
			wantFetches: 1,
		},
		{
			name:        "download failure",
			content:     voice,
			fetcher:     &fakeFetcher{err: fetchErr},
			wantErr:     fetchErr,
			wantFetches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := tt.fetcher
			if fetcher == nil {
				fetcher = &fakeFetcher{}
			}
			ocr := tt.ocr
			if ocr == nil {
				ocr = &fakeOCR{}
			}
			transcriber := tt.transcriber
			if transcriber == nil {
				transcriber = &fakeTranscriber{}
			}

			e := NewExtractor(fetcher, ocr, transcriber, nil)
			got, err := e.Extract(context.Background(), tt.content)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Len(t, fetcher.fetched, tt.wantFetches)
		})
	}
}

func TestExtractPassesDownloadedPath(t *testing.T) {
	ocr := &fakeOCR{text: "100"}
	transcriber := &fakeTranscriber{text: "200"}
	e := NewExtractor(&fakeFetcher{}, ocr, transcriber, nil)

	_, err := e.Extract(context.Background(), model.PhotoContent{Sizes: []model.FileRef{{FileID: "p"}}})
	require.NoError(t, err)
	assert.Equal(t, "/media/photos/p.jpg", ocr.path)

	_, err = e.Extract(context.Background(), model.VoiceContent{Voice: model.FileRef{FileID: "v"}})
	require.NoError(t, err)
	assert.Equal(t, "/media/voices/v.oga", transcriber.path)
}
