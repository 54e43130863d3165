package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/kopiyka/internal/model"
)

func TestToInbound(t *testing.T) {
	tests := []struct {
		want   model.Inbound
		name   string
		body   string
		wantOK bool
	}{
		{
			name:   "start command",
			body:   `{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"from":{"id":42,"is_bot":false,"first_name":"Olena"},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`,
			wantOK: true,
			want: model.Inbound{
				UpdateID:   1,
				ChatID:     42,
				SenderName: "Olena",
				Command:    "start",
				Content:    model.TextContent{Text: "/start"},
			},
		},
		{
			name:   "command addressed to bot",
			body:   `{"update_id":2,"message":{"message_id":2,"date":0,"chat":{"id":42,"type":"group"},"text":"/link@kopiyka_bot","entities":[{"type":"bot_command","offset":0,"length":17}]}}`,
			wantOK: true,
			want: model.Inbound{
				UpdateID: 2,
				ChatID:   42,
				Command:  "link",
				Content:  model.TextContent{Text: "/link@kopiyka_bot"},
			},
		},
		{
			name:   "plain text",
			body:   `{"update_id":3,"message":{"message_id":3,"date":0,"chat":{"id":7,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":" Taras "},"text":"Кава 55 грн"}}`,
			wantOK: true,
			want: model.Inbound{
				UpdateID:   3,
				ChatID:     7,
				SenderName: "Taras",
				Content:    model.TextContent{Text: "Кава 55 грн"},
			},
		},
		{
			name:   "photo with caption",
			body:   `{"update_id":4,"message":{"message_id":4,"date":0,"chat":{"id":7,"type":"private"},"caption":"чек","photo":[{"file_id":"small","file_unique_id":"s","width":90,"height":120,"file_size":1000},{"file_id":"big","file_unique_id":"b","width":900,"height":1200,"file_size":90000}]}}`,
			wantOK: true,
			want: model.Inbound{
				UpdateID: 4,
				ChatID:   7,
				Content: model.PhotoContent{
					Caption: "чек",
					Sizes: []model.FileRef{
						{FileID: "small", UniqueID: "s", Width: 90, Height: 120, Size: 1000},
						{FileID: "big", UniqueID: "b", Width: 900, Height: 1200, Size: 90000},
					},
				},
			},
		},
		{
			name:   "voice",
			body:   `{"update_id":5,"message":{"message_id":5,"date":0,"chat":{"id":7,"type":"private"},"voice":{"file_id":"v1","file_unique_id":"vu","duration":4,"mime_type":"audio/ogg"}}}`,
			wantOK: true,
			want: model.Inbound{
				UpdateID: 5,
				ChatID:   7,
				Content: model.VoiceContent{
					Voice:    model.FileRef{FileID: "v1", UniqueID: "vu"},
					MimeType: "audio/ogg",
					Duration: 4,
				},
			},
		},
		{
			name:   "sticker is unsupported",
			body:   `{"update_id":6,"message":{"message_id":6,"date":0,"chat":{"id":7,"type":"private"},"sticker":{"file_id":"st","file_unique_id":"stu","width":512,"height":512,"is_animated":false}}}`,
			wantOK: true,
			want: model.Inbound{
				UpdateID: 6,
				ChatID:   7,
				Content:  model.UnsupportedContent{},
			},
		},
		{
			name: "edited message is ignored",
			body: `{"update_id":7,"edited_message":{"message_id":1,"date":0,"chat":{"id":7,"type":"private"},"text":"x"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := DecodeUpdate(strings.NewReader(tt.body))
			require.NoError(t, err)

			got, ok := ToInbound(update)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeUpdateRejectsGarbage(t *testing.T) {
	_, err := DecodeUpdate(strings.NewReader("{not json"))
	require.Error(t, err)
}
