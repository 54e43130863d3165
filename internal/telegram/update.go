package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Veraticus/kopiyka/internal/model"
)

// DecodeUpdate reads one webhook update body.
func DecodeUpdate(r io.Reader) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r).Decode(&update); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("failed to decode update: %w", err)
	}
	return update, nil
}

// ToInbound converts an update into the message the bot reacts to. Updates
// without a message (edits, callbacks, channel posts) report false.
func ToInbound(update tgbotapi.Update) (model.Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return model.Inbound{}, false
	}

	in := model.Inbound{
		UpdateID: update.UpdateID,
		ChatID:   msg.Chat.ID,
	}
	if msg.From != nil {
		in.SenderName = strings.TrimSpace(msg.From.FirstName)
	}
	if msg.IsCommand() {
		in.Command = strings.ToLower(msg.Command())
	}

	in.Content = content(msg)
	return in, true
}

func content(msg *tgbotapi.Message) model.Content {
	switch {
	case msg.Text != "":
		return model.TextContent{Text: msg.Text}
	case len(msg.Photo) > 0:
		sizes := make([]model.FileRef, 0, len(msg.Photo))
		for _, p := range msg.Photo {
			sizes = append(sizes, model.FileRef{
				FileID:   p.FileID,
				UniqueID: p.FileUniqueID,
				Width:    p.Width,
				Height:   p.Height,
				Size:     p.FileSize,
			})
		}
		return model.PhotoContent{Caption: msg.Caption, Sizes: sizes}
	case msg.Voice != nil:
		return model.VoiceContent{
			Voice: model.FileRef{
				FileID:   msg.Voice.FileID,
				UniqueID: msg.Voice.FileUniqueID,
			},
			MimeType: msg.Voice.MimeType,
			Duration: msg.Voice.Duration,
		}
	default:
		return model.UnsupportedContent{}
	}
}
