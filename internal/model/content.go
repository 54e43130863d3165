package model

// MediaKind names the attachment kinds the bot can download.
type MediaKind string

// Supported media kinds. The value doubles as the storage folder name.
const (
	MediaPhoto MediaKind = "photos"
	MediaVoice MediaKind = "voices"
)

// FileRef points at a file held by the chat platform.
type FileRef struct {
	FileID   string
	UniqueID string
	Width    int
	Height   int
	Size     int
}

// Content is the analyzable payload of an inbound message. The concrete
// types below are the only implementations.
type Content interface {
	content()
}

// TextContent is a plain text message.
type TextContent struct {
	Text string
}

// PhotoContent is a photo message. Sizes holds every rendition the platform sent.
type PhotoContent struct {
	Caption string
	Sizes   []FileRef
}

// VoiceContent is a voice note.
type VoiceContent struct {
	Voice    FileRef
	MimeType string
	Duration int
}

// UnsupportedContent is anything else: stickers, documents, locations.
type UnsupportedContent struct{}

func (TextContent) content()        {}
func (PhotoContent) content()       {}
func (VoiceContent) content()       {}
func (UnsupportedContent) content() {}

// Largest returns the rendition with the most pixels, falling back to the last
// one when dimensions are missing.
func (p PhotoContent) Largest() (FileRef, bool) {
	if len(p.Sizes) == 0 {
		return FileRef{}, false
	}

	best := p.Sizes[len(p.Sizes)-1]
	for _, size := range p.Sizes {
		if size.Width*size.Height > best.Width*best.Height {
			best = size
		}
	}
	return best, true
}

// Inbound is one chat update reduced to what the bot needs.
type Inbound struct {
	Content    Content
	Command    string // command name without the slash, empty for ordinary messages
	SenderName string
	ChatID     int64
	UpdateID   int
}
