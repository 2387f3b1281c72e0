package channels

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
)

// maxUnwrapDepth bounds wrapper unwrapping so a hostile deeply nested
// payload cannot loop the extractor.
const maxUnwrapDepth = 8

// ExtractText pulls the human-visible text and mention list out of a
// message. Wrapper variants (ephemeral, view-once, captioned documents) are
// unwrapped first; the innermost content node decides the result. Messages
// with no text node yield "".
func ExtractText(msg *waE2E.Message) (text string, mentions []string) {
	for depth := 0; msg != nil && depth < maxUnwrapDepth; depth++ {
		switch {
		case msg.GetEphemeralMessage().GetMessage() != nil:
			msg = msg.GetEphemeralMessage().GetMessage()
		case msg.GetViewOnceMessage().GetMessage() != nil:
			msg = msg.GetViewOnceMessage().GetMessage()
		case msg.GetViewOnceMessageV2().GetMessage() != nil:
			msg = msg.GetViewOnceMessageV2().GetMessage()
		case msg.GetViewOnceMessageV2Extension().GetMessage() != nil:
			msg = msg.GetViewOnceMessageV2Extension().GetMessage()
		case msg.GetDocumentWithCaptionMessage().GetMessage() != nil:
			msg = msg.GetDocumentWithCaptionMessage().GetMessage()
		default:
			return extractLeaf(msg)
		}
	}
	return "", nil
}

func extractLeaf(msg *waE2E.Message) (string, []string) {
	if msg == nil {
		return "", nil
	}
	if t := msg.GetConversation(); t != "" {
		return t, nil
	}
	if ext := msg.GetExtendedTextMessage(); ext.GetText() != "" {
		return ext.GetText(), ext.GetContextInfo().GetMentionedJID()
	}
	if img := msg.GetImageMessage(); img.GetCaption() != "" {
		return img.GetCaption(), img.GetContextInfo().GetMentionedJID()
	}
	if vid := msg.GetVideoMessage(); vid.GetCaption() != "" {
		return vid.GetCaption(), vid.GetContextInfo().GetMentionedJID()
	}
	return "", nil
}
