package imapmail

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message"

	"github.com/Engineernoob/Term-Mail/internal/mail"
	"github.com/Engineernoob/Term-Mail/internal/provider"
)

// toMessage translates a fetched IMAP message into the shared model
// using envelope, flags and body structure only.
func (p *Provider) toMessage(msg *imap.Message, folder string) mail.Message {
	m := mail.Message{
		ID:       fmt.Sprintf("%d", msg.Uid),
		Folder:   folder,
		Provider: provider.KindIMAP,
	}

	if msg.Envelope != nil {
		m.Subject = msg.Envelope.Subject
		m.Date = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			m.From = formatAddress(msg.Envelope.From[0])
		}
		for _, addr := range msg.Envelope.To {
			m.To = append(m.To, formatAddress(addr))
		}
		for _, addr := range msg.Envelope.Cc {
			m.Cc = append(m.Cc, formatAddress(addr))
		}
		for _, addr := range msg.Envelope.Bcc {
			m.Bcc = append(m.Bcc, formatAddress(addr))
		}
	}

	for _, flag := range msg.Flags {
		switch flag {
		case imap.SeenFlag:
			m.IsRead = true
		case imap.FlaggedFlag:
			m.IsStarred = true
		}
	}

	if msg.BodyStructure != nil {
		m.Attachments = attachmentMeta(msg.BodyStructure)
	}
	return m
}

// formatAddress formats an IMAP address to a string.
func formatAddress(addr *imap.Address) string {
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName)
	}
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}

// attachmentMeta collects attachment descriptors from a body structure
// without downloading any attachment content.
func attachmentMeta(bs *imap.BodyStructure) []mail.Attachment {
	var out []mail.Attachment
	var walk func(part *imap.BodyStructure)
	walk = func(part *imap.BodyStructure) {
		if strings.EqualFold(part.Disposition, "attachment") {
			filename := part.DispositionParams["filename"]
			if filename == "" {
				filename = part.Params["name"]
			}
			if filename == "" {
				filename = "attachment"
			}
			out = append(out, mail.Attachment{
				Filename:    decodeFilename(filename),
				ContentType: strings.ToLower(part.MIMEType + "/" + part.MIMESubType),
				Size:        int64(part.Size),
				ContentRef:  filename,
			})
		}
		for _, sub := range part.Parts {
			walk(sub)
		}
	}
	walk(bs)
	return out
}

// parseRawMessage parses a raw RFC 5322 body literal into the message,
// filling plain and HTML bodies and attachment descriptors.
func parseRawMessage(literal imap.Literal, m *mail.Message) {
	entity, err := message.Read(literal)
	if err != nil && !message.IsUnknownCharset(err) {
		return
	}
	parseEntity(entity, m)
}

// parseEntity recursively walks a message entity, keeping the first
// text/plain and text/html parts and recording everything else that
// carries a filename as an attachment.
func parseEntity(entity *message.Entity, m *mail.Message) {
	mediaType, params, _ := entity.Header.ContentType()

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		mr := entity.MultipartReader()
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			parseEntity(part, m)
		}
	case mediaType == "text/plain" && m.Body == "":
		body, _ := io.ReadAll(entity.Body)
		m.Body = string(body)
	case mediaType == "text/html" && m.HTMLBody == "":
		body, _ := io.ReadAll(entity.Body)
		m.HTMLBody = string(body)
	default:
		disposition := entity.Header.Get("Content-Disposition")
		var filename string
		isAttachment := false

		if disposition != "" {
			dispType, dispParams, err := mime.ParseMediaType(disposition)
			if err == nil {
				if dispType == "attachment" || (dispType == "inline" && dispParams["filename"] != "") {
					isAttachment = true
					filename = dispParams["filename"]
				}
			}
		}
		if params["name"] != "" {
			isAttachment = true
			if filename == "" {
				filename = params["name"]
			}
		}
		if !isAttachment && mediaType != "" && !strings.HasPrefix(mediaType, "text/") {
			isAttachment = true
		}
		if !isAttachment {
			return
		}

		content, _ := io.ReadAll(entity.Body)
		if len(content) == 0 {
			return
		}
		if filename == "" {
			filename = "attachment"
		}
		filename = decodeFilename(filename)

		// Replace any structure-derived descriptor for the same file so
		// the parsed size wins.
		for i, att := range m.Attachments {
			if att.Filename == filename {
				m.Attachments[i].Size = int64(len(content))
				m.Attachments[i].ContentType = mediaType
				return
			}
		}
		m.Attachments = append(m.Attachments, mail.Attachment{
			Filename:    filename,
			ContentType: mediaType,
			Size:        int64(len(content)),
			ContentRef:  filename,
		})
	}
}

// decodeFilename decodes MIME-word encoded filenames such as
// =?utf-8?B?...?=.
func decodeFilename(filename string) string {
	dec := new(mime.WordDecoder)
	if decoded, err := dec.DecodeHeader(filename); err == nil {
		return decoded
	}
	return filename
}
