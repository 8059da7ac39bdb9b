package loaders

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/recallhq/recall/internal/core/domain"
)

// Mbox loads unix mbox archives, yielding one document per message.
type Mbox struct{}

// Suffixes returns the file suffixes this loader handles.
func (l *Mbox) Suffixes() []string {
	return []string{".mbox"}
}

// MIME returns the content kind.
func (l *Mbox) MIME() string { return "application/mbox" }

// Load splits the mailbox into messages and extracts the plain text
// body of each. Messages that fail to parse are skipped.
func (l *Mbox) Load(path string) ([]domain.LoadedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	modifiedTS := info.ModTime().UnixMilli()

	var documents []domain.LoadedDocument
	for idx, payload := range splitMbox(raw) {
		msg, err := mail.ReadMessage(bytes.NewReader(payload))
		if err != nil {
			continue
		}

		body, err := messageBody(msg)
		if err != nil {
			continue
		}
		normalized := Normalize(body)

		externalID := fmt.Sprintf("%s#%d", path, idx)
		metadata := map[string]any{
			"path":        path,
			"external_id": externalID,
		}
		if id := msg.Header.Get("Message-Id"); id != "" {
			metadata["message_id"] = id
		}

		title := msg.Header.Get("Subject")
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		var createdTS *int64
		if date, err := msg.Header.Date(); err == nil {
			ms := date.UnixMilli()
			createdTS = &ms
		}

		documents = append(documents, domain.LoadedDocument{
			Path:       path,
			Text:       normalized,
			Metadata:   metadata,
			MIME:       "message/rfc822+item",
			Title:      title,
			Author:     msg.Header.Get("From"),
			CreatedTS:  createdTS,
			ModifiedTS: &modifiedTS,
			SizeBytes:  int64(len(normalized)),
		})
	}

	return documents, nil
}

// splitMbox cuts an mbox file into raw rfc822 payloads. A message
// starts at a "From " line at the beginning of the file or directly
// after a blank line.
func splitMbox(raw []byte) [][]byte {
	var messages [][]byte
	var current []byte
	prevBlank := true

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if prevBlank && bytes.HasPrefix(line, []byte("From ")) {
			if len(current) > 0 {
				messages = append(messages, current)
			}
			current = nil
			prevBlank = false
			continue
		}
		// mboxrd quoting: ">From " unescapes to "From ".
		if bytes.HasPrefix(line, []byte(">From ")) {
			line = line[1:]
		}
		current = append(current, line...)
		current = append(current, '\n')
		prevBlank = len(line) == 0
	}
	if len(current) > 0 {
		messages = append(messages, current)
	}
	return messages
}

// messageBody extracts the plain text body, walking multipart
// containers for text/plain parts.
func messageBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		return decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("multipart message without boundary")
	}

	var parts []string
	mr := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading multipart: %w", err)
		}
		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil || partType != "text/plain" {
			continue
		}
		text, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// decodeBody applies the transfer encoding and reads the body.
func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(body), nil
}
