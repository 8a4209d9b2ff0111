// Package parser provides lazy RFC 5322 message parsing with MIME multipart
// support.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/jhillyerd/enmime"
)

// Message is a raw message delivered to a single envelope recipient. The
// MIME structure is parsed on first access to headers or bodies and the
// result is cached.
type Message struct {
	sender    string
	recipient string
	raw       []byte

	once sync.Once
	env  *enmime.Envelope
	err  error
}

// NewMessage wraps raw message data together with its SMTP envelope.
func NewMessage(sender, recipient string, raw []byte) *Message {
	return &Message{
		sender:    sender,
		recipient: recipient,
		raw:       raw,
	}
}

// From returns the envelope sender. A null reverse-path falls back to the
// first address of the From header.
func (m *Message) From() string {
	if m.sender != "" {
		return m.sender
	}
	env, err := m.envelope()
	if err != nil {
		return ""
	}
	addrs, err := env.AddressList("From")
	if err != nil || len(addrs) == 0 {
		return env.GetHeader("From")
	}
	return addrs[0].Address
}

// To returns the envelope recipient this message was delivered to.
func (m *Message) To() string {
	return m.recipient
}

// Size returns the raw message size in bytes.
func (m *Message) Size() int {
	return len(m.raw)
}

// Header returns the decoded value of the named header, or "" when the
// header is absent or the message cannot be parsed.
func (m *Message) Header(name string) string {
	env, err := m.envelope()
	if err != nil {
		return ""
	}
	return env.GetHeader(name)
}

// Text returns the plain-text body. A message that carries only HTML has
// no text body, even though enmime derives one from the markup.
func (m *Message) Text() (string, error) {
	env, err := m.envelope()
	if err != nil {
		return "", err
	}
	if env.HTML != "" && env.Root != nil && !hasTextPart(env.Root) {
		return "", nil
	}
	return env.Text, nil
}

// HTML returns the HTML body, or "" when the message has none.
func (m *Message) HTML() (string, error) {
	env, err := m.envelope()
	if err != nil {
		return "", err
	}
	return env.HTML, nil
}

// hasTextPart reports whether the tree under p holds a text/plain part that
// is not an attachment.
func hasTextPart(p *enmime.Part) bool {
	for ; p != nil; p = p.NextSibling {
		ct := strings.ToLower(p.ContentType)
		if (ct == "" || ct == "text/plain") && p.Disposition != "attachment" && p.FirstChild == nil {
			return true
		}
		if hasTextPart(p.FirstChild) {
			return true
		}
	}
	return false
}

func (m *Message) envelope() (*enmime.Envelope, error) {
	m.once.Do(func() {
		env, err := enmime.ReadEnvelope(bytes.NewReader(m.raw))
		if err != nil {
			m.err = fmt.Errorf("failed to parse message: %w", err)
			return
		}
		m.env = env
	})
	return m.env, m.err
}
