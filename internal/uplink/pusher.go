package uplink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrNoChat means no remote chat has handshaken yet, so there is nowhere to
// push to.
var ErrNoChat = errors.New("no remote chat registered")

// Pusher delivers photos and text to the remote messaging channel over its
// bot HTTP API.
type Pusher struct {
	base   string // e.g. https://api.telegram.org/bot<token>
	chatID string
	client *http.Client
}

func NewPusher(base, chatID string) *Pusher {
	return &Pusher{
		base:   base,
		chatID: chatID,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether both the endpoint and a chat are known.
func (p *Pusher) Configured() bool { return p != nil && p.base != "" && p.chatID != "" }

// SendPhoto uploads one image with an optional caption.
func (p *Pusher) SendPhoto(ctx context.Context, path, caption string) error {
	if !p.Configured() {
		return ErrNoChat
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("chat_id", p.chatID); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/sendPhoto", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upload photo: status %d", resp.StatusCode)
	}
	return nil
}
