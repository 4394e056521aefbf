// Package ingress is C7, the thin boundary between chat commands and the
// session/image repositories. It holds no state of its own; every decision
// is made by reading back what the store already knows.
package ingress

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/shifthive/capturequeue/pkg/blobstore"
	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/image"
	"github.com/shifthive/capturequeue/pkg/session"
)

// Document describes an inbound upload; FileRef is the chat platform's
// opaque handle, resolved to bytes by FileFetcher.
type Document struct {
	FileRef  string `json:"file_ref"`
	FileName string `json:"file_name"`
}

// Update is the wire shape the chat platform's webhook relays. Command and
// Document are mutually exclusive in a well-formed update.
type Update struct {
	UserID    int64     `json:"user_id"`
	MessageID int64     `json:"message_id"`
	Command   string    `json:"command"`
	Document  *Document `json:"document,omitempty"`
}

// FileFetcher resolves a chat platform file reference to its bytes. Out of
// the specified core; the adapter only needs the result.
type FileFetcher interface {
	Fetch(ctx context.Context, fileRef string) (data []byte, contentType string, err error)
}

// SessionStore is the subset of session.Repository the adapter needs,
// narrowed so tests can supply a fake without a database.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (*session.Session, error)
	GetOpen(ctx context.Context, userID int64) (*session.Session, error)
	CloseOpen(ctx context.Context, userID int64) (*session.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error)
	UpdateState(ctx context.Context, id uuid.UUID, newState session.State, errMessage *string) (*session.Session, error)
}

// ImageStore is the subset of image.Repository the adapter needs.
type ImageStore interface {
	AppendNext(ctx context.Context, sessionID uuid.UUID, objectKey string, externalMessageID *int64) (*image.Image, error)
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
}

var botSuffix = regexp.MustCompile(`@\S+$`)

func normalizeCommand(raw string) string {
	cmd := strings.ToLower(strings.TrimSpace(raw))
	cmd = botSuffix.ReplaceAllString(cmd, "")
	return cmd
}

var validExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

func contentTypeFor(fileName string) (string, bool) {
	ct, ok := validExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ct, ok
}

// Adapter wires chat updates into session/image repository calls.
type Adapter struct {
	sessions SessionStore
	images   ImageStore
	uploader blobstore.Uploader
	fetcher  FileFetcher
}

// NewAdapter builds an Adapter from its collaborators.
func NewAdapter(sessions SessionStore, images ImageStore, uploader blobstore.Uploader, fetcher FileFetcher) *Adapter {
	return &Adapter{sessions: sessions, images: images, uploader: uploader, fetcher: fetcher}
}

// Handle decides between the explicit-multi, implicit-single, and
// rejection paths and returns the reply text to send back to the user.
func (a *Adapter) Handle(ctx context.Context, u Update) (string, error) {
	command := normalizeCommand(u.Command)

	switch {
	case command != "" && u.Document != nil:
		return "please send a command or an image, not both", nil
	case command != "":
		return a.handleCommand(ctx, u.UserID, command)
	case u.Document != nil:
		return a.handleUpload(ctx, u.UserID, u.MessageID, *u.Document)
	default:
		return "nothing to do: send /start_session, an image, or /close", nil
	}
}

func (a *Adapter) handleCommand(ctx context.Context, userID int64, command string) (string, error) {
	switch command {
	case "/start_session":
		s, err := a.sessions.Create(ctx, userID)
		if cqerrors.IsUniquenessConflict(err) {
			s, err = a.sessions.GetOpen(ctx, userID)
			if err != nil {
				return "", err
			}
			if s == nil {
				return "", cqerrors.NewInternal("start_session: no open session after conflict", nil)
			}
			return fmt.Sprintf("you already have an open session (%s)", s.ID), nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("started session %s", s.ID), nil

	case "/close", "/done":
		s, err := a.sessions.CloseOpen(ctx, userID)
		if err != nil {
			return "", err
		}
		if s == nil {
			return "you have no open session to close", nil
		}
		count, err := a.images.CountBySession(ctx, s.ID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("closed session %s (%d image(s))", s.ID, count), nil

	default:
		return fmt.Sprintf("unrecognized command %q", command), nil
	}
}

func (a *Adapter) handleUpload(ctx context.Context, userID, messageID int64, doc Document) (string, error) {
	contentType, ok := contentTypeFor(doc.FileName)
	if !ok {
		return "unsupported file type, please send a screenshot image", nil
	}

	open, err := a.sessions.GetOpen(ctx, userID)
	if err != nil {
		return "", err
	}
	if open != nil {
		return a.appendAndReply(ctx, open.ID, doc, messageID, false)
	}

	// Implicit single: no open session yet, create one for this upload.
	created, err := a.sessions.Create(ctx, userID)
	if cqerrors.IsUniquenessConflict(err) {
		// Another upload raced us into creating the session; join it.
		created, err = a.sessions.GetOpen(ctx, userID)
		if err != nil {
			return "", err
		}
		if created == nil {
			return "", cqerrors.NewInternal("handle_upload: no open session after create race", nil)
		}
		return a.appendAndReply(ctx, created.ID, doc, messageID, false)
	}
	if err != nil {
		return "", err
	}

	reply, err := a.appendAndReply(ctx, created.ID, doc, messageID, true)
	if err != nil {
		return "", err
	}
	if _, err := a.sessions.UpdateState(ctx, created.ID, session.Closed, nil); err != nil {
		return "", err
	}
	return reply, nil
}

func (a *Adapter) appendAndReply(ctx context.Context, sessionID uuid.UUID, doc Document, messageID int64, implicitClose bool) (string, error) {
	data, contentType, err := a.fetcher.Fetch(ctx, doc.FileRef)
	if err != nil {
		return "", cqerrors.NewTransient("handle_upload: fetch file", err)
	}

	objectKey, err := a.uploader.Upload(ctx, bytes.NewReader(data), contentType)
	if err != nil {
		return "", err
	}

	externalMessageID := messageID
	img, err := a.images.AppendNext(ctx, sessionID, objectKey, &externalMessageID)
	if err != nil {
		return "", err
	}

	reply := fmt.Sprintf("stored image #%d in session %s", img.Sequence, sessionID)
	if implicitClose {
		count, err := a.images.CountBySession(ctx, sessionID)
		if err != nil {
			return "", err
		}
		reply += fmt.Sprintf(" (session auto-closed, %d image(s))", count)
	}
	return reply, nil
}
