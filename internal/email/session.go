package email

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/colin/cli-mail/internal/config"
	"github.com/colin/cli-mail/pkg/types"
)

// Session is a stateful mailbox session for one account. Operations
// that work inside a folder select it themselves on every call; the
// server-side cursor is not trusted to survive unrelated commands. A
// session is not safe for concurrent use.
type Session struct {
	account config.AccountConfig
	dial    DialFunc
	logger  *logrus.Logger

	transport Transport

	render      RenderOptions
	searchLimit int
}

// NewSession creates a disconnected session for an account.
func NewSession(account config.AccountConfig, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	return &Session{
		account:     account,
		dial:        Dial,
		logger:      logger,
		render:      DefaultRenderOptions(),
		searchLimit: config.DefaultSearchResultLimit,
	}
}

// SetDialFunc replaces how the session opens its transport.
func (s *Session) SetDialFunc(dial DialFunc) {
	s.dial = dial
}

// SetSearchLimit caps how many results Search returns.
func (s *Session) SetSearchLimit(limit int) {
	if limit > 0 {
		s.searchLimit = limit
	}
}

// SetRenderOptions changes how HTML-only bodies are rendered to text.
func (s *Session) SetRenderOptions(opts RenderOptions) {
	s.render = opts
}

// Connect logs in to the mail server. Connecting an already connected
// session replaces the old connection.
func (s *Session) Connect(password string) error {
	if s.transport != nil {
		s.Disconnect()
	}

	transport, err := s.dial(s.account, password)
	if err != nil {
		return err
	}
	s.transport = transport

	s.logger.WithField("account", s.account.Email).Debug("Connected to mail server")
	return nil
}

// Disconnect logs out and drops the connection. The logout is best
// effort; the session is disconnected afterwards regardless.
func (s *Session) Disconnect() {
	if s.transport == nil {
		return
	}
	if err := s.transport.Logout(); err != nil {
		s.logger.WithError(err).Debug("Logout failed")
	}
	s.transport = nil
}

func (s *Session) conn() (Transport, error) {
	if s.transport == nil {
		return nil, ErrNotConnected
	}
	return s.transport, nil
}

// ListFolders returns every folder on the server with its message
// counters. Folders whose status cannot be read are still listed, with
// zeroed counters. List lines that do not parse are skipped.
func (s *Session) ListFolders() ([]types.Folder, error) {
	t, err := s.conn()
	if err != nil {
		return nil, err
	}

	lines, err := t.List()
	if err != nil {
		return nil, err
	}

	var folders []types.Folder
	for _, line := range lines {
		parsed, ok := ParseListLine(line)
		if !ok {
			s.logger.WithField("line", line).Debug("Skipping malformed list response")
			continue
		}

		folder := types.Folder{
			Name:      parsed.Name,
			Delimiter: parsed.Delimiter,
			Flags:     types.NewFlagSet(parsed.Flags...),
		}
		folder.Total, folder.Unread = s.FolderStatus(parsed.Name)
		folders = append(folders, folder)
	}
	return folders, nil
}

// FolderStatus returns the total and unseen message counts for a folder
// without selecting it. Any failure yields zero counts.
func (s *Session) FolderStatus(folder string) (total, unseen int) {
	t, err := s.conn()
	if err != nil {
		return 0, 0
	}

	line, err := t.Status(folder)
	if err != nil {
		s.logger.WithError(err).WithField("folder", folder).Debug("Status failed")
		return 0, 0
	}

	total, unseen, ok := ParseStatusLine(line)
	if !ok {
		s.logger.WithField("line", line).Debug("Skipping malformed status response")
		return 0, 0
	}
	return total, unseen
}

// SelectFolder opens a folder and returns its message count.
func (s *Session) SelectFolder(folder string) (int, error) {
	t, err := s.conn()
	if err != nil {
		return 0, err
	}

	total, err := t.Select(folder)
	if err != nil {
		return 0, &SelectionError{Folder: folder, Err: err}
	}
	return total, nil
}

// FetchHeaders returns a page of a folder, newest first. offset skips
// that many of the newest messages; limit caps the page size. Paging
// past the end of the folder yields an empty page.
func (s *Session) FetchHeaders(folder string, offset, limit int) ([]*types.EmailHeader, error) {
	t, err := s.conn()
	if err != nil {
		return nil, err
	}

	total, err := s.SelectFolder(folder)
	if err != nil {
		return nil, err
	}
	if total == 0 || limit < 1 {
		return nil, nil
	}

	end := total - offset
	if end < 1 {
		return nil, nil
	}
	start := total - offset - limit + 1
	if start < 1 {
		start = 1
	}

	items, err := t.FetchHeaders(start, end)
	if err != nil {
		return nil, err
	}
	return reverseHeaders(s.parseHeaderItems(items)), nil
}

// FetchEmail downloads and parses the full message for a UID. A nil
// email with nil error means the message no longer exists.
func (s *Session) FetchEmail(folder, uid string) (*types.Email, error) {
	t, err := s.conn()
	if err != nil {
		return nil, err
	}

	if _, err := s.SelectFolder(folder); err != nil {
		return nil, err
	}

	item, err := t.FetchMessage(uid)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	gotUID, flags := ParseFetchMeta(item.Meta)
	return ParseEmail(item.Body, gotUID, types.NewFlagSet(flags...), s.render)
}

// Search finds messages in a folder whose subject or sender matches the
// term and returns their headers, newest first, capped at the session's
// search limit.
func (s *Session) Search(folder, term string) ([]*types.EmailHeader, error) {
	t, err := s.conn()
	if err != nil {
		return nil, err
	}

	if _, err := s.SelectFolder(folder); err != nil {
		return nil, err
	}

	escaped := EscapeSearchTerm(term)
	seqs, err := t.Search(SearchQuery{Subject: escaped, From: escaped})
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, nil
	}

	// Sequence numbers come back in mailbox order, so the tail holds
	// the most recent matches.
	if len(seqs) > s.searchLimit {
		seqs = seqs[len(seqs)-s.searchLimit:]
	}

	items, err := t.FetchHeadersSeq(seqs)
	if err != nil {
		return nil, err
	}
	return reverseHeaders(s.parseHeaderItems(items)), nil
}

// SetFlag adds one flag to a message.
func (s *Session) SetFlag(folder, uid, flag string) error {
	return s.storeFlag(folder, uid, StoreAdd, flag)
}

// RemoveFlag removes one flag from a message.
func (s *Session) RemoveFlag(folder, uid, flag string) error {
	return s.storeFlag(folder, uid, StoreRemove, flag)
}

func (s *Session) storeFlag(folder, uid string, op FlagOp, flag string) error {
	t, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := s.SelectFolder(folder); err != nil {
		return err
	}
	return t.StoreFlags(uid, op, flag)
}

// DeleteEmail marks a message deleted and expunges the folder. If the
// flag cannot be set the expunge is skipped so unrelated messages
// marked deleted are not swept up.
func (s *Session) DeleteEmail(folder, uid string) error {
	if err := s.SetFlag(folder, uid, types.FlagDeleted); err != nil {
		return fmt.Errorf("marking %s deleted: %w", uid, err)
	}

	t, err := s.conn()
	if err != nil {
		return err
	}
	if err := t.Expunge(); err != nil {
		return fmt.Errorf("expunging %s: %w", uid, err)
	}
	return nil
}

// MoveEmail copies a message to another folder and deletes the original.
// The copy happens first so a failure partway leaves at worst a
// duplicate, never a lost message. Per-step failures are reported as a
// false result; the error return is reserved for a missing connection or
// an unselectable source folder.
func (s *Session) MoveEmail(folder, uid, dest string) (bool, error) {
	t, err := s.conn()
	if err != nil {
		return false, err
	}
	if _, err := s.SelectFolder(folder); err != nil {
		return false, err
	}

	log := s.logger.WithFields(logrus.Fields{"uid": uid, "dest": dest})

	if err := t.Copy(uid, dest); err != nil {
		log.WithError(err).Warn("Copy failed, message left in place")
		return false, nil
	}
	if err := t.StoreFlags(uid, StoreAdd, types.FlagDeleted); err != nil {
		log.WithError(err).Warn("Could not mark original deleted after copy")
		return false, nil
	}
	if err := t.Expunge(); err != nil {
		log.WithError(err).Warn("Could not expunge original after copy")
		return false, nil
	}
	return true, nil
}

// parseHeaderItems turns fetched items into headers, skipping any that
// cannot be parsed.
func (s *Session) parseHeaderItems(items []FetchItem) []*types.EmailHeader {
	headers := make([]*types.EmailHeader, 0, len(items))
	for _, item := range items {
		uid, flags := ParseFetchMeta(item.Meta)
		header, err := ParseHeader(item.Body, uid, types.NewFlagSet(flags...))
		if err != nil {
			s.logger.WithError(err).WithField("uid", uid).Debug("Skipping unparseable message")
			continue
		}
		headers = append(headers, header)
	}
	return headers
}

func reverseHeaders(headers []*types.EmailHeader) []*types.EmailHeader {
	for i, j := 0, len(headers)-1; i < j; i, j = i+1, j-1 {
		headers[i], headers[j] = headers[j], headers[i]
	}
	return headers
}
