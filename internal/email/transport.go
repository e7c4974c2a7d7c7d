package email

import (
	"crypto/tls"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/colin/cli-mail/internal/config"
)

// FlagOp selects the direction of a flag store operation.
type FlagOp int

const (
	StoreAdd FlagOp = iota
	StoreRemove
)

// FetchItem is one fetched message: the metadata line and, when a body
// section was requested, its raw bytes.
type FetchItem struct {
	Meta string
	Body []byte
}

// SearchQuery is a server-side search matching either field.
type SearchQuery struct {
	Subject string
	From    string
}

// Transport is the wire-level mailbox access the session drives. List,
// Status and fetch metadata come back as canonical text lines so the
// session's tokenizers stay the single place response shapes are
// understood.
type Transport interface {
	// List returns one mailbox-list line per folder.
	List() ([]string, error)
	// Status returns the status line for a folder without selecting it.
	Status(folder string) (string, error)
	// Select opens a folder and returns its message count.
	Select(folder string) (int, error)
	// FetchHeaders fetches UID, flags and header section for the
	// sequence number range [start, end].
	FetchHeaders(start, end int) ([]FetchItem, error)
	// FetchHeadersSeq is FetchHeaders for an explicit set of sequence
	// numbers.
	FetchHeadersSeq(seqs []int) ([]FetchItem, error)
	// FetchMessage fetches the full raw message for a UID. A nil item
	// with nil error means the UID no longer exists.
	FetchMessage(uid string) (*FetchItem, error)
	// Search returns matching sequence numbers in mailbox order.
	Search(q SearchQuery) ([]int, error)
	// StoreFlags adds or removes one flag on a message by UID.
	StoreFlags(uid string, op FlagOp, flag string) error
	// Expunge permanently removes messages marked deleted.
	Expunge() error
	// Copy copies a message by UID into another folder.
	Copy(uid, dest string) error
	// Logout ends the connection.
	Logout() error
}

// DialFunc opens a Transport for an account. The session takes one so
// tests can substitute an in-memory transport.
type DialFunc func(account config.AccountConfig, password string) (Transport, error)

// Dial connects to the account's mail server, negotiates TLS and logs
// in.
func Dial(account config.AccountConfig, password string) (Transport, error) {
	addr := fmt.Sprintf("%s:%d", account.IMAPHost, account.IMAPPort)

	var (
		c   *client.Client
		err error
	)
	if account.UseTLS {
		c, err = client.DialTLS(addr, nil)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		}
	} else {
		c, err = client.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		}
		if err := c.StartTLS(&tls.Config{ServerName: account.IMAPHost}); err != nil {
			c.Logout()
			return nil, fmt.Errorf("starting TLS with %s: %w", addr, err)
		}
	}

	if err := c.Login(account.Email, password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("logging in as %s: %w", account.Email, err)
	}

	return &imapTransport{client: c}, nil
}

type imapTransport struct {
	client *client.Client
}

func (t *imapTransport) List() ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- t.client.List("", "*", mailboxes)
	}()

	var lines []string
	for mbox := range mailboxes {
		lines = append(lines, renderListLine(mbox))
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return lines, nil
}

func (t *imapTransport) Status(folder string) (string, error) {
	status, err := t.client.Status(folder, []imap.StatusItem{imap.StatusMessages, imap.StatusUnseen})
	if err != nil {
		return "", fmt.Errorf("getting status of %s: %w", folder, err)
	}
	return fmt.Sprintf("%q (MESSAGES %d UNSEEN %d)", status.Name, status.Messages, status.Unseen), nil
}

func (t *imapTransport) Select(folder string) (int, error) {
	mbox, err := t.client.Select(folder, false)
	if err != nil {
		return 0, fmt.Errorf("selecting %s: %w", folder, err)
	}
	return int(mbox.Messages), nil
}

func (t *imapTransport) FetchHeaders(start, end int) ([]FetchItem, error) {
	seqset := new(imap.SeqSet)
	seqset.AddRange(uint32(start), uint32(end))
	return t.fetchHeaderSet(seqset)
}

func (t *imapTransport) FetchHeadersSeq(seqs []int) ([]FetchItem, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	seqset := new(imap.SeqSet)
	for _, seq := range seqs {
		seqset.AddNum(uint32(seq))
	}
	return t.fetchHeaderSet(seqset)
}

// fetchHeaderSet fetches UID, flags and the header section for a set of
// sequence numbers. The header is fetched with peek so listing a folder
// never marks anything read.
func (t *imapTransport) fetchHeaderSet(seqset *imap.SeqSet) ([]FetchItem, error) {
	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{Specifier: imap.HeaderSpecifier},
		Peek:         true,
	}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchFlags, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- t.client.Fetch(seqset, items, messages)
	}()

	var fetched []FetchItem
	for msg := range messages {
		fetched = append(fetched, FetchItem{
			Meta: renderFetchMeta(msg),
			Body: readLiteral(msg.GetBody(section)),
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching headers: %w", err)
	}
	return fetched, nil
}

func (t *imapTransport) FetchMessage(uid string) (*FetchItem, error) {
	seqset, err := uidSet(uid)
	if err != nil {
		return nil, err
	}

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchFlags, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- t.client.UidFetch(seqset, items, messages)
	}()

	var fetched *FetchItem
	for msg := range messages {
		fetched = &FetchItem{
			Meta: renderFetchMeta(msg),
			Body: readLiteral(msg.GetBody(section)),
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", uid, err)
	}
	return fetched, nil
}

func (t *imapTransport) Search(q SearchQuery) ([]int, error) {
	criteria := imap.NewSearchCriteria()

	subject := imap.NewSearchCriteria()
	subject.Header.Add("Subject", q.Subject)
	from := imap.NewSearchCriteria()
	from.Header.Add("From", q.From)
	criteria.Or = append(criteria.Or, [2]*imap.SearchCriteria{subject, from})

	ids, err := t.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	seqs := make([]int, len(ids))
	for i, id := range ids {
		seqs[i] = int(id)
	}
	return seqs, nil
}

func (t *imapTransport) StoreFlags(uid string, op FlagOp, flag string) error {
	seqset, err := uidSet(uid)
	if err != nil {
		return err
	}

	var flagsOp imap.FlagsOp = imap.AddFlags
	if op == StoreRemove {
		flagsOp = imap.RemoveFlags
	}
	item := imap.FormatFlagsOp(flagsOp, true)

	if err := t.client.UidStore(seqset, item, []interface{}{flag}, nil); err != nil {
		return fmt.Errorf("storing flags on %s: %w", uid, err)
	}
	return nil
}

func (t *imapTransport) Expunge() error {
	if err := t.client.Expunge(nil); err != nil {
		return fmt.Errorf("expunging: %w", err)
	}
	return nil
}

func (t *imapTransport) Copy(uid, dest string) error {
	seqset, err := uidSet(uid)
	if err != nil {
		return err
	}
	if err := t.client.UidCopy(seqset, dest); err != nil {
		return fmt.Errorf("copying %s to %s: %w", uid, dest, err)
	}
	return nil
}

func (t *imapTransport) Logout() error {
	return t.client.Logout()
}

func uidSet(uid string) (*imap.SeqSet, error) {
	n, err := strconv.ParseUint(uid, 10, 32)
	if err != nil || n == 0 {
		return nil, fmt.Errorf("invalid uid %q", uid)
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(n))
	return seqset, nil
}

// renderListLine renders a mailbox entry in the canonical list shape the
// tokenizer expects.
func renderListLine(mbox *imap.MailboxInfo) string {
	delim := "NIL"
	if mbox.Delimiter != "" {
		delim = fmt.Sprintf("%q", mbox.Delimiter)
	}
	return fmt.Sprintf("(%s) %s %q", strings.Join(mbox.Attributes, " "), delim, mbox.Name)
}

// renderFetchMeta renders a fetched message's metadata line.
func renderFetchMeta(msg *imap.Message) string {
	return fmt.Sprintf("%d (UID %d FLAGS (%s))", msg.SeqNum, msg.Uid, strings.Join(msg.Flags, " "))
}

func readLiteral(lit imap.Literal) []byte {
	if lit == nil {
		return nil
	}
	data, err := io.ReadAll(lit)
	if err != nil {
		return nil
	}
	return data
}
