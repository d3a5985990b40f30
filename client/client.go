// Package client defines the capability surface the sorter needs from the
// host mail client, plus the plain data types the core reads. Concrete
// implementations (the Gmail adapter, test doubles) live elsewhere.
package client

import "context"

// FolderTypeInbox marks the inbox folder of an account. Other folders carry
// an empty type.
const FolderTypeInbox = "inbox"

// Identity is one sending identity of an account.
type Identity struct {
	Email string
}

// Account is a mail account as the host exposes it. Type is the protocol tag
// ("imap", "pop3", "nntp", ...).
type Account struct {
	ID         string
	Name       string
	Type       string
	Identities []Identity
	Folders    []Folder
}

// Folder is a mail folder. The core treats it as opaque except for Name
// equality checks; Path is the host's full folder path.
type Folder struct {
	ID        string
	AccountID string
	Name      string
	Path      string
	Type      string
}

// Message is the read-only view of a message the sorter works with. Subject
// is carried for display only; the core never routes on it.
type Message struct {
	ID         string
	Subject    string
	Author     string
	Recipients []string
	CcList     []string
	BccList    []string
	Read       bool
	Folder     Folder
}

// MessageDetail carries the full header map of a message. Keys are
// lower-cased header names; a missing key is normal, not an error.
type MessageDetail struct {
	Headers map[string][]string
}

// Client is the host mail-client contract. Every call may suspend on host
// I/O; failures abandon the affected operation only.
type Client interface {
	GetMessageDetail(ctx context.Context, messageID string) (MessageDetail, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	GetAccount(ctx context.Context, accountID string) (Account, error)
	ListSubfolders(ctx context.Context, folder Folder, recursive bool) ([]Folder, error)
	CreateFolder(ctx context.Context, parent Folder, name string) (Folder, error)
	MoveMessages(ctx context.Context, messageIDs []string, dest Folder) error
	ListMessages(ctx context.Context, folder Folder) ([]Message, error)
}
