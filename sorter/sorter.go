// Package sorter orchestrates per-message routing: extract candidate
// addresses, evaluate the rules, and move the message into the folder named
// after the derived slug, creating it when needed.
package sorter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mailsort/address"
	"mailsort/client"
	"mailsort/rules"
)

type Sorter struct {
	client client.Client
	rules  *rules.Store
}

func New(c client.Client, store *rules.Store) *Sorter {
	return &Sorter{client: c, rules: store}
}

// SortMessage routes one message. Missing-data outcomes (no extractable
// addresses, no matching rule, message already in its slug folder) are
// logged and return nil; host-call failures abandon this message's sort and
// are returned to the caller. Nothing is retried.
func (s *Sorter) SortMessage(ctx context.Context, inbox client.Folder, msg client.Message) error {
	detail, err := s.client.GetMessageDetail(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("fetching headers for message %s: %w", msg.ID, err)
	}

	recipients := address.Recipients(msg, detail)
	senders := address.Senders(msg, detail)
	if len(recipients) == 0 && len(senders) == 0 {
		log.Printf("Sort: Message %s has no extractable addresses", msg.ID)
		return nil
	}

	ruleSet, err := s.rules.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	match, ok := rules.Find(ruleSet, recipients, senders)
	if !ok {
		log.Printf("Sort: No rule matched message %s (recipients: %s; senders: %s)",
			msg.ID, quoteAll(recipients), quoteAll(senders))
		return nil
	}

	// Noop if the message already sits in a folder named after the slug.
	// This also keeps a re-triggered sort from looping.
	if msg.Folder.Name == match.Slug {
		return nil
	}

	log.Printf("Sort: Message from %s matched %q on %s, moving to %q",
		msg.Author, match.Address, match.MatchedOn, match.Slug)

	subfolders, err := s.client.ListSubfolders(ctx, inbox, false)
	if err != nil {
		return fmt.Errorf("listing subfolders of %q: %w", inbox.Name, err)
	}

	dest, found := client.Folder{}, false
	for _, f := range subfolders {
		if f.Name == match.Slug {
			dest, found = f, true
			break
		}
	}
	if !found {
		dest, err = s.client.CreateFolder(ctx, msg.Folder, match.Slug)
		if err != nil {
			return fmt.Errorf("creating folder %q: %w", match.Slug, err)
		}
	}

	if err := s.client.MoveMessages(ctx, []string{msg.ID}, dest); err != nil {
		return fmt.Errorf("moving message %s to %q: %w", msg.ID, match.Slug, err)
	}
	return nil
}

// SortMessages sorts every message of a batch. It is a no-op for non-inbox
// folders. Each message is sorted on its own goroutine and the call returns
// once all of them are launched; completions interleave freely, so two
// messages targeting the same not-yet-existing slug may both attempt the
// folder creation. One message failing never blocks the others.
func (s *Sorter) SortMessages(ctx context.Context, inbox client.Folder, msgs []client.Message, ignoreRead bool) {
	if inbox.Type != client.FolderTypeInbox {
		return
	}
	for _, msg := range msgs {
		if ignoreRead && msg.Read {
			log.Printf("Sort: Ignoring read message %s", msg.ID)
			continue
		}
		go func(msg client.Message) {
			if err := s.SortMessage(ctx, inbox, msg); err != nil {
				log.Printf("Sort: Message %s: %v", msg.ID, err)
			}
		}(msg)
	}
}

// SortFolder is the "sort this folder now" entry point: it resolves the
// inbox behind the given folder, lists its messages and sorts all of them,
// read ones included. It returns the number of messages dispatched.
func (s *Sorter) SortFolder(ctx context.Context, folder client.Folder) (int, error) {
	inbox, ok, err := s.ResolveInbox(ctx, folder)
	if err != nil {
		return 0, err
	}
	if !ok {
		log.Printf("Sort: No inbox found for folder %q", folder.Name)
		return 0, nil
	}
	msgs, err := s.client.ListMessages(ctx, inbox)
	if err != nil {
		return 0, fmt.Errorf("listing messages of %q: %w", inbox.Name, err)
	}
	s.SortMessages(ctx, inbox, msgs, false)
	return len(msgs), nil
}

// SortSelected sorts an explicitly chosen set of messages against the inbox
// of the folder they were selected in.
func (s *Sorter) SortSelected(ctx context.Context, folder client.Folder, msgs []client.Message) error {
	inbox, ok, err := s.ResolveInbox(ctx, folder)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("Sort: No inbox found for folder %q", folder.Name)
		return nil
	}
	s.SortMessages(ctx, inbox, msgs, false)
	return nil
}

// ResolveInbox returns the folder itself when it is the inbox, otherwise the
// inbox of the owning account. ok is false when the account has none; that
// is a reported non-error.
func (s *Sorter) ResolveInbox(ctx context.Context, folder client.Folder) (client.Folder, bool, error) {
	if folder.Type == client.FolderTypeInbox {
		return folder, true, nil
	}
	acct, err := s.client.GetAccount(ctx, folder.AccountID)
	if err != nil {
		return client.Folder{}, false, fmt.Errorf("resolving account of folder %q: %w", folder.Name, err)
	}
	for _, f := range acct.Folders {
		if f.Type == client.FolderTypeInbox {
			return f, true, nil
		}
	}
	return client.Folder{}, false, nil
}

func quoteAll(addrs []string) string {
	quoted := make([]string, len(addrs))
	for i, a := range addrs {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return strings.Join(quoted, ", ")
}
