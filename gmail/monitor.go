package gmail

import (
	"context"
	"log"
	"time"

	"mailsort/client"
)

// Batch is one new-mail event: the inbox it arrived in and the messages of
// the batch.
type Batch struct {
	Inbox    client.Folder
	Messages []client.Message
}

// Monitor polls the inbox and emits new-mail batches on the given channel.
// The first poll emits the current tail of the inbox and sets the baseline;
// later polls emit only messages newer than the baseline. The channel is
// closed when ctx is cancelled. Poll errors are logged and the next tick
// tries again.
func (c *Client) Monitor(ctx context.Context, batches chan<- Batch, initialDelay, pollInterval time.Duration) {
	defer close(batches)

	select {
	case <-time.After(initialDelay):
	case <-ctx.Done():
		return
	}

	inbox, err := c.inboxFolder(ctx)
	if err != nil {
		log.Printf("Gmail Monitor: Unable to resolve the inbox, stopping: %v", err)
		return
	}

	var lastMessageID string

	log.Printf("Gmail Monitor: Performing initial inbox fetch...")
	initial, err := c.ListMessages(ctx, inbox)
	if err != nil {
		log.Printf("Gmail Monitor: Initial fetch failed: %v", err)
	} else if len(initial) > 0 {
		lastMessageID = initial[0].ID
		log.Printf("Gmail Monitor: Baseline for future polls set to message %s", lastMessageID)
		if !emit(ctx, batches, Batch{Inbox: inbox, Messages: initial}) {
			return
		}
	} else {
		log.Println("Gmail Monitor: No messages found in initial fetch.")
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Gmail Monitor: Stopping.")
			return
		case <-ticker.C:
			msgs, err := c.ListMessages(ctx, inbox)
			if err != nil {
				log.Printf("Gmail Monitor: Error checking for new messages: %v", err)
				continue
			}

			fresh := newSince(msgs, lastMessageID)
			if len(fresh) == 0 {
				continue
			}
			log.Printf("Gmail Monitor: Found %d new messages.", len(fresh))
			lastMessageID = msgs[0].ID
			if !emit(ctx, batches, Batch{Inbox: inbox, Messages: fresh}) {
				return
			}
		}
	}
}

func (c *Client) inboxFolder(ctx context.Context) (client.Folder, error) {
	l, err := c.srv.Users.Labels.Get(user, inboxLabelID).Context(ctx).Do()
	if err != nil {
		return client.Folder{}, err
	}
	return folderFromLabel(l), nil
}

// newSince keeps the prefix of the newest-first list that precedes the
// baseline message. With no baseline the whole list counts as new.
func newSince(msgs []client.Message, lastMessageID string) []client.Message {
	if lastMessageID == "" {
		return msgs
	}
	for i, m := range msgs {
		if m.ID == lastMessageID {
			return msgs[:i]
		}
	}
	return msgs
}

func emit(ctx context.Context, batches chan<- Batch, b Batch) bool {
	select {
	case batches <- b:
		return true
	case <-ctx.Done():
		return false
	}
}
