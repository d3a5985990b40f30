// Package gmail implements the host mail-client contract on top of the
// Gmail API. Labels stand in for folders: the slash-separated label
// namespace gives the folder hierarchy, INBOX is the inbox, and a move is a
// label swap.
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailsort/client"
)

const (
	user          = "me"
	inboxLabelID  = "INBOX"
	unreadLabelID = "UNREAD"

	// User-created labels get IDs of this shape; system labels are bare
	// uppercase names.
	userLabelPrefix = "Label_"

	listPageSize = 100
)

type Client struct {
	srv *gmailapi.Service
}

var _ client.Client = (*Client)(nil)

func NewClient(ctx context.Context, credentialsFile, tokenFile string) (*Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(b, gmailapi.GmailModifyScope, gmailapi.GmailSettingsBasicScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	httpClient, err := getOAuthClient(ctx, oauthConfig, tokenFile)
	if err != nil {
		return nil, err
	}
	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &Client{srv: srv}, nil
}

func getOAuthClient(ctx context.Context, config *oauth2.Config, tokenFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		saveToken(tokenFile, tok)
	}
	return config.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)
	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		log.Printf("Gmail: Unable to save oauth token: %v", err)
		return
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		log.Printf("Gmail: Unable to encode oauth token: %v", err)
	}
}

// ListAccounts returns the single authenticated account.
func (c *Client) ListAccounts(ctx context.Context) ([]client.Account, error) {
	acct, err := c.GetAccount(ctx, user)
	if err != nil {
		return nil, err
	}
	return []client.Account{acct}, nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (client.Account, error) {
	profile, err := c.srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return client.Account{}, fmt.Errorf("fetching profile: %w", err)
	}
	acct := client.Account{ID: user, Name: profile.EmailAddress, Type: "imap"}

	// Send-as aliases are the account's identities; the bare profile address
	// is the fallback when the settings scope is unavailable.
	sendAs, err := c.srv.Users.Settings.SendAs.List(user).Context(ctx).Do()
	if err != nil {
		log.Printf("Gmail: Could not list send-as identities, using profile address: %v", err)
		acct.Identities = []client.Identity{{Email: profile.EmailAddress}}
	} else {
		for _, sa := range sendAs.SendAs {
			acct.Identities = append(acct.Identities, client.Identity{Email: sa.SendAsEmail})
		}
	}

	labels, err := c.srv.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return client.Account{}, fmt.Errorf("listing labels: %w", err)
	}
	for _, l := range labels.Labels {
		acct.Folders = append(acct.Folders, folderFromLabel(l))
	}
	return acct, nil
}

func (c *Client) ListSubfolders(ctx context.Context, folder client.Folder, recursive bool) ([]client.Folder, error) {
	labels, err := c.srv.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}

	// The label namespace is flat; nesting is encoded in slash-separated
	// names. Children of the inbox are the top-level user labels.
	prefix := ""
	if folder.Type != client.FolderTypeInbox && strings.HasPrefix(folder.ID, userLabelPrefix) {
		prefix = folder.Path + "/"
	}

	var out []client.Folder
	for _, l := range labels.Labels {
		if l.Type != "user" {
			continue
		}
		rest, ok := strings.CutPrefix(l.Name, prefix)
		if !ok || rest == "" {
			continue
		}
		if !recursive && strings.Contains(rest, "/") {
			continue
		}
		out = append(out, folderFromLabel(l))
	}
	return out, nil
}

func (c *Client) CreateFolder(ctx context.Context, parent client.Folder, name string) (client.Folder, error) {
	path := name
	if strings.HasPrefix(parent.ID, userLabelPrefix) {
		path = parent.Path + "/" + name
	}
	l, err := c.srv.Users.Labels.Create(user, &gmailapi.Label{
		Name:                  path,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return client.Folder{}, fmt.Errorf("creating label %q: %w", path, err)
	}
	log.Printf("Gmail: Created label %q", path)
	return folderFromLabel(l), nil
}

// MoveMessages applies the destination label and drops INBOX. Messages that
// fail are reported together; the rest are still moved.
func (c *Client) MoveMessages(ctx context.Context, messageIDs []string, dest client.Folder) error {
	mod := &gmailapi.ModifyMessageRequest{
		AddLabelIds:    []string{dest.ID},
		RemoveLabelIds: []string{inboxLabelID},
	}
	var errs []error
	for _, id := range messageIDs {
		if _, err := c.srv.Users.Messages.Modify(user, id, mod).Context(ctx).Do(); err != nil {
			errs = append(errs, fmt.Errorf("moving message %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) GetMessageDetail(ctx context.Context, messageID string) (client.MessageDetail, error) {
	msg, err := c.srv.Users.Messages.Get(user, messageID).Format("metadata").Context(ctx).Do()
	if err != nil {
		return client.MessageDetail{}, fmt.Errorf("fetching message %s: %w", messageID, err)
	}
	headers := make(map[string][]string)
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			key := strings.ToLower(h.Name)
			headers[key] = append(headers[key], h.Value)
		}
	}
	return client.MessageDetail{Headers: headers}, nil
}

func (c *Client) ListMessages(ctx context.Context, folder client.Folder) ([]client.Message, error) {
	res, err := c.srv.Users.Messages.List(user).LabelIds(folder.ID).MaxResults(listPageSize).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages of label %q: %w", folder.Path, err)
	}
	var msgs []client.Message
	for _, m := range res.Messages {
		full, err := c.srv.Users.Messages.Get(user, m.Id).Format("metadata").Context(ctx).Do()
		if err != nil {
			log.Printf("Gmail: Unable to retrieve message %s: %v", m.Id, err)
			continue
		}
		msgs = append(msgs, messageFromAPI(full, folder))
	}
	return msgs, nil
}

func folderFromLabel(l *gmailapi.Label) client.Folder {
	f := client.Folder{ID: l.Id, AccountID: user, Name: l.Name, Path: l.Name}
	if l.Id == inboxLabelID {
		f.Type = client.FolderTypeInbox
	}
	if i := strings.LastIndex(l.Name, "/"); i >= 0 {
		f.Name = l.Name[i+1:]
	}
	return f
}

func messageFromAPI(m *gmailapi.Message, folder client.Folder) client.Message {
	msg := client.Message{ID: m.Id, Folder: folder, Read: true}
	for _, l := range m.LabelIds {
		if l == unreadLabelID {
			msg.Read = false
			break
		}
	}
	if m.Payload == nil {
		return msg
	}
	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			if msg.Author == "" {
				msg.Author = h.Value
			}
		case "to":
			msg.Recipients = append(msg.Recipients, splitAddressList(h.Value)...)
		case "cc":
			msg.CcList = append(msg.CcList, splitAddressList(h.Value)...)
		case "bcc":
			msg.BccList = append(msg.BccList, splitAddressList(h.Value)...)
		}
	}
	return msg
}

// splitAddressList splits a comma-separated header value. Display names
// containing commas come through split; the extractor's normalization drops
// the fragments that carry no <address> part.
func splitAddressList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
