package trello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrBoardID is returned for a board id that can't name a backup directory, e.g., an empty one.
var ErrBoardID = errors.New("invalid board id")

// Board partially describes a board as listed by ListBoards. Only the fields the backup needs are decoded; the
// full object is preserved in BoardList.Raw.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardList is the response to ListBoards. Raw holds the response body as received, to be written verbatim.
type BoardList struct {
	Boards []*Board
	Raw    json.RawMessage
}

// BoardDetail is a single board with its cards and their attachment metadata. Treat as read-only.
type BoardDetail struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Cards []*Card `json:"cards"`

	// The response body as received.
	Raw json.RawMessage `json:"-"`
}

// Card partially describes a card. Attachments is nil for cards fetched without attachment metadata or
// having none.
type Card struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Attachments []*Attachment `json:"attachments"`
}

// HasAttachments reports whether the card lists at least one attachment. A nil card has none.
func (card *Card) HasAttachments() bool {
	return card != nil && len(card.Attachments) != 0
}

// ListBoards returns all boards of the member owning the token, with only their name field populated beyond id.
func (c *Client) ListBoards(ctx context.Context) (*BoardList, error) {
	params := make(url.Values)
	params.Set("boards", "all")
	params.Set("board_fields", "name")
	b, err := c.pull(ctx, "list boards", "/1/members/me/boards", params)
	if err != nil {
		return nil, err
	}
	list := &BoardList{Raw: b}
	if err := json.Unmarshal(b, &list.Boards); err != nil {
		return nil, fmt.Errorf("list boards, unmarshal: %w", err)
	}
	return list, nil
}

// BoardDetail fetches a board with all its cards, including attachment metadata.
func (c *Client) BoardDetail(ctx context.Context, boardID string) (*BoardDetail, error) {
	if !validBoardID(boardID) {
		return nil, fmt.Errorf("%q: %w", boardID, ErrBoardID)
	}
	params := make(url.Values)
	params.Set("cards", "all")
	params.Set("card_attachments", "true")
	op := "board " + boardID
	b, err := c.pull(ctx, op, "/1/boards/"+url.PathEscape(boardID), params)
	if err != nil {
		return nil, err
	}
	var detail BoardDetail
	if err := json.Unmarshal(b, &detail); err != nil {
		return nil, fmt.Errorf("%s, unmarshal: %w", op, err)
	}
	detail.Raw = b
	return &detail, nil
}

// validBoardID reports whether id can be used as a single path element below the backup root.
func validBoardID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
