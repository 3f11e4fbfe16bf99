package trello

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	uuid "github.com/nu7hatch/gouuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// API is the subset of Client used by a backup.
type API interface {
	Downloader
	ListBoards(ctx context.Context) (*BoardList, error)
	BoardDetail(ctx context.Context, boardID string) (*BoardDetail, error)
}

// Options describe a backup job.
type Options struct {
	// Name of the backup, used as the directory name below OutputDir.
	Name string

	// OutputDir defaults to the current directory.
	OutputDir string

	// Whether to download card attachments.
	Attachments bool

	// Concurrency bounds the number of boards, and separately of attachments, being processed at once. Zero or
	// negative means no limit.
	Concurrency int
}

// Root is the backup root directory.
func (o Options) Root() string {
	dir := o.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, o.Name)
}

// Report summarizes a completed run. Failures for single boards or attachments are collected here rather than
// aborting the run.
type Report struct {
	RunID       string
	Root        string
	Boards      int
	Cards       int
	Attachments int
	Bytes       int64
	Failures    []error
}

// Err joins all collected failures, or returns nil if there were none.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return errors.Join(r.Failures...)
}

// Backup copies all boards reachable through an API to a Store.
type Backup struct {
	api   API
	store *Store
	opts  Options

	mu     sync.Mutex
	report Report
}

func NewBackup(api API, opts Options) *Backup {
	return &Backup{
		api:   api,
		store: NewStore(opts.Root()),
		opts:  opts,
	}
}

func newRunID() string {
	u, err := uuid.NewV4()
	if err != nil {
		return "unknown"
	}
	return u.String()
}

// Run creates the backup root, writes boards.json, then backs up every board. An error is returned if the root
// can't be created or the boards can't be listed or written; in that case nothing below the root is touched.
// Otherwise the report is returned, including failures of single boards and attachments (see Report.Err).
func (b *Backup) Run(ctx context.Context) (*Report, error) {
	b.report = Report{RunID: newRunID(), Root: b.store.Root()}
	logEntry := log.WithField("run", b.report.RunID)
	logEntry.Infof("Backing up all boards to %s", b.store.Root())

	root, err := b.store.EnsureDir()
	if err != nil {
		return nil, err
	}
	list, err := b.api.ListBoards(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.store.WriteJSON(root, "boards", list.Raw); err != nil {
		return nil, err
	}
	logEntry.Infof("Found %d boards, backing them up now", len(list.Boards))

	var boards, downloads errgroup.Group
	if b.opts.Concurrency > 0 {
		boards.SetLimit(b.opts.Concurrency)
		downloads.SetLimit(b.opts.Concurrency)
	}
	for _, board := range list.Boards {
		if board == nil {
			continue
		}
		boards.Go(func() error {
			if err := b.board(ctx, logEntry, &downloads, board); err != nil {
				logEntry.WithFields(log.Fields{
					"board": board.ID,
					"name":  board.Name,
					"cause": err,
				}).Error("Could not back up board")
				b.fail(fmt.Errorf("board %s: %w", board.ID, err))
			}
			return nil
		})
	}
	_ = boards.Wait()
	_ = downloads.Wait()

	report := b.report
	logEntry.WithFields(log.Fields{
		"boards":      report.Boards,
		"cards":       report.Cards,
		"attachments": report.Attachments,
		"size":        humanize.Bytes(uint64(report.Bytes)),
		"failures":    len(report.Failures),
	}).Info("Backup complete")
	return &report, nil
}

func (b *Backup) board(ctx context.Context, logEntry *log.Entry, downloads *errgroup.Group, board *Board) error {
	if !validBoardID(board.ID) {
		return fmt.Errorf("%q: %w", board.ID, ErrBoardID)
	}
	dir, err := b.store.EnsureDir(board.ID)
	if err != nil {
		return err
	}
	detail, err := b.api.BoardDetail(ctx, board.ID)
	if err != nil {
		return err
	}
	if err := b.store.WriteJSON(dir, "cards", detail.Raw); err != nil {
		return err
	}
	b.mu.Lock()
	b.report.Boards++
	b.report.Cards += len(detail.Cards)
	b.mu.Unlock()
	logEntry.WithFields(log.Fields{
		"board": board.ID,
		"name":  board.Name,
		"cards": len(detail.Cards),
	}).Debug("Saved cards")

	if !b.opts.Attachments {
		return nil
	}
	taken := map[string]bool{"cards.json": true}
	for _, card := range detail.Cards {
		if !card.HasAttachments() {
			continue
		}
		for _, attachment := range card.Attachments {
			if attachment == nil {
				continue
			}
			filename := uniqueFileName(taken, attachment)
			downloads.Go(func() error {
				b.attachment(ctx, logEntry, dir, board.ID, filename, attachment)
				return nil
			})
		}
	}
	return nil
}

// uniqueFileName returns the attachment's file name, or, if another attachment of the same board already took it,
// the name prefixed with the attachment id (and a counter if that is taken too). No two downloads of a board
// write the same file.
func uniqueFileName(taken map[string]bool, attachment *Attachment) string {
	base := attachment.FileName()
	name := base
	if taken[name] && attachment.ID != "" && attachment.ID != base {
		name = attachment.ID + "-" + base
	}
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%d-%s", i, base)
	}
	taken[name] = true
	return name
}

func (b *Backup) attachment(ctx context.Context, logEntry *log.Entry, dir, boardID, filename string, attachment *Attachment) {
	logEntry = logEntry.WithFields(log.Fields{
		"board":      boardID,
		"attachment": filename,
	})
	logEntry.WithField("dir", dir).Info("Saving attachment")
	n, err := b.store.Download(ctx, b.api, dir, filename, attachment.URL)
	if err != nil {
		logEntry.WithField("cause", err).Error("Could not save attachment")
		b.fail(fmt.Errorf("board %s, attachment %s: %w", boardID, filename, err))
		return
	}
	b.mu.Lock()
	b.report.Attachments++
	b.report.Bytes += n
	b.mu.Unlock()
	logEntry.WithField("size", humanize.Bytes(uint64(n))).Debug("Saved attachment")
}

func (b *Backup) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failures = append(b.report.Failures, err)
}
