// The trello package backs up a member's Trello boards to local disk, using the subset of the Trello REST API
// documented at https://developer.atlassian.com/cloud/trello/rest/ that is needed for it: listing the member's
// boards and fetching each board with its cards and attachment metadata. The only consumer is the trello-backup
// command in the cmd/trello-backup subdirectory.
//
// A backup is a directory named after the backup, holding boards.json (the boards list as returned by the API)
// and one subdirectory per board, named by the board id, holding cards.json (the board detail as returned by the
// API) and the board's attachment files. JSON is passed through, not re-encoded from the partial types in this
// package, so fields the package doesn't know about are preserved.
//
// Boards are backed up concurrently and attachments are downloaded concurrently; Backup.Run returns once all of
// them are done. A failure to list the boards is fatal, while failures for single boards and attachments are
// collected in the Report.
//
// Mirror optionally copies a finished backup to an S3 bucket.
package trello // import "github.com/adamgary21/trello-backup"
