// The trello-backup program copies all Trello boards of a member, with their cards and attachments, to a
// directory on local disk.
//
// Usage:
//
//	trello-backup -k <key> -t <token> -n <name> [-a true|false] [--config file.yml]
//
// The key and token are the member's Trello API key and token. The backup is written to the directory <name>
// below the configured output directory (default: the current directory): boards.json lists the boards, and each
// board gets a subdirectory named by its id with cards.json and the attachment files. Running twice with the same
// name overwrites the previous backup.
//
// Attachments are downloaded unless -a false is given.
//
// The optional YAML configuration file, given with --config or the TRELLO_BACKUP_CONFIG environment variable,
// sets the API endpoint, output directory, concurrency, request timeout, logging, a wire log of API responses,
// and an S3 bucket to copy the finished backup to. See config.go for the keys.
//
// The exit status is 0 on success, 2 for invalid options and 1 if anything could not be backed up.
package main // import "github.com/adamgary21/trello-backup/cmd/trello-backup"
