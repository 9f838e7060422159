package email

// Config holds the IMAP connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool

	// Folder is the mailbox selected after login; defaults to INBOX.
	Folder string
}
