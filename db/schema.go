package db

import _ "embed"

// Schema creates the session and photo tables and the insert trigger that
// feeds the photo_inserted notification channel. It is idempotent.
//
//go:embed init.sql
var Schema string
