package model

import "time"

// RawMessage is one message as handed over by a mail transport: the
// transport-scoped identifier plus the unparsed RFC 5322 bytes.
type RawMessage struct {
	ID   string
	Data []byte
}

// NormalizedMessage is the canonical, display-ready form of a fetched message.
// IDs are only unique within the transport session that produced them.
type NormalizedMessage struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Body    string `json:"body"`
	Preview string `json:"preview"`
}

type QueryMode string

const (
	QuerySince QueryMode = "since"
	QueryOn    QueryMode = "on"
)

// DateQuery is the only search predicate transports need to support.
type DateQuery struct {
	Date time.Time
	Mode QueryMode
}

func Since(t time.Time) DateQuery {
	return DateQuery{Date: t, Mode: QuerySince}
}

func On(t time.Time) DateQuery {
	return DateQuery{Date: t, Mode: QueryOn}
}
