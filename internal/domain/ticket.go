package domain

// RemoteTicket is a ticket record owned by the external ticketing
// system, identified by an opaque id and matched by its reference code.
// Options carries the ticket's extension fields (open-ended key/value
// pairs, used here to store reconciled work-hour instants).
type RemoteTicket struct {
	ID      string
	Ref     string
	Status  int
	Options map[string]any
}

// RemoteThirdparty is a customer record in the external CRM, matched by
// customer code or reference. Read-only from this system's perspective.
type RemoteThirdparty struct {
	ID         string
	Name       string
	ClientCode string
	Ref        string
}

// RemoteUser is a CRM user, matched by exact login.
type RemoteUser struct {
	ID    string
	Login string
}

// AgendaEvent describes a calendar event to create against a third
// party and an owning user. Start and End are epoch seconds.
type AgendaEvent struct {
	ThirdpartyID string
	OwnerUserID  string
	TypeCode     string
	Label        string
	Note         string
	Location     string
	Start        int64
	End          int64
}
