package dto

type Blob struct {
	Filename string
	Data     []byte
}

type Batch struct {
	TicketID string
	Blobs    []Blob
}

type ForwardInput struct {
	TicketID string
	// Blobs are the ones not yet forwarded this session.
	Blobs []Blob
}

// ForwardOutcome reports one blob. Error is empty on success.
type ForwardOutcome struct {
	TicketID string
	Filename string
	Name     string
	Location string
	Error    string
}

func (o ForwardOutcome) OK() bool { return o.Error == "" }

type ForwardOutput struct {
	Outcomes []ForwardOutcome
}

type ExportInput struct {
	Batches []Batch
	// Order is the ticket store order used to sequence entries.
	Order []string
}

type ExportOutput struct {
	Filename    string
	ContentType string
	Data        []byte
	Entries     int
}

type InspectOutput struct {
	Filename  string
	Extension string
	Format    string
	Width     int
	Height    int
	Bytes     int
	Decodable bool
}

type UploaderInfo struct {
	Name    string
	Version string
}
