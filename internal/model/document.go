package model

// DocumentGroup collects the pages classified under one filename.
type DocumentGroup struct {
	Filename string
	Category string
	Summary  string
	Pages    []int // strictly increasing
}

// ManifestEntry is the durable record of one split decision.
type ManifestEntry struct {
	Filename string `json:"filename" csv:"Filename"`
	Category string `json:"category" csv:"Category"`
	Summary  string `json:"summary" csv:"Summary"`
}

// Anomaly describes a non-fatal data quality problem found while grouping.
type Anomaly struct {
	Filename string
	Message  string
	Page     int
}
