package model

// Record is one embedded document, addressed by its append position.
type Record struct {
	Position   int       `json:"position"`
	Identifier string    `json:"identifier"`
	Vector     []float32 `json:"vector"`
}

type Hit struct {
	Position int     `json:"position"`
	Distance float64 `json:"distance"`
}

type IndexStats struct {
	Documents int `json:"documents"`
	Vectors   int `json:"vectors"`
	Dimension int `json:"dimension"`
}

// AuditReport describes identifiers that are indexed but have no stored text.
type AuditReport struct {
	Vectors     int      `json:"vectors"`
	Identifiers int      `json:"identifiers"`
	Missing     []string `json:"missing"`
}
