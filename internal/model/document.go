package model

type IngestResult struct {
	Identifier string `json:"filename"`
	Text       string `json:"extracted_text"`
	Position   int    `json:"-"`
}
