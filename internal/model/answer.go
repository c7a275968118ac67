package model

const NoContextAnswer = "No relevant context found"

type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type Answer struct {
	Text       string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

type QueryResult struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Entities []Entity `json:"entities"`
}
