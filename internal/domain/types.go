package domain

import "strings"

// MetadataKeyDocumentName is present in every document's metadata.
const MetadataKeyDocumentName = "document_name"

// MetadataKeyProduct carries the product a QA row belongs to.
const MetadataKeyProduct = "product"

// MetadataKeyAnswer carries the approved answer for a question.
const MetadataKeyAnswer = "answer"

// ProductAll is the sentinel product value meaning "no product filter".
const ProductAll = "all"

// QARecord is the shape of one ingested QA JSON file.
type QARecord struct {
	DocumentName string           `json:"document_name"`
	Data         []map[string]any `json:"data"`
}

// Document is a single question with its flat metadata, the unit handed
// to the chunker. Metadata always contains document_name.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Chunk is a bounded slice of a document's text carrying a copy of the
// parent metadata. ID is the vector store point identifier.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Text       string
	Metadata   map[string]any
}

// Point is a stored vector database entry.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a similarity search hit.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// FieldMatch is an equality condition on a payload field.
type FieldMatch struct {
	Key   string
	Value string
}

// Filter restricts a similarity search to points matching all conditions.
type Filter struct {
	Must []FieldMatch
}

// ProductFilter returns an equality filter on the product field, or nil
// for the no-filter sentinel.
func ProductFilter(product string) *Filter {
	if product == "" || strings.EqualFold(product, ProductAll) {
		return nil
	}
	return &Filter{Must: []FieldMatch{{Key: MetadataKeyProduct, Value: product}}}
}

// RankedDocument is one rerank result referring back into the candidate
// slice by index.
type RankedDocument struct {
	Index int
	Score float64
}

// SourceNode is the query-time projection of a stored chunk.
type SourceNode struct {
	NodeID       string  `json:"node_id"`
	DocumentName string  `json:"document_name"`
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Product      string  `json:"product"`
	Score        float64 `json:"score"`
}

// QueryResponse is the correction-suggestion pipeline result.
type QueryResponse struct {
	SuggestedAnswer *string      `json:"suggested_answer"`
	SourceNodes     []SourceNode `json:"source_nodes"`
}

// QuestionResponse is the general question answering pipeline result.
type QuestionResponse struct {
	Answer      string       `json:"answer"`
	SourceNodes []SourceNode `json:"source_nodes"`
}

// UpdateResult reports a completed answer update.
type UpdateResult struct {
	NodeID        string `json:"node_id"`
	UpdatedAnswer string `json:"updated_answer"`
}
