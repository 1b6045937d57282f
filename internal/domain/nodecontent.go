package domain

import (
	"encoding/json"
	"fmt"
)

// PayloadKeyNodeContent holds the serialized NodeContent blob inside a
// stored point's payload. Retrieval reads the chunk text and the answer
// from this blob, so writers must keep it in sync with the top-level
// payload fields that mirror it.
const PayloadKeyNodeContent = "_node_content"

// NodeContent is the nested representation of a stored chunk: its text
// plus the metadata snapshot taken at ingestion time.
type NodeContent struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// EncodeNodeContent serializes content for storage in a point payload.
func EncodeNodeContent(content NodeContent) (string, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encode node content: %w", err)
	}
	return string(data), nil
}

// DecodeNodeContent parses the serialized blob from a point payload.
func DecodeNodeContent(payload map[string]any) (*NodeContent, error) {
	raw, ok := payload[PayloadKeyNodeContent].(string)
	if !ok {
		return nil, fmt.Errorf("payload has no %s field", PayloadKeyNodeContent)
	}
	var content NodeContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, fmt.Errorf("decode node content: %w", err)
	}
	if content.Metadata == nil {
		content.Metadata = map[string]any{}
	}
	return &content, nil
}

// SourceNodeFromPoint projects a search hit into the response shape.
// Question text and answer come from the nested node content; missing
// fields fall back to placeholder strings.
func SourceNodeFromPoint(point ScoredPoint) SourceNode {
	node := SourceNode{
		NodeID:       point.ID,
		DocumentName: "Unknown",
		Question:     "",
		Answer:       "No answer provided",
		Product:      "None specified",
		Score:        point.Score,
	}
	content, err := DecodeNodeContent(point.Payload)
	if err != nil {
		// Fall back to the top-level mirror fields.
		content = &NodeContent{Metadata: point.Payload}
	}
	node.Question = content.Text
	if v, ok := content.Metadata[MetadataKeyDocumentName].(string); ok && v != "" {
		node.DocumentName = v
	}
	if v, ok := content.Metadata[MetadataKeyAnswer].(string); ok && v != "" {
		node.Answer = v
	}
	if v, ok := content.Metadata[MetadataKeyProduct].(string); ok && v != "" {
		node.Product = v
	}
	return node
}
