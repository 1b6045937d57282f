// Package loader reads vendor questionnaire QA files and turns them
// into documents ready for chunking and indexing.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"qarag/internal/domain"
)

// Loader reads QA record files from disk. Malformed files are skipped
// with a warning so one bad export does not abort a whole batch.
type Loader struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// LoadDirectory reads every *.json file in dir as a QA record.
// Non-JSON files are ignored. A missing directory is reported and an
// empty slice returned.
func (l *Loader) LoadDirectory(dir string) ([]domain.QARecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.log.Warn("qa directory does not exist", zap.String("dir", dir))
			return nil, nil
		}
		return nil, err
	}

	var records []domain.QARecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.log.Warn("skipping unreadable qa file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var record domain.QARecord
		if err := json.Unmarshal(data, &record); err != nil {
			l.log.Warn("skipping invalid qa file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// BuildDocuments converts QA records into one document per data row.
// The row's question becomes the document text; every other field plus
// the record's document_name becomes metadata. Rows with an empty
// question are skipped, there is nothing to embed for them.
func (l *Loader) BuildDocuments(records []domain.QARecord) []domain.Document {
	var documents []domain.Document
	for _, record := range records {
		for _, row := range record.Data {
			question, _ := row["question"].(string)
			if strings.TrimSpace(question) == "" {
				l.log.Warn("skipping qa row without question", zap.String("document", record.DocumentName))
				continue
			}
			metadata := map[string]any{
				domain.MetadataKeyDocumentName: record.DocumentName,
			}
			for key, value := range row {
				if key == "question" {
					continue
				}
				metadata[key] = value
			}
			documents = append(documents, domain.Document{
				ID:       hashString(record.DocumentName + "|" + question),
				Text:     question,
				Metadata: metadata,
			})
		}
	}
	return documents
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
