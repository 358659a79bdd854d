package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"registration-analytics/internal/logger"
	"registration-analytics/internal/model"
	"registration-analytics/pkg/utils"
)

// FileLoader reads documents from a JSON or CSV file, local or over HTTP.
// JSON may be an array of documents, a single document, or an object
// keyed by collection name (the shape of a document-store export).
type FileLoader struct {
	Path   string
	Client *http.Client
}

// NewFileLoader returns a FileLoader for pathOrURL
func NewFileLoader(pathOrURL string) *FileLoader {
	return &FileLoader{Path: pathOrURL, Client: http.DefaultClient}
}

// Load implements Loader
func (l *FileLoader) Load(ctx context.Context, collection string) ([]model.RawRecord, error) {
	body, contentType, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var records []model.RawRecord
	if isCSV(l.Path, contentType) {
		records, err = readCSV(ctx, body)
	} else {
		records, err = readJSON(body, collection)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}

	logger.GetAppLogger().WithField("source", l.Path).Infof("Loaded %d records", len(records))
	return records, nil
}

func (l *FileLoader) open(ctx context.Context) (io.ReadCloser, string, error) {
	if !strings.HasPrefix(l.Path, "http://") && !strings.HasPrefix(l.Path, "https://") {
		file, err := os.Open(l.Path)
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, l.Path)
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to open file: %w", err)
		}
		return file, "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid source URL: %w", err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to GET %s: %w", l.Path, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, l.Path)
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, "", fmt.Errorf("failed to GET %s: status %d", l.Path, resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func isCSV(path, contentType string) bool {
	if strings.Contains(contentType, "csv") {
		return true
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func readCSV(ctx context.Context, r io.Reader) ([]model.RawRecord, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true

	headers, err := csvReader.Read()
	if err == io.EOF {
		return []model.RawRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = utils.CleanHeader(h)
	}

	records := make([]model.RawRecord, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := csvReader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}

		rec := make(model.RawRecord, len(headers))
		for i, h := range headers {
			if i >= len(row) {
				break
			}
			if v := utils.ParseValue(row[i]); v != nil {
				rec[h] = v
			}
		}
		records = append(records, rec)
	}
}

func readJSON(r io.Reader, collection string) ([]model.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if m, ok := raw.(map[string]interface{}); ok && collection != "" {
		if nested, ok := m[collection]; ok {
			if docs, ok := nested.(map[string]interface{}); ok {
				return keyedDocuments(docs)
			}
			raw = nested
		}
	}

	switch data := raw.(type) {
	case []interface{}:
		records := make([]model.RawRecord, 0, len(data))
		for i, item := range data {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not an object", i, item)
			}
			records = append(records, model.RawRecord(m))
		}
		return records, nil
	case map[string]interface{}:
		return []model.RawRecord{model.RawRecord(data)}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON structure %T", raw)
	}
}

// keyedDocuments flattens {"<doc id>": {...}} into records carrying their id
func keyedDocuments(docs map[string]interface{}) ([]model.RawRecord, error) {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]model.RawRecord, 0, len(docs))
	for _, id := range ids {
		m, ok := docs[id].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("document %s is %T, not an object", id, docs[id])
		}
		rec := model.RawRecord(m)
		if _, ok := rec[model.FieldID]; !ok {
			rec[model.FieldID] = id
		}
		records = append(records, rec)
	}
	return records, nil
}
