package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"courserag/internal/domain"
	"courserag/internal/logger"
)

// Qdrant requires UUID (or integer) point ids, so document ids are mapped to
// deterministic SHA1 UUIDs and the original id is kept in the payload.
var pointIDNamespace = uuid.MustParse("9c3f31d4-5ac1-4a6f-8a6a-2b5f4d0c7e91")

const (
	payloadDocIDKey = "_doc_id"
	payloadTextKey  = "document"
)

// Store is a REST client to Qdrant implementing the vector store. The
// collection persists on the Qdrant side across process restarts. Upserts use
// wait=true so a batch is applied atomically before the call returns.
type Store struct {
	log        *logger.Logger
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(log *logger.Logger, cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		log:        log.With("component", "qdrant"),
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist and verifies the vector
// size when it does.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension

	var info struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	}
	err := s.doJSON(ctx, http.MethodGet, s.collectionPath(""), nil, &info)
	if err == nil {
		if info.Config.Params.Vectors.Size != 0 && info.Config.Params.Vectors.Size != dimension {
			return fmt.Errorf("qdrant collection %q vector size mismatch: expected %d got %d",
				s.collection, dimension, info.Config.Params.Vectors.Size)
		}
		return nil
	}
	var statusErr *statusError
	if !errors.As(err, &statusErr) || statusErr.code != http.StatusNotFound {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.doJSON(ctx, http.MethodPut, s.collectionPath(""), body, nil); err != nil {
		return err
	}
	s.log.Info("collection created", "collection", s.collection, "dimension", dimension)
	return nil
}

func (s *Store) Upsert(ctx context.Context, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return errors.New("document id is required")
		}
		if s.dimension > 0 && len(d.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %q: expected %d got %d", d.ID, s.dimension, len(d.Vector))
		}
		payload := d.Metadata.ToMap()
		payload[payloadDocIDKey] = d.ID
		payload[payloadTextKey] = d.Text
		points = append(points, map[string]any{
			"id":      pointID(d.ID),
			"vector":  d.Vector,
			"payload": payload,
		})
	}
	body := map[string]any{"points": points}
	return s.doJSON(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil)
}

func (s *Store) Query(ctx context.Context, vector []float64, k int, filter map[string]string) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if f := matchFilter(filter); f != nil {
		req["filter"] = f
	}
	var raw []searchResultItem
	if err := s.doJSON(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &raw); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(raw))
	for _, item := range raw {
		res, err := resultFromPayload(item.Payload, item.Score)
		if err != nil {
			s.log.Warn("skipping malformed point payload", "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// FetchCourse scrolls every point of an exact course identity; no vector is
// involved, so results come back in ascending section-number order instead of
// similarity order.
func (s *Store) FetchCourse(ctx context.Context, subject, catalogNumber string) ([]domain.SearchResult, error) {
	req := map[string]any{
		"filter": matchFilter(map[string]string{
			"subject":        subject,
			"catalog_number": catalogNumber,
		}),
		"limit":        1024,
		"with_payload": true,
	}
	var out struct {
		Points []searchResultItem `json:"points"`
	}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionPath("/points/scroll"), req, &out); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(out.Points))
	for _, item := range out.Points {
		res, err := resultFromPayload(item.Payload, 1)
		if err != nil {
			s.log.Warn("skipping malformed point payload", "error", err)
			continue
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Metadata.SectionNumber, results[j].Metadata.SectionNumber
		if a == b {
			return results[i].ID < results[j].ID
		}
		return domain.SectionNumberLess(a, b)
	})
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	req := map[string]any{"exact": true}
	if err := s.doJSON(ctx, http.MethodPost, s.collectionPath("/points/count"), req, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Clear drops the collection and recreates it when the dimension is known.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.doJSON(ctx, http.MethodDelete, s.collectionPath(""), nil, nil); err != nil {
		var statusErr *statusError
		if !errors.As(err, &statusErr) || statusErr.code != http.StatusNotFound {
			return err
		}
	}
	if s.dimension > 0 {
		return s.Init(ctx, s.dimension)
	}
	return nil
}

type searchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant http status=%d body=%q", e.code, e.body)
}

// doJSON performs one request and decodes the "result" field of the Qdrant
// response envelope into out.
func (s *Store) doJSON(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("qdrant read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: truncate(raw, 512)}
	}
	if out == nil {
		return nil
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("qdrant decode envelope: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("qdrant decode result: %w", err)
	}
	return nil
}

func (s *Store) collectionPath(suffix string) string {
	return "/collections/" + s.collection + suffix
}

func pointID(docID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(docID)).String()
}

func matchFilter(filter map[string]string) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	must := make([]any, 0, len(keys))
	for _, k := range keys {
		must = append(must, map[string]any{
			"key":   k,
			"match": map[string]any{"value": filter[k]},
		})
	}
	return map[string]any{"must": must}
}

func resultFromPayload(payload map[string]any, score float64) (domain.SearchResult, error) {
	id, _ := payload[payloadDocIDKey].(string)
	text, _ := payload[payloadTextKey].(string)
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == payloadDocIDKey || k == payloadTextKey {
			continue
		}
		meta[k] = v
	}
	m, err := domain.MetadataFromMap(meta)
	if err != nil {
		return domain.SearchResult{}, err
	}
	if id == "" {
		return domain.SearchResult{}, errors.New("point payload missing document id")
	}
	return domain.SearchResult{ID: id, Text: text, Metadata: m, Score: score}, nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
