package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

// RemoteConfig configures the wiki parser client
type RemoteConfig struct {
	URL string `json:"url"`
	// Every result of the API carries one extra batch list
	UseAPIRequester bool          `json:"use_api_requester"`
	Timeout         time.Duration `json:"timeout"`
}

// RemoteService implements KnowledgeGraph over a wiki parser HTTP API.
// A request carries parallel lists of operations and arguments, the
// response holds one result per operation.
type RemoteService struct {
	config RemoteConfig
	client *http.Client
	logger *slog.Logger
}

type remoteRequest struct {
	ParserInfo []string      `json:"parser_info"`
	Query      []interface{} `json:"query"`
}

// NewRemoteService creates a client for the wiki parser at config.URL
func NewRemoteService(config RemoteConfig, logger *slog.Logger) (*RemoteService, error) {
	if config.URL == "" {
		return nil, helper.NewError("config validation", fmt.Errorf("%w: wiki parser url is empty", model.ErrInvalidConfig))
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}, nil
}

// FindTypes returns the types of an entity
func (r *RemoteService) FindTypes(ctx context.Context, entity string) ([]string, error) {
	results, err := r.call(ctx, []string{"find_types"}, []interface{}{entity})
	if err != nil {
		return nil, helper.NewError("find types", err)
	}

	var types []string
	err = json.Unmarshal(results[0], &types)
	if err != nil {
		return nil, helper.NewError("decode types", err)
	}

	return unique(types), nil
}

// FindObjects sends one find_object query per subject
func (r *RemoteService) FindObjects(ctx context.Context, subjects []string, relation string, dir model.Direction) ([][]string, error) {
	if len(subjects) == 0 {
		return [][]string{}, nil
	}

	ops := make([]string, len(subjects))
	queries := make([]interface{}, len(subjects))
	for i, subject := range subjects {
		ops[i] = "find_object"
		queries[i] = []string{subject, relation, string(dir)}
	}

	results, err := r.call(ctx, ops, queries)
	if err != nil {
		return nil, helper.NewError("find objects", err)
	}

	objects := make([][]string, len(subjects))
	for i, raw := range results {
		var found []string
		err := json.Unmarshal(raw, &found)
		if err != nil {
			return nil, helper.NewError("decode objects", err)
		}
		objects[i] = unique(found)
	}

	return objects, nil
}

// RetrievePaths asks the wiki parser to materialize paths for entity.
// The result is a pair of parallel lists, retrieved paths and the relation
// sequences actually used. A triplet arrives either as a rendered string
// or as a [subject, relation, object] list.
func (r *RemoteService) RetrievePaths(ctx context.Context, entity string, paths []model.Path) ([]model.RetrievedPath, error) {
	if len(paths) == 0 {
		return []model.RetrievedPath{}, nil
	}

	results, err := r.call(ctx, []string{"retrieve_paths"}, []interface{}{[]interface{}{entity, paths}})
	if err != nil {
		return nil, helper.NewError("retrieve paths", err)
	}

	var pair []json.RawMessage
	err = json.Unmarshal(results[0], &pair)
	if err != nil {
		return nil, helper.NewError("decode retrieved paths", err)
	}
	if len(pair) == 0 {
		return []model.RetrievedPath{}, nil
	}
	if len(pair) != 2 {
		return nil, helper.NewError("decode retrieved paths", fmt.Errorf("expected paths and relations, got %d elements", len(pair)))
	}

	var rawPaths [][]json.RawMessage
	err = json.Unmarshal(pair[0], &rawPaths)
	if err != nil {
		return nil, helper.NewError("decode retrieved paths", err)
	}
	var relations []model.Path
	err = json.Unmarshal(pair[1], &relations)
	if err != nil {
		return nil, helper.NewError("decode retrieved relations", err)
	}
	if len(rawPaths) != len(relations) {
		return nil, helper.NewError("decode retrieved paths", fmt.Errorf("%d paths but %d relation sequences", len(rawPaths), len(relations)))
	}

	retrieved := make([]model.RetrievedPath, 0, len(rawPaths))
	for i, rawPath := range rawPaths {
		triplets := make([]model.Triplet, 0, len(rawPath))
		for _, raw := range rawPath {
			triplet, err := decodeTriplet(raw)
			if err != nil {
				return nil, helper.NewError("decode triplet", err)
			}
			triplets = append(triplets, triplet)
		}
		retrieved = append(retrieved, model.RetrievedPath{Triplets: triplets, Relations: relations[i]})
	}

	return retrieved, nil
}

// call posts one batch of operations and returns one raw result per operation
func (r *RemoteService) call(ctx context.Context, ops []string, queries []interface{}) ([]json.RawMessage, error) {
	body, err := json.Marshal(remoteRequest{ParserInfo: ops, Query: queries})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki parser returned status %d: %s", resp.StatusCode, bytes.TrimSpace(content))
	}

	r.logger.Debug("wiki parser call", slog.Any("ops", ops), slog.Duration("time", time.Since(start)))

	var results []json.RawMessage
	err = json.Unmarshal(content, &results)
	if err != nil {
		return nil, fmt.Errorf("error decoding wiki parser response: %w", err)
	}
	if len(results) != len(ops) {
		return nil, fmt.Errorf("%w: sent %d operations, got %d results", model.ErrBatchMismatch, len(ops), len(results))
	}

	if r.config.UseAPIRequester {
		for i, raw := range results {
			var batch []json.RawMessage
			err := json.Unmarshal(raw, &batch)
			if err != nil {
				return nil, fmt.Errorf("error unwrapping api requester result: %w", err)
			}
			if len(batch) == 0 {
				return nil, fmt.Errorf("empty api requester result for operation %s", ops[i])
			}
			results[i] = batch[0]
		}
	}

	return results, nil
}

func decodeTriplet(raw json.RawMessage) (model.Triplet, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return model.Triplet{Text: text}, nil
	}

	var parts []string
	err := json.Unmarshal(raw, &parts)
	if err != nil {
		return model.Triplet{}, fmt.Errorf("triplet must be a string or a list: %w", err)
	}
	if len(parts) != 3 {
		return model.Triplet{}, fmt.Errorf("triplet must have 3 elements, got %d", len(parts))
	}

	return model.Triplet{Subject: parts[0], Relation: parts[1], Object: parts[2]}, nil
}
