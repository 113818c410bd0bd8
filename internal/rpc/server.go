package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/byodlabs/databridge/internal/db"
	"github.com/byodlabs/databridge/internal/domain"
	"github.com/byodlabs/databridge/internal/ingestion"
	"github.com/byodlabs/databridge/internal/repository"
)

// maxLineBytes bounds a single request frame.
const maxLineBytes = 16 << 20

// StoreHealth exposes the store inspection used by the health-check action.
type StoreHealth interface {
	Stats(ctx context.Context) (db.Status, error)
}

// Server reads one JSON request per line from in and writes exactly one JSON
// response per line to out, in arrival order. Requests are processed one at a
// time; a bad request never stops the loop.
type Server struct {
	in         io.Reader
	out        io.Writer
	ingest     *ingestion.Service
	strategies repository.StrategyRepository
	prices     repository.PriceRepository
	store      StoreHealth
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates a request loop over the given reader and writer.
func NewServer(
	in io.Reader,
	out io.Writer,
	ingest *ingestion.Service,
	strategies repository.StrategyRepository,
	prices repository.PriceRepository,
	store StoreHealth,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		in:         in,
		out:        out,
		ingest:     ingest,
		strategies: strategies,
		prices:     prices,
		store:      store,
		validate:   validate,
		logger:     logger,
	}
}

// Request is one decoded line from the caller. Only Action is always
// present; the remaining fields are read per action.
type Request struct {
	Action      string          `json:"action"`
	FilePath    string          `json:"file_path,omitempty"`
	Symbol      string          `json:"symbol,omitempty"`
	From        int64           `json:"from,omitempty"`
	To          int64           `json:"to,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Rules       json.RawMessage `json:"rules_json,omitempty"`
	Parameters  json.RawMessage `json:"parameters_json,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
}

type pingResponse struct {
	OK      bool   `json:"ok"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status   string    `json:"status"`
	Database db.Status `json:"database"`
	Message  string    `json:"message"`
}

type strategyResponse struct {
	Success  bool            `json:"success"`
	Strategy domain.Strategy `json:"strategy"`
}

type strategyListResponse struct {
	Strategies []domain.Strategy `json:"strategies"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

type priceDataResponse struct {
	Symbol string              `json:"symbol"`
	Count  int                 `json:"count"`
	Points []domain.PricePoint `json:"points"`
}

// Run processes requests until in is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		var resp any
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			resp = errorResponse{Error: fmt.Sprintf("invalid request: %v", err)}
		} else {
			resp = s.handle(ctx, req)
		}

		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request stream: %w", err)
	}
	return nil
}

// handle dispatches one request. It never panics outward; a panic in an
// action becomes an error payload so the loop survives any single request.
func (s *Server) handle(ctx context.Context, req Request) (resp any) {
	requestID := uuid.NewString()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("request panicked", "request_id", requestID, "action", req.Action, "panic", r)
			resp = errorResponse{Error: fmt.Sprintf("processing error: %v", r)}
		}
		s.logger.Info("request handled",
			"request_id", requestID,
			"action", req.Action,
			"duration", time.Since(start))
	}()

	switch req.Action {
	case "ping":
		return pingResponse{OK: true, From: "go", Message: "backend responding to ping"}
	case "health-check":
		return s.handleHealthCheck(ctx)
	case "preview-file":
		return s.handlePreview(ctx, req)
	case "import-data":
		return s.handleImport(ctx, req)
	case "get-price-data":
		return s.handlePriceData(ctx, req)
	case "save-strategy":
		return s.handleSaveStrategy(ctx, req)
	case "list-strategies":
		return s.handleListStrategies(ctx)
	case "delete-strategy":
		return s.handleDeleteStrategy(ctx, req)
	case "":
		return errorResponse{Error: "missing action"}
	default:
		return errorResponse{Error: fmt.Sprintf("unknown action: %s", req.Action), Action: req.Action}
	}
}

func (s *Server) handleHealthCheck(ctx context.Context) any {
	status, err := s.store.Stats(ctx)
	if err != nil {
		return errorResponse{Error: fmt.Sprintf("health check failed: %v", err)}
	}
	return healthResponse{
		Status:   "ok",
		Database: status,
		Message:  "backend is running",
	}
}

type filePayload struct {
	FilePath string `json:"file_path" validate:"required"`
	Symbol   string `json:"symbol"`
}

func (s *Server) handlePreview(ctx context.Context, req Request) any {
	payload := filePayload{FilePath: req.FilePath, Symbol: req.Symbol}
	if err := s.validatePayload(payload); err != nil {
		return errorResponse{Error: err.Error()}
	}

	result, err := s.ingest.Preview(ctx, ingestion.PreviewRequest{
		FilePath: payload.FilePath,
		Symbol:   payload.Symbol,
	})
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	return result
}

func (s *Server) handleImport(ctx context.Context, req Request) any {
	payload := filePayload{FilePath: req.FilePath, Symbol: req.Symbol}
	if err := s.validatePayload(payload); err != nil {
		return errorResponse{Error: err.Error()}
	}

	result, err := s.ingest.Import(ctx, ingestion.ImportRequest{
		FilePath: payload.FilePath,
		Symbol:   payload.Symbol,
	})
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	return result
}

type priceRangePayload struct {
	Symbol string `json:"symbol" validate:"required"`
}

func (s *Server) handlePriceData(ctx context.Context, req Request) any {
	payload := priceRangePayload{Symbol: req.Symbol}
	if err := s.validatePayload(payload); err != nil {
		return errorResponse{Error: err.Error()}
	}

	from, to := req.From, req.To
	if to == 0 {
		to = math.MaxInt64
	}

	points, err := s.prices.ListRange(ctx, payload.Symbol, from, to)
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	return priceDataResponse{Symbol: payload.Symbol, Count: len(points), Points: points}
}

type strategyPayload struct {
	Name  string          `json:"name" validate:"required"`
	Rules json.RawMessage `json:"rules_json" validate:"required"`
}

func (s *Server) handleSaveStrategy(ctx context.Context, req Request) any {
	payload := strategyPayload{Name: req.Name, Rules: req.Rules}
	if err := s.validatePayload(payload); err != nil {
		return errorResponse{Error: err.Error()}
	}
	if !json.Valid(req.Rules) {
		return errorResponse{Error: "rules_json is not valid JSON"}
	}
	if len(req.Parameters) > 0 && !json.Valid(req.Parameters) {
		return errorResponse{Error: "parameters_json is not valid JSON"}
	}

	strategy, err := s.strategies.Save(ctx, domain.Strategy{
		Name:        req.Name,
		Description: req.Description,
		Rules:       req.Rules,
		Parameters:  req.Parameters,
	})
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	return strategyResponse{Success: true, Strategy: strategy}
}

func (s *Server) handleListStrategies(ctx context.Context) any {
	strategies, err := s.strategies.List(ctx)
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	if strategies == nil {
		strategies = []domain.Strategy{}
	}
	return strategyListResponse{Strategies: strategies}
}

type deletePayload struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleDeleteStrategy(ctx context.Context, req Request) any {
	payload := deletePayload{Name: req.Name}
	if err := s.validatePayload(payload); err != nil {
		return errorResponse{Error: err.Error()}
	}

	if err := s.strategies.Delete(ctx, payload.Name); err != nil {
		return errorResponse{Error: err.Error()}
	}
	return deleteResponse{Success: true}
}

// validatePayload turns the first struct validation failure into a caller
// friendly message like "file_path is required".
func (s *Server) validatePayload(payload any) error {
	err := s.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return fmt.Errorf("%s is required", fe.Field())
		}
		return fmt.Errorf("%s is invalid", fe.Field())
	}
	return fmt.Errorf("invalid request: %w", err)
}
