package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/catalog"
	"github.com/subseek/subseek/internal/config"
	"github.com/subseek/subseek/internal/metrics"
	"github.com/subseek/subseek/internal/ranking"
	"github.com/subseek/subseek/internal/request"
	"github.com/subseek/subseek/internal/services"
)

// envelope is the machine-readable result written to stdout. Exactly one of
// Result and Error is set.
type envelope struct {
	OK     bool             `json:"ok"`
	Result interface{}      `json:"result,omitempty"`
	Error  *apperrors.Error `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("subseek", flag.ContinueOnError)
	op := fs.String("op", "search", "operation: search, resolve, fetch, health")
	query := fs.String("query", "", "search query")
	year := fs.Int("year", 0, "release year constraint")
	season := fs.Int("season", 0, "season constraint")
	episode := fs.Int("episode", 0, "episode constraint")
	langs := fs.String("langs", "", "comma-separated language preferences")
	limit := fs.Int("limit", 10, "maximum ranked results")
	id := fs.String("id", "", "candidate id for resolve/fetch")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.GetConfig()
	logger := config.GetLogger()

	if cfg.MetricsAddress != "" {
		server := metrics.NewHTTPServer(cfg.MetricsAddress)
		go func() {
			logger.Info().Str("address", server.Addr).Msg("Starting metrics listener")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
		defer func() { _ = server.Shutdown(context.Background()) }()
	}

	set, err := catalog.NewSet(cfg)
	if err != nil {
		return emit(out, nil, apperrors.NewUnknown("", err))
	}
	defer func() { _ = set.Close() }()

	ctx := context.Background()
	result, opErr := execute(ctx, set, *op, executeArgs{
		query:   *query,
		year:    *year,
		season:  *season,
		episode: *episode,
		langs:   *langs,
		limit:   *limit,
		id:      *id,
	})
	return emit(out, result, opErr)
}

type executeArgs struct {
	query   string
	year    int
	season  int
	episode int
	langs   string
	limit   int
	id      string
}

func execute(ctx context.Context, set *catalog.Set, op string, args executeArgs) (interface{}, error) {
	switch op {
	case "search":
		req := request.Normalize(args.query, args.year, args.season, args.episode, splitLangs(args.langs))
		candidates, err := set.Search(ctx, req)
		if err != nil {
			return nil, err
		}
		ranked := ranking.Rank(req, candidates, args.limit)
		return map[string]interface{}{
			"request":    req,
			"candidates": ranked,
		}, nil

	case "resolve":
		// Dry-run: resolve the plan without touching the file URL.
		return set.ResolveDownloadPlan(ctx, args.id)

	case "fetch":
		payload, err := set.FetchBytes(ctx, args.id)
		if err != nil {
			return nil, err
		}
		file, err := services.Unwrap(payload, args.episode)
		if err != nil {
			return nil, apperrors.NewUnknown(payload.Plan.Catalog, err)
		}
		return map[string]interface{}{
			"plan": payload.Plan,
			"file": file,
		}, nil

	case "health":
		return set.HealthCheck(ctx), nil

	default:
		return nil, apperrors.NewUnknown("", fmt.Errorf("unknown operation %q", op))
	}
}

func splitLangs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// emit writes the envelope and maps the error kind to the process exit code.
func emit(out io.Writer, result interface{}, err error) int {
	env := envelope{OK: err == nil, Result: result}
	code := 0

	if err != nil {
		env.Result = nil
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			appErr = apperrors.NewUnknown("", err)
		}
		env.Error = appErr
		code = exitCode(appErr.Kind)
	}

	enc := json.NewEncoder(out)
	if encodeErr := enc.Encode(env); encodeErr != nil {
		logger := config.GetLogger()
		logger.Error().Err(encodeErr).Msg("Failed to write result envelope")
		return 1
	}
	return code
}

func exitCode(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return 2
	case apperrors.KindNetwork, apperrors.KindTimeout, apperrors.KindBadResponse:
		return 3
	default:
		return 1
	}
}
