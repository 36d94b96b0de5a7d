package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/triage/internal/domain"
	"github.com/kailas-cloud/triage/internal/domain/search/filter"
	"github.com/kailas-cloud/triage/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/triage/internal/usecase/search"
)

type searchFlags struct {
	keyword        bool
	topK           int
	facility       string
	specialty      string
	provider       string
	knowledgeType  string
	continuityOnly bool
	asJSON         bool
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base from the command line",
		Example: `  triage search "crohn's disease referral"
  triage search "labs before visit" --specialty cardio --top-k 5
  triage search npo --keyword --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.seedOnStart(ctx); err != nil {
				return err
			}

			if f.topK == 0 {
				f.topK = cfg.Search.DefaultTopK
			}
			req, err := f.request(strings.Join(args, " "), cfg.Search.MinSim())
			if err != nil {
				return err
			}

			run := a.search.Semantic
			if f.keyword {
				run = a.search.Keyword
			}
			resp, err := run(ctx, req)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if f.asJSON {
				return writeSearchJSON(cmd.OutOrStdout(), req.Query(), resp)
			}
			return writeSearchTable(cmd.OutOrStdout(), resp)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.keyword, "keyword", false, "keyword matching only, no embeddings")
	fl.IntVarP(&f.topK, "top-k", "k", 0, "maximum results (default search.default_top_k)")
	fl.StringVar(&f.facility, "facility", "", "facility substring filter")
	fl.StringVar(&f.specialty, "specialty", "", "specialty substring filter")
	fl.StringVar(&f.provider, "provider", "", "provider substring filter")
	fl.StringVarP(&f.knowledgeType, "type", "t", "", "knowledge type filter")
	fl.BoolVar(&f.continuityOnly, "continuity-only", false, "only continuity-of-care entries")
	fl.BoolVar(&f.asJSON, "json", false, "output as JSON")
	return cmd
}

func (f *searchFlags) request(q string, minSim float64) (request.Request, error) {
	params := filter.Params{
		Facility:      f.facility,
		Specialty:     f.specialty,
		Provider:      f.provider,
		KnowledgeType: f.knowledgeType,
	}
	if f.continuityOnly {
		yes := true
		params.ContinuityOnly = &yes
	}
	filters, err := filter.New(params)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	req, err := request.New(q, filters, f.topK, minSim)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

type jsonResult struct {
	ID          string  `json:"id"`
	Facility    string  `json:"facility"`
	Specialty   string  `json:"specialty_service"`
	Provider    string  `json:"provider_name,omitempty"`
	Type        string  `json:"knowledge_type"`
	Description string  `json:"knowledge_description"`
	Score       float64 `json:"relevance_score"`
	MatchType   string  `json:"match_type"`
}

func writeSearchJSON(w io.Writer, q string, resp searchuc.Response) error {
	out := struct {
		Query   string       `json:"query"`
		Mode    string       `json:"mode"`
		Results []jsonResult `json:"results"`
	}{Query: q, Mode: string(resp.Mode), Results: make([]jsonResult, 0, len(resp.Results))}

	for _, r := range resp.Results {
		e := r.Entry()
		out.Results = append(out.Results, jsonResult{
			ID:          e.ID(),
			Facility:    e.Facility(),
			Specialty:   e.Specialty(),
			Provider:    e.ProviderName(),
			Type:        string(e.Type()),
			Description: e.Description(),
			Score:       r.Score(),
			MatchType:   string(r.MatchType()),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

func writeSearchTable(w io.Writer, resp searchuc.Response) error {
	fmt.Fprintf(w, "mode: %s, %d result(s)\n\n", resp.Mode, len(resp.Results))
	if len(resp.Results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tMATCH\tSPECIALTY\tFACILITY\tDESCRIPTION")
	for _, r := range resp.Results {
		e := r.Entry()
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\t%s\n",
			r.Score(), r.MatchType(), e.Specialty(), e.Facility(), snippet(e.Description(), 80))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func newSuggestCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <field> <partial>",
		Short: "Autocomplete facility, specialty or provider names",
		Example: `  triage suggest specialty card
  triage suggest provider mar --limit 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.seedOnStart(ctx); err != nil {
				return err
			}

			if limit == 0 {
				limit = cfg.Search.AutocompleteLimit
			}
			return printSuggestions(ctx, cmd.OutOrStdout(), a.search, args[0], args[1], limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum suggestions (default search.autocomplete_limit)")
	return cmd
}

func printSuggestions(ctx context.Context, w io.Writer, svc *searchuc.Service, fieldName, partial string, limit int) error {
	values, err := svc.Suggest(ctx, partial, fieldName, limit)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	for _, v := range values {
		fmt.Fprintln(w, v)
	}
	return nil
}
