package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/relex/internal/document"
	"github.com/standardbeagle/relex/internal/lexer"
	"github.com/standardbeagle/relex/internal/randomtest"
)

type panicError struct {
	value interface{}
}

func (p panicError) Error() string {
	return fmt.Sprintf("internal error: %v", p.value)
}

// editReport is the outcome of one edit tool operation
type editReport struct {
	Index   int                 `json:"index"`
	Op      string              `json:"op"`
	Results []*lexer.EditResult `json:"results"`
}

func (s *Server) language(name string) (lexer.Language, error) {
	if name == "" {
		name = s.cfg.Language
	}
	return s.registry.Lookup(name)
}

func (s *Server) handleLanguages(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("languages", func() (*mcp.CallToolResult, error) {
		type languageInfo struct {
			Name   string   `json:"name"`
			Tokens []string `json:"tokens"`
		}
		var langs []languageInfo
		for _, name := range s.registry.Names() {
			lang, err := s.registry.Lookup(name)
			if err != nil {
				return nil, err
			}
			info := languageInfo{Name: name}
			for _, id := range lang.TokenIDs() {
				info.Tokens = append(info.Tokens, id.Name)
			}
			langs = append(langs, info)
		}
		return createJSONResponse(map[string]interface{}{
			"languages": langs,
			"default":   s.cfg.Language,
		})
	})
}

func (s *Server) handleTokenize(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("tokenize", func() (*mcp.CallToolResult, error) {
		var params TokenizeParams
		warnings, err := decodeParams(req.Params.Arguments, tokenizeFields, &params)
		if err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		lang, err := s.language(params.Language)
		if err != nil {
			return nil, err
		}

		list, err := lexer.Lex(lexer.NewRuneText(params.Text), lang, lexer.NewSampleCache())
		if err != nil {
			return nil, err
		}

		response := map[string]interface{}{
			"language": lang.Name(),
			"count":    list.Len(),
			"tail":     list.Tail(),
			"tokens":   list.Views(),
		}
		if params.Dump {
			response["dump"] = list.Dump()
		}
		s.diagnosticLogger.Printf("tokenize: %d chars, %d tokens", list.Length(), list.Len())
		return createResponseWithWarnings(response, warnings)
	})
}

func (s *Server) handleEdit(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("edit", func() (*mcp.CallToolResult, error) {
		var params EditParams
		warnings, err := decodeParams(req.Params.Arguments, editFields, &params)
		if err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		lang, err := s.language(params.Language)
		if err != nil {
			return nil, err
		}
		verify := params.Verify == nil || *params.Verify

		doc, err := document.New(params.Text, lang)
		if err != nil {
			return nil, err
		}

		reports := make([]editReport, 0, len(params.Edits))
		for i, op := range params.Edits {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report := editReport{Index: i, Op: op.Op}
			var res *lexer.EditResult
			switch op.Op {
			case "insert":
				res, err = doc.Insert(op.Offset, op.Text)
				report.Results = []*lexer.EditResult{res}
			case "remove":
				res, err = doc.Remove(op.Offset, op.Length)
				report.Results = []*lexer.EditResult{res}
			case "replace":
				report.Results, err = doc.Replace(op.Text)
			default:
				err = fmt.Errorf("unknown op %q (want insert, remove or replace)", op.Op)
			}
			if err != nil {
				return nil, fmt.Errorf("edit %d: %w", i, err)
			}
			if verify {
				if err := randomtest.Verify(doc); err != nil {
					return nil, fmt.Errorf("edit %d: %w", i, err)
				}
			}
			reports = append(reports, report)
		}

		return createResponseWithWarnings(map[string]interface{}{
			"language": lang.Name(),
			"text":     doc.String(),
			"edits":    reports,
			"verified": verify,
			"tail":     doc.Stats().Tail,
			"tokens":   doc.Views(),
		}, warnings)
	})
}

func (s *Server) handleFuzz(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.recoverFromPanic("fuzz", func() (*mcp.CallToolResult, error) {
		var params FuzzParams
		warnings, err := decodeParams(req.Params.Arguments, fuzzFields, &params)
		if err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
		lang, err := s.language(params.Language)
		if err != nil {
			return nil, err
		}

		cfg := randomtest.FromConfig(s.cfg.Random)
		if params.Seed != 0 {
			cfg.Seed = params.Seed
		}
		if params.Rounds > 0 {
			cfg.Rounds = params.Rounds
		}
		if params.OpsPerRound > 0 {
			cfg.OpsPerRound = params.OpsPerRound
		}
		if params.MaxLength > 0 {
			cfg.MaxLength = params.MaxLength
		}
		count := params.Seeds
		if count <= 0 {
			count = max(1, s.cfg.Random.Seeds)
		}

		stats, err := randomtest.RunSeeds(ctx, lang, cfg, randomtest.Seeds(cfg.Seed, count), s.cfg.Random.Workers)
		if err != nil {
			return nil, err
		}

		var relexed, total, ops int
		for _, st := range stats {
			relexed += st.RelexedChars
			total += st.DocumentChars
			ops += st.Ops
		}
		locality := 0.0
		if total > 0 {
			locality = float64(relexed) / float64(total)
		}
		s.diagnosticLogger.Printf("fuzz: %d seeds, %d ops, locality %.4f", count, ops, locality)

		return createResponseWithWarnings(map[string]interface{}{
			"language": lang.Name(),
			"passed":   true,
			"ops":      ops,
			"locality": locality,
			"seeds":    stats,
		}, warnings)
	})
}
