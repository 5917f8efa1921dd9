package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	relexerrors "github.com/standardbeagle/relex/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	return createSmartErrorResponse(operation, err, nil)
}

// createSmartErrorResponse creates an error response with suggestions drawn
// from the error type
func createSmartErrorResponse(operation string, err error, context map[string]interface{}) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	if suggestions := generateErrorSuggestions(err); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}
	if help := getOperationHelp(operation); help != "" {
		errorData["help"] = help
	}
	if len(context) > 0 {
		errorData["context"] = context
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}

	// tool errors are reported in the result so the client can self-correct
	response.IsError = true

	return response, nil
}

// generateErrorSuggestions generates suggestions for the relex error types
func generateErrorSuggestions(err error) []string {
	var suggestions []string

	var langErr *relexerrors.LanguageError
	var contractErr *relexerrors.ContractError
	var consistencyErr *relexerrors.ConsistencyError
	switch {
	case errors.As(err, &langErr):
		for _, s := range langErr.Suggestions {
			suggestions = append(suggestions, fmt.Sprintf("Did you mean language %q?", s))
		}
		suggestions = append(suggestions, "Call the languages tool to list registered languages")
	case errors.As(err, &contractErr):
		suggestions = append(suggestions, "Offsets count characters, not bytes, and must lie within the current text")
		suggestions = append(suggestions, "A remove must not run past the end of the text")
	case errors.As(err, &consistencyErr):
		suggestions = append(suggestions, "The incremental tokens diverged from a batch lex; the dumps in the error show both lists")
		suggestions = append(suggestions, fmt.Sprintf("Replay with the same seed to reproduce the %s mismatch", consistencyErr.Field))
	case errors.Is(err, relexerrors.ErrNeedsRebuild):
		suggestions = append(suggestions, "Start a new edit session; the document needs a full re-lex")
	}

	return suggestions
}

// getOperationHelp provides helpful information about each operation
func getOperationHelp(operation string) string {
	helpMap := map[string]string{
		"tokenize":  "Lex text in one pass. Provide {\"language\": \"demo\", \"text\": \"...\"}.",
		"edit":      "Apply insert/remove/replace edits incrementally. Each edit reports which tokens were relexed.",
		"fuzz":      "Run the randomized differential harness: random edits checked against a batch lex after each one.",
		"languages": "List registered languages and their token kinds.",
	}
	return helpMap[operation]
}

// addWarningsToResponse adds warning messages to a JSON response
func addWarningsToResponse(result *mcp.CallToolResult, warnings []string) {
	if result == nil || len(warnings) == 0 || len(result.Content) == 0 {
		return
	}
	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return
	}

	var responseData map[string]interface{}
	if err := json.Unmarshal([]byte(textContent.Text), &responseData); err == nil {
		responseData["warnings"] = warnings
		if updatedJSON, err := json.Marshal(responseData); err == nil {
			result.Content[0] = &mcp.TextContent{Text: string(updatedJSON)}
			return
		}
	}

	textContent.Text += "\n\nWarnings:\n- " + strings.Join(warnings, "\n- ") + "\n"
}

// createResponseWithWarnings creates an MCP response with warnings included
func createResponseWithWarnings(data interface{}, warnings []string) (*mcp.CallToolResult, error) {
	response, err := createJSONResponse(data)
	if err != nil {
		return nil, err
	}
	addWarningsToResponse(response, warnings)
	return response, nil
}
