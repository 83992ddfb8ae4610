package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bi-ops-be/pkg/analyst"
)

const defaultModel = "gemini-1.5-flash"

// GeminiProvider calls the Google Generative Language API and maps the
// structured JSON output onto the BusinessState shape.
type GeminiProvider struct {
	APIKey    string
	ModelName string
	Client    *http.Client
}

// Ensure GeminiProvider implements Collaborator
var _ analyst.Collaborator = &GeminiProvider{}

func NewGeminiProvider(apiKey, modelName string) *GeminiProvider {
	if modelName == "" {
		modelName = defaultModel
	}
	return &GeminiProvider{
		APIKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// businessStateSchema constrains the model output to the BusinessState
// shape. status, insightType, confidenceScore and message are mandatory;
// chartData and tableData are only populated when the user asks for a
// visualization or a table.
const businessStateSchema = `{
  "type": "OBJECT",
  "properties": {
    "status": {"type": "STRING", "enum": ["IDLE", "ANALYZING", "VISUALIZING"]},
    "insightType": {"type": "STRING", "enum": ["FINANCIAL", "INVENTORY", "ALERT", "GENERAL"]},
    "confidenceScore": {"type": "NUMBER"},
    "recordsLoaded": {"type": "INTEGER"},
    "message": {"type": "STRING"},
    "chartData": {
      "type": "OBJECT",
      "properties": {
        "type": {"type": "STRING", "enum": ["bar", "pie", "line"]},
        "title": {"type": "STRING"},
        "data": {
          "type": "ARRAY",
          "items": {
            "type": "OBJECT",
            "properties": {
              "name": {"type": "STRING"},
              "value": {"type": "NUMBER"}
            },
            "required": ["name", "value"]
          }
        }
      },
      "required": ["type", "title", "data"]
    },
    "tableData": {
      "type": "OBJECT",
      "properties": {
        "title": {"type": "STRING"},
        "columns": {"type": "ARRAY", "items": {"type": "STRING"}},
        "rows": {
          "type": "ARRAY",
          "items": {
            "type": "OBJECT",
            "properties": {
              "data": {"type": "ARRAY", "items": {"type": "STRING"}}
            },
            "required": ["data"]
          }
        }
      },
      "required": ["title", "columns", "rows"]
    }
  },
  "required": ["status", "insightType", "confidenceScore", "message"]
}`

const systemInstruction = "You are a bilingual Business Analytics AI. Output structured JSON."

func buildPrompt(req analyst.Request) string {
	return fmt.Sprintf(`You are "Vernacular Ops", an advanced Business Intelligence AI.

ROLE:
- You act as a bridge between a business owner and their data.
- You are bilingual: Speak fluent English and Hinglish (Hindi + English mix).
- You translate human questions into data insights, visual charts, and data tables.
- You can compare data across multiple files if provided.

CONTEXT:
- Current Records Loaded (Total): %d
- Loaded Data Sources:
"""
%s
"""

USER QUERY: "%s"

INSTRUCTIONS:
1. Analyze the Data Sources to answer the query. If comparing files, reference them by name.
2. VISUALS: If user asks to "visualize", "show graph", "chart", or "plot", generate 'chartData'.
3. TABLES: If user asks to "show data", "table", "list", "rows", or "details", generate 'tableData'.
   - Populate 'columns' with relevant headers.
   - Populate 'rows' as objects containing a 'data' array with values matching the column order.
4. Categorize the query into FINANCIAL, INVENTORY, ALERT, or GENERAL.
5. Tone: Professional Business Analyst.

Output JSON only matching the schema.`,
		req.RecordsLoaded, req.ContextBundle, req.Command)
}

// Analyze sends the command and context bundle to Gemini and decodes the
// structured response. Any transport error, non-200 status, or payload that
// fails schema validation is returned as an error; the caller normalizes it.
func (g *GeminiProvider) Analyze(ctx context.Context, req analyst.Request) (*analyst.BusinessState, error) {
	payload := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{{Text: buildPrompt(req)}},
				Role:  "user",
			},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
		GenerationConfig: &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   json.RawMessage(businessStateSchema),
		},
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent",
		g.ModelName,
	)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("x-goog-api-key", g.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes geminiResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return nil, err
	}
	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidate list", analyst.ErrInvalidResponse)
	}

	return DecodeState([]byte(geminiRes.Candidates[0].Content.Parts[0].Text))
}

// DecodeState parses a raw model text payload into a validated
// BusinessState. The model occasionally wraps JSON in markdown fences even
// with a response schema set, so those are stripped first.
func DecodeState(raw []byte) (*analyst.BusinessState, error) {
	raw = bytes.TrimSpace(raw)
	raw = bytes.TrimPrefix(raw, []byte("```json"))
	raw = bytes.TrimPrefix(raw, []byte("```"))
	raw = bytes.TrimSuffix(raw, []byte("```"))
	raw = bytes.TrimSpace(raw)

	var state analyst.BusinessState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v | raw: %s", analyst.ErrInvalidResponse, err, string(raw))
	}
	if err := analyst.ValidateResponse(&state); err != nil {
		return nil, err
	}
	return &state, nil
}
