package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/interfaces"
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

// fieldAliases maps the canonical candidate fields to the loose column names
// seen in real-world exports. The first non-empty alias wins.
var fieldAliases = map[string][]string{
	"name":     {"name", "full_name", "lead_name", "contact_name"},
	"email":    {"email", "email_address", "mail"},
	"company":  {"company", "company_name", "organization", "org"},
	"position": {"position", "title", "job_title", "role"},
	"niche":    {"niche", "segment", "industry"},
}

// importService parses loosely-typed lead files and routes every row through
// the single admission rule; it never writes leads itself.
type importService struct {
	leadService interfaces.LeadService
	log         logger.Logger
}

func NewLeadImportService(leadService interfaces.LeadService, log logger.Logger) interfaces.LeadImportService {
	return &importService{
		leadService: leadService,
		log:         log,
	}
}

func (s *importService) ImportFile(ctx context.Context, filename string, payload []byte) (*dto.LeadImportResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadImportService.ImportFile")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("filename", filename)

	rows, err := parse(filename, payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	candidates := make([]dto.LeadCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, normalizeRow(row))
	}
	return s.ImportCandidates(ctx, candidates)
}

func (s *importService) ImportCandidates(ctx context.Context, candidates []dto.LeadCandidate) (*dto.LeadImportResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "leadImportService.ImportCandidates")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("candidates", len(candidates))

	result := &dto.LeadImportResult{}
	for _, candidate := range candidates {
		outcome, err := s.leadService.Admit(ctx, candidate)
		if err != nil {
			tracing.TraceErr(span, err)
			return result, err
		}
		switch outcome {
		case enum.AdmissionInserted:
			result.Inserted++
		case enum.AdmissionSkippedExisting:
			result.SkippedExisting++
		case enum.AdmissionSkippedOptedOut:
			result.SkippedOptedOut++
		case enum.AdmissionInvalid:
			result.InvalidRows++
		}
	}
	s.log.Infof("Lead import finished: %d inserted, %d existing, %d opted out, %d invalid",
		result.Inserted, result.SkippedExisting, result.SkippedOptedOut, result.InvalidRows)
	return result, nil
}

func parse(filename string, payload []byte) ([]map[string]string, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return parseCSV(payload)
	case strings.HasSuffix(lower, ".json"):
		return parseJSON(payload)
	case strings.HasSuffix(lower, ".txt"):
		return parseTXT(payload), nil
	default:
		return nil, errors.Errorf("unsupported file type %q, use CSV, TXT or JSON", filename)
	}
}

func parseCSV(payload []byte) ([]map[string]string, error) {
	payload = bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse csv")
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for idx, header := range headers {
			if idx < len(record) {
				row[header] = record[idx]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseJSON(payload []byte) ([]map[string]string, error) {
	var rows []map[string]string
	if err := json.Unmarshal(payload, &rows); err == nil {
		return rows, nil
	}
	var single map[string]string
	if err := json.Unmarshal(payload, &single); err != nil {
		return nil, errors.New("json import expects an object or an array of objects")
	}
	return []map[string]string{single}, nil
}

// parseTXT reads "name, email[, company[, position]]" lines. Malformed lines
// become empty rows so they are counted as invalid, not dropped silently.
func parseTXT(payload []byte) []map[string]string {
	var rows []map[string]string
	for _, line := range strings.Split(string(payload), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		parts := strings.Split(stripped, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 2 {
			rows = append(rows, map[string]string{"name": "", "email": ""})
			continue
		}
		row := map[string]string{"name": parts[0], "email": parts[1]}
		if len(parts) > 2 {
			row["company"] = parts[2]
		}
		if len(parts) > 3 {
			row["position"] = parts[3]
		}
		rows = append(rows, row)
	}
	return rows
}

func normalizeRow(row map[string]string) dto.LeadCandidate {
	lowered := make(map[string]string, len(row))
	for key, value := range row {
		lowered[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	pick := func(field string) string {
		for _, alias := range fieldAliases[field] {
			if lowered[alias] != "" {
				return lowered[alias]
			}
		}
		return ""
	}

	return dto.LeadCandidate{
		Name:     pick("name"),
		Email:    pick("email"),
		Company:  pick("company"),
		Position: pick("position"),
		Niche:    pick("niche"),
	}
}
