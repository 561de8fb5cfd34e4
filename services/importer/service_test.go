package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/outflow/dto"
	"github.com/customeros/outflow/internal/enum"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/models"
	"github.com/customeros/outflow/internal/utils"
)

type leadServiceStub struct {
	admitted []dto.LeadCandidate
	existing map[string]bool
	optedOut map[string]bool
}

func (s *leadServiceStub) Admit(ctx context.Context, candidate dto.LeadCandidate) (enum.AdmissionResult, error) {
	email := utils.NormalizeEmailAddress(candidate.Email)
	if candidate.Name == "" || email == "" {
		return enum.AdmissionInvalid, nil
	}
	if s.optedOut[email] {
		return enum.AdmissionSkippedOptedOut, nil
	}
	if s.existing[email] {
		return enum.AdmissionSkippedExisting, nil
	}
	s.existing[email] = true
	s.admitted = append(s.admitted, candidate)
	return enum.AdmissionInserted, nil
}

func (s *leadServiceStub) MarkOutreached(ctx context.Context, lead *models.Lead) error  { return nil }
func (s *leadServiceStub) MarkFollowUpSent(ctx context.Context, lead *models.Lead) error { return nil }
func (s *leadServiceStub) RecordReply(ctx context.Context, lead *models.Lead, sentiment enum.Sentiment) error {
	return nil
}
func (s *leadServiceStub) Unsubscribe(ctx context.Context, email, reason string) (bool, error) {
	return false, nil
}
func (s *leadServiceStub) MarkConverted(ctx context.Context, leadID string) error { return nil }
func (s *leadServiceStub) Close(ctx context.Context, leadID string) error         { return nil }

func newImportService() (*importService, *leadServiceStub) {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()
	stub := &leadServiceStub{existing: map[string]bool{}, optedOut: map[string]bool{}}
	return NewLeadImportService(stub, log).(*importService), stub
}

func TestImportFile_CSVWithAliasedHeaders(t *testing.T) {
	svc, stub := newImportService()
	payload := []byte("Full_Name,Email_Address,Organization,Job_Title,Industry\n" +
		"Ada Lovelace,ada@example.com,Analytical Engines,CTO,fintech\n" +
		"Grace Hopper,grace@example.com,US Navy,Admiral,govtech\n")

	result, err := svc.ImportFile(context.Background(), "leads.csv", payload)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, stub.admitted, 2)
	assert.Equal(t, "Ada Lovelace", stub.admitted[0].Name)
	assert.Equal(t, "Analytical Engines", stub.admitted[0].Company)
	assert.Equal(t, "CTO", stub.admitted[0].Position)
	assert.Equal(t, "fintech", stub.admitted[0].Niche)
}

func TestImportFile_CSVWithBOM(t *testing.T) {
	svc, _ := newImportService()
	payload := append([]byte("\xef\xbb\xbf"), []byte("name,email\nAda,ada@example.com\n")...)

	result, err := svc.ImportFile(context.Background(), "leads.csv", payload)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
}

func TestImportFile_JSONArray(t *testing.T) {
	svc, _ := newImportService()
	payload := []byte(`[{"name":"Ada","mail":"ada@example.com"},{"name":"","email":""}]`)

	result, err := svc.ImportFile(context.Background(), "leads.json", payload)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.InvalidRows)
}

func TestImportFile_JSONSingleObject(t *testing.T) {
	svc, _ := newImportService()
	payload := []byte(`{"contact_name":"Ada","email":"ada@example.com"}`)

	result, err := svc.ImportFile(context.Background(), "lead.json", payload)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
}

func TestImportFile_TXT(t *testing.T) {
	svc, stub := newImportService()
	payload := []byte("Ada Lovelace, ada@example.com, Analytical Engines, CTO\n" +
		"\n" +
		"just-one-field\n")

	result, err := svc.ImportFile(context.Background(), "leads.txt", payload)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.InvalidRows)
	assert.Equal(t, "Analytical Engines", stub.admitted[0].Company)
}

func TestImportFile_UnsupportedExtension(t *testing.T) {
	svc, _ := newImportService()

	_, err := svc.ImportFile(context.Background(), "leads.xlsx", []byte("ignored"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestImportCandidates_CountsEveryOutcome(t *testing.T) {
	svc, stub := newImportService()
	stub.existing["known@example.com"] = true
	stub.optedOut["gone@example.com"] = true

	result, err := svc.ImportCandidates(context.Background(), []dto.LeadCandidate{
		{Name: "Ada", Email: "ada@example.com"},
		{Name: "Known", Email: "known@example.com"},
		{Name: "Gone", Email: "gone@example.com"},
		{Name: "", Email: "broken@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.SkippedExisting)
	assert.Equal(t, 1, result.SkippedOptedOut)
	assert.Equal(t, 1, result.InvalidRows)
}

func TestImportCandidates_DuplicateWithinBatch(t *testing.T) {
	svc, _ := newImportService()

	result, err := svc.ImportCandidates(context.Background(), []dto.LeadCandidate{
		{Name: "Ada", Email: "ada@example.com"},
		{Name: "Ada Again", Email: "ada@example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.SkippedExisting)
}
