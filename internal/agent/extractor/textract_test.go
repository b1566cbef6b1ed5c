package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

type fakeTextract struct {
	input  *textract.AnalyzeDocumentInput
	blocks []types.Block
	err    error
}

func (f *fakeTextract) AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &textract.AnalyzeDocumentOutput{Blocks: f.blocks}, nil
}

func line(text string, confidence float32) types.Block {
	return types.Block{BlockType: types.BlockTypeLine, Text: aws.String(text), Confidence: aws.Float32(confidence)}
}

func word(id, text string) types.Block {
	return types.Block{BlockType: types.BlockTypeWord, Id: aws.String(id), Text: aws.String(text)}
}

func TestTextractExtractorJoinsLinesAndForms(t *testing.T) {
	client := &fakeTextract{blocks: []types.Block{
		line("CERTIFICATE OF LIABILITY", 99),
		line("smudged", 42),
		line("Policy GALC0001624", 91),
		word("w1", "Insured"),
		word("w2", "Name"),
		word("w3", "Acme"),
		word("w4", "Cab"),
		{
			BlockType:   types.BlockTypeKeyValueSet,
			Id:          aws.String("k1"),
			EntityTypes: []types.EntityType{types.EntityTypeKey},
			Relationships: []types.Relationship{
				{Type: types.RelationshipTypeChild, Ids: []string{"w1", "w2"}},
				{Type: types.RelationshipTypeValue, Ids: []string{"v1"}},
			},
		},
		{
			BlockType:     types.BlockTypeKeyValueSet,
			Id:            aws.String("v1"),
			EntityTypes:   []types.EntityType{types.EntityTypeValue},
			Relationships: []types.Relationship{{Type: types.RelationshipTypeChild, Ids: []string{"w3", "w4"}}},
		},
	}}
	opener := memOpener{"scan.png": []byte("png-bytes")}
	e := NewTextractExtractorWithClient(client, opener, 80, logger.NewTestLogger())

	text, err := e.Extract(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "CERTIFICATE OF LIABILITY\nPolicy GALC0001624\nInsured Name: Acme Cab", text)
	assert.Equal(t, []byte("png-bytes"), client.input.Document.Bytes)
}

func TestTextractExtractorWrapsServiceErrors(t *testing.T) {
	client := &fakeTextract{err: errors.New("throttled")}
	log := logger.NewTestLogger()
	e := NewTextractExtractorWithClient(client, memOpener{"scan.png": nil}, 80, log)

	_, err := e.Extract(context.Background(), "scan.png")
	assert.ErrorIs(t, err, models.ErrExtraction)
	assert.Len(t, log.Messages("ERROR"), 1)
}
