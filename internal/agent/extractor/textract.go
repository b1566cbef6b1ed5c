package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

// ImageTypes are the formats served by OCR.
var ImageTypes = []string{"image/jpeg", "image/png", "image/tiff"}

// TextractAPI is the subset of the Textract client used here.
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// TextractExtractor runs images through AWS Textract.
type TextractExtractor struct {
	client        TextractAPI
	opener        Opener
	minConfidence float32
	normalizer    *ImageNormalizer
	logger        logger.Logger
}

func NewTextractExtractorWithClient(client TextractAPI, opener Opener, minConfidence float64, log logger.Logger) *TextractExtractor {
	return &TextractExtractor{
		client:        client,
		opener:        opener,
		minConfidence: float32(minConfidence),
		logger:        log,
	}
}

func NewTextractExtractor(ctx context.Context, textractConfig *cfg.TextractConfig, opener Opener, log logger.Logger) (*TextractExtractor, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(textractConfig.Region)}
	if textractConfig.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			textractConfig.AccessKey,
			textractConfig.SecretKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	e := NewTextractExtractorWithClient(textract.NewFromConfig(awsCfg), opener, textractConfig.MinConfidence, log)
	if textractConfig.Preprocess {
		e.WithNormalizer(NewImageNormalizer(textractConfig.MaxDimension))
	}
	return e, nil
}

// WithNormalizer runs images through n before they are sent.
func (e *TextractExtractor) WithNormalizer(n *ImageNormalizer) *TextractExtractor {
	e.normalizer = n
	return e
}

func (e *TextractExtractor) Extract(ctx context.Context, path string) (string, error) {
	rc, err := e.opener.Open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", models.ErrExtraction, path, err)
	}

	if e.normalizer != nil {
		if data, err = e.normalizer.Normalize(data, path); err != nil {
			e.logger.Warn("Image preprocessing failed", logger.String("path", path), logger.Error(err))
			return "", err
		}
	}

	result, err := e.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: data},
		FeatureTypes: []types.FeatureType{types.FeatureTypeForms},
	})
	if err != nil {
		e.logger.Error("Textract analysis failed",
			logger.String("path", path),
			logger.Error(err),
		)
		return "", fmt.Errorf("%w: failed to analyze document: %v", models.ErrExtraction, err)
	}

	return e.textFromBlocks(result.Blocks), nil
}

// textFromBlocks keeps confident LINE blocks, then appends form fields as "key: value".
func (e *TextractExtractor) textFromBlocks(blocks []types.Block) string {
	var lines []string
	for _, block := range blocks {
		if block.BlockType == types.BlockTypeLine &&
			block.Confidence != nil &&
			*block.Confidence >= e.minConfidence &&
			block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}

	byID := make(map[string]types.Block, len(blocks))
	for _, block := range blocks {
		if block.Id != nil {
			byID[*block.Id] = block
		}
	}

	for _, block := range blocks {
		if block.BlockType != types.BlockTypeKeyValueSet ||
			len(block.EntityTypes) == 0 ||
			block.EntityTypes[0] != types.EntityTypeKey {
			continue
		}
		key := childText(block, byID)
		value := ""
		for _, rel := range block.Relationships {
			if rel.Type != types.RelationshipTypeValue {
				continue
			}
			for _, id := range rel.Ids {
				if v, ok := byID[id]; ok {
					value = childText(v, byID)
				}
			}
		}
		if key != "" && value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", key, value))
		}
	}

	return strings.Join(lines, "\n")
}

func childText(block types.Block, byID map[string]types.Block) string {
	var words []string
	for _, rel := range block.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			if child, ok := byID[id]; ok && child.Text != nil {
				words = append(words, aws.ToString(child.Text))
			}
		}
	}
	return strings.Join(words, " ")
}
