package classifier

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/feichai0017/doc-intelligence/internal/agent/extractor"
	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

// DocumentTypes lists the categories a document can be filed under.
var DocumentTypes = []string{
	"ACE Offer",
	"ADDRESS CHANGE",
	"AGENCY LETTER",
	"Ace Review",
	"Appraisal",
	"Appraisal request",
	"Appraisal invoice",
	"AUTHORIZATION",
	"AUTO DECLARATION",
	"BI Demand",
	"BI Evaluation",
	"BI offer letter",
	"BUSINESS LICENSE",
	"Bill of Sale",
	"CERT OF LIABILITY",
	"CERTIFICATE OF COMPLETION",
	"CERTIFICATE OF LIABILITY REQUEST",
	"CHARGE BACK",
	"CLAIM FILE",
	"COURT LETTER",
	"Cancelation Request",
	"Cancellation notice",
	"Cancellation request",
	"Change Request",
	"Check Image",
	"Claim Payment Request - Appraisal",
	"Claim Payment Request - BI",
	"Claim Payment Request - Investigation Fee",
	"Claim Payment Request - Property Damage",
	"Claim payment request-Legal Fees",
	"Claimant estimate",
	"Claimant's Documents",
	"Correspondence",
	"Endorsement",
	"Letter of Guarantee",
	"MVR",
	"Test",
}

type rule struct {
	keywords   []string
	category   string
	confidence int
}

// Checked in order; the first keyword found wins.
var rules = []rule{
	{[]string{"endo", "endorsement"}, "Endorsement", 80},
	{[]string{"mvr", "motor vehicle"}, "MVR", 85},
	{[]string{"appraisal", "estimate"}, "Appraisal", 75},
	{[]string{"claim file", "claim"}, "CLAIM FILE", 70},
	{[]string{"certificate", "cert of"}, "CERT OF LIABILITY", 75},
	{[]string{"letter of guarantee", "log"}, "Letter of Guarantee", 80},
	{[]string{"correspondence", "letter"}, "Correspondence", 60},
	{[]string{"cancel"}, "Cancellation notice", 70},
	{[]string{"payment", "check"}, "Claim Payment Request", 65},
}

const (
	defaultCategory   = "Correspondence"
	defaultConfidence = 40
)

// MatchKeywords classifies from a file name and its text alone.
func MatchKeywords(filename, text string) models.ClassificationResult {
	haystack := strings.ToLower(filename + " " + text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return models.ClassificationResult{
					Category:   r.category,
					Confidence: float64(r.confidence) / 100,
					Notes:      fmt.Sprintf("Matched keyword: %s", kw),
				}
			}
		}
	}
	return models.ClassificationResult{
		Category:   defaultCategory,
		Confidence: defaultConfidence / 100.0,
		Notes:      "No clear match, defaulting to Correspondence",
	}
}

// KeywordClassifier matches keywords over the file name and extracted text.
type KeywordClassifier struct {
	text   extractor.TextExtractor
	logger logger.Logger
}

func NewKeywordClassifier(text extractor.TextExtractor, log logger.Logger) *KeywordClassifier {
	if text == nil {
		text = extractor.NewNopTextExtractor()
	}
	return &KeywordClassifier{text: text, logger: log}
}

func (c *KeywordClassifier) Classify(ctx context.Context, p string) (models.ClassificationResult, error) {
	text, err := c.text.Extract(ctx, p)
	if err != nil {
		// The file name alone still carries most of the signal.
		c.logger.Warn("Classifying without document text",
			logger.String("path", p),
			logger.Error(err),
		)
		text = ""
	}
	return c.ClassifyText(ctx, p, text)
}

func (c *KeywordClassifier) ClassifyText(ctx context.Context, p, text string) (models.ClassificationResult, error) {
	return MatchKeywords(baseName(p), text), nil
}

func baseName(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}

var _ TextClassifier = (*KeywordClassifier)(nil)
