package extractor

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

// Entity types emitted by PatternEntityExtractor.
const (
	EntityPolicyNumber = "policy_number"
	EntityDocumentType = "document_type"
	EntityDate         = "date"
)

// Tried in order; the first prefix match wins.
var policyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^GALIMO\d{7}`),
	regexp.MustCompile(`(?i)^GATAXI\d{7}`),
	regexp.MustCompile(`(?i)^GALC\d{7}`),
	regexp.MustCompile(`(?i)^gal\d{4}`),
	regexp.MustCompile(`(?i)^ca\d{4,5}`),
	regexp.MustCompile(`(?i)^\d{4}-[A-Z]{2,4}-\d{4}`),
}

var docTypeLabels = map[string]string{
	"endo":       "Endorsement",
	"mvr":        "MVR",
	"coi":        "CERT OF LIABILITY",
	"noloss":     "NO LOSS",
	"drv":        "Vehicle Picture",
	"frt":        "Vehicle Picture",
	"pass":       "Vehicle Picture",
	"rear":       "Vehicle Picture",
	"vin":        "Vehicle Picture",
	"dl":         "MVR",
	"pic":        "Vehicle Picture",
	"pics":       "Vehicle Picture",
	"forme":      "AUTHORIZATION",
	"vehreg":     "Vehicle Picture",
	"canc":       "Cancellation notice",
	"cancel":     "Cancellation notice",
	"app":        "Appraisal",
	"appr":       "Appraisal",
	"claim":      "CLAIM FILE",
	"corr":       "Correspondence",
	"letter":     "AGENCY LETTER",
	"auth":       "AUTHORIZATION",
	"bill":       "Bill of Sale",
	"certcomp":   "CERTIFICATE OF COMPLETION",
	"chargeback": "CHARGE BACK",
	"bidem":      "BI Demand",
	"buslic":     "BUSINESS LICENSE",
	"aceoff":     "ACE Offer",
	"addrchg":    "ADDRESS CHANGE",
	"autodec":    "AUTO DECLARATION",
	"log":        "Letter of Guarantee",
}

var (
	docTypePattern = regexp.MustCompile(`(?i)(endo|mvr|coi|noloss|drv|frt|pass|rear|vin|dl|pics?|forme|vehreg|canc(?:el)?|appr?|claim|corr|letter|auth|bill|certcomp|chargeback|bidem|buslic|aceoff|addrchg|autodec|log)(\d*)`)
	datePattern    = regexp.MustCompile(`(?i)(\d{6})\.[a-z0-9]+$`)
	extPattern     = regexp.MustCompile(`(?i)\.([a-z0-9]+)$`)
	tokenPattern   = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9_-]*(?:\.[A-Za-z0-9]+)*`)
)

// Span is a byte range within the parsed name.
type Span struct {
	Start, End int
}

// FilenameInfo is a parsed "{policy}{doctype}{series}{MMDDYY}.{ext}" name.
type FilenameInfo struct {
	Original          string `json:"original"`
	PolicyNumber      string `json:"policyNumber,omitempty"`
	DocumentType      string `json:"documentType,omitempty"`
	DocumentTypeLabel string `json:"documentTypeLabel,omitempty"`
	SeriesNumber      string `json:"seriesNumber,omitempty"`
	DateCode          string `json:"dateCode,omitempty"`
	DateFormatted     string `json:"dateFormatted,omitempty"`
	Extension         string `json:"extension"`

	PolicySpan, DocumentTypeSpan, DateSpan Span `json:"-"`
}

// Parsed reports whether a policy number was found.
func (f FilenameInfo) Parsed() bool {
	return f.PolicyNumber != ""
}

// ParseFilename splits a company-folder file name into its parts.
func ParseFilename(name string) FilenameInfo {
	info := FilenameInfo{Original: name}

	if m := extPattern.FindStringSubmatch(name); m != nil {
		info.Extension = strings.ToLower(m[1])
	}

	nameOnly := name
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		nameOnly = name[:i]
	}

	rest, restAt := nameOnly, 0
	for _, p := range policyPatterns {
		if loc := p.FindStringIndex(nameOnly); loc != nil {
			info.PolicyNumber = strings.ToUpper(nameOnly[:loc[1]])
			info.PolicySpan = Span{0, loc[1]}
			rest, restAt = nameOnly[loc[1]:], loc[1]
			break
		}
	}

	if m := docTypePattern.FindStringSubmatchIndex(rest); m != nil {
		info.DocumentType = strings.ToLower(rest[m[2]:m[3]])
		info.DocumentTypeSpan = Span{restAt + m[2], restAt + m[3]}
		if label, ok := docTypeLabels[info.DocumentType]; ok {
			info.DocumentTypeLabel = label
		} else {
			info.DocumentTypeLabel = strings.ToUpper(info.DocumentType)
		}
		// A single digit ahead of the six-digit date is the series number.
		if digits := rest[m[4]:m[5]]; len(digits) == 7 {
			info.SeriesNumber = digits[:1]
		}
	}

	if m := datePattern.FindStringSubmatchIndex(name); m != nil {
		info.DateCode = name[m[2]:m[3]]
		info.DateSpan = Span{m[2], m[3]}
		info.DateFormatted = FormatDateCode(info.DateCode)
	}

	return info
}

// FormatDateCode turns MMDDYY into YYYY-MM-DD. Years 00-30 are 20xx, the rest 19xx.
func FormatDateCode(code string) string {
	if len(code) != 6 {
		return ""
	}
	yy, err := strconv.Atoi(code[4:6])
	if err != nil {
		return ""
	}
	century := "19"
	if yy <= 30 {
		century = "20"
	}
	return century + code[4:6] + "-" + code[0:2] + "-" + code[2:4]
}

// PatternEntityExtractor finds policy-tagged file names in text and reports
// their policy number, document type and date code.
type PatternEntityExtractor struct{}

func NewPatternEntityExtractor() *PatternEntityExtractor {
	return &PatternEntityExtractor{}
}

// Extract returns records ordered by position; start and end are byte offsets.
func (e *PatternEntityExtractor) Extract(ctx context.Context, text string) ([]models.EntityRecord, error) {
	records := []models.EntityRecord{}

	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info := ParseFilename(text[loc[0]:loc[1]])
		if !info.Parsed() {
			continue
		}
		base := loc[0]

		records = append(records, entity(EntityPolicyNumber, info.PolicyNumber, "", base, info.PolicySpan))
		if info.DocumentType != "" {
			rec := entity(EntityDocumentType, info.DocumentType, info.DocumentTypeLabel, base, info.DocumentTypeSpan)
			if info.SeriesNumber != "" {
				rec["series"] = info.SeriesNumber
			}
			records = append(records, rec)
		}
		if info.DateCode != "" {
			records = append(records, entity(EntityDate, info.DateCode, info.DateFormatted, base, info.DateSpan))
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i]["start"].(int) < records[j]["start"].(int)
	})
	return records, nil
}

func entity(kind, value, label string, base int, span Span) models.EntityRecord {
	rec := models.EntityRecord{
		"type":  kind,
		"value": value,
		"start": base + span.Start,
		"end":   base + span.End,
	}
	if label != "" {
		rec["label"] = label
	}
	return rec
}

var _ EntityExtractor = (*PatternEntityExtractor)(nil)
