package model

// Filing types supported for ingestion and retrieval filtering.
const (
	FilingType10K = "10-K"
	FilingType10Q = "10-Q"
)

// SectionOrder lists the controlled vocabulary of filing sections in document
// order. Parsers emit sections keyed by these names; anything else is dropped
// before chunking.
var SectionOrder = []string{
	"item_1", "item_1a", "item_1b",
	"item_2", "item_3", "item_4",
	"item_5", "item_6", "item_7", "item_7a", "item_8",
	"item_9", "item_9a", "item_9b",
	"item_10", "item_11", "item_12", "item_13", "item_14", "item_15",
}

var sectionRank = func() map[string]int {
	m := make(map[string]int, len(SectionOrder))
	for i, name := range SectionOrder {
		m[name] = i
	}
	return m
}()

// IsKnownSection reports whether name belongs to the section vocabulary.
func IsKnownSection(name string) bool {
	_, ok := sectionRank[name]
	return ok
}

// SectionRank returns the document-order position of a section, with unknown
// sections sorting last.
func SectionRank(name string) int {
	if rank, ok := sectionRank[name]; ok {
		return rank
	}
	return len(SectionOrder)
}

// Document is a parsed filing handed over by the extraction layer. Sections
// maps section name to plain text; iteration must follow document order, not
// map order, so consumers walk SectionOrder.
type Document struct {
	Ticker     string            `json:"ticker"`
	FilingType string            `json:"filing_type"`
	FilingDate string            `json:"filing_date"`
	Sections   map[string]string `json:"sections"`
}
