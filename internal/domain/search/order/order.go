package order

// Key is the user-facing sort selector.
type Key string

// Sort key constants.
const (
	// Relevance orders by backend relevance score (default).
	Relevance Key = "relevance"
	FileName  Key = "file_name"
	Size      Key = "size"
	Date      Key = "date"
	Sentiment Key = "sentiment"
)

// Direction of a field ordering.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// RelevanceExpression is the OData ordering by search score, best match first.
const RelevanceExpression = "search.score() desc"

// Clause is a resolved ordering. An empty Field means relevance ordering.
type Clause struct {
	Field     string
	Direction Direction
}

// IsRelevance reports whether the clause orders by relevance score.
func (c Clause) IsRelevance() bool { return c.Field == "" }

// OData renders the clause as an OData $orderby expression.
func (c Clause) OData() string {
	if c.IsRelevance() {
		return RelevanceExpression
	}
	return c.Field + " " + string(c.Direction)
}

// Parse maps raw input to a Key. Unrecognized or empty input yields Relevance and false.
func Parse(raw string) (Key, bool) {
	k := Key(raw)
	if k.IsValid() {
		return k, true
	}
	return Relevance, false
}

// IsValid checks if the key is one of the supported values.
func (k Key) IsValid() bool {
	switch k {
	case Relevance, FileName, Size, Date, Sentiment:
		return true
	default:
		return false
	}
}

// Clause resolves the key through the fixed lookup table.
func (k Key) Clause() Clause {
	switch k {
	case FileName:
		return Clause{Field: "metadata_storage_name", Direction: Asc}
	case Size:
		return Clause{Field: "metadata_storage_size", Direction: Desc}
	case Date:
		return Clause{Field: "metadata_storage_last_modified", Direction: Desc}
	case Sentiment:
		return Clause{Field: "sentiment", Direction: Desc}
	case Relevance:
		return Clause{}
	default:
		// unknown keys fall back to relevance
		return Clause{}
	}
}
