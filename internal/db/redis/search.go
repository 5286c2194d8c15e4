package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/menusearch/internal/db"
	"github.com/kailas-cloud/menusearch/internal/domain/search/filter"
)

// matchAll is the query that matches every document of an index.
const matchAll = "*"

// SearchText runs a full-text search via FT.SEARCH WITHSCORES.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	args := []string{q.IndexName, buildQuery(q.Text, q.Filters), "WITHSCORES"}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if q.SortBy != nil {
		dir := "ASC"
		if q.SortBy.Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy.Field, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw)
}

// Aggregate counts matching documents per distinct value of q.Field via FT.AGGREGATE.
// Buckets come back ordered by count, largest first.
func (s *Store) Aggregate(ctx context.Context, q *db.FacetQuery) ([]db.FacetBucket, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Field == "" {
		return nil, fmt.Errorf("facet field is required")
	}

	args := []string{
		q.IndexName, buildQuery(q.Text, q.Filters),
		"GROUPBY", "1", "@" + q.Field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@count", "DESC",
	}
	if q.Limit > 0 {
		args = append(args, "MAX", strconv.Itoa(q.Limit))
	}
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseAggregateResult(raw, q.Field)
}

// --- Result parsing ---

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key at %d: %w", i, err)
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score of %s: %w", key, err)
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse fields of %s: %w", key, err)
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseAggregateResult reads rows of the form [field, value, "count", n].
func parseAggregateResult(raw []rueidis.RedisMessage, field string) ([]db.FacetBucket, error) {
	if len(raw) <= 1 {
		return []db.FacetBucket{}, nil
	}

	buckets := make([]db.FacetBucket, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse aggregate row %d: %w", i, err)
		}

		var bucket db.FacetBucket
		bucket.Null = true
		for j := 0; j+1 < len(row); j += 2 {
			name, err := row[j].ToString()
			if err != nil {
				continue
			}
			switch name {
			case field:
				if row[j+1].IsNil() {
					continue
				}
				v, err := row[j+1].ToString()
				if err != nil {
					return nil, fmt.Errorf("parse facet value in row %d: %w", i, err)
				}
				bucket.Value = v
				bucket.Null = false
			case "count":
				v, err := row[j+1].ToString()
				if err != nil {
					return nil, fmt.Errorf("parse facet count in row %d: %w", i, err)
				}
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("parse facet count in row %d: %w", i, err)
				}
				bucket.Count = n
			}
		}
		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

// buildQuery combines the filter and the search text. All parts must match.
func buildQuery(text string, expr filter.Expression) string {
	var parts []string
	if f := buildFilter(expr); f != "" {
		parts = append(parts, f)
	}
	if text = strings.TrimSpace(text); text != "" && text != matchAll {
		parts = append(parts, escapeQuery(text))
	}
	if len(parts) == 0 {
		return matchAll
	}
	return strings.Join(parts, " ")
}

// buildFilter translates filter.Expression into a RediSearch pre-filter.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(expr.Clauses()))
	for _, c := range expr.Clauses() {
		parts = append(parts, buildClause(c))
	}
	return strings.Join(parts, " ")
}

func buildClause(c filter.Clause) string {
	if c.IsMatch() {
		return fmt.Sprintf("@%s:{%s}", c.Field(), tagEscaper.Replace(c.Text()))
	}

	v := filter.FormatNumber(c.Number())
	switch c.Op() {
	case filter.Ge:
		return fmt.Sprintf("@%s:[%s +inf]", c.Field(), v)
	case filter.Le:
		return fmt.Sprintf("@%s:[-inf %s]", c.Field(), v)
	default:
		return fmt.Sprintf("@%s:[%s %s]", c.Field(), v, v)
	}
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"[", "\\[",
	"]", "\\]",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
)
