// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package termquery

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/database/schema"
)

// metaAlias is the alias of the first meta join; later joins use mt1, mt2 and so on.
const metaAlias = "tm"

// metaCasts maps the accepted value types to PostgreSQL casts.
var metaCasts = map[string]string{
	"":         "",
	"CHAR":     "",
	"NUMERIC":  "NUMERIC",
	"DECIMAL":  "NUMERIC",
	"SIGNED":   "BIGINT",
	"UNSIGNED": "BIGINT",
	"DATE":     "DATE",
	"DATETIME": "TIMESTAMP",
	"TIME":     "TIME",
	"BINARY":   "BYTEA",
}

// metaJoins is the outcome of applying a [MetaQuery] to a statement.
type metaJoins struct {
	joined bool

	// primary is the value expression of the first clause.
	primary string

	// named maps clause names and keys to their value expressions for ordering.
	named map[string]string
}

/*
applyMeta joins the meta table once per clause and adds the combined condition.

Description: NOT EXISTS clauses use a LEFT JOIN whose ON carries the key, so a
missing row surfaces as NULL. Every other clause uses an INNER JOIN.

Returns:
  - metaJoins: Ordering expressions for "orderby"
  - error: Validation error on an unknown compare operator or type
*/
func applyMeta(sb *sqlbuilder.SelectBuilder, meta MetaQuery) (metaJoins, error) {
	joins := metaJoins{named: make(map[string]string)}
	if len(meta.Clauses) == 0 {
		return joins, nil
	}

	tm := schema.NetworkTermMeta
	conditions := make([]string, 0, len(meta.Clauses))

	for index, clause := range meta.Clauses {
		alias := metaAlias
		if index > 0 {
			alias = fmt.Sprintf("mt%d", index)
		}

		compare := strings.ToUpper(strings.TrimSpace(clause.Compare))
		if compare == "" {
			compare = "="
			if len(clause.Values) > 0 {
				compare = "IN"
			}
		}

		cast, ok := metaCasts[strings.ToUpper(strings.TrimSpace(clause.Type))]
		if !ok {
			return joins, apperr.ValidationError(fmt.Sprintf("unsupported meta type %q", clause.Type),
				apperr.FieldError{Field: "meta_query.type", Message: "unsupported type"})
		}

		onTerm := fmt.Sprintf("%s.%s = %s.%s", term.AliasTerms, schema.NetworkTerms.TermID, alias, tm.TermID)
		table := fmt.Sprintf("%s AS %s", tm.Table, alias)
		keyColumn := alias + "." + tm.MetaKey

		value := alias + "." + tm.MetaValue
		if cast != "" {
			value = fmt.Sprintf("CAST(%s AS %s)", value, cast)
		}

		if compare == "NOT EXISTS" {
			on := onTerm
			if clause.Key != "" {
				on = fmt.Sprintf("%s AND %s", onTerm, sb.Equal(keyColumn, clause.Key))
			}
			sb.JoinWithOption(sqlbuilder.LeftJoin, table, on)
			conditions = append(conditions, fmt.Sprintf("%s.%s IS NULL", alias, tm.TermID))
			continue
		}
		sb.Join(table, onTerm)

		parts := make([]string, 0, 2)
		if clause.Key != "" {
			parts = append(parts, sb.Equal(keyColumn, clause.Key))
		}

		switch compare {
		case "EXISTS":
		case "=":
			parts = append(parts, sb.Equal(value, clause.Value))
		case "!=":
			parts = append(parts, sb.NotEqual(value, clause.Value))
		case ">":
			parts = append(parts, sb.GreaterThan(value, clause.Value))
		case ">=":
			parts = append(parts, sb.GreaterEqualThan(value, clause.Value))
		case "<":
			parts = append(parts, sb.LessThan(value, clause.Value))
		case "<=":
			parts = append(parts, sb.LessEqualThan(value, clause.Value))
		case "LIKE":
			parts = append(parts, fmt.Sprintf("%s ILIKE %s", value, sb.Var(likePattern(clause.Value))))
		case "NOT LIKE":
			parts = append(parts, fmt.Sprintf("%s NOT ILIKE %s", value, sb.Var(likePattern(clause.Value))))
		case "IN", "NOT IN":
			values := clause.Values
			if len(values) == 0 && clause.Value != "" {
				values = []string{clause.Value}
			}
			if len(values) == 0 {
				return joins, apperr.ValidationError("meta IN comparison needs values",
					apperr.FieldError{Field: "meta_query.values", Message: "must not be empty"})
			}
			if compare == "IN" {
				parts = append(parts, sb.In(value, sqlbuilder.Flatten(values)...))
			} else {
				parts = append(parts, sb.NotIn(value, sqlbuilder.Flatten(values)...))
			}
		default:
			return joins, apperr.ValidationError(fmt.Sprintf("unsupported meta compare %q", clause.Compare),
				apperr.FieldError{Field: "meta_query.compare", Message: "unsupported operator"})
		}

		if len(parts) > 0 {
			conditions = append(conditions, "("+strings.Join(parts, " AND ")+")")
		}

		if joins.primary == "" {
			joins.primary = value
		}
		if clause.Name != "" {
			joins.named[clause.Name] = value
		}
		if clause.Key != "" {
			if _, taken := joins.named[clause.Key]; !taken {
				joins.named[clause.Key] = value
			}
		}
	}

	joins.joined = true
	if len(conditions) > 0 {
		relation := " AND "
		if strings.EqualFold(strings.TrimSpace(meta.Relation), "OR") {
			relation = " OR "
		}
		sb.Where("(" + strings.Join(conditions, relation) + ")")
	}
	return joins, nil
}

// orderExpression resolves a meta-based "orderby" value, or returns "" when it is none.
func (joins metaJoins) orderExpression(orderby string) string {
	if !joins.joined {
		return ""
	}
	switch orderby {
	case "meta_value":
		return joins.primary
	case "meta_value_num":
		if joins.primary == "" {
			return ""
		}
		if strings.HasPrefix(joins.primary, "CAST(") {
			return joins.primary
		}
		return fmt.Sprintf("CAST(%s AS NUMERIC)", joins.primary)
	}
	return joins.named[orderby]
}
