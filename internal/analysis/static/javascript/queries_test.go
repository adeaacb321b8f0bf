// Filename: javascript/queries_test.go
package javascript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTaggedTemplateQuery(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"sql`SELECT * FROM t WHERE id = ${id}`", true},
		{"prisma.$queryRaw`SELECT ${id}`", true},
		{"Prisma.sql`x ${y}`", true},
		{"html`<b>${x}</b>`", false},
		{"db.query(`SELECT ${id}`)", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			tree, call := firstExpression(t, tt.code, "a.js")
			assert.Equal(t, tt.want, IsTaggedTemplateQuery(tree, call))
		})
	}
}

func TestRawQueryCalls(t *testing.T) {
	tests := []struct {
		code    string
		raw     bool
		dynamic bool
	}{
		{"db.query(`SELECT * FROM t WHERE id = ${id}`)", true, true},
		{"db.query('SELECT 1')", true, false},
		{"db.query('SELECT * FROM t WHERE id = ' + id)", true, true},
		{"db.query('SELECT ' + 'now()')", true, false},
		{"db.query(sql`SELECT ${id}`)", true, false},
		{"query(`x ${y}`)", false, false},
		{"prisma.$queryRawUnsafe(`SELECT ${id}`)", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			tree, call := firstExpression(t, tt.code, "a.js")
			assert.Equal(t, tt.raw, IsRawQueryCall(tree, call))
			if tt.raw {
				assert.Equal(t, tt.dynamic, DynamicQueryText(tree, FirstArgument(tree, call)))
				assert.Equal(t, tt.dynamic, DynamicQueryLine(tt.code) >= 0, "text twin")
			}
		})
	}
}
