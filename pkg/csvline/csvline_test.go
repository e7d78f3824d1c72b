package csvline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFields(t *testing.T) {
	cases := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"escaped quote", `a,"b,c","d""e",f`, []string{"a", "b,c", `d"e`, "f"}},
		{"trailing comma", "a,b,", []string{"a", "b", ""}},
		{"whitespace trimmed", " a , b ,c ", []string{"a", "b", "c"}},
		{"empty line", "", []string{""}},
		{"only commas", ",,", []string{"", "", ""}},
		{"unterminated quote", `a,"b,c`, []string{"a", "b,c"}},
		{"quoted empty", `a,"",b`, []string{"a", "", "b"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Fields(tc.line))
		})
	}
}
