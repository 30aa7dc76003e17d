package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReceipt(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		r := GenerateReceipt()

		assert.Regexp(t, regexp.MustCompile(`^rcpt_[0-9a-f]{32}$`), r)
		assert.LessOrEqual(t, len(r), 40, "gateway rejects receipts longer than 40 chars")
	})

	t.Run("Uniqueness", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			r := GenerateReceipt()
			_, dup := seen[r]
			assert.False(t, dup, "receipt %s generated twice", r)
			seen[r] = struct{}{}
		}
	})
}
