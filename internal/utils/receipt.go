package utils

import (
	"strings"

	"github.com/google/uuid"
)

const receiptPrefix = "rcpt_"

// GenerateReceipt returns an opaque correlation token for a gateway order.
// The result stays within the gateway's 40 character receipt limit.
func GenerateReceipt() string {
	return receiptPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
