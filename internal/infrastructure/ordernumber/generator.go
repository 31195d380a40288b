package ordernumber

import (
	"context"
	"strings"
	"time"

	"loja_checkout/internal/usecase/interfaces"

	"github.com/google/uuid"
)

const suffixLen = 6

// Generator builds order numbers shaped PREFIX-YYYYMMDD-XXXXXX, where the
// suffix is taken from a random UUID. Collisions are possible and are caught
// by the order number guard on write.
type Generator struct {
	prefix string
	now    func() time.Time
}

var _ interfaces.IOrderNumberGenerator = (*Generator)(nil)

func NewGenerator(prefix string) *Generator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "LJ"
	}
	return &Generator{prefix: prefix, now: time.Now}
}

func (g *Generator) Next(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:suffixLen]
	return g.prefix + "-" + g.now().UTC().Format("20060102") + "-" + suffix, nil
}
